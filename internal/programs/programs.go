// Package programs bundles the game program sources and registers them in
// the registry. Sources are plain Go text evaluated by the sandbox.
package programs

import (
	"embed"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/retrodesk/internal/core"
	"github.com/vovakirdan/retrodesk/internal/registry"
)

//go:embed files
var embedded embed.FS

// Files is the bundled source tree, rooted at the manifest directory.
var Files fs.FS

type manifest struct {
	Games []manifestGame `yaml:"games"`
}

type manifestGame struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Source      string   `yaml:"source"`
	Gesture     string   `yaml:"gesture"`
	Competitive bool     `yaml:"competitive"`
	TickRate    int      `yaml:"tick_rate"`
	Width       int      `yaml:"width"`
	Height      int      `yaml:"height"`
	Controls    []string `yaml:"controls"`
	TouchHint   string   `yaml:"touch_hint"`
}

func (g manifestGame) entry() registry.Entry {
	rt := core.DefaultConfig()
	if g.TickRate > 0 {
		rt.TickRate = g.TickRate
	}
	if g.Width > 0 {
		rt.ScreenW = g.Width
	}
	if g.Height > 0 {
		rt.ScreenH = g.Height
	}
	return registry.Entry{
		ID:          g.ID,
		Title:       g.Title,
		Source:      g.Source,
		Gesture:     core.ParseGestureMode(g.Gesture),
		Competitive: g.Competitive,
		Runtime:     rt,
		Controls:    g.Controls,
		TouchHint:   g.TouchHint,
	}
}

// ParseManifest decodes a manifest document into registry entries.
func ParseManifest(data []byte) ([]registry.Entry, error) {
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("programs: parse manifest: %w", err)
	}
	out := make([]registry.Entry, 0, len(m.Games))
	for i, g := range m.Games {
		if g.ID == "" || g.Source == "" {
			return nil, fmt.Errorf("programs: manifest entry %d: id and source are required", i)
		}
		out = append(out, g.entry())
	}
	return out, nil
}

func init() {
	sub, err := fs.Sub(embedded, "files")
	if err != nil {
		panic(err)
	}
	Files = sub

	data, err := fs.ReadFile(Files, "manifest.yaml")
	if err != nil {
		panic(err)
	}
	entries, err := ParseManifest(data)
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		registry.Register(e)
	}
}
