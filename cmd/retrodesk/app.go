package main

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/chat"
	"github.com/vovakirdan/retrodesk/internal/platform/tui"
	"github.com/vovakirdan/retrodesk/internal/programs"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
	"github.com/vovakirdan/retrodesk/internal/scores"
	"github.com/vovakirdan/retrodesk/internal/storage"
)

// openScores opens the configured store and local cache. A store that
// cannot be opened leaves a cache-only service.
func openScores() (*scores.Service, func()) {
	cache, err := scores.OpenCache(cfg.Scores.LocalCache)
	if err != nil {
		logger.Warn("local score cache unavailable", "path", cfg.Scores.LocalCache, "err", err)
		cache = nil
	}

	store, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Target())
	if err != nil {
		logger.Warn("score store unavailable, using local cache only", "driver", cfg.Storage.Driver, "err", err)
		return scores.NewService(nil, cache, logger), func() {}
	}
	return scores.NewService(store, cache, logger), func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing score store", "err", err)
		}
	}
}

func sandboxOptions() sandbox.Options {
	return sandbox.Options{
		ReadyAttempts: cfg.Sandbox.ReadyAttempts,
		ReadyDelay:    cfg.Sandbox.ReadyDelay,
	}
}

// sourceFetcher reads program sources from scriptsURL, the configured
// scripts directory or the bundle, in that order.
func sourceFetcher(scriptsURL string) bridge.Fetcher {
	if scriptsURL != "" {
		return programs.HTTPFetcher{BaseURL: scriptsURL}
	}
	return programs.NewFetcher(cfg.Server.ScriptsDir)
}

func scriptsFS() fs.FS {
	if cfg.Server.ScriptsDir != "" {
		return os.DirFS(cfg.Server.ScriptsDir)
	}
	return programs.Files
}

func tuiDeps(service *scores.Service, scriptsURL string) tui.Deps {
	return tui.Deps{
		Scores:  service,
		Fetcher: sourceFetcher(scriptsURL),
		Sandbox: sandboxOptions(),
		Logger:  logger,
	}
}

// chatProvider builds the configured provider. When fallback is set a
// missing key selects the offline canned bot.
func chatProvider(ctx context.Context, fallback bool) (chat.Provider, error) {
	c := chat.Config{
		Provider:    cfg.Chat.Provider,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		APIKey:      cfg.ChatAPIKey(),
		Persona:     cfg.Chat.Persona,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}
	p, err := chat.NewProvider(ctx, c)
	if errors.Is(err, chat.ErrMissingKey) && fallback {
		logger.Warn("no chat API key, using the offline bot", "env", cfg.Chat.APIKeyEnv)
		c.Provider = "canned"
		return chat.NewProvider(ctx, c)
	}
	return p, err
}
