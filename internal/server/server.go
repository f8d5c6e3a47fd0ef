// Package server exposes retrodesk over HTTP: the WebSocket play protocol,
// the chat proxy, the scores API and static files.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/retrodesk/internal/bridge"
	"github.com/vovakirdan/retrodesk/internal/chat"
	"github.com/vovakirdan/retrodesk/internal/registry"
	"github.com/vovakirdan/retrodesk/internal/sandbox"
	"github.com/vovakirdan/retrodesk/internal/scores"
)

// Options configures a Server.
type Options struct {
	Addr        string
	StaticDir   string
	CORSOrigins []string

	// Scripts is served read-only at /scripts.
	Scripts fs.FS
	Fetcher bridge.Fetcher
	Sandbox sandbox.Options

	// Scores may be nil, which disables the scores API.
	Scores *scores.Service
	TopN   int
	// Chat may be nil; /api/chat then reports a configuration error.
	Chat chat.Provider

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	opts     Options
	log      *log.Logger
	engine   *gin.Engine
	pages    *pageRegistry
	upgrader websocket.Upgrader
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	s := &Server{
		opts:  opts,
		log:   opts.Logger.WithPrefix("http"),
		pages: newPageRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	origins := s.opts.CORSOrigins
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/games", s.handleGames)
	r.Any("/api/chat", chat.Handler(s.opts.Chat, s.opts.Logger))

	r.GET("/api/scores/:game", s.handleTop)
	r.POST("/api/scores/:game", s.handleSubmit)
	r.GET("/api/scores/:game/high", s.handleHigh)
	r.GET("/api/scores/:game/live", s.handleLive)

	r.GET("/ws/play", s.handlePlay)

	if s.opts.Scripts != nil {
		r.StaticFS("/scripts", http.FS(s.opts.Scripts))
	}
	if s.opts.StaticDir != "" {
		files := http.FileServer(http.Dir(s.opts.StaticDir))
		r.NoRoute(gin.WrapH(files))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down and closes every page.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.pages.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type gameInfo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Gesture     string   `json:"gesture"`
	Competitive bool     `json:"competitive"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Controls    []string `json:"controls"`
	TouchHint   string   `json:"touchHint"`
	Source      string   `json:"source"`
}

func (s *Server) handleGames(c *gin.Context) {
	list := registry.List()
	out := make([]gameInfo, 0, len(list))
	for _, g := range list {
		e, err := registry.Lookup(g.ID)
		if err != nil {
			continue
		}
		out = append(out, gameInfo{
			ID:          e.ID,
			Title:       e.Title,
			Gesture:     e.Gesture.String(),
			Competitive: e.Competitive,
			Width:       e.Runtime.ScreenW,
			Height:      e.Runtime.ScreenH,
			Controls:    e.Controls,
			TouchHint:   e.TouchHint,
			Source:      "/scripts/" + e.Source,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"pages":  s.pages.Count(),
		"games":  s.pages.CountByGame(),
	})
}
