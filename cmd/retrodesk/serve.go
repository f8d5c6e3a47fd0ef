package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/retrodesk/internal/platform/tui"
	"github.com/vovakirdan/retrodesk/internal/server"
	"github.com/vovakirdan/retrodesk/internal/storage"
)

var (
	flagAddr       string
	flagStatic     string
	flagSSH        bool
	flagSSHAddr    string
	flagScriptsURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the retrodesk HTTP server",
	Long: `Start the HTTP server: the WebSocket play endpoint, the chat proxy,
the scores API, the program sources and, when configured, the desktop's
static files.

With --ssh the terminal arcade is served over SSH as well. All sessions
share one score store.

Examples:
  retrodesk serve
  retrodesk serve --addr :9000 --static ./web
  retrodesk serve --ssh --ssh-addr :2222

Players connect over SSH with:
  ssh localhost -p 2222`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagStatic, "static", "", "Directory with the desktop's static files (overrides config)")
	serveCmd.Flags().BoolVar(&flagSSH, "ssh", false, "Also serve the terminal arcade over SSH")
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh-addr", "", "SSH listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagScriptsURL, "scripts-url", "", "Fetch program sources from this base URL")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagStatic != "" {
		cfg.Server.StaticDir = flagStatic
	}
	if flagSSHAddr != "" {
		cfg.SSH.Addr = flagSSHAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service, closeScores := openScores()
	defer closeScores()

	provider, err := chatProvider(ctx, false)
	if err != nil {
		logger.Warn("chat proxy disabled", "err", err)
		provider = nil
	}

	srv := server.New(server.Options{
		Addr:        cfg.Server.Addr,
		StaticDir:   cfg.Server.StaticDir,
		CORSOrigins: cfg.Server.CORSOrigins,
		Scripts:     scriptsFS(),
		Fetcher:     sourceFetcher(flagScriptsURL),
		Sandbox:     sandboxOptions(),
		Scores:      service,
		TopN:        cfg.Scores.TopN,
		Chat:        provider,
		Logger:      logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if flagSSH {
		hostKey, err := storage.ExpandPath(cfg.SSH.HostKey)
		if err != nil {
			return err
		}
		sshSrv, err := tui.NewSSHServer(tui.SSHServerConfig{
			Address:     cfg.SSH.Addr,
			HostKeyPath: hostKey,
			IdleTimeout: cfg.SSH.IdleTimeout,
		}, tuiDeps(service, flagScriptsURL))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sshSrv.ListenAndServe(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}
