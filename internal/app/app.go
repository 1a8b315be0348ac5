package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/nachochat/internal/config"
	"github.com/vovakirdan/nachochat/internal/core"
	"github.com/vovakirdan/nachochat/internal/metrics"
	transporthttp "github.com/vovakirdan/nachochat/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	policy, err := core.ParseReactionPolicy(cfg.Reactions.Policy)
	if err != nil {
		return nil, fmt.Errorf("reaction policy: %w", err)
	}

	m := metrics.New()
	hub := core.NewHub(core.HubOptions{
		HistoryLimit:    cfg.History.Limit,
		ReactionPolicy:  policy,
		RecordReactions: cfg.History.RecordReactions,
		Logger:          logger,
		Recorder:        m,
	})
	server := transporthttp.NewServer(hub, cfg, logger, m.Handler())

	logger.Info().
		Int("history_limit", hub.History().Limit()).
		Str("reaction_policy", string(policy)).
		Bool("record_reactions", cfg.History.RecordReactions).
		Msg("hub configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the hub and serves HTTP on ln until ctx is cancelled.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer func() {
		stopHub()
		<-a.hub.Done()
	}()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked WebSocket connections are not tracked by Shutdown;
		// stopping the hub closes their sessions.
		stopHub()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
