package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/nachochat/internal/config"
	"github.com/vovakirdan/nachochat/internal/core"
	"github.com/vovakirdan/nachochat/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  *core.Hub
	cfg  *config.Config
	opts *websocket.AcceptOptions
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:  hub,
		cfg:  cfg,
		opts: acceptOptions(cfg.AllowedOrigins),
		log:  logger,
	}
}

// acceptOptions allows any origin unless a non-wildcard allow-list is configured.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
	}
	if len(origins) == 0 {
		opts.InsecureSkipVerify = true
		return opts
	}
	opts.OriginPatterns = origins
	return opts
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, h.opts)
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := core.NewClient(utils.NewID(), h.cfg.ClientBuffer)
	if err := h.hub.RegisterClient(ctx, client); err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("register client")
		conn.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	defer h.hub.UnregisterClient(client)

	h.log.Debug().Str("client_id", client.ID).Str("remote", r.RemoteAddr).Msg("ws connected")

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh
	client.Close()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if errors.Is(err, core.ErrClientClosed) || errors.Is(err, core.ErrHubClosed) {
			status = websocket.StatusGoingAway
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "internal error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}

	h.log.Debug().Str("client_id", client.ID).Int("status", int(status)).Msg("ws disconnected")
	conn.Close(status, reason)
}

// readLoop hands every frame to the hub in the order it arrived. Frame
// content is never a reason to close the connection; the hub ignores
// anything it cannot parse.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.allow() {
			h.log.Debug().Str("client_id", client.ID).Msg("rate limit exceeded, frame dropped")
			continue
		}
		if err := h.hub.Submit(ctx, client, data); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := h.write(ctx, conn, event.Payload); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-client.Done():
			return core.ErrClientClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
