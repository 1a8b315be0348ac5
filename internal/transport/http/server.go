package http

import (
	_ "embed"
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/nachochat/internal/config"
	"github.com/vovakirdan/nachochat/internal/core"
)

//go:embed web/index.html
var indexHTML []byte

// NewServer builds the HTTP server: the chat page, the WebSocket endpoint,
// health, a read-only history endpoint and, when metrics is non-nil, /metrics.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger, metrics stdhttp.Handler) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	ws := NewWSHandler(hub, cfg, logger)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))
	router.GET("/", func(c *gin.Context) {
		c.Data(stdhttp.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	router.GET("/health", healthHandler)
	router.GET("/api/history", historyHandler(hub, logger))
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	// WebSocket sessions hijack the connection, which gin's response writer
	// refuses once the handshake is written, so they bypass the engine.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", upgradeOr(ws, router))

	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// upgradeOr sends WebSocket upgrades on / to ws and everything else to next.
// The page dials the same URL it was served from.
func upgradeOr(ws, next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.URL.Path == "/" && isWebSocketUpgrade(r) {
			ws.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// historyHandler serves the same payload a new connection receives on connect.
func historyHandler(hub *core.Hub, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := core.EncodeHistory(hub.History().Snapshot())
		if err != nil {
			logger.Error().Err(err).Msg("encode history")
			c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Data(stdhttp.StatusOK, "application/json", payload)
	}
}

func isWebSocketUpgrade(r *stdhttp.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
