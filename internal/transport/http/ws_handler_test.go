package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/nachochat/internal/config"
	"github.com/vovakirdan/nachochat/internal/core"
	"github.com/vovakirdan/nachochat/internal/metrics"
)

type testServer struct {
	*httptest.Server
	hub     *core.Hub
	stopHub context.CancelFunc
}

func startTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	m := metrics.New()
	hub := core.NewHub(core.HubOptions{HistoryLimit: cfg.History.Limit, Recorder: m})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := NewServer(hub, &cfg, &logger, m.Handler())
	ts := httptest.NewServer(server.Handler)

	// Cleanups run last-in first-out: the hub stops before the server closes.
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	return &testServer{Server: ts, hub: hub, stopHub: cancel}
}

func (s *testServer) wsURL(path string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + path
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// dial connects to path and consumes the history frame, so the client is
// registered with the hub when dial returns.
func dial(t *testing.T, ctx context.Context, s *testServer, path string) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, s.wsURL(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, typ)
	require.Contains(t, string(data), `"type":"history"`)
	return conn, string(data)
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	return string(data)
}

func writeJSON(t *testing.T, ctx context.Context, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func message(id, name, text string) map[string]string {
	return map[string]string{"type": "message", "id": id, "name": name, "text": text}
}

func heart(id string) map[string]string {
	return map[string]string{"type": "reaction", "id": id, "emoji": "heart"}
}

func TestHealthEndpoint(t *testing.T) {
	s := startTestServer(t, nil)

	resp, err := s.Client().Get(s.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestIndexPage(t *testing.T) {
	s := startTestServer(t, nil)

	resp, err := s.Client().Get(s.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(body), "<html")
}

func TestChatScenario(t *testing.T) {
	s := startTestServer(t, nil)
	ctx := testContext(t)

	c1, hist := dial(t, ctx, s, "/ws")
	assert.JSONEq(t, `{"type":"history","data":[]}`, hist)
	c2, _ := dial(t, ctx, s, "/ws")
	c3, _ := dial(t, ctx, s, "/ws")

	writeJSON(t, ctx, c1, message("m1", "Al", "hi"))

	want := `{"type":"message","id":"m1","name":"Al","text":"hi","reactions":{"heart":0}}`
	assert.JSONEq(t, want, readFrame(t, ctx, c2))
	assert.JSONEq(t, want, readFrame(t, ctx, c3))

	writeJSON(t, ctx, c2, heart("m1"))

	// c1's next frame is c2's reaction, so its own message was not echoed.
	wantReaction := `{"type":"reaction","id":"m1","emoji":"heart"}`
	assert.JSONEq(t, wantReaction, readFrame(t, ctx, c1))
	assert.JSONEq(t, wantReaction, readFrame(t, ctx, c3))

	// The page's URL upgrades too.
	_, replay := dial(t, ctx, s, "/")
	assert.JSONEq(t,
		`{"type":"history","data":[{"type":"message","id":"m1","name":"Al","text":"hi","reactions":{"heart":1}}]}`,
		replay)
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	s := startTestServer(t, nil)
	ctx := testContext(t)

	c1, _ := dial(t, ctx, s, "/ws")
	c2, _ := dial(t, ctx, s, "/ws")

	require.NoError(t, c1.Write(ctx, websocket.MessageText, []byte("not json")))
	require.NoError(t, c1.Write(ctx, websocket.MessageBinary, []byte{0xff, 0x00}))
	require.NoError(t, c1.Write(ctx, websocket.MessageText, []byte(`{"type":"message","text":"  "}`)))
	writeJSON(t, ctx, c1, message("ok", "Al", "after garbage"))

	var got map[string]any
	require.NoError(t, wsjson.Read(ctx, c2, &got))
	assert.Equal(t, "ok", got["id"])

	writeJSON(t, ctx, c2, message("back", "Bo", "still there?"))
	require.NoError(t, wsjson.Read(ctx, c1, &got))
	assert.Equal(t, "back", got["id"])
	assert.Equal(t, 2, s.hub.History().Len())
}

func TestHistoryEndpoint(t *testing.T) {
	s := startTestServer(t, nil)
	ctx := testContext(t)

	c1, _ := dial(t, ctx, s, "/ws")
	c2, _ := dial(t, ctx, s, "/ws")
	writeJSON(t, ctx, c1, message("m1", "", "hello"))
	readFrame(t, ctx, c2)

	resp, err := s.Client().Get(s.URL + "/api/history")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t,
		`{"type":"history","data":[{"type":"message","id":"m1","name":"Anon","text":"hello","reactions":{"heart":0}}]}`,
		string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	s := startTestServer(t, nil)
	ctx := testContext(t)

	dial(t, ctx, s, "/ws")

	resp, err := s.Client().Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "nachochat_connections 1")
}

func TestRateLimitDropsExcessFrames(t *testing.T) {
	s := startTestServer(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{PerSecond: 0.001, Burst: 2}
	})
	ctx := testContext(t)

	c1, _ := dial(t, ctx, s, "/ws")
	c2, _ := dial(t, ctx, s, "/ws")

	for _, id := range []string{"r0", "r1", "r2", "r3", "r4"} {
		writeJSON(t, ctx, c1, message(id, "flood", id))
	}

	var got map[string]any
	require.NoError(t, wsjson.Read(ctx, c2, &got))
	assert.Equal(t, "r0", got["id"])
	require.NoError(t, wsjson.Read(ctx, c2, &got))
	assert.Equal(t, "r1", got["id"])

	assert.Never(t, func() bool { return s.hub.History().Len() > 2 }, 200*time.Millisecond, 20*time.Millisecond)
}

func TestOriginAllowList(t *testing.T) {
	s := startTestServer(t, func(cfg *config.Config) {
		cfg.AllowedOrigins = []string{"chat.example.com"}
	})
	ctx := testContext(t)

	_, resp, err := websocket.Dial(ctx, s.wsURL("/ws"), &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"Origin": []string{"https://evil.example.org"}},
	})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)
	}

	conn, _, err := websocket.Dial(ctx, s.wsURL("/ws"), &websocket.DialOptions{
		HTTPHeader: stdhttp.Header{"Origin": []string{"https://chat.example.com"}},
	})
	require.NoError(t, err)
	conn.CloseNow()
}

func TestHubStopClosesSessions(t *testing.T) {
	s := startTestServer(t, nil)
	ctx := testContext(t)

	conn, _ := dial(t, ctx, s, "/ws")
	s.stopHub()

	_, _, err := conn.Read(ctx)
	assert.Error(t, err)
}

func TestAcceptOptions(t *testing.T) {
	tests := []struct {
		name     string
		origins  []string
		skip     bool
		patterns []string
	}{
		{name: "empty allows all", skip: true},
		{name: "wildcard allows all", origins: []string{"example.com", "*"}, skip: true},
		{name: "allow list", origins: []string{"example.com"}, patterns: []string{"example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := acceptOptions(tt.origins)
			assert.Equal(t, tt.skip, opts.InsecureSkipVerify)
			assert.Equal(t, tt.patterns, opts.OriginPatterns)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	disabled := newRateLimiter(config.RateLimitConfig{})
	assert.Nil(t, disabled)
	assert.True(t, disabled.allow())

	l := newRateLimiter(config.RateLimitConfig{PerSecond: 0.001, Burst: 3})
	require.NotNil(t, l)
	for i := 0; i < 3; i++ {
		assert.True(t, l.allow())
	}
	assert.False(t, l.allow())
}

func TestWebSocketUpgradePaths(t *testing.T) {
	for _, path := range []string{"/ws", "/"} {
		t.Run(path, func(t *testing.T) {
			s := startTestServer(t, nil)
			ctx := testContext(t)

			conn, hist := dial(t, ctx, s, path)
			assert.JSONEq(t, `{"type":"history","data":[]}`, hist)
			assert.Equal(t, 1, s.hub.Clients())

			conn.Close(websocket.StatusNormalClosure, "bye")
			assert.Eventually(t, func() bool { return s.hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestPlainRequestToWebSocketPath(t *testing.T) {
	s := startTestServer(t, nil)

	resp, err := s.Client().Get(s.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, stdhttp.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, 0, s.hub.Clients())
}
