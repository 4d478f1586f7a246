package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/eigentalk/internal/llm"
	"github.com/scrypster/eigentalk/internal/session"
	"github.com/scrypster/eigentalk/web/handlers"
)

// echoCompleter returns a canned reply for every completion call.
type echoCompleter struct {
	reply string
}

func (e *echoCompleter) Complete(_ context.Context, _ []llm.Message, _ llm.CompleteOptions) (string, error) {
	return e.reply, nil
}

func (e *echoCompleter) GetModel() string { return "echo-model" }

func newTestRelay(cfg handlers.RelayConfig) *handlers.SocketRelay {
	completer := &echoCompleter{reply: "narration text"}
	return handlers.NewSocketRelay(func() *session.Session {
		return session.New(completer, session.Options{})
	}, cfg)
}

func dial(t *testing.T, url string) *websocket.Conn { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, nil) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	require.NoError(t, err)
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) session.Reply { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(msg))) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var reply session.Reply
	require.NoError(t, json.Unmarshal(data, &reply))
	return reply
}

func TestSocketRelay_ValidatesOrigin(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	defer relay.Stop()

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.com")
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	w := httptest.NewRecorder()
	relay.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Forbidden")
}

func TestSocketRelay_MatrixRoundTrip(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 100, EventBurst: 100})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	conn := dial(t, srv.URL+"/ws")
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	reply := roundTrip(t, conn,
		`{"kind":"matrix","a":1,"b":0,"c":0,"d":1,"det":1,"disc":4,"collapsed":false}`)

	assert.Equal(t, "matrix", reply.Kind)
	assert.NotEmpty(t, reply.Text)
}

func TestSocketRelay_CommentAndChatRoundTrip(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 100, EventBurst: 100})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	conn := dial(t, srv.URL+"/ws")
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	reply := roundTrip(t, conn,
		`{"kind":"comment","snippet":"the arrows","text":"why do they move?","targetId":"t1"}`)
	assert.Equal(t, "reply", reply.Kind)
	assert.Equal(t, "t1", reply.TargetID)
	assert.NotEmpty(t, reply.Text)

	reply = roundTrip(t, conn, `{"kind":"chat","text":"what is a determinant?"}`)
	assert.Equal(t, "chat-reply", reply.Kind)
	assert.NotEmpty(t, reply.Text)
}

func TestSocketRelay_MalformedMessageKeepsConnectionAlive(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 100, EventBurst: 100})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	conn := dial(t, srv.URL+"/ws")
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	reply := roundTrip(t, conn, `{not json`)
	assert.Equal(t, "error", reply.Kind)
	assert.Equal(t, session.CodeBadMessage, reply.Code)

	// The session survives the bad message.
	reply = roundTrip(t, conn, `{"kind":"chat","text":"still here?"}`)
	assert.Equal(t, "chat-reply", reply.Kind)
}

func TestSocketRelay_RateLimitProducesErrorReply(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 0.001, EventBurst: 1})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	conn := dial(t, srv.URL+"/ws")
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	reply := roundTrip(t, conn, `{"kind":"chat","text":"one"}`)
	assert.Equal(t, "chat-reply", reply.Kind)

	reply = roundTrip(t, conn, `{"kind":"chat","text":"two"}`)
	assert.Equal(t, "error", reply.Kind)
	assert.Equal(t, session.CodeRateLimited, reply.Code)
}

func TestSocketRelay_ActiveSessionCount(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 100, EventBurst: 100})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	assert.Equal(t, 0, relay.ActiveSessions())

	conn := dial(t, srv.URL+"/ws")
	assert.Eventually(t, func() bool { return relay.ActiveSessions() == 1 },
		time.Second, 10*time.Millisecond)

	_ = conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	assert.Eventually(t, func() bool { return relay.ActiveSessions() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestSocketRelay_UnknownKindIgnoredSilently(t *testing.T) {
	relay := newTestRelay(handlers.RelayConfig{EventsPerSec: 100, EventBurst: 100})
	defer relay.Stop()

	srv := httptest.NewServer(relay)
	defer srv.Close()

	conn := dial(t, srv.URL+"/ws")
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }() //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"kind":"ping"}`))) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	// No reply for the ignored event; the next event still works.
	reply := roundTrip(t, conn, `{"kind":"chat","text":"hello"}`)
	assert.Equal(t, "chat-reply", reply.Kind)
	assert.False(t, strings.EqualFold(reply.Kind, "error"))
}
