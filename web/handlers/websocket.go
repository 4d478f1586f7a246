package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	"github.com/scrypster/eigentalk/internal/session"
)

// writeTimeout bounds each outbound WebSocket write.
const writeTimeout = 10 * time.Second

// SessionFactory creates a fresh session for a new connection.
type SessionFactory func() *session.Session

// RelayConfig holds the transport-level settings for the relay.
type RelayConfig struct {
	// AllowedOrigins lists the full origins (scheme://host:port) accepted
	// on upgrade. Requests without an Origin header are allowed so
	// non-browser clients can connect.
	AllowedOrigins []string

	// EventsPerSec and EventBurst bound the inbound event rate per
	// connection. Over-limit events get an error reply, not a disconnect.
	EventsPerSec float64
	EventBurst   int
}

// SocketRelay upgrades client connections and runs one session loop per
// connection. Events within a connection are processed strictly
// sequentially: the next event is not read until the previous one's
// completion call has finished and its reply has been written, so session
// mutations apply in arrival order without locking.
type SocketRelay struct {
	factory SessionFactory
	cfg     RelayConfig

	mu     sync.Mutex
	active map[*websocket.Conn]bool //nolint:staticcheck // TODO: migrate to github.com/coder/websocket

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSocketRelay creates a relay that builds a session per connection via
// factory.
func NewSocketRelay(factory SessionFactory, cfg RelayConfig) *SocketRelay {
	if cfg.EventsPerSec <= 0 {
		cfg.EventsPerSec = 2.0
	}
	if cfg.EventBurst <= 0 {
		cfg.EventBurst = 5
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SocketRelay{
		factory: factory,
		cfg:     cfg,
		active:  make(map[*websocket.Conn]bool), //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ActiveSessions reports the number of currently connected clients.
func (r *SocketRelay) ActiveSessions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Stop closes every live connection and rejects new ones.
func (r *SocketRelay) Stop() {
	r.cancel()

	r.mu.Lock()
	for conn := range r.active {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	}
	r.active = make(map[*websocket.Conn]bool) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	r.mu.Unlock()
}

// ServeHTTP handles WebSocket upgrade requests.
func (r *SocketRelay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Validate Origin header. An empty Origin means a non-browser client.
	origin := req.Header.Get("Origin")
	if origin != "" && !r.originAllowed(origin) {
		http.Error(w, "Forbidden: invalid origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{ //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		OriginPatterns: originPatterns(r.cfg.AllowedOrigins),
	})
	if err != nil {
		log.Printf("ERROR: WebSocket upgrade failed: %v", err)
		return
	}

	r.register(conn)
	defer r.unregister(conn)

	r.serveSession(conn)
}

// serveSession runs the read/handle/write loop for one connection. Returns
// when the client disconnects or the relay is stopped.
func (r *SocketRelay) serveSession(conn *websocket.Conn) { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	sess := r.factory()
	limiter := rate.NewLimiter(rate.Limit(r.cfg.EventsPerSec), r.cfg.EventBurst)

	log.Printf("session %s connected (total: %d)", sess.ID(), r.ActiveSessions())
	defer log.Printf("session %s disconnected", sess.ID())

	for {
		typ, data, err := conn.Read(r.ctx)
		if err != nil {
			// Disconnect or shutdown; per-connection state is discarded.
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var reply *session.Reply
		if !limiter.Allow() {
			reply = session.ErrorReply(session.CodeRateLimited, "too many events, slow down")
		} else {
			reply = sess.HandleRaw(r.ctx, data)
		}
		if reply == nil {
			continue
		}

		if err := r.write(conn, reply); err != nil {
			log.Printf("ERROR: session %s: write failed: %v", sess.ID(), err)
			return
		}
	}
}

func (r *SocketRelay) write(conn *websocket.Conn, reply *session.Reply) error { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(r.ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
}

func (r *SocketRelay) register(conn *websocket.Conn) { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	r.mu.Lock()
	r.active[conn] = true
	r.mu.Unlock()
}

func (r *SocketRelay) unregister(conn *websocket.Conn) { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	r.mu.Lock()
	delete(r.active, conn)
	r.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
}

func (r *SocketRelay) originAllowed(origin string) bool {
	for _, allowed := range r.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// originPatterns strips schemes off the configured origins for the
// host-pattern check websocket.Accept performs.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			patterns = append(patterns, o)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
