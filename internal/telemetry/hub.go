// Package telemetry streams sensor pack snapshots to websocket clients.
// It is a debugging feed: frames are fire and forget, and clients that
// cannot keep up are dropped.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/flightcore/internal/core/observability/log"
	"github.com/zeusync/flightcore/pkg/generic"
	"golang.org/x/sync/errgroup"
)

// Config holds hub configuration
type Config struct {
	Path         string        `yaml:"path"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// SendBuffer is the number of frames queued per client before the
	// client is considered too slow and dropped.
	SendBuffer int `yaml:"send_buffer"`
	MaxClients int `yaml:"max_clients"`
}

func DefaultConfig() Config {
	return Config{
		Path:         "/contacts",
		WriteTimeout: 5 * time.Second,
		SendBuffer:   64,
		MaxClients:   64,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	// pack restricts the feed to one body's pack when set.
	pack string
}

type Hub struct {
	cfg      Config
	log      log.Log
	upgrader websocket.Upgrader
	bufs     *generic.Pool[*bytes.Buffer]

	mu      sync.Mutex
	clients map[*client]struct{}
}

type Option func(*Hub)

func WithConfig(cfg Config) Option {
	return func(h *Hub) { h.cfg = cfg }
}

func NewHub(logger log.Log, opts ...Option) *Hub {
	h := &Hub{
		cfg: DefaultConfig(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		bufs: generic.NewPool(func() *bytes.Buffer { return new(bytes.Buffer) },
			generic.WithReset(func(b *bytes.Buffer) { b.Reset() })),
		clients: make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cfg.SendBuffer <= 0 {
		h.cfg.SendBuffer = 1
	}
	h.log = logger.With(log.String("component", "telemetry"))
	return h
}

// Handler serves the websocket feed on the configured path. A "pack" query
// parameter limits a client to one body.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(h.cfg.Path, h.handleWebSocket)
	return mux
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxClients > 0 && h.Clients() >= h.cfg.MaxClients {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		pack: r.URL.Query().Get("pack"),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("client connected",
		log.String("remote", conn.RemoteAddr().String()),
		log.String("pack", c.pack),
	)

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop drains control frames until the peer goes away.
func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("client write failed", log.Error(err))
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
}

// Clients is the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) encode(f Frame) ([]byte, error) {
	buf := h.bufs.Get()
	defer h.bufs.Put(buf)
	if err := json.NewEncoder(buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encode telemetry frame: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func filter(f Frame, pack string) Frame {
	out := Frame{Scenario: f.Scenario, Time: f.Time}
	for _, p := range f.Packs {
		if p.Body == pack {
			out.Packs = append(out.Packs, p)
		}
	}
	return out
}

// Broadcast queues f for every client. Clients whose queue is full are
// dropped.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	encoded := make(map[string][]byte)
	for c := range h.clients {
		msg, ok := encoded[c.pack]
		if !ok {
			frame := f
			if c.pack != "" {
				frame = filter(f, c.pack)
			}
			var err error
			if msg, err = h.encode(frame); err != nil {
				h.log.Error("telemetry frame dropped", log.Error(err))
				return
			}
			encoded[c.pack] = msg
		}
		select {
		case c.send <- msg:
		default:
			h.log.Warn("slow client dropped", log.String("remote", c.conn.RemoteAddr().String()))
			delete(h.clients, c)
			close(c.send)
			_ = c.conn.Close()
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}

// Serve runs an HTTP server for the feed on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h.log.Info("telemetry listening", log.String("addr", addr), log.String("path", h.cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("telemetry server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
