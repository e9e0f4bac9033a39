// internal/stream/ws.go
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local rendering clients
	},
}

// WebConfig holds the live-state web endpoint configuration.
type WebConfig struct {
	// Addr is the listen address (from config: web_listen)
	Addr string
	// IntervalMs is the WebSocket push cadence (from config: publish_interval_ms)
	IntervalMs int
}

// WebServer exposes the live state as a JSON GET endpoint and a WebSocket
// push stream for rendering collaborators.
type WebServer struct {
	addr     string
	interval time.Duration
	snapshot SnapshotFunc
}

// NewWebServer creates a web server serving the given snapshot source.
func NewWebServer(cfg WebConfig, snapshot SnapshotFunc) *WebServer {
	return &WebServer{
		addr:     cfg.Addr,
		interval: time.Duration(cfg.IntervalMs) * time.Millisecond,
		snapshot: snapshot,
	}
}

// Run serves until the context is cancelled.
func (s *WebServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/ws/state", s.handleWS)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("stream: web server listening on %s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebServer) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
		log.Printf("stream: json encode error: %v", err)
	}
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("stream: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.WriteJSON(s.snapshot()); err != nil {
			// Client went away; normal teardown.
			return
		}
	}
}
