// server.go - HTTP and websocket access to a live terminal
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"termcore/internal/vt"
)

const (
	defaultFPS      = 30
	shutdownTimeout = 5 * time.Second
)

// ResizeFunc is told about a successful resize, normally to resize the PTY.
type ResizeFunc func(rows, cols int) error

// Server exposes snapshots of one terminal.
type Server struct {
	term     *vt.Terminal
	hub      *Hub
	router   *mux.Router
	onResize ResizeFunc
	upgrader websocket.Upgrader
}

type Option func(*serverOptions)

type serverOptions struct {
	fps      int
	onResize ResizeFunc
	origins  []string
}

// WithFrameRate caps how often websocket clients receive frames.
func WithFrameRate(fps int) Option {
	return func(o *serverOptions) {
		if fps > 0 {
			o.fps = fps
		}
	}
}

func WithResizeHook(fn ResizeFunc) Option {
	return func(o *serverOptions) { o.onResize = fn }
}

// WithAllowedOrigins lets browser pages from the given origins, such as
// "http://localhost:3000", open the websocket. Same-origin requests and
// clients that send no Origin are always accepted.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *serverOptions) { o.origins = append(o.origins, origins...) }
}

// checkOrigin rejects cross-site websocket requests unless the origin is
// listed.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
				return true
			}
		}
		log.Printf("[server] rejected websocket from origin %s", origin)
		return false
	}
}

func New(term *vt.Terminal, opts ...Option) *Server {
	o := serverOptions{fps: defaultFPS}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		term:     term,
		hub:      NewHub(term, time.Second/time.Duration(o.fps)),
		onResize: o.onResize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     checkOrigin(o.origins),
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/tabs", s.handleTabs).Methods(http.MethodGet)
	api.HandleFunc("/resize", s.handleResize).Methods(http.MethodPost)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run drives websocket frames until ctx is done.
func (s *Server) Run(ctx context.Context) { s.hub.Run(ctx) }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Run(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Printf("[server] listening on %s", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Printf("[server] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type resizeRequest struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.term.Snapshot())
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tabs":   s.term.Tabs(),
		"active": s.term.ActiveTab(),
	})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode resize: %w", err))
		return
	}

	if err := s.term.Resize(req.Rows, req.Cols); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.onResize != nil {
		if err := s.onResize(req.Rows, req.Cols); err != nil {
			log.Printf("[server] resize hook: %v", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	rows, cols := s.term.Size()
	writeJSON(w, http.StatusOK, resizeRequest{Rows: rows, Cols: cols})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
