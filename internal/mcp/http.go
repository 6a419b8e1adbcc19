package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SessionHeader carries the streamable HTTP session id.
const SessionHeader = "Mcp-Session-Id"

const maxBodySize = 4 * 1024 * 1024

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type sessions struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (ss *sessions) open() string {
	id := uuid.NewString()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.ids[id] = time.Now()
	return id
}

func (ss *sessions) has(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.ids[id]
	return ok
}

func (ss *sessions) close(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	_, ok := ss.ids[id]
	delete(ss.ids, id)
	return ok
}

func (ss *sessions) count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.ids)
}

// Handler returns the streamable HTTP router: POST and DELETE /mcp, GET
// /health and GET /metrics.
func (s *Server) Handler(cfg HTTPConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	ss := &sessions{ids: make(map[string]time.Time)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader, "Mcp-Protocol-Version"},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Post("/mcp", s.handlePost(ss))
	r.Delete("/mcp", func(w http.ResponseWriter, req *http.Request) {
		if !ss.close(req.Header.Get(SessionHeader)) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		s.metrics.setSessions(ss.count())
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/mcp", func(w http.ResponseWriter, _ *http.Request) {
		// No server-initiated stream.
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	return r
}

func (s *Server) handlePost(ss *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse(nil, CodeParseError, "Parse error", nil))
			return
		}
		req, errResp := Parse(body)
		if errResp != nil {
			writeJSON(w, http.StatusBadRequest, errResp)
			return
		}

		var sessionID string
		if req.Method == "initialize" {
			sessionID = ss.open()
			s.metrics.setSessions(ss.count())
			w.Header().Set(SessionHeader, sessionID)
			s.log.Debug("session opened", zap.String("session", sessionID))
		} else {
			sessionID = r.Header.Get(SessionHeader)
			if sessionID == "" {
				writeJSON(w, http.StatusBadRequest,
					errorResponse(req.ID, CodeInvalidRequest, "Bad Request: missing "+SessionHeader+" header", nil))
				return
			}
			if !ss.has(sessionID) {
				writeJSON(w, http.StatusNotFound,
					errorResponse(req.ID, CodeInvalidRequest, "Session not found", nil))
				return
			}
		}

		resp := s.Handle(r.Context(), req)
		if resp == nil {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("mcp: write response", zap.Error(err))
	}
}

// ListenAndServe listens on cfg.Host:cfg.Port until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg HTTPConfig) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("server shutdown", zap.Error(err))
		}
	}()

	s.log.Info("starting server", zap.String("addr", addr), zap.String("path", "/mcp"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "mcp: server listen")
	}
	return nil
}
