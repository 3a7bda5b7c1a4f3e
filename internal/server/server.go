package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"indexchat/internal/appstate"
	"indexchat/internal/chat"
	"indexchat/internal/model"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Chatter answers one user message. *chat.Service implements it.
type Chatter interface {
	Reply(ctx context.Context, message string) string
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options for running the HTTP server. Health is optional; when nil /healthz
// always reports ok. GET /stats is mounted only when Stats is set.
type Options struct {
	Chat   Chatter
	Health Pinger
	Stats  *appstate.ChatState
	Logger *slog.Logger
}

type Server struct {
	chat   Chatter
	health Pinger
	stats  *appstate.ChatState
	logger *slog.Logger
	router chi.Router
}

func New(opts Options) (*Server, error) {
	if opts.Chat == nil {
		return nil, errors.New("server: chat handler is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{chat: opts.Chat, health: opts.Health, stats: opts.Stats, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(s.recoverReply)
	r.Post("/chat", s.handleChat)
	r.Get("/healthz", s.handleHealth)
	if s.stats != nil {
		r.Get("/stats", s.handleStats)
	}
	s.router = r
	return s, nil
}

// Handler returns the routed handler (for tests and for mounting elsewhere).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve blocks while handling HTTP. Cancel ctx to initiate graceful shutdown;
// in-flight requests are allowed to drain.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A chat turn can spend several seconds in backoff before the second model call.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	reply := s.chat.Reply(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, model.ChatResponse{Reply: reply})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			loggerFrom(r).Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

// requestID tags every request with an ID, echoes it in the response and
// scopes a logger carrying it into the request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		logger := s.logger.With("request_id", id)
		ctx := chat.ContextWithLogger(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		loggerFrom(r).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// recoverReply is the last line of defense: a panic on the chat path still
// answers 200 with an error reply instead of dropping the connection.
func (s *Server) recoverReply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			loggerFrom(r).Error("handler panicked", "panic", rec, "path", r.URL.Path)
			writeJSON(w, http.StatusOK, model.ChatResponse{Reply: fmt.Sprintf("Error: %v", rec)})
		}()
		next.ServeHTTP(w, r)
	})
}

func loggerFrom(r *http.Request) *slog.Logger {
	return chat.LoggerFrom(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
