package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"todoassist/internal/agent"
	"todoassist/internal/observability"
	"todoassist/internal/storage"
)

// Server wires the JSON API: auth, owner-scoped task CRUD, and the chat
// endpoint that drives the resolution policy.
type Server struct {
	store    storage.Store
	engine   agent.Engine
	sessions *agent.SessionManager
	tokenTTL time.Duration
	log      *slog.Logger
}

func NewServer(store storage.Store, engine agent.Engine, sessions *agent.SessionManager, tokenTTL time.Duration) *Server {
	return &Server{
		store:    store,
		engine:   engine,
		sessions: sessions,
		tokenTTL: tokenTTL,
		log:      observability.Logger().With("component", "httpapi"),
	}
}

// Router builds the route table. Everything under /api except auth
// requires a bearer token.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.requireAuth)
	authed.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{taskID}", s.handleGetTask).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{taskID}", s.handleUpdateTask).Methods(http.MethodPut)
	authed.HandleFunc("/tasks/{taskID}", s.handleDeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{taskID}/complete", s.handleCompleteTask).Methods(http.MethodPost)
	authed.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	return withRequestLog(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// withRequestLog assigns a request id, stores it in the context, and
// logs one line per request with status and latency.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		ctx := observability.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(ctx))

		observability.LoggerFromContext(ctx).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
