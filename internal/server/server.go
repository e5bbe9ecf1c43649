// Package server exposes accounts and tasks over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhle/focusflow/internal/auth"
	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/tasks"
)

// Server wires the HTTP routes to the account and task services.
type Server struct {
	router *mux.Router
	auth   *auth.Service
	tasks  *tasks.Service
	logger *slog.Logger

	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	tasksCreated  prometheus.Counter
	subItemToggle prometheus.Counter
}

// New creates a server and registers its routes.
func New(authSvc *auth.Service, taskSvc *tasks.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	s := &Server{
		router:   mux.NewRouter(),
		auth:     authSvc,
		tasks:    taskSvc,
		logger:   logger.With("component", "server"),
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "focusflow_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "focusflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		tasksCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "focusflow_tasks_created_total",
			Help: "Tasks created through the API.",
		}),
		subItemToggle: factory.NewCounter(prometheus.CounterOpts{
			Name: "focusflow_subitem_toggles_total",
			Help: "Sub-item completion toggles through the API.",
		}),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.instrument)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/signup", s.signUp).Methods(http.MethodPost)
	api.HandleFunc("/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/verify", s.verify).Methods(http.MethodPost)
	api.HandleFunc("/password/reset", s.requestReset).Methods(http.MethodPost)
	api.HandleFunc("/password/reset/confirm", s.confirmReset).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.Use(s.requireAuth)

	private.HandleFunc("/me", s.getMe).Methods(http.MethodGet)
	private.HandleFunc("/me", s.updateMe).Methods(http.MethodPatch)
	private.HandleFunc("/me", s.deleteMe).Methods(http.MethodDelete)
	private.HandleFunc("/notifications", s.listNotifications).Methods(http.MethodGet)
	private.HandleFunc("/notifications/{id}/read", s.markNotificationRead).Methods(http.MethodPost)

	private.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	private.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	private.HandleFunc("/tasks/summary", s.summary).Methods(http.MethodGet)
	private.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	private.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPatch)
	private.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	private.HandleFunc("/tasks/{id}/concluida", s.setComplete).Methods(http.MethodPut)
	private.HandleFunc("/tasks/{id}/subtarefas", s.addSubItem).Methods(http.MethodPost)
	private.HandleFunc("/tasks/{id}/subtarefas", s.replaceSubItems).Methods(http.MethodPut)
	private.HandleFunc("/tasks/{id}/subtarefas/{index:[0-9]+}", s.renameSubItem).Methods(http.MethodPatch)
	private.HandleFunc("/tasks/{id}/subtarefas/{index:[0-9]+}", s.removeSubItem).Methods(http.MethodDelete)
	private.HandleFunc("/tasks/{id}/subtarefas/{index:[0-9]+}/toggle", s.toggleSubItem).Methods(http.MethodPost)
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request metrics and an access log line.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.logger.Debug("request", append(logAttrs(r, rec.status), "elapsed", time.Since(start))...)
	})
}

type ctxKey struct{}

// requireAuth resolves the bearer token to a user.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.writeError(w, r, auth.ErrInvalidToken)
			return
		}
		user, err := s.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

// currentUser returns the user resolved by requireAuth.
func currentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(ctxKey{}).(*model.User)
	return u
}
