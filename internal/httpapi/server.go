package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/alertledger/internal/alerts"
	"github.com/hamed0406/alertledger/internal/domain"
	apimw "github.com/hamed0406/alertledger/internal/httpapi/middleware"
	"github.com/hamed0406/alertledger/internal/metrics"
	"github.com/hamed0406/alertledger/internal/repo"
)

type Server struct {
	Logger      *zap.Logger
	Alerts      repo.AlertStore
	Tasks       repo.TaskLog
	Acks        repo.AcknowledgementReader // optional
	Metrics     *metrics.Metrics
	DefaultUser string
}

func NewServer(l *zap.Logger, store repo.AlertStore, tasks repo.TaskLog, acks repo.AcknowledgementReader, m *metrics.Metrics, defaultUser string) *Server {
	return &Server{
		Logger:      l,
		Alerts:      store,
		Tasks:       tasks,
		Acks:        acks,
		Metrics:     m,
		DefaultUser: defaultUser,
	}
}

// Router wires the API. An empty allowedOrigins list allows any origin.
func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, publicRPM, publicBurst, adminRPM, adminBurst int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(corsHandler(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.Metrics.Handler())

	r.Route("/api/alerts", func(r chi.Router) {
		r.Use(apimw.ActingUser(s.DefaultUser))

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAny(keys))
			r.Use(apimw.RateLimit(publicRPM, publicBurst))
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Head("/{id}", s.handleExists)
			r.Get("/{id}/acks", s.handleListAcks)
			r.Post("/{id}/ack", s.handleAcknowledge)
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(keys))
			r.Use(apimw.RateLimit(adminRPM, adminBurst))
			r.Post("/", s.handleCreate)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", apimw.UserHeader},
		MaxAge:         300,
	})
}

// manager builds a request-scoped alert manager for the acting user.
func (s *Server) manager(r *http.Request) *alerts.Manager {
	return alerts.New(s.Alerts, s.Tasks, apimw.UserFrom(r.Context()), s.Logger, alerts.WithMetrics(s.Metrics))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	all, err := s.manager(r).List(r.Context())
	if err != nil {
		s.serverError(w, "list_alerts_error", err)
		return
	}
	if all == nil {
		all = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, found, err := s.manager(r).Get(r.Context(), id)
	if err != nil {
		s.serverError(w, "get_alert_error", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.manager(r).Exists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.Logger.Error("alert_exists_error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type createPayload struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" || p.Category == "" {
		writeError(w, http.StatusBadRequest, "id and category are required")
		return
	}

	a, ok, err := s.manager(r).Create(r.Context(), p.ID, p.Category)
	if err != nil {
		s.serverError(w, "create_alert_error", err)
		return
	}
	if !ok {
		writeError(w, http.StatusInternalServerError, "could not create alert")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := s.manager(r).Acknowledge(r.Context(), id)
	if err != nil {
		var tle *alerts.TaskLogError
		if errors.As(err, &tle) {
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error":    tle.Error(),
				"alert_id": tle.AlertID,
			})
			return
		}
		s.serverError(w, "acknowledge_alert_error", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAcks(w http.ResponseWriter, r *http.Request) {
	if s.Acks == nil {
		writeError(w, http.StatusNotImplemented, "task log is not readable")
		return
	}
	acks, err := s.Acks.Acknowledgements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.serverError(w, "list_acks_error", err)
		return
	}
	if acks == nil {
		acks = []domain.Acknowledgement{}
	}
	writeJSON(w, http.StatusOK, acks)
}

func (s *Server) serverError(w http.ResponseWriter, event string, err error) {
	s.Logger.Error(event, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
