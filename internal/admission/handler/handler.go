// Package handler exposes the admission service over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"abitur/internal/admission/engine"
	"abitur/internal/admission/metrics"
	"abitur/internal/admission/models"
	"abitur/internal/admission/service"
	"abitur/internal/ingest"
	"abitur/internal/platform/middleware"
	"abitur/internal/report"
	dErrors "abitur/pkg/domain-errors"
	"abitur/pkg/platform/httputil"
)

// Handler serves the campaign API. Snapshot ingestion comes in two forms:
// a JSON snapshot posted directly, or an instruction to import the CSV day
// folder already on disk.
type Handler struct {
	service  *service.Service
	campaign ingest.Campaign
	dataDir  string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// New creates the API handler.
func New(svc *service.Service, campaign ingest.Campaign, dataDir string, opts ...Option) *Handler {
	h := &Handler{
		service:  svc,
		campaign: campaign,
		dataDir:  dataDir,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router assembles the full route tree. Mutating routes require a bearer
// token when a validator is configured; read routes stay open.
func (h *Handler) Router(validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/programs", h.listPrograms)
		r.Get("/days", h.listDays)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, h.logger))
			r.Post("/snapshots", h.applySnapshot)
			r.Post("/days/{day}/import", h.importDay)
			r.Post("/reset", h.reset)
		})

		r.Route("/days/{day}", func(r chi.Router) {
			r.Get("/programs/{code}/ranking", h.ranking)
			r.Get("/cutoffs", h.cutoffs)
			r.Get("/unified", h.unified)
			r.Get("/report", h.report)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listPrograms(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"programs": h.service.Programs()})
}

func (h *Handler) listDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *Handler) applySnapshot(w http.ResponseWriter, r *http.Request) {
	var snapshot models.DaySnapshot
	if err := json.NewDecoder(r.Body).Decode(&snapshot); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid snapshot body"))
		return
	}
	h.apply(w, r, snapshot)
}

func (h *Handler) importDay(w http.ResponseWriter, r *http.Request) {
	day := models.Day(chi.URLParam(r, "day"))
	snapshot, err := ingest.ReadDay(h.dataDir, h.campaign, day)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.apply(w, r, snapshot)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, snapshot models.DaySnapshot) {
	result, err := h.service.ApplyDay(r.Context(), snapshot)
	if err != nil {
		var violation *engine.RuleViolation
		if errors.As(err, &violation) {
			httputil.WriteViolation(w, err, int64(violation.Applicant), string(violation.Rule))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// dayParam maps the "latest" alias onto the empty day the service treats as
// "the most recent applied one".
func dayParam(r *http.Request) models.Day {
	day := chi.URLParam(r, "day")
	if day == "latest" {
		return ""
	}
	return models.Day(day)
}

func (h *Handler) ranking(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	code := models.ProgramID(chi.URLParam(r, "code"))

	result, err := h.service.Ranking(r.Context(), dayParam(r), code, page, pageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) cutoffs(w http.ResponseWriter, r *http.Request) {
	cutoffs, err := h.service.Cutoffs(r.Context(), dayParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cutoffs": cutoffs})
}

func (h *Handler) unified(w http.ResponseWriter, r *http.Request) {
	unified, err := h.service.Unified(r.Context(), dayParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"unified": unified})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	data, err := report.Build(r.Context(), h.service, h.campaign, dayParam(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := report.Render(w, data); err != nil {
		h.logger.ErrorContext(r.Context(), "report render failed", "error", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveReport(time.Since(start))
	}
}
