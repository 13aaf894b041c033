// Package api serves persisted analysis runs over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/export"
	"github.com/sells-group/access-cli/internal/model"
	"github.com/sells-group/access-cli/internal/store"
)

// MaxListLimit caps the limit query parameter of GET /runs.
const MaxListLimit = 1000

type handler struct {
	st store.Store
}

// NewRouter returns the HTTP handler for the run API.
func NewRouter(st store.Store) http.Handler {
	h := &handler{st: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getRun)
			r.Get("/regions", h.getRegions)
			r.Get("/facilities", h.getFacilities)
		})
	})
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		status := model.RunStatus(s)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = status
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(n, MaxListLimit)
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := h.st.ListRuns(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handler) getRegions(w http.ResponseWriter, r *http.Request) {
	run, err := h.st.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if run.Result == nil {
		writeError(w, http.StatusConflict, "run has no result")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteRegionSummaryCSV(w, run.Result.Regions); err != nil {
			zap.L().Error("api: write regions csv", zap.Error(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, run.Result.Regions)
}

func (h *handler) getFacilities(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.st.GetRun(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	facilities, err := h.st.ListFacilities(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := export.WriteFacilitiesCSV(w, facilities); err != nil {
			zap.L().Error("api: write facilities csv", zap.Error(err))
		}
		return
	}
	if facilities == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, facilities)
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if eris.Is(err, store.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	zap.L().Error("api: request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
