package builder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/tordrt/soanorm"
	"github.com/tordrt/soanorm/internal/soa"
	"github.com/tordrt/soanorm/internal/validate"
)

// Handlers provides the JSON HTTP handlers for the builder API.
type Handlers struct {
	store          *Store
	logger         *zap.Logger
	normalizedRoot string
}

// NewHandlers creates a Handlers instance. normalizedRoot is the directory
// where normalized CSV output is written; empty disables CSV output.
func NewHandlers(store *Store, logger *zap.Logger, normalizedRoot string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{store: store, logger: logger, normalizedRoot: normalizedRoot}
}

// Router builds the chi router for the builder API.
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/soa", func(r chi.Router) {
		r.Post("/", h.CreateSOA)
		r.Get("/", h.ListSOAs)
		r.Route("/{soaID}", func(r chi.Router) {
			r.Get("/", h.GetSOA)
			r.Post("/visits", h.AddVisit)
			r.Post("/activities", h.AddActivity)
			r.Post("/cells", h.SetCell)
			r.Delete("/visits/{visitID}", h.DeleteVisit)
			r.Delete("/activities/{activityID}", h.DeleteActivity)
			r.Get("/matrix", h.GetMatrix)
			r.Get("/normalized", h.GetNormalized)
		})
	})
	return r
}

type createSOARequest struct {
	Name string `json:"name"`
}

type addVisitRequest struct {
	Name      string `json:"name"`
	RawHeader string `json:"raw_header"`
}

type addActivityRequest struct {
	Name string `json:"name"`
}

type matrixResponse struct {
	Visits     []Visit    `json:"visits"`
	Activities []Activity `json:"activities"`
	Cells      []Cell     `json:"cells"`
}

type normalizedResponse struct {
	Tables   *soa.Tables        `json:"tables"`
	Findings []validate.Finding `json:"findings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSOA creates an empty SoA container.
func (h *Handlers) CreateSOA(w http.ResponseWriter, r *http.Request) {
	var req createSOARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := h.store.CreateSOA(r.Context(), req.Name)
	if err != nil {
		h.serverError(w, "create soa", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// ListSOAs returns all containers.
func (h *Handlers) ListSOAs(w http.ResponseWriter, r *http.Request) {
	soas, err := h.store.ListSOAs(r.Context())
	if err != nil {
		h.serverError(w, "list soas", err)
		return
	}
	if soas == nil {
		soas = []SOA{}
	}
	h.writeJSON(w, http.StatusOK, soas)
}

// GetSOA returns the draft contents of one container.
func (h *Handlers) GetSOA(w http.ResponseWriter, r *http.Request) {
	h.GetMatrix(w, r)
}

// AddVisit appends a visit column.
func (h *Handlers) AddVisit(w http.ResponseWriter, r *http.Request) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	var req addVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	visit, err := h.store.AddVisit(r.Context(), soaID, req.Name, req.RawHeader)
	if err != nil {
		h.serverError(w, "add visit", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, visit)
}

// AddActivity appends an activity row.
func (h *Handlers) AddActivity(w http.ResponseWriter, r *http.Request) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	var req addActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	activity, err := h.store.AddActivity(r.Context(), soaID, req.Name)
	if err != nil {
		h.serverError(w, "add activity", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, activity)
}

// SetCell upserts one cell value.
func (h *Handlers) SetCell(w http.ResponseWriter, r *http.Request) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	var cell Cell
	if err := json.NewDecoder(r.Body).Decode(&cell); err != nil || cell.VisitID == 0 || cell.ActivityID == 0 {
		h.writeError(w, http.StatusBadRequest, "visit_id and activity_id are required")
		return
	}
	if err := h.store.SetCell(r.Context(), soaID, cell); err != nil {
		h.serverError(w, "set cell", err)
		return
	}
	h.writeJSON(w, http.StatusOK, cell)
}

// DeleteVisit removes a visit column and its cells.
func (h *Handlers) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	h.deleteOrdered(w, r, "visitID", h.store.DeleteVisit)
}

// DeleteActivity removes an activity row and its cells.
func (h *Handlers) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	h.deleteOrdered(w, r, "activityID", h.store.DeleteActivity)
}

// GetMatrix returns the draft matrix contents.
func (h *Handlers) GetMatrix(w http.ResponseWriter, r *http.Request) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	visits, activities, cells, err := h.store.Matrix(r.Context(), soaID)
	if err != nil {
		h.serverError(w, "load matrix", err)
		return
	}
	resp := matrixResponse{Visits: visits, Activities: activities, Cells: cells}
	if resp.Visits == nil {
		resp.Visits = []Visit{}
	}
	if resp.Activities == nil {
		resp.Activities = []Activity{}
	}
	if resp.Cells == nil {
		resp.Cells = []Cell{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetNormalized renders the draft as a wide matrix, runs the normalization
// engine over it, and returns the tables plus validation findings. When a
// normalized output root is configured the tables are also written there as
// CSV files, under one subdirectory per SoA id.
func (h *Handlers) GetNormalized(w http.ResponseWriter, r *http.Request) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	matrix, err := h.store.WideMatrix(r.Context(), soaID)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tables, err := soanorm.Normalize(matrix, &soanorm.Options{Logger: h.logger})
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if h.normalizedRoot != "" {
		dir := filepath.Join(h.normalizedRoot, strconv.FormatInt(soaID, 10))
		if err := soanorm.WriteTables(r.Context(), tables, &soanorm.OutputOptions{OutputDir: dir}); err != nil {
			h.serverError(w, "write normalized CSV", err)
			return
		}
	}

	findings := validate.Check(tables)
	if findings == nil {
		findings = []validate.Finding{}
	}
	h.writeJSON(w, http.StatusOK, normalizedResponse{Tables: tables, Findings: findings})
}

func (h *Handlers) deleteOrdered(w http.ResponseWriter, r *http.Request, param string, del func(ctx context.Context, soaID, id int64) error) {
	soaID, ok := h.soaID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := del(r.Context(), soaID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not found")
			return
		}
		h.serverError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// soaID parses the {soaID} URL parameter and verifies the container exists.
func (h *Handlers) soaID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "soaID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid soa id")
		return 0, false
	}
	exists, err := h.store.SOAExists(r.Context(), id)
	if err != nil {
		h.serverError(w, "check soa", err)
		return 0, false
	}
	if !exists {
		h.writeError(w, http.StatusNotFound, "soa not found")
		return 0, false
	}
	return id, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal error")
}
