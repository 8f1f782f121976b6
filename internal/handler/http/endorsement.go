package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maturehumanity/levela/internal/domain"
	"github.com/maturehumanity/levela/internal/service"
	"github.com/maturehumanity/levela/pkg/httputil"
	"github.com/maturehumanity/levela/pkg/middleware"
	"github.com/maturehumanity/levela/pkg/pagination"
	"github.com/maturehumanity/levela/pkg/validator"
)

// EndorsementHandler handles HTTP requests for endorsements and trust scores.
type EndorsementHandler struct {
	service *service.EndorsementService
	logger  *slog.Logger
}

// NewEndorsementHandler creates a new endorsement HTTP handler.
func NewEndorsementHandler(svc *service.EndorsementService, logger *slog.Logger) *EndorsementHandler {
	return &EndorsementHandler{service: svc, logger: logger}
}

// CreateEndorsementRequest is the JSON request body for creating an endorsement.
type CreateEndorsementRequest struct {
	RateeID string `json:"ratee_id" validate:"required,uuid"`
	Pillar  string `json:"pillar" validate:"required"`
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// PillarInfo describes one pillar for API consumers.
type PillarInfo struct {
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// ListPillars handles GET /api/v1/pillars
func (h *EndorsementHandler) ListPillars(w http.ResponseWriter, r *http.Request) {
	pillars := make([]PillarInfo, 0, len(domain.Pillars))
	for _, p := range domain.Pillars {
		pillars = append(pillars, PillarInfo{Key: string(p), DisplayName: p.DisplayName()})
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: pillars})
}

// Create handles POST /api/v1/endorsements
func (h *EndorsementHandler) Create(w http.ResponseWriter, r *http.Request) {
	raterID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateEndorsementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	endorsement, err := h.service.Create(r.Context(), raterID, service.CreateEndorsementInput{
		RateeID: req.RateeID,
		Pillar:  req.Pillar,
		Stars:   req.Stars,
		Comment: req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: endorsement})
}

// CanEndorse handles GET /api/v1/endorsements/can-endorse?ratee_id=&pillar=
//
// The answer is advisory: eligibility can change between this check and a
// subsequent create.
func (h *EndorsementHandler) CanEndorse(w http.ResponseWriter, r *http.Request) {
	raterID := middleware.UserIDFromContext(r.Context())

	rateeID := r.URL.Query().Get("ratee_id")
	pillar := r.URL.Query().Get("pillar")
	if rateeID == "" || pillar == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "ratee_id and pillar query parameters are required"},
		})
		return
	}

	eligibility, err := h.service.CanEndorse(r.Context(), raterID, rateeID, pillar)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: eligibility})
}

// ListGiven handles GET /api/v1/endorsements/given
func (h *EndorsementHandler) ListGiven(w http.ResponseWriter, r *http.Request) {
	raterID := middleware.UserIDFromContext(r.Context())
	params := pagination.FromRequest(r)

	items, total, err := h.service.ListGiven(r.Context(), raterID, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params.Page, params.PerPage))
}

// ListReceived handles GET /api/v1/users/{userID}/endorsements?pillar=
func (h *EndorsementHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	pillar := r.URL.Query().Get("pillar")
	params := pagination.FromRequest(r)

	items, total, err := h.service.ListReceived(r.Context(), id.String(), pillar, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(items, total, params.Page, params.PerPage))
}

// GetScore handles GET /api/v1/users/{userID}/score
func (h *EndorsementHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	score, err := h.service.GetScore(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: score})
}

// GetPillarScore handles GET /api/v1/users/{userID}/score/{pillar}
func (h *EndorsementHandler) GetPillarScore(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	score, err := h.service.GetPillarScore(r.Context(), id.String(), chi.URLParam(r, "pillar"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: score})
}
