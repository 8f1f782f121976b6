package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maturehumanity/levela/internal/service"
	"github.com/maturehumanity/levela/pkg/httputil"
	"github.com/maturehumanity/levela/pkg/middleware"
	"github.com/maturehumanity/levela/pkg/validator"
)

// EvidenceHandler handles HTTP requests for evidence records.
type EvidenceHandler struct {
	service *service.EvidenceService
	logger  *slog.Logger
}

// NewEvidenceHandler creates a new evidence HTTP handler.
func NewEvidenceHandler(svc *service.EvidenceService, logger *slog.Logger) *EvidenceHandler {
	return &EvidenceHandler{service: svc, logger: logger}
}

// CreateEvidenceRequest is the JSON request body for creating evidence.
type CreateEvidenceRequest struct {
	Pillar        string  `json:"pillar" validate:"required"`
	Title         string  `json:"title" validate:"required,min=1,max=200"`
	Description   string  `json:"description" validate:"omitempty,max=2000"`
	FileURI       string  `json:"file_uri" validate:"omitempty,uri,max=500"`
	FileType      string  `json:"file_type" validate:"omitempty,max=100"`
	Visibility    string  `json:"visibility" validate:"omitempty,oneof=public private"`
	EndorsementID *string `json:"endorsement_id" validate:"omitempty,uuid"`
}

// UpdateEvidenceRequest is the JSON request body for updating evidence.
type UpdateEvidenceRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=public private"`
}

// Create handles POST /api/v1/evidence
func (h *EvidenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateEvidenceRequest
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

	evidence, err := h.service.Create(r.Context(), userID, service.CreateEvidenceInput{
		Pillar:        req.Pillar,
		Title:         req.Title,
		Description:   req.Description,
		FileURI:       req.FileURI,
		FileType:      req.FileType,
		Visibility:    req.Visibility,
		EndorsementID: req.EndorsementID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: evidence})
}

// Get handles GET /api/v1/evidence/{evidenceID}
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "evidenceID"))
	if !ok {
		return
	}

	requesterID := middleware.UserIDFromContext(r.Context())

	evidence, err := h.service.Get(r.Context(), requesterID, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: evidence})
}

// ListByUser handles GET /api/v1/users/{userID}/evidence?pillar=
//
// Anonymous requesters and requesters other than the owner only see public
// records.
func (h *EvidenceHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "userID"))
	if !ok {
		return
	}

	requesterID := middleware.UserIDFromContext(r.Context())
	pillar := r.URL.Query().Get("pillar")

	records, err := h.service.ListByUser(r.Context(), requesterID, id.String(), pillar)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: records})
}

// Update handles PUT /api/v1/evidence/{evidenceID}
func (h *EvidenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "evidenceID"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateEvidenceRequest
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

	evidence, err := h.service.Update(r.Context(), userID, id.String(), service.UpdateEvidenceInput{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: evidence})
}

// Delete handles DELETE /api/v1/evidence/{evidenceID}
func (h *EvidenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "evidenceID"))
	if !ok {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Delete(r.Context(), userID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
