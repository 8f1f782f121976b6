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

// ReportHandler handles HTTP requests for moderation reports.
type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new report HTTP handler.
func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: svc, logger: logger}
}

// CreateReportRequest is the JSON request body for filing a report. Exactly
// one of reported_user_id or reported_endorsement_id must be set.
type CreateReportRequest struct {
	ReportedUserID        *string `json:"reported_user_id" validate:"omitempty,uuid"`
	ReportedEndorsementID *string `json:"reported_endorsement_id" validate:"omitempty,uuid"`
	Reason                string  `json:"reason" validate:"required,min=1,max=200"`
	Description           string  `json:"description" validate:"omitempty,max=2000"`
}

// ResolveReportRequest is the JSON request body for an admin report decision.
type ResolveReportRequest struct {
	Status          string `json:"status" validate:"required,oneof=pending reviewed resolved"`
	AdminNotes      string `json:"admin_notes" validate:"omitempty,max=2000"`
	HideEndorsement bool   `json:"hide_endorsement"`
}

// SetEndorsementVisibilityRequest is the JSON request body for a direct
// moderation action on an endorsement.
type SetEndorsementVisibilityRequest struct {
	Hidden bool `json:"hidden"`
}

// Create handles POST /api/v1/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	reporterID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReportRequest
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

	report, err := h.service.Create(r.Context(), reporterID, service.CreateReportInput{
		ReportedUserID:        req.ReportedUserID,
		ReportedEndorsementID: req.ReportedEndorsementID,
		Reason:                req.Reason,
		Description:           req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: report})
}

// Get handles GET /api/v1/reports/{reportID}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "reportID"))
	if !ok {
		return
	}

	requester := &domain.User{
		ID:   middleware.UserIDFromContext(r.Context()),
		Role: middleware.RoleFromContext(r.Context()),
	}

	report, err := h.service.Get(r.Context(), requester, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// List handles GET /api/v1/admin/reports?status=
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	params := pagination.FromRequest(r)

	reports, total, err := h.service.List(r.Context(), status, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reports, total, params.Page, params.PerPage))
}

// Resolve handles PUT /api/v1/admin/reports/{reportID}
func (h *ReportHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "reportID"))
	if !ok {
		return
	}

	adminID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ResolveReportRequest
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

	report, err := h.service.Resolve(r.Context(), adminID, id.String(), service.ResolveReportInput{
		Status:          req.Status,
		AdminNotes:      req.AdminNotes,
		HideEndorsement: req.HideEndorsement,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: report})
}

// SetEndorsementVisibility handles PUT /api/v1/admin/endorsements/{endorsementID}/visibility
//
// Hiding takes effect on the next score or eligibility read.
func (h *ReportHandler) SetEndorsementVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "endorsementID"))
	if !ok {
		return
	}

	adminID := middleware.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetEndorsementVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := h.service.HideEndorsement(r.Context(), adminID, id.String(), req.Hidden); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"endorsement_id": id.String(), "hidden": req.Hidden},
	})
}
