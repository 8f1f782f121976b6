package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/maturehumanity/levela/internal/service"
	"github.com/maturehumanity/levela/pkg/httputil"
)

// FeedHandler handles HTTP requests for the public activity feed.
type FeedHandler struct {
	service *service.FeedService
	logger  *slog.Logger
}

// NewFeedHandler creates a new feed HTTP handler.
func NewFeedHandler(svc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{service: svc, logger: logger}
}

// Recent handles GET /api/v1/feed?limit=
func (h *FeedHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "limit must be a positive integer"},
			})
			return
		}
		limit = v
	}

	items, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: items})
}
