package handlers

import (
	"net/http"
	"strconv"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/submission"
)

// AuditHandler serves the connector's mutation trail
type AuditHandler struct {
	service *submission.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(service *submission.Service) *AuditHandler {
	return &AuditHandler{service: service}
}

// Recent returns the latest audit entries, newest first
// GET /api/v1/audit
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.service.RecentAudit(ctx, limit)
	if err != nil {
		ErrorResponse(w, http.StatusInternalServerError, "Failed to fetch audit entries", err)
		return
	}

	JSONResponse(w, http.StatusOK, entries)
}
