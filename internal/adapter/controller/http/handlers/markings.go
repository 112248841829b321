package handlers

import (
	"net/http"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// MarkingsSource provides the current marking definition snapshot
type MarkingsSource interface {
	Get() []entity.MarkingDefinition
}

// MarkingsHandler serves the platform's marking definitions
type MarkingsHandler struct {
	source MarkingsSource
}

// NewMarkingsHandler creates a new markings handler
func NewMarkingsHandler(source MarkingsSource) *MarkingsHandler {
	return &MarkingsHandler{source: source}
}

// List returns the cached marking definitions
// GET /api/v1/markings
func (h *MarkingsHandler) List(w http.ResponseWriter, r *http.Request) {
	defs := h.source.Get()
	if defs == nil {
		defs = []entity.MarkingDefinition{}
	}

	JSONResponse(w, http.StatusOK, defs)
}
