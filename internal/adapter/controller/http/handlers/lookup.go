package handlers

import (
	"log/slog"
	"net/http"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/domain/classify"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
)

// LookupRequest carries the entities one host lookup asks about
type LookupRequest struct {
	Entities []entity.InputEntity `json:"entities"`
}

// LookupHandler handles entity lookup HTTP requests
type LookupHandler struct {
	service *lookup.Service
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(service *lookup.Service) *LookupHandler {
	return &LookupHandler{service: service}
}

// Lookup resolves a batch of entities against the platform
// POST /api/v1/lookup
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LookupRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if len(req.Entities) == 0 {
		ErrorResponse(w, http.StatusBadRequest, "At least one entity required", nil)
		return
	}

	// Entities the connector cannot classify are dropped here; they would
	// otherwise poison the whole batch.
	supported := make([]entity.InputEntity, 0, len(req.Entities))
	for _, e := range req.Entities {
		if _, ok := classify.Resolve(e); !ok {
			slog.Warn("Dropping entity with no supported type", "value", e.Value, "type", e.Type)
			continue
		}
		supported = append(supported, e)
	}

	if len(supported) == 0 {
		ErrorResponse(w, http.StatusBadRequest, "No supported entities in request", nil)
		return
	}

	results, err := h.service.Assemble(ctx, supported)
	if err != nil {
		ErrorResponse(w, http.StatusBadGateway, "Lookup failed", err)
		return
	}

	JSONResponse(w, http.StatusOK, results)
}
