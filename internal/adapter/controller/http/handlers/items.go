package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/controller/http/middleware"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/submission"
)

// ItemsHandler handles the submission workflow HTTP requests
type ItemsHandler struct {
	service *submission.Service
}

// NewItemsHandler creates a new items handler
func NewItemsHandler(service *submission.Service) *ItemsHandler {
	return &ItemsHandler{service: service}
}

// Submit creates platform records for one entity
// POST /api/v1/items
func (h *ItemsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req entity.SubmissionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	items, err := h.service.Submit(ctx, middleware.GetPrincipal(ctx), req)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrNothingToSubmit),
			errors.Is(err, submission.ErrUnsupportedEntity),
			errors.Is(err, submission.ErrIgnoredEntity):
			ErrorResponse(w, http.StatusBadRequest, "Invalid submission", err)
		default:
			ErrorResponse(w, http.StatusBadGateway, "Submission failed", err)
		}
		return
	}

	JSONResponse(w, http.StatusCreated, items)
}

// Edit patches one platform record
// PUT /api/v1/items/{kind}/{id}
func (h *ItemsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := entity.ItemKind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	if id == "" {
		ErrorResponse(w, http.StatusBadRequest, "Item id required", nil)
		return
	}

	var req entity.EditRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Description == nil && req.Score == nil && req.Confidence == nil && req.Labels == nil {
		ErrorResponse(w, http.StatusBadRequest, "Empty patch", nil)
		return
	}

	item, err := h.service.Edit(ctx, middleware.GetPrincipal(ctx), kind, id, req)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrUnknownKind):
			ErrorResponse(w, http.StatusBadRequest, "Unknown item kind", err)
		default:
			ErrorResponse(w, http.StatusBadGateway, "Edit failed", err)
		}
		return
	}

	JSONResponse(w, http.StatusOK, item)
}

// Delete removes one platform record
// DELETE /api/v1/items/{kind}/{id}
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind := entity.ItemKind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	if id == "" {
		ErrorResponse(w, http.StatusBadRequest, "Item id required", nil)
		return
	}

	var ent *entity.InputEntity
	if value := r.URL.Query().Get("entityValue"); value != "" {
		ent = &entity.InputEntity{
			Value: value,
			Type:  entity.EntityType(r.URL.Query().Get("entityType")),
		}
	}

	err := h.service.Delete(ctx, middleware.GetPrincipal(ctx), kind, id, ent)
	if err != nil {
		switch {
		case errors.Is(err, submission.ErrUnknownKind):
			ErrorResponse(w, http.StatusBadRequest, "Unknown item kind", err)
		case errors.Is(err, submission.ErrDeletionNotPermitted):
			ErrorResponse(w, http.StatusForbidden, "Deletion not permitted", err)
		default:
			ErrorResponse(w, http.StatusBadGateway, "Delete failed", err)
		}
		return
	}

	SuccessResponse(w, "Item deleted", map[string]string{"id": id})
}
