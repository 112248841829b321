package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/external/opencti"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/submission"
)

// ==================== Test Helpers ====================

// stubPlatform implements submission.Platform with overridable calls
type stubPlatform struct {
	createIndicator  func(ctx context.Context, in opencti.IndicatorInput) (*entity.IndicatorRecord, error)
	createObservable func(ctx context.Context, in opencti.ObservableInput) (*entity.ObservableRecord, error)
	updateIndicator  func(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.IndicatorRecord, error)
	updateObservable func(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.ObservableRecord, error)
	deleteIndicator  func(ctx context.Context, id string) error
	deleteObservable func(ctx context.Context, id string) error
}

func (s *stubPlatform) CreateIndicator(ctx context.Context, in opencti.IndicatorInput) (*entity.IndicatorRecord, error) {
	if s.createIndicator == nil {
		return &entity.IndicatorRecord{ID: "indicator--stub"}, nil
	}
	return s.createIndicator(ctx, in)
}

func (s *stubPlatform) CreateObservable(ctx context.Context, in opencti.ObservableInput) (*entity.ObservableRecord, error) {
	if s.createObservable == nil {
		return &entity.ObservableRecord{ID: "observable--stub"}, nil
	}
	return s.createObservable(ctx, in)
}

func (s *stubPlatform) UpdateIndicator(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.IndicatorRecord, error) {
	if s.updateIndicator == nil {
		return &entity.IndicatorRecord{ID: id}, nil
	}
	return s.updateIndicator(ctx, id, patch)
}

func (s *stubPlatform) UpdateObservable(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.ObservableRecord, error) {
	if s.updateObservable == nil {
		return &entity.ObservableRecord{ID: id}, nil
	}
	return s.updateObservable(ctx, id, patch)
}

func (s *stubPlatform) DeleteIndicator(ctx context.Context, id string) error {
	if s.deleteIndicator == nil {
		return nil
	}
	return s.deleteIndicator(ctx, id)
}

func (s *stubPlatform) DeleteObservable(ctx context.Context, id string) error {
	if s.deleteObservable == nil {
		return nil
	}
	return s.deleteObservable(ctx, id)
}

// stubAuditRepo records inserted entries
type stubAuditRepo struct {
	entries []entity.AuditEntry
}

func (s *stubAuditRepo) Insert(ctx context.Context, entry entity.AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditRepo) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	return s.entries, nil
}

// stubCache records invalidations
type stubCache struct {
	invalidated [][2]string
	purges      int
}

func (s *stubCache) Invalidate(entityType, value string) {
	s.invalidated = append(s.invalidated, [2]string{entityType, value})
}

func (s *stubCache) Purge() { s.purges++ }

type itemsFixture struct {
	platform *stubPlatform
	audit    *stubAuditRepo
	cache    *stubCache
	router   chi.Router
}

func newItemsFixture(perms lookup.Permissions) *itemsFixture {
	f := &itemsFixture{
		platform: &stubPlatform{},
		audit:    &stubAuditRepo{},
		cache:    &stubCache{},
	}

	service := submission.NewService(f.platform, f.audit, f.cache, perms, submission.Defaults{}, nil)
	h := NewItemsHandler(service)

	r := chi.NewRouter()
	r.Post("/api/v1/items", h.Submit)
	r.Put("/api/v1/items/{kind}/{id}", h.Edit)
	r.Delete("/api/v1/items/{kind}/{id}", h.Delete)
	f.router = r
	return f
}

func allKinds() lookup.Permissions {
	return lookup.Permissions{DeletableKinds: []entity.ItemKind{entity.KindIndicator, entity.KindObservable}}
}

func (f *itemsFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// ==================== Submit Tests ====================

func TestSubmitCreatesItems(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodPost, "/api/v1/items", entity.SubmissionRequest{
		Entity:      entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain},
		AsIndicator: true,
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var items []entity.UnifiedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "indicator--stub", items[0].ID)
	assert.Equal(t, entity.KindIndicator, items[0].Kind)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, entity.AuditActionCreate, f.audit.entries[0].Action)
}

func TestSubmitRejectsNoTargetKind(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodPost, "/api/v1/items", entity.SubmissionRequest{
		Entity: entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRejectsMalformedBody(t *testing.T) {
	f := newItemsFixture(allKinds())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUpstreamFailure(t *testing.T) {
	f := newItemsFixture(allKinds())
	f.platform.createIndicator = func(ctx context.Context, in opencti.IndicatorInput) (*entity.IndicatorRecord, error) {
		return nil, errors.New("platform down")
	}

	rec := f.do(t, http.MethodPost, "/api/v1/items", entity.SubmissionRequest{
		Entity:      entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain},
		AsIndicator: true,
	})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, f.audit.entries)
}

// ==================== Edit Tests ====================

func TestEditUpdatesItem(t *testing.T) {
	f := newItemsFixture(allKinds())
	desc := "updated description"

	rec := f.do(t, http.MethodPut, "/api/v1/items/indicator/indicator--1", entity.EditRequest{
		Description: &desc,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var item entity.UnifiedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "indicator--1", item.ID)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, entity.AuditActionUpdate, f.audit.entries[0].Action)
	assert.Contains(t, f.audit.entries[0].Detail, "description")
}

func TestEditRejectsEmptyPatch(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodPut, "/api/v1/items/indicator/indicator--1", entity.EditRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEditRejectsUnknownKind(t *testing.T) {
	f := newItemsFixture(allKinds())
	desc := "x"

	rec := f.do(t, http.MethodPut, "/api/v1/items/widget/abc", entity.EditRequest{Description: &desc})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==================== Delete Tests ====================

func TestDeleteRemovesItem(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodDelete, "/api/v1/items/indicator/indicator--1?entityValue=bad.example.com&entityType=domain", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.cache.invalidated, 1)
	assert.Equal(t, [2]string{"domain", "bad.example.com"}, f.cache.invalidated[0])
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, entity.AuditActionDelete, f.audit.entries[0].Action)
}

func TestDeleteWithoutEntityPurgesCache(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodDelete, "/api/v1/items/observable/observable--1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.cache.invalidated)
	assert.Equal(t, 1, f.cache.purges)
}

func TestDeleteForbiddenKind(t *testing.T) {
	f := newItemsFixture(lookup.Permissions{DeletableKinds: []entity.ItemKind{entity.KindIndicator}})

	rec := f.do(t, http.MethodDelete, "/api/v1/items/observable/observable--1", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.audit.entries)
}

func TestDeleteRejectsUnknownKind(t *testing.T) {
	f := newItemsFixture(allKinds())

	rec := f.do(t, http.MethodDelete, "/api/v1/items/widget/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
