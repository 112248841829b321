package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/submission"
)

// recordingAuditRepo captures the limit the handler asks for
type recordingAuditRepo struct {
	lastLimit int
	entries   []entity.AuditEntry
	err       error
}

func (r *recordingAuditRepo) Insert(ctx context.Context, entry entity.AuditEntry) error {
	return nil
}

func (r *recordingAuditRepo) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	r.lastLimit = limit
	return r.entries, r.err
}

func newAuditHandler(repo *recordingAuditRepo) *AuditHandler {
	service := submission.NewService(&stubPlatform{}, repo, &stubCache{}, lookup.Permissions{}, submission.Defaults{}, nil)
	return NewAuditHandler(service)
}

func getAudit(h *AuditHandler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Recent(rec, req)
	return rec
}

func TestRecentAuditReturnsEntries(t *testing.T) {
	repo := &recordingAuditRepo{entries: []entity.AuditEntry{
		{ID: "a1", Action: entity.AuditActionCreate, Kind: entity.KindIndicator, CreatedAt: time.Now().UTC()},
	}}

	rec := getAudit(newAuditHandler(repo), "/api/v1/audit")

	require.Equal(t, http.StatusOK, rec.Code)

	var entries []entity.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "a1", entries[0].ID)
	assert.Equal(t, 100, repo.lastLimit)
}

func TestRecentAuditCustomLimit(t *testing.T) {
	repo := &recordingAuditRepo{}

	rec := getAudit(newAuditHandler(repo), "/api/v1/audit?limit=25")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, repo.lastLimit)
}

func TestRecentAuditIgnoresBadLimit(t *testing.T) {
	repo := &recordingAuditRepo{}

	rec := getAudit(newAuditHandler(repo), "/api/v1/audit?limit=banana")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, repo.lastLimit)
}

func TestRecentAuditClampsOversizedLimit(t *testing.T) {
	repo := &recordingAuditRepo{}

	rec := getAudit(newAuditHandler(repo), "/api/v1/audit?limit=9999")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, repo.lastLimit)
}

func TestRecentAuditStoreFailure(t *testing.T) {
	repo := &recordingAuditRepo{err: errors.New("db locked")}

	rec := getAudit(newAuditHandler(repo), "/api/v1/audit")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
