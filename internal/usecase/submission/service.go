package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/adapter/external/opencti"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/domain/classify"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/metrics"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
)

var (
	ErrNothingToSubmit      = errors.New("submission: no target kind selected")
	ErrUnsupportedEntity    = errors.New("submission: unsupported entity type")
	ErrIgnoredEntity        = errors.New("submission: entity is on the ignore list")
	ErrDeletionNotPermitted = errors.New("submission: deletion not permitted for this kind")
	ErrUnknownKind          = errors.New("submission: unknown item kind")
)

// Platform is the slice of the OpenCTI client the service mutates through
type Platform interface {
	CreateIndicator(ctx context.Context, in opencti.IndicatorInput) (*entity.IndicatorRecord, error)
	CreateObservable(ctx context.Context, in opencti.ObservableInput) (*entity.ObservableRecord, error)
	UpdateIndicator(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.IndicatorRecord, error)
	UpdateObservable(ctx context.Context, id string, patch opencti.FieldPatch) (*entity.ObservableRecord, error)
	DeleteIndicator(ctx context.Context, id string) error
	DeleteObservable(ctx context.Context, id string) error
}

// AuditRepository persists the connector's mutation trail
type AuditRepository interface {
	Insert(ctx context.Context, entry entity.AuditEntry) error
	Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error)
}

// NopAuditRepository discards the trail, for deployments that disable audit
type NopAuditRepository struct{}

func (NopAuditRepository) Insert(ctx context.Context, entry entity.AuditEntry) error { return nil }

func (NopAuditRepository) Recent(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	return []entity.AuditEntry{}, nil
}

// CacheInvalidator drops stale search results after a mutation
type CacheInvalidator interface {
	Invalidate(entityType, value string)
	Purge()
}

// Service handles create, edit and delete operations against the platform
// and keeps the audit trail and search cache consistent with them.
type Service struct {
	platform Platform
	audit    AuditRepository
	cache    CacheInvalidator
	perms    lookup.Permissions
	defaults Defaults
	norm     *lookup.Normalizer
	metrics  *metrics.Metrics
}

// NewService creates a submission service
func NewService(platform Platform, audit AuditRepository, cache CacheInvalidator, perms lookup.Permissions, defaults Defaults, m *metrics.Metrics) *Service {
	return &Service{
		platform: platform,
		audit:    audit,
		cache:    cache,
		perms:    perms,
		defaults: defaults,
		norm:     lookup.NewNormalizer(perms),
		metrics:  m,
	}
}

// Submit creates platform records for one entity. A request may target the
// indicator side, the observable side, or both; each created record comes
// back as a unified item.
func (s *Service) Submit(ctx context.Context, performedBy string, req entity.SubmissionRequest) ([]entity.UnifiedItem, error) {
	if !req.AsIndicator && !req.AsObservable {
		return nil, ErrNothingToSubmit
	}

	e := classify.Classify(req.Entity)
	if !e.CanonicalType.IsSupported() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEntity, req.Entity.Type)
	}
	if classify.IsIgnoredAddress(e.InputEntity) {
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEntity, e.Value)
	}

	score := pick(req.Score, s.defaults.Score, lookup.DefaultScore)
	confidence := pick(req.Confidence, s.defaults.Confidence, lookup.DefaultConfidence)

	labels := req.Labels
	if labels == nil {
		labels = s.defaults.Labels
	}
	markings := req.MarkingIDs
	if len(markings) == 0 {
		markings = s.defaults.MarkingIDs
	}

	items := make([]entity.UnifiedItem, 0, 2)

	// Platform state changed as soon as the first create lands, so the
	// cached lookup goes stale even when a later step fails.
	defer func() {
		if len(items) > 0 {
			s.cache.Invalidate(string(e.CanonicalType), e.Value)
		}
	}()

	if req.AsIndicator {
		rec, err := s.platform.CreateIndicator(ctx, opencti.IndicatorInput{
			Name:        e.Value,
			Description: req.Description,
			EntityType:  e.CanonicalType,
			Value:       e.Value,
			Score:       score,
			Confidence:  confidence,
			Labels:      labels,
			MarkingIDs:  markings,
		})
		if err != nil {
			s.metrics.RemoteError()
			return nil, fmt.Errorf("create indicator for %q: %w", e.Value, err)
		}

		item := s.norm.Indicator(*rec, e)
		item.ToBeSubmitted = false
		items = append(items, item)
		s.recordAudit(ctx, performedBy, entity.AuditActionCreate, entity.KindIndicator, item.ID, e, "")
	}

	if req.AsObservable {
		rec, err := s.platform.CreateObservable(ctx, opencti.ObservableInput{
			EntityType:  e.CanonicalType,
			Value:       e.Value,
			Description: req.Description,
			Score:       score,
			Labels:      labels,
			MarkingIDs:  markings,
		})
		if err != nil {
			s.metrics.RemoteError()
			return nil, fmt.Errorf("create observable for %q: %w", e.Value, err)
		}

		item := s.norm.Observable(*rec, e)
		items = append(items, item)
		s.recordAudit(ctx, performedBy, entity.AuditActionCreate, entity.KindObservable, item.ID, e, "")
	}

	s.metrics.SubmissionRecorded("create")
	slog.Info("Entity submitted",
		"value", e.Value,
		"type", e.CanonicalType,
		"items", len(items),
		"performed_by", performedBy)

	return items, nil
}

// Edit patches one existing platform record and returns its fresh unified
// form
func (s *Service) Edit(ctx context.Context, performedBy string, kind entity.ItemKind, id string, req entity.EditRequest) (*entity.UnifiedItem, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	patch := opencti.FieldPatch{
		Description: req.Description,
		Score:       req.Score,
		Confidence:  req.Confidence,
		Labels:      req.Labels,
	}

	var e entity.CanonicalEntity
	if req.Entity != nil {
		e = classify.Classify(*req.Entity)
	}

	var item entity.UnifiedItem
	switch kind {
	case entity.KindIndicator:
		rec, err := s.platform.UpdateIndicator(ctx, id, patch)
		if err != nil {
			s.metrics.RemoteError()
			return nil, err
		}
		item = s.norm.Indicator(*rec, e)
	case entity.KindObservable:
		rec, err := s.platform.UpdateObservable(ctx, id, patch)
		if err != nil {
			s.metrics.RemoteError()
			return nil, err
		}
		item = s.norm.Observable(*rec, e)
	}

	s.invalidate(req.Entity)
	s.recordAudit(ctx, performedBy, entity.AuditActionUpdate, kind, id, e, patchDetail(patch))
	s.metrics.SubmissionRecorded("update")
	slog.Info("Item updated", "kind", kind, "item_id", id, "performed_by", performedBy)

	return &item, nil
}

// Delete removes one platform record, provided the configuration permits
// deleting records of its kind
func (s *Service) Delete(ctx context.Context, performedBy string, kind entity.ItemKind, id string, ent *entity.InputEntity) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if !s.perms.CanDelete(kind) {
		return fmt.Errorf("%w: %s", ErrDeletionNotPermitted, kind)
	}

	var err error
	switch kind {
	case entity.KindIndicator:
		err = s.platform.DeleteIndicator(ctx, id)
	case entity.KindObservable:
		err = s.platform.DeleteObservable(ctx, id)
	}
	if err != nil {
		s.metrics.RemoteError()
		return err
	}

	var e entity.CanonicalEntity
	if ent != nil {
		e = classify.Classify(*ent)
	}

	s.invalidate(ent)
	s.recordAudit(ctx, performedBy, entity.AuditActionDelete, kind, id, e, "")
	s.metrics.SubmissionRecorded("delete")
	slog.Info("Item deleted", "kind", kind, "item_id", id, "performed_by", performedBy)

	return nil
}

// RecentAudit returns the latest audit entries, newest first
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]entity.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.audit.Recent(ctx, limit)
}

// invalidate drops the cached lookup for the entity when known, otherwise
// the whole cache since any entry may now be stale
func (s *Service) invalidate(ent *entity.InputEntity) {
	if ent != nil {
		e := classify.Classify(*ent)
		s.cache.Invalidate(string(e.CanonicalType), e.Value)
		return
	}
	s.cache.Purge()
}

func (s *Service) recordAudit(ctx context.Context, performedBy, action string, kind entity.ItemKind, itemID string, e entity.CanonicalEntity, detail string) {
	entry := entity.AuditEntry{
		ID:          uuid.New().String(),
		Action:      action,
		Kind:        kind,
		ItemID:      itemID,
		EntityValue: e.Value,
		EntityType:  string(e.CanonicalType),
		PerformedBy: performedBy,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.audit.Insert(ctx, entry); err != nil {
		slog.Warn("Audit write failed", "action", action, "item_id", itemID, "error", err)
	}
}

// pick returns the first present value, then the profile default, then the
// built-in default
func pick(requested, profile *int, fallback int) int {
	if requested != nil {
		return *requested
	}
	if profile != nil {
		return *profile
	}
	return fallback
}

func patchDetail(patch opencti.FieldPatch) string {
	fields := make([]string, 0, 4)
	if patch.Description != nil {
		fields = append(fields, "description")
	}
	if patch.Score != nil {
		fields = append(fields, "score")
	}
	if patch.Confidence != nil {
		fields = append(fields, "confidence")
	}
	if patch.Labels != nil {
		fields = append(fields, "labels")
	}
	if len(fields) == 0 {
		return ""
	}
	return "fields: " + strings.Join(fields, ", ")
}
