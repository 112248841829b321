package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/usecase/lookup"
)

// ==================== Test Helpers ====================

// fetcherFunc adapts a function to the lookup.Fetcher interface
type fetcherFunc func(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error)

func (f fetcherFunc) FetchEntity(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
	return f(ctx, e)
}

func newLookupHandler(fetcher lookup.Fetcher) *LookupHandler {
	service := lookup.NewService(fetcher, nil, lookup.Settings{
		APIURL:    "https://opencti.example.com",
		CanCreate: true,
	}, nil)
	return NewLookupHandler(service)
}

func postLookup(t *testing.T, h *LookupHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lookup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Lookup(rec, req)
	return rec
}

func lookupBody(t *testing.T, entities ...entity.InputEntity) []byte {
	t.Helper()
	b, err := json.Marshal(LookupRequest{Entities: entities})
	require.NoError(t, err)
	return b
}

// ==================== Lookup Tests ====================

func TestLookupAssemblesEnvelope(t *testing.T) {
	name := "bad domain"
	fetcher := fetcherFunc(func(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
		return &entity.SearchResults{
			Indicators: []entity.IndicatorRecord{{ID: "indicator--1", Name: &name}},
		}, nil
	})

	body := lookupBody(t,
		entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain},
		entity.InputEntity{Value: "127.0.0.1", Type: entity.TypeIPv4, IsIP: true},
	)
	rec := postLookup(t, newLookupHandler(fetcher), body)

	require.Equal(t, http.StatusOK, rec.Code)

	var results []entity.LookupResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)

	assert.True(t, results[0].IsVolatile)
	assert.Contains(t, results[0].Data.Summary, entity.SummaryItemsFound)
	assert.Equal(t, "https://opencti.example.com", results[0].Data.Details.APIURL)
	require.Len(t, results[0].Data.Details.Items, 1)
	assert.Equal(t, "indicator--1", results[0].Data.Details.Items[0].ID)
	require.Len(t, results[0].Data.Details.IgnoredEntities, 1)
	assert.Equal(t, "127.0.0.1", results[0].Data.Details.IgnoredEntities[0].EntityValue)
}

func TestLookupRejectsMalformedBody(t *testing.T) {
	rec := postLookup(t, newLookupHandler(nil), []byte("not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupRejectsEmptyBatch(t *testing.T) {
	rec := postLookup(t, newLookupHandler(nil), lookupBody(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupDropsUnclassifiableEntities(t *testing.T) {
	var fetches atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
		fetches.Add(1)
		return &entity.SearchResults{}, nil
	})

	body := lookupBody(t,
		entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain},
		entity.InputEntity{Value: "AS64500", Type: "ASN"},
	)
	rec := postLookup(t, newLookupHandler(fetcher), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), fetches.Load())
}

func TestLookupAllEntitiesUnsupported(t *testing.T) {
	var fetches atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
		fetches.Add(1)
		return &entity.SearchResults{}, nil
	})

	body := lookupBody(t, entity.InputEntity{Value: "AS64500", Type: "ASN"})
	rec := postLookup(t, newLookupHandler(fetcher), body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), fetches.Load())
}

func TestLookupUpstreamFailure(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
		return nil, errors.New("connection refused")
	})

	body := lookupBody(t, entity.InputEntity{Value: "bad.example.com", Type: entity.TypeDomain})
	rec := postLookup(t, newLookupHandler(fetcher), body)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
