package opencti

import (
	"context"
	"fmt"
	"strings"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

const indicatorFields = `
        id
        name
        pattern
        pattern_type
        description
        x_opencti_score
        confidence
        created_at
        updated_at
        objectLabel { id value }
        createdBy { id name }
        objectMarking { id definition }`

const observableFields = `
        id
        observable_value
        x_opencti_description
        x_opencti_score
        created_at
        updated_at
        objectLabel { id value }
        createdBy { id name }
        objectMarking { id definition }
        ... on StixFile {
          hashes { algorithm hash }
        }`

var searchIndicatorsQuery = fmt.Sprintf(`
query ConnectorIndicatorSearch($search: String, $filters: FilterGroup, $first: Int) {
  indicators(search: $search, filters: $filters, first: $first) {
    edges {
      node {%s
      }
    }
  }
}`, indicatorFields)

var searchObservablesQuery = fmt.Sprintf(`
query ConnectorObservableSearch($search: String, $filters: FilterGroup, $first: Int) {
  stixCyberObservables(search: $search, filters: $filters, first: $first) {
    edges {
      node {%s
      }
    }
  }
}`, observableFields)

type indicatorConnection struct {
	Indicators struct {
		Edges []struct {
			Node entity.IndicatorRecord `json:"node"`
		} `json:"edges"`
	} `json:"indicators"`
}

type observableConnection struct {
	StixCyberObservables struct {
		Edges []struct {
			Node entity.ObservableRecord `json:"node"`
		} `json:"edges"`
	} `json:"stixCyberObservables"`
}

// FetchEntity returns the platform's indicator and observable hits for one
// entity. Exact mode filters on the stored value; otherwise the platform's
// full-text search decides what matches.
func (c *Client) FetchEntity(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
	indicators, err := c.searchIndicators(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("indicators: %w", err)
	}

	observables, err := c.searchObservables(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("observables: %w", err)
	}

	return &entity.SearchResults{
		Indicators:  indicators,
		Observables: observables,
	}, nil
}

func (c *Client) searchIndicators(ctx context.Context, e entity.CanonicalEntity) ([]entity.IndicatorRecord, error) {
	var data indicatorConnection
	if err := c.execute(ctx, searchIndicatorsQuery, c.searchVars(e.Value, "name"), &data); err != nil {
		return nil, err
	}

	records := make([]entity.IndicatorRecord, 0, len(data.Indicators.Edges))
	for _, edge := range data.Indicators.Edges {
		records = append(records, edge.Node)
	}
	return records, nil
}

func (c *Client) searchObservables(ctx context.Context, e entity.CanonicalEntity) ([]entity.ObservableRecord, error) {
	var data observableConnection
	if err := c.execute(ctx, searchObservablesQuery, c.searchVars(e.Value, "value"), &data); err != nil {
		return nil, err
	}

	records := make([]entity.ObservableRecord, 0, len(data.StixCyberObservables.Edges))
	for _, edge := range data.StixCyberObservables.Edges {
		records = append(records, edge.Node)
	}
	return records, nil
}

// searchVars builds the variables for one search call. filterKey is the
// platform attribute exact mode matches against.
func (c *Client) searchVars(value, filterKey string) map[string]any {
	vars := map[string]any{"first": c.cfg.PageSize}

	if c.cfg.SearchExact {
		vars["filters"] = map[string]any{
			"mode": "and",
			"filters": []map[string]any{
				{"key": []string{filterKey}, "values": []string{value}},
			},
			"filterGroups": []any{},
		}
		return vars
	}

	vars["search"] = quoteSearchTerm(value)
	return vars
}

// quoteSearchTerm wraps the value in double quotes so the platform treats
// it as a phrase rather than separate tokens
func quoteSearchTerm(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
