package opencti

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// IndicatorInput carries the fields for one indicator creation
type IndicatorInput struct {
	Name        string
	Description string
	EntityType  entity.EntityType
	Value       string
	Score       int
	Confidence  int
	Labels      []string
	MarkingIDs  []string
}

// ObservableInput carries the fields for one observable creation
type ObservableInput struct {
	EntityType  entity.EntityType
	Value       string
	Description string
	Score       int
	Labels      []string
	MarkingIDs  []string
}

// FieldPatch lists the mutable fields of an edit. Nil fields stay untouched.
type FieldPatch struct {
	Description *string
	Score       *int
	Confidence  *int
	Labels      []string
}

var createIndicatorMutation = fmt.Sprintf(`
mutation ConnectorIndicatorAdd($input: IndicatorAddInput!) {
  indicatorAdd(input: $input) {%s
  }
}`, indicatorFields)

var updateIndicatorMutation = fmt.Sprintf(`
mutation ConnectorIndicatorEdit($id: ID!, $input: [EditInput!]!) {
  indicatorFieldPatch(id: $id, input: $input) {%s
  }
}`, indicatorFields)

var updateObservableMutation = fmt.Sprintf(`
mutation ConnectorObservableEdit($id: ID!, $input: [EditInput]!) {
  stixCyberObservableEdit(id: $id) {
    fieldPatch(input: $input) {%s
    }
  }
}`, observableFields)

const deleteIndicatorMutation = `
mutation ConnectorIndicatorDelete($id: ID!) {
  indicatorDelete(id: $id)
}`

const deleteObservableMutation = `
mutation ConnectorObservableDelete($id: ID!) {
  stixCyberObservableEdit(id: $id) {
    delete
  }
}`

// observableAddQuery builds the per-type creation mutation. The platform
// takes a dedicated input object named after the observable type.
func observableAddQuery(typeVar string) string {
	return fmt.Sprintf(`
mutation ConnectorObservableAdd($type: String!, $score: Int, $description: String, $labels: [String], $markings: [String], $input: %sAddInput) {
  stixCyberObservableAdd(type: $type, x_opencti_score: $score, x_opencti_description: $description, objectLabel: $labels, objectMarking: $markings, %s: $input) {%s
  }
}`, typeVar, typeVar, observableFields)
}

// CreateIndicator creates an indicator whose pattern is derived from the
// entity value. An empty name falls back to the value.
func (c *Client) CreateIndicator(ctx context.Context, in IndicatorInput) (*entity.IndicatorRecord, error) {
	pattern, err := STIXPattern(in.EntityType, in.Value)
	if err != nil {
		return nil, err
	}

	obsType, err := ObservableType(in.EntityType)
	if err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = in.Value
	}

	input := map[string]any{
		"name":                           name,
		"pattern":                        pattern,
		"pattern_type":                   "stix",
		"x_opencti_main_observable_type": obsType,
		"x_opencti_score":                in.Score,
		"confidence":                     in.Confidence,
	}
	if in.Description != "" {
		input["description"] = in.Description
	}
	if len(in.Labels) > 0 {
		input["objectLabel"] = in.Labels
	}
	if len(in.MarkingIDs) > 0 {
		input["objectMarking"] = in.MarkingIDs
	}

	var data struct {
		IndicatorAdd entity.IndicatorRecord `json:"indicatorAdd"`
	}
	if err := c.execute(ctx, createIndicatorMutation, map[string]any{"input": input}, &data); err != nil {
		return nil, fmt.Errorf("create indicator: %w", err)
	}

	return &data.IndicatorAdd, nil
}

// CreateObservable creates an observable of the type matching the entity.
// Hash entities become StixFile observables keyed by algorithm.
func (c *Client) CreateObservable(ctx context.Context, in ObservableInput) (*entity.ObservableRecord, error) {
	obsType, err := ObservableType(in.EntityType)
	if err != nil {
		return nil, err
	}

	var input map[string]any
	if algo, ok := HashAlgorithm(in.EntityType); ok {
		input = map[string]any{
			"hashes": []map[string]string{{"algorithm": algo, "hash": in.Value}},
		}
	} else {
		input = map[string]any{"value": in.Value}
	}

	vars := map[string]any{
		"type":  obsType,
		"score": in.Score,
		"input": input,
	}
	if in.Description != "" {
		vars["description"] = in.Description
	}
	if len(in.Labels) > 0 {
		vars["labels"] = in.Labels
	}
	if len(in.MarkingIDs) > 0 {
		vars["markings"] = in.MarkingIDs
	}

	typeVar := strings.ReplaceAll(obsType, "-", "")

	var data struct {
		StixCyberObservableAdd entity.ObservableRecord `json:"stixCyberObservableAdd"`
	}
	if err := c.execute(ctx, observableAddQuery(typeVar), vars, &data); err != nil {
		return nil, fmt.Errorf("create observable: %w", err)
	}

	return &data.StixCyberObservableAdd, nil
}

// UpdateIndicator applies a field patch to an existing indicator
func (c *Client) UpdateIndicator(ctx context.Context, id string, patch FieldPatch) (*entity.IndicatorRecord, error) {
	inputs := patch.editInputs(entity.KindIndicator)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("update indicator %s: empty patch", id)
	}

	var data struct {
		IndicatorFieldPatch entity.IndicatorRecord `json:"indicatorFieldPatch"`
	}
	vars := map[string]any{"id": id, "input": inputs}
	if err := c.execute(ctx, updateIndicatorMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("update indicator %s: %w", id, err)
	}

	return &data.IndicatorFieldPatch, nil
}

// UpdateObservable applies a field patch to an existing observable
func (c *Client) UpdateObservable(ctx context.Context, id string, patch FieldPatch) (*entity.ObservableRecord, error) {
	inputs := patch.editInputs(entity.KindObservable)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("update observable %s: empty patch", id)
	}

	var data struct {
		StixCyberObservableEdit struct {
			FieldPatch entity.ObservableRecord `json:"fieldPatch"`
		} `json:"stixCyberObservableEdit"`
	}
	vars := map[string]any{"id": id, "input": inputs}
	if err := c.execute(ctx, updateObservableMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("update observable %s: %w", id, err)
	}

	return &data.StixCyberObservableEdit.FieldPatch, nil
}

// DeleteIndicator removes an indicator from the platform
func (c *Client) DeleteIndicator(ctx context.Context, id string) error {
	if err := c.execute(ctx, deleteIndicatorMutation, map[string]any{"id": id}, nil); err != nil {
		return fmt.Errorf("delete indicator %s: %w", id, err)
	}
	return nil
}

// DeleteObservable removes an observable from the platform
func (c *Client) DeleteObservable(ctx context.Context, id string) error {
	if err := c.execute(ctx, deleteObservableMutation, map[string]any{"id": id}, nil); err != nil {
		return fmt.Errorf("delete observable %s: %w", id, err)
	}
	return nil
}

// editInputs converts the patch into the platform's EditInput list. The
// description attribute is named differently on observables, and only
// indicators carry confidence.
func (p FieldPatch) editInputs(kind entity.ItemKind) []map[string]any {
	inputs := make([]map[string]any, 0, 4)

	if p.Description != nil {
		key := "description"
		if kind == entity.KindObservable {
			key = "x_opencti_description"
		}
		inputs = append(inputs, map[string]any{"key": key, "value": []string{*p.Description}})
	}
	if p.Score != nil {
		inputs = append(inputs, map[string]any{"key": "x_opencti_score", "value": []string{strconv.Itoa(*p.Score)}})
	}
	if p.Confidence != nil && kind == entity.KindIndicator {
		inputs = append(inputs, map[string]any{"key": "confidence", "value": []string{strconv.Itoa(*p.Confidence)}})
	}
	if p.Labels != nil {
		inputs = append(inputs, map[string]any{"key": "objectLabel", "value": p.Labels})
	}

	return inputs
}
