package onboarding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadValidator checks an assembled payload before it leaves the wizard.
type PayloadValidator interface {
	Validate(payload Payload) error
}

const payloadSchemaName = "onboarding-payload.json"

// PayloadSchema is the JSON schema every published payload satisfies.
const PayloadSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["draftId", "charger", "network", "connection", "location", "commercialization", "operationalDetails"],
  "properties": {
    "draftId": {"type": "string", "minLength": 1},
    "charger": {
      "type": "object",
      "required": ["name", "serialNumber", "pin", "imageRefs"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "serialNumber": {"type": "string", "minLength": 1},
        "pin": {"type": "string", "minLength": 1},
        "imageRefs": {"type": "array", "items": {"type": "string", "minLength": 1}}
      }
    },
    "network": {
      "type": "object",
      "required": ["serverUrl", "stationId", "stationPassword"],
      "properties": {
        "serverUrl": {"type": "string"},
        "stationId": {"type": "string"},
        "stationPassword": {"type": "string"}
      }
    },
    "connection": {
      "type": "object",
      "required": ["verified"],
      "properties": {"verified": {"type": "boolean"}}
    },
    "location": {
      "type": "object",
      "required": ["coordinates"],
      "properties": {
        "coordinates": {
          "type": "object",
          "required": ["latitude", "longitude"],
          "properties": {
            "latitude": {"type": "number", "minimum": -90, "maximum": 90},
            "longitude": {"type": "number", "minimum": -180, "maximum": 180}
          }
        },
        "displayName": {"type": "string"},
        "accessNotes": {"type": "string"}
      }
    },
    "commercialization": {
      "type": "object",
      "required": ["mode"],
      "properties": {"mode": {"enum": ["private", "commercial"]}}
    },
    "operationalDetails": {
      "type": "object",
      "required": ["operatorAssigned", "pricingModel", "availabilityLabel", "accessLabel"],
      "properties": {
        "operatorAssigned": {"type": "boolean"},
        "pricingModel": {"enum": ["perEnergy", "perDuration"]},
        "availabilityLabel": {"type": "string", "minLength": 1},
        "accessLabel": {"type": "string", "minLength": 1}
      }
    }
  }
}`

// JSONSchemaValidator validates payloads against a compiled schema. The
// schema is compiled once on first use.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	source   string
	compiled *jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator for PayloadSchema.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return NewJSONSchemaValidatorFor(PayloadSchema)
}

// NewJSONSchemaValidatorFor builds a validator for a custom schema document.
func NewJSONSchemaValidatorFor(schema string) *JSONSchemaValidator {
	return &JSONSchemaValidator{source: schema}
}

// Validate reports schema violations as a *ValidationError on the summary step.
func (v *JSONSchemaValidator) Validate(payload Payload) error {
	schema, err := v.schema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("onboarding: marshal payload: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("onboarding: normalize payload: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return newValidationError(StepSummary, schemaIssues(verr)...)
		}
		return fmt.Errorf("onboarding: payload failed validation: %w", err)
	}
	return nil
}

func (v *JSONSchemaValidator) schema() (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema := v.compiled
	v.mu.RUnlock()
	if schema != nil {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(payloadSchemaName, bytes.NewReader([]byte(v.source))); err != nil {
		return nil, fmt.Errorf("onboarding: load payload schema: %w", err)
	}
	compiled, err := compiler.Compile(payloadSchemaName)
	if err != nil {
		return nil, fmt.Errorf("onboarding: compile payload schema: %w", err)
	}
	v.mu.Lock()
	v.compiled = compiled
	v.mu.Unlock()
	return compiled, nil
}

func schemaIssues(verr *jsonschema.ValidationError) []FieldIssue {
	if len(verr.Causes) == 0 {
		field := strings.ReplaceAll(strings.Trim(verr.InstanceLocation, "/"), "/", ".")
		if field == "" {
			field = "payload"
		}
		return []FieldIssue{{Field: field, Code: IssueSchema, Message: verr.Message}}
	}
	var issues []FieldIssue
	for _, cause := range verr.Causes {
		issues = append(issues, schemaIssues(cause)...)
	}
	return issues
}

type noopPayloadValidator struct{}

func (noopPayloadValidator) Validate(Payload) error { return nil }
