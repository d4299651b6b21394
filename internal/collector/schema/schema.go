// Package schema validates incoming event envelopes against the wire
// format before they are persisted.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// envelopeSchema is the JSON Schema for a single event envelope as
// produced by the emitter hook.
const envelopeSchema = `{
	"type": "object",
	"required": ["type", "data"],
	"properties": {
		"type": {
			"type": "string",
			"enum": ["ToolCallStart", "ToolCallEnd"]
		},
		"data": {
			"type": "object",
			"required": ["toolCallId", "toolCallName", "runId"],
			"properties": {
				"toolCallId": {"type": "string", "minLength": 1},
				"toolCallName": {"type": "string", "minLength": 1},
				"runId": {"type": "string", "minLength": 1},
				"toolInput": {},
				"toolOutput": {}
			}
		}
	}
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var schemaObj any
		if err := json.Unmarshal([]byte(envelopeSchema), &schemaObj); err != nil {
			compileErr = fmt.Errorf("schema compile: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("envelope.json", schemaObj); err != nil {
			compileErr = fmt.Errorf("schema compile: %w", err)
			return
		}
		compiled, compileErr = c.Compile("envelope.json")
	})
	return compiled, compileErr
}

// ValidateEnvelope checks a raw envelope against the wire schema.
// Returns a descriptive error for invalid envelopes.
func ValidateEnvelope(raw json.RawMessage) error {
	sch, err := compile()
	if err != nil {
		return err
	}

	var envelope any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("envelope is not valid JSON: %w", err)
	}

	if err := sch.Validate(envelope); err != nil {
		return fmt.Errorf("envelope schema validation failed: %w", err)
	}
	return nil
}
