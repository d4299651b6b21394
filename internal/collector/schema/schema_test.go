package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnvelope_Valid(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{
		"type": "ToolCallStart",
		"data": {
			"toolCallId": "abc-123",
			"toolCallName": "grep",
			"runId": "run-1",
			"toolInput": {"pattern": "foo"}
		}
	}`))
	require.NoError(t, err)
}

func TestValidateEnvelope_EndWithOutput(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{
		"type": "ToolCallEnd",
		"data": {
			"toolCallId": "abc-123",
			"toolCallName": "grep",
			"runId": "unknown",
			"toolOutput": {"matches": 3}
		}
	}`))
	require.NoError(t, err)
}

func TestValidateEnvelope_UnknownType(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{
		"type": "ToolCallArgs",
		"data": {"toolCallId": "a", "toolCallName": "b", "runId": "c"}
	}`))
	assert.Error(t, err)
}

func TestValidateEnvelope_MissingRequiredField(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{
		"type": "ToolCallStart",
		"data": {"toolCallId": "a", "runId": "c"}
	}`))
	assert.Error(t, err)
}

func TestValidateEnvelope_EmptyRunID(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{
		"type": "ToolCallStart",
		"data": {"toolCallId": "a", "toolCallName": "b", "runId": ""}
	}`))
	assert.Error(t, err)
}

func TestValidateEnvelope_MalformedJSON(t *testing.T) {
	err := ValidateEnvelope(json.RawMessage(`{broken`))
	assert.Error(t, err)
}
