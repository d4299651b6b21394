package todo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTool_PrefersCurrentField(t *testing.T) {
	d := &HookData{ToolName: "todowrite", Tool: "legacy"}
	assert.Equal(t, "todowrite", d.EffectiveTool())

	d = &HookData{Tool: "legacy"}
	assert.Equal(t, "legacy", d.EffectiveTool())
}

func TestInput_FallsBackToArgs(t *testing.T) {
	d := &HookData{Args: json.RawMessage(`{"todos":[]}`)}
	assert.JSONEq(t, `{"todos":[]}`, string(d.Input()))
}

func TestExtractItems(t *testing.T) {
	items, err := ExtractItems(json.RawMessage(`{"todos":[
		{"content":"write tests","status":"completed"},
		{"content":"fix lint","status":"in_progress"},
		{"content":"ship it","status":"pending"}
	]}`))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "fix lint", items[1].Content)
}

func TestExtractItems_Malformed(t *testing.T) {
	_, err := ExtractItems(json.RawMessage(`{broken`))
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	p := Summarize([]Item{
		{Content: "a", Status: "completed"},
		{Content: "b", Status: "COMPLETED"},
		{Content: "c", Status: "in_progress"},
		{Content: "d", Status: "pending"},
	})

	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 1, p.InProgress)
	assert.Equal(t, 1, p.Pending)
	assert.Equal(t, "c", p.Current)
	assert.InDelta(t, 50.0, p.CompletionRate(), 0.001)
}

func TestSummarize_Empty(t *testing.T) {
	p := Summarize(nil)
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.Current)
	assert.Zero(t, p.CompletionRate())
}

func TestBar(t *testing.T) {
	assert.Equal(t, "----------", Bar(0, 4))
	assert.Equal(t, "#####-----", Bar(2, 4))
	assert.Equal(t, "##########", Bar(4, 4))
	assert.Equal(t, "----------", Bar(0, 0))
}
