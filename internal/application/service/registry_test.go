package service

import (
	"context"
	"testing"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name entity.ToolName
}

func (t *stubTool) Name() entity.ToolName { return t.name }
func (t *stubTool) Description() string   { return "stub " + t.name.String() }
func (t *stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (t *stubTool) Execute(ctx context.Context, args string) (string, error) {
	return "ok", nil
}

func fullRegistry() *ToolRegistryImpl {
	r := NewToolRegistry(nil)
	for _, name := range fullTools {
		r.Register(&stubTool{name: name})
	}
	return r
}

func names(tools []output.ToolPort) []entity.ToolName {
	out := make([]entity.ToolName, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Name())
	}
	return out
}

func TestPresetsAreMonotonic(t *testing.T) {
	r := fullRegistry()

	minimal := names(r.SelectTools(output.ToolSelector{Preset: entity.PresetMinimal}))
	standard := names(r.SelectTools(output.ToolSelector{Preset: entity.PresetStandard}))
	full := names(r.SelectTools(output.ToolSelector{Preset: entity.PresetFull}))

	assert.Subset(t, standard, minimal)
	assert.Subset(t, full, standard)
	assert.Len(t, minimal, 4)
	assert.Len(t, standard, 10)
	assert.Len(t, full, 12)
}

func TestSelectToolsPreservesRegistrationOrder(t *testing.T) {
	r := fullRegistry()

	selected := names(r.SelectTools(output.ToolSelector{Preset: entity.PresetFull}))
	assert.Equal(t, fullTools, selected)
}

func TestSelectToolsExplicitListWinsOverPreset(t *testing.T) {
	r := fullRegistry()

	selected := names(r.SelectTools(output.ToolSelector{
		Preset: entity.PresetFull,
		Names:  []entity.ToolName{entity.ToolClick, entity.ToolNavigate},
	}))

	// order follows registration, not the request
	assert.Equal(t, []entity.ToolName{entity.ToolNavigate, entity.ToolClick}, selected)
}

func TestSelectToolsDropsUnknownExplicitNames(t *testing.T) {
	r := fullRegistry()

	selected := names(r.SelectTools(output.ToolSelector{
		Names: []entity.ToolName{entity.ToolClick, "teleport"},
	}))

	assert.Equal(t, []entity.ToolName{entity.ToolClick}, selected)
}

func TestSelectToolsUnknownPresetFallsBackToStandard(t *testing.T) {
	r := fullRegistry()

	selected := names(r.SelectTools(output.ToolSelector{Preset: "ultra"}))
	standard := names(r.SelectTools(output.ToolSelector{Preset: entity.PresetStandard}))

	assert.Equal(t, standard, selected)
}

func TestRegisterSameNameKeepsPosition(t *testing.T) {
	r := NewToolRegistry(nil)
	r.Register(&stubTool{name: entity.ToolNavigate})
	r.Register(&stubTool{name: entity.ToolClick})

	replacement := &stubTool{name: entity.ToolNavigate}
	r.Register(replacement)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, entity.ToolNavigate, all[0].Name())
	assert.Same(t, replacement, all[0].(*stubTool))
}

func TestDefinitionsMatchRegisteredTools(t *testing.T) {
	r := fullRegistry()

	defs := r.Definitions()
	require.Len(t, defs, len(fullTools))
	for i, def := range defs {
		assert.Equal(t, fullTools[i].String(), def.Name)
		assert.NotEmpty(t, def.Description)
		assert.NotNil(t, def.Parameters)
	}
}

func TestDescribe(t *testing.T) {
	r := fullRegistry()

	def, ok := r.Describe(entity.ToolFill)
	require.True(t, ok)
	assert.Equal(t, "fill", def.Name)

	_, ok = r.Describe("teleport")
	assert.False(t, ok)
}

func TestSuggestNearMiss(t *testing.T) {
	r := fullRegistry()

	got, ok := r.Suggest("clik")
	require.True(t, ok)
	assert.Equal(t, entity.ToolClick, got)

	got, ok = r.Suggest("navigat")
	require.True(t, ok)
	assert.Equal(t, entity.ToolNavigate, got)

	_, ok = r.Suggest("frobnicate")
	assert.False(t, ok)
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("click", "click"))
	assert.Equal(t, 1, editDistance("clik", "click"))
	assert.Equal(t, 5, editDistance("", "click"))
	assert.Equal(t, 3, editDistance("kitten", "sitting"))
}
