package service

import (
	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

// Preset membership is data, not code. Each wider preset starts from the
// narrower one, so minimal ⊆ standard ⊆ full holds by construction and
// adding a tool to full never changes the earlier presets.
var (
	minimalTools = []entity.ToolName{
		entity.ToolNavigate,
		entity.ToolSnapshot,
		entity.ToolClick,
		entity.ToolFill,
	}
	standardTools = append(minimalTools[:len(minimalTools):len(minimalTools)],
		entity.ToolType,
		entity.ToolPress,
		entity.ToolScroll,
		entity.ToolGetText,
		entity.ToolGetAttribute,
		entity.ToolScreenshot,
	)
	fullTools = append(standardTools[:len(standardTools):len(standardTools)],
		entity.ToolEvaluate,
		entity.ToolSetContent,
	)

	presets = map[entity.PresetName][]entity.ToolName{
		entity.PresetMinimal:  minimalTools,
		entity.PresetStandard: standardTools,
		entity.PresetFull:     fullTools,
	}
)

type ToolRegistryImpl struct {
	tools  map[entity.ToolName]output.ToolPort
	order  []entity.ToolName
	logger output.LoggerPort
}

func NewToolRegistry(logger output.LoggerPort) *ToolRegistryImpl {
	return &ToolRegistryImpl{
		tools:  make(map[entity.ToolName]output.ToolPort),
		logger: logger,
	}
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistryImpl) All() []output.ToolPort {
	result := make([]output.ToolPort, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	result := make([]entity.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}

// SelectTools filters the registered tools by preset or explicit allow-list.
// Filtering preserves registration order. Unknown preset names fall back to
// standard; unknown names in an explicit list are dropped.
func (r *ToolRegistryImpl) SelectTools(sel output.ToolSelector) []output.ToolPort {
	allowed := make(map[entity.ToolName]bool)

	if len(sel.Names) > 0 {
		for _, name := range sel.Names {
			if _, ok := r.tools[name]; ok {
				allowed[name] = true
			} else if r.logger != nil {
				r.logger.Warn("Unknown tool in explicit toolset, dropped", "tool", name)
			}
		}
	} else {
		preset := sel.Preset
		members, ok := presets[preset]
		if !ok {
			if r.logger != nil && preset != "" {
				r.logger.Warn("Unknown toolset preset, falling back to standard", "preset", preset)
			}
			members = presets[entity.PresetStandard]
		}
		for _, name := range members {
			allowed[name] = true
		}
	}

	result := make([]output.ToolPort, 0, len(allowed))
	for _, name := range r.order {
		if allowed[name] {
			result = append(result, r.tools[name])
		}
	}
	return result
}

func (r *ToolRegistryImpl) Describe(name entity.ToolName) (entity.ToolDefinition, bool) {
	tool, ok := r.tools[name]
	if !ok {
		return entity.ToolDefinition{}, false
	}
	return entity.ToolDefinition{
		Name:        tool.Name().String(),
		Description: tool.Description(),
		Parameters:  tool.Parameters(),
	}, true
}

// Suggest returns the registered action closest to name by edit distance.
// Usability only; callers must still handle the not-found case.
func (r *ToolRegistryImpl) Suggest(name string) (entity.ToolName, bool) {
	best := entity.ToolName("")
	bestDist := len(name)/2 + 1 // further than this is not a near-miss

	for _, candidate := range r.order {
		d := editDistance(name, candidate.String())
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	return best, best != ""
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
