package entity

type ToolName string

const (
	ToolNavigate     ToolName = "navigate"
	ToolSnapshot     ToolName = "snapshot"
	ToolClick        ToolName = "click"
	ToolFill         ToolName = "fill"
	ToolType         ToolName = "type"
	ToolPress        ToolName = "press"
	ToolScroll       ToolName = "scroll"
	ToolGetText      ToolName = "get_text"
	ToolGetAttribute ToolName = "get_attribute"
	ToolScreenshot   ToolName = "screenshot"
	ToolEvaluate     ToolName = "evaluate"
	ToolSetContent   ToolName = "set_content"
)

func (t ToolName) String() string {
	return string(t)
}

// PresetName selects a named subset of the registered tools. Presets are
// monotonic: every tool in minimal is in standard, every tool in standard is
// in full.
type PresetName string

const (
	PresetMinimal  PresetName = "minimal"
	PresetStandard PresetName = "standard"
	PresetFull     PresetName = "full"
)
