package browsertool

import (
	"context"
	"encoding/json"
	"fmt"

	"chat-agent/internal/domain/entity"

	"github.com/google/uuid"
)

// Sender is the host-router surface the tools need: one command in, one
// response out. An empty target means the focused page context.
type Sender interface {
	Send(ctx context.Context, target string, cmd entity.Command) entity.Response
}

// bridgeTool is the shared plumbing: build a command, send it through the
// router, flatten the response into a tool observation. Failed responses
// become errors so the task loop can feed them back to the model.
type bridgeTool struct {
	sender Sender
	target string
}

func (b bridgeTool) send(ctx context.Context, cmd entity.Command) (string, error) {
	cmd.ID = uuid.NewString()
	resp := b.sender.Send(ctx, b.target, cmd)
	if !resp.Success {
		return "", fmt.Errorf("%s", resp.Error)
	}
	return flatten(resp.Data), nil
}

func flatten(data interface{}) string {
	switch v := data.(type) {
	case nil:
		return "ok"
	case string:
		return v
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(out)
	}
}

type NavigateTool struct{ bridgeTool }

func NewNavigateTool(sender Sender, target string) *NavigateTool {
	return &NavigateTool{bridgeTool{sender: sender, target: target}}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolNavigate }
func (t *NavigateTool) Description() string   { return "Navigates the page to a URL" }
func (t *NavigateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL to navigate to",
			},
		},
		"required": []string{"url"},
	}
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionNavigate, URL: input.URL})
}

type SnapshotTool struct {
	bridgeTool
	maxSize int
}

func NewSnapshotTool(sender Sender, target string, maxSize int) *SnapshotTool {
	return &SnapshotTool{bridgeTool: bridgeTool{sender: sender, target: target}, maxSize: maxSize}
}

func (t *SnapshotTool) Name() entity.ToolName { return entity.ToolSnapshot }
func (t *SnapshotTool) Description() string {
	return "Returns a compact outline of the page with element references like @ref:1. Use those references as selectors for click, fill and the other element tools."
}
func (t *SnapshotTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Optional scope: '#id' or a tag name to snapshot a subtree",
			},
		},
		"required": []string{},
	}
}

func (t *SnapshotTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &input); err != nil {
			return "", err
		}
	}
	return t.send(ctx, entity.Command{Action: entity.ActionSnapshot, Selector: input.Selector, MaxSize: t.maxSize})
}

type ClickTool struct{ bridgeTool }

func NewClickTool(sender Sender, target string) *ClickTool {
	return &ClickTool{bridgeTool{sender: sender, target: target}}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolClick }
func (t *ClickTool) Description() string   { return "Clicks an element" }
func (t *ClickTool) Parameters() map[string]interface{} {
	return selectorOnlyParams("Element reference from a snapshot (@ref:N) or a CSS selector")
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionClick, Selector: input.Selector})
}

type FillTool struct{ bridgeTool }

func NewFillTool(sender Sender, target string) *FillTool {
	return &FillTool{bridgeTool{sender: sender, target: target}}
}

func (t *FillTool) Name() entity.ToolName { return entity.ToolFill }
func (t *FillTool) Description() string   { return "Replaces an input field's value with text" }
func (t *FillTool) Parameters() map[string]interface{} {
	return selectorTextParams("Text to set as the field value")
}

func (t *FillTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionFill, Selector: input.Selector, Text: input.Text})
}

type TypeTool struct{ bridgeTool }

func NewTypeTool(sender Sender, target string) *TypeTool {
	return &TypeTool{bridgeTool{sender: sender, target: target}}
}

func (t *TypeTool) Name() entity.ToolName { return entity.ToolType }
func (t *TypeTool) Description() string   { return "Types text into an element, appending to its value" }
func (t *TypeTool) Parameters() map[string]interface{} {
	return selectorTextParams("Text to type")
}

func (t *TypeTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionType, Selector: input.Selector, Text: input.Text})
}

type PressTool struct{ bridgeTool }

func NewPressTool(sender Sender, target string) *PressTool {
	return &PressTool{bridgeTool{sender: sender, target: target}}
}

func (t *PressTool) Name() entity.ToolName { return entity.ToolPress }
func (t *PressTool) Description() string   { return "Presses a keyboard key" }
func (t *PressTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"enter", "tab", "escape", "backspace", "space", "arrowup", "arrowdown", "pageup", "pagedown"},
				"description": "Key to press",
			},
		},
		"required": []string{"key"},
	}
}

func (t *PressTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionPress, Key: input.Key})
}

type ScrollTool struct{ bridgeTool }

func NewScrollTool(sender Sender, target string) *ScrollTool {
	return &ScrollTool{bridgeTool{sender: sender, target: target}}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolScroll }
func (t *ScrollTool) Description() string   { return "Scrolls the page" }
func (t *ScrollTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"up", "down", "top", "bottom"},
				"description": "Scroll direction",
			},
		},
		"required": []string{"direction"},
	}
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionScroll, Direction: input.Direction})
}

type GetTextTool struct{ bridgeTool }

func NewGetTextTool(sender Sender, target string) *GetTextTool {
	return &GetTextTool{bridgeTool{sender: sender, target: target}}
}

func (t *GetTextTool) Name() entity.ToolName { return entity.ToolGetText }
func (t *GetTextTool) Description() string   { return "Reads an element's visible text" }
func (t *GetTextTool) Parameters() map[string]interface{} {
	return selectorOnlyParams("Element reference (@ref:N) or CSS selector")
}

func (t *GetTextTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionGetText, Selector: input.Selector})
}

type GetAttributeTool struct{ bridgeTool }

func NewGetAttributeTool(sender Sender, target string) *GetAttributeTool {
	return &GetAttributeTool{bridgeTool{sender: sender, target: target}}
}

func (t *GetAttributeTool) Name() entity.ToolName { return entity.ToolGetAttribute }
func (t *GetAttributeTool) Description() string   { return "Reads one attribute of an element" }
func (t *GetAttributeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Element reference (@ref:N) or CSS selector",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Attribute name, e.g. href",
			},
		},
		"required": []string{"selector", "name"},
	}
}

func (t *GetAttributeTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionGetAttribute, Selector: input.Selector, Name: input.Name})
}

type ScreenshotTool struct{ bridgeTool }

func NewScreenshotTool(sender Sender, target string) *ScreenshotTool {
	return &ScreenshotTool{bridgeTool{sender: sender, target: target}}
}

func (t *ScreenshotTool) Name() entity.ToolName { return entity.ToolScreenshot }
func (t *ScreenshotTool) Description() string   { return "Takes a screenshot of the page" }
func (t *ScreenshotTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
		"required":   []string{},
	}
}

func (t *ScreenshotTool) Execute(ctx context.Context, args string) (string, error) {
	return t.send(ctx, entity.Command{Action: entity.ActionScreenshot})
}

type EvaluateTool struct{ bridgeTool }

func NewEvaluateTool(sender Sender, target string) *EvaluateTool {
	return &EvaluateTool{bridgeTool{sender: sender, target: target}}
}

func (t *EvaluateTool) Name() entity.ToolName { return entity.ToolEvaluate }
func (t *EvaluateTool) Description() string   { return "Evaluates JavaScript on the page and returns the result" }
func (t *EvaluateTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"script": map[string]interface{}{
				"type":        "string",
				"description": "JavaScript expression or function",
			},
		},
		"required": []string{"script"},
	}
}

func (t *EvaluateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Script string `json:"script"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionEvaluate, Script: input.Script})
}

type SetContentTool struct{ bridgeTool }

func NewSetContentTool(sender Sender, target string) *SetContentTool {
	return &SetContentTool{bridgeTool{sender: sender, target: target}}
}

func (t *SetContentTool) Name() entity.ToolName { return entity.ToolSetContent }
func (t *SetContentTool) Description() string   { return "Replaces the entire document with the given HTML" }
func (t *SetContentTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"html": map[string]interface{}{
				"type":        "string",
				"description": "Full HTML document",
			},
		},
		"required": []string{"html"},
	}
}

func (t *SetContentTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal([]byte(args), &input); err != nil {
		return "", err
	}
	return t.send(ctx, entity.Command{Action: entity.ActionSetContent, HTML: input.HTML})
}

func selectorOnlyParams(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": desc,
			},
		},
		"required": []string{"selector"},
	}
}

func selectorTextParams(textDesc string) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "Element reference (@ref:N) or CSS selector",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": textDesc,
			},
		},
		"required": []string{"selector", "text"},
	}
}
