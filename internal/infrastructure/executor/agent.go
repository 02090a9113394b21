package executor

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/google/uuid"
)

var _ output.CommandExecutor = (*Agent)(nil)

// Agent is the page-embedded executor: it runs one command at a time
// against the live document behind its PageDriver and answers with exactly
// one response. It enforces no toolset policy; that belongs to the
// registry presets on the host side.
type Agent struct {
	driver          output.PageDriver
	refs            *RefTable
	logger          output.LoggerPort
	maxSnapshotSize int

	// mu serializes command execution; the router dispatches each command
	// in its own goroutine, but one page can only do one thing at a time.
	mu sync.Mutex
}

func NewAgent(driver output.PageDriver, logger output.LoggerPort, maxSnapshotSize int) *Agent {
	if maxSnapshotSize <= 0 {
		maxSnapshotSize = DefaultMaxSnapshotSize
	}
	return &Agent{
		driver:          driver,
		refs:            NewRefTable(),
		logger:          logger,
		maxSnapshotSize: maxSnapshotSize,
	}
}

// Execute dispatches on the closed action set. Every failure mode,
// including malformed arguments, missing elements, driver errors and
// internal panics, settles as a failed response; nothing crosses the
// protocol boundary unformatted.
func (a *Agent) Execute(ctx context.Context, cmd entity.Command) (resp entity.Response) {
	defer func() {
		if r := recover(); r != nil {
			if a.logger != nil {
				a.logger.Error("Executor panic", "action", cmd.Action, "panic", r)
			}
			resp = entity.Failure(cmd.ID, fmt.Sprintf("internal executor error: %v", r))
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.logger != nil {
		a.logger.Debug("Executing command", "id", cmd.ID, "action", cmd.Action)
	}

	switch cmd.Action {
	case entity.ActionNavigate:
		return a.navigate(ctx, cmd)
	case entity.ActionSnapshot:
		return a.snapshot(ctx, cmd)
	case entity.ActionClick:
		return a.click(ctx, cmd)
	case entity.ActionFill:
		return a.fill(ctx, cmd)
	case entity.ActionType:
		return a.typeText(ctx, cmd)
	case entity.ActionPress:
		return a.press(ctx, cmd)
	case entity.ActionScroll:
		return a.scroll(ctx, cmd)
	case entity.ActionGetText:
		return a.getText(ctx, cmd)
	case entity.ActionGetAttribute:
		return a.getAttribute(ctx, cmd)
	case entity.ActionScreenshot:
		return a.screenshot(ctx, cmd)
	case entity.ActionEvaluate:
		return a.evaluate(ctx, cmd)
	case entity.ActionSetContent:
		return a.setContent(ctx, cmd)
	default:
		return entity.Failure(cmd.ID, fmt.Sprintf("unknown action %q", cmd.Action))
	}
}

func (a *Agent) navigate(ctx context.Context, cmd entity.Command) entity.Response {
	if cmd.URL == "" {
		return entity.Failure(cmd.ID, "navigate requires a url")
	}
	if err := a.driver.Navigate(ctx, cmd.URL); err != nil {
		return entity.Failure(cmd.ID, "navigation failed: "+err.Error())
	}
	a.refs.Invalidate()
	url, _, err := a.driver.Info(ctx)
	if err != nil {
		url = cmd.URL
	}
	return entity.Success(cmd.ID, map[string]interface{}{"url": url})
}

func (a *Agent) snapshot(ctx context.Context, cmd entity.Command) entity.Response {
	raw, err := a.driver.HTML(ctx)
	if err != nil {
		return entity.Failure(cmd.ID, "failed to read document: "+err.Error())
	}
	url, title, _ := a.driver.Info(ctx)

	maxSize := cmd.MaxSize
	if maxSize <= 0 {
		maxSize = a.maxSnapshotSize
	}
	snap, err := BuildSnapshot(raw, url, title, a.refs, SnapshotOptions{
		MaxSize: maxSize,
		Scope:   cmd.Selector,
	})
	if err != nil {
		return entity.Failure(cmd.ID, "snapshot failed: "+err.Error())
	}
	return entity.Success(cmd.ID, snap)
}

func (a *Agent) click(ctx context.Context, cmd entity.Command) entity.Response {
	selector, errResp := a.resolveSelector(ctx, cmd)
	if errResp != nil {
		return *errResp
	}
	if err := a.driver.Click(ctx, selector); err != nil {
		return entity.Failure(cmd.ID, "click failed: "+err.Error())
	}
	return entity.Success(cmd.ID, "clicked")
}

func (a *Agent) fill(ctx context.Context, cmd entity.Command) entity.Response {
	selector, errResp := a.resolveSelector(ctx, cmd)
	if errResp != nil {
		return *errResp
	}
	if err := a.driver.Fill(ctx, selector, cmd.Text); err != nil {
		return entity.Failure(cmd.ID, "fill failed: "+err.Error())
	}
	return entity.Success(cmd.ID, "filled")
}

func (a *Agent) typeText(ctx context.Context, cmd entity.Command) entity.Response {
	selector, errResp := a.resolveSelector(ctx, cmd)
	if errResp != nil {
		return *errResp
	}
	if err := a.driver.Type(ctx, selector, cmd.Text); err != nil {
		return entity.Failure(cmd.ID, "type failed: "+err.Error())
	}
	return entity.Success(cmd.ID, "typed")
}

func (a *Agent) press(ctx context.Context, cmd entity.Command) entity.Response {
	if cmd.Key == "" {
		return entity.Failure(cmd.ID, "press requires a key")
	}
	if err := a.driver.Press(ctx, cmd.Key); err != nil {
		return entity.Failure(cmd.ID, "press failed: "+err.Error())
	}
	return entity.Success(cmd.ID, "pressed "+cmd.Key)
}

func (a *Agent) scroll(ctx context.Context, cmd entity.Command) entity.Response {
	if err := a.driver.Scroll(ctx, cmd.Direction); err != nil {
		return entity.Failure(cmd.ID, "scroll failed: "+err.Error())
	}
	return entity.Success(cmd.ID, "scrolled "+cmd.Direction)
}

func (a *Agent) getText(ctx context.Context, cmd entity.Command) entity.Response {
	selector, errResp := a.resolveSelector(ctx, cmd)
	if errResp != nil {
		return *errResp
	}
	text, err := a.driver.Text(ctx, selector)
	if err != nil {
		return entity.Failure(cmd.ID, "get_text failed: "+err.Error())
	}
	return entity.Success(cmd.ID, map[string]interface{}{"text": text})
}

func (a *Agent) getAttribute(ctx context.Context, cmd entity.Command) entity.Response {
	if cmd.Name == "" {
		return entity.Failure(cmd.ID, "get_attribute requires an attribute name")
	}
	selector, errResp := a.resolveSelector(ctx, cmd)
	if errResp != nil {
		return *errResp
	}
	value, err := a.driver.Attribute(ctx, selector, cmd.Name)
	if err != nil {
		return entity.Failure(cmd.ID, "get_attribute failed: "+err.Error())
	}
	return entity.Success(cmd.ID, map[string]interface{}{"name": cmd.Name, "value": value})
}

func (a *Agent) screenshot(ctx context.Context, cmd entity.Command) entity.Response {
	shot, err := a.driver.Screenshot(ctx)
	if err != nil {
		return entity.Failure(cmd.ID, "screenshot failed: "+err.Error())
	}
	return entity.Success(cmd.ID, map[string]interface{}{
		"format": shot.Format,
		"width":  shot.Width,
		"height": shot.Height,
		"data":   base64.StdEncoding.EncodeToString(shot.Data),
	})
}

func (a *Agent) evaluate(ctx context.Context, cmd entity.Command) entity.Response {
	if cmd.Script == "" {
		return entity.Failure(cmd.ID, "evaluate requires a script")
	}
	result, err := a.driver.Evaluate(ctx, cmd.Script)
	if err != nil {
		return entity.Failure(cmd.ID, "evaluate failed: "+err.Error())
	}
	return entity.Success(cmd.ID, map[string]interface{}{"result": result})
}

func (a *Agent) setContent(ctx context.Context, cmd entity.Command) entity.Response {
	if err := a.driver.SetContent(ctx, cmd.HTML); err != nil {
		return entity.Failure(cmd.ID, "set_content failed: "+err.Error())
	}
	a.refs.Invalidate()
	return entity.Success(cmd.ID, "content replaced")
}

// resolveSelector re-resolves element references at execution time. A ref
// that was never minted, whose table was invalidated, or whose element is
// gone from the document fails with a descriptive error instead of
// reaching the driver.
func (a *Agent) resolveSelector(ctx context.Context, cmd entity.Command) (string, *entity.Response) {
	selector := cmd.Selector
	if selector == "" {
		resp := entity.Failure(cmd.ID, fmt.Sprintf("%s requires a selector", cmd.Action))
		return "", &resp
	}
	if strings.HasPrefix(selector, entity.RefPrefix) {
		entry, ok := a.refs.lookup(selector)
		if !ok {
			resp := entity.Failure(cmd.ID, fmt.Sprintf("unknown element reference %s; take a snapshot first", selector))
			return "", &resp
		}
		if resp := a.checkRef(ctx, cmd, selector, entry); resp != nil {
			return "", resp
		}
		return entry.path, nil
	}
	return selector, nil
}

// checkRef re-validates a reference against the live document. Structural
// paths are positional, so a removed sibling would silently retarget the
// path at a different element; comparing the stored fingerprint catches
// that and turns it into a failure.
func (a *Agent) checkRef(ctx context.Context, cmd entity.Command, ref string, entry refEntry) *entity.Response {
	raw, err := a.driver.HTML(ctx)
	if err != nil {
		resp := entity.Failure(cmd.ID, "failed to read document: "+err.Error())
		return &resp
	}
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		resp := entity.Failure(cmd.ID, "parse document: "+err.Error())
		return &resp
	}
	node := findByPath(findBody(doc), entry.path)
	if node == nil || fingerprintNode(node) != entry.fingerprint {
		resp := entity.Failure(cmd.ID, fmt.Sprintf("element reference %s is stale; take a snapshot first", ref))
		return &resp
	}
	return nil
}

// Convenience operations, sugar over Execute.

func (a *Agent) Navigate(ctx context.Context, url string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionNavigate, URL: url})
}

func (a *Agent) Click(ctx context.Context, selector string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionClick, Selector: selector})
}

func (a *Agent) Fill(ctx context.Context, selector, text string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionFill, Selector: selector, Text: text})
}

func (a *Agent) Type(ctx context.Context, selector, text string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionType, Selector: selector, Text: text})
}

func (a *Agent) Press(ctx context.Context, key string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionPress, Key: key})
}

func (a *Agent) Scroll(ctx context.Context, direction string) error {
	return a.do(ctx, entity.Command{Action: entity.ActionScroll, Direction: direction})
}

func (a *Agent) GetText(ctx context.Context, selector string) (string, error) {
	resp := a.Execute(ctx, entity.Command{ID: uuid.NewString(), Action: entity.ActionGetText, Selector: selector})
	if !resp.Success {
		return "", fmt.Errorf("%s", resp.Error)
	}
	data, _ := resp.Data.(map[string]interface{})
	text, _ := data["text"].(string)
	return text, nil
}

func (a *Agent) GetAttribute(ctx context.Context, selector, name string) (string, error) {
	resp := a.Execute(ctx, entity.Command{ID: uuid.NewString(), Action: entity.ActionGetAttribute, Selector: selector, Name: name})
	if !resp.Success {
		return "", fmt.Errorf("%s", resp.Error)
	}
	data, _ := resp.Data.(map[string]interface{})
	value, _ := data["value"].(string)
	return value, nil
}

func (a *Agent) Snapshot(ctx context.Context) (*entity.Snapshot, error) {
	resp := a.Execute(ctx, entity.Command{ID: uuid.NewString(), Action: entity.ActionSnapshot})
	if !resp.Success {
		return nil, fmt.Errorf("%s", resp.Error)
	}
	snap, ok := resp.Data.(*entity.Snapshot)
	if !ok {
		return nil, fmt.Errorf("unexpected snapshot payload %T", resp.Data)
	}
	return snap, nil
}

func (a *Agent) do(ctx context.Context, cmd entity.Command) error {
	cmd.ID = uuid.NewString()
	resp := a.Execute(ctx, cmd)
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}

// Close releases the driver and invalidates every minted reference.
func (a *Agent) Close() error {
	a.refs.Invalidate()
	return a.driver.Close()
}
