package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chat-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver serves a static document and records the selectors it was
// asked to act on. delay and the in-flight counter let tests detect
// overlapping calls.
type fakeDriver struct {
	html    string
	url     string
	title   string
	clicked []string
	filled  map[string]string
	typed   map[string]string
	pressed []string
	failOn  map[string]error
	closed  bool

	delay      time.Duration
	inFlight   int32
	overlapped int32
}

func newFakeDriver(html string) *fakeDriver {
	return &fakeDriver{
		html:   html,
		url:    "https://example.com",
		title:  "Example",
		filled: make(map[string]string),
		typed:  make(map[string]string),
		failOn: make(map[string]error),
	}
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.url = url
	return nil
}
func (d *fakeDriver) HTML(ctx context.Context) (string, error) { return d.html, nil }
func (d *fakeDriver) Info(ctx context.Context) (string, string, error) {
	return d.url, d.title, nil
}
func (d *fakeDriver) Click(ctx context.Context, selector string) error {
	if atomic.AddInt32(&d.inFlight, 1) > 1 {
		atomic.StoreInt32(&d.overlapped, 1)
	}
	defer atomic.AddInt32(&d.inFlight, -1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	if err := d.failOn[selector]; err != nil {
		return err
	}
	d.clicked = append(d.clicked, selector)
	return nil
}
func (d *fakeDriver) Fill(ctx context.Context, selector, text string) error {
	d.filled[selector] = text
	return nil
}
func (d *fakeDriver) Type(ctx context.Context, selector, text string) error {
	d.typed[selector] = text
	return nil
}
func (d *fakeDriver) Press(ctx context.Context, key string) error {
	d.pressed = append(d.pressed, key)
	return nil
}
func (d *fakeDriver) Scroll(ctx context.Context, direction string) error { return nil }
func (d *fakeDriver) Text(ctx context.Context, selector string) (string, error) {
	return "some text", nil
}
func (d *fakeDriver) Attribute(ctx context.Context, selector, name string) (string, error) {
	return "attr-value", nil
}
func (d *fakeDriver) Evaluate(ctx context.Context, script string) (string, error) {
	if script == "panic" {
		panic("script exploded")
	}
	return "42", nil
}
func (d *fakeDriver) SetContent(ctx context.Context, html string) error {
	d.html = html
	return nil
}
func (d *fakeDriver) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{0xFF, 0xD8}, Format: "jpeg", Width: 10, Height: 10}, nil
}
func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

const page = `<html><body><button>Go</button><input name="q"></body></html>`

func newTestAgent(d *fakeDriver) *Agent {
	return NewAgent(d, nil, 0)
}

func snapshotRefs(t *testing.T, agent *Agent) map[string]string {
	t.Helper()
	resp := agent.Execute(context.Background(), entity.Command{ID: "snap", Action: entity.ActionSnapshot})
	require.True(t, resp.Success, resp.Error)
	snap, ok := resp.Data.(*entity.Snapshot)
	require.True(t, ok)
	return snap.Refs
}

func TestExecuteUnknownAction(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))

	resp := agent.Execute(context.Background(), entity.Command{ID: "c1", Action: "teleport"})

	assert.False(t, resp.Success)
	assert.Equal(t, "c1", resp.ID)
	assert.Contains(t, resp.Error, `unknown action "teleport"`)
}

func TestExecuteClickThroughRef(t *testing.T) {
	driver := newFakeDriver(page)
	agent := newTestAgent(driver)

	refs := snapshotRefs(t, agent)
	require.NotEmpty(t, refs)

	var buttonRef string
	for ref, path := range refs {
		if path == "body > button:nth-child(1)" {
			buttonRef = ref
		}
	}
	require.NotEmpty(t, buttonRef)

	resp := agent.Execute(context.Background(), entity.Command{ID: "c2", Action: entity.ActionClick, Selector: buttonRef})
	require.True(t, resp.Success, resp.Error)

	require.Len(t, driver.clicked, 1)
	assert.Equal(t, "body > button:nth-child(1)", driver.clicked[0], "refs resolve to structural paths before reaching the driver")
}

func TestExecuteUnknownRef(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))

	resp := agent.Execute(context.Background(), entity.Command{ID: "c3", Action: entity.ActionClick, Selector: "@ref:7"})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown element reference @ref:7")
	assert.Contains(t, resp.Error, "take a snapshot first")
}

func TestNavigateInvalidatesRefs(t *testing.T) {
	driver := newFakeDriver(page)
	agent := newTestAgent(driver)

	refs := snapshotRefs(t, agent)
	var anyRef string
	for ref := range refs {
		anyRef = ref
	}
	require.NotEmpty(t, anyRef)

	resp := agent.Execute(context.Background(), entity.Command{ID: "n1", Action: entity.ActionNavigate, URL: "https://example.com/next"})
	require.True(t, resp.Success, resp.Error)

	resp = agent.Execute(context.Background(), entity.Command{ID: "c4", Action: entity.ActionClick, Selector: anyRef})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "unknown element reference")
}

func TestSetContentInvalidatesRefs(t *testing.T) {
	driver := newFakeDriver(page)
	agent := newTestAgent(driver)

	refs := snapshotRefs(t, agent)
	require.NotEmpty(t, refs)

	resp := agent.Execute(context.Background(), entity.Command{
		ID: "s1", Action: entity.ActionSetContent,
		HTML: `<html><body><a href="/">Home</a></body></html>`,
	})
	require.True(t, resp.Success, resp.Error)

	for ref := range refs {
		resp := agent.Execute(context.Background(), entity.Command{ID: "c5", Action: entity.ActionClick, Selector: ref})
		assert.False(t, resp.Success)
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))
	ctx := context.Background()

	cases := []struct {
		cmd     entity.Command
		errPart string
	}{
		{entity.Command{Action: entity.ActionNavigate}, "requires a url"},
		{entity.Command{Action: entity.ActionClick}, "requires a selector"},
		{entity.Command{Action: entity.ActionFill}, "requires a selector"},
		{entity.Command{Action: entity.ActionPress}, "requires a key"},
		{entity.Command{Action: entity.ActionGetAttribute, Selector: "#x"}, "requires an attribute name"},
		{entity.Command{Action: entity.ActionEvaluate}, "requires a script"},
	}

	for _, tc := range cases {
		tc.cmd.ID = "v"
		resp := agent.Execute(ctx, tc.cmd)
		assert.False(t, resp.Success, "%s must fail", tc.cmd.Action)
		assert.Contains(t, resp.Error, tc.errPart)
	}
}

func TestExecuteRecoversFromPanic(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))

	resp := agent.Execute(context.Background(), entity.Command{ID: "p1", Action: entity.ActionEvaluate, Script: "panic"})

	assert.False(t, resp.Success)
	assert.Equal(t, "p1", resp.ID)
	assert.Contains(t, resp.Error, "internal executor error")
	assert.Contains(t, resp.Error, "script exploded")
}

func TestDriverErrorsBecomeFailedResponses(t *testing.T) {
	driver := newFakeDriver(page)
	driver.failOn["#broken"] = fmt.Errorf("element not found: #broken")
	agent := newTestAgent(driver)

	resp := agent.Execute(context.Background(), entity.Command{ID: "e1", Action: entity.ActionClick, Selector: "#broken"})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "click failed")
	assert.Contains(t, resp.Error, "element not found")
}

func TestSnapshotHonorsMaxSize(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))

	resp := agent.Execute(context.Background(), entity.Command{ID: "s2", Action: entity.ActionSnapshot, MaxSize: 10})
	require.True(t, resp.Success, resp.Error)

	snap := resp.Data.(*entity.Snapshot)
	assert.True(t, snap.Truncated)
	assert.Len(t, snap.Outline, 10)
}

func TestScreenshotPayload(t *testing.T) {
	agent := newTestAgent(newFakeDriver(page))

	resp := agent.Execute(context.Background(), entity.Command{ID: "sc", Action: entity.ActionScreenshot})
	require.True(t, resp.Success, resp.Error)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "jpeg", data["format"])
	assert.NotEmpty(t, data["data"])
}

func TestStaleRefFailsAfterElementRemoved(t *testing.T) {
	driver := newFakeDriver(`<html><body><button>One</button><button>Two</button></body></html>`)
	agent := newTestAgent(driver)

	refs := snapshotRefs(t, agent)
	var firstRef string
	for ref, path := range refs {
		if path == "body > button:nth-child(1)" {
			firstRef = ref
		}
	}
	require.NotEmpty(t, firstRef)

	// mutate the document behind the agent's back, the way a page script
	// would; the second button now occupies the first button's path
	driver.html = `<html><body><button>Two</button></body></html>`

	resp := agent.Execute(context.Background(), entity.Command{ID: "st1", Action: entity.ActionClick, Selector: firstRef})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "stale")
	assert.Contains(t, resp.Error, "take a snapshot first")
	assert.Empty(t, driver.clicked, "a retargeted path must never reach the driver")
}

func TestRefSurvivesUnrelatedMutation(t *testing.T) {
	driver := newFakeDriver(`<html><body><button>Go</button><p>before</p></body></html>`)
	agent := newTestAgent(driver)

	refs := snapshotRefs(t, agent)
	var buttonRef string
	for ref, path := range refs {
		if path == "body > button:nth-child(1)" {
			buttonRef = ref
		}
	}
	require.NotEmpty(t, buttonRef)

	driver.html = `<html><body><button>Go</button><p>after</p></body></html>`

	resp := agent.Execute(context.Background(), entity.Command{ID: "st2", Action: entity.ActionClick, Selector: buttonRef})

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, []string{"body > button:nth-child(1)"}, driver.clicked)
}

func TestExecuteSerializesConcurrentCommands(t *testing.T) {
	driver := newFakeDriver(page)
	driver.delay = time.Millisecond
	agent := newTestAgent(driver)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := entity.Command{ID: fmt.Sprintf("cc%d", i), Action: entity.ActionClick, Selector: "#btn"}
			resp := agent.Execute(context.Background(), cmd)
			assert.True(t, resp.Success, resp.Error)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&driver.overlapped), "commands against one page must not overlap")
	assert.Len(t, driver.clicked, 16)
}

func TestConvenienceMethods(t *testing.T) {
	driver := newFakeDriver(page)
	agent := newTestAgent(driver)
	ctx := context.Background()

	require.NoError(t, agent.Navigate(ctx, "https://example.com/a"))
	require.NoError(t, agent.Click(ctx, "#btn"))
	require.NoError(t, agent.Fill(ctx, "#q", "hello"))
	require.NoError(t, agent.Press(ctx, "enter"))

	text, err := agent.GetText(ctx, "#q")
	require.NoError(t, err)
	assert.Equal(t, "some text", text)

	value, err := agent.GetAttribute(ctx, "#q", "name")
	require.NoError(t, err)
	assert.Equal(t, "attr-value", value)

	snap, err := agent.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Outline)

	assert.Equal(t, "hello", driver.filled["#q"])
	assert.Equal(t, []string{"enter"}, driver.pressed)

	require.NoError(t, agent.Close())
	assert.True(t, driver.closed)
}
