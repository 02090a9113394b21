package rodpage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.PageDriver = (*Driver)(nil)

// Driver runs page commands against a real Chromium instance through rod.
// One driver owns one page; the executor above it serializes commands, so
// no locking is needed here.
type Driver struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
}

type Config struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
}

func DefaultConfig() Config {
	return Config{
		Headless:   true,
		SlowMotion: 0,
		Timeout:    10 * time.Second,
		NoSandbox:  true,
		DevTools:   false,
	}
}

func New(ctx context.Context, cfg Config) (*Driver, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-web-security").
		Set("allow-running-insecure-content").
		Set("disable-setuid-sandbox")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion).
		MustConnect()

	page := browser.MustPage("about:blank")

	return &Driver{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
	}, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	d.page.MustWaitLoad()
	d.page.WaitIdle(5 * time.Second)
	return nil
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	html, err := d.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (d *Driver) Info(ctx context.Context) (string, string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", "", fmt.Errorf("failed to get page info: %w", err)
	}
	return info.URL, info.Title, nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	d.page.WaitIdle(2 * time.Second)
	return nil
}

// Fill replaces the field's current value; Type appends keystrokes.
func (d *Driver) Fill(ctx context.Context, selector, text string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (d *Driver) Type(ctx context.Context, selector, text string) error {
	el, err := d.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (d *Driver) Press(ctx context.Context, key string) error {
	k, ok := keyMap[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := d.page.Context(ctx).Keyboard.Type(k); err != nil {
		return fmt.Errorf("key press failed: %w", err)
	}
	d.page.WaitIdle(1 * time.Second)
	return nil
}

func (d *Driver) Scroll(ctx context.Context, direction string) error {
	direction = strings.ToLower(strings.TrimSpace(direction))

	var script string
	switch direction {
	case "down", "":
		script = `() => window.scrollBy(0, window.innerHeight * 2)`
	case "up":
		script = `() => window.scrollBy(0, -window.innerHeight * 2)`
	case "top":
		script = `() => window.scrollTo(0, 0)`
	case "bottom":
		script = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}

	if _, err := d.page.Context(ctx).Eval(script); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	d.page.WaitIdle(800 * time.Millisecond)
	return nil
}

func (d *Driver) Text(ctx context.Context, selector string) (string, error) {
	el, err := d.element(ctx, selector)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (d *Driver) Attribute(ctx context.Context, selector, name string) (string, error) {
	el, err := d.element(ctx, selector)
	if err != nil {
		return "", err
	}
	value, err := el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (d *Driver) Evaluate(ctx context.Context, script string) (string, error) {
	result, err := d.page.Context(ctx).Eval(script)
	if err != nil {
		return "", fmt.Errorf("evaluate failed: %w", err)
	}
	return result.Value.String(), nil
}

func (d *Driver) SetContent(ctx context.Context, html string) error {
	if err := d.page.Context(ctx).SetDocumentContent(html); err != nil {
		return fmt.Errorf("set content failed: %w", err)
	}
	d.page.WaitIdle(1 * time.Second)
	return nil
}

func (d *Driver) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := d.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (d *Driver) Close() error {
	if d.browser != nil {
		_ = d.browser.Close()
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
	}
	return nil
}

// element looks up a single element, treating selectors starting with "/" as
// XPath.
func (d *Driver) element(ctx context.Context, selector string) (*rod.Element, error) {
	page := d.page.Context(ctx).Timeout(d.timeout)

	var el *rod.Element
	var err error
	if strings.HasPrefix(selector, "/") {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el, nil
}

var keyMap = map[string]input.Key{
	"enter":     input.Enter,
	"tab":       input.Tab,
	"escape":    input.Escape,
	"backspace": input.Backspace,
	"space":     input.Space,
	"arrowup":   input.ArrowUp,
	"arrowdown": input.ArrowDown,
	"pageup":    input.PageUp,
	"pagedown":  input.PageDown,
}
