package output

import (
	"context"

	"chat-agent/internal/domain/entity"
)

// PageDriver is the live-document backend the page-embedded executor runs
// against. Selectors are CSS, or XPath when they start with "/".
type PageDriver interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Info(ctx context.Context) (url, title string, err error)

	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	Type(ctx context.Context, selector, text string) error
	Press(ctx context.Context, key string) error
	Scroll(ctx context.Context, direction string) error

	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (string, error)

	Evaluate(ctx context.Context, script string) (string, error)
	SetContent(ctx context.Context, html string) error
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	Close() error
}
