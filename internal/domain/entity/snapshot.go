package entity

// RefPrefix is the scheme element references are written in, e.g. "@ref:7".
const RefPrefix = "@ref:"

// SnapshotNode is one entry in the serialized page outline. Ref is empty for
// nodes that are structural only (not interactive, no semantics worth
// addressing).
type SnapshotNode struct {
	Ref      string            `json:"ref,omitempty"`
	Tag      string            `json:"tag"`
	Role     string            `json:"role,omitempty"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []SnapshotNode    `json:"children,omitempty"`
}

// Snapshot is the result of walking the live document: a serialized outline,
// the ref table minted for it, and the page identity. When the serialized
// outline would exceed the configured maximum it is cut and Truncated is set
// rather than dropping the payload.
type Snapshot struct {
	URL       string            `json:"url,omitempty"`
	Title     string            `json:"title,omitempty"`
	Outline   string            `json:"outline"`
	Refs      map[string]string `json:"refs,omitempty"`
	Truncated bool              `json:"_truncated,omitempty"`
	Notice    string            `json:"notice,omitempty"`
}

type Screenshot struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
