package executor

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"chat-agent/internal/domain/entity"
)

const DefaultMaxSnapshotSize = 50000

// Tags that never carry content worth showing to a token-constrained caller.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true,
	"iframe": true, "link": true, "meta": true, "head": true,
	"title": true, "template": true,
}

// Tags a user can act on; these always get an element reference.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "textarea": true,
	"select": true, "option": true, "label": true,
	"summary": true, "details": true,
}

// Structural tags shown without a reference so the outline keeps its shape.
var landmarkTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"nav": true, "main": true, "form": true, "table": true, "dialog": true,
}

type SnapshotOptions struct {
	// MaxSize bounds the serialized outline in characters; zero means
	// DefaultMaxSnapshotSize.
	MaxSize int

	// Scope restricts the walk to the first element matching a simple
	// selector ("#id" or a tag name). Empty means the whole body.
	Scope string
}

// BuildSnapshot walks a parsed document, assigns element references to
// interactive nodes, and serializes an indented outline plus the ref table.
// Oversized output is cut and flagged, never dropped.
func BuildSnapshot(rawHTML, url, title string, refs *RefTable, opts SnapshotOptions) (*entity.Snapshot, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	root := findBody(doc)
	if root == nil {
		return nil, fmt.Errorf("document has no body")
	}
	rootPath := "body"
	if opts.Scope != "" {
		scoped, scopedPath := resolveScope(root, rootPath, opts.Scope)
		if scoped == nil {
			return nil, fmt.Errorf("scope %q matched nothing", opts.Scope)
		}
		root, rootPath = scoped, scopedPath
	}

	var b strings.Builder
	writeOutline(&b, root, rootPath, 0, refs)

	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSnapshotSize
	}

	snap := &entity.Snapshot{
		URL:     url,
		Title:   title,
		Outline: b.String(),
		Refs:    refs.Table(),
	}
	if len(snap.Outline) > maxSize {
		snap.Outline = snap.Outline[:maxSize]
		snap.Truncated = true
		snap.Notice = fmt.Sprintf("snapshot truncated at %d characters; scope it to a subtree to see more", maxSize)
	}
	return snap, nil
}

// writeOutline emits one line per interesting element and recurses. path is
// the stable structural path of n, the basis for reference idempotence.
func writeOutline(b *strings.Builder, n *html.Node, path string, depth int, refs *RefTable) {
	childDepth := depth
	if line, ok := describe(n, path, refs); ok {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(line)
		b.WriteByte('\n')
		childDepth++
	}

	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		idx++
		if skippedTags[c.Data] {
			continue
		}
		childPath := fmt.Sprintf("%s > %s:nth-child(%d)", path, c.Data, idx)
		writeOutline(b, c, childPath, childDepth, refs)
	}
}

// describe renders one element line, minting a ref for interactive nodes.
// Structural elements without text are skipped to keep the outline small.
func describe(n *html.Node, path string, refs *RefTable) (string, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}

	interactive := interactiveTags[n.Data] || attr(n, "role") != "" || attr(n, "aria-label") != "" || attr(n, "contenteditable") == "true"
	text := directText(n)

	if !interactive && !landmarkTags[n.Data] && text == "" {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString("- ")
	sb.WriteString(n.Data)

	if role := attr(n, "role"); role != "" {
		sb.WriteString(" (")
		sb.WriteString(role)
		sb.WriteByte(')')
	}

	if label := nodeLabel(n); label != "" {
		fmt.Fprintf(&sb, " %q", clip(label, 120))
	}

	if interactive {
		fmt.Fprintf(&sb, " [%s]", refs.Assign(path, fingerprintNode(n)))
	}
	return sb.String(), true
}

// nodeLabel is the human-readable identity of an element: its direct text,
// falling back to aria-label, then placeholder/name for inputs.
func nodeLabel(n *html.Node) string {
	label := directText(n)
	if label == "" {
		label = attr(n, "aria-label")
	}
	if label == "" && n.Data == "input" {
		label = attr(n, "placeholder")
		if label == "" {
			label = attr(n, "name")
		}
	}
	return label
}

// fingerprintNode is the cheap identity check stored with a reference. The
// structural paths are positional, so removing a sibling would let another
// element inherit a path; the fingerprint catches that at execution time.
func fingerprintNode(n *html.Node) string {
	return n.Data + "|" + clip(nodeLabel(n), 120)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// resolveScope finds the first element matching scope together with its
// true structural path, so references minted by a scoped snapshot agree
// with a full one and resolve against the whole document.
func resolveScope(n *html.Node, path, scope string) (*html.Node, string) {
	if matchesScope(n, scope) {
		return n, path
	}
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		idx++
		childPath := fmt.Sprintf("%s > %s:nth-child(%d)", path, c.Data, idx)
		if found, p := resolveScope(c, childPath, scope); found != nil {
			return found, p
		}
	}
	return nil, ""
}

// matchesScope matches "#id" against id attributes, anything else as a tag.
func matchesScope(n *html.Node, scope string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if strings.HasPrefix(scope, "#") {
		return attr(n, "id") == scope[1:]
	}
	return n.Data == scope
}

// findByPath walks a structural path minted by writeOutline back to its
// node in a freshly parsed document. Returns nil when the path no longer
// leads anywhere.
func findByPath(body *html.Node, path string) *html.Node {
	if body == nil {
		return nil
	}
	segments := strings.Split(path, " > ")
	if len(segments) == 0 || segments[0] != "body" {
		return nil
	}
	n := body
	for _, seg := range segments[1:] {
		tag, idx, ok := parsePathSegment(seg)
		if !ok {
			return nil
		}
		var next *html.Node
		count := 0
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			count++
			if count == idx {
				next = c
				break
			}
		}
		if next == nil || next.Data != tag {
			return nil
		}
		n = next
	}
	return n
}

func parsePathSegment(seg string) (tag string, idx int, ok bool) {
	const marker = ":nth-child("
	i := strings.Index(seg, marker)
	if i < 0 || !strings.HasSuffix(seg, ")") {
		return "", 0, false
	}
	idx, err := strconv.Atoi(seg[i+len(marker) : len(seg)-1])
	if err != nil || idx < 1 {
		return "", 0, false
	}
	return seg[:i], idx, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// directText collapses the element's immediate text children.
func directText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
