package executor

import (
	"fmt"
	"sync"

	"chat-agent/internal/domain/entity"
)

// refEntry is what one minted reference points at: the structural path and
// a fingerprint of the element it was minted for. The fingerprint is
// re-checked at execution time because paths are positional and can be
// inherited by a sibling after a mutation.
type refEntry struct {
	path        string
	fingerprint string
}

// RefTable maps element references ("@ref:N") to stable structural paths
// for the lifetime of one session. A path that was already assigned keeps
// its reference, so re-snapshotting an unchanged document is idempotent.
type RefTable struct {
	mu     sync.Mutex
	byRef  map[string]refEntry
	byPath map[string]string
	next   int
}

func NewRefTable() *RefTable {
	return &RefTable{
		byRef:  make(map[string]refEntry),
		byPath: make(map[string]string),
		next:   1,
	}
}

// Assign returns the reference for a structural path, minting a new one on
// first sight. The fingerprint is refreshed on every assignment so a
// re-snapshot tracks in-place content changes.
func (t *RefTable) Assign(path, fingerprint string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ref, ok := t.byPath[path]; ok {
		t.byRef[ref] = refEntry{path: path, fingerprint: fingerprint}
		return ref
	}
	ref := fmt.Sprintf("%s%d", entity.RefPrefix, t.next)
	t.next++
	t.byRef[ref] = refEntry{path: path, fingerprint: fingerprint}
	t.byPath[path] = ref
	return ref
}

// Resolve returns the structural path a reference was minted for.
func (t *RefTable) Resolve(ref string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byRef[ref]
	return e.path, ok
}

// lookup returns the full entry for execution-time validation.
func (t *RefTable) lookup(ref string) (refEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byRef[ref]
	return e, ok
}

// Table returns a copy of the current ref → path assignments.
func (t *RefTable) Table() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.byRef))
	for ref, e := range t.byRef {
		out[ref] = e.path
	}
	return out
}

// Invalidate drops every assignment. Called when the document is replaced
// wholesale (navigation, set_content) and on session close.
func (t *RefTable) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byRef = make(map[string]refEntry)
	t.byPath = make(map[string]string)
	t.next = 1
}
