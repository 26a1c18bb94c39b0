package stack

import (
	saperrors "github.com/tomasreimers/sapling/internal/errors"
)

// MarkTable is the session-scoped bidirectional map between caller-chosen
// marks (conventionally ":1", ":2", ...) and the content hashes assigned
// when the corresponding commits are created. Marks are append-only and
// never persisted.
type MarkTable struct {
	marks map[string]string
	order []string
}

// NewMarkTable creates an empty mark table
func NewMarkTable() *MarkTable {
	return &MarkTable{marks: make(map[string]string)}
}

// Define binds a mark to a commit hash. Redefining a mark fails with
// ErrDuplicateMark.
func (t *MarkTable) Define(mark string, hash string) error {
	if _, ok := t.marks[mark]; ok {
		return saperrors.NewDuplicateMarkError(mark)
	}
	t.marks[mark] = hash
	t.order = append(t.order, mark)
	return nil
}

// Resolve returns the hash for a mark, or the input itself when it is
// already a content-hash literal. Anything else fails with ErrUnknownMark.
func (t *MarkTable) Resolve(markOrHash string) (string, error) {
	if hash, ok := t.marks[markOrHash]; ok {
		return hash, nil
	}
	if isHash(markOrHash) {
		return markOrHash, nil
	}
	return "", saperrors.NewUnknownMarkError(markOrHash)
}

// ResolveAll resolves a list of marks or hashes, failing on the first one
// that does not resolve.
func (t *MarkTable) ResolveAll(markOrHashes []string) ([]string, error) {
	if len(markOrHashes) == 0 {
		return nil, nil
	}
	hashes := make([]string, 0, len(markOrHashes))
	for _, m := range markOrHashes {
		hash, err := t.Resolve(m)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}

// Len returns the number of defined marks
func (t *MarkTable) Len() int {
	return len(t.marks)
}

// All returns the full mark to hash mapping
func (t *MarkTable) All() map[string]string {
	out := make(map[string]string, len(t.marks))
	for mark, hash := range t.marks {
		out[mark] = hash
	}
	return out
}

// isHash reports whether s looks like a 40-character hex content hash
func isHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
