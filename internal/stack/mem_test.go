package stack_test

import (
	"bytes"
	"fmt"

	"github.com/tomasreimers/sapling/internal/stack"
)

// memRepo is an in-memory implementation of the stack package's
// collaborator interfaces, with full file snapshots per commit and naive
// exact-content rename detection.
type memRepo struct {
	seq     int
	commits map[string]*memCommit

	edges  []stack.MutationEdge
	hidden map[string]bool

	wcParent  string
	pending   map[string]*stack.FileChange
	checkouts []string
	parentSet []string

	immutable map[string]bool
}

type memCommit struct {
	info  stack.CommitInfo
	files map[string]*stack.FileChange
}

func newMemRepo() *memRepo {
	return &memRepo{
		commits:   make(map[string]*memCommit),
		hidden:    make(map[string]bool),
		pending:   make(map[string]*stack.FileChange),
		immutable: make(map[string]bool),
	}
}

func (m *memRepo) CreateCommit(fields stack.CommitFields) (string, error) {
	m.seq++
	hash := fmt.Sprintf("%040x", m.seq)

	files := make(map[string]*stack.FileChange)
	if len(fields.Parents) > 0 {
		parent, ok := m.commits[fields.Parents[0]]
		if !ok {
			return "", fmt.Errorf("unknown parent %s", fields.Parents[0])
		}
		for path, change := range parent.files {
			files[path] = change
		}
	}
	for path, change := range fields.Files {
		if change.Absent {
			delete(files, path)
			continue
		}
		files[path] = &stack.FileChange{Data: change.Data, Mode: change.Mode}
	}

	m.commits[hash] = &memCommit{
		info: stack.CommitInfo{
			Hash:    hash,
			Author:  fields.Author,
			Date:    fields.Date,
			Text:    fields.Text,
			Parents: fields.Parents,
		},
		files: files,
	}
	return hash, nil
}

func (m *memRepo) Commit(hash string) (*stack.CommitInfo, error) {
	commit, ok := m.commits[hash]
	if !ok {
		return nil, fmt.Errorf("unknown commit %s", hash)
	}
	info := commit.info
	return &info, nil
}

func (m *memRepo) ReadFile(hash string, path string) (*stack.FileChange, error) {
	commit, ok := m.commits[hash]
	if !ok {
		return nil, fmt.Errorf("unknown commit %s", hash)
	}
	change, ok := commit.files[path]
	if !ok {
		return nil, nil
	}
	return &stack.FileChange{Data: change.Data, Mode: change.Mode}, nil
}

func (m *memRepo) Diff(parent string, commit string) (map[string]*stack.FileChange, error) {
	to, ok := m.commits[commit]
	if !ok {
		return nil, fmt.Errorf("unknown commit %s", commit)
	}
	from := map[string]*stack.FileChange{}
	if parent != "" {
		fromCommit, ok := m.commits[parent]
		if !ok {
			return nil, fmt.Errorf("unknown commit %s", parent)
		}
		from = fromCommit.files
	}

	diff := make(map[string]*stack.FileChange)
	var deleted []string
	for path := range from {
		if _, ok := to.files[path]; !ok {
			diff[path] = &stack.FileChange{Absent: true}
			deleted = append(deleted, path)
		}
	}
	for path, change := range to.files {
		base, existed := from[path]
		if existed && base.Mode == change.Mode && bytes.Equal(base.Data, change.Data) {
			continue
		}
		out := &stack.FileChange{Data: change.Data, Mode: change.Mode}
		if !existed {
			// exact-content rename detection
			for _, old := range deleted {
				if bytes.Equal(from[old].Data, change.Data) {
					out.CopyFrom = old
					break
				}
			}
		}
		diff[path] = out
	}
	return diff, nil
}

func (m *memRepo) RecordEdge(edge stack.MutationEdge) error {
	m.edges = append(m.edges, edge)
	return nil
}

func (m *memRepo) Hide(hash string) error {
	m.hidden[hash] = true
	return nil
}

func (m *memRepo) IsVisible(hash string) (bool, error) {
	if m.hidden[hash] {
		return false, nil
	}
	for _, edge := range m.edges {
		for _, pred := range edge.Predecessors {
			if pred == hash {
				return false, nil
			}
		}
	}
	return true, nil
}

func (m *memRepo) Parent() (string, error) {
	return m.wcParent, nil
}

func (m *memRepo) Checkout(hash string) error {
	m.checkouts = append(m.checkouts, hash)
	m.wcParent = hash
	m.pending = make(map[string]*stack.FileChange)
	return nil
}

func (m *memRepo) SetParent(hash string) error {
	m.parentSet = append(m.parentSet, hash)
	m.wcParent = hash
	return nil
}

func (m *memRepo) PendingChanges() (map[string]*stack.FileChange, error) {
	return m.pending, nil
}

func (m *memRepo) IsImmutable(hash string) (bool, error) {
	return m.immutable[hash], nil
}

// edgeFor returns the recorded mutation edge whose successor matches, or nil
func (m *memRepo) edgeFor(successor string) *stack.MutationEdge {
	for i := range m.edges {
		if m.edges[i].Successor == successor {
			return &m.edges[i]
		}
	}
	return nil
}
