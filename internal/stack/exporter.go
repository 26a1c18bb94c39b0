package stack

import (
	"context"

	"github.com/tomasreimers/sapling/internal/config"
	saperrors "github.com/tomasreimers/sapling/internal/errors"
)

// ExportOptions tunes an export session
type ExportOptions struct {
	// IncludeWorkingCopy appends the working copy as a final synthetic
	// entry with the sentinel node.
	IncludeWorkingCopy bool

	// Limits bound the export payload. Zero values are unlimited.
	Limits config.ExportLimits
}

// Exporter walks a requested commit range and emits a self-contained
// stack description.
type Exporter struct {
	store CommitStore
	wc    WorkingCopy
	imm   ImmutableChecker
	opts  ExportOptions
}

// NewExporter creates an exporter over the given collaborators
func NewExporter(store CommitStore, wc WorkingCopy, imm ImmutableChecker, opts ExportOptions) *Exporter {
	return &Exporter{store: store, wc: wc, imm: imm, opts: opts}
}

// exportBudget tracks the running resource totals of one export
type exportBudget struct {
	limits config.ExportLimits
	files  int64
	bytes  int64
}

func (b *exportBudget) addEntry(entry *FileEntry) error {
	b.files++
	if b.limits.MaxFiles > 0 && b.files > b.limits.MaxFiles {
		return saperrors.NewExportLimitError(saperrors.ErrTooManyFiles, b.limits.MaxFiles)
	}
	if entry != nil {
		if entry.Data != nil {
			b.bytes += int64(len(*entry.Data))
		}
		if entry.DataBase85 != nil {
			b.bytes += int64(len(*entry.DataBase85))
		}
	}
	if b.limits.MaxBytes > 0 && b.bytes > b.limits.MaxBytes {
		return saperrors.NewExportLimitError(saperrors.ErrTooMuchData, b.limits.MaxBytes)
	}
	return nil
}

func (b *exportBudget) addFiles(files map[string]*FileEntry) error {
	for _, entry := range files {
		if err := b.addEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

// Export emits the requested commits, oldest first, preceded by one
// boundary entry supplying parent context (unless the first commit is a
// root). Each entry's relevantFiles are derived from its successor's
// diff, which makes the walk range-wide rather than per-commit: diffs are
// computed in a first pass and relevant files in a second.
func (ex *Exporter) Export(ctx context.Context, hashes []string) ([]*StackEntry, error) {
	if ex.opts.Limits.MaxCommits > 0 && int64(len(hashes)) > ex.opts.Limits.MaxCommits {
		return nil, saperrors.NewExportLimitError(saperrors.ErrTooManyCommits, ex.opts.Limits.MaxCommits)
	}

	budget := &exportBudget{limits: ex.opts.Limits}
	entries := make([]*StackEntry, 0, len(hashes)+2)

	// First pass: metadata and diffs for every requested commit.
	for _, hash := range hashes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := ex.exportCommit(hash)
		if err != nil {
			return nil, err
		}
		if err := budget.addFiles(entry.Files); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if ex.opts.IncludeWorkingCopy {
		entry, err := ex.exportWorkingCopy()
		if err != nil {
			return nil, err
		}
		if err := budget.addFiles(entry.Files); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	boundary, err := ex.exportBoundary(hashes)
	if err != nil {
		return nil, err
	}
	if boundary != nil {
		entries = append([]*StackEntry{boundary}, entries...)
	}

	// Second pass: each entry's relevant files come from the file set of
	// its immediate successor in the sequence. Nothing follows the last
	// entry, so it carries none.
	for i := 0; i+1 < len(entries); i++ {
		relevant, err := RelevantFiles(ex.store, entries[i].Node, entries[i+1].Files)
		if err != nil {
			return nil, err
		}
		if err := budget.addFiles(relevant); err != nil {
			return nil, err
		}
		entries[i].RelevantFiles = relevant
	}

	return entries, nil
}

// exportCommit builds a requested entry: full metadata plus the diff
// against the first parent (or the empty tree for roots).
func (ex *Exporter) exportCommit(hash string) (*StackEntry, error) {
	info, err := ex.store.Commit(hash)
	if err != nil {
		return nil, err
	}
	parent := ""
	if len(info.Parents) > 0 {
		parent = info.Parents[0]
	}
	diff, err := ex.store.Diff(parent, hash)
	if err != nil {
		return nil, err
	}
	immutable, err := ex.imm.IsImmutable(hash)
	if err != nil {
		return nil, err
	}
	date := info.Date
	return &StackEntry{
		Node:      info.Hash,
		Author:    info.Author,
		Date:      &date,
		Text:      info.Text,
		Parents:   info.Parents,
		Immutable: immutable,
		Requested: true,
		Files:     EncodeFiles(diff),
	}, nil
}

// exportBoundary builds the context entry for the first requested
// commit's parent, or nil when the range starts at a root.
func (ex *Exporter) exportBoundary(hashes []string) (*StackEntry, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	info, err := ex.store.Commit(hashes[0])
	if err != nil {
		return nil, err
	}
	if len(info.Parents) == 0 {
		return nil, nil
	}
	boundary := info.Parents[0]
	immutable, err := ex.imm.IsImmutable(boundary)
	if err != nil {
		return nil, err
	}
	return &StackEntry{
		Node:      boundary,
		Immutable: immutable,
		Requested: false,
	}, nil
}

// exportWorkingCopy builds the synthetic final entry: sentinel node,
// empty text, pending diff against the working-copy parent.
func (ex *Exporter) exportWorkingCopy() (*StackEntry, error) {
	parent, err := ex.wc.Parent()
	if err != nil {
		return nil, err
	}
	pending, err := ex.wc.PendingChanges()
	if err != nil {
		return nil, err
	}
	entry := &StackEntry{
		Node:      WorkingCopyNode,
		Requested: true,
		Files:     EncodeFiles(pending),
	}
	if parent != "" {
		entry.Parents = []string{parent}
	}
	return entry, nil
}
