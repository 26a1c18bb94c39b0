package git

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/tomasreimers/sapling/internal/stack"
)

// Diff returns the file-level changes from parent to commit as
// FileChanges. Renames are taken from go-git's detection and surface as
// a copyFrom on the new path plus a deletion of the old one. An empty
// parent hash diffs against the empty tree.
func (r *Repository) Diff(parent string, commit string) (map[string]*stack.FileChange, error) {
	toCommit, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", commit, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, err
	}

	var fromTree *object.Tree
	if parent != "" {
		fromCommit, err := r.repo.CommitObject(plumbing.NewHash(parent))
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", parent, err)
		}
		fromTree, err = fromCommit.Tree()
		if err != nil {
			return nil, err
		}
	}

	changes, err := object.DiffTreeWithOptions(context.Background(), fromTree, toTree, &object.DiffTreeOptions{
		DetectRenames: true,
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]*stack.FileChange, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, err
		}
		switch action {
		case merkletrie.Delete:
			result[change.From.Name] = &stack.FileChange{Absent: true}
		case merkletrie.Insert:
			fc, err := r.changeContent(change.To)
			if err != nil {
				return nil, err
			}
			result[change.To.Name] = fc
		case merkletrie.Modify:
			fc, err := r.changeContent(change.To)
			if err != nil {
				return nil, err
			}
			if change.From.Name != change.To.Name {
				// Detected rename: record the source and delete it
				fc.CopyFrom = change.From.Name
				result[change.From.Name] = &stack.FileChange{Absent: true}
			}
			result[change.To.Name] = fc
		}
	}
	return result, nil
}

// changeContent loads the post-image blob of a change entry
func (r *Repository) changeContent(entry object.ChangeEntry) (*stack.FileChange, error) {
	data, err := r.readBlob(entry.TreeEntry.Hash)
	if err != nil {
		return nil, err
	}
	return &stack.FileChange{
		Data: data,
		Mode: stackModeOf(entry.TreeEntry.Mode),
	}, nil
}
