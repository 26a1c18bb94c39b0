package git

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/tomasreimers/sapling/internal/stack"
)

// Parent returns the working-copy parent commit, or "" when the
// repository has no commits yet.
func (r *Repository) Parent() (string, error) {
	head, err := r.repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}

// Checkout materializes a commit into the worktree, discarding any
// pending changes. HEAD is left detached at the commit.
func (r *Repository) Checkout(hash string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	return worktree.Checkout(&gogit.CheckoutOptions{
		Hash:  plumbing.NewHash(hash),
		Force: true,
	})
}

// SetParent moves HEAD to a commit without touching the checked-out
// files; pending changes become relative to the new parent.
func (r *Repository) SetParent(hash string) error {
	return r.repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, plumbing.NewHash(hash)))
}

// PendingChanges returns the uncommitted diff of the worktree against
// the working-copy parent. Copy detection does not apply to pending
// state; entries carry content and mode only.
func (r *Repository) PendingChanges() (map[string]*stack.FileChange, error) {
	parent, err := r.Parent()
	if err != nil {
		return nil, err
	}

	parentFiles := make(map[string]*stack.FileChange)
	if parent != "" {
		commit, err := r.repo.CommitObject(plumbing.NewHash(parent))
		if err != nil {
			return nil, err
		}
		tree, err := commit.Tree()
		if err != nil {
			return nil, err
		}
		items, err := flattenTree(tree)
		if err != nil {
			return nil, err
		}
		for name, item := range items {
			data, err := r.readBlob(item.hash)
			if err != nil {
				return nil, err
			}
			parentFiles[name] = &stack.FileChange{Data: data, Mode: stackModeOf(item.mode)}
		}
	}

	worktreeFiles, err := r.worktreeFiles()
	if err != nil {
		return nil, err
	}

	pending := make(map[string]*stack.FileChange)
	for name, file := range worktreeFiles {
		base, ok := parentFiles[name]
		if !ok || base.Mode != file.Mode || !bytes.Equal(base.Data, file.Data) {
			pending[name] = file
		}
	}
	for name := range parentFiles {
		if _, ok := worktreeFiles[name]; !ok {
			pending[name] = &stack.FileChange{Absent: true}
		}
	}
	return pending, nil
}

// worktreeFiles reads every file under the worktree root, excluding the
// .git directory.
func (r *Repository) worktreeFiles() (map[string]*stack.FileChange, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, err
	}
	fs := worktree.Filesystem

	files := make(map[string]*stack.FileChange)
	var walk func(dir string) error
	walk = func(dir string) error {
		infos, err := fs.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, info := range infos {
			name := info.Name()
			if dir != "." {
				name = path.Join(dir, info.Name())
			}
			if name == ".git" {
				continue
			}
			if info.IsDir() {
				if err := walk(name); err != nil {
					return err
				}
				continue
			}

			change := &stack.FileChange{Mode: stack.ModeNormal}
			switch {
			case info.Mode()&os.ModeSymlink != 0:
				target, err := fs.Readlink(name)
				if err != nil {
					return fmt.Errorf("failed to read symlink %s: %w", name, err)
				}
				change.Mode = stack.ModeSymlink
				change.Data = []byte(target)
			default:
				file, err := fs.Open(name)
				if err != nil {
					return err
				}
				data, err := io.ReadAll(file)
				file.Close()
				if err != nil {
					return err
				}
				change.Data = data
				if info.Mode()&0o100 != 0 {
					change.Mode = stack.ModeExecutable
				}
			}
			files[name] = change
		}
		return nil
	}
	if err := walk("."); err != nil {
		return nil, err
	}
	return files, nil
}
