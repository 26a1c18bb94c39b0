package git

import (
	"fmt"
	"io"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps an open go-git repository together with its worktree
// root. It is the concrete implementation behind the stack package's
// collaborator interfaces.
type Repository struct {
	repo *gogit.Repository
	root string
}

// Open opens the repository containing dir, searching parent directories
// for the .git directory the way the git CLI does.
func Open(dir string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	return &Repository{
		repo: repo,
		root: worktree.Filesystem.Root(),
	}, nil
}

// Root returns the worktree root directory
func (r *Repository) Root() string {
	return r.root
}

// Resolve turns a revision expression (hash, ref name, HEAD) into a
// full content hash.
func (r *Repository) Resolve(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rev, err)
	}
	return hash.String(), nil
}

// DefaultAuthor returns "Name <email>" from the repository's git
// configuration, or "" when no user is configured.
func (r *Repository) DefaultAuthor() string {
	cfg, err := r.repo.ConfigScoped(gitcfg.SystemScope)
	if err != nil || cfg.User.Name == "" {
		return ""
	}
	if cfg.User.Email == "" {
		return cfg.User.Name
	}
	return fmt.Sprintf("%s <%s>", cfg.User.Name, cfg.User.Email)
}

// writeBlob stores raw content in the object database and returns its hash
func (r *Repository) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, err
	}
	if err := writer.Close(); err != nil {
		return plumbing.ZeroHash, err
	}

	return r.repo.Storer.SetEncodedObject(obj)
}

// readBlob returns the raw content of a blob object
func (r *Repository) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return nil, err
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
