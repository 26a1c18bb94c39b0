package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tomasreimers/sapling/internal/stack"
)

// CreateCommit writes a new commit object: the parent's tree with the
// given file changes applied, plus metadata. Returns the content hash.
// The commit is not referenced by anything; making it reachable (refs,
// checkout) is the caller's concern.
func (r *Repository) CreateCommit(fields stack.CommitFields) (string, error) {
	var parentTree *object.Tree
	parentHashes := make([]plumbing.Hash, 0, len(fields.Parents))
	for _, parent := range fields.Parents {
		parentHashes = append(parentHashes, plumbing.NewHash(parent))
	}
	if len(parentHashes) > 0 {
		parentCommit, err := r.repo.CommitObject(parentHashes[0])
		if err != nil {
			return "", fmt.Errorf("parent %s: %w", fields.Parents[0], err)
		}
		parentTree, err = parentCommit.Tree()
		if err != nil {
			return "", err
		}
	}

	items, err := flattenTree(parentTree)
	if err != nil {
		return "", err
	}
	for path, change := range fields.Files {
		if change.Absent {
			delete(items, path)
			continue
		}
		blobHash, err := r.writeBlob(change.Data)
		if err != nil {
			return "", err
		}
		items[path] = treeItem{hash: blobHash, mode: fileModeOf(change.Mode)}
	}

	treeHash, err := r.writeTree(items)
	if err != nil {
		return "", err
	}

	signature := parseSignature(fields.Author, fields.Date)
	commit := &object.Commit{
		Author:       signature,
		Committer:    signature,
		Message:      fields.Text,
		TreeHash:     treeHash,
		ParentHashes: parentHashes,
	}

	obj := r.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return "", err
	}
	hash, err := r.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// Commit returns the metadata of an existing commit
func (r *Repository) Commit(hash string) (*stack.CommitInfo, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}

	parents := make([]string, 0, len(commit.ParentHashes))
	for _, parent := range commit.ParentHashes {
		parents = append(parents, parent.String())
	}

	return &stack.CommitInfo{
		Hash:    commit.Hash.String(),
		Author:  formatSignature(commit.Author),
		Date:    stack.DateOf(commit.Author.When),
		Text:    commit.Message,
		Parents: parents,
	}, nil
}

// ReadFile returns a file's state in a commit, or nil if the path does
// not exist there.
func (r *Repository) ReadFile(hash string, path string) (*stack.FileChange, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	entry, err := tree.FindEntry(path)
	if err != nil {
		// Path not present in this commit
		return nil, nil
	}

	data, err := r.readBlob(entry.Hash)
	if err != nil {
		return nil, err
	}
	return &stack.FileChange{
		Data: data,
		Mode: stackModeOf(entry.Mode),
	}, nil
}

// parseSignature splits "Name <email>" into a go-git signature
func parseSignature(author string, date stack.Date) object.Signature {
	name := strings.TrimSpace(author)
	email := ""
	if open := strings.LastIndex(author, "<"); open >= 0 {
		if end := strings.LastIndex(author, ">"); end > open {
			name = strings.TrimSpace(author[:open])
			email = author[open+1 : end]
		}
	}
	return object.Signature{
		Name:  name,
		Email: email,
		When:  date.Time(),
	}
}

// formatSignature renders a go-git signature as "Name <email>"
func formatSignature(signature object.Signature) string {
	if signature.Email == "" {
		return signature.Name
	}
	return fmt.Sprintf("%s <%s>", signature.Name, signature.Email)
}
