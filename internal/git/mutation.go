package git

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/tomasreimers/sapling/internal/stack"
)

// Mutation edges are stored as JSON blobs referenced from
// refs/mutations/<successor>; explicit hides are refs under
// refs/hidden/<hash> pointing at the hidden commit. Visibility is
// derived from this data, never decided inline.
const (
	mutationRefPrefix = "refs/mutations/"
	hiddenRefPrefix   = "refs/hidden/"
)

// RecordEdge stores a mutation edge under the successor's ref
func (r *Repository) RecordEdge(edge stack.MutationEdge) error {
	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("failed to marshal mutation edge: %w", err)
	}

	blobHash, err := r.writeBlob(data)
	if err != nil {
		return fmt.Errorf("failed to write mutation edge: %w", err)
	}

	refName := plumbing.ReferenceName(mutationRefPrefix + edge.Successor)
	return r.repo.Storer.SetReference(plumbing.NewHashReference(refName, blobHash))
}

// ReadEdge returns the mutation edge recorded for a successor, or nil
// if the commit has none.
func (r *Repository) ReadEdge(successor string) (*stack.MutationEdge, error) {
	refName := plumbing.ReferenceName(mutationRefPrefix + successor)
	ref, err := r.repo.Reference(refName, false)
	if err != nil {
		return nil, nil
	}

	data, err := r.readBlob(ref.Hash())
	if err != nil {
		return nil, err
	}

	var edge stack.MutationEdge
	if err := json.Unmarshal(data, &edge); err != nil {
		return nil, fmt.Errorf("failed to parse mutation edge for %s: %w", successor, err)
	}
	return &edge, nil
}

// Edges returns every recorded mutation edge
func (r *Repository) Edges() ([]stack.MutationEdge, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("failed to get references: %w", err)
	}

	var edges []stack.MutationEdge
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if !strings.HasPrefix(name, mutationRefPrefix) {
			return nil
		}
		edge, err := r.ReadEdge(strings.TrimPrefix(name, mutationRefPrefix))
		if err != nil {
			return err
		}
		if edge != nil {
			edges = append(edges, *edge)
		}
		return nil
	})
	return edges, err
}

// Successors returns the hashes of commits recorded as rewrites of the
// given commit, for provenance display.
func (r *Repository) Successors(hash string) ([]string, error) {
	edges, err := r.Edges()
	if err != nil {
		return nil, err
	}

	var successors []string
	for _, edge := range edges {
		for _, pred := range edge.Predecessors {
			if pred == hash {
				successors = append(successors, edge.Successor)
				break
			}
		}
	}
	return successors, nil
}

// Hide marks a commit for exclusion from default history views
func (r *Repository) Hide(hash string) error {
	refName := plumbing.ReferenceName(hiddenRefPrefix + hash)
	return r.repo.Storer.SetReference(plumbing.NewHashReference(refName, plumbing.NewHash(hash)))
}

// IsVisible reports whether a commit is neither explicitly hidden nor
// obsoleted by a recorded successor.
func (r *Repository) IsVisible(hash string) (bool, error) {
	if _, err := r.repo.Reference(plumbing.ReferenceName(hiddenRefPrefix+hash), false); err == nil {
		return false, nil
	}

	edges, err := r.Edges()
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		for _, pred := range edge.Predecessors {
			if pred == hash {
				return false, nil
			}
		}
	}
	return true, nil
}
