package git

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// TrunkChecker decides whether a commit belongs to permanent history:
// anything reachable from the trunk branch is immutable, everything else
// is a rewritable draft.
type TrunkChecker struct {
	repo  *Repository
	trunk string
}

// TrunkChecker creates a checker against the named trunk branch
func (r *Repository) TrunkChecker(trunk string) *TrunkChecker {
	return &TrunkChecker{repo: r, trunk: trunk}
}

// IsImmutable reports whether the commit is an ancestor of (or equal to)
// the trunk head. A missing trunk branch makes everything mutable.
func (c *TrunkChecker) IsImmutable(hash string) (bool, error) {
	ref, err := c.repo.repo.Reference(plumbing.NewBranchReferenceName(c.trunk), true)
	if err != nil {
		return false, nil
	}
	if ref.Hash().String() == hash {
		return true, nil
	}

	commit, err := c.repo.repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return false, err
	}
	trunkHead, err := c.repo.repo.CommitObject(ref.Hash())
	if err != nil {
		return false, err
	}
	return commit.IsAncestor(trunkHead)
}
