// Package git provides low-level repository operations backed by go-git.
//
// It implements the collaborator interfaces the stack package consumes:
//   - Commit/object storage (create commits, read files, tree diffs)
//   - Mutation and visibility records (JSON blobs under custom refs)
//   - Working-copy state (checkout, parent moves, pending changes)
//
// This package should be the only place where the repository's object
// database and refs are touched directly.
package git
