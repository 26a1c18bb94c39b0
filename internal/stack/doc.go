// Package stack implements the bidirectional interchange between JSON
// stack descriptions and the repository commit graph.
//
// It is the core of sapling, responsible for:
//   - Interpreting ordered action lists (commit, goto, reset, hide) into
//     real commits, mutation records, and working-copy state
//   - Exporting a commit range as a self-contained JSON stack that can be
//     replayed without further repository access
//   - Tracking the mapping between caller-supplied marks and the content
//     hashes assigned at commit creation
//
// The package does not touch the repository directly. It consumes the
// CommitStore, MutationStore, and WorkingCopy interfaces, implemented by
// the git package.
package stack
