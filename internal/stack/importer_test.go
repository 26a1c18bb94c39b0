package stack_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	saperrors "github.com/tomasreimers/sapling/internal/errors"
	"github.com/tomasreimers/sapling/internal/stack"
)

func testImporter(repo *memRepo) *stack.Importer {
	return stack.NewImporter(repo, repo, repo, stack.ImporterOptions{
		DefaultAuthor: "test <test@example.com>",
		Clock:         func() stack.Date { return stack.Date{Seconds: 0, Offset: 0} },
	})
}

func runActions(t *testing.T, repo *memRepo, doc string) (map[string]string, error) {
	t.Helper()
	actions, err := stack.ParseActions([]byte(doc))
	require.NoError(t, err)
	return testImporter(repo).Run(context.Background(), actions)
}

func TestImportCommits(t *testing.T) {
	t.Run("creates a stack and returns the mark table", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {"A": {"data": "1"}}}],
			["commit", {"mark": ":2", "text": "B", "parents": [":1"], "files": {"B": {"data": "2"}}}]
		]`)
		require.NoError(t, err)
		require.Len(t, marks, 2)

		first, err := repo.Commit(marks[":1"])
		require.NoError(t, err)
		require.Empty(t, first.Parents)
		require.Equal(t, "A", first.Text)

		second, err := repo.Commit(marks[":2"])
		require.NoError(t, err)
		require.Equal(t, []string{marks[":1"]}, second.Parents)

		content, err := repo.ReadFile(marks[":2"], "A")
		require.NoError(t, err)
		require.Equal(t, []byte("1"), content.Data)
	})

	t.Run("applies author, date, flags and deletions", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "author": "alice <a@example.com>", "date": [1700000000, -3600],
				"parents": [], "files": {"tool": {"data": "#!/bin/sh", "flags": "x"}, "doomed": {"data": "x"}}}],
			["commit", {"mark": ":2", "text": "B", "parents": [":1"], "files": {"doomed": null}}]
		]`)
		require.NoError(t, err)

		info, err := repo.Commit(marks[":1"])
		require.NoError(t, err)
		require.Equal(t, "alice <a@example.com>", info.Author)
		require.Equal(t, stack.Date{Seconds: 1700000000, Offset: -3600}, info.Date)

		tool, err := repo.ReadFile(marks[":1"], "tool")
		require.NoError(t, err)
		require.Equal(t, stack.ModeExecutable, tool.Mode)

		gone, err := repo.ReadFile(marks[":2"], "doomed")
		require.NoError(t, err)
		require.Nil(t, gone)
	})

	t.Run("first commit without parents inherits the working-copy parent", func(t *testing.T) {
		repo := newMemRepo()
		base, err := repo.CreateCommit(stack.CommitFields{Text: "base"})
		require.NoError(t, err)
		repo.wcParent = base

		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "on top", "files": {}}],
			["commit", {"mark": ":2", "text": "root", "files": {}}]
		]`)
		require.NoError(t, err)

		first, err := repo.Commit(marks[":1"])
		require.NoError(t, err)
		require.Equal(t, []string{base}, first.Parents)

		// Later commits omitting parents are declared roots
		second, err := repo.Commit(marks[":2"])
		require.NoError(t, err)
		require.Empty(t, second.Parents)
	})

	t.Run("rejects duplicate marks", func(t *testing.T) {
		repo := newMemRepo()
		_, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
			["commit", {"mark": ":1", "text": "B", "parents": [], "files": {}}]
		]`)
		require.ErrorIs(t, err, saperrors.ErrDuplicateMark)
	})

	t.Run("rejects malformed file entries", func(t *testing.T) {
		repo := newMemRepo()
		_, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {"f": {"flags": "x"}}}]
		]`)
		require.ErrorIs(t, err, saperrors.ErrMalformedFileEntry)
	})

	t.Run("validates copy sources against the parent", func(t *testing.T) {
		repo := newMemRepo()
		_, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {"a": {"data": "1"}}}],
			["commit", {"mark": ":2", "text": "B", "parents": [":1"],
				"files": {"b": {"data": "1", "copyFrom": "missing"}}}]
		]`)
		require.Error(t, err)
		require.Contains(t, err.Error(), "copy source")

		_, err = runActions(t, repo, `[
			["commit", {"mark": ":3", "text": "A", "parents": [], "files": {"a": {"data": "1"}}}],
			["commit", {"mark": ":4", "text": "B", "parents": [":3"],
				"files": {"b": {"data": "1", "copyFrom": "a"}}}]
		]`)
		require.NoError(t, err)
	})
}

func TestImportMarkResolution(t *testing.T) {
	// An undefined mark fails with the same error no matter which field
	// references it.
	docs := map[string]string{
		"parents":      `[["commit", {"mark": ":1", "text": "A", "parents": [":404"], "files": {}}]]`,
		"predecessors": `[["commit", {"mark": ":1", "text": "A", "parents": [], "predecessors": [":404"], "files": {}}]]`,
		"goto":         `[["goto", {"mark": ":404"}]]`,
		"reset":        `[["reset", {"mark": ":404"}]]`,
		"hide":         `[["hide", {"marks": [":404"]}]]`,
	}
	for field, doc := range docs {
		t.Run(field, func(t *testing.T) {
			repo := newMemRepo()
			_, err := runActions(t, repo, doc)
			require.ErrorIs(t, err, saperrors.ErrUnknownMark)
			require.Empty(t, repo.edges)
			require.Empty(t, repo.checkouts)
			require.Empty(t, repo.hidden)
		})
	}
}

func TestImportMutations(t *testing.T) {
	t.Run("amend obsoletes the predecessor", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {"a": {"data": "1"}}}],
			["commit", {"mark": ":2", "text": "A v2", "parents": [], "predecessors": [":1"],
				"operation": "amend", "files": {"a": {"data": "2"}}}]
		]`)
		require.NoError(t, err)

		edge := repo.edgeFor(marks[":2"])
		require.NotNil(t, edge)
		require.Equal(t, []string{marks[":1"]}, edge.Predecessors)
		require.Equal(t, "amend", edge.Operation)

		visible, err := repo.IsVisible(marks[":1"])
		require.NoError(t, err)
		require.False(t, visible)
	})

	t.Run("fold records one edge listing every predecessor", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
			["commit", {"mark": ":2", "text": "B", "parents": [":1"], "files": {}}],
			["commit", {"mark": ":3", "text": "C", "parents": [":2"], "files": {}}],
			["commit", {"mark": ":4", "text": "ABC", "parents": [], "predecessors": [":1", ":2", ":3"],
				"operation": "fold", "files": {}}]
		]`)
		require.NoError(t, err)
		require.Len(t, repo.edges, 1)

		edge := repo.edgeFor(marks[":4"])
		require.NotNil(t, edge)
		require.Equal(t, []string{marks[":1"], marks[":2"], marks[":3"]}, edge.Predecessors)

		for _, mark := range []string{":1", ":2", ":3"} {
			visible, err := repo.IsVisible(marks[mark])
			require.NoError(t, err)
			require.False(t, visible, "predecessor %s should be obsolete", mark)
		}
	})

	t.Run("split annotates only the final successor", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "big", "parents": [], "files": {}}],
			["commit", {"mark": ":2", "text": "part 1", "parents": [], "predecessors": [":1"],
				"operation": "split", "files": {}}],
			["commit", {"mark": ":3", "text": "part 2", "parents": [":2"], "predecessors": [":1"],
				"operation": "split", "files": {}}],
			["commit", {"mark": ":4", "text": "part 3", "parents": [":3"], "predecessors": [":1"],
				"operation": "split", "files": {}}]
		]`)
		require.NoError(t, err)
		require.Len(t, repo.edges, 1)

		require.Nil(t, repo.edgeFor(marks[":2"]))
		require.Nil(t, repo.edgeFor(marks[":3"]))

		edge := repo.edgeFor(marks[":4"])
		require.NotNil(t, edge)
		require.Equal(t, []string{marks[":1"]}, edge.Predecessors)
		require.Equal(t, []string{marks[":2"], marks[":3"]}, edge.SplitInto)

		visible, err := repo.IsVisible(marks[":1"])
		require.NoError(t, err)
		require.False(t, visible)
	})

	t.Run("fresh roots record no mutation", func(t *testing.T) {
		repo := newMemRepo()
		_, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}]
		]`)
		require.NoError(t, err)
		require.Empty(t, repo.edges)
	})
}

func TestImportWorkingCopy(t *testing.T) {
	t.Run("goto checks out and clears pending state", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {"a": {"data": "1"}}}],
			["goto", {"mark": ":1"}]
		]`)
		require.NoError(t, err)
		require.Equal(t, []string{marks[":1"]}, repo.checkouts)
		require.Equal(t, marks[":1"], repo.wcParent)
	})

	t.Run("reset moves the parent without checkout", func(t *testing.T) {
		repo := newMemRepo()
		repo.pending["dirty"] = &stack.FileChange{Data: []byte("edit")}
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
			["reset", {"mark": ":1"}]
		]`)
		require.NoError(t, err)
		require.Empty(t, repo.checkouts)
		require.Equal(t, []string{marks[":1"]}, repo.parentSet)
		require.Equal(t, marks[":1"], repo.wcParent)

		// Pending edits survive the reset
		pending, err := repo.PendingChanges()
		require.NoError(t, err)
		require.Contains(t, pending, "dirty")
	})

	t.Run("goto followed by reset keeps the checkout but moves the parent", func(t *testing.T) {
		repo := newMemRepo()
		marks, err := runActions(t, repo, `[
			["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
			["commit", {"mark": ":2", "text": "B", "parents": [":1"], "files": {}}],
			["goto", {"mark": ":2"}],
			["reset", {"mark": ":1"}]
		]`)
		require.NoError(t, err)
		require.Equal(t, []string{marks[":2"]}, repo.checkouts)
		require.Equal(t, []string{marks[":1"]}, repo.parentSet)
		require.Equal(t, marks[":1"], repo.wcParent)
	})
}

func TestImportHide(t *testing.T) {
	repo := newMemRepo()
	marks, err := runActions(t, repo, `[
		["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
		["commit", {"mark": ":2", "text": "B", "parents": [], "files": {}}],
		["hide", {"marks": [":1", ":2"]}]
	]`)
	require.NoError(t, err)

	for _, mark := range []string{":1", ":2"} {
		visible, err := repo.IsVisible(marks[mark])
		require.NoError(t, err)
		require.False(t, visible)
	}
}

func TestImportUnsupportedAction(t *testing.T) {
	repo := newMemRepo()
	_, err := runActions(t, repo, `[["foo", {}]]`)
	require.ErrorIs(t, err, saperrors.ErrUnsupportedAction)
	require.Contains(t, err.Error(), "unsupported action: ['foo', {}]")

	// Nothing happened: no commits, no edges, no working-copy moves
	require.Empty(t, repo.commits)
	require.Empty(t, repo.edges)
	require.Empty(t, repo.checkouts)
}

func TestImportAtomicity(t *testing.T) {
	// A failure after valid actions must leave no visible effects.
	repo := newMemRepo()
	_, err := runActions(t, repo, `[
		["commit", {"mark": ":1", "text": "A", "parents": [], "files": {}}],
		["commit", {"mark": ":2", "text": "A v2", "parents": [], "predecessors": [":1"],
			"operation": "amend", "files": {}}],
		["goto", {"mark": ":2"}],
		["bogus", {}]
	]`)
	require.ErrorIs(t, err, saperrors.ErrUnsupportedAction)

	require.Empty(t, repo.edges, "no mutation edge may be recorded")
	require.Empty(t, repo.hidden)
	require.Empty(t, repo.checkouts, "the checkout must not be applied")
	require.Empty(t, repo.parentSet)
}
