package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomasreimers/sapling/internal/git"
	"github.com/tomasreimers/sapling/internal/stack"
	"github.com/tomasreimers/sapling/testhelpers"
)

func openRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()
	repo, err := git.Open(dir)
	require.NoError(t, err)
	return repo
}

func importDoc(t *testing.T, repo *git.Repository, doc string) map[string]string {
	t.Helper()
	actions, err := stack.ParseActions([]byte(doc))
	require.NoError(t, err)
	marks, err := stack.NewImporter(repo, repo, repo, stack.ImporterOptions{}).Run(context.Background(), actions)
	require.NoError(t, err)
	return marks
}

// TestRoundTrip imports a stack with text, binary, executable and symlink
// content into one repository, exports it, and replays the export into a
// clone holding only the base commit. Commit creation is deterministic, so
// a faithful round trip reproduces the exact same content hashes.
func TestRoundTrip(t *testing.T) {
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	repo := openRepo(t, scene.Dir)

	base, err := scene.Repo.Rev("HEAD")
	require.NoError(t, err)

	// Clone now, before the import, so the clone holds nothing beyond the
	// base commit and the replay below has to recreate everything.
	cloneDir := t.TempDir()
	cloneHelper, err := testhelpers.CloneGitRepo(scene.Dir, cloneDir)
	require.NoError(t, err)

	blobV1 := stack.EncodeBase85([]byte{0x00, 0x01, 0xff, 0xfe, 0x7f})
	blobV2 := stack.EncodeBase85([]byte{0xca, 0xfe, 0xba, 0xbe})

	marks := importDoc(t, repo, fmt.Sprintf(`[
		["commit", {"mark": ":1", "text": "add tooling", "author": "alice <a@example.com>", "date": [1700000000, 0],
			"parents": ["%s"], "files": {
				"tools/build.sh": {"data": "#!/bin/sh\nmake\n", "flags": "x"},
				"docs/guide.md": {"data": "guide\n"},
				"blob.bin": {"dataBase85": "%s"},
				"link": {"data": "docs/guide.md", "flags": "l"}}}],
		["commit", {"mark": ":2", "text": "rename guide", "author": "alice <a@example.com>", "date": [1700000100, 0],
			"parents": [":1"], "files": {
				"docs/manual.md": {"data": "guide\n", "copyFrom": "docs/guide.md"},
				"docs/guide.md": null,
				"blob.bin": {"dataBase85": "%s"}}}],
		["goto", {"mark": ":2"}]
	]`, base, blobV1, blobV2))
	require.Len(t, marks, 2)

	head, err := scene.Repo.Rev("HEAD")
	require.NoError(t, err)
	require.Equal(t, marks[":2"], head)

	exporter := stack.NewExporter(repo, repo, repo.TrunkChecker("main"), stack.ExportOptions{})
	entries, err := exporter.Export(context.Background(), []string{marks[":1"], marks[":2"]})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	boundary := entries[0]
	require.Equal(t, base, boundary.Node)
	require.False(t, boundary.Requested)
	require.True(t, boundary.Immutable)
	require.Empty(t, boundary.Files)

	first := entries[1]
	require.Equal(t, marks[":1"], first.Node)
	require.True(t, first.Requested)
	require.False(t, first.Immutable)
	require.Equal(t, []string{base}, first.Parents)
	require.Equal(t, "add tooling", first.Text)
	require.Equal(t, "x", first.Files["tools/build.sh"].Flags)
	require.Equal(t, "l", first.Files["link"].Flags)
	require.Equal(t, blobV1, *first.Files["blob.bin"].DataBase85)

	// The rename surfaces as a copy on the new path plus a deletion of
	// the old one.
	second := entries[2]
	require.Equal(t, marks[":2"], second.Node)
	require.Equal(t, "docs/guide.md", second.Files["docs/manual.md"].CopyFrom)
	require.Nil(t, second.Files["docs/guide.md"])

	// The middle entry carries the pre-images its successor's diff touches.
	require.Equal(t, "guide\n", *first.RelevantFiles["docs/guide.md"].Data)
	require.Equal(t, blobV1, *first.RelevantFiles["blob.bin"].DataBase85)
	require.Contains(t, first.RelevantFiles, "docs/manual.md")
	require.Nil(t, first.RelevantFiles["docs/manual.md"])

	// Replay the exported entries into the clone. Author, date, message
	// and content all round-trip, so the replayed commits must come out
	// with identical hashes.
	clone := openRepo(t, cloneDir)

	var replay []stack.Action
	for i, entry := range entries {
		if !entry.Requested {
			continue
		}
		parents := entry.Parents
		replay = append(replay, stack.Action{
			Name: stack.ActionCommit,
			Commit: &stack.CommitAction{
				Mark:    fmt.Sprintf(":%d", i),
				Text:    entry.Text,
				Author:  entry.Author,
				Date:    entry.Date,
				Parents: &parents,
				Files:   entry.Files,
			},
		})
	}
	replayed, err := stack.NewImporter(clone, clone, clone, stack.ImporterOptions{}).Run(context.Background(), replay)
	require.NoError(t, err)
	require.Equal(t, marks[":1"], replayed[":1"])
	require.Equal(t, marks[":2"], replayed[":2"])

	manual, err := cloneHelper.ReadFileAt(replayed[":2"], "docs/manual.md")
	require.NoError(t, err)
	require.Equal(t, "guide", manual)

	tree, err := cloneHelper.RunGitCommandAndGetOutput("ls-tree", "-r", replayed[":2"])
	require.NoError(t, err)
	require.Contains(t, tree, "100755 blob")
	require.Contains(t, tree, "120000 blob")
	require.NotContains(t, tree, "docs/guide.md")
}

// TestWorkingCopyExport checks the synthetic working-copy entry against a
// real repository with uncommitted changes.
func TestWorkingCopyExport(t *testing.T) {
	scene := testhelpers.NewScene(t, testhelpers.BasicSceneSetup)
	repo := openRepo(t, scene.Dir)

	base, err := scene.Repo.Rev("HEAD")
	require.NoError(t, err)

	require.NoError(t, scene.Repo.WriteFile("notes.txt", "draft\n"))
	require.NoError(t, scene.Repo.WriteFile("README.md", "test repo\nmore\n"))

	exporter := stack.NewExporter(repo, repo, repo.TrunkChecker("main"), stack.ExportOptions{
		IncludeWorkingCopy: true,
	})
	entries, err := exporter.Export(context.Background(), []string{base})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	wc := entries[1]
	require.Equal(t, stack.WorkingCopyNode, wc.Node)
	require.True(t, wc.Requested)
	require.Equal(t, []string{base}, wc.Parents)
	require.Equal(t, "draft\n", *wc.Files["notes.txt"].Data)
	require.Equal(t, "test repo\nmore\n", *wc.Files["README.md"].Data)
}
