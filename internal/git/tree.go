package git

import (
	"io"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tomasreimers/sapling/internal/stack"
)

// treeItem is one blob in a flattened tree: full path to hash and mode
type treeItem struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// flattenTree reads every file entry of a tree into a path-keyed map
func flattenTree(tree *object.Tree) (map[string]treeItem, error) {
	items := make(map[string]treeItem)
	if tree == nil {
		return items, nil
	}
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if entry.Mode == filemode.Dir {
			continue
		}
		items[name] = treeItem{hash: entry.Hash, mode: entry.Mode}
	}
	return items, nil
}

// fileModeOf maps a stack FileMode to the git tree entry mode
func fileModeOf(mode stack.FileMode) filemode.FileMode {
	switch mode {
	case stack.ModeExecutable:
		return filemode.Executable
	case stack.ModeSymlink:
		return filemode.Symlink
	default:
		return filemode.Regular
	}
}

// stackModeOf maps a git tree entry mode to the stack FileMode
func stackModeOf(mode filemode.FileMode) stack.FileMode {
	switch mode {
	case filemode.Executable:
		return stack.ModeExecutable
	case filemode.Symlink:
		return stack.ModeSymlink
	default:
		return stack.ModeNormal
	}
}

// writeTree builds nested tree objects from a flat path-keyed map and
// returns the root tree hash.
func (r *Repository) writeTree(items map[string]treeItem) (plumbing.Hash, error) {
	type node struct {
		files map[string]treeItem
		dirs  map[string]*node
	}
	newNode := func() *node {
		return &node{files: make(map[string]treeItem), dirs: make(map[string]*node)}
	}

	root := newNode()
	for path, item := range items {
		current := root
		segments := strings.Split(path, "/")
		for _, dir := range segments[:len(segments)-1] {
			child, ok := current.dirs[dir]
			if !ok {
				child = newNode()
				current.dirs[dir] = child
			}
			current = child
		}
		current.files[segments[len(segments)-1]] = item
	}

	var write func(n *node) (plumbing.Hash, error)
	write = func(n *node) (plumbing.Hash, error) {
		entries := make([]object.TreeEntry, 0, len(n.files)+len(n.dirs))
		for name, item := range n.files {
			entries = append(entries, object.TreeEntry{Name: name, Mode: item.mode, Hash: item.hash})
		}
		for name, child := range n.dirs {
			hash, err := write(child)
			if err != nil {
				return plumbing.ZeroHash, err
			}
			entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
		}

		// Canonical git tree order: byte-wise, with directory names
		// compared as if they had a trailing slash.
		sort.Slice(entries, func(i, j int) bool {
			return treeEntrySortKey(entries[i]) < treeEntrySortKey(entries[j])
		})

		tree := &object.Tree{Entries: entries}
		obj := r.repo.Storer.NewEncodedObject()
		if err := tree.Encode(obj); err != nil {
			return plumbing.ZeroHash, err
		}
		return r.repo.Storer.SetEncodedObject(obj)
	}

	return write(root)
}

func treeEntrySortKey(entry object.TreeEntry) string {
	if entry.Mode == filemode.Dir {
		return entry.Name + "/"
	}
	return entry.Name
}
