package stack

import (
	"sort"
	"unicode/utf8"

	saperrors "github.com/tomasreimers/sapling/internal/errors"
)

// DecodeFileEntry converts a wire file entry to a FileChange. A nil entry
// is a deletion. An entry with neither data form is malformed.
func DecodeFileEntry(path string, entry *FileEntry) (*FileChange, error) {
	if entry == nil {
		return &FileChange{Absent: true}, nil
	}
	if entry.Data != nil && entry.DataBase85 != nil {
		return nil, saperrors.NewMalformedFileEntryError(path)
	}

	change := &FileChange{
		Mode:     ParseFileMode(entry.Flags),
		CopyFrom: entry.CopyFrom,
	}
	switch {
	case entry.Data != nil:
		change.Data = []byte(*entry.Data)
	case entry.DataBase85 != nil:
		data, err := DecodeBase85(*entry.DataBase85)
		if err != nil {
			return nil, saperrors.NewMalformedFileEntryError(path)
		}
		change.Data = data
	default:
		return nil, saperrors.NewMalformedFileEntryError(path)
	}
	return change, nil
}

// DecodeFiles converts a whole wire files map to FileChanges
func DecodeFiles(files map[string]*FileEntry) (map[string]*FileChange, error) {
	changes := make(map[string]*FileChange, len(files))
	for path, entry := range files {
		change, err := DecodeFileEntry(path, entry)
		if err != nil {
			return nil, err
		}
		changes[path] = change
	}
	return changes, nil
}

// EncodeFileChange converts a FileChange to its wire form. Deletions
// encode as nil. Content that is not valid UTF-8 goes out base85-encoded.
func EncodeFileChange(change *FileChange) *FileEntry {
	if change == nil || change.Absent {
		return nil
	}
	entry := &FileEntry{
		CopyFrom: change.CopyFrom,
		Flags:    change.Mode.Flags(),
	}
	if utf8.Valid(change.Data) {
		text := string(change.Data)
		entry.Data = &text
	} else {
		encoded := EncodeBase85(change.Data)
		entry.DataBase85 = &encoded
	}
	return entry
}

// EncodeFiles converts a FileChange map to its wire form
func EncodeFiles(changes map[string]*FileChange) map[string]*FileEntry {
	if changes == nil {
		return nil
	}
	files := make(map[string]*FileEntry, len(changes))
	for path, change := range changes {
		files[path] = EncodeFileChange(change)
	}
	return files
}

// RelevantPaths returns the paths whose state in the preceding commit the
// recipient needs in order to interpret the given diff without repository
// access: every path the diff touches plus every copy source it names.
func RelevantPaths(diff map[string]*FileEntry) []string {
	seen := make(map[string]struct{}, len(diff))
	for path, entry := range diff {
		seen[path] = struct{}{}
		if entry != nil && entry.CopyFrom != "" {
			seen[entry.CopyFrom] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// RelevantFiles builds the relevant-files map for a commit given its
// successor's diff. Files absent from the commit are recorded as explicit
// nil entries so the recipient never needs to consult the repository.
func RelevantFiles(store CommitStore, hash string, successorDiff map[string]*FileEntry) (map[string]*FileEntry, error) {
	paths := RelevantPaths(successorDiff)
	if len(paths) == 0 {
		return nil, nil
	}
	relevant := make(map[string]*FileEntry, len(paths))
	for _, path := range paths {
		change, err := store.ReadFile(hash, path)
		if err != nil {
			return nil, err
		}
		if change == nil {
			relevant[path] = nil
			continue
		}
		relevant[path] = EncodeFileChange(change)
	}
	return relevant, nil
}
