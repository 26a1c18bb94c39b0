package stack

import (
	"encoding/json"
	"fmt"
	"time"
)

// WorkingCopyNode is the sentinel identity used for the working copy when
// it is exported as a virtual commit. It never appears in real history.
const WorkingCopyNode = "ffffffffffffffffffffffffffffffffffffffff"

// Date is a commit timestamp: seconds since the epoch plus a UTC offset
// in seconds. The wire form is a two-element JSON array [seconds, offset].
type Date struct {
	Seconds int64
	Offset  int
}

// Now returns the current time as a Date with the local UTC offset.
func Now() Date {
	now := time.Now()
	_, offset := now.Zone()
	return Date{Seconds: now.Unix(), Offset: offset}
}

// Time converts the date to a time.Time in its fixed zone.
func (d Date) Time() time.Time {
	return time.Unix(d.Seconds, 0).In(time.FixedZone("", d.Offset))
}

// DateOf converts a time.Time to a Date, preserving the zone offset.
func DateOf(t time.Time) Date {
	_, offset := t.Zone()
	return Date{Seconds: t.Unix(), Offset: offset}
}

// MarshalJSON encodes the date as [seconds, offset]
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{d.Seconds, int64(d.Offset)})
}

// UnmarshalJSON decodes [seconds, offset]; seconds may arrive as a float
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw [2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	d.Seconds = int64(raw[0])
	d.Offset = int(raw[1])
	return nil
}

// FileMode describes how a file entry should be materialized
type FileMode int

const (
	// ModeNormal is a regular, non-executable file
	ModeNormal FileMode = iota
	// ModeExecutable is a regular file with the executable bit set
	ModeExecutable
	// ModeSymlink is a symbolic link whose content is the link target
	ModeSymlink
)

// Flags returns the wire representation of the mode ("", "x" or "l")
func (m FileMode) Flags() string {
	switch m {
	case ModeExecutable:
		return "x"
	case ModeSymlink:
		return "l"
	default:
		return ""
	}
}

// ParseFileMode converts wire flags to a FileMode
func ParseFileMode(flags string) FileMode {
	switch flags {
	case "x":
		return ModeExecutable
	case "l":
		return ModeSymlink
	default:
		return ModeNormal
	}
}

// FileChange is one file's changed state within a commit: either new
// content (with mode and optional copy source) or a deletion.
type FileChange struct {
	// Absent marks a deletion; all other fields are ignored when set.
	Absent bool

	Data     []byte
	Mode     FileMode
	CopyFrom string
}

// CommitInfo is the metadata of an existing commit
type CommitInfo struct {
	Hash    string
	Author  string
	Date    Date
	Text    string
	Parents []string
}

// CommitFields describes a commit to be created
type CommitFields struct {
	Author  string
	Date    Date
	Text    string
	Parents []string
	Files   map[string]*FileChange
}

// CommitStore provides access to the repository's commit and object
// storage. Implemented by the git package.
type CommitStore interface {
	// CreateCommit writes a new commit and returns its content hash.
	CreateCommit(fields CommitFields) (string, error)

	// Commit returns the metadata of an existing commit.
	Commit(hash string) (*CommitInfo, error)

	// ReadFile returns a file's state in a commit, or nil if the path
	// does not exist there.
	ReadFile(hash string, path string) (*FileChange, error)

	// Diff returns the file-level changes from parent to commit, with
	// copy/rename sources taken from the repository's native detection.
	// An empty parent hash diffs against the empty tree.
	Diff(parent string, commit string) (map[string]*FileChange, error)
}

// MutationStore records obsolescence edges and visibility changes.
// Visibility itself is resolved externally from the recorded data.
type MutationStore interface {
	RecordEdge(edge MutationEdge) error
	Hide(hash string) error
	IsVisible(hash string) (bool, error)
}

// WorkingCopy provides access to the checked-out state layered on top of
// the last real commit.
type WorkingCopy interface {
	// Parent returns the current working-copy parent, or "" if the
	// repository has no commits yet.
	Parent() (string, error)

	// Checkout materializes the given commit, discarding pending changes.
	Checkout(hash string) error

	// SetParent moves the working-copy parent without touching the
	// checked-out files.
	SetParent(hash string) error

	// PendingChanges returns the uncommitted diff against the parent.
	PendingChanges() (map[string]*FileChange, error)
}

// ImmutableChecker reports whether a commit is part of permanent history
// (as opposed to a still-rewritable draft).
type ImmutableChecker interface {
	IsImmutable(hash string) (bool, error)
}
