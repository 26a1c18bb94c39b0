package stack

import (
	"encoding/json"
	"fmt"

	saperrors "github.com/tomasreimers/sapling/internal/errors"
)

// Action tags accepted by the importer
const (
	ActionCommit = "commit"
	ActionGoto   = "goto"
	ActionReset  = "reset"
	ActionHide   = "hide"
)

// FileEntry is the wire form of a single file's state. A nil *FileEntry
// in a files map means the file is deleted. Data and DataBase85 are
// mutually exclusive encodings of the content; base85 is used when the
// content cannot round-trip as JSON text.
type FileEntry struct {
	Data       *string `json:"data,omitempty"`
	DataBase85 *string `json:"dataBase85,omitempty"`
	CopyFrom   string  `json:"copyFrom,omitempty"`
	Flags      string  `json:"flags,omitempty"`
}

// CommitAction describes one commit to create
type CommitAction struct {
	Mark         string                `json:"mark"`
	Text         string                `json:"text"`
	Author       string                `json:"author,omitempty"`
	Date         *Date                 `json:"date,omitempty"`
	Parents      *[]string             `json:"parents,omitempty"`
	Predecessors []string              `json:"predecessors,omitempty"`
	Operation    string                `json:"operation,omitempty"`
	Files        map[string]*FileEntry `json:"files"`
}

// GotoAction checks out a commit, discarding pending changes
type GotoAction struct {
	Mark string `json:"mark"`
}

// ResetAction moves the working-copy parent, preserving pending changes
type ResetAction struct {
	Mark string `json:"mark"`
}

// HideAction marks commits for exclusion from default history views
type HideAction struct {
	Marks []string `json:"marks"`
}

// Action is one decoded element of the import action list. Exactly one of
// the payload fields matching Name is set; unrecognized tags keep their
// raw payload for error reporting.
type Action struct {
	Name   string
	Commit *CommitAction
	Goto   *GotoAction
	Reset  *ResetAction
	Hide   *HideAction
	Raw    json.RawMessage
}

// UnmarshalJSON decodes the [name, payload] pair wire form
func (a *Action) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("invalid action: expected [name, object], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return fmt.Errorf("invalid action name: %w", err)
	}
	a.Raw = pair[1]

	switch a.Name {
	case ActionCommit:
		a.Commit = &CommitAction{}
		return json.Unmarshal(pair[1], a.Commit)
	case ActionGoto:
		a.Goto = &GotoAction{}
		return json.Unmarshal(pair[1], a.Goto)
	case ActionReset:
		a.Reset = &ResetAction{}
		return json.Unmarshal(pair[1], a.Reset)
	case ActionHide:
		a.Hide = &HideAction{}
		return json.Unmarshal(pair[1], a.Hide)
	}
	// Unknown tags are rejected by the importer, not the decoder, so the
	// failure surfaces in action order.
	return nil
}

// Unsupported returns the error for an unrecognized action tag
func (a *Action) Unsupported() error {
	return saperrors.NewUnsupportedActionError(a.Name, string(a.Raw))
}

// ParseActions decodes a whole import document
func ParseActions(data []byte) ([]Action, error) {
	var actions []Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// StackEntry is one element of the export output. The first entry of a
// range is boundary context (Requested false, no diff of its own); the
// optional final entry is the working copy with the sentinel node.
type StackEntry struct {
	Node          string                `json:"node"`
	Author        string                `json:"author,omitempty"`
	Date          *Date                 `json:"date,omitempty"`
	Text          string                `json:"text,omitempty"`
	Parents       []string              `json:"parents,omitempty"`
	Immutable     bool                  `json:"immutable"`
	Requested     bool                  `json:"requested"`
	Files         map[string]*FileEntry `json:"files,omitempty"`
	RelevantFiles map[string]*FileEntry `json:"relevantFiles,omitempty"`
}
