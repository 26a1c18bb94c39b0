package stack

import (
	"context"
	"fmt"

	"github.com/tomasreimers/sapling/internal/output"
)

// DefaultAuthor is used for commits when neither the action nor the
// repository configuration supplies one.
const DefaultAuthor = "sapling <sapling@localhost>"

// ImporterOptions tunes an import session
type ImporterOptions struct {
	// DefaultAuthor is applied to commit actions without an author.
	DefaultAuthor string

	// Clock supplies the date for commits and mutation records without
	// an explicit one. Defaults to Now.
	Clock func() Date

	Splog *output.Splog
}

// Importer interprets an ordered action list into commits, mutation
// records, and working-copy state. One Importer runs one session;
// repository-level serialization is the caller's responsibility.
type Importer struct {
	store     CommitStore
	mutations MutationStore
	wc        WorkingCopy
	opts      ImporterOptions
}

// NewImporter creates an importer over the given collaborators
func NewImporter(store CommitStore, mutations MutationStore, wc WorkingCopy, opts ImporterOptions) *Importer {
	if opts.DefaultAuthor == "" {
		opts.DefaultAuthor = DefaultAuthor
	}
	if opts.Clock == nil {
		opts.Clock = Now
	}
	if opts.Splog == nil {
		opts.Splog = output.NewSplog()
	}
	return &Importer{store: store, mutations: mutations, wc: wc, opts: opts}
}

// session carries the mutable state of one import run
type session struct {
	marks    *MarkTable
	recorder *Recorder

	// cursor is the current working-copy parent threaded through the
	// action list; consumed when the first commit action omits parents.
	cursor          string
	firstCommitSeen bool

	// staged effects, applied only after every action succeeds
	hides          []string
	checkoutTarget string
	wcParent       string
	wcMoved        bool
}

// Run processes the action list. On success it returns the complete
// mark to content-hash table; on failure nothing recorded by the session
// becomes visible (objects written along the way stay unreachable).
func (im *Importer) Run(ctx context.Context, actions []Action) (map[string]string, error) {
	parent, err := im.wc.Parent()
	if err != nil {
		return nil, err
	}

	s := &session{
		marks:    NewMarkTable(),
		recorder: NewRecorder(),
		cursor:   parent,
	}

	for i := range actions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := im.process(s, &actions[i]); err != nil {
			return nil, err
		}
	}

	if err := im.apply(s); err != nil {
		return nil, err
	}
	return s.marks.All(), nil
}

func (im *Importer) process(s *session, action *Action) error {
	im.opts.Splog.Debug("processing action: %s", action.Name)
	switch action.Name {
	case ActionCommit:
		return im.processCommit(s, action.Commit)
	case ActionGoto:
		target, err := s.marks.Resolve(action.Goto.Mark)
		if err != nil {
			return err
		}
		s.checkoutTarget = target
		s.wcParent = target
		s.wcMoved = true
		s.cursor = target
		return nil
	case ActionReset:
		target, err := s.marks.Resolve(action.Reset.Mark)
		if err != nil {
			return err
		}
		s.wcParent = target
		s.wcMoved = true
		s.cursor = target
		return nil
	case ActionHide:
		hashes, err := s.marks.ResolveAll(action.Hide.Marks)
		if err != nil {
			return err
		}
		s.hides = append(s.hides, hashes...)
		return nil
	default:
		return action.Unsupported()
	}
}

func (im *Importer) processCommit(s *session, action *CommitAction) error {
	parents, err := im.resolveParents(s, action)
	if err != nil {
		return err
	}
	predecessors, err := s.marks.ResolveAll(action.Predecessors)
	if err != nil {
		return err
	}
	files, err := DecodeFiles(action.Files)
	if err != nil {
		return err
	}
	if err := im.checkCopySources(parents, files); err != nil {
		return err
	}

	fields := CommitFields{
		Author:  action.Author,
		Text:    action.Text,
		Parents: parents,
		Files:   files,
	}
	if fields.Author == "" {
		fields.Author = im.opts.DefaultAuthor
	}
	if action.Date != nil {
		fields.Date = *action.Date
	} else {
		fields.Date = im.opts.Clock()
	}

	hash, err := im.store.CreateCommit(fields)
	if err != nil {
		return fmt.Errorf("failed to create commit for mark %s: %w", action.Mark, err)
	}
	if err := s.marks.Define(action.Mark, hash); err != nil {
		return err
	}

	s.recorder.Record(hash, predecessors, ParseOperation(action.Operation), fields.Author, fields.Date)
	return nil
}

// resolveParents applies the implicit-parent rule: a commit action
// without a parents field inherits the working-copy cursor if it is the
// first commit of the session, and is a root otherwise.
func (im *Importer) resolveParents(s *session, action *CommitAction) ([]string, error) {
	implicit := action.Parents == nil
	first := !s.firstCommitSeen
	s.firstCommitSeen = true

	if implicit {
		if first && s.cursor != "" {
			return []string{s.cursor}, nil
		}
		return nil, nil
	}
	return s.marks.ResolveAll(*action.Parents)
}

// checkCopySources verifies each declared copy source exists in the
// first parent.
func (im *Importer) checkCopySources(parents []string, files map[string]*FileChange) error {
	for path, change := range files {
		if change.Absent || change.CopyFrom == "" {
			continue
		}
		if len(parents) == 0 {
			return fmt.Errorf("copy source %s for %s: commit has no parents", change.CopyFrom, path)
		}
		source, err := im.store.ReadFile(parents[0], change.CopyFrom)
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("copy source %s for %s does not exist in parent", change.CopyFrom, path)
		}
	}
	return nil
}

// apply commits the session's staged effects: mutation edges first, then
// hides, then the working-copy move.
func (im *Importer) apply(s *session) error {
	for _, edge := range s.recorder.Finalize() {
		im.opts.Splog.Debug("recording mutation: %s is %s", short(edge.Successor), edge.Provenance())
		if err := im.mutations.RecordEdge(edge); err != nil {
			return err
		}
	}
	for _, hash := range s.hides {
		if err := im.mutations.Hide(hash); err != nil {
			return err
		}
	}
	if s.checkoutTarget != "" {
		if err := im.wc.Checkout(s.checkoutTarget); err != nil {
			return err
		}
	}
	if s.wcMoved && s.wcParent != s.checkoutTarget {
		if err := im.wc.SetParent(s.wcParent); err != nil {
			return err
		}
	}
	return nil
}
