package stack

import (
	"fmt"
	"strings"
)

// Operation tags the kind of history rewrite a mutation edge records
type Operation int

const (
	// OpRewrite is the default single-predecessor rewrite with no
	// operation tag on the wire
	OpRewrite Operation = iota
	// OpAmend is an explicit amend
	OpAmend
	// OpFold combines multiple predecessors into one successor
	OpFold
	// OpSplit divides one predecessor across several successors
	OpSplit
)

// ParseOperation maps a wire operation tag to an Operation. Unrecognized
// tags behave like the default rewrite.
func ParseOperation(tag string) Operation {
	switch tag {
	case "amend":
		return OpAmend
	case "fold":
		return OpFold
	case "split":
		return OpSplit
	default:
		return OpRewrite
	}
}

func (op Operation) String() string {
	switch op {
	case OpAmend:
		return "amend"
	case OpFold:
		return "fold"
	case OpSplit:
		return "split"
	default:
		return "rewrite"
	}
}

// MutationEdge declares that the predecessor commits were rewritten into
// the successor. For split, SplitInto lists the sibling successors
// created earlier in the chain; only the chain's final successor carries
// the edge.
type MutationEdge struct {
	Predecessors []string `json:"predecessors"`
	Successor    string   `json:"successor"`
	Operation    string   `json:"operation"`
	SplitInto    []string `json:"splitInto,omitempty"`
	User         string   `json:"user"`
	Date         Date     `json:"date"`
}

// Provenance returns the human-readable rewrite description the
// successor commit should report.
func (e MutationEdge) Provenance() string {
	switch ParseOperation(e.Operation) {
	case OpFold:
		return fmt.Sprintf("folded from %s", strings.Join(shortAll(e.Predecessors), ", "))
	case OpSplit:
		if len(e.SplitInto) > 0 {
			return fmt.Sprintf("split from %s into %s",
				short(e.Predecessors[0]), strings.Join(shortAll(e.SplitInto), ", "))
		}
		return fmt.Sprintf("split from %s", short(e.Predecessors[0]))
	case OpAmend:
		return fmt.Sprintf("amended from %s", short(e.Predecessors[0]))
	default:
		return fmt.Sprintf("rewritten from %s", short(e.Predecessors[0]))
	}
}

// splitSuccessor is one link of a pending split chain
type splitSuccessor struct {
	hash string
	user string
	date Date
}

// Recorder accumulates mutation intents during an import session. Split
// chains can only be resolved once the whole action list has been seen,
// so nothing is emitted until Finalize.
type Recorder struct {
	edges []MutationEdge

	// split chains keyed by predecessor, in first-seen order
	splitOrder []string
	splits     map[string][]splitSuccessor
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{splits: make(map[string][]splitSuccessor)}
}

// Record registers a rewrite of predecessors into successor. A commit
// with no predecessors is a fresh root and records nothing.
func (r *Recorder) Record(successor string, predecessors []string, op Operation, user string, date Date) {
	if len(predecessors) == 0 {
		return
	}
	if op == OpSplit && len(predecessors) == 1 {
		pred := predecessors[0]
		if _, ok := r.splits[pred]; !ok {
			r.splitOrder = append(r.splitOrder, pred)
		}
		r.splits[pred] = append(r.splits[pred], splitSuccessor{hash: successor, user: user, date: date})
		return
	}
	r.edges = append(r.edges, MutationEdge{
		Predecessors: predecessors,
		Successor:    successor,
		Operation:    op.String(),
		User:         user,
		Date:         date,
	})
}

// Finalize resolves pending split chains and returns every edge to
// record. For each chain only the last-declared successor carries the
// edge, annotated with its earlier siblings; those siblings are plain new
// commits with no record of their own.
func (r *Recorder) Finalize() []MutationEdge {
	edges := r.edges
	for _, pred := range r.splitOrder {
		chain := r.splits[pred]
		last := chain[len(chain)-1]
		siblings := make([]string, 0, len(chain)-1)
		for _, s := range chain[:len(chain)-1] {
			siblings = append(siblings, s.hash)
		}
		edges = append(edges, MutationEdge{
			Predecessors: []string{pred},
			Successor:    last.hash,
			Operation:    OpSplit.String(),
			SplitInto:    siblings,
			User:         last.user,
			Date:         last.date,
		})
	}
	return edges
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func shortAll(hashes []string) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = short(h)
	}
	return out
}
