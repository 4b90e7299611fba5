package internal

import "fmt"

// Kind distinguishes the fatal error categories a command can report,
// mirroring the error kinds a reimplementation of the toolkit is
// expected to surface at its command boundary.
type Kind int

const (
	// CapacityExceeded: the hash table is full, or the advertised graph
	// cannot fit in the memory budget computed at allocation time.
	CapacityExceeded Kind = iota
	// FormatError: a malformed graph or link file.
	FormatError
	// IoError: a read/write failure.
	IoError
	// InvalidInput: CLI argument validation, unknown bases in strict
	// mode, mismatched kmer sizes between a graph and a link file.
	InvalidInput
)

func (k Kind) String() string {
	switch k {
	case CapacityExceeded:
		return "CapacityExceeded"
	case FormatError:
		return "FormatError"
	case IoError:
		return "IoError"
	case InvalidInput:
		return "InvalidInput"
	default:
		return "UnknownError"
	}
}

// Error is a fatal error tagged with one of the Kind values above. All
// of these kinds are fatal per command: the top-level command recovers
// none of them, it reports, cleans up partial outputs, and exits
// non-zero.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap tags err with kind, or returns nil if err is nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a Kind-tagged error from a format string, analogous to
// fmt.Errorf.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WalkReason distinguishes the non-fatal termination reasons of the
// traversal engine (spec: WalkTerminated is normal, not fatal; callers
// locally recover it to continue scanning).
type WalkReason int

const (
	// DeadEnd: no active link cursor endorses any available successor
	// base.
	DeadEnd WalkReason = iota
	// Ambiguous: more than one successor base survives link
	// restriction.
	Ambiguous
	// Cycle: the walk revisited a node still held in the cycle guard's
	// ring buffer.
	Cycle
	// LinkExhausted: every active link cursor ran out of junctions
	// before the walk reached a dead end, ambiguity, or cycle.
	LinkExhausted
)

func (r WalkReason) String() string {
	switch r {
	case DeadEnd:
		return "dead end"
	case Ambiguous:
		return "ambiguous"
	case Cycle:
		return "cycle"
	case LinkExhausted:
		return "link exhausted"
	default:
		return "unknown"
	}
}

// WalkTerminated is the normal, non-fatal signal a traversal ends
// with. It is not one of the fatal Kind values: the traversal engine
// returns it as a plain error value that its caller is expected to
// type-assert and recover from.
type WalkTerminated struct {
	Reason WalkReason
}

func (w *WalkTerminated) Error() string {
	return fmt.Sprintf("walk terminated: %v", w.Reason)
}
