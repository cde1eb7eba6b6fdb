package feather

import "sync/atomic"

// opcode identifies one step of a compiled program.
type opcode uint8

const (
	opText opcode = iota
	opLookup
	opSection
	opEndSection
	opInverted
	opEndInverted
	opCond
	opEndCond
	opPartial
)

func (op opcode) String() string {
	switch op {
	case opText:
		return "text"
	case opLookup:
		return "lookup"
	case opSection:
		return "section"
	case opEndSection:
		return "end-section"
	case opInverted:
		return "inverted"
	case opEndInverted:
		return "end-inverted"
	case opCond:
		return "cond"
	case opEndCond:
		return "end-cond"
	case opPartial:
		return "partial"
	}
	return "unknown"
}

// step is a single instruction. Block openers record the index of their
// matching close step in end; bodies run over steps (open, end).
type step struct {
	op     opcode
	text   string // literal text, variable name or partial name
	index  int    // positional slot for lookup, section and inverted steps
	esc    escaper
	negate bool
	end    int
	pos    int
}

// program is the immutable result of compiling one template. It is safe
// to execute from several goroutines at once.
type program struct {
	name  string
	steps []step
	slots []string // top-level names in positional order

	active atomic.Int32 // executions in flight, across all callers
}
