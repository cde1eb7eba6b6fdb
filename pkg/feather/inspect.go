package feather

import (
	"bytes"
	"context"
	"fmt"
	"sort"
)

// Inspection describes what a compiled template references. It has no
// effect on rendering.
type Inspection struct {
	// Variables holds every name read by lookups, sections, inverted
	// sections and conditionals.
	Variables []string
	// Partials holds the names of partial tags; the layout slot is omitted.
	Partials []string
	// Sections holds the names of repeating sections.
	Sections []string
	// Slots holds the top-level names in positional order, i.e. the order
	// a list passed as vars must follow.
	Slots []string

	prog *program
}

// Inspect compiles t if needed and reports what it references.
func (t *Template) Inspect() (*Inspection, error) {
	prog, err := t.program(context.Background())
	if err != nil {
		return nil, err
	}
	vars, partials, sections := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	for _, st := range prog.steps {
		switch st.op {
		case opLookup, opInverted, opCond:
			vars[st.text] = struct{}{}
		case opSection:
			vars[st.text] = struct{}{}
			sections[st.text] = struct{}{}
		case opPartial:
			if st.text != LayoutSlot {
				partials[st.text] = struct{}{}
			}
		}
	}
	return &Inspection{
		Variables: sortedKeys(vars),
		Partials:  sortedKeys(partials),
		Sections:  sortedKeys(sections),
		Slots:     append([]string(nil), prog.slots...),
		prog:      prog,
	}, nil
}

// Dump returns a line-oriented listing of the compiled program, indented by
// block depth.
func (i *Inspection) Dump() string {
	var buf bytes.Buffer
	depth := 0
	for n, st := range i.prog.steps {
		switch st.op {
		case opEndSection, opEndInverted, opEndCond:
			depth--
		}
		fmt.Fprintf(&buf, "%04d ", n)
		for j := 0; j < depth; j++ {
			buf.WriteString("  ")
		}
		switch st.op {
		case opText:
			fmt.Fprintf(&buf, "text %q", st.text)
		case opLookup:
			fmt.Fprintf(&buf, "lookup %s %s slot=%d", st.esc, st.text, st.index)
		case opSection, opInverted:
			fmt.Fprintf(&buf, "%s %s slot=%d end=%d", st.op, st.text, st.index, st.end)
		case opCond:
			test := "truthy"
			if st.negate {
				test = "falsy"
			}
			fmt.Fprintf(&buf, "cond %s %s end=%d", test, st.text, st.end)
		case opPartial:
			fmt.Fprintf(&buf, "partial %q", st.text)
		default:
			fmt.Fprintf(&buf, "%s %s", st.op, st.text)
		}
		buf.WriteByte('\n')
		switch st.op {
		case opSection, opInverted, opCond:
			depth++
		}
	}
	return buf.String()
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
