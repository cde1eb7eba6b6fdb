package feather

// frameKind is the kind of an open block during compilation.
type frameKind int

const (
	frameBase frameKind = iota
	frameSection
	frameInverted
	frameCond
)

func (k frameKind) String() string {
	switch k {
	case frameBase:
		return "base"
	case frameSection:
		return "section"
	case frameInverted:
		return "inverted section"
	case frameCond:
		return "conditional"
	}
	return "unknown"
}

// frame is an entry of the compiler's block stack. Sections own a fresh
// indexer; inverted sections and conditionals share the enclosing one.
type frame struct {
	kind frameKind
	name string
	vars *indexer
	open int // index of the opening step
	pos  int
}

type compiler struct {
	name  string
	src   string
	mode  EscapeMode
	stack []*frame
	steps []step
}

// compile turns template source into an executable program.
func compile(name, src string, mode EscapeMode) (*program, error) {
	c := &compiler{
		name:  name,
		src:   src,
		mode:  mode,
		stack: []*frame{{kind: frameBase, vars: newIndexer()}},
	}
	for _, tok := range tokenize(src) {
		if tok.kind == tokText {
			c.emit(step{op: opText, text: tok.val, pos: tok.pos})
			continue
		}
		if err := c.tag(tok); err != nil {
			return nil, err
		}
	}
	if len(c.stack) != 1 {
		open := c.stack[1]
		return nil, newParseError(c.name, c.src, open.pos, "unclosed %s %q", open.kind, open.name)
	}
	return &program{name: name, steps: c.steps, slots: c.stack[0].vars.Names()}, nil
}

func (c *compiler) top() *frame { return c.stack[len(c.stack)-1] }

func (c *compiler) emit(s step) int {
	c.steps = append(c.steps, s)
	return len(c.steps) - 1
}

func (c *compiler) tag(tok token) error {
	if tok.name == "" && tok.sigil != "/" && tok.sigil != "*" {
		return newParseError(c.name, c.src, tok.pos, "tag {{%s}} requires a name", tok.val)
	}
	switch tok.sigil {
	case "":
		c.lookup(tok, c.mode.escaper())
	case "=":
		c.lookup(tok, escRaw)
	case "&":
		c.lookup(tok, escMarkup)
	case "%":
		c.lookup(tok, escURI)
	case "$":
		c.lookup(tok, escScript)
	case ".":
		c.lookup(tok, escStyle)
	case ":", "#":
		idx := c.top().vars.indexFor(tok.name)
		c.open(frameSection, tok, newIndexer(), step{op: opSection, text: tok.name, index: idx})
	case "^":
		vars := c.top().vars
		idx := vars.indexFor(tok.name)
		c.open(frameInverted, tok, vars, step{op: opInverted, text: tok.name, index: idx})
	case "?", "?!":
		c.open(frameCond, tok, c.top().vars, step{op: opCond, text: tok.name, negate: tok.sigil == "?!"})
	case "*":
		c.emit(step{op: opPartial, text: tok.name, pos: tok.pos})
	case "/":
		return c.close(tok)
	}
	return nil
}

func (c *compiler) lookup(tok token, esc escaper) {
	idx := c.top().vars.indexFor(tok.name)
	c.emit(step{op: opLookup, text: tok.name, index: idx, esc: esc, pos: tok.pos})
}

func (c *compiler) open(kind frameKind, tok token, vars *indexer, s step) {
	s.pos = tok.pos
	at := c.emit(s)
	c.stack = append(c.stack, &frame{kind: kind, name: tok.name, vars: vars, open: at, pos: tok.pos})
}

func (c *compiler) close(tok token) error {
	if len(c.stack) == 1 {
		return newParseError(c.name, c.src, tok.pos, "unexpected closing tag %q with no open block", tok.name)
	}
	f := c.top()
	if f.kind == frameSection && tok.name != "" && tok.name != f.name {
		return newParseError(c.name, c.src, tok.pos, "closing tag %q does not match open section %q", tok.name, f.name)
	}
	c.stack = c.stack[:len(c.stack)-1]

	var op opcode
	switch f.kind {
	case frameSection:
		op = opEndSection
	case frameInverted:
		op = opEndInverted
	default:
		op = opEndCond
	}
	end := c.emit(step{op: op, text: f.name, pos: tok.pos})
	c.steps[f.open].end = end
	return nil
}
