package feather

import "strings"

// The lexer splits template source into literal text runs and {{ }} tags.
// Inside literal text a run of three or more identical braces loses one
// brace, so "{{{" emits "{{" without opening a tag.

type tokenKind int

const (
	tokText tokenKind = iota
	tokTag
)

type token struct {
	kind  tokenKind
	val   string // literal text, or the trimmed tag body
	sigil string
	name  string
	pos   int // byte offset in source
}

// sigils lists the single-byte tag sigils; "?!" is handled separately.
const sigils = "&%$.:#^?*/="

type lexer struct {
	src  string
	i    int
	n    int
	text strings.Builder
	at   int // start offset of the pending text run
	toks []token
}

func tokenize(src string) []token {
	l := &lexer{src: src, n: len(src)}
	l.run()
	return l.toks
}

func (l *lexer) run() {
	for l.i < l.n {
		c := l.src[l.i]
		if c != '{' && c != '}' {
			j := strings.IndexAny(l.src[l.i:], "{}")
			if j < 0 {
				j = l.n - l.i
			}
			l.appendText(l.src[l.i : l.i+j])
			l.i += j
			continue
		}
		run := l.braceRun(c)
		if c == '{' && run == 2 && l.tag() {
			continue
		}
		if run >= 3 {
			l.appendText(strings.Repeat(string(c), run-1))
		} else {
			l.appendText(l.src[l.i : l.i+run])
		}
		l.i += run
	}
	l.flush()
}

// braceRun counts consecutive c bytes starting at the cursor.
func (l *lexer) braceRun(c byte) int {
	j := l.i
	for j < l.n && l.src[j] == c {
		j++
	}
	return j - l.i
}

// tag consumes a tag opening at the cursor. An opener with no closing
// delimiter is left for the caller to emit as text.
func (l *lexer) tag() bool {
	end := strings.Index(l.src[l.i+2:], "}}")
	if end < 0 {
		return false
	}
	l.flush()
	body := strings.TrimSpace(l.src[l.i+2 : l.i+2+end])
	sigil, name := splitTag(body)
	l.toks = append(l.toks, token{kind: tokTag, val: body, sigil: sigil, name: name, pos: l.i})
	l.i += 2 + end + 2
	return true
}

func (l *lexer) appendText(s string) {
	if l.text.Len() == 0 {
		l.at = l.i
	}
	l.text.WriteString(s)
}

func (l *lexer) flush() {
	if l.text.Len() == 0 {
		return
	}
	l.toks = append(l.toks, token{kind: tokText, val: l.text.String(), pos: l.at})
	l.text.Reset()
}

// splitTag separates the optional sigil from the tag name.
func splitTag(body string) (sigil, name string) {
	if strings.HasPrefix(body, "?!") {
		return "?!", strings.TrimSpace(body[2:])
	}
	if body != "" && strings.IndexByte(sigils, body[0]) >= 0 {
		return body[:1], strings.TrimSpace(body[1:])
	}
	return "", body
}
