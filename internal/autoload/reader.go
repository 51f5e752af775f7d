// SPDX-License-Identifier: MPL-2.0

package autoload

import (
	"bytes"
	"fmt"
)

const (
	nodeAtom nodeKind = iota
	nodeString
	nodeList
	nodeVector
	nodeQuoted
)

type (
	nodeKind int

	// node is one datum read from source. start and end delimit its text,
	// including any quote prefix.
	node struct {
		kind     nodeKind
		start    int
		end      int
		children []*node
	}

	// reader is a minimal Emacs Lisp reader. It only recognizes enough
	// syntax to find datum boundaries; atoms are never interpreted.
	reader struct {
		src  []byte
		pos  int
		file string
	}

	// ScanError reports malformed source at a line of a file.
	ScanError struct {
		File string
		Line int
		Msg  string
	}
)

// Error implements the error interface.
func (e *ScanError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (r *reader) errorAt(offset int, format string, args ...any) *ScanError {
	return &ScanError{
		File: r.file,
		Line: bytes.Count(r.src[:min(offset, len(r.src))], []byte{'\n'}) + 1,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// skipBlank moves past whitespace and comments.
func (r *reader) skipBlank() {
	for r.pos < len(r.src) {
		switch c := r.src[r.pos]; {
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			r.pos++
		default:
			return
		}
	}
}

// read returns the next datum, or nil at end of input.
func (r *reader) read() (*node, error) {
	r.skipBlank()
	if r.pos >= len(r.src) {
		return nil, nil
	}

	start := r.pos
	switch c := r.src[r.pos]; c {
	case '(':
		return r.readSeq(start, ')', nodeList)
	case '[':
		return r.readSeq(start, ']', nodeVector)
	case ')', ']':
		return nil, r.errorAt(start, "unexpected %q", c)
	case '"':
		return r.readString(start)
	case '\'', '`':
		r.pos++
		return r.readQuoted(start)
	case ',':
		r.pos++
		if r.pos < len(r.src) && r.src[r.pos] == '@' {
			r.pos++
		}
		return r.readQuoted(start)
	case '#':
		if r.pos+1 < len(r.src) && r.src[r.pos+1] == '\'' {
			r.pos += 2
			return r.readQuoted(start)
		}
	}
	return r.readAtom(start)
}

func (r *reader) readSeq(start int, closer byte, kind nodeKind) (*node, error) {
	r.pos++
	n := &node{kind: kind, start: start}
	for {
		r.skipBlank()
		if r.pos >= len(r.src) {
			return nil, r.errorAt(start, "unbalanced %q: end of file inside form", r.src[start])
		}
		if c := r.src[r.pos]; c == ')' || c == ']' {
			if c != closer {
				return nil, r.errorAt(r.pos, "mismatched %q closing %q", c, r.src[start])
			}
			r.pos++
			n.end = r.pos
			return n, nil
		}
		child, err := r.read()
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
}

func (r *reader) readString(start int) (*node, error) {
	r.pos++
	for r.pos < len(r.src) {
		switch r.src[r.pos] {
		case '\\':
			r.pos += 2
		case '"':
			r.pos++
			return &node{kind: nodeString, start: start, end: r.pos}, nil
		default:
			r.pos++
		}
	}
	return nil, r.errorAt(start, "unterminated string")
}

func (r *reader) readQuoted(start int) (*node, error) {
	inner, err := r.read()
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, r.errorAt(start, "quote at end of file")
	}
	return &node{kind: nodeQuoted, start: start, end: inner.end, children: []*node{inner}}, nil
}

// readAtom consumes a symbol, number or character literal. A character
// literal may contain delimiters (?\( or ?"), so the character after ?
// or a backslash is always taken verbatim.
func (r *reader) readAtom(start int) (*node, error) {
	if r.src[r.pos] == '?' {
		r.pos++
		if r.pos < len(r.src) && r.src[r.pos] == '\\' {
			r.pos++
		}
		r.pos++
	}
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '\\' {
			r.pos += 2
			continue
		}
		if isDelimiter(c) {
			break
		}
		r.pos++
	}
	if r.pos == start {
		// Never return an empty atom.
		r.pos++
	}
	return &node{kind: nodeAtom, start: start, end: min(r.pos, len(r.src))}, nil
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '(', ')', '[', ']', '"', ';', '\'', '`', ',':
		return true
	}
	return false
}

func (r *reader) text(n *node) string {
	return string(r.src[n.start:n.end])
}

// symbol returns the text of n when it is an atom, else "".
func (r *reader) symbol(n *node) string {
	if n == nil || n.kind != nodeAtom {
		return ""
	}
	return r.text(n)
}

// head returns the first element symbol of a list node.
func (r *reader) head(n *node) string {
	if n.kind != nodeList || len(n.children) == 0 {
		return ""
	}
	return r.symbol(n.children[0])
}
