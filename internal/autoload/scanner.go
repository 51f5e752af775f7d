// SPDX-License-Identifier: MPL-2.0

package autoload

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Cookie marks the next form, or the rest of its line, for extraction.
const Cookie = ";;;###autoload"

const (
	interactiveNever interactivity = iota
	interactiveAlways
	interactiveDetect
)

type (
	interactivity int

	// definer describes where a defining macro keeps its docstring and
	// whether the defined function is a command.
	definer struct {
		docIndex    int
		interactive interactivity
		macro       bool
		usage       bool
	}
)

var definers = map[string]definer{
	"defun":                        {docIndex: 3, interactive: interactiveDetect, usage: true},
	"defun*":                       {docIndex: 3, interactive: interactiveDetect, usage: true},
	"cl-defun":                     {docIndex: 3, interactive: interactiveDetect, usage: true},
	"defsubst":                     {docIndex: 3, interactive: interactiveDetect, usage: true},
	"cl-defsubst":                  {docIndex: 3, interactive: interactiveDetect, usage: true},
	"define-inline":                {docIndex: 3, interactive: interactiveNever, usage: true},
	"defmacro":                     {docIndex: 3, interactive: interactiveNever, macro: true, usage: true},
	"defmacro*":                    {docIndex: 3, interactive: interactiveNever, macro: true, usage: true},
	"cl-defmacro":                  {docIndex: 3, interactive: interactiveNever, macro: true, usage: true},
	"transient-define-prefix":      {docIndex: 3, interactive: interactiveAlways, usage: true},
	"transient-define-suffix":      {docIndex: 3, interactive: interactiveAlways, usage: true},
	"define-minor-mode":            {docIndex: 2, interactive: interactiveAlways},
	"define-globalized-minor-mode": {docIndex: 2, interactive: interactiveAlways},
	"define-global-minor-mode":     {docIndex: 2, interactive: interactiveAlways},
	"easy-mmode-define-minor-mode": {docIndex: 2, interactive: interactiveAlways},
	"define-skeleton":              {docIndex: 2, interactive: interactiveAlways},
	"define-derived-mode":          {docIndex: 4, interactive: interactiveAlways},
	"define-generic-mode":          {docIndex: 7, interactive: interactiveAlways},
	"define-compilation-mode":      {docIndex: 3, interactive: interactiveAlways},
}

// Scan reads the file at path and returns its autoload forms in source
// order. lib is the library name the stubs load, relative to the
// directory of the autoloads file and without extension.
func Scan(path, lib string) ([]string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ScanSource(path, src, lib)
}

// ScanSource is Scan on in-memory source; file is used for errors.
func ScanSource(file string, src []byte, lib string) ([]string, error) {
	r := &reader{src: src, file: file}
	var forms []string

	for r.pos < len(src) {
		lineEnd := bytes.IndexByte(src[r.pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(src)
		} else {
			lineEnd += r.pos
		}
		line := src[r.pos:lineEnd]

		rest, isCookie := bytes.CutPrefix(line, []byte(Cookie))
		if !isCookie || (len(rest) > 0 && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\r') {
			r.pos = lineEnd + 1
			continue
		}

		if inline := strings.TrimSpace(string(rest)); inline != "" {
			forms = append(forms, inline)
			r.pos = lineEnd + 1
			continue
		}

		cookieAt := r.pos
		r.pos = lineEnd
		n, err := r.read()
		if err != nil {
			return nil, err
		}
		if n == nil {
			return nil, r.errorAt(cookieAt, "autoload cookie at end of file")
		}
		forms = append(forms, r.makeAutoload(n, lib))
	}
	return forms, nil
}

// makeAutoload turns a marked form into its autoload text.
func (r *reader) makeAutoload(n *node, lib string) string {
	head := r.head(n)
	if head == "defcustom" {
		return r.customAutoload(n, lib)
	}

	def, ok := definers[head]
	if !ok || len(n.children) < 2 {
		return r.text(n)
	}
	name := r.symbol(unquote(n.children[1]))
	if name == "" {
		return r.text(n)
	}

	doc := "nil"
	hasDoc := len(n.children) > def.docIndex && n.children[def.docIndex].kind == nodeString
	if hasDoc {
		doc = r.text(n.children[def.docIndex])
	}
	if def.usage {
		usage := r.usage(n.children, def.docIndex)
		if hasDoc {
			doc = doc[:len(doc)-1] + "\n\n" + usage + `"`
		} else {
			doc = `"` + "\n\n" + usage + `"`
		}
	}

	interactive := "nil"
	switch def.interactive {
	case interactiveAlways:
		interactive = "t"
	case interactiveDetect:
		if r.isCommand(n.children, def.docIndex, hasDoc) {
			interactive = "t"
		}
	}

	kind := "nil"
	if def.macro {
		kind = "'macro"
	}

	return fmt.Sprintf("(autoload '%s %s %s %s %s)", name, lispString(lib), doc, interactive, kind)
}

// customAutoload declares a user option without loading its library.
func (r *reader) customAutoload(n *node, lib string) string {
	if len(n.children) < 3 {
		return r.text(n)
	}
	name := r.symbol(n.children[1])
	if name == "" {
		return r.text(n)
	}
	parts := []string{"defvar", name, r.text(n.children[2])}
	if len(n.children) > 3 && n.children[3].kind == nodeString {
		parts = append(parts, r.text(n.children[3]))
	}
	return fmt.Sprintf("(%s)\n(custom-autoload '%s %s nil)", strings.Join(parts, " "), name, lispString(lib))
}

// usage renders the "(fn ARG...)" signature appended to docstrings. The
// argument list is the child right before the docstring slot.
func (r *reader) usage(children []*node, docIndex int) string {
	argIndex := docIndex - 1
	if argIndex >= len(children) || children[argIndex].kind != nodeList {
		return "(fn)"
	}
	var sb strings.Builder
	sb.WriteString("(fn")
	for _, arg := range children[argIndex].children {
		sb.WriteByte(' ')
		sb.WriteString(r.upcaseArgs(arg))
	}
	sb.WriteByte(')')
	return sb.String()
}

func (r *reader) upcaseArgs(n *node) string {
	switch n.kind {
	case nodeAtom:
		s := r.text(n)
		if strings.HasPrefix(s, "&") {
			return s
		}
		return strings.ToUpper(s)
	case nodeList:
		parts := make([]string, 0, len(n.children))
		for _, c := range n.children {
			parts = append(parts, r.upcaseArgs(c))
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return r.text(n)
	}
}

// isCommand reports whether the body of a defun-like form starts with an
// interactive spec, after the docstring and declare forms.
func (r *reader) isCommand(children []*node, docIndex int, hasDoc bool) bool {
	i := docIndex
	if hasDoc {
		i++
	}
	for ; i < len(children); i++ {
		switch r.head(children[i]) {
		case "declare":
			continue
		case "interactive":
			return true
		default:
			return false
		}
	}
	return false
}

func unquote(n *node) *node {
	if n.kind == nodeQuoted && len(n.children) == 1 {
		return n.children[0]
	}
	return n
}

func lispString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
