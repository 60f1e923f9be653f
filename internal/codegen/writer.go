package codegen

import (
	"fmt"
	"strings"
)

// writer accumulates generated text with indentation.
type writer struct {
	out    strings.Builder
	indent int
	unit   string
}

func newWriter(unit string) *writer {
	return &writer{unit: unit}
}

// writeLine writes one indented line.
func (w *writer) writeLine(format string, args ...any) {
	for range w.indent {
		w.out.WriteString(w.unit)
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

// blank writes an empty line.
func (w *writer) blank() {
	w.out.WriteByte('\n')
}

func (w *writer) pushIndent() {
	w.indent++
}

func (w *writer) popIndent() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *writer) bytes() []byte {
	return []byte(w.out.String())
}
