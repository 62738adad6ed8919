// Package diag defines the single error category used across the
// translation pipeline. Every fallible step returns an *Error; the
// first one reaches the driver and is reported once.
package diag

import (
	"fmt"
	"strings"

	"sonic/internal/source"
)

type Kind int

const (
	IO Kind = iota
	Syntax
	Semantic
	Internal
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case Internal:
		return "internal"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Near identifies the token an error was detected at.
type Near struct {
	Lexeme string
	Pos    source.Pos
}

type Error struct {
	Kind Kind
	Msg  string
	Near *Near
}

// Error renders the diagnostic in the form the translator has always
// used:
//
//	Error: <message>
//	Source file: '<path>' line <N> column <M>
//	near token '<lexeme>'
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s", e.Msg)
	if e.Near != nil {
		b.WriteString("\n")
		if e.Near.Pos.IsValid() {
			fmt.Fprintf(&b, "Source file: '%s' line %d column %d\n",
				source.Filename(e.Near.Pos.File), e.Near.Pos.Line, e.Near.Pos.Col)
		}
		fmt.Fprintf(&b, "near token '%s'", e.Near.Lexeme)
	}
	return b.String()
}

func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// NearToken attaches a position to an error and returns it.
func (e *Error) NearToken(lexeme string, pos source.Pos) *Error {
	e.Near = &Near{Lexeme: lexeme, Pos: pos}
	return e
}
