// Package asm assembles the textual listing produced by
// program.WriteListing back into a program.
//
// A listing is a sequence of statements, each an opcode name followed by
// its operands. The first two statements must be CAMERA (9 numbers) and
// PROJECTION (3 numbers). A quoted string operand expands to its length
// followed by its bytes; numbers are copied to the stream as they are.
// Comments start with '#' and run to the end of the line.
//
// The assembled cells go through program.Decode, so a listing is held to
// exactly the same rules as a binary stream.
package asm

import (
	"fmt"
	"io"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
)

// Listing is the parsed form of a listing.
type Listing struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement is one opcode line.
type Statement struct {
	Pos lexer.Position

	Op   string     `parser:"@Ident"`
	Args []*Operand `parser:"@@*"`
}

// Operand is a quoted filename or a number.
type Operand struct {
	String *string  `parser:"  @String"`
	Number *float64 `parser:"| @Number"`
}

var listingLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?|[-+]?Inf|NaN`},
	{Name: "Ident", Pattern: `[A-Z_][A-Z0-9_]*`},
})

var parser = participle.MustBuild[Listing](
	participle.Lexer(listingLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
)

// Parse parses listing source without assembling it.
func Parse(name string, r io.Reader) (*Listing, error) {
	l, err := parser.Parse(name, r)
	if err != nil {
		return nil, &xscene.DecodeError{Err: err}
	}
	return l, nil
}

// Assemble parses and assembles a listing into a validated program.
func Assemble(name string, r io.Reader) (*program.Program, error) {
	l, err := Parse(name, r)
	if err != nil {
		return nil, err
	}
	cells, err := l.Cells()
	if err != nil {
		return nil, err
	}
	return program.Decode(cells)
}

// Cells flattens the listing into a cell stream.
func (l *Listing) Cells() ([]float32, error) {
	if len(l.Statements) < 2 {
		return nil, &xscene.DecodeError{Err: fmt.Errorf("listing must start with CAMERA and PROJECTION")}
	}

	var out []float32
	for i, st := range l.Statements {
		switch {
		case i == 0:
			if err := st.expect("CAMERA", 9); err != nil {
				return nil, err
			}
		case i == 1:
			if err := st.expect("PROJECTION", 3); err != nil {
				return nil, err
			}
		default:
			op, ok := program.OpcodeByName(st.Op)
			if !ok {
				return nil, st.fail(fmt.Errorf("unknown opcode %q", st.Op))
			}
			out = append(out, float32(op))
		}

		for _, a := range st.Args {
			if a.String != nil {
				s := *a.String
				out = append(out, float32(len(s)))
				for j := 0; j < len(s); j++ {
					out = append(out, float32(s[j]))
				}
				continue
			}
			out = append(out, float32(*a.Number))
		}
	}
	return out, nil
}

func (st *Statement) expect(name string, n int) error {
	if st.Op != name {
		return st.fail(fmt.Errorf("expected %s, found %s", name, st.Op))
	}
	if len(st.Args) != n {
		return st.fail(fmt.Errorf("%s takes %d numbers, found %d operands", name, n, len(st.Args)))
	}
	for _, a := range st.Args {
		if a.Number == nil {
			return st.fail(fmt.Errorf("%s takes numbers only", name))
		}
	}
	return nil
}

func (st *Statement) fail(err error) error {
	return &xscene.DecodeError{Err: fmt.Errorf("%s: %w", st.Pos, err)}
}
