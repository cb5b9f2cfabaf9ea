package program

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WriteListing writes a human-readable listing of p, one instruction per
// line, indented by group depth:
//
//	CAMERA 0 0 5 0 0 0 0 1 0
//	PROJECTION 60 1 1000
//	POINT 0 10 0
//	BEGIN_GROUP
//	  TRANSLATE 1 0 0
//	  BEGIN_MODEL "cube.3d"
//	  END_MODEL
//	END_GROUP
//
// Operands appear in stream order. Filenames are quoted and their length
// prefix is implied; every other cell, including the point count of
// EXTENDED_TRANSLATE, is written as a number. The listing is accepted
// back by package asm.
func (p *Program) WriteListing(w io.Writer) error {
	bw := bufio.NewWriter(w)
	c := p.Camera

	line(bw, 0, "CAMERA", nums(c.Position[:], c.LookAt[:], c.Up[:]))
	line(bw, 0, "PROJECTION", nums([]float32{c.FOV, c.Near, c.Far}))
	for _, l := range p.Lights {
		line(bw, 0, l.Opcode().String(), operands(l))
	}

	depth := 0
	for _, inst := range p.Body {
		if _, ok := inst.(EndGroup); ok {
			depth--
		}
		indent := depth
		if inst.Opcode().IsMaterial() {
			indent++
		}
		line(bw, indent, inst.Opcode().String(), operands(inst))
		if _, ok := inst.(BeginGroup); ok {
			depth++
		}
	}
	return bw.Flush()
}

// String returns the listing of p.
func (p *Program) String() string {
	var sb strings.Builder
	_ = p.WriteListing(&sb)
	return sb.String()
}

func line(w *bufio.Writer, depth int, name string, args []string) {
	for range depth {
		w.WriteString("  ")
	}
	w.WriteString(name)
	for _, a := range args {
		w.WriteByte(' ')
		w.WriteString(a)
	}
	w.WriteByte('\n')
}

func operands(inst Instruction) []string {
	switch in := inst.(type) {
	case BeginModel:
		return []string{strconv.Quote(in.File)}
	case Texture:
		return []string{strconv.Quote(in.File)}
	}
	// Skip the opcode cell.
	return nums(appendInstruction(nil, inst)[1:])
}

func nums(groups ...[]float32) []string {
	var out []string
	for _, g := range groups {
		for _, v := range g {
			out = append(out, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
	}
	return out
}
