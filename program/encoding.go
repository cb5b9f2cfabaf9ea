package program

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/xscene"
)

// Magic prefixes the binary form of a program.
const Magic = "XSP1"

// Encode flattens p into its cell stream: the 12-cell camera header, the
// light instructions, then the body.
func (p *Program) Encode() []float32 {
	out := make([]float32, 0, p.Len())
	c := p.Camera
	out = append(out,
		c.Position[0], c.Position[1], c.Position[2],
		c.LookAt[0], c.LookAt[1], c.LookAt[2],
		c.Up[0], c.Up[1], c.Up[2],
		c.FOV, c.Near, c.Far,
	)
	for _, l := range p.Lights {
		out = appendInstruction(out, l)
	}
	for _, inst := range p.Body {
		out = appendInstruction(out, inst)
	}
	return out
}

func appendInstruction(out []float32, inst Instruction) []float32 {
	out = append(out, float32(inst.Opcode()))
	switch in := inst.(type) {
	case Translate:
		out = appendVec(out, in.Offset)
	case ExtendedTranslate:
		out = append(out, in.Time, boolCell(in.Align), float32(len(in.Points)))
		for _, pt := range in.Points {
			out = appendVec(out, pt)
		}
	case Rotate:
		out = append(out, in.Angle)
		out = appendVec(out, in.Axis)
	case ExtendedRotate:
		out = append(out, in.Time)
		out = appendVec(out, in.Axis)
	case Scale:
		out = appendVec(out, in.Factor)
	case BeginModel:
		out = appendString(out, in.File)
	case Texture:
		out = appendString(out, in.File)
	case Color:
		out = appendVec(out, in.RGB)
	case Shininess:
		out = append(out, in.Value)
	case Light:
		switch in.Kind {
		case PointLight:
			out = appendVec(out, in.Position)
		case DirectionalLight:
			out = appendVec(out, in.Direction)
		default:
			out = appendVec(out, in.Position)
			out = appendVec(out, in.Direction)
			out = append(out, in.Cutoff)
		}
	}
	return out
}

func appendVec(out []float32, v [3]float32) []float32 {
	return append(out, v[0], v[1], v[2])
}

// appendString stores the length followed by one cell per byte. No
// terminating NUL is written.
func appendString(out []float32, s string) []float32 {
	out = append(out, float32(len(s)))
	for i := 0; i < len(s); i++ {
		out = append(out, float32(s[i]))
	}
	return out
}

func boolCell(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// MarshalBinary encodes p as the magic, a little-endian uint32 cell count
// and the cells as little-endian IEEE-754 float32.
func (p *Program) MarshalBinary() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cells := p.Encode()
	buf := make([]byte, 0, len(Magic)+4+4*len(cells))
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(cells)))
	for _, c := range cells {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(c))
	}
	return buf, nil
}

// UnmarshalBinary replaces p with the program encoded in data.
func (p *Program) UnmarshalBinary(data []byte) error {
	if len(data) < len(Magic)+4 || string(data[:len(Magic)]) != Magic {
		return &xscene.DecodeError{Offset: 0, Err: errors.New("missing program magic")}
	}
	n := binary.LittleEndian.Uint32(data[len(Magic):])
	body := data[len(Magic)+4:]
	if uint64(len(body)) != 4*uint64(n) {
		return &xscene.DecodeError{Offset: 0, Err: fmt.Errorf("cell count %d does not match %d payload bytes", n, len(body))}
	}

	cells := make([]float32, n)
	for i := range cells {
		cells[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[4*i:]))
	}
	dec, err := Decode(cells)
	if err != nil {
		return err
	}
	*p = *dec
	return nil
}
