package program

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene"
)

// maxStringCells bounds a length prefix so a corrupt stream cannot ask for
// an absurd allocation before the truncation check fires.
const maxStringCells = 1 << 16

// Decode parses a cell stream into a Program and validates it.
//
// Decoding is strict: an unknown or non-integral opcode, a truncated
// instruction, a malformed length prefix or a structural violation (see
// [Program.Validate]) is an *xscene.DecodeError.
func Decode(cells []float32) (*Program, error) {
	d := &decoder{cells: cells}
	p, err := d.program()
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// decoder is a forward-only cursor over a cell stream.
type decoder struct {
	cells []float32
	pos   int
	start int // offset of the instruction being decoded
}

var (
	errTruncated   = errors.New("truncated instruction")
	errNotIntegral = errors.New("non-integral cell")
)

func (d *decoder) fail(err error) error {
	return &xscene.DecodeError{Offset: d.start, Err: err}
}

func (d *decoder) hasMore() bool {
	return d.pos < len(d.cells)
}

// ---------------------------------------------------------------------------
// Program structure
// ---------------------------------------------------------------------------

func (d *decoder) program() (*Program, error) {
	if len(d.cells) < headerCells {
		return nil, d.fail(fmt.Errorf("%w: header needs %d cells, have %d", errTruncated, headerCells, len(d.cells)))
	}

	p := &Program{}
	p.Camera.Position = d.vec()
	p.Camera.LookAt = d.vec()
	p.Camera.Up = d.vec()
	p.Camera.FOV = d.next()
	p.Camera.Near = d.next()
	p.Camera.Far = d.next()

	for d.hasMore() {
		inst, err := d.instruction()
		if err != nil {
			return nil, err
		}
		if l, ok := inst.(Light); ok {
			if len(p.Body) > 0 {
				return nil, d.fail(errLightInBody)
			}
			p.Lights = append(p.Lights, l)
			continue
		}
		p.Body = append(p.Body, inst)
	}
	return p, nil
}

func (d *decoder) instruction() (Instruction, error) {
	d.start = d.pos
	op, err := d.opcode()
	if err != nil {
		return nil, err
	}

	if n, fixed := op.Operands(); fixed && len(d.cells)-d.pos < n {
		return nil, d.fail(fmt.Errorf("%s: %w", op, errTruncated))
	}

	switch op {
	case OpBeginGroup:
		return BeginGroup{}, nil
	case OpEndGroup:
		return EndGroup{}, nil
	case OpEndModel:
		return EndModel{}, nil
	case OpTranslate:
		return Translate{Offset: d.vec()}, nil
	case OpScale:
		return Scale{Factor: d.vec()}, nil
	case OpRotate:
		angle := d.next()
		return Rotate{Angle: angle, Axis: d.vec()}, nil
	case OpExtendedRotate:
		t := d.next()
		return ExtendedRotate{Time: t, Axis: d.vec()}, nil
	case OpExtendedTranslate:
		return d.extendedTranslate()
	case OpBeginModel:
		s, err := d.string(op)
		return BeginModel{File: s}, err
	case OpTexture:
		s, err := d.string(op)
		return Texture{File: s}, err
	case OpDiffuse, OpAmbient, OpSpecular, OpEmissive:
		return Color{Channel: Channel(op - OpDiffuse), RGB: d.vec()}, nil
	case OpShininess:
		return Shininess{Value: d.next()}, nil
	case OpPoint:
		return Light{Kind: PointLight, Position: d.vec()}, nil
	case OpDirectional:
		return Light{Kind: DirectionalLight, Direction: d.vec()}, nil
	case OpSpotlight:
		l := Light{Kind: SpotLight}
		l.Position = d.vec()
		l.Direction = d.vec()
		l.Cutoff = d.next()
		return l, nil
	}
	return nil, d.fail(fmt.Errorf("unhandled opcode %s", op))
}

// ---------------------------------------------------------------------------
// Operand readers
// ---------------------------------------------------------------------------

func (d *decoder) next() float32 {
	v := d.cells[d.pos]
	d.pos++
	return v
}

func (d *decoder) vec() mgl32.Vec3 {
	v := mgl32.Vec3{d.cells[d.pos], d.cells[d.pos+1], d.cells[d.pos+2]}
	d.pos += 3
	return v
}

// integer reads a cell that must hold a whole number in [lo, hi].
func (d *decoder) integer(lo, hi int) (int, error) {
	if !d.hasMore() {
		return 0, d.fail(errTruncated)
	}
	v := d.next()
	if v != float32(math.Trunc(float64(v))) {
		return 0, d.fail(fmt.Errorf("%w: %v", errNotIntegral, v))
	}
	if v < float32(lo) || v > float32(hi) {
		return 0, d.fail(fmt.Errorf("cell value %v outside [%d, %d]", v, lo, hi))
	}
	return int(v), nil
}

func (d *decoder) opcode() (Opcode, error) {
	v := d.cells[d.pos]
	n, err := d.integer(0, math.MaxUint8)
	if err != nil {
		return 0, d.fail(fmt.Errorf("bad opcode cell %v", v))
	}
	op := Opcode(n)
	if !op.Valid() {
		return 0, d.fail(fmt.Errorf("unknown opcode %d", n))
	}
	return op, nil
}

func (d *decoder) string(op Opcode) (string, error) {
	n, err := d.integer(1, maxStringCells)
	if err != nil {
		return "", d.fail(fmt.Errorf("%s: bad length prefix: %w", op, errors.Unwrap(err)))
	}
	if len(d.cells)-d.pos < n {
		return "", d.fail(fmt.Errorf("%s: %w", op, errTruncated))
	}
	buf := make([]byte, n)
	for i := range buf {
		c, err := d.integer(0, math.MaxUint8)
		if err != nil {
			return "", d.fail(fmt.Errorf("%s: bad character cell: %w", op, errors.Unwrap(err)))
		}
		buf[i] = byte(c)
	}
	return string(buf), nil
}

func (d *decoder) extendedTranslate() (Instruction, error) {
	if len(d.cells)-d.pos < 2 {
		return nil, d.fail(fmt.Errorf("%s: %w", OpExtendedTranslate, errTruncated))
	}
	in := ExtendedTranslate{Time: d.next()}

	align, err := d.integer(0, 1)
	if err != nil {
		return nil, d.fail(fmt.Errorf("%s: bad align flag: %w", OpExtendedTranslate, errors.Unwrap(err)))
	}
	in.Align = align == 1

	n, err := d.integer(0, maxStringCells)
	if err != nil {
		return nil, d.fail(fmt.Errorf("%s: bad point count: %w", OpExtendedTranslate, errors.Unwrap(err)))
	}
	if len(d.cells)-d.pos < 3*n {
		return nil, d.fail(fmt.Errorf("%s: %w: %d points declared", OpExtendedTranslate, errTruncated, n))
	}
	in.Points = make([]mgl32.Vec3, n)
	for i := range in.Points {
		in.Points[i] = d.vec()
	}
	return in, nil
}
