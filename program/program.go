package program

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/xscene"
)

// headerCells is the size of the camera header in the cell stream:
// position, look-at, up (3 cells each) and fov, near, far.
const headerCells = 12

// Program is a compiled scene. It is built once and read-only afterwards;
// any number of interpreter states may replay it.
type Program struct {
	Camera Camera
	Lights []Light
	Body   []Instruction
}

// New returns an empty program with the given camera.
func New(cam Camera) *Program {
	return &Program{Camera: cam}
}

// Push appends an instruction. Lights go to the header light table,
// everything else to the body.
func (p *Program) Push(inst Instruction) {
	if l, ok := inst.(Light); ok {
		p.Lights = append(p.Lights, l)
		return
	}
	p.Body = append(p.Body, inst)
}

// Len returns the number of cells in the encoded program.
func (p *Program) Len() int {
	n := headerCells
	for _, l := range p.Lights {
		n += cells(l)
	}
	for _, inst := range p.Body {
		n += cells(inst)
	}
	return n
}

// Models returns the number of model references in the body.
func (p *Program) Models() int {
	n := 0
	for _, inst := range p.Body {
		if _, ok := inst.(BeginModel); ok {
			n++
		}
	}
	return n
}

// Offset returns the cell position of Body[i] in the encoded program.
func (p *Program) Offset(i int) int {
	n := headerCells
	for _, l := range p.Lights {
		n += cells(l)
	}
	for _, inst := range p.Body[:min(i, len(p.Body))] {
		n += cells(inst)
	}
	return n
}

// Decoding failures reported through *xscene.DecodeError.
var (
	errUnbalanced     = errors.New("unbalanced group markers")
	errOutsideGroup   = errors.New("instruction outside any group")
	errOutsideModel   = errors.New("material instruction outside a model")
	errNestedModel    = errors.New("nested model reference")
	errOpenModel      = errors.New("model reference not closed")
	errEmptyName      = errors.New("empty filename")
	errBadPeriod      = errors.New("animation period must be positive")
	errNoPoints       = errors.New("curve without control points")
	errLightInBody    = errors.New("light outside the program header")
	errNotInstruction = errors.New("value is not a program instruction")
)

// Validate checks the structural invariants of p: the body is a sequence
// of balanced groups, model references are closed and not nested,
// material instructions sit inside a model, filenames are non-empty and
// animation periods are positive. An empty body is valid.
//
// The returned error is an *xscene.DecodeError whose offset is the cell
// position of the offending instruction.
func (p *Program) Validate() error {
	off := headerCells
	for _, l := range p.Lights {
		if l.Kind > SpotLight {
			return &xscene.DecodeError{Offset: off, Err: fmt.Errorf("unknown light kind %d", l.Kind)}
		}
		off += cells(l)
	}

	depth := 0
	inModel := false
	for _, inst := range p.Body {
		fail := func(err error) error {
			return &xscene.DecodeError{Offset: off, Err: fmt.Errorf("%s: %w", inst.Opcode(), err)}
		}

		op := inst.Opcode()
		if op == OpEndGroup && depth == 0 {
			return fail(errUnbalanced)
		}
		if op != OpBeginGroup && depth == 0 {
			return fail(errOutsideGroup)
		}
		if inModel && !op.IsMaterial() && op != OpEndModel && op != OpBeginModel {
			return fail(errOpenModel)
		}

		switch in := inst.(type) {
		case BeginGroup:
			depth++
		case EndGroup:
			depth--
		case BeginModel:
			if inModel {
				return fail(errNestedModel)
			}
			if in.File == "" {
				return fail(errEmptyName)
			}
			inModel = true
		case EndModel:
			if !inModel {
				return fail(errOutsideModel)
			}
			inModel = false
		case Texture:
			if !inModel {
				return fail(errOutsideModel)
			}
			if in.File == "" {
				return fail(errEmptyName)
			}
		case Color:
			if !inModel {
				return fail(errOutsideModel)
			}
			if in.Channel > Emissive {
				return fail(fmt.Errorf("unknown channel %d", in.Channel))
			}
		case Shininess:
			if !inModel {
				return fail(errOutsideModel)
			}
		case ExtendedTranslate:
			if !(in.Time > 0) {
				return fail(errBadPeriod)
			}
			if len(in.Points) == 0 {
				return fail(errNoPoints)
			}
		case ExtendedRotate:
			if !(in.Time > 0) {
				return fail(errBadPeriod)
			}
		case Translate, Rotate, Scale:
		case Light:
			return fail(errLightInBody)
		default:
			return fail(errNotInstruction)
		}
		off += cells(inst)
	}

	if inModel {
		return &xscene.DecodeError{Offset: off, Err: errOpenModel}
	}
	if depth != 0 {
		return &xscene.DecodeError{Offset: off, Err: errUnbalanced}
	}
	return nil
}

// Digest returns an FNV-1a hash of the encoded program. Equal programs
// have equal digests.
func (p *Program) Digest() uint64 {
	const (
		fnvOffset = 14695981039346656037
		fnvPrime  = 1099511628211
	)

	hash := uint64(fnvOffset)
	for _, c := range p.Encode() {
		hash ^= uint64(math.Float32bits(c))
		hash *= fnvPrime
	}
	return hash
}
