// Package program defines the compiled form of a scene: a camera header,
// a light table and a flat body of instructions bracketed by group
// markers.
//
// In memory a program is a slice of tagged [Instruction] values. At the
// serialization boundary it becomes a stream of float32 cells: every
// instruction is an integer-valued opcode cell followed by its operand
// cells. Variable-length operands (filenames, curve points) carry a
// length cell in front of them.
//
// The numeric opcode values are fixed and shared by every producer and
// consumer of the stream.
package program

import "strconv"

// Opcode identifies an instruction kind in the cell stream.
type Opcode uint8

// Opcode constants. Each comment documents the operand cells that follow
// the opcode cell.
const (
	// OpTranslate is a static translation.
	// Operands: 3 cells [x, y, z]
	OpTranslate Opcode = 1

	// OpRotate is a static rotation in degrees about an axis.
	// Operands: 4 cells [angle, ax, ay, az]
	OpRotate Opcode = 2

	// OpScale is a non-uniform scale.
	// Operands: 3 cells [x, y, z]
	OpScale Opcode = 3

	// OpBeginModel starts a model reference.
	// Operands: 1 length cell n, then n byte cells of the filename
	OpBeginModel Opcode = 4

	// OpEndModel ends the most recent model reference and draws it.
	// Operands: none
	OpEndModel Opcode = 5

	// OpBeginGroup pushes the transform stack.
	// Operands: none
	OpBeginGroup Opcode = 6

	// OpEndGroup pops the transform stack.
	// Operands: none
	OpEndGroup Opcode = 7

	// OpExtendedTranslate follows a looping curve once every time seconds.
	// Operands: [time, align, n] then n triples [x, y, z]
	OpExtendedTranslate Opcode = 8

	// OpExtendedRotate completes a full revolution every time seconds.
	// Operands: 4 cells [time, ax, ay, az]
	OpExtendedRotate Opcode = 9

	// OpTexture attaches a texture to the current model.
	// Operands: 1 length cell n, then n byte cells of the filename
	OpTexture Opcode = 10

	// OpDiffuse sets the diffuse color of the current model.
	// Operands: 3 cells [r, g, b] in [0, 1]
	OpDiffuse Opcode = 11

	// OpAmbient sets the ambient color of the current model.
	// Operands: 3 cells [r, g, b] in [0, 1]
	OpAmbient Opcode = 12

	// OpSpecular sets the specular color of the current model.
	// Operands: 3 cells [r, g, b] in [0, 1]
	OpSpecular Opcode = 13

	// OpEmissive sets the emissive color of the current model.
	// Operands: 3 cells [r, g, b] in [0, 1]
	OpEmissive Opcode = 14

	// OpShininess sets the specular exponent of the current model.
	// Operands: 1 cell [value]
	OpShininess Opcode = 15

	// OpPoint declares a point light. Header only.
	// Operands: 3 cells [x, y, z] position
	OpPoint Opcode = 16

	// OpDirectional declares a directional light. Header only.
	// Operands: 3 cells [x, y, z] direction
	OpDirectional Opcode = 17

	// OpSpotlight declares a spotlight. Header only.
	// Operands: 7 cells [px, py, pz, dx, dy, dz, cutoff]
	OpSpotlight Opcode = 18
)

// opcodeCount is one past the largest opcode value.
const opcodeCount = 19

var opcodeNames = [opcodeCount]string{
	OpTranslate:         "TRANSLATE",
	OpRotate:            "ROTATE",
	OpScale:             "SCALE",
	OpBeginModel:        "BEGIN_MODEL",
	OpEndModel:          "END_MODEL",
	OpBeginGroup:        "BEGIN_GROUP",
	OpEndGroup:          "END_GROUP",
	OpExtendedTranslate: "EXTENDED_TRANSLATE",
	OpExtendedRotate:    "EXTENDED_ROTATE",
	OpTexture:           "TEXTURE",
	OpDiffuse:           "DIFFUSE",
	OpAmbient:           "AMBIENT",
	OpSpecular:          "SPECULAR",
	OpEmissive:          "EMISSIVE",
	OpShininess:         "SHININESS",
	OpPoint:             "POINT",
	OpDirectional:       "DIRECTIONAL",
	OpSpotlight:         "SPOTLIGHT",
}

// fixedOperands holds the operand count of every fixed-shape opcode.
// Variable-length opcodes are -1.
var fixedOperands = [opcodeCount]int8{
	OpTranslate:         3,
	OpRotate:            4,
	OpScale:             3,
	OpBeginModel:        -1,
	OpEndModel:          0,
	OpBeginGroup:        0,
	OpEndGroup:          0,
	OpExtendedTranslate: -1,
	OpExtendedRotate:    4,
	OpTexture:           -1,
	OpDiffuse:           3,
	OpAmbient:           3,
	OpSpecular:          3,
	OpEmissive:          3,
	OpShininess:         1,
	OpPoint:             3,
	OpDirectional:       3,
	OpSpotlight:         7,
}

// String returns the listing name of the opcode.
func (op Opcode) String() string {
	if op.Valid() {
		return opcodeNames[op]
	}
	return "Opcode(" + strconv.Itoa(int(op)) + ")"
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op >= OpTranslate && op < opcodeCount
}

// Operands returns the number of operand cells for fixed-shape opcodes
// and false for opcodes with a length-prefixed payload.
func (op Opcode) Operands() (int, bool) {
	if !op.Valid() || fixedOperands[op] < 0 {
		return 0, false
	}
	return int(fixedOperands[op]), true
}

// IsLight reports whether op declares a light.
func (op Opcode) IsLight() bool {
	return op == OpPoint || op == OpDirectional || op == OpSpotlight
}

// IsMaterial reports whether op is only valid inside a model reference.
func (op Opcode) IsMaterial() bool {
	return op >= OpTexture && op <= OpShininess
}

// OpcodeByName returns the opcode with the given listing name.
func OpcodeByName(name string) (Opcode, bool) {
	for op := OpTranslate; op < opcodeCount; op++ {
		if opcodeNames[op] == name {
			return op, true
		}
	}
	return 0, false
}
