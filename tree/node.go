// Package tree holds the parsed XML scene document and a typed attribute
// reader over it.
//
// A [Node] is a plain element: name, attributes, child elements in
// document order and the line it started on. Character data is dropped;
// the scene format carries everything in attributes.
//
// Every accessor that can fail returns an *xscene.SchemaError naming the
// node, its line and the attribute, so callers can propagate errors
// without decorating them.
package tree

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene"
)

// Node is a single XML element of a scene document.
type Node struct {
	Name     string
	Line     int
	Attrs    map[string]string
	Children []*Node
}

// Child returns the first child element with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all child elements with the given name in
// document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Has reports whether the attribute is present.
func (n *Node) Has(attr string) bool {
	_, ok := n.Attrs[attr]
	return ok
}

// Fail builds a schema error located at n.
func (n *Node) Fail(code, attr string, err error) error {
	return &xscene.SchemaError{Node: n.Name, Line: n.Line, Attr: attr, Code: code, Err: err}
}

// String returns the raw value of a required attribute.
func (n *Node) String(attr string) (string, error) {
	v, ok := n.Attrs[attr]
	if !ok {
		return "", n.Fail(xscene.CodeNoAttribute, attr, nil)
	}
	return v, nil
}

// Float parses a required float attribute. NaN and infinities are
// rejected as malformed.
func (n *Node) Float(attr string) (float32, error) {
	v, ok := n.Attrs[attr]
	if !ok {
		return 0, n.Fail(xscene.CodeNoAttribute, attr, nil)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, n.Fail(xscene.CodeWrongAttributeType, attr, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, n.Fail(xscene.CodeWrongAttributeType, attr, strconv.ErrSyntax)
	}
	return float32(f), nil
}

// FloatOr parses an optional float attribute. A present but malformed
// value is still an error.
func (n *Node) FloatOr(attr string, def float32) (float32, error) {
	if !n.Has(attr) {
		return def, nil
	}
	return n.Float(attr)
}

// Bool parses a required boolean attribute. Accepted spellings are an
// integer (non-zero is true) or true/false in lower, title or upper case.
func (n *Node) Bool(attr string) (bool, error) {
	v, ok := n.Attrs[attr]
	if !ok {
		return false, n.Fail(xscene.CodeNoAttribute, attr, nil)
	}
	v = strings.TrimSpace(v)
	if i, err := strconv.Atoi(v); err == nil {
		return i != 0, nil
	}
	switch v {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, n.Fail(xscene.CodeWrongAttributeType, attr, strconv.ErrSyntax)
}

// BoolOr parses an optional boolean attribute.
func (n *Node) BoolOr(attr string, def bool) (bool, error) {
	if !n.Has(attr) {
		return def, nil
	}
	return n.Bool(attr)
}

// Vec3 reads three required float attributes as a vector.
func (n *Node) Vec3(x, y, z string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i, attr := range [3]string{x, y, z} {
		f, err := n.Float(attr)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// Vec3Or reads three float attributes, returning def when all three are
// absent. A partially specified vector is an error.
func (n *Node) Vec3Or(x, y, z string, def mgl32.Vec3) (mgl32.Vec3, error) {
	if !n.Has(x) && !n.Has(y) && !n.Has(z) {
		return def, nil
	}
	return n.Vec3(x, y, z)
}

// Range checks that v lies in [lo, hi]. NaN lies in no range.
func (n *Node) Range(attr string, v, lo, hi float32) error {
	if !(v >= lo && v <= hi) {
		return n.Fail(xscene.CodeValueOutOfRange, attr,
			strconv.ErrRange)
	}
	return nil
}
