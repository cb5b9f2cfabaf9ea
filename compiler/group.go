package compiler

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/tree"
)

// Material limits.
const (
	rgbMax       = 255
	shininessMax = 128
)

// group emits one BEGIN_GROUP/END_GROUP block. template is the generator
// argument template inherited from the enclosing groups.
func (c *compiler) group(n *tree.Node, template string) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	if n.Has("generator") {
		template = n.Attrs["generator"]
	}

	var transforms, models, groups []*tree.Node
	for _, ch := range n.Children {
		switch ch.Name {
		case "transform":
			transforms = append(transforms, ch)
		case "models":
			models = append(models, ch)
		case "group":
			groups = append(groups, ch)
		default:
			return ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
	}

	c.push(program.BeginGroup{})
	for _, t := range transforms {
		if err := c.transform(t); err != nil {
			return err
		}
	}
	for _, m := range models {
		if err := c.models(m, template); err != nil {
			return err
		}
	}
	for _, g := range groups {
		if err := c.group(g, template); err != nil {
			return err
		}
	}
	c.push(program.EndGroup{})
	return nil
}

func (c *compiler) transform(n *tree.Node) error {
	for _, ch := range n.Children {
		var (
			inst program.Instruction
			err  error
		)
		switch ch.Name {
		case "translate":
			inst, err = translate(ch)
		case "rotate":
			inst, err = rotate(ch)
		case "scale":
			inst, err = scale(ch)
		default:
			err = ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		if err != nil {
			return err
		}
		c.push(inst)
	}
	return nil
}

func period(n *tree.Node) (float32, error) {
	t, err := n.Float("time")
	if err != nil {
		return 0, err
	}
	if !(t > 0) {
		return 0, n.Fail(xscene.CodeValueOutOfRange, "time", fmt.Errorf("must be positive"))
	}
	return t, nil
}

func translate(n *tree.Node) (program.Instruction, error) {
	if !n.Has("time") {
		if len(n.Children) > 0 {
			return nil, n.Children[0].Fail(xscene.CodeUnknownElement, "", fmt.Errorf("points need a time attribute"))
		}
		v, err := n.Vec3("x", "y", "z")
		return program.Translate{Offset: v}, err
	}

	t, err := period(n)
	if err != nil {
		return nil, err
	}
	align, err := n.BoolOr("align", false)
	if err != nil {
		return nil, err
	}

	// Points are collected first and the count written with them.
	var points []mgl32.Vec3
	for _, ch := range n.Children {
		if ch.Name != "point" {
			return nil, ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		p, err := ch.Vec3("x", "y", "z")
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, n.Fail(xscene.CodeMissingElement, "", fmt.Errorf("animated translate needs at least one <point>"))
	}
	return program.ExtendedTranslate{Time: t, Align: align, Points: points}, nil
}

func rotate(n *tree.Node) (program.Instruction, error) {
	axis, err := n.Vec3("x", "y", "z")
	if err != nil {
		return nil, err
	}
	if n.Has("time") {
		t, err := period(n)
		if err != nil {
			return nil, err
		}
		return program.ExtendedRotate{Time: t, Axis: axis}, nil
	}
	angle, err := n.FloatOr("angle", 0)
	if err != nil {
		return nil, err
	}
	return program.Rotate{Angle: angle, Axis: axis}, nil
}

func scale(n *tree.Node) (program.Instruction, error) {
	if n.Has("time") {
		return nil, n.Fail(xscene.CodeUnknownElement, "time", fmt.Errorf("scale cannot be animated"))
	}
	v, err := n.Vec3("x", "y", "z")
	return program.Scale{Factor: v}, err
}

func (c *compiler) models(n *tree.Node, template string) error {
	for _, ch := range n.Children {
		if ch.Name != "model" {
			return ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		if err := c.model(ch, template); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) model(n *tree.Node, template string) error {
	file, err := n.String("file")
	if err != nil {
		return err
	}
	if file == "" {
		return n.Fail(xscene.CodeValueOutOfRange, "file", fmt.Errorf("empty filename"))
	}

	if n.Has("generator") {
		template = n.Attrs["generator"]
	}
	if template != "" {
		if err := c.generate(n, template, file); err != nil {
			return err
		}
	}
	if err := c.requireFile("load model", file); err != nil {
		return err
	}

	c.push(program.BeginModel{File: file})
	for _, ch := range n.Children {
		switch ch.Name {
		case "texture":
			err = c.texture(ch)
		case "color":
			err = c.color(ch)
		default:
			err = ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		if err != nil {
			return err
		}
	}
	c.push(program.EndModel{})
	return nil
}

func (c *compiler) texture(n *tree.Node) error {
	file, err := n.String("file")
	if err != nil {
		return err
	}
	if file == "" {
		return n.Fail(xscene.CodeValueOutOfRange, "file", fmt.Errorf("empty filename"))
	}
	if err := c.requireFile("load texture", file); err != nil {
		return err
	}
	c.push(program.Texture{File: file})
	return nil
}

var channels = map[string]program.Channel{
	"diffuse":  program.Diffuse,
	"ambient":  program.Ambient,
	"specular": program.Specular,
	"emissive": program.Emissive,
}

func (c *compiler) color(n *tree.Node) error {
	for _, ch := range n.Children {
		if ch.Name == "shininess" {
			v, err := ch.Float("value")
			if err != nil {
				return err
			}
			if err := ch.Range("value", v, 0, shininessMax); err != nil {
				return err
			}
			c.push(program.Shininess{Value: v})
			continue
		}

		channel, ok := channels[ch.Name]
		if !ok {
			return ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		rgb, err := ch.Vec3("R", "G", "B")
		if err != nil {
			return err
		}
		for i, attr := range [3]string{"R", "G", "B"} {
			if err := ch.Range(attr, rgb[i], 0, rgbMax); err != nil {
				return err
			}
			rgb[i] /= rgbMax
		}
		c.push(program.Color{Channel: channel, RGB: rgb})
	}
	return nil
}
