package compiler

import (
	"fmt"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/tree"
)

func (c *compiler) world(root *tree.Node) (*program.Program, error) {
	if root.Name != "world" {
		return nil, root.Fail(xscene.CodeUnknownElement, "", fmt.Errorf("root element must be <world>"))
	}

	cam := root.Child("camera")
	if cam == nil {
		return nil, root.Fail(xscene.CodeMissingElement, "", fmt.Errorf("no <camera>"))
	}
	header, err := camera(cam)
	if err != nil {
		return nil, err
	}
	c.prog = program.New(header)

	for _, n := range root.Children {
		if err := c.ctx.Err(); err != nil {
			return nil, err
		}
		switch n.Name {
		case "camera":
			if n != cam {
				return nil, n.Fail(xscene.CodeUnknownElement, "", fmt.Errorf("duplicate <camera>"))
			}
		case "lights":
			if err := c.lights(n); err != nil {
				return nil, err
			}
		case "group":
			if err := c.group(n, ""); err != nil {
				return nil, err
			}
		case "generator":
			if err := c.generatorDirective(n); err != nil {
				return nil, err
			}
		default:
			return nil, n.Fail(xscene.CodeUnknownElement, "", nil)
		}
	}
	// A world with no <group> is accepted and yields an empty body, so a
	// camera and light setup can be compiled and replayed on its own. The
	// scene grammar proper asks for at least one group.
	return c.prog, nil
}

// camera builds the program header. position and lookAt are required;
// up and projection fall back to the defaults.
func camera(n *tree.Node) (program.Camera, error) {
	cam := program.DefaultCamera()
	var seenPos, seenLook bool

	for _, ch := range n.Children {
		var err error
		switch ch.Name {
		case "position":
			cam.Position, err = ch.Vec3("x", "y", "z")
			seenPos = true
		case "lookAt":
			cam.LookAt, err = ch.Vec3("x", "y", "z")
			seenLook = true
		case "up":
			cam.Up, err = ch.Vec3("x", "y", "z")
		case "projection":
			err = projection(ch, &cam)
		default:
			err = ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		if err != nil {
			return cam, err
		}
	}

	if !seenPos {
		return cam, n.Fail(xscene.CodeMissingElement, "", fmt.Errorf("no <position>"))
	}
	if !seenLook {
		return cam, n.Fail(xscene.CodeMissingElement, "", fmt.Errorf("no <lookAt>"))
	}
	return cam, nil
}

func projection(n *tree.Node, cam *program.Camera) error {
	var err error
	if cam.FOV, err = n.Float("fov"); err != nil {
		return err
	}
	if cam.Near, err = n.Float("near"); err != nil {
		return err
	}
	if cam.Far, err = n.Float("far"); err != nil {
		return err
	}
	if err := n.Range("fov", cam.FOV, 1, 179); err != nil {
		return err
	}
	if !(cam.Near > 0) {
		return n.Fail(xscene.CodeValueOutOfRange, "near", fmt.Errorf("must be positive"))
	}
	if !(cam.Far > cam.Near) {
		return n.Fail(xscene.CodeValueOutOfRange, "far", fmt.Errorf("must exceed near"))
	}
	return nil
}

func (c *compiler) lights(n *tree.Node) error {
	for _, ch := range n.Children {
		if ch.Name != "light" {
			return ch.Fail(xscene.CodeUnknownElement, "", nil)
		}
		l, err := light(ch)
		if err != nil {
			return err
		}
		c.push(l)
	}
	return nil
}

func light(n *tree.Node) (program.Light, error) {
	kind, err := n.String("type")
	if err != nil {
		return program.Light{}, err
	}

	var l program.Light
	switch kind {
	case "point":
		l.Kind = program.PointLight
		l.Position, err = n.Vec3("posX", "posY", "posZ")
	case "directional":
		l.Kind = program.DirectionalLight
		l.Direction, err = n.Vec3("dirX", "dirY", "dirZ")
	case "spotlight":
		l.Kind = program.SpotLight
		if l.Position, err = n.Vec3("posX", "posY", "posZ"); err != nil {
			return l, err
		}
		if l.Direction, err = n.Vec3("dirX", "dirY", "dirZ"); err != nil {
			return l, err
		}
		if l.Cutoff, err = n.Float("cutoff"); err != nil {
			return l, err
		}
		if l.Cutoff != 180 {
			err = n.Range("cutoff", l.Cutoff, 0, 90)
		}
	default:
		err = n.Fail(xscene.CodeValueOutOfRange, "type", fmt.Errorf("unknown light type %q", kind))
	}
	return l, err
}
