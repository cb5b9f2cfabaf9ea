package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/tree"
)

// Runner executes a generator command line in dir.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run starts argv[0] with the remaining arguments and waits for it. A
// non-zero exit is an error carrying the command's output.
func (ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// generatorDirective handles <generator dir="exe"/> (activate) and
// <generator argv="..."/> (run now).
func (c *compiler) generatorDirective(n *tree.Node) error {
	if n.Has("dir") {
		return c.activate(n.Attrs["dir"], n)
	}
	argv, err := n.String("argv")
	if err != nil {
		return err
	}
	if !c.genActive {
		xscene.Logger().Warn("generator arguments without an active generator", "line", n.Line)
		return nil
	}
	args, err := shellwords.Parse(argv)
	if err != nil {
		return n.Fail(xscene.CodeParseError, "argv", err)
	}
	return c.run(args)
}

func (c *compiler) activate(exe string, n *tree.Node) error {
	if exe == "" {
		if n != nil {
			return n.Fail(xscene.CodeValueOutOfRange, "dir", fmt.Errorf("empty generator path"))
		}
		return nil
	}
	if err := c.requireFile("find generator", exe); err != nil {
		return err
	}
	c.genExe = c.resolve(exe)
	c.genActive = true
	xscene.Logger().Info("using generator", "path", c.genExe)
	return nil
}

// generate expands a model's argument template and runs the generator.
// {file} in any argument is replaced by the model filename.
func (c *compiler) generate(n *tree.Node, template, file string) error {
	if !c.genActive {
		xscene.Logger().Warn("generator template without an active generator",
			"model", file, "line", n.Line)
		return nil
	}
	args, err := shellwords.Parse(template)
	if err != nil {
		return n.Fail(xscene.CodeParseError, "generator", err)
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{file}", file)
	}
	return c.run(args)
}

func (c *compiler) run(args []string) error {
	argv := append([]string{c.genExe}, args...)
	xscene.Logger().Debug("running generator", "argv", argv)
	if err := c.opts.runner.Run(c.ctx, c.opts.baseDir, argv); err != nil {
		return &xscene.ResourceError{Op: "generate", Path: strings.Join(argv, " "), Err: err}
	}
	return nil
}
