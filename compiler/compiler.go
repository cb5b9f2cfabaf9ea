// Package compiler turns a parsed scene document into a program.
//
// The document root is <world>. Its <camera> becomes the program header,
// its <lights> the light table, and every <group> a balanced
// BEGIN_GROUP/END_GROUP block. Inside a group the compiler emits all
// transforms first, then all models, then the child groups, whatever
// their order in the document.
//
// Model and texture files are checked for existence at compile time,
// relative to the base directory (the scene file's directory for
// CompileFile). A <generator> directive can produce missing meshes by
// running an external program before the check.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/tree"
)

// Option configures compilation.
type Option func(*options)

type options struct {
	baseDir    string
	generator  string
	runner     Runner
	checkFiles bool
}

func defaultOptions() options {
	return options{
		runner:     ExecRunner{},
		checkFiles: true,
	}
}

// WithBaseDir sets the directory relative file references resolve
// against. The default is the current directory for Compile and the
// scene file's directory for CompileFile.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		o.baseDir = dir
	}
}

// WithGenerator activates the mesh generator before compilation starts,
// as if the document began with <generator dir="exe"/>.
func WithGenerator(exe string) Option {
	return func(o *options) {
		o.generator = exe
	}
}

// WithRunner replaces the runner used to invoke the generator.
func WithRunner(r Runner) Option {
	return func(o *options) {
		if r != nil {
			o.runner = r
		}
	}
}

// WithoutFileCheck disables the existence checks on model and texture
// files. Missing files then surface when the program is first run.
func WithoutFileCheck() Option {
	return func(o *options) {
		o.checkFiles = false
	}
}

// compiler holds the state of one compilation.
type compiler struct {
	ctx  context.Context
	opts options
	prog *program.Program

	// Generator state. The directive is document-global: once a
	// <generator dir> is seen it stays active for the rest of the walk.
	genExe    string
	genActive bool
}

// Compile compiles the scene rooted at root.
func Compile(ctx context.Context, root *tree.Node, opts ...Option) (*program.Program, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.baseDir == "" {
		o.baseDir = "."
	}

	c := &compiler{ctx: ctx, opts: o}
	if o.generator != "" {
		if err := c.activate(o.generator, nil); err != nil {
			return nil, err
		}
	}
	prog, err := c.world(root)
	if err != nil {
		return nil, err
	}
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("compiler produced an invalid program: %w", err)
	}
	return prog, nil
}

// CompileFile parses and compiles the scene file at path.
func CompileFile(ctx context.Context, path string, opts ...Option) (*program.Program, error) {
	root, err := tree.Load(path)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithBaseDir(filepath.Dir(path))}, opts...)

	prog, err := Compile(ctx, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	xscene.Logger().Info("scene loaded",
		"file", path,
		"cells", prog.Len(),
		"models", prog.Models(),
		"lights", len(prog.Lights))
	return prog, nil
}

// resolve maps a file reference onto the filesystem.
func (c *compiler) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.opts.baseDir, file)
}

// requireFile fails with a resource error when file does not exist.
func (c *compiler) requireFile(op, file string) error {
	if !c.opts.checkFiles {
		return nil
	}
	path := c.resolve(file)
	st, err := os.Stat(path)
	if err != nil {
		return &xscene.ResourceError{Op: op, Path: path, Err: err}
	}
	if st.IsDir() {
		return &xscene.ResourceError{Op: op, Path: path, Err: fmt.Errorf("is a directory")}
	}
	return nil
}

func (c *compiler) push(inst program.Instruction) {
	xscene.Logger().Debug("emit", "op", inst.Opcode())
	c.prog.Push(inst)
}
