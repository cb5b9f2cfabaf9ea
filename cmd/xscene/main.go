// Command xscene compiles an XML scene and replays it on a backend.
//
// Usage:
//
//	xscene [flags] scene.xml
//
// With -list the compiled program is printed and nothing is rendered;
// with -o it is written in binary form. -asm reads a program listing
// instead of a scene and writes its binary form to -o.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/muesli/termenv"

	"github.com/gogpu/xscene"
	"github.com/gogpu/xscene/backend"
	"github.com/gogpu/xscene/backend/raster"
	"github.com/gogpu/xscene/backend/trace"
	"github.com/gogpu/xscene/compiler"
	"github.com/gogpu/xscene/config"
	"github.com/gogpu/xscene/engine"
	"github.com/gogpu/xscene/interp"
	"github.com/gogpu/xscene/program"
	"github.com/gogpu/xscene/program/asm"
	"github.com/gogpu/xscene/progstore"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	config    string
	backend   string
	frames    int
	interval  time.Duration
	width     int
	height    int
	png       string
	out       string
	list      bool
	assemble  bool
	watch     bool
	store     string
	generator string
	shared    bool
	verbose   bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xscene", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags
	fs.StringVar(&f.config, "config", "", "configuration file (.toml, .yaml)")
	fs.StringVar(&f.backend, "backend", "", "backend name ("+strings.Join(backend.Names(), ", ")+")")
	fs.IntVar(&f.frames, "frames", 0, "frames to run, 0 runs until interrupted")
	fs.DurationVar(&f.interval, "interval", 0, "pause between frames")
	fs.IntVar(&f.width, "width", 0, "raster image width")
	fs.IntVar(&f.height, "height", 0, "raster image height")
	fs.StringVar(&f.png, "png", "", "write the last raster frame to this PNG file")
	fs.StringVar(&f.out, "o", "", "write the compiled program to this file")
	fs.BoolVar(&f.list, "list", false, "print the compiled program and exit")
	fs.BoolVar(&f.assemble, "asm", false, "read a program listing instead of a scene (needs -o)")
	fs.BoolVar(&f.watch, "watch", false, "reload the scene when it changes")
	fs.StringVar(&f.store, "store", "", "program database reused across runs")
	fs.StringVar(&f.generator, "generator", "", "mesh generator executable")
	fs.BoolVar(&f.shared, "shared", false, "share loads between references to the same file")
	fs.BoolVar(&f.verbose, "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: xscene [flags] scene.xml")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := loadConfig(fs, &f)
	if err != nil {
		return fail(stderr, err)
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}
	if fs.NArg() == 1 {
		cfg.Scene = fs.Arg(0)
	}
	if cfg.Scene == "" {
		fs.Usage()
		return exitUsage
	}

	level, _ := cfg.Level()
	xscene.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case f.assemble:
		err = assembleListing(cfg.Scene, f.out)
	case f.list || f.out != "":
		err = compileOnly(ctx, cfg, &f, stdout)
	default:
		err = render(ctx, cfg, &f, stdout)
	}
	if err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// loadConfig reads the configuration file and applies the flags that were
// set on the command line over it.
func loadConfig(fs *flag.FlagSet, f *flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.config != "" {
		cfg, err = config.Load(f.config)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "backend":
			cfg.Backend = f.backend
		case "frames":
			cfg.Frames = f.frames
		case "interval":
			cfg.FrameInterval = config.Duration(f.interval)
		case "width":
			cfg.Width = f.width
		case "height":
			cfg.Height = f.height
		case "png":
			cfg.Output = f.png
		case "watch":
			cfg.Watch = f.watch
		case "store":
			cfg.Store = f.store
		case "shared":
			cfg.SharedLoads = f.shared
		case "v":
			if f.verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	return cfg, cfg.Validate()
}

func compilerOptions(f *flags) []compiler.Option {
	var opts []compiler.Option
	if f.generator != "" {
		gen, err := filepath.Abs(f.generator)
		if err != nil {
			gen = f.generator
		}
		opts = append(opts, compiler.WithGenerator(gen))
	}
	return opts
}

func compileOnly(ctx context.Context, cfg *config.Config, f *flags, stdout io.Writer) error {
	prog, err := compiler.CompileFile(ctx, cfg.Scene, compilerOptions(f)...)
	if err != nil {
		return err
	}
	if f.list {
		if err := prog.WriteListing(stdout); err != nil {
			return err
		}
	}
	if f.out != "" {
		return writeProgram(f.out, prog)
	}
	return nil
}

func assembleListing(path, out string) error {
	if out == "" {
		return fmt.Errorf("-asm needs -o")
	}
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	prog, err := asm.Assemble(path, r)
	if err != nil {
		return err
	}
	return writeProgram(out, prog)
}

func writeProgram(path string, prog *program.Program) error {
	data, err := prog.MarshalBinary()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newBackend(cfg *config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case backend.NameRaster:
		b := raster.New(cfg.Width, cfg.Height)
		b.SetMaxLights(cfg.MaxLights)
		return b, nil
	case backend.NameTrace:
		return trace.NewWithLights(cfg.MaxLights), nil
	default:
		return backend.New(cfg.Backend)
	}
}

func render(ctx context.Context, cfg *config.Config, f *flags, stdout io.Writer) error {
	b, err := newBackend(cfg)
	if err != nil {
		return err
	}

	opts := []engine.Option{
		engine.WithBackend(b),
		engine.WithFrameInterval(time.Duration(cfg.FrameInterval)),
		engine.WithCompilerOptions(compilerOptions(f)...),
		engine.WithInterpOptions(interp.WithSharedLoads(cfg.SharedLoads)),
	}
	if cfg.Store != "" {
		s, err := progstore.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, engine.WithStore(s))
	}

	e, err := engine.New(cfg.Scene, opts...)
	if err != nil {
		return err
	}
	if cfg.Watch {
		if err := e.Watch(ctx); err != nil {
			return err
		}
	}
	if err := e.Run(ctx, cfg.Frames); err != nil {
		return err
	}

	switch b := b.(type) {
	case *raster.Backend:
		if cfg.Output != "" {
			return b.SavePNG(cfg.Output)
		}
	case *trace.Backend:
		_, err := b.WriteTo(stdout)
		return err
	}
	return nil
}

// fail prints err as a diagnostic, red when stderr is a terminal.
func fail(stderr io.Writer, err error) int {
	out := termenv.NewOutput(stderr)
	prefix := out.String("xscene:").Foreground(out.Color("1")).Bold()

	class := ""
	switch {
	case errors.Is(err, xscene.ErrSchema):
		class = "schema"
	case errors.Is(err, xscene.ErrResource):
		class = "resource"
	case errors.Is(err, xscene.ErrCapacity):
		class = "capacity"
	case errors.Is(err, xscene.ErrDecode):
		class = "program"
	}
	if class != "" {
		fmt.Fprintf(stderr, "%s %s %s\n", prefix, out.String(class+" error:").Bold(), err)
	} else {
		fmt.Fprintf(stderr, "%s %s\n", prefix, err)
	}
	return exitError
}
