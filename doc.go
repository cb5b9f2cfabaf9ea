// Package xscene renders hierarchical 3D scenes described in XML by
// compiling them into a flat instruction program and replaying that
// program every frame against an immediate-mode backend.
//
// # Overview
//
// A scene document names a camera, lights, and nested groups of
// transforms and models. The compiler walks the document once and
// produces a [program.Program]: a header (camera, projection, lights)
// followed by balanced BEGIN_GROUP/END_GROUP blocks. The interpreter
// replays that program once per frame. The first (cold) pass loads
// meshes, textures and animation curves into a positional cache; every
// later (warm) pass reuses them.
//
// # Quick Start
//
//	prog, err := compiler.CompileFile(ctx, "solar.xml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	b, _ := backend.New("raster")
//	in := interp.New(b, interp.WithBaseDir("scenes"))
//	st := interp.NewState(interp.NewWallClock())
//	for range 60 {
//		if err := in.Run(prog, st); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// # Architecture
//
//   - tree: XML scene tree and typed attribute reader
//   - program: opcode catalog, instruction variants, float32 stream codec
//   - compiler: scene tree to program
//   - interp: interpreter state, clocks and the per-frame replay
//   - cache: positional resource cache
//   - backend: backend interface, registry, trace and raster backends
//
// This package holds what every sub-package shares: the logger and the
// error taxonomy ([ErrSchema], [ErrResource], [ErrCapacity], [ErrDecode]).
package xscene

// Version is the current version of the library.
const Version = "0.1.0"
