// Package sdfscene builds GPU-ready scene buffers for 2D SDF rendering.
//
// # Overview
//
// sdfscene accumulates signed-distance-field primitives and text spans on
// the CPU and produces the exact little-endian word streams a GPU shader
// consumes: a primitive region with an offset table, a packed glyph array,
// a uniform spatial hash grid for point queries, and a 64-byte metadata
// header describing where everything lives.
//
// The library never creates GPU resources itself. Allocation goes through
// the Arena and MetadataSink interfaces so the same build pipeline runs
// against an in-memory arena (package alloc), a test fake, or a real
// device-backed allocator (package gpu uploads arena contents via wgpu).
//
// # Quick Start
//
//	buf := sdfscene.NewBuffer()
//	buf.SetBounds(0, 0, 100, 100)
//	_ = buf.AddCircle(0, 0, 50, 50, 10, 0xFFFF0000, 0, 0, 0)
//
//	b := sdfscene.NewBuilder(buf, 0)
//	arena, _ := alloc.New(alloc.DefaultConfig())
//
//	_ = b.Calculate()
//	_ = b.DeclareNeeds(arena)
//	_ = arena.CommitReservations()
//	_ = b.Allocate(arena)
//	_ = b.Write(arena, arena)
//
// # Wire Format
//
// All data is 4-byte little-endian words. Floats are IEEE-754 binary32 bit
// patterns stored in words; glyph sizes use binary16 halves. A primitive is
// [type][layer][geometry...][fill][stroke][strokeWidth][round]; the region
// starts with one offset word per primitive, relative to the payload base.
//
// # Build Phases
//
// Builder enforces a strict phase order against relocating allocators:
// Calculate -> DeclareNeeds -> CommitReservations (caller) -> Allocate ->
// Write. Any content change invalidates the pipeline back to Calculate.
//
// # Coordinate System
//
// Origin (0,0) at top-left, X right, Y down. Text baselines follow the
// same convention: glyph y positions are baseline-relative, bearing up.
package sdfscene

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
