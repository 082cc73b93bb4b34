package sdfscene

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Phase is the build pipeline stage a Builder is in. Phases advance in
// order; re-entry to an earlier phase happens only through Calculate.
type Phase uint32

const (
	PhaseUncomputed Phase = iota
	PhaseCalculated
	PhaseNeedsDeclared
	PhaseAllocated
	PhaseWritten
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUncomputed:
		return "Uncomputed"
	case PhaseCalculated:
		return "Calculated"
	case PhaseNeedsDeclared:
		return "NeedsDeclared"
	case PhaseAllocated:
		return "Allocated"
	case PhaseWritten:
		return "Written"
	default:
		return "Unknown"
	}
}

// Scope names for the two buffer regions a builder allocates.
const (
	// ScopePrims holds the offset table followed by primitive payloads.
	ScopePrims = "prims"

	// ScopeDerived holds the grid word stream followed by glyph records.
	ScopeDerived = "derived"
)

// BuilderOption configures a Builder during creation.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	grid       GridConfig
	autoBounds bool
}

// WithGridConfig overrides the default grid tuning.
func WithGridConfig(cfg GridConfig) BuilderOption {
	return func(o *builderOptions) {
		o.grid = cfg
	}
}

// WithAutoBounds lets Calculate derive scene bounds from content when the
// buffer has no explicit bounds: the union of primitive AABBs and glyph
// quads padded by 5% per dimension, falling back to 0..100 for an empty
// scene. Without this option an unconfigured scene fails Calculate.
func WithAutoBounds() BuilderOption {
	return func(o *builderOptions) {
		o.autoBounds = true
	}
}

// Builder turns one Buffer into GPU-resident data: it shapes text spans
// into glyph records, computes primitive AABBs and scene bounds, builds
// the spatial hash grid, and drives the declare/allocate/write protocol
// against an Arena.
//
// The pipeline is a strict phase machine:
//
//	Calculate -> DeclareNeeds -> (arena commit) -> Allocate -> Write
//
// Write may repeat (selection or view changes re-write in place). Any
// buffer mutation invalidates the build; the next call must be Calculate.
// A Builder is owned by a single goroutine.
type Builder struct {
	buf  *Buffer
	slot uint32

	grid       GridConfig
	autoBounds bool

	phase Phase
	gen   uint64

	glyphs     []Glyph
	glyphFonts []int
	gridWords  []uint32
	bounds     Rect
	dims       gridDims
	customFont bool

	primBytes  uint32
	gridBytes  uint32
	glyphBytes uint32

	prims   Handle
	derived Handle
	meta    MetadataHandle

	widthCells  uint32
	heightCells uint32
	viewZoom    float32
	viewPanX    float32
	viewPanY    float32

	sorted           []uint32
	selStart, selEnd int32
}

// NewBuilder creates a builder for buf. slot keys the builder's arena
// allocations and must be unique among builders sharing an arena.
func NewBuilder(buf *Buffer, slot uint32, opts ...BuilderOption) *Builder {
	o := builderOptions{grid: DefaultGridConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder{
		buf:        buf,
		slot:       slot,
		grid:       o.grid,
		autoBounds: o.autoBounds,
		viewZoom:   1,
		selStart:   -1,
		selEnd:     -1,
	}
}

// Phase returns the current pipeline phase.
func (b *Builder) Phase() Phase {
	return b.phase
}

// Invalidate forces the pipeline back to the start. Calculate does this
// implicitly; Invalidate exists for callers that want to release the
// staged build without running another one.
func (b *Builder) Invalidate() {
	b.phase = PhaseUncomputed
}

// Bounds returns the scene bounds resolved by the last Calculate.
func (b *Builder) Bounds() Rect {
	return b.bounds
}

// GridWidth returns the grid width in cells from the last Calculate.
func (b *Builder) GridWidth() uint32 { return b.dims.width }

// GridHeight returns the grid height in cells from the last Calculate.
func (b *Builder) GridHeight() uint32 { return b.dims.height }

// CellSize returns the grid cell size from the last Calculate.
func (b *Builder) CellSize() float32 { return b.dims.cellSize }

// GlyphCount returns the number of glyph records staged by Calculate.
func (b *Builder) GlyphCount() int { return len(b.glyphs) }

// Glyphs returns the staged glyph records. The slice is owned by the
// builder and valid until the next Calculate.
func (b *Builder) Glyphs() []Glyph {
	return b.glyphs
}

// MetadataSlot returns the metadata slot index shaders use to address
// this scene, valid after the first Write.
func (b *Builder) MetadataSlot() uint32 {
	return b.meta.SlotIndex()
}

// SetViewport records the scene's terminal-cell footprint, packed into
// the metadata header. Takes effect at the next Write or FlushMetadata.
func (b *Builder) SetViewport(widthCells, heightCells uint32) {
	b.widthCells = widthCells
	b.heightCells = heightCells
}

// SetView sets the view zoom and pan packed into the metadata header.
// Pan is in scene units. This adjusts only how the consumer samples the
// scene; the grid is not rebuilt. Takes effect at the next Write or
// FlushMetadata.
func (b *Builder) SetView(zoom, panX, panY float32) {
	b.viewZoom = zoom
	b.viewPanX = panX
	b.viewPanY = panY
}

// Calculate shapes text spans into glyph records, resolves scene bounds,
// and builds the spatial hash grid into staging. It restarts the
// pipeline and may be called in any phase.
//
// Returns ErrNoBounds when bounds were never configured and auto-bounds
// is off. A missing font is soft: the span contributes zero glyphs and
// the build proceeds.
func (b *Builder) Calculate() error {
	if !b.buf.hasBounds && !b.autoBounds {
		b.phase = PhaseUncomputed
		return ErrNoBounds
	}

	b.shapeSpans()

	n := b.buf.Len()
	aabbs := make([]Rect, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		aabbs[i], valid[i] = aabbForPrim(b.buf.PrimWords(i))
	}

	if b.buf.hasBounds {
		b.bounds = b.buf.bounds
	} else {
		b.bounds = contentBounds(aabbs, valid, b.glyphs)
	}

	b.dims = computeGridDims(b.grid, b.bounds, aabbs, valid, b.glyphs)
	b.gridWords = buildGrid(b.dims, b.bounds, aabbs, valid, b.buf.offsets, b.glyphs)

	b.primBytes = b.buf.GPUBufferSize()
	//nolint:gosec // staging lengths are bounded well below 32 bits
	b.gridBytes = uint32(4 * len(b.gridWords))
	//nolint:gosec // staging lengths are bounded well below 32 bits
	b.glyphBytes = uint32(GlyphRecordSize * len(b.glyphs))

	b.gen = b.buf.Generation()
	b.phase = PhaseCalculated

	slogger().Debug("scene calculated",
		"prims", n,
		"glyphs", len(b.glyphs),
		"grid_w", b.dims.width,
		"grid_h", b.dims.height,
		"cell_size", b.dims.cellSize)
	return nil
}

// shapeSpans expands the buffer's text spans into glyph records.
func (b *Builder) shapeSpans() {
	b.glyphs = b.glyphs[:0]
	b.glyphFonts = b.glyphFonts[:0]
	b.sorted = nil
	b.selStart, b.selEnd = -1, -1
	b.customFont = false

	spans := b.buf.Spans()
	if len(spans) == 0 {
		return
	}
	fonts := b.buf.FontSource()
	for _, span := range spans {
		var base float32
		if fonts != nil {
			base = fonts.BaseSize(span.FontID)
		}
		if base <= 0 {
			slogger().Warn("text span skipped",
				"err", ErrMissingFont,
				"font_id", span.FontID,
				"runes", len(span.Text))
			continue
		}
		scale := span.FontSize / base
		var flags uint8
		if span.FontID >= 0 {
			flags |= GlyphFlagCustomAtlas
			b.customFont = true
		}
		penX := span.X
		for _, r := range span.Text {
			gm, ok := fonts.Glyph(span.FontID, r)
			if !ok {
				penX += span.FontSize * 0.5
				continue
			}
			b.glyphs = append(b.glyphs, Glyph{
				X:      penX + gm.BearingX*scale,
				Y:      span.Y - gm.BearingY*scale,
				Width:  gm.Width * scale,
				Height: gm.Height * scale,
				Index:  gm.Index,
				Layer:  span.Layer,
				Flags:  flags,
				Color:  span.Color,
			})
			b.glyphFonts = append(b.glyphFonts, span.FontID)
			penX += gm.Advance * scale
		}
	}
}

// contentBounds unions primitive AABBs and glyph quads, pads by 5% per
// dimension, and falls back to 0..100 per degenerate axis.
func contentBounds(aabbs []Rect, valid []bool, glyphs []Glyph) Rect {
	r := EmptyRect()
	for i, a := range aabbs {
		if valid[i] {
			r = r.Union(a)
		}
	}
	for _, g := range glyphs {
		r = r.UnionPoint(g.X, g.Y)
		r = r.UnionPoint(g.X+g.Width, g.Y+g.Height)
	}
	padX := r.Width() * 0.05
	padY := r.Height() * 0.05
	r.MinX -= padX
	r.MaxX += padX
	r.MinY -= padY
	r.MaxY += padY
	if r.MinX >= r.MaxX {
		r.MinX, r.MaxX = 0, 100
	}
	if r.MinY >= r.MaxY {
		r.MinY, r.MaxY = 0, 100
	}
	return r
}

// DeclareNeeds reserves arena space for the staged build: one region for
// the primitive stream and one for grid plus glyphs. The caller must run
// arena.CommitReservations before Allocate.
func (b *Builder) DeclareNeeds(arena Arena) error {
	if b.phase != PhaseCalculated {
		return &PhaseError{Op: "DeclareNeeds", Got: b.phase, Want: PhaseCalculated}
	}
	if b.gen != b.buf.Generation() {
		return ErrStaleBuild
	}
	if b.primBytes > 0 {
		arena.Reserve(b.primBytes)
	}
	if derived := b.gridBytes + b.glyphBytes; derived > 0 {
		arena.Reserve(derived)
	}
	b.phase = PhaseNeedsDeclared
	return nil
}

// Allocate binds arena handles for the regions declared by DeclareNeeds.
// Failures wrap ErrAllocation; the previously written build, if any,
// remains authoritative.
func (b *Builder) Allocate(arena Arena) error {
	if b.phase != PhaseNeedsDeclared {
		return &PhaseError{Op: "Allocate", Got: b.phase, Want: PhaseNeedsDeclared}
	}
	if b.gen != b.buf.Generation() {
		return ErrStaleBuild
	}

	b.prims = Handle{}
	if b.primBytes > 0 {
		h, err := arena.AllocateBuffer(b.slot, ScopePrims, b.primBytes)
		if err != nil {
			return fmt.Errorf("%w: %s slot %d: %v", ErrAllocation, ScopePrims, b.slot, err)
		}
		b.prims = h
	}

	b.derived = Handle{}
	if derived := b.gridBytes + b.glyphBytes; derived > 0 {
		h, err := arena.AllocateBuffer(b.slot, ScopeDerived, derived)
		if err != nil {
			return fmt.Errorf("%w: %s slot %d: %v", ErrAllocation, ScopeDerived, b.slot, err)
		}
		b.derived = h
	}

	b.phase = PhaseAllocated
	return nil
}

// Write serializes the staged build into the allocated regions and
// publishes the 64-byte metadata header through the sink. Callable again
// in the Written phase to flush selection or flag changes.
func (b *Builder) Write(arena Arena, sink MetadataSink) error {
	if b.phase != PhaseAllocated && b.phase != PhaseWritten {
		return &PhaseError{Op: "Write", Got: b.phase, Want: PhaseAllocated}
	}
	if b.gen != b.buf.Generation() {
		return ErrStaleBuild
	}

	if b.prims.Valid() {
		dst := arena.Bytes(b.prims)
		if dst == nil {
			return fmt.Errorf("%w: stale %s handle", ErrAllocation, ScopePrims)
		}
		if _, err := b.buf.WriteGPU(dst); err != nil {
			return err
		}
		arena.MarkDirty(b.prims)
	}

	if b.derived.Valid() {
		dst := arena.Bytes(b.derived)
		if dst == nil {
			return fmt.Errorf("%w: stale %s handle", ErrAllocation, ScopeDerived)
		}
		if len(dst) < int(b.gridBytes+b.glyphBytes) {
			return ErrShortBuffer
		}
		for i, w := range b.gridWords {
			binary.LittleEndian.PutUint32(dst[4*i:], w)
		}
		off := int(b.gridBytes)
		for _, g := range b.glyphs {
			g.Encode(dst[off:])
			off += GlyphRecordSize
		}
		arena.MarkDirty(b.derived)
	}

	if !b.meta.Valid() {
		h, err := sink.AllocateMetadata(MetadataSize)
		if err != nil {
			return fmt.Errorf("%w: metadata: %v", ErrAllocation, err)
		}
		b.meta = h
	}
	enc := b.metadata().Encode()
	if err := sink.WriteMetadata(b.meta, enc[:]); err != nil {
		return fmt.Errorf("%w: metadata: %v", ErrAllocation, err)
	}

	b.phase = PhaseWritten
	return nil
}

// FlushMetadata re-publishes the metadata header without touching buffer
// regions. Used after SetView or SetViewport on a written build.
func (b *Builder) FlushMetadata(sink MetadataSink) error {
	if b.phase != PhaseWritten {
		return &PhaseError{Op: "FlushMetadata", Got: b.phase, Want: PhaseWritten}
	}
	enc := b.metadata().Encode()
	if err := sink.WriteMetadata(b.meta, enc[:]); err != nil {
		return fmt.Errorf("%w: metadata: %v", ErrAllocation, err)
	}
	return nil
}

// metadata assembles the header for the current build. View zoom packs
// into the high half of the flags word as f16; pan packs into the high
// halves of widthCells/heightCells as signed 1.14 fixed point of the
// scene extent.
func (b *Builder) metadata() Metadata {
	flags := b.buf.Flags() & 0xFFFF
	if b.customFont {
		flags |= FlagCustomAtlas
	}
	flags |= uint32(floatToHalf(b.viewZoom)) << 16

	contentW := max32(b.bounds.Width(), 1e-6)
	contentH := max32(b.bounds.Height(), 1e-6)
	panX := packPan(b.viewPanX / contentW)
	panY := packPan(b.viewPanY / contentH)

	var primOff, gridOff, glyphOff uint32
	if b.prims.Valid() {
		primOff = b.prims.Offset / 4
	}
	if b.derived.Valid() {
		gridOff = b.derived.Offset / 4
		glyphOff = (b.derived.Offset + b.gridBytes) / 4
	}

	return Metadata{
		PrimitiveOffset: primOff,
		PrimitiveCount:  uint32(b.buf.Len()), //nolint:gosec // prim count fits the offset table
		GridOffset:      gridOff,
		GridWidth:       b.dims.width,
		GridHeight:      b.dims.height,
		CellSize:        b.dims.cellSize,
		GlyphOffset:     glyphOff,
		GlyphCount:      uint32(len(b.glyphs)), //nolint:gosec // bounded by span lengths
		SceneMinX:       b.bounds.MinX,
		SceneMinY:       b.bounds.MinY,
		SceneMaxX:       b.bounds.MaxX,
		SceneMaxY:       b.bounds.MaxY,
		WidthCells:      b.widthCells&0xFFFF | uint32(panX)<<16,
		HeightCells:     b.heightCells&0xFFFF | uint32(panY)<<16,
		Flags:           flags,
		BGColor:         b.buf.BGColor(),
	}
}

// packPan quantizes a pan fraction to a signed 16-bit value with 14
// fractional bits.
func packPan(frac float32) uint16 {
	v := float64(frac) * 16384.0
	if v < -32768 {
		v = -32768
	} else if v > 32767 {
		v = 32767
	}
	return uint16(int16(v)) //nolint:gosec // clamped to int16 range above
}

// BuildGlyphSortedOrder sorts the staged glyphs into reading order
// (by Y, then X). Call once after Calculate, before the selection calls.
func (b *Builder) BuildGlyphSortedOrder() {
	b.sorted = make([]uint32, len(b.glyphs))
	for i := range b.sorted {
		b.sorted[i] = uint32(i) //nolint:gosec // glyph count bounded by span lengths
	}
	sort.SliceStable(b.sorted, func(i, j int) bool {
		a, c := b.glyphs[b.sorted[i]], b.glyphs[b.sorted[j]]
		if a.Y != c.Y {
			return a.Y < c.Y
		}
		return a.X < c.X
	})
}

// FindNearestGlyph returns the sorted-order index of the glyph whose
// center is nearest to the scene position, or -1 when there are no
// glyphs. BuildGlyphSortedOrder must run first.
func (b *Builder) FindNearestGlyph(sceneX, sceneY float32) int32 {
	best := int32(-1)
	bestD := float32(math.MaxFloat32)
	for si, gi := range b.sorted {
		g := b.glyphs[gi]
		dx := sceneX - (g.X + g.Width*0.5)
		dy := sceneY - (g.Y + g.Height*0.5)
		if d := dx*dx + dy*dy; d < bestD {
			bestD = d
			best = int32(si) //nolint:gosec // sorted length equals glyph count
		}
	}
	return best
}

// SetSelectionRange marks glyphs in the inclusive sorted-order range with
// GlyphFlagSelected and clears the flag elsewhere. Pass (-1, -1) to clear
// the selection. Re-run Write to publish the changed records.
func (b *Builder) SetSelectionRange(startSorted, endSorted int32) {
	if startSorted > endSorted {
		startSorted, endSorted = endSorted, startSorted
	}
	b.selStart, b.selEnd = startSorted, endSorted
	for si, gi := range b.sorted {
		g := &b.glyphs[gi]
		g.Flags &^= GlyphFlagSelected
		//nolint:gosec // sorted length equals glyph count
		if s := int32(si); startSorted >= 0 && s >= startSorted && s <= endSorted {
			g.Flags |= GlyphFlagSelected
		}
	}
}

// SelectedText extracts the selected glyph range as text in reading
// order, resolving glyph indices back to runes through the font source.
// Line breaks are inserted when the selection crosses rows. Returns ""
// without a selection or a font source.
func (b *Builder) SelectedText() string {
	if b.selStart < 0 || b.selEnd < b.selStart || len(b.sorted) == 0 {
		return ""
	}
	fonts := b.buf.FontSource()
	if fonts == nil {
		return ""
	}
	var sb strings.Builder
	var lastY, lastH float32
	first := true
	for si := b.selStart; si <= b.selEnd && int(si) < len(b.sorted); si++ {
		gi := b.sorted[si]
		g := b.glyphs[gi]
		if !first && g.Y > lastY+lastH*0.5 {
			sb.WriteByte('\n')
		}
		first = false
		lastY, lastH = g.Y, g.Height
		r, ok := fonts.Rune(b.glyphFonts[gi], g.Index)
		if !ok {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
