package sdfscene

import (
	"encoding/binary"
	"math"
)

// TextSpan records one text run added to a buffer. Spans are stored as
// source data; glyph records are produced from them during Builder.Calculate
// so that font changes or relocations never require re-adding text.
type TextSpan struct {
	X, Y     float32
	Text     string
	FontSize float32
	Color    uint32
	Layer    uint32

	// FontID selects a registered font blob, or -1 for the default font.
	FontID int
}

// BufferOption configures a Buffer during creation.
type BufferOption func(*bufferOptions)

type bufferOptions struct {
	fonts FontSource
}

// WithFontSource attaches a font source used for text measurement,
// blob registration and glyph shaping.
func WithFontSource(fs FontSource) BufferOption {
	return func(o *bufferOptions) {
		o.fonts = fs
	}
}

// Buffer accumulates SDF primitives and text spans and serializes them into
// the word streams a GPU shader consumes. It holds no GPU resources; the
// Builder moves its content into an Arena.
//
// Primitives are append-only with dense sequential IDs: the ID passed to an
// Add method must equal Len() at the time of the call. This keeps the offset
// table, grid entries and delta stream trivially consistent.
//
// Buffer is not safe for concurrent use.
type Buffer struct {
	// words holds every primitive payload back to back.
	words []uint32

	// offsets holds the start of each primitive in words.
	offsets []uint32

	spans []TextSpan

	bounds    Rect
	hasBounds bool
	bgColor   uint32
	flags     uint32

	fonts FontSource

	// gen increments on every content mutation. The Builder compares
	// generations to detect stale pipeline state.
	gen uint64

	// deltaBase marks how many primitives the last serialization saw.
	deltaBase int
	deltaMode bool
}

// NewBuffer creates an empty buffer.
func NewBuffer(opts ...BufferOption) *Buffer {
	var o bufferOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Buffer{
		words:   make([]uint32, 0, 256),
		offsets: make([]uint32, 0, 32),
		bounds:  EmptyRect(),
		bgColor: 0xFFFFFFFF,
		flags:   DefaultFlags,
		fonts:   o.fonts,
	}
}

// Len returns the number of primitives.
func (b *Buffer) Len() int {
	return len(b.offsets)
}

// SpanCount returns the number of text spans.
func (b *Buffer) SpanCount() int {
	return len(b.spans)
}

// Spans returns the recorded text spans (read-only access for shaping).
func (b *Buffer) Spans() []TextSpan {
	return b.spans
}

// Generation returns a counter that increments on every content change.
func (b *Buffer) Generation() uint64 {
	return b.gen
}

// FontSource returns the attached font source, or nil.
func (b *Buffer) FontSource() FontSource {
	return b.fonts
}

// SetBounds fixes the scene rectangle. Explicit bounds survive Clear and
// suppress the automatic bounds pass during Calculate.
func (b *Buffer) SetBounds(minX, minY, maxX, maxY float32) {
	b.bounds = Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	b.hasBounds = true
	b.gen++
}

// Bounds returns the explicit scene rectangle and whether one is set.
func (b *Buffer) Bounds() (Rect, bool) {
	return b.bounds, b.hasBounds
}

// SetBGColor sets the background color word. Survives Clear.
func (b *Buffer) SetBGColor(c uint32) {
	b.bgColor = c
	b.gen++
}

// BGColor returns the background color word.
func (b *Buffer) BGColor() uint32 {
	return b.bgColor
}

// SetFlags sets the scene flags word. Survives Clear.
func (b *Buffer) SetFlags(f uint32) {
	b.flags = f
	b.gen++
}

// Flags returns the scene flags word.
func (b *Buffer) Flags() uint32 {
	return b.flags
}

// Clear drops primitives, spans and delta state while keeping allocated
// capacity, the explicit bounds, the background color and the flags word.
func (b *Buffer) Clear() {
	b.words = b.words[:0]
	b.offsets = b.offsets[:0]
	b.spans = b.spans[:0]
	b.deltaBase = 0
	b.deltaMode = false
	b.gen++
}

// AddText records a text span using the default font.
func (b *Buffer) AddText(x, y float32, text string, fontSize float32, color, layer uint32) {
	b.AddTextFont(x, y, text, fontSize, color, layer, DefaultFontID)
}

// AddTextFont records a text span using a registered font blob.
// fontID of DefaultFontID (-1) selects the default font.
func (b *Buffer) AddTextFont(x, y float32, text string, fontSize float32, color, layer uint32, fontID int) {
	if text == "" {
		return
	}
	b.spans = append(b.spans, TextSpan{
		X: x, Y: y,
		Text:     text,
		FontSize: fontSize,
		Color:    color,
		Layer:    layer,
		FontID:   fontID,
	})
	b.gen++
}

// AddFontBlob registers a TTF blob with the attached font source and
// returns its font ID for use with AddTextFont.
func (b *Buffer) AddFontBlob(data []byte, name string) (int, error) {
	if b.fonts == nil {
		return 0, ErrNoFontSource
	}
	id, err := b.fonts.RegisterBlob(data, name)
	if err != nil {
		return 0, err
	}
	b.gen++
	return id, nil
}

// MeasureText returns the advance width of text at the given size.
// Without a font source, or for glyphs the source does not know, each
// rune falls back to half the font size.
func (b *Buffer) MeasureText(text string, fontSize float32, fontID int) float32 {
	var width float32
	var scale float32
	if b.fonts != nil {
		if base := b.fonts.BaseSize(fontID); base > 0 {
			scale = fontSize / base
		}
	}
	for _, r := range text {
		if scale > 0 {
			if gm, ok := b.fonts.Glyph(fontID, r); ok {
				width += gm.Advance * scale
				continue
			}
		}
		width += fontSize * 0.5
	}
	return width
}

// Ascent returns the font ascent scaled to fontSize, or 0 without a source.
func (b *Buffer) Ascent(fontSize float32, fontID int) float32 {
	if b.fonts == nil {
		return 0
	}
	base := b.fonts.BaseSize(fontID)
	if base <= 0 {
		return 0
	}
	return b.fonts.Ascent(fontID) * (fontSize / base)
}

// Descent returns the font descent scaled to fontSize, or 0 without a
// source. The value is positive (distance below the baseline).
func (b *Buffer) Descent(fontSize float32, fontID int) float32 {
	if b.fonts == nil {
		return 0
	}
	base := b.fonts.BaseSize(fontID)
	if base <= 0 {
		return 0
	}
	return b.fonts.Descent(fontID) * (fontSize / base)
}

// GPUBufferSize returns the byte size of the primitive region: one offset
// word per primitive followed by all payload words.
func (b *Buffer) GPUBufferSize() uint32 {
	//nolint:gosec // slice lengths are bounded well below 32 bits
	return (uint32(len(b.offsets)) + uint32(len(b.words))) * 4
}

// WriteGPU serializes the primitive region into dst:
//
//	[offset_table: N u32][payload words]
//
// Table entry i is the word offset of primitive i's payload relative to the
// payload base (the word right after the table). The same offsets are
// returned for grid construction. dst must hold GPUBufferSize() bytes.
func (b *Buffer) WriteGPU(dst []byte) ([]uint32, error) {
	need := b.GPUBufferSize()
	if uint32(len(dst)) < need {
		return nil, ErrShortBuffer
	}

	n := len(b.offsets)
	rel := make([]uint32, n)
	for i, off := range b.offsets {
		rel[i] = off
		binary.LittleEndian.PutUint32(dst[i*4:], off)
	}
	base := n * 4
	for i, w := range b.words {
		binary.LittleEndian.PutUint32(dst[base+i*4:], w)
	}
	return rel, nil
}

// PrimWords returns the payload words of primitive i, aliasing the
// buffer's storage. Valid until the next mutation.
func (b *Buffer) PrimWords(i int) []uint32 {
	if i < 0 || i >= len(b.offsets) {
		return nil
	}
	start := b.offsets[i]
	end := uint32(len(b.words))
	if i+1 < len(b.offsets) {
		end = b.offsets[i+1]
	}
	return b.words[start:end]
}

// PrimType returns the type word of primitive i.
func (b *Buffer) PrimType(i int) PrimType {
	w := b.PrimWords(i)
	if len(w) == 0 {
		return primTypeCount
	}
	return PrimType(w[0])
}

// checkID enforces dense sequential primitive IDs.
func (b *Buffer) checkID(id uint32) error {
	//nolint:gosec // primitive count is bounded well below 32 bits
	want := uint32(len(b.offsets))
	if id != want {
		return &PrimIDError{Got: id, Want: want}
	}
	return nil
}

// beginPrim starts a primitive record; callers append payload words via
// the word helpers below.
func (b *Buffer) beginPrim() {
	//nolint:gosec // word slice length is bounded well below 32 bits
	b.offsets = append(b.offsets, uint32(len(b.words)))
	b.gen++
}

func (b *Buffer) putU32(v uint32) {
	b.words = append(b.words, v)
}

func (b *Buffer) putF32(v float32) {
	b.words = append(b.words, math.Float32bits(v))
}
