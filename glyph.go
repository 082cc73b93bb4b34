package sdfscene

import (
	"encoding/binary"
	"math"
)

// GlyphRecordSize is the wire size of one glyph record in bytes.
const GlyphRecordSize = 20

// Per-glyph flag bits (bits 24-31 of the packed index word).
const (
	// GlyphFlagCustomAtlas marks glyphs shaped from a registered font
	// blob rather than the default font.
	GlyphFlagCustomAtlas uint8 = 1

	// GlyphFlagSelected marks glyphs inside the current selection range.
	GlyphFlagSelected uint8 = 2
)

// Glyph is one positioned glyph, 20 bytes on the wire (5 words):
//
//	word 0: x (f32)
//	word 1: y (f32)
//	word 2: width (f16 low) | height (f16 high)
//	word 3: glyph index (u16) | layer (u8 << 16) | flags (u8 << 24)
//	word 4: color
//
// x,y locate the glyph quad's top-left in scene coordinates; width and
// height are the scaled quad size.
type Glyph struct {
	X, Y          float32
	Width, Height float32
	Index         uint32
	Layer         uint32
	Flags         uint8
	Color         uint32
}

// Encode writes the 20-byte wire form into dst.
func (g Glyph) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(g.X))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(g.Y))
	wh := uint32(floatToHalf(g.Width)) | uint32(floatToHalf(g.Height))<<16
	binary.LittleEndian.PutUint32(dst[8:], wh)
	ilf := g.Index&0xFFFF | (g.Layer&0xFF)<<16 | uint32(g.Flags)<<24
	binary.LittleEndian.PutUint32(dst[12:], ilf)
	binary.LittleEndian.PutUint32(dst[16:], g.Color)
}

// DecodeGlyph reads the 20-byte wire form from src.
func DecodeGlyph(src []byte) Glyph {
	wh := binary.LittleEndian.Uint32(src[8:])
	ilf := binary.LittleEndian.Uint32(src[12:])
	return Glyph{
		X:      math.Float32frombits(binary.LittleEndian.Uint32(src[0:])),
		Y:      math.Float32frombits(binary.LittleEndian.Uint32(src[4:])),
		Width:  halfToFloat(uint16(wh)),
		Height: halfToFloat(uint16(wh >> 16)),
		Index:  ilf & 0xFFFF,
		Layer:  (ilf >> 16) & 0xFF,
		Flags:  uint8(ilf >> 24),
		Color:  binary.LittleEndian.Uint32(src[16:]),
	}
}

// floatToHalf converts binary32 to binary16 by truncation. Out-of-range
// exponents clamp to zero or infinity; mantissa bits beyond 10 are
// dropped, matching the shader-side decoder exactly.
func floatToHalf(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int32((b>>23)&0xFF) - 127 + 15
	mant := uint16(b>>13) & 0x3FF
	switch {
	case exp <= 0:
		return sign
	case exp >= 31:
		return sign | 31<<10
	}
	//nolint:gosec // exp is in [1,30] here
	return sign | uint16(exp)<<10 | mant
}

// halfToFloat converts binary16 to binary32. Subnormals decode to zero,
// matching the encoder.
func halfToFloat(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1F
	mant := uint32(h) & 0x3FF
	switch exp {
	case 0:
		return math.Float32frombits(sign)
	case 31:
		return math.Float32frombits(sign | 0x7F800000)
	}
	return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
}

// Grid entry encoding. The top bit distinguishes glyphs from primitives;
// shaders branch on it before resolving the payload.
const glyphEntryBit = 0x80000000

// IsGlyphEntry reports whether a grid entry references a glyph record.
func IsGlyphEntry(entry uint32) bool {
	return entry&glyphEntryBit != 0
}

// GlyphIndexOf extracts the glyph record index from a glyph grid entry.
func GlyphIndexOf(entry uint32) uint32 {
	return entry &^ glyphEntryBit
}

// PrimOffsetOf extracts the payload word offset (relative to the payload
// base) from a primitive grid entry.
func PrimOffsetOf(entry uint32) uint32 {
	return entry
}

// glyphEntry packs a glyph record index into a grid entry.
func glyphEntry(index uint32) uint32 {
	return index | glyphEntryBit
}
