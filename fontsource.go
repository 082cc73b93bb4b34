package sdfscene

// DefaultFontID addresses the font source's built-in face in every API
// that takes a font ID. IDs >= 0 refer to fonts registered through
// RegisterBlob.
const DefaultFontID = -1

// GlyphMetrics describes one glyph in the font source's nominal metrics
// size (BaseSize units). Index is the glyph's slot in the atlas metadata
// table and ends up in the packed GPU glyph record.
type GlyphMetrics struct {
	Index    uint32
	BearingX float32
	BearingY float32
	Width    float32
	Height   float32
	Advance  float32
}

// FontSource resolves runes to glyph metrics for shaping and measurement.
// Implementations must be safe for concurrent readers.
type FontSource interface {
	// Glyph returns metrics for r in the given font, in BaseSize units.
	// ok is false when the font has no glyph for r.
	Glyph(fontID int, r rune) (gm GlyphMetrics, ok bool)

	// BaseSize returns the nominal pixel size glyph metrics are expressed
	// in, or 0 for an unknown font ID.
	BaseSize(fontID int) float32

	// Ascent returns the distance from baseline to the top of the tallest
	// glyph, in BaseSize units.
	Ascent(fontID int) float32

	// Descent returns the distance from baseline to the bottom of the
	// deepest glyph, positive, in BaseSize units.
	Descent(fontID int) float32

	// Rune maps a glyph index back to the rune it was assigned for,
	// the inverse of Glyph. Used for selection text extraction.
	Rune(fontID int, index uint32) (rune, bool)

	// RegisterBlob parses a font file held in memory and returns its
	// font ID. name is used for logging and caching only.
	RegisterBlob(data []byte, name string) (int, error)
}
