package font

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/sdfscene"
)

var (
	// ErrEmptyBlob is returned by RegisterBlob for a nil or empty font blob.
	ErrEmptyBlob = errors.New("font: empty font blob")

	// ErrParse is returned when a blob cannot be parsed as TTF or OTF data.
	ErrParse = errors.New("font: cannot parse font blob")
)

// DefaultBaseSize is the pixel size glyph metrics are computed at when no
// WithBaseSize option is given.
const DefaultBaseSize = 32

// maxGlyphSlots bounds per-font atlas slots; glyph records store the slot
// index in 16 bits.
const maxGlyphSlots = 1 << 16

// Store loads TTF and OTF font blobs and serves scaled glyph metrics.
//
// Fonts register once and receive dense integer IDs starting at zero.
// Atlas slots are assigned per font in first-lookup order, and Rune
// inverts the assignment. The zero value is not usable; construct with
// [New]. All methods are safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	baseSize float32
	fonts    []*fontEntry
	def      *fontEntry
}

var _ sdfscene.FontSource = (*Store)(nil)

// fontEntry holds one parsed font with its lazily grown glyph tables.
type fontEntry struct {
	name string
	face *font.Face
	upem float32

	// Vertical extents in font units, scaled on access.
	ascentUnits  float32
	descentUnits float32

	// metrics caches resolved glyphs. runes is the slot-to-rune inverse:
	// a rune's slot equals its insertion index. misses remembers runes
	// the font has no cmap entry for.
	metrics map[rune]sdfscene.GlyphMetrics
	runes   []rune
	misses  map[rune]struct{}
}

type config struct {
	baseSize    float32
	defaultBlob []byte
	defaultName string
}

// Option configures a Store created by New.
type Option func(*config)

// WithBaseSize sets the pixel size glyph metrics are computed at.
// Values at or below zero fall back to DefaultBaseSize.
func WithBaseSize(px float32) Option {
	return func(c *config) { c.baseSize = px }
}

// WithDefaultFont registers a font blob that serves lookups for
// [sdfscene.DefaultFontID]. The slice is copied during New and can be
// reused by the caller.
func WithDefaultFont(data []byte) Option {
	return func(c *config) {
		c.defaultBlob = data
		c.defaultName = "default"
	}
}

// New creates a font store. The returned error is non-nil only when a
// WithDefaultFont blob fails to parse.
func New(opts ...Option) (*Store, error) {
	cfg := config{baseSize: DefaultBaseSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.baseSize <= 0 {
		cfg.baseSize = DefaultBaseSize
	}

	s := &Store{baseSize: cfg.baseSize}
	if cfg.defaultBlob != nil {
		entry, err := parseBlob(cfg.defaultBlob, cfg.defaultName)
		if err != nil {
			return nil, err
		}
		s.def = entry
		sdfscene.Logger().Info("font registered",
			"name", entry.name, "id", sdfscene.DefaultFontID, "upem", entry.upem)
	}
	return s, nil
}

// RegisterBlob parses a TTF or OTF blob and registers it under the next
// dense font ID. The data slice is copied and can be reused by the caller.
// Registering the same blob twice yields two independent IDs.
func (s *Store) RegisterBlob(data []byte, name string) (int, error) {
	entry, err := parseBlob(data, name)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	id := len(s.fonts)
	s.fonts = append(s.fonts, entry)
	s.mu.Unlock()

	sdfscene.Logger().Info("font registered", "name", entry.name, "id", id, "upem", entry.upem)
	return id, nil
}

// Count returns the number of fonts registered with RegisterBlob. The
// default font, when set, is not counted.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fonts)
}

// Glyph returns metrics for r in the given font, scaled to the store's
// base pixel size. The returned Index is the font's atlas slot for r,
// assigned in first-lookup order. It reports false when the font ID is
// unknown or the font has no cmap entry for r.
func (s *Store) Glyph(fontID int, r rune) (sdfscene.GlyphMetrics, bool) {
	s.mu.RLock()
	e := s.entry(fontID)
	if e == nil {
		s.mu.RUnlock()
		return sdfscene.GlyphMetrics{}, false
	}
	if gm, ok := e.metrics[r]; ok {
		s.mu.RUnlock()
		return gm, true
	}
	if _, miss := e.misses[r]; miss {
		s.mu.RUnlock()
		return sdfscene.GlyphMetrics{}, false
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e = s.entry(fontID)
	if e == nil {
		return sdfscene.GlyphMetrics{}, false
	}
	return s.resolveLocked(e, r)
}

// BaseSize returns the pixel size metrics are computed at, or 0 for an
// unknown font ID.
func (s *Store) BaseSize(fontID int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry(fontID) == nil {
		return 0
	}
	return s.baseSize
}

// Ascent returns the distance from the baseline to the typographic top of
// the font at the base size, or 0 for an unknown font ID.
func (s *Store) Ascent(fontID int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entry(fontID)
	if e == nil {
		return 0
	}
	return quantize(e.ascentUnits * s.baseSize / e.upem)
}

// Descent returns the distance from the baseline to the typographic bottom
// of the font at the base size as a positive value, or 0 for an unknown
// font ID.
func (s *Store) Descent(fontID int) float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entry(fontID)
	if e == nil {
		return 0
	}
	return quantize(e.descentUnits * s.baseSize / e.upem)
}

// Rune returns the rune assigned to an atlas slot of the given font,
// inverting the assignment made by Glyph.
func (s *Store) Rune(fontID int, index uint32) (rune, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entry(fontID)
	if e == nil || index >= uint32(len(e.runes)) {
		return 0, false
	}
	return e.runes[index], true
}

// entry resolves a font ID to its entry, or nil when unknown.
// Caller must hold mu (read or write).
func (s *Store) entry(fontID int) *fontEntry {
	if fontID == sdfscene.DefaultFontID {
		return s.def
	}
	if fontID < 0 || fontID >= len(s.fonts) {
		return nil
	}
	return s.fonts[fontID]
}

// resolveLocked computes and caches metrics for r, assigning the next atlas
// slot. Caller must hold mu for writing: it mutates the entry tables and
// touches the face, which is not safe for concurrent use.
func (s *Store) resolveLocked(e *fontEntry, r rune) (sdfscene.GlyphMetrics, bool) {
	if gm, ok := e.metrics[r]; ok {
		return gm, true
	}
	if _, miss := e.misses[r]; miss {
		return sdfscene.GlyphMetrics{}, false
	}

	gid, ok := e.face.Cmap.Lookup(r)
	if !ok {
		e.misses[r] = struct{}{}
		sdfscene.Logger().Warn("missing glyph metrics", "font", e.name, "rune", string(r))
		return sdfscene.GlyphMetrics{}, false
	}
	if len(e.runes) >= maxGlyphSlots {
		sdfscene.Logger().Warn("glyph slot table full", "font", e.name, "slots", len(e.runes))
		return sdfscene.GlyphMetrics{}, false
	}

	scale := s.baseSize / e.upem

	// Glyphs without an outline (space and other whitespace) keep a zero
	// box but still carry their advance.
	var bearingX, bearingY, width, height float32
	if ext, ok := e.face.GlyphExtents(gid); ok {
		bearingX = ext.XBearing * scale
		bearingY = ext.YBearing * scale
		width = ext.Width * scale
		// Extents follow the shaping convention: Height extends downward
		// from YBearing as a negative value.
		height = -ext.Height * scale
	}

	slot := uint32(len(e.runes))
	gm := sdfscene.GlyphMetrics{
		Index:    slot,
		BearingX: quantize(bearingX),
		BearingY: quantize(bearingY),
		Width:    quantize(width),
		Height:   quantize(height),
		Advance:  quantize(e.face.HorizontalAdvance(gid) * scale),
	}
	e.metrics[r] = gm
	e.runes = append(e.runes, r)
	return gm, true
}

// parseBlob copies and parses a font blob into a ready entry.
func parseBlob(data []byte, name string) (*fontEntry, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBlob
	}
	if name == "" {
		name = "unnamed"
	}

	// Copy so the caller can reuse its slice; the parsed font keeps
	// references into the blob.
	blob := make([]byte, len(data))
	copy(blob, data)

	face, err := font.ParseTTF(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, name, err)
	}

	upem := float32(face.Upem())
	if upem == 0 {
		upem = 1000
	}

	e := &fontEntry{
		name:    name,
		face:    face,
		upem:    upem,
		metrics: make(map[rune]sdfscene.GlyphMetrics),
		misses:  make(map[rune]struct{}),
	}
	if fe, ok := face.FontHExtents(); ok {
		e.ascentUnits = fe.Ascender
		e.descentUnits = -fe.Descender
	} else {
		e.ascentUnits = 0.8 * upem
		e.descentUnits = 0.2 * upem
	}
	return e, nil
}

// Normalize returns s in Unicode NFC form, composing combining sequences
// so each user-visible character maps to a single cmap lookup.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// floatToFixed converts a pixel value to 26.6 fixed point, rounding to the
// nearest 1/64 pixel.
func floatToFixed(v float32) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(float64(v) * 64))
}

// fixedToFloat converts a 26.6 fixed-point value back to pixels.
func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}

// quantize snaps a pixel metric to the 1/64 pixel grid of 26.6 fixed point.
func quantize(v float32) float32 {
	return fixedToFloat(floatToFixed(v))
}
