package font

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/sdfscene"
)

// testStore creates a store with goregular registered as font 0.
func testStore(t *testing.T) (*Store, int) {
	t.Helper()

	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := s.RegisterBlob(goregular.TTF, "goregular")
	if err != nil {
		t.Fatalf("RegisterBlob: %v", err)
	}
	return s, id
}

func TestRegisterBlob(t *testing.T) {
	s, id := testStore(t)

	if id != 0 {
		t.Errorf("first font ID = %d, want 0", id)
	}
	id2, err := s.RegisterBlob(goregular.TTF, "goregular-again")
	if err != nil {
		t.Fatalf("second RegisterBlob: %v", err)
	}
	if id2 != 1 {
		t.Errorf("second font ID = %d, want 1", id2)
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}

	// Both IDs resolve independently.
	for _, fid := range []int{id, id2} {
		if _, ok := s.Glyph(fid, 'A'); !ok {
			t.Errorf("Glyph(font %d, 'A') not found", fid)
		}
	}
}

func TestRegisterBlobErrors(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := s.RegisterBlob(nil, "empty"); !errors.Is(err, ErrEmptyBlob) {
		t.Errorf("empty blob error = %v, want ErrEmptyBlob", err)
	}
	if _, err := s.RegisterBlob([]byte("definitely not a font"), "junk"); !errors.Is(err, ErrParse) {
		t.Errorf("junk blob error = %v, want ErrParse", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count after failed registrations = %d, want 0", s.Count())
	}
}

func TestGlyphMetrics(t *testing.T) {
	s, id := testStore(t)

	m, ok := s.Glyph(id, 'A')
	if !ok {
		t.Fatal("Glyph('A') not found")
	}
	if m.Advance <= 0 {
		t.Errorf("Advance = %f, want > 0", m.Advance)
	}
	if m.Width <= 0 || m.Height <= 0 {
		t.Errorf("box = %fx%f, want positive", m.Width, m.Height)
	}
	// 'A' sits on the baseline with its top above it.
	if m.BearingY <= 0 {
		t.Errorf("BearingY = %f, want > 0", m.BearingY)
	}

	// 'g' reaches below the baseline.
	g, ok := s.Glyph(id, 'g')
	if !ok {
		t.Fatal("Glyph('g') not found")
	}
	if bottom := g.BearingY - g.Height; bottom >= 0 {
		t.Errorf("'g' bottom = %f, want below baseline", bottom)
	}

	// Metrics are snapped to the 1/64 pixel grid.
	for name, v := range map[string]float32{
		"Advance":  m.Advance,
		"BearingX": m.BearingX,
		"BearingY": m.BearingY,
		"Width":    m.Width,
		"Height":   m.Height,
	} {
		steps := v * 64
		if steps != float32(int32(steps)) {
			t.Errorf("%s = %f is not a multiple of 1/64", name, v)
		}
	}
}

func TestGlyphSpace(t *testing.T) {
	s, id := testStore(t)

	m, ok := s.Glyph(id, ' ')
	if !ok {
		t.Fatal("Glyph(' ') not found")
	}
	if m.Advance <= 0 {
		t.Errorf("space Advance = %f, want > 0", m.Advance)
	}
	if m.Width != 0 || m.Height != 0 {
		t.Errorf("space box = %fx%f, want 0x0", m.Width, m.Height)
	}
}

func TestGlyphSlotAssignment(t *testing.T) {
	s, id := testStore(t)

	want := []rune{'A', 'B', 'C'}
	for i, r := range want {
		m, ok := s.Glyph(id, r)
		if !ok {
			t.Fatalf("Glyph(%q) not found", r)
		}
		if m.Index != uint32(i) {
			t.Errorf("Glyph(%q).Index = %d, want %d", r, m.Index, i)
		}
	}

	// Repeat lookups keep their slot.
	m, ok := s.Glyph(id, 'A')
	if !ok || m.Index != 0 {
		t.Errorf("repeat Glyph('A').Index = %d, want 0", m.Index)
	}

	// Rune inverts the assignment.
	for i, r := range want {
		got, ok := s.Rune(id, uint32(i))
		if !ok || got != r {
			t.Errorf("Rune(%d) = %q,%v, want %q", i, got, ok, r)
		}
	}
	if _, ok := s.Rune(id, 3); ok {
		t.Error("Rune(3) should not resolve, only 3 slots assigned")
	}
	if _, ok := s.Rune(42, 0); ok {
		t.Error("Rune with unknown font ID should not resolve")
	}
}

func TestGlyphMissing(t *testing.T) {
	s, id := testStore(t)

	// Private use area rune that goregular does not cover.
	if _, ok := s.Glyph(id, ''); ok {
		t.Error("private use rune should not resolve")
	}
	// Second lookup hits the miss cache.
	if _, ok := s.Glyph(id, ''); ok {
		t.Error("cached miss should still not resolve")
	}
	// The miss did not consume a slot.
	if m, ok := s.Glyph(id, 'A'); !ok || m.Index != 0 {
		t.Errorf("Glyph('A').Index = %d, want 0 after miss", m.Index)
	}

	if _, ok := s.Glyph(42, 'A'); ok {
		t.Error("unknown font ID should not resolve")
	}
}

func TestBaseSize(t *testing.T) {
	s, id := testStore(t)

	if got := s.BaseSize(id); got != DefaultBaseSize {
		t.Errorf("BaseSize = %f, want %d", got, DefaultBaseSize)
	}
	if got := s.BaseSize(42); got != 0 {
		t.Errorf("BaseSize(unknown) = %f, want 0", got)
	}

	small, err := New(WithBaseSize(16))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sid, err := small.RegisterBlob(goregular.TTF, "goregular")
	if err != nil {
		t.Fatalf("RegisterBlob: %v", err)
	}
	if got := small.BaseSize(sid); got != 16 {
		t.Errorf("BaseSize = %f, want 16", got)
	}

	big, _ := s.Glyph(id, 'M')
	little, _ := small.Glyph(sid, 'M')
	if little.Advance >= big.Advance {
		t.Errorf("advance at 16px = %f, want < advance at 32px = %f",
			little.Advance, big.Advance)
	}

	// Out-of-range option values fall back to the default.
	fallback, err := New(WithBaseSize(-4))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fid, err := fallback.RegisterBlob(goregular.TTF, "goregular")
	if err != nil {
		t.Fatalf("RegisterBlob: %v", err)
	}
	if got := fallback.BaseSize(fid); got != DefaultBaseSize {
		t.Errorf("BaseSize = %f, want %d", got, DefaultBaseSize)
	}
}

func TestAscentDescent(t *testing.T) {
	s, id := testStore(t)

	ascent := s.Ascent(id)
	descent := s.Descent(id)
	if ascent <= 0 {
		t.Errorf("Ascent = %f, want > 0", ascent)
	}
	if descent <= 0 {
		t.Errorf("Descent = %f, want > 0", descent)
	}
	if ascent <= descent {
		t.Errorf("Ascent %f should exceed Descent %f", ascent, descent)
	}
	if s.Ascent(42) != 0 || s.Descent(42) != 0 {
		t.Error("unknown font ID should report zero vertical extents")
	}
}

func TestDefaultFont(t *testing.T) {
	s, err := New(WithDefaultFont(goregular.TTF))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0 (default font is not registered)", s.Count())
	}
	m, ok := s.Glyph(sdfscene.DefaultFontID, 'A')
	if !ok {
		t.Fatal("default font Glyph('A') not found")
	}
	if got := s.BaseSize(sdfscene.DefaultFontID); got != DefaultBaseSize {
		t.Errorf("BaseSize(default) = %f, want %d", got, DefaultBaseSize)
	}
	if r, ok := s.Rune(sdfscene.DefaultFontID, m.Index); !ok || r != 'A' {
		t.Errorf("Rune(default, %d) = %q,%v, want 'A'", m.Index, r, ok)
	}

	// Without a default font the sentinel ID resolves nothing.
	bare, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := bare.Glyph(sdfscene.DefaultFontID, 'A'); ok {
		t.Error("Glyph(default) should not resolve without WithDefaultFont")
	}
	if got := bare.BaseSize(sdfscene.DefaultFontID); got != 0 {
		t.Errorf("BaseSize(default) = %f, want 0 without WithDefaultFont", got)
	}

	// A broken default blob fails construction.
	if _, err := New(WithDefaultFont([]byte("junk"))); !errors.Is(err, ErrParse) {
		t.Errorf("New with junk default = %v, want ErrParse", err)
	}
}

func TestNormalize(t *testing.T) {
	// Combining acute accent composes into a single rune.
	composed := Normalize("é")
	if got := len([]rune(composed)); got != 1 {
		t.Errorf("Normalize(e+combining acute) has %d runes, want 1", got)
	}
	if composed != "é" {
		t.Errorf("Normalize(e+combining acute) = %q, want é", composed)
	}
	if got := Normalize("plain ascii"); got != "plain ascii" {
		t.Errorf("Normalize(ascii) = %q, want unchanged", got)
	}
}

// TestStoreConcurrency exercises parallel lookups against one font. Every
// distinct rune must end up with exactly one slot.
func TestStoreConcurrency(t *testing.T) {
	s, id := testStore(t)

	runes := []rune("The quick brown fox jumps over the lazy dog 0123456789")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, r := range runes {
				if _, ok := s.Glyph(id, r); !ok {
					t.Errorf("Glyph(%q) not found", r)
				}
			}
		}()
	}
	wg.Wait()

	distinct := make(map[rune]struct{})
	for _, r := range runes {
		distinct[r] = struct{}{}
	}
	slots := make(map[uint32]rune)
	for r := range distinct {
		m, ok := s.Glyph(id, r)
		if !ok {
			t.Fatalf("Glyph(%q) not found after concurrent warmup", r)
		}
		if prev, dup := slots[m.Index]; dup {
			t.Fatalf("slot %d assigned to both %q and %q", m.Index, prev, r)
		}
		slots[m.Index] = r
		if m.Index >= uint32(len(distinct)) {
			t.Errorf("slot %d out of range, %d distinct runes", m.Index, len(distinct))
		}
		if got, ok := s.Rune(id, m.Index); !ok || got != r {
			t.Errorf("Rune(%d) = %q,%v, want %q", m.Index, got, ok, r)
		}
	}
	if len(slots) != len(distinct) {
		t.Errorf("assigned %d slots for %d distinct runes", len(slots), len(distinct))
	}
}

// TestStoreWithSceneBuffer runs a store through span shaping in a scene
// builder.
func TestStoreWithSceneBuffer(t *testing.T) {
	store, err := New(WithDefaultFont(goregular.TTF))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	custom, err := store.RegisterBlob(goregular.TTF, "custom")
	if err != nil {
		t.Fatalf("RegisterBlob: %v", err)
	}

	buf := sdfscene.NewBuffer(sdfscene.WithFontSource(store))
	buf.SetBounds(0, 0, 200, 100)
	buf.AddText(10, 50, "Hi", 16, 0xFFFFFFFF, 0)
	buf.AddTextFont(10, 80, "ok", 16, 0xFF00FF00, 0, custom)

	b := sdfscene.NewBuilder(buf, 3)
	if err := b.Calculate(); err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	glyphs := b.Glyphs()
	if len(glyphs) != 4 {
		t.Fatalf("GlyphCount = %d, want 4", len(glyphs))
	}
	if glyphs[1].X <= glyphs[0].X {
		t.Errorf("second glyph X=%f not right of first X=%f", glyphs[1].X, glyphs[0].X)
	}

	// Default font glyphs carry no atlas flag, registered fonts do.
	if glyphs[0].Flags&sdfscene.GlyphFlagCustomAtlas != 0 {
		t.Errorf("default font glyph flags = %#x, want custom atlas bit clear", glyphs[0].Flags)
	}
	if glyphs[2].Flags&sdfscene.GlyphFlagCustomAtlas == 0 {
		t.Errorf("custom font glyph flags = %#x, want custom atlas bit set", glyphs[2].Flags)
	}

	// Slots assign per font in first-lookup order, inverted by Rune.
	if glyphs[0].Index != 0 || glyphs[1].Index != 1 {
		t.Errorf("default font slots = %d,%d, want 0,1", glyphs[0].Index, glyphs[1].Index)
	}
	if r, ok := store.Rune(sdfscene.DefaultFontID, glyphs[0].Index); !ok || r != 'H' {
		t.Errorf("Rune(default, %d) = %q,%v, want 'H'", glyphs[0].Index, r, ok)
	}
	if r, ok := store.Rune(custom, glyphs[2].Index); !ok || r != 'o' {
		t.Errorf("Rune(custom, %d) = %q,%v, want 'o'", glyphs[2].Index, r, ok)
	}
}
