package scenefile

import (
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/gogpu/sdfscene"
)

// testScene covers every payload section: primitives, odd-length font
// blobs that force padding, default and custom spans with multi-byte
// text, and a rotated span.
func testScene(t *testing.T) *Scene {
	t.Helper()

	b := sdfscene.NewBuffer()
	addPrim(t, b.AddCircle(0, 2, 40, 40, 12, 0xFF0000FF, 0, 0, 0))
	addPrim(t, b.AddBox(1, 3, 90, 40, 10, 8, 0xFF00FF00, 0x80FFFFFF, 1, 2))

	return &Scene{
		BGColor:   0xFF101010,
		Flags:     sdfscene.DefaultFlags | sdfscene.FlagShowGrid,
		PrimCount: 2,
		Words:     bufferWords(b),
		Fonts:     [][]byte{[]byte("AAA"), []byte("BBBBB")},
		FontNames: []string{"alpha", "beta"},
		Spans: []Span{
			{X: 10, Y: 20, FontSize: 16, Color: 0xFFFFFFFF, Layer: 4, FontIndex: -1, Text: "héllo"},
			{X: 10, Y: 44, FontSize: 18, Color: 0xFF00FFFF, Layer: 9, FontIndex: 1, Text: "wörld"},
		},
		Rotated: []RotatedSpan{
			{X: 60, Y: 60, FontSize: 14, Rotation: 1.5, Color: 0xFF0000FF, FontIndex: 0, Text: "spin"},
		},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	src := testScene(t)
	got, err := Decode(Encode(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.BGColor != src.BGColor || got.Flags != src.Flags || got.PrimCount != src.PrimCount {
		t.Errorf("header = (%#x, %#x, %d), want (%#x, %#x, %d)",
			got.BGColor, got.Flags, got.PrimCount, src.BGColor, src.Flags, src.PrimCount)
	}
	if !reflect.DeepEqual(got.Words, src.Words) {
		t.Errorf("Words = %v, want %v", got.Words, src.Words)
	}
	if !reflect.DeepEqual(got.Fonts, src.Fonts) {
		t.Errorf("Fonts = %q, want %q", got.Fonts, src.Fonts)
	}
	if got.FontNames != nil {
		t.Errorf("FontNames = %v, want nil (names do not travel)", got.FontNames)
	}
	if !reflect.DeepEqual(got.Spans, src.Spans) {
		t.Errorf("Spans = %+v, want %+v", got.Spans, src.Spans)
	}
	if !reflect.DeepEqual(got.Rotated, src.Rotated) {
		t.Errorf("Rotated = %+v, want %+v", got.Rotated, src.Rotated)
	}
}

func TestEncode_Layout(t *testing.T) {
	s := &Scene{BGColor: 0xFFFFFFFF, Flags: 16}
	data := Encode(s)

	// header, word count, font count, span counts and blob size, rotated
	// count: five fixed sections, nothing else.
	if len(data) != 40 {
		t.Fatalf("len(data) = %d, want 40", len(data))
	}
	words := []struct {
		off  int
		want uint32
		name string
	}{
		{0, 3, "version"},
		{4, 0, "prim count"},
		{8, 0xFFFFFFFF, "bg color"},
		{12, 16, "flags"},
		{16, 0, "total words"},
		{20, 0, "font count"},
		{24, 0, "default span count"},
		{28, 0, "custom span count"},
		{32, 0, "text blob size"},
		{36, 0, "rotated span count"},
	}
	for _, w := range words {
		if got := binary.LittleEndian.Uint32(data[w.off:]); got != w.want {
			t.Errorf("%s = %d, want %d", w.name, got, w.want)
		}
	}
}

func TestEncode_Alignment(t *testing.T) {
	s := testScene(t)
	data := Encode(s)
	if len(data)%4 != 0 {
		t.Errorf("payload length %d is not word aligned", len(data))
	}

	// Odd-length blobs and text still land every section on a word
	// boundary; decoding proves the cursor stayed in sync.
	if _, err := Decode(data); err != nil {
		t.Errorf("Decode: %v", err)
	}
}

func TestDecode_VersionMismatch(t *testing.T) {
	data := Encode(testScene(t))
	binary.LittleEndian.PutUint32(data, 7)

	if _, err := Decode(data); !errors.Is(err, ErrVersion) {
		t.Errorf("error = %v, want ErrVersion", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := Encode(testScene(t))
	for n := 0; n < len(data); n++ {
		if _, err := Decode(data[:n]); !errors.Is(err, ErrTruncated) {
			t.Fatalf("Decode(%d of %d bytes) error = %v, want ErrTruncated", n, len(data), err)
		}
	}
}

func TestDecode_Corrupt(t *testing.T) {
	t.Run("custom span font index", func(t *testing.T) {
		s := testScene(t)
		s.Spans[1].FontIndex = 5
		if _, err := Decode(Encode(s)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("error = %v, want ErrCorrupt", err)
		}
	})

	t.Run("rotated span font index", func(t *testing.T) {
		s := testScene(t)
		s.Rotated[0].FontIndex = 2
		if _, err := Decode(Encode(s)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("error = %v, want ErrCorrupt", err)
		}
	})

	t.Run("span text range", func(t *testing.T) {
		s := &Scene{
			BGColor: 0xFFFFFFFF,
			Flags:   16,
			Spans:   []Span{{FontSize: 16, FontIndex: -1, Text: "ab"}},
		}
		data := Encode(s)
		// The lone default span starts right after the five counting
		// words; its text length is the seventh field.
		binary.LittleEndian.PutUint32(data[36+24:], 100)
		if _, err := Decode(data); !errors.Is(err, ErrCorrupt) {
			t.Errorf("error = %v, want ErrCorrupt", err)
		}
	})
}

func TestBase64RoundTrip(t *testing.T) {
	src := testScene(t)
	payload := EncodeBase64(src)

	got, err := DecodeBase64(payload)
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if !reflect.DeepEqual(got.Words, src.Words) || !reflect.DeepEqual(got.Spans, src.Spans) {
		t.Error("base64 round trip changed the scene")
	}

	if _, err := DecodeBase64("!!! not base64 !!!"); err == nil || !strings.Contains(err.Error(), "base64") {
		t.Errorf("error = %v, want base64 decode error", err)
	}
}
