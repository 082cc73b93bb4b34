package scenefile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/sdfscene"
)

var (
	// ErrColor is returned for color strings that are not #RGB, #RRGGBB
	// or #RRGGBBAA.
	ErrColor = errors.New("scenefile: invalid color")

	// ErrVersion is returned for binary payloads with an unsupported
	// version word.
	ErrVersion = errors.New("scenefile: unsupported payload version")

	// ErrTruncated is returned when a binary payload ends inside a
	// section.
	ErrTruncated = errors.New("scenefile: truncated payload")

	// ErrCorrupt is returned when a binary payload is long enough but
	// internally inconsistent, such as a span pointing outside the text
	// blob.
	ErrCorrupt = errors.New("scenefile: corrupt payload")
)

// Span is one unrotated text run. FontIndex selects a font from the
// scene's font table; a negative index selects the renderer's default
// font.
type Span struct {
	X, Y      float32
	FontSize  float32
	Color     uint32
	Layer     uint32
	FontIndex int
	Text      string
}

// RotatedSpan is a text run rotated around its anchor, in radians.
// Rotated runs always reference a font from the scene's font table.
type RotatedSpan struct {
	X, Y      float32
	FontSize  float32
	Rotation  float32
	Color     uint32
	FontIndex int
	Text      string
}

// Scene is a device-independent scene description: a compact primitive
// word stream plus text runs and the font blobs they reference. Scenes
// come from YAML via [Load] or from binary payloads via [Decode], and
// replay into a live buffer with [Scene.Apply].
type Scene struct {
	BGColor   uint32
	Flags     uint32
	PrimCount uint32
	Words     []uint32

	// Fonts holds raw TTF/OTF blobs indexed by span FontIndex.
	// FontNames carries display names when known; decoded payloads
	// leave it empty.
	Fonts     [][]byte
	FontNames []string

	Spans   []Span
	Rotated []RotatedSpan
}

// Apply replays the scene into buf: primitives and spans replace the
// buffer's current content, background color and flags are overwritten,
// and scene fonts are registered with the buffer's font source. Explicit
// buffer bounds survive.
//
// Scenes with fonts or custom spans need a buffer constructed with a
// font source. Rotated spans have no buffer representation and are
// skipped with a warning; they stay available on the Scene.
func (s *Scene) Apply(buf *sdfscene.Buffer) error {
	buf.Clear()

	frame := make([]byte, 8+4*len(s.Words))
	binary.LittleEndian.PutUint32(frame[0:], s.PrimCount)
	//nolint:gosec // word counts are bounded well below 32 bits
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(s.Words)))
	for i, w := range s.Words {
		binary.LittleEndian.PutUint32(frame[8+4*i:], w)
	}
	if err := buf.Deserialize(frame); err != nil {
		return fmt.Errorf("scenefile: apply primitives: %w", err)
	}

	buf.SetBGColor(s.BGColor)
	buf.SetFlags(s.Flags)

	ids := make([]int, len(s.Fonts))
	for i, blob := range s.Fonts {
		name := fmt.Sprintf("font-%d", i)
		if i < len(s.FontNames) && s.FontNames[i] != "" {
			name = s.FontNames[i]
		}
		id, err := buf.AddFontBlob(blob, name)
		if err != nil {
			return fmt.Errorf("scenefile: register font %q: %w", name, err)
		}
		ids[i] = id
	}

	for _, sp := range s.Spans {
		fontID := sdfscene.DefaultFontID
		if sp.FontIndex >= 0 {
			if sp.FontIndex >= len(ids) {
				sdfscene.Logger().Warn("text span skipped",
					"reason", "font index out of range",
					"font_index", sp.FontIndex,
					"fonts", len(ids))
				continue
			}
			fontID = ids[sp.FontIndex]
		}
		buf.AddTextFont(sp.X, sp.Y, sp.Text, sp.FontSize, sp.Color, sp.Layer, fontID)
	}

	if len(s.Rotated) > 0 {
		sdfscene.Logger().Warn("rotated spans skipped",
			"count", len(s.Rotated))
	}
	return nil
}
