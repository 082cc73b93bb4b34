package scenefile

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Binary payload layout, version 3, little-endian throughout:
//
//	header   { version u32, primCount u32, bgColor u32, flags u32 }
//	u32 totalCompactWords ; compact primitive words
//	u32 fontCount ; per font { u32 dataSize ; data padded to 4 }
//	u32 defaultSpanCount ; u32 customSpanCount ; u32 textBlobSize
//	defaultSpans x32B { x,y,fontSize f32 ; color,layer,textOffset,textLength,pad u32 }
//	customSpans  x32B { x,y,fontSize f32 ; color,fontIndex,layer,textOffset,textLength u32 }
//	text blob padded to 4
//	u32 rotatedSpanCount ; rotatedSpans x32B { x,y,fontSize,rotation f32 ; color,fontIndex,textOffset,textLength u32 }
const payloadVersion = 3

// Encode packs the scene into the version 3 binary payload.
func Encode(s *Scene) []byte {
	var blob []byte
	type textRef struct{ off, n uint32 }
	spanRefs := make([]textRef, len(s.Spans))
	for i, sp := range s.Spans {
		//nolint:gosec // blob sizes are bounded well below 32 bits
		spanRefs[i] = textRef{uint32(len(blob)), uint32(len(sp.Text))}
		blob = append(blob, sp.Text...)
	}
	rotRefs := make([]textRef, len(s.Rotated))
	for i, sp := range s.Rotated {
		//nolint:gosec // blob sizes are bounded well below 32 bits
		rotRefs[i] = textRef{uint32(len(blob)), uint32(len(sp.Text))}
		blob = append(blob, sp.Text...)
	}

	out := binary.LittleEndian.AppendUint32(nil, payloadVersion)
	out = binary.LittleEndian.AppendUint32(out, s.PrimCount)
	out = binary.LittleEndian.AppendUint32(out, s.BGColor)
	out = binary.LittleEndian.AppendUint32(out, s.Flags)

	//nolint:gosec // word counts are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Words)))
	for _, w := range s.Words {
		out = binary.LittleEndian.AppendUint32(out, w)
	}

	//nolint:gosec // font counts are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Fonts)))
	for _, data := range s.Fonts {
		//nolint:gosec // font blobs are bounded well below 4 GiB
		out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
		out = append(out, data...)
		out = pad4(out)
	}

	var defIdx, cusIdx []int
	for i, sp := range s.Spans {
		if sp.FontIndex < 0 {
			defIdx = append(defIdx, i)
		} else {
			cusIdx = append(cusIdx, i)
		}
	}

	//nolint:gosec // span counts are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(defIdx)))
	//nolint:gosec // span counts are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(cusIdx)))
	//nolint:gosec // blob sizes are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(blob)))

	for _, i := range defIdx {
		sp := &s.Spans[i]
		out = appendF32(out, sp.X)
		out = appendF32(out, sp.Y)
		out = appendF32(out, sp.FontSize)
		out = binary.LittleEndian.AppendUint32(out, sp.Color)
		out = binary.LittleEndian.AppendUint32(out, sp.Layer)
		out = binary.LittleEndian.AppendUint32(out, spanRefs[i].off)
		out = binary.LittleEndian.AppendUint32(out, spanRefs[i].n)
		out = binary.LittleEndian.AppendUint32(out, 0)
	}
	for _, i := range cusIdx {
		sp := &s.Spans[i]
		out = appendF32(out, sp.X)
		out = appendF32(out, sp.Y)
		out = appendF32(out, sp.FontSize)
		out = binary.LittleEndian.AppendUint32(out, sp.Color)
		//nolint:gosec // font indices are validated non-negative above
		out = binary.LittleEndian.AppendUint32(out, uint32(sp.FontIndex))
		out = binary.LittleEndian.AppendUint32(out, sp.Layer)
		out = binary.LittleEndian.AppendUint32(out, spanRefs[i].off)
		out = binary.LittleEndian.AppendUint32(out, spanRefs[i].n)
	}

	out = append(out, blob...)
	out = pad4(out)

	//nolint:gosec // span counts are bounded well below 32 bits
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s.Rotated)))
	for i, sp := range s.Rotated {
		out = appendF32(out, sp.X)
		out = appendF32(out, sp.Y)
		out = appendF32(out, sp.FontSize)
		out = appendF32(out, sp.Rotation)
		out = binary.LittleEndian.AppendUint32(out, sp.Color)
		//nolint:gosec // rotated spans always carry a table font
		out = binary.LittleEndian.AppendUint32(out, uint32(sp.FontIndex))
		out = binary.LittleEndian.AppendUint32(out, rotRefs[i].off)
		out = binary.LittleEndian.AppendUint32(out, rotRefs[i].n)
	}
	return out
}

// EncodeBase64 packs the scene and wraps it in standard base64, the form
// embedded in terminal escape payloads.
func EncodeBase64(s *Scene) string {
	return base64.StdEncoding.EncodeToString(Encode(s))
}

// Decode parses a version 3 binary payload.
func Decode(data []byte) (*Scene, error) {
	r := &payloadReader{data: data}

	version, err := r.u32("header")
	if err != nil {
		return nil, err
	}
	if version != payloadVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, version, payloadVersion)
	}
	s := &Scene{}
	if s.PrimCount, err = r.u32("header"); err != nil {
		return nil, err
	}
	if s.BGColor, err = r.u32("header"); err != nil {
		return nil, err
	}
	if s.Flags, err = r.u32("header"); err != nil {
		return nil, err
	}

	totalWords, err := r.u32("primitive words")
	if err != nil {
		return nil, err
	}
	if err := r.need(4*uint64(totalWords), "primitive words"); err != nil {
		return nil, err
	}
	s.Words = make([]uint32, totalWords)
	for i := range s.Words {
		s.Words[i], _ = r.u32("primitive words")
	}

	fontCount, err := r.u32("font table")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < fontCount; i++ {
		size, err := r.u32("font table")
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(uint64(size), "font table")
		if err != nil {
			return nil, err
		}
		s.Fonts = append(s.Fonts, append([]byte(nil), raw...))
		if err := r.skip(uint64(align4(size)-size), "font table"); err != nil {
			return nil, err
		}
	}

	defCount, err := r.u32("span table")
	if err != nil {
		return nil, err
	}
	cusCount, err := r.u32("span table")
	if err != nil {
		return nil, err
	}
	textSize, err := r.u32("span table")
	if err != nil {
		return nil, err
	}

	type spanRec struct {
		span   Span
		off, n uint32
	}
	recs := make([]spanRec, 0, defCount+cusCount)
	if err := r.need(32*uint64(defCount), "default spans"); err != nil {
		return nil, err
	}
	for i := uint32(0); i < defCount; i++ {
		var rec spanRec
		rec.span.FontIndex = -1
		rec.span.X, _ = r.f32("default spans")
		rec.span.Y, _ = r.f32("default spans")
		rec.span.FontSize, _ = r.f32("default spans")
		rec.span.Color, _ = r.u32("default spans")
		rec.span.Layer, _ = r.u32("default spans")
		rec.off, _ = r.u32("default spans")
		rec.n, _ = r.u32("default spans")
		if _, err := r.u32("default spans"); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := r.need(32*uint64(cusCount), "custom spans"); err != nil {
		return nil, err
	}
	for i := uint32(0); i < cusCount; i++ {
		var rec spanRec
		rec.span.X, _ = r.f32("custom spans")
		rec.span.Y, _ = r.f32("custom spans")
		rec.span.FontSize, _ = r.f32("custom spans")
		rec.span.Color, _ = r.u32("custom spans")
		fontIndex, _ := r.u32("custom spans")
		rec.span.Layer, _ = r.u32("custom spans")
		rec.off, _ = r.u32("custom spans")
		if rec.n, err = r.u32("custom spans"); err != nil {
			return nil, err
		}
		if fontIndex >= fontCount {
			return nil, fmt.Errorf("%w: custom span %d references font %d of %d",
				ErrCorrupt, i, fontIndex, fontCount)
		}
		rec.span.FontIndex = int(fontIndex)
		recs = append(recs, rec)
	}

	blob, err := r.bytes(uint64(textSize), "text blob")
	if err != nil {
		return nil, err
	}
	if err := r.skip(uint64(align4(textSize)-textSize), "text blob"); err != nil {
		return nil, err
	}
	for i := range recs {
		rec := &recs[i]
		if uint64(rec.off)+uint64(rec.n) > uint64(textSize) {
			return nil, fmt.Errorf("%w: span text range %d+%d exceeds blob size %d",
				ErrCorrupt, rec.off, rec.n, textSize)
		}
		rec.span.Text = string(blob[rec.off : rec.off+rec.n])
		s.Spans = append(s.Spans, rec.span)
	}

	rotCount, err := r.u32("rotated spans")
	if err != nil {
		return nil, err
	}
	if err := r.need(32*uint64(rotCount), "rotated spans"); err != nil {
		return nil, err
	}
	for i := uint32(0); i < rotCount; i++ {
		var sp RotatedSpan
		sp.X, _ = r.f32("rotated spans")
		sp.Y, _ = r.f32("rotated spans")
		sp.FontSize, _ = r.f32("rotated spans")
		sp.Rotation, _ = r.f32("rotated spans")
		sp.Color, _ = r.u32("rotated spans")
		fontIndex, _ := r.u32("rotated spans")
		off, _ := r.u32("rotated spans")
		n, err := r.u32("rotated spans")
		if err != nil {
			return nil, err
		}
		if fontIndex >= fontCount {
			return nil, fmt.Errorf("%w: rotated span %d references font %d of %d",
				ErrCorrupt, i, fontIndex, fontCount)
		}
		if uint64(off)+uint64(n) > uint64(textSize) {
			return nil, fmt.Errorf("%w: span text range %d+%d exceeds blob size %d",
				ErrCorrupt, off, n, textSize)
		}
		sp.FontIndex = int(fontIndex)
		sp.Text = string(blob[off : off+n])
		s.Rotated = append(s.Rotated, sp)
	}
	return s, nil
}

// DecodeBase64 unwraps a standard base64 payload and decodes it.
func DecodeBase64(payload string) (*Scene, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("scenefile: base64 payload: %w", err)
	}
	return Decode(raw)
}

// payloadReader is a bounds-checked little-endian cursor. Every read
// names the section so truncation errors say where the payload ended.
type payloadReader struct {
	data []byte
	pos  int
}

func (r *payloadReader) need(n uint64, section string) error {
	if uint64(r.pos)+n > uint64(len(r.data)) {
		return fmt.Errorf("%w: %s at byte %d", ErrTruncated, section, r.pos)
	}
	return nil
}

func (r *payloadReader) u32(section string) (uint32, error) {
	if err := r.need(4, section); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *payloadReader) f32(section string) (float32, error) {
	v, err := r.u32(section)
	return math.Float32frombits(v), err
}

func (r *payloadReader) bytes(n uint64, section string) ([]byte, error) {
	if err := r.need(n, section); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *payloadReader) skip(n uint64, section string) error {
	if err := r.need(n, section); err != nil {
		return err
	}
	r.pos += int(n)
	return nil
}

func appendF32(out []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
}

func pad4(out []byte) []byte {
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out
}

func align4(v uint32) uint32 { return (v + 3) &^ 3 }
