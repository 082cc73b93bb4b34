package sdfscene

import (
	"encoding/binary"
	"math"
)

// MetadataSize is the byte size of the per-scene GPU metadata header.
const MetadataSize = 64

// Metadata is the 64-byte scene header consumed by the shader. All buffer
// offsets are in 4-byte words relative to the start of the storage arena.
type Metadata struct {
	PrimitiveOffset uint32
	PrimitiveCount  uint32
	GridOffset      uint32
	GridWidth       uint32
	GridHeight      uint32
	CellSize        float32
	GlyphOffset     uint32
	GlyphCount      uint32
	SceneMinX       float32
	SceneMinY       float32
	SceneMaxX       float32
	SceneMaxY       float32
	WidthCells      uint32
	HeightCells     uint32
	Flags           uint32
	BGColor         uint32
}

// Encode packs the header into its 16-word little-endian GPU layout.
func (m Metadata) Encode() [MetadataSize]byte {
	var out [MetadataSize]byte
	words := [16]uint32{
		m.PrimitiveOffset,
		m.PrimitiveCount,
		m.GridOffset,
		m.GridWidth,
		m.GridHeight,
		math.Float32bits(m.CellSize),
		m.GlyphOffset,
		m.GlyphCount,
		math.Float32bits(m.SceneMinX),
		math.Float32bits(m.SceneMinY),
		math.Float32bits(m.SceneMaxX),
		math.Float32bits(m.SceneMaxY),
		m.WidthCells,
		m.HeightCells,
		m.Flags,
		m.BGColor,
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// DecodeMetadata reads a header previously produced by Encode.
// Returns ErrShortBuffer when b holds fewer than MetadataSize bytes.
func DecodeMetadata(b []byte) (Metadata, error) {
	if len(b) < MetadataSize {
		return Metadata{}, ErrShortBuffer
	}
	var words [16]uint32
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return Metadata{
		PrimitiveOffset: words[0],
		PrimitiveCount:  words[1],
		GridOffset:      words[2],
		GridWidth:       words[3],
		GridHeight:      words[4],
		CellSize:        math.Float32frombits(words[5]),
		GlyphOffset:     words[6],
		GlyphCount:      words[7],
		SceneMinX:       math.Float32frombits(words[8]),
		SceneMinY:       math.Float32frombits(words[9]),
		SceneMaxX:       math.Float32frombits(words[10]),
		SceneMaxY:       math.Float32frombits(words[11]),
		WidthCells:      words[12],
		HeightCells:     words[13],
		Flags:           words[14],
		BGColor:         words[15],
	}, nil
}
