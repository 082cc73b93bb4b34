package sdfscene

import (
	"encoding/binary"
	"fmt"
)

// Delta stream opcodes.
const (
	deltaOpUpsert byte = 0
	deltaOpRemove byte = 1
)

// Serialize packs the primitive stream for transmission:
//
//	[primCount u32][totalWords u32][payload words...]
//
// Little-endian throughout. Text spans, bounds and background color are
// not included; the scenefile package carries full-scene interchange.
// The first Serialize arms delta mode: later SerializeDelta calls emit
// only primitives appended since the previous snapshot.
func (b *Buffer) Serialize() []byte {
	out := make([]byte, 8+4*len(b.words))
	//nolint:gosec // prim and word counts are bounded well below 32 bits
	binary.LittleEndian.PutUint32(out[0:], uint32(len(b.offsets)))
	//nolint:gosec // prim and word counts are bounded well below 32 bits
	binary.LittleEndian.PutUint32(out[4:], uint32(len(b.words)))
	for i, w := range b.words {
		binary.LittleEndian.PutUint32(out[8+4*i:], w)
	}
	b.deltaMode = true
	b.deltaBase = len(b.offsets)
	return out
}

// Deserialize replaces the primitive stream with one produced by
// Serialize. Primitives are re-appended in stream order with fresh
// sequential IDs. Spans, bounds, background and flags are untouched.
//
// An unknown type tag stops the scan at the last valid primitive, which
// keeps partial streams from newer producers loadable.
func (b *Buffer) Deserialize(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: header truncated", ErrCorruptStream)
	}
	primCount := binary.LittleEndian.Uint32(data[0:])
	totalWords := binary.LittleEndian.Uint32(data[4:])
	if uint64(len(data)) < 8+4*uint64(totalWords) {
		return fmt.Errorf("%w: payload truncated", ErrCorruptStream)
	}

	b.words = b.words[:0]
	b.offsets = b.offsets[:0]
	b.deltaBase = 0
	b.deltaMode = false
	b.gen++

	pos := uint32(0)
	for i := uint32(0); i < primCount && pos < totalWords; i++ {
		t := PrimType(binary.LittleEndian.Uint32(data[8+4*pos:]))
		wc := t.WordCount()
		if wc == 0 {
			slogger().Warn("scene stream stopped at unknown primitive type",
				"type", uint32(t),
				"loaded", len(b.offsets),
				"declared", primCount)
			break
		}
		if pos+wc > totalWords {
			break
		}
		b.beginPrim()
		for w := pos; w < pos+wc; w++ {
			b.putU32(binary.LittleEndian.Uint32(data[8+4*w:]))
		}
		pos += wc
	}
	return nil
}

// SerializeDelta emits primitives appended since the last Serialize or
// SerializeDelta as a stream of upsert ops:
//
//	[opCount u32] then per op: 0x00 [id u32][wordCount u32][words...]
//
// Call Serialize first; without an armed delta base the full stream is
// the only valid snapshot and SerializeDelta returns nil.
func (b *Buffer) SerializeDelta() []byte {
	if !b.deltaMode {
		return nil
	}
	n := len(b.offsets) - b.deltaBase
	if n < 0 {
		n = 0
	}
	size := 4
	for i := b.deltaBase; i < len(b.offsets); i++ {
		size += 9 + 4*len(b.PrimWords(i))
	}
	out := make([]byte, 4, size)
	binary.LittleEndian.PutUint32(out[0:], uint32(n)) //nolint:gosec // bounded by prim count

	var scratch [8]byte
	for i := b.deltaBase; i < len(b.offsets); i++ {
		words := b.PrimWords(i)
		out = append(out, deltaOpUpsert)
		binary.LittleEndian.PutUint32(scratch[0:], uint32(i))          //nolint:gosec // bounded by prim count
		binary.LittleEndian.PutUint32(scratch[4:], uint32(len(words))) //nolint:gosec // word counts are small
		out = append(out, scratch[:]...)
		for _, w := range words {
			binary.LittleEndian.PutUint32(scratch[0:], w)
			out = append(out, scratch[:4]...)
		}
	}
	b.deltaBase = len(b.offsets)
	return out
}

// ApplyDelta applies a delta stream produced by SerializeDelta. Upserts
// must either append at the current count or overwrite an existing
// primitive with the same word count; remove ops are rejected because
// the store is append-only with dense IDs.
func (b *Buffer) ApplyDelta(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: delta header truncated", ErrCorruptStream)
	}
	opCount := binary.LittleEndian.Uint32(data[0:])
	pos := 4

	for op := uint32(0); op < opCount; op++ {
		if pos >= len(data) {
			return fmt.Errorf("%w: delta op %d truncated", ErrCorruptStream, op)
		}
		switch data[pos] {
		case deltaOpUpsert:
			if pos+9 > len(data) {
				return fmt.Errorf("%w: delta op %d truncated", ErrCorruptStream, op)
			}
			id := binary.LittleEndian.Uint32(data[pos+1:])
			wc := binary.LittleEndian.Uint32(data[pos+5:])
			pos += 9
			if wc == 0 || uint64(pos)+4*uint64(wc) > uint64(len(data)) {
				return fmt.Errorf("%w: delta op %d payload truncated", ErrCorruptStream, op)
			}
			t := PrimType(binary.LittleEndian.Uint32(data[pos:]))
			if t.WordCount() != wc {
				return fmt.Errorf("%w: delta op %d: %s has %d words, got %d",
					ErrCorruptStream, op, t, t.WordCount(), wc)
			}
			if err := b.applyUpsert(id, data[pos:pos+int(4*wc)], wc); err != nil {
				return err
			}
			pos += int(4 * wc)
		case deltaOpRemove:
			return fmt.Errorf("%w: remove op unsupported for append-only store", ErrCorruptStream)
		default:
			return fmt.Errorf("%w: delta op %d has unknown opcode %d", ErrCorruptStream, op, data[pos])
		}
	}
	return nil
}

// applyUpsert appends a primitive at the current count or overwrites an
// existing one in place when word counts agree.
func (b *Buffer) applyUpsert(id uint32, payload []byte, wc uint32) error {
	switch {
	case id == uint32(len(b.offsets)): //nolint:gosec // bounded by prim count
		b.beginPrim()
		for w := uint32(0); w < wc; w++ {
			b.putU32(binary.LittleEndian.Uint32(payload[4*w:]))
		}
		return nil
	case id < uint32(len(b.offsets)): //nolint:gosec // bounded by prim count
		words := b.PrimWords(int(id))
		if uint32(len(words)) != wc { //nolint:gosec // word counts are small
			return fmt.Errorf("%w: upsert %d resizes primitive from %d to %d words",
				ErrCorruptStream, id, len(words), wc)
		}
		for w := uint32(0); w < wc; w++ {
			words[w] = binary.LittleEndian.Uint32(payload[4*w:])
		}
		b.gen++
		return nil
	default:
		return fmt.Errorf("%w: upsert %d skips ahead of count %d",
			ErrCorruptStream, id, len(b.offsets))
	}
}
