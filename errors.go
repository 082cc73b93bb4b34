package sdfscene

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocation reports that the arena could not satisfy the
	// declared reservations. The builder keeps its last written state.
	ErrAllocation = errors.New("sdfscene: buffer allocation failed")

	// ErrMissingFont reports that a text span referenced a font the
	// font source does not know. Shaping skips the span.
	ErrMissingFont = errors.New("sdfscene: font not available")

	// ErrNoFontSource reports a font operation on a buffer constructed
	// without a font source.
	ErrNoFontSource = errors.New("sdfscene: no font source attached")

	// ErrShortBuffer reports a destination too small for the data.
	ErrShortBuffer = errors.New("sdfscene: destination buffer too small")

	// ErrCorruptStream reports malformed serialized scene data.
	ErrCorruptStream = errors.New("sdfscene: corrupt scene stream")

	// ErrNoBounds reports a Calculate call on a scene whose bounds were
	// never configured, with auto-bounds disabled.
	ErrNoBounds = errors.New("sdfscene: scene bounds not set")

	// ErrStaleBuild reports a pipeline call after the buffer changed;
	// the caller must restart at Calculate.
	ErrStaleBuild = errors.New("sdfscene: buffer modified since calculate")
)

// PhaseError reports a build-pipeline call made out of order.
type PhaseError struct {
	Op   string
	Got  Phase
	Want Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("sdfscene: %s called in phase %s, want %s", e.Op, e.Got, e.Want)
}

// PrimIDError reports a primitive added with a non-sequential ID.
// IDs must equal the primitive count at the time of the call.
type PrimIDError struct {
	Got  uint32
	Want uint32
}

func (e *PrimIDError) Error() string {
	return fmt.Sprintf("sdfscene: primitive id %d out of order, want %d", e.Got, e.Want)
}
