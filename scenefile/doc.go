// Package scenefile loads and saves portable scene descriptions.
//
// A [Scene] is the interchange form of a scene buffer: compact primitive
// words plus text spans, embedded font blobs, background color, and render
// flags. Two encodings are supported.
//
// The YAML form is authored by hand. A document carries an optional
// background color, render flags, and a body list of shape and text
// entries; [Load] and [LoadReader] parse it by replaying each entry
// through a [sdfscene.Buffer] so defaults and layer numbering match the
// buffer writers exactly.
//
// The binary form is the version 3 payload emitted for transport: a
// little-endian stream holding the header, primitive words, font blobs,
// and span tables. [Encode] and [Decode] convert between a Scene and the
// raw bytes; [EncodeBase64] and [DecodeBase64] add the base64 wrapping
// used when the payload is embedded in an escape sequence.
//
// [Scene.Apply] replays a loaded scene into a live buffer, registering
// fonts through the buffer's font source and re-adding text spans.
package scenefile
