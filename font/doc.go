// Package font implements a glyph metrics store backed by parsed TTF and
// OTF font files.
//
// A [Store] registers font blobs once, assigns dense font IDs, and serves
// scaled glyph metrics with stable atlas slot indices. It implements
// [sdfscene.FontSource], letting scene buffers resolve text spans into
// positioned glyph records without full shaping machinery.
//
// Metrics are computed at a fixed base pixel size and snapped to 1/64
// pixel, the 26.6 fixed-point grid glyph atlases are built on. Slots are
// assigned per font in first-lookup order; [Store.Rune] inverts the
// mapping for atlas rebuilds and debugging.
package font
