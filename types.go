package sdfscene

// PrimType identifies an SDF primitive in the GPU word stream.
// The numeric values are part of the wire format: shaders switch on the
// type word to select a distance function.
type PrimType uint32

const (
	PrimCircle PrimType = iota
	PrimBox
	PrimSegment
	PrimTriangle
	PrimBezier2
	PrimBezier3
	PrimEllipse
	PrimArc
	PrimRoundedBox
	PrimRhombus
	PrimPentagon
	PrimHexagon
	PrimStar
	PrimPie
	PrimRing
	PrimHeart
	PrimCross
	PrimRoundedX
	PrimCapsule
	PrimMoon
	PrimEgg

	primTypeCount
)

// Every primitive payload is laid out as
// [type][layer][geometry...][fill][stroke][strokeWidth][round],
// so the word count is geometry words + 6.
var primWordCounts = [primTypeCount]uint32{
	PrimCircle:     9,
	PrimBox:        10,
	PrimSegment:    10,
	PrimTriangle:   12,
	PrimBezier2:    12,
	PrimBezier3:    14,
	PrimEllipse:    10,
	PrimArc:        12,
	PrimRoundedBox: 14,
	PrimRhombus:    10,
	PrimPentagon:   9,
	PrimHexagon:    9,
	PrimStar:       11,
	PrimPie:        11,
	PrimRing:       12,
	PrimHeart:      9,
	PrimCross:      11,
	PrimRoundedX:   10,
	PrimCapsule:    11,
	PrimMoon:       11,
	PrimEgg:        10,
}

var primTypeNames = [primTypeCount]string{
	PrimCircle:     "Circle",
	PrimBox:        "Box",
	PrimSegment:    "Segment",
	PrimTriangle:   "Triangle",
	PrimBezier2:    "Bezier2",
	PrimBezier3:    "Bezier3",
	PrimEllipse:    "Ellipse",
	PrimArc:        "Arc",
	PrimRoundedBox: "RoundedBox",
	PrimRhombus:    "Rhombus",
	PrimPentagon:   "Pentagon",
	PrimHexagon:    "Hexagon",
	PrimStar:       "Star",
	PrimPie:        "Pie",
	PrimRing:       "Ring",
	PrimHeart:      "Heart",
	PrimCross:      "Cross",
	PrimRoundedX:   "RoundedX",
	PrimCapsule:    "Capsule",
	PrimMoon:       "Moon",
	PrimEgg:        "Egg",
}

// WordCount returns the number of 4-byte words a primitive of this type
// occupies in the stream, or 0 for types this package does not know.
// A zero count terminates compact-stream scans.
func (t PrimType) WordCount() uint32 {
	if t >= primTypeCount {
		return 0
	}
	return primWordCounts[t]
}

// String returns the primitive type name.
func (t PrimType) String() string {
	if t >= primTypeCount {
		return "Unknown"
	}
	return primTypeNames[t]
}

// Scene flag bits stored in the metadata flags word (low 16 bits).
const (
	// FlagShowBounds draws the scene bounds rectangle.
	FlagShowBounds uint32 = 1 << 0

	// FlagShowGrid overlays the spatial grid cells.
	FlagShowGrid uint32 = 1 << 1

	// FlagShowEvalCount tints pixels by per-pixel evaluation count.
	FlagShowEvalCount uint32 = 1 << 2

	// FlagUniformScale marks scenes whose width and height map to the
	// same device scale. Set by default.
	FlagUniformScale uint32 = 1 << 4

	// FlagCustomAtlas marks scenes with glyphs from a registered font
	// blob rather than the default atlas.
	FlagCustomAtlas uint32 = 1 << 5
)

// DefaultFlags is the flags word a fresh buffer starts with.
const DefaultFlags = FlagUniformScale
