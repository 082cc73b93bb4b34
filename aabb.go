package sdfscene

import "math"

// Rect is an axis-aligned rectangle in scene coordinates.
type Rect struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// EmptyRect returns an empty rectangle (inverted bounds for union operations).
func EmptyRect() Rect {
	return Rect{
		MinX: math.MaxFloat32,
		MinY: math.MaxFloat32,
		MaxX: -math.MaxFloat32,
		MaxY: -math.MaxFloat32,
	}
}

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		MinX: min32(r.MinX, other.MinX),
		MinY: min32(r.MinY, other.MinY),
		MaxX: max32(r.MaxX, other.MaxX),
		MaxY: max32(r.MaxY, other.MaxY),
	}
}

// UnionPoint expands the rectangle to include the point.
func (r Rect) UnionPoint(x, y float32) Rect {
	return Rect{
		MinX: min32(r.MinX, x),
		MinY: min32(r.MinY, y),
		MaxX: max32(r.MaxX, x),
		MaxY: max32(r.MaxY, y),
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxX - r.MinX
}

// Height returns the height of the rectangle.
func (r Rect) Height() float32 {
	if r.IsEmpty() {
		return 0
	}
	return r.MaxY - r.MinY
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// aabbForPrim computes the conservative bounding rectangle of one
// primitive payload. Every box grows by half the stroke width; shapes
// with rounding grow by their effective round. Reports false for types
// this package does not know, which excludes them from grid and bounds
// passes.
func aabbForPrim(words []uint32) (Rect, bool) {
	if len(words) < 2 {
		return Rect{}, false
	}
	t := PrimType(words[0])
	wc := t.WordCount()
	if wc == 0 || uint32(len(words)) < wc {
		return Rect{}, false
	}

	// Geometry floats sit between the layer word and the trailing
	// [fill][stroke][strokeWidth][round] block.
	p := func(i int) float32 { return math.Float32frombits(words[2+i]) }
	strokeWidth := math.Float32frombits(words[wc-2])
	round := math.Float32frombits(words[wc-1])
	expand := strokeWidth * 0.5

	var r Rect
	switch t {
	case PrimCircle:
		rad := p(2) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad}
	case PrimBox:
		hw := p(2) + round + expand
		hh := p(3) + round + expand
		r = Rect{p(0) - hw, p(1) - hh, p(0) + hw, p(1) + hh}
	case PrimSegment:
		r = Rect{
			min32(p(0), p(2)) - expand, min32(p(1), p(3)) - expand,
			max32(p(0), p(2)) + expand, max32(p(1), p(3)) + expand,
		}
	case PrimTriangle, PrimBezier2:
		r = Rect{
			min32(min32(p(0), p(2)), p(4)) - expand,
			min32(min32(p(1), p(3)), p(5)) - expand,
			max32(max32(p(0), p(2)), p(4)) + expand,
			max32(max32(p(1), p(3)), p(5)) + expand,
		}
	case PrimBezier3:
		r = Rect{
			min32(min32(p(0), p(2)), min32(p(4), p(6))) - expand,
			min32(min32(p(1), p(3)), min32(p(5), p(7))) - expand,
			max32(max32(p(0), p(2)), max32(p(4), p(6))) + expand,
			max32(max32(p(1), p(3)), max32(p(5), p(7))) + expand,
		}
	case PrimEllipse:
		r = Rect{
			p(0) - p(2) - expand, p(1) - p(3) - expand,
			p(0) + p(2) + expand, p(1) + p(3) + expand,
		}
	case PrimArc:
		rad := max32(p(4), p(5)) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad}
	case PrimRoundedBox:
		maxR := max32(max32(p(4), p(5)), max32(p(6), p(7)))
		hw := p(2) + maxR + expand
		hh := p(3) + maxR + expand
		r = Rect{p(0) - hw, p(1) - hh, p(0) + hw, p(1) + hh}
	case PrimRhombus:
		hw := p(2) + expand
		hh := p(3) + expand
		r = Rect{p(0) - hw, p(1) - hh, p(0) + hw, p(1) + hh}
	case PrimPentagon, PrimHexagon, PrimStar:
		rad := p(2) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad}
	case PrimPie:
		rad := p(4) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad}
	case PrimRing:
		rad := p(4) + p(5) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad}
	case PrimHeart:
		s := p(2)*1.5 + expand
		r = Rect{p(0) - s, p(1) - s, p(0) + s, p(1) + s}
	case PrimCross:
		hw := max32(p(2), p(3)) + expand
		r = Rect{p(0) - hw, p(1) - hw, p(0) + hw, p(1) + hw}
	case PrimRoundedX:
		s := p(2) + p(3) + expand
		r = Rect{p(0) - s, p(1) - s, p(0) + s, p(1) + s}
	case PrimCapsule:
		rad := p(4) + expand
		r = Rect{
			min32(p(0), p(2)) - rad, min32(p(1), p(3)) - rad,
			max32(p(0), p(2)) + rad, max32(p(1), p(3)) + rad,
		}
	case PrimMoon:
		// The inner circle is offset by d along +X.
		rad := max32(p(3), p(4)) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad + p(2), p(1) + rad}
	case PrimEgg:
		// The tip extends the lower bound by ra.
		rad := max32(p(2), p(3)) + expand
		r = Rect{p(0) - rad, p(1) - rad, p(0) + rad, p(1) + rad + p(2)}
	default:
		return Rect{}, false
	}
	return r, true
}
