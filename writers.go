package sdfscene

// Per-type append methods. Every method validates the dense primitive ID,
// then appends the exact wire layout:
// [type][layer][geometry...][fill][stroke][strokeWidth][round].

// AddCircle appends a circle (9 words): center, radius.
func (b *Buffer) AddCircle(id, layer uint32, cx, cy, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimCircle))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddBox appends an axis-aligned box (10 words): center, half extents.
func (b *Buffer) AddBox(id, layer uint32, cx, cy, hw, hh float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimBox))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(hw)
	b.putF32(hh)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddSegment appends a line segment (10 words): two endpoints.
func (b *Buffer) AddSegment(id, layer uint32, x0, y0, x1, y1 float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimSegment))
	b.putU32(layer)
	b.putF32(x0)
	b.putF32(y0)
	b.putF32(x1)
	b.putF32(y1)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddTriangle appends a triangle (12 words): three vertices.
func (b *Buffer) AddTriangle(id, layer uint32, ax, ay, bx, by, cx, cy float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimTriangle))
	b.putU32(layer)
	b.putF32(ax)
	b.putF32(ay)
	b.putF32(bx)
	b.putF32(by)
	b.putF32(cx)
	b.putF32(cy)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddBezier2 appends a quadratic bezier (12 words): start, control, end.
func (b *Buffer) AddBezier2(id, layer uint32, x0, y0, x1, y1, x2, y2 float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimBezier2))
	b.putU32(layer)
	b.putF32(x0)
	b.putF32(y0)
	b.putF32(x1)
	b.putF32(y1)
	b.putF32(x2)
	b.putF32(y2)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddBezier3 appends a cubic bezier (14 words): start, two controls, end.
func (b *Buffer) AddBezier3(id, layer uint32, x0, y0, x1, y1, x2, y2, x3, y3 float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimBezier3))
	b.putU32(layer)
	b.putF32(x0)
	b.putF32(y0)
	b.putF32(x1)
	b.putF32(y1)
	b.putF32(x2)
	b.putF32(y2)
	b.putF32(x3)
	b.putF32(y3)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddEllipse appends an ellipse (10 words): center, two radii.
func (b *Buffer) AddEllipse(id, layer uint32, cx, cy, rx, ry float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimEllipse))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(rx)
	b.putF32(ry)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddArc appends a circular arc (12 words). scx, scy are the sine and
// cosine of the half aperture angle; ra is the arc radius, rb the
// thickness radius.
func (b *Buffer) AddArc(id, layer uint32, cx, cy, scx, scy, ra, rb float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimArc))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(scx)
	b.putF32(scy)
	b.putF32(ra)
	b.putF32(rb)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddRoundedBox appends a box with four independent corner radii
// (14 words): center, half extents, then radii in x0y0, x1y0, x0y1, x1y1
// order.
func (b *Buffer) AddRoundedBox(id, layer uint32, cx, cy, hw, hh, r00, r01, r10, r11 float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimRoundedBox))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(hw)
	b.putF32(hh)
	b.putF32(r00)
	b.putF32(r01)
	b.putF32(r10)
	b.putF32(r11)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddRhombus appends a rhombus (10 words): center, half diagonals.
func (b *Buffer) AddRhombus(id, layer uint32, cx, cy, bx, by float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimRhombus))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(bx)
	b.putF32(by)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddPentagon appends a regular pentagon (9 words): center, circumradius.
func (b *Buffer) AddPentagon(id, layer uint32, cx, cy, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimPentagon))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddHexagon appends a regular hexagon (9 words): center, circumradius.
func (b *Buffer) AddHexagon(id, layer uint32, cx, cy, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimHexagon))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddStar appends a star (11 words): center, outer radius, point count n,
// inner ratio m.
func (b *Buffer) AddStar(id, layer uint32, cx, cy, r, n, m float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimStar))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(r)
	b.putF32(n)
	b.putF32(m)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddPie appends a pie slice (11 words). scx, scy are the sine and cosine
// of the half aperture angle.
func (b *Buffer) AddPie(id, layer uint32, cx, cy, scx, scy, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimPie))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(scx)
	b.putF32(scy)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddRing appends an open ring (12 words). nx, ny orient the opening;
// r is the ring radius, th the thickness.
func (b *Buffer) AddRing(id, layer uint32, cx, cy, nx, ny, r, th float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimRing))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(nx)
	b.putF32(ny)
	b.putF32(r)
	b.putF32(th)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddHeart appends a heart (9 words): center, scale.
func (b *Buffer) AddHeart(id, layer uint32, cx, cy, scale float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimHeart))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(scale)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddCross appends a cross (11 words): center, half extents, corner radius.
func (b *Buffer) AddCross(id, layer uint32, cx, cy, bx, by, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimCross))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(bx)
	b.putF32(by)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddRoundedX appends a rounded X (10 words): center, arm length, radius.
func (b *Buffer) AddRoundedX(id, layer uint32, cx, cy, w, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimRoundedX))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(w)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddCapsule appends a capsule (11 words): two endpoints, radius.
func (b *Buffer) AddCapsule(id, layer uint32, ax, ay, bx, by, r float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimCapsule))
	b.putU32(layer)
	b.putF32(ax)
	b.putF32(ay)
	b.putF32(bx)
	b.putF32(by)
	b.putF32(r)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddMoon appends a moon (11 words): center, inner circle offset d, outer
// radius ra, inner radius rb.
func (b *Buffer) AddMoon(id, layer uint32, cx, cy, d, ra, rb float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimMoon))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(d)
	b.putF32(ra)
	b.putF32(rb)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}

// AddEgg appends an egg (10 words): center, two radii.
func (b *Buffer) AddEgg(id, layer uint32, cx, cy, ra, rb float32, fill, stroke uint32, strokeWidth, round float32) error {
	if err := b.checkID(id); err != nil {
		return err
	}
	b.beginPrim()
	b.putU32(uint32(PrimEgg))
	b.putU32(layer)
	b.putF32(cx)
	b.putF32(cy)
	b.putF32(ra)
	b.putF32(rb)
	b.putU32(fill)
	b.putU32(stroke)
	b.putF32(strokeWidth)
	b.putF32(round)
	return nil
}
