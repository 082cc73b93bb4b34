package sdfscene

import "math"

// CPU evaluation of the per-type signed distance functions the shader
// uses (the usual Inigo Quilez catalog). Distances are negative inside
// a closed shape; open shapes (segments, beziers) report the unsigned
// distance to the curve. Hit testing follows the renderer: the fill
// covers d <= 0, the stroke covers |d| <= strokeWidth/2, and a color
// with a zero alpha byte is invisible.

// Distance returns the signed distance from (x, y) to primitive i's
// boundary. Reports false for an out-of-range index or a type this
// package does not know.
func (b *Buffer) Distance(i int, x, y float32) (float32, bool) {
	return distanceForPrim(b.PrimWords(i), x, y)
}

// HitTest reports whether (x, y) lands on primitive i: inside the fill
// when the fill color is visible, or within half the stroke width of
// the boundary when the stroke is visible.
func (b *Buffer) HitTest(i int, x, y float32) bool {
	words := b.PrimWords(i)
	d, ok := distanceForPrim(words, x, y)
	if !ok {
		return false
	}
	wc := PrimType(words[0]).WordCount()
	fill := words[wc-4]
	stroke := words[wc-3]
	strokeWidth := math.Float32frombits(words[wc-2])

	if fill>>24 != 0 && d <= 0 {
		return true
	}
	if stroke>>24 != 0 && strokeWidth > 0 {
		half := strokeWidth * 0.5
		if d >= -half && d <= half {
			return true
		}
	}
	return false
}

// PrimAt returns the index of the topmost primitive covering (x, y).
// The highest layer wins; within a layer, later primitives win.
// Returns -1 when nothing covers the point.
func (b *Buffer) PrimAt(x, y float32) int {
	best := -1
	var bestLayer uint32
	for i := 0; i < b.Len(); i++ {
		if !b.HitTest(i, x, y) {
			continue
		}
		layer := b.PrimWords(i)[1]
		if best == -1 || layer >= bestLayer {
			best = i
			bestLayer = layer
		}
	}
	return best
}

// Coverage returns the anti-aliased coverage of primitive i at (x, y),
// from 0 outside to 1 inside, taking the stronger of the fill and
// stroke contributions. Invisible colors contribute nothing.
func (b *Buffer) Coverage(i int, x, y float32) float32 {
	words := b.PrimWords(i)
	d, ok := distanceForPrim(words, x, y)
	if !ok {
		return 0
	}
	wc := PrimType(words[0]).WordCount()
	fill := words[wc-4]
	stroke := words[wc-3]
	strokeWidth := math.Float32frombits(words[wc-2])

	var cov float32
	if fill>>24 != 0 {
		cov = smoothCoverage(d)
	}
	if stroke>>24 != 0 && strokeWidth > 0 {
		sc := smoothCoverage(float32(math.Abs(float64(d))) - strokeWidth*0.5)
		if sc > cov {
			cov = sc
		}
	}
	return cov
}

// smoothCoverage maps a signed distance to coverage with a one-unit
// anti-aliasing band, mirroring the shader's smoothstep(-1, 1, d).
func smoothCoverage(d float32) float32 {
	t := (d + 1) * 0.5
	if t <= 0 {
		return 1
	}
	if t >= 1 {
		return 0
	}
	return 1 - t*t*(3-2*t)
}

// distanceForPrim evaluates one primitive payload at (x, y). The round
// word rounds boxes only; every other type carries it inert, matching
// the AABB pass.
func distanceForPrim(words []uint32, x, y float32) (float32, bool) {
	if len(words) < 2 {
		return 0, false
	}
	t := PrimType(words[0])
	wc := t.WordCount()
	if wc == 0 || uint32(len(words)) < wc {
		return 0, false
	}
	p := func(i int) float64 { return float64(math.Float32frombits(words[2+i])) }
	round := float64(math.Float32frombits(words[wc-1]))
	px, py := float64(x), float64(y)

	var d float64
	switch t {
	case PrimCircle:
		d = sdCircle(px-p(0), py-p(1), p(2))
	case PrimBox:
		if round > 0 {
			d = sdRoundedBox(px-p(0), py-p(1), p(2), p(3), round)
		} else {
			d = sdBox(px-p(0), py-p(1), p(2), p(3))
		}
	case PrimSegment:
		d = sdSegment(px, py, p(0), p(1), p(2), p(3))
	case PrimTriangle:
		d = sdTriangle(px, py, p(0), p(1), p(2), p(3), p(4), p(5))
	case PrimBezier2:
		d = sdBezier2(px, py, p(0), p(1), p(2), p(3), p(4), p(5))
	case PrimBezier3:
		d = sdBezier3(px, py, p(0), p(1), p(2), p(3), p(4), p(5), p(6), p(7))
	case PrimEllipse:
		d = sdEllipse(px-p(0), py-p(1), p(2), p(3))
	case PrimArc:
		d = sdArc(px-p(0), py-p(1), p(2), p(3), p(4), p(5))
	case PrimRoundedBox:
		// Wire order is x0y0, x1y0, x0y1, x1y1; the shape function
		// wants quadrant order.
		d = sdRoundedBox4(px-p(0), py-p(1), p(2), p(3), p(7), p(5), p(6), p(4))
	case PrimRhombus:
		d = sdRhombus(px-p(0), py-p(1), p(2), p(3))
	case PrimPentagon:
		d = sdPentagon(px-p(0), py-p(1), p(2))
	case PrimHexagon:
		d = sdHexagon(px-p(0), py-p(1), p(2))
	case PrimStar:
		d = sdStar(px-p(0), py-p(1), p(2), p(3), p(4))
	case PrimPie:
		d = sdPie(px-p(0), py-p(1), p(2), p(3), p(4))
	case PrimRing:
		d = sdRing(px-p(0), py-p(1), p(2), p(3), p(4), p(5))
	case PrimHeart:
		d = sdHeartAt(px-p(0), py-p(1), p(2))
	case PrimCross:
		d = sdCross(px-p(0), py-p(1), p(2), p(3), p(4))
	case PrimRoundedX:
		d = sdRoundedX(px-p(0), py-p(1), p(2), p(3))
	case PrimCapsule:
		d = sdSegment(px, py, p(0), p(1), p(2), p(3)) - p(4)
	case PrimMoon:
		d = sdMoon(px-p(0), py-p(1), p(2), p(3), p(4))
	case PrimEgg:
		d = sdEgg(px-p(0), py-p(1), p(2), p(3))
	default:
		return 0, false
	}
	return float32(d), true
}

func sdCircle(px, py, r float64) float64 {
	return math.Hypot(px, py) - r
}

func sdBox(px, py, hw, hh float64) float64 {
	dx := math.Abs(px) - hw
	dy := math.Abs(py) - hh
	return math.Hypot(math.Max(dx, 0), math.Max(dy, 0)) + math.Min(math.Max(dx, dy), 0)
}

func sdRoundedBox(px, py, hw, hh, r float64) float64 {
	return sdBox(px, py, hw-r, hh-r) - r
}

// sdRoundedBox4 rounds each corner independently; radii are in
// quadrant order (+x+y, +x-y, -x+y, -x-y).
func sdRoundedBox4(px, py, hw, hh, r0, r1, r2, r3 float64) float64 {
	rx, ry := r2, r3
	if px > 0 {
		rx, ry = r0, r1
	}
	r := ry
	if py > 0 {
		r = rx
	}
	qx := math.Abs(px) - hw + r
	qy := math.Abs(py) - hh + r
	return math.Min(math.Max(qx, qy), 0) + math.Hypot(math.Max(qx, 0), math.Max(qy, 0)) - r
}

func sdSegment(px, py, ax, ay, bx, by float64) float64 {
	pax, pay := px-ax, py-ay
	bax, bay := bx-ax, by-ay
	bb := bax*bax + bay*bay
	if bb == 0 {
		return math.Hypot(pax, pay)
	}
	h := clampf((pax*bax+pay*bay)/bb, 0, 1)
	return math.Hypot(pax-bax*h, pay-bay*h)
}

func sdTriangle(px, py, ax, ay, bx, by, cx, cy float64) float64 {
	e0x, e0y := bx-ax, by-ay
	e1x, e1y := cx-bx, cy-by
	e2x, e2y := ax-cx, ay-cy
	v0x, v0y := px-ax, py-ay
	v1x, v1y := px-bx, py-by
	v2x, v2y := px-cx, py-cy

	h0 := clampf((v0x*e0x+v0y*e0y)/(e0x*e0x+e0y*e0y), 0, 1)
	pq0 := dot2(v0x-e0x*h0, v0y-e0y*h0)
	h1 := clampf((v1x*e1x+v1y*e1y)/(e1x*e1x+e1y*e1y), 0, 1)
	pq1 := dot2(v1x-e1x*h1, v1y-e1y*h1)
	h2 := clampf((v2x*e2x+v2y*e2y)/(e2x*e2x+e2y*e2y), 0, 1)
	pq2 := dot2(v2x-e2x*h2, v2y-e2y*h2)

	// Component-wise min: nearest edge distance and the most-inside
	// winding sign are tracked independently.
	s := sgn(e0x*e2y - e0y*e2x)
	dx := math.Min(pq0, math.Min(pq1, pq2))
	dy := math.Min(s*(v0x*e0y-v0y*e0x), math.Min(s*(v1x*e1y-v1y*e1x), s*(v2x*e2y-v2y*e2x)))
	return -math.Sqrt(dx) * sgn(dy)
}

// sdBezier2 is the closed-form distance to a quadratic Bezier curve.
// Collinear control points degenerate to the chord segment.
func sdBezier2(px, py, ax, ay, bx, by, cx, cy float64) float64 {
	aX, aY := bx-ax, by-ay
	bX, bY := ax-2*bx+cx, ay-2*by+cy
	cX, cY := aX*2, aY*2
	dX, dY := ax-px, ay-py

	bb := bX*bX + bY*bY
	if bb < 1e-12 {
		return sdSegment(px, py, ax, ay, cx, cy)
	}
	kk := 1 / bb
	kx := kk * (aX*bX + aY*bY)
	ky := kk * (2*(aX*aX+aY*aY) + (dX*bX + dY*bY)) / 3
	kz := kk * (dX*aX + dY*aY)

	pp := ky - kx*kx
	p3 := pp * pp * pp
	q := kx*(2*kx*kx-3*ky) + kz
	h := q*q + 4*p3

	var res float64
	if h >= 0 {
		h = math.Sqrt(h)
		u := math.Cbrt((h - q) / 2)
		v := math.Cbrt((-h - q) / 2)
		t := clampf(u+v-kx, 0, 1)
		res = dot2(dX+(cX+bX*t)*t, dY+(cY+bY*t)*t)
	} else {
		z := math.Sqrt(-pp)
		v := math.Acos(q/(pp*z*2)) / 3
		m := math.Cos(v)
		n := math.Sin(v) * 1.732050808
		t1 := clampf((m+m)*z-kx, 0, 1)
		t2 := clampf((-n-m)*z-kx, 0, 1)
		res = math.Min(
			dot2(dX+(cX+bX*t1)*t1, dY+(cY+bY*t1)*t1),
			dot2(dX+(cX+bX*t2)*t2, dY+(cY+bY*t2)*t2),
		)
	}
	return math.Sqrt(res)
}

// sdBezier3 samples the cubic, then tightens the best parameter by
// bisection. Good to well under the anti-aliasing band.
func sdBezier3(px, py, x0, y0, x1, y1, x2, y2, x3, y3 float64) float64 {
	eval := func(t float64) (float64, float64) {
		s := 1 - t
		w0 := s * s * s
		w1 := 3 * s * s * t
		w2 := 3 * s * t * t
		w3 := t * t * t
		return w0*x0 + w1*x1 + w2*x2 + w3*x3, w0*y0 + w1*y1 + w2*y2 + w3*y3
	}

	const steps = 16
	tBest, dBest := 0.0, math.MaxFloat64
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		ex, ey := eval(t)
		if d := dot2(px-ex, py-ey); d < dBest {
			dBest, tBest = d, t
		}
	}
	lo := math.Max(0, tBest-1.0/steps)
	hi := math.Min(1, tBest+1.0/steps)
	for j := 0; j < 8; j++ {
		mid := (lo + hi) / 2
		ax, ay := eval((lo + mid) / 2)
		bx, by := eval((mid + hi) / 2)
		if dot2(px-ax, py-ay) < dot2(px-bx, py-by) {
			hi = mid
		} else {
			lo = mid
		}
	}
	ex, ey := eval((lo + hi) / 2)
	return math.Hypot(px-ex, py-ey)
}

func sdEllipse(px, py, a, b float64) float64 {
	if a == b {
		return math.Hypot(px, py) - a
	}
	qx, qy := math.Abs(px), math.Abs(py)
	ra, rb := a, b
	if qx > qy {
		qx, qy = qy, qx
		ra, rb = rb, ra
	}
	l := rb*rb - ra*ra
	m := ra * qx / l
	m2 := m * m
	n := rb * qy / l
	n2 := n * n
	c := (m2 + n2 - 1) / 3
	c3 := c * c * c
	q := c3 + m2*n2*2
	d := c3 + m2*n2
	g := m + m*n2
	var co float64
	if d < 0 {
		h := math.Acos(q/c3) / 3
		s := math.Cos(h)
		t := math.Sin(h) * math.Sqrt(3)
		rx := math.Sqrt(-c*(s+t+2) + m2)
		ry := math.Sqrt(-c*(s-t+2) + m2)
		co = (ry + math.Copysign(rx, l) + math.Abs(g)/(rx*ry) - m) / 2
	} else {
		h := 2 * m * n * math.Sqrt(d)
		s := math.Cbrt(q + h)
		u := math.Cbrt(q - h)
		rx := -s - u - c*4 + 2*m2
		ry := (s - u) * math.Sqrt(3)
		rm := math.Hypot(rx, ry)
		co = (ry/math.Sqrt(rm-rx) + 2*g/rm - m) / 2
	}
	ex := ra * co
	ey := rb * math.Sqrt(math.Max(1-co*co, 0))
	return math.Hypot(ex-qx, ey-qy) * sgn(qy-ey)
}

// sdArc takes the aperture as (sin, cos); ra is the arc radius, rb its
// half thickness.
func sdArc(px, py, scSin, scCos, ra, rb float64) float64 {
	px = math.Abs(px)
	if scCos*px > scSin*py {
		return math.Hypot(px-scSin*ra, py-scCos*ra) - rb
	}
	return math.Abs(math.Hypot(px, py)-ra) - rb
}

func sdRhombus(px, py, hw, hh float64) float64 {
	px, py = math.Abs(px), math.Abs(py)
	h := clampf(((hw-2*px)*hw-(hh-2*py)*hh)/(hw*hw+hh*hh), -1, 1)
	d := math.Hypot(px-0.5*hw*(1-h), py-0.5*hh*(1+h))
	return d * sgn(px*hh+py*hw-hw*hh)
}

func sdPentagon(px, py, r float64) float64 {
	const kx, ky, kz = 0.809016994, 0.587785252, 0.726542528 // cos, sin, tan of pi/5
	px = math.Abs(px)
	if d := -kx*px + ky*py; d < 0 {
		px, py = px+2*d*kx, py-2*d*ky
	}
	if d := kx*px + ky*py; d < 0 {
		px, py = px-2*d*kx, py-2*d*ky
	}
	px -= clampf(px, -r*kz, r*kz)
	py -= r
	return math.Hypot(px, py) * sgn(py)
}

func sdHexagon(px, py, r float64) float64 {
	const kx, ky, kz = -0.866025404, 0.5, 0.577350269
	px, py = math.Abs(px), math.Abs(py)
	if d := kx*px + ky*py; d < 0 {
		px, py = px-2*d*kx, py-2*d*ky
	}
	px -= clampf(px, -kz*r, kz*r)
	py -= r
	return math.Hypot(px, py) * sgn(py)
}

// sdStar draws an n-pointed star of outer radius r; m in (2, n) sets
// how deep the notches cut.
func sdStar(px, py, r, n, m float64) float64 {
	if n < 2 {
		return sdCircle(px, py, r)
	}
	an := math.Pi / n
	en := math.Pi / m
	acsX, acsY := math.Cos(an), math.Sin(an)
	ecsX, ecsY := math.Cos(en), math.Sin(en)

	bn := floorMod(math.Atan2(px, py), 2*an) - an
	l := math.Hypot(px, py)
	px = l * math.Cos(bn)
	py = l * math.Abs(math.Sin(bn))

	px -= r * acsX
	py -= r * acsY
	h := clampf(-(px*ecsX + py*ecsY), 0, r*math.Sin(an)/math.Sin(en))
	px += ecsX * h
	py += ecsY * h
	return math.Hypot(px, py) * sgn(px)
}

// sdPie takes the aperture as (sin, cos); r is the radius.
func sdPie(px, py, scSin, scCos, r float64) float64 {
	px = math.Abs(px)
	l := math.Hypot(px, py) - r
	h := clampf(px*scSin+py*scCos, 0, r)
	m := math.Hypot(px-scSin*h, py-scCos*h)
	return math.Max(l, m*sgn(scCos*px-scSin*py))
}

// sdRing takes the gap direction as (sin, cos); r is the ring radius,
// th the full thickness.
func sdRing(px, py, nSin, nCos, r, th float64) float64 {
	px = math.Abs(px)
	rx := nSin*px - nCos*py
	ry := nCos*px + nSin*py
	return math.Max(
		math.Abs(math.Hypot(rx, ry)-r)-th*0.5,
		math.Hypot(rx, math.Max(0, math.Abs(r-ry)-th*0.5))*sgn(rx),
	)
}

// sdHeartAt places a heart of scale s with its lobes up and tip down,
// spanning roughly s scene units around the center.
func sdHeartAt(px, py, s float64) float64 {
	if s <= 0 {
		return math.MaxFloat32
	}
	hx := math.Abs(px) / s
	hy := (0.5*s - py) / s
	if hx+hy > 1 {
		return (math.Sqrt(dot2(hx-0.25, hy-0.75)) - math.Sqrt2/4) * s
	}
	d := math.Min(dot2(hx, hy-1), dot2(hx-0.5*math.Max(hx+hy, 0), hy-0.5*math.Max(hx+hy, 0)))
	return math.Sqrt(d) * sgn(hx-hy) * s
}

func sdCross(px, py, bx, by, r float64) float64 {
	px, py = math.Abs(px), math.Abs(py)
	if py > px {
		px, py = py, px
	}
	qx, qy := px-bx, py-by
	k := math.Max(qy, qx)
	var wx, wy float64
	if k > 0 {
		wx, wy = qx, qy
	} else {
		wx, wy = by-px, -k
	}
	return sgn(k)*math.Hypot(math.Max(wx, 0), math.Max(wy, 0)) + r
}

func sdRoundedX(px, py, w, r float64) float64 {
	px, py = math.Abs(px), math.Abs(py)
	m := math.Min(px+py, w) * 0.5
	return math.Hypot(px-m, py-m) - r
}

// sdMoon is a crescent: radius ra cut by a circle of radius rb whose
// center sits d to the right.
func sdMoon(px, py, d, ra, rb float64) float64 {
	py = math.Abs(py)
	if d == 0 {
		return math.Max(math.Hypot(px, py)-ra, -(math.Hypot(px, py) - rb))
	}
	a := (ra*ra - rb*rb + d*d) / (2 * d)
	b := math.Sqrt(math.Max(ra*ra-a*a, 0))
	if d*(px*b-py*a) > d*d*math.Max(b-py, 0) {
		return math.Hypot(px-a, py-b)
	}
	return math.Max(
		math.Hypot(px, py)-ra,
		-(math.Hypot(px-d, py) - rb),
	)
}

// sdEgg is round (radius ra) at the top and pinches to radius rb at
// the tip, which points down the +Y axis.
func sdEgg(px, py, ra, rb float64) float64 {
	const k = 1.7320508075688772 // sqrt(3)
	px = math.Abs(px)
	r := ra - rb
	switch {
	case py < 0:
		return math.Hypot(px, py) - r - rb
	case k*(px+r) < py:
		return math.Hypot(px, py-k*r) - rb
	default:
		return math.Hypot(px+r, py) - 2*r - rb
	}
}

func dot2(x, y float64) float64 { return x*x + y*y }

func sgn(v float64) float64 {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// floorMod is the positive remainder, matching WGSL's mod.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}
	return m
}
