package sdfscene

import (
	"math"
	"testing"
)

// onePrim builds a buffer holding a single primitive.
func onePrim(t *testing.T, fn func(b *Buffer) error) *Buffer {
	t.Helper()
	b := NewBuffer()
	if err := fn(b); err != nil {
		t.Fatalf("add primitive: %v", err)
	}
	return b
}

func TestDistance_PerType(t *testing.T) {
	const fill = 0xFF0000FF

	type probe struct {
		x, y float32
		want float64
		tol  float64
	}
	tests := []struct {
		name   string
		add    func(b *Buffer) error
		probes []probe
	}{
		{
			name: "circle",
			add: func(b *Buffer) error {
				return b.AddCircle(0, 0, 10, 10, 5, fill, 0, 0, 0)
			},
			probes: []probe{
				{10, 10, -5, 1e-4},
				{15, 10, 0, 1e-4},
				{18, 10, 3, 1e-4},
			},
		},
		{
			name: "box",
			add: func(b *Buffer) error {
				return b.AddBox(0, 0, 0, 0, 10, 5, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -5, 1e-4},
				{15, 0, 5, 1e-4},
				{13, 9, 5, 1e-4}, // corner region: hypot(3, 4)
			},
		},
		{
			name: "box round pulls corners in",
			add: func(b *Buffer) error {
				return b.AddBox(0, 0, 0, 0, 10, 5, fill, 0, 0, 2)
			},
			probes: []probe{
				{0, 0, -5, 1e-4},
				{15, 0, 5, 1e-4},
				{10, 5, math.Sqrt2*2 - 2, 1e-4}, // sharp corner point sits outside
			},
		},
		{
			name: "segment",
			add: func(b *Buffer) error {
				return b.AddSegment(0, 0, 0, 0, 10, 0, 0, fill, 2, 0)
			},
			probes: []probe{
				{5, 3, 3, 1e-4},
				{13, 4, 5, 1e-4}, // clamps to the endpoint
				{5, 0, 0, 1e-4},
			},
		},
		{
			name: "triangle",
			add: func(b *Buffer) error {
				return b.AddTriangle(0, 0, 0, 0, 10, 0, 5, 10, fill, 0, 0, 0)
			},
			probes: []probe{
				{5, 3, -3, 1e-4},
				{5, -2, 2, 1e-4},
				{-5, -5, math.Hypot(5, 5), 1e-4},
			},
		},
		{
			name: "quadratic bezier",
			add: func(b *Buffer) error {
				return b.AddBezier2(0, 0, 0, 0, 5, 5, 10, 0, 0, fill, 2, 0)
			},
			probes: []probe{
				{5, 2.5, 0, 1e-3}, // apex of the curve
				{5, 5, 2.5, 1e-3},
			},
		},
		{
			name: "quadratic bezier with collinear control degenerates to segment",
			add: func(b *Buffer) error {
				return b.AddBezier2(0, 0, 0, 0, 5, 0, 10, 0, 0, fill, 2, 0)
			},
			probes: []probe{
				{5, 3, 3, 1e-4},
			},
		},
		{
			name: "cubic bezier",
			add: func(b *Buffer) error {
				return b.AddBezier3(0, 0, 0, 0, 3, 4, 7, 4, 10, 0, 0, fill, 2, 0)
			},
			probes: []probe{
				{5, 3, 0, 0.01}, // curve passes (5, 3) at t=0.5
				{5, 6, 3, 0.02},
			},
		},
		{
			name: "ellipse",
			add: func(b *Buffer) error {
				return b.AddEllipse(0, 0, 0, 0, 10, 5, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -5, 1e-3},
				{0, 5, 0, 1e-3},
				{12, 0, 2, 1e-3},
			},
		},
		{
			name: "arc",
			add: func(b *Buffer) error {
				return b.AddArc(0, 0, 0, 0, 1, 0, 10, 2, 0, fill, 2, 0)
			},
			probes: []probe{
				{10, 5, math.Hypot(10, 5) - 10 - 2, 1e-4},
				{14, 0, 2, 1e-4},
				{0, -10, math.Hypot(10, 10) - 2, 1e-4}, // past the endpoint cap
			},
		},
		{
			name: "rounded box corners are independent",
			add: func(b *Buffer) error {
				return b.AddRoundedBox(0, 0, 0, 0, 10, 5, 0, 0, 0, 4, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -5, 1e-4},
				{-10, -5, 0, 1e-4},                  // sharp x0y0 corner stays on the surface
				{10, 5, 4 * (math.Sqrt2 - 1), 1e-4}, // rounded x1y1 corner pulls in
			},
		},
		{
			name: "rhombus",
			add: func(b *Buffer) error {
				return b.AddRhombus(0, 0, 0, 0, 10, 5, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -10 / math.Sqrt(5), 1e-3},
				{12, 0, 2, 1e-3},
			},
		},
		{
			name: "pentagon",
			add: func(b *Buffer) error {
				return b.AddPentagon(0, 0, 0, 0, 10, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -10, 1e-3},
				{0, 20, 10, 1e-3}, // flat edge faces +Y
			},
		},
		{
			name: "hexagon",
			add: func(b *Buffer) error {
				return b.AddHexagon(0, 0, 0, 0, 10, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -10, 1e-3},
				{0, 15, 5, 1e-3},
			},
		},
		{
			name: "star",
			add: func(b *Buffer) error {
				return b.AddStar(0, 0, 0, 0, 10, 5, 3, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 10, 0, 1e-3}, // outer vertex
				{0, 12, 2, 1e-3},
			},
		},
		{
			name: "pie",
			add: func(b *Buffer) error {
				return b.AddPie(0, 0, 0, 0, 1, 0, 10, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 5, -5, 1e-4},
				{0, -3, 3, 1e-4}, // behind the flat edge
				{0, 15, 5, 1e-4},
			},
		},
		{
			name: "ring",
			add: func(b *Buffer) error {
				return b.AddRing(0, 0, 0, 0, 0, 1, 10, 4, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 10, -2, 1e-3},
				{0, 14, 2, 1e-3},
				{0, -10, math.Hypot(10, 8), 1e-3}, // across the opening, to the cut face
			},
		},
		{
			name: "heart",
			add: func(b *Buffer) error {
				return b.AddHeart(0, 0, 0, 0, 10, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 5, 0, 1e-3},  // tip
				{0, -5, 0, 1e-3}, // cusp between the lobes
				{0, 0, -math.Sqrt(0.125) * 10, 1e-3},
				{0, -8, (math.Sqrt(0.365) - math.Sqrt2/4) * 10, 1e-3},
			},
		},
		{
			name: "cross",
			add: func(b *Buffer) error {
				return b.AddCross(0, 0, 0, 0, 10, 3, 0, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -math.Hypot(3, 3), 1e-3}, // nearest boundary is the inner corner
				{12, 0, 2, 1e-3},
			},
		},
		{
			name: "rounded x",
			add: func(b *Buffer) error {
				return b.AddRoundedX(0, 0, 0, 0, 10, 2, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -2, 1e-4},
				{5, 5, -2, 1e-4}, // arm centerline
				{10, 10, math.Hypot(5, 5) - 2, 1e-4},
			},
		},
		{
			name: "capsule",
			add: func(b *Buffer) error {
				return b.AddCapsule(0, 0, 0, 0, 10, 0, 3, fill, 0, 0, 0)
			},
			probes: []probe{
				{5, 0, -3, 1e-4},
				{5, 5, 2, 1e-4},
				{14, 0, 1, 1e-4},
			},
		},
		{
			name: "moon",
			add: func(b *Buffer) error {
				return b.AddMoon(0, 0, 0, 0, 4, 10, 8, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, 4, 1e-3}, // center is carved out by the inner circle
				{-9, 0, -1, 1e-3},
			},
		},
		{
			name: "egg",
			add: func(b *Buffer) error {
				return b.AddEgg(0, 0, 0, 0, 6, 2, fill, 0, 0, 0)
			},
			probes: []probe{
				{0, 0, -6, 1e-3},
				{0, -6, 0, 1e-3}, // round end
				{0, float32(4*math.Sqrt(3) + 2), 0, 1e-3}, // tip
				{0, float32(4 * math.Sqrt(3)), -2, 1e-3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := onePrim(t, tt.add)
			for _, p := range tt.probes {
				got, ok := b.Distance(0, p.x, p.y)
				if !ok {
					t.Fatalf("Distance(0, %g, %g) ok = false, want true", p.x, p.y)
				}
				if math.Abs(float64(got)-p.want) > p.tol {
					t.Errorf("Distance(0, %g, %g) = %g, want %g", p.x, p.y, got, p.want)
				}
			}
		})
	}
}

func TestDistance_Invalid(t *testing.T) {
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 5, 0xFF0000FF, 0, 0, 0)
	})
	if _, ok := b.Distance(-1, 0, 0); ok {
		t.Error("Distance(-1) ok = true, want false")
	}
	if _, ok := b.Distance(1, 0, 0); ok {
		t.Error("Distance(1) ok = true, want false")
	}
}

func TestHitTest_Fill(t *testing.T) {
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 10, 0xFF0000FF, 0, 0, 0)
	})
	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{name: "center", x: 0, y: 0, want: true},
		{name: "on boundary", x: 10, y: 0, want: true},
		{name: "outside", x: 11, y: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.HitTest(0, tt.x, tt.y); got != tt.want {
				t.Errorf("HitTest(0, %g, %g) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHitTest_Stroke(t *testing.T) {
	// Stroke only: the hit band is half the stroke width on each side
	// of the boundary.
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 10, 0, 0xFF00FF00, 4, 0)
	})
	tests := []struct {
		name string
		x, y float32
		want bool
	}{
		{name: "center is hollow", x: 0, y: 0, want: false},
		{name: "inner band edge", x: 8, y: 0, want: true},
		{name: "on boundary", x: 10, y: 0, want: true},
		{name: "outer band edge", x: 12, y: 0, want: true},
		{name: "past the band", x: 12.5, y: 0, want: false},
		{name: "inside the band gap", x: 5, y: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.HitTest(0, tt.x, tt.y); got != tt.want {
				t.Errorf("HitTest(0, %g, %g) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHitTest_InvisibleColors(t *testing.T) {
	// Alpha lives in the top byte; a zero alpha never hits.
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 10, 0x00FFFFFF, 0x00FFFFFF, 4, 0)
	})
	if b.HitTest(0, 0, 0) {
		t.Error("HitTest inside zero-alpha fill = true, want false")
	}
	if b.HitTest(0, 10, 0) {
		t.Error("HitTest on zero-alpha stroke = true, want false")
	}
}

func TestHitTest_OutOfRange(t *testing.T) {
	b := NewBuffer()
	if b.HitTest(0, 0, 0) {
		t.Error("HitTest on empty buffer = true, want false")
	}
}

func TestPrimAt_LayerWins(t *testing.T) {
	b := NewBuffer()
	if err := b.AddCircle(0, 1, 50, 50, 20, 0xFF0000FF, 0, 0, 0); err != nil {
		t.Fatalf("AddCircle: %v", err)
	}
	if err := b.AddCircle(1, 0, 60, 50, 20, 0xFF00FF00, 0, 0, 0); err != nil {
		t.Fatalf("AddCircle: %v", err)
	}

	// Both circles cover (55, 50); the layer-1 circle is on top even
	// though it was added first.
	if got := b.PrimAt(55, 50); got != 0 {
		t.Errorf("PrimAt(55, 50) = %d, want 0", got)
	}
	// Only the second circle covers (78, 50).
	if got := b.PrimAt(78, 50); got != 1 {
		t.Errorf("PrimAt(78, 50) = %d, want 1", got)
	}
	if got := b.PrimAt(0, 0); got != -1 {
		t.Errorf("PrimAt(0, 0) = %d, want -1", got)
	}
}

func TestPrimAt_SameLayerLaterWins(t *testing.T) {
	b := NewBuffer()
	if err := b.AddCircle(0, 0, 50, 50, 20, 0xFF0000FF, 0, 0, 0); err != nil {
		t.Fatalf("AddCircle: %v", err)
	}
	if err := b.AddCircle(1, 0, 55, 50, 20, 0xFF00FF00, 0, 0, 0); err != nil {
		t.Fatalf("AddCircle: %v", err)
	}
	if got := b.PrimAt(52, 50); got != 1 {
		t.Errorf("PrimAt(52, 50) = %d, want 1", got)
	}
}

func TestCoverage(t *testing.T) {
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 10, 0xFF0000FF, 0, 0, 0)
	})
	tests := []struct {
		name string
		x, y float32
		want float32
		tol  float32
	}{
		{name: "deep inside", x: 0, y: 0, want: 1, tol: 0},
		{name: "on boundary", x: 10, y: 0, want: 0.5, tol: 1e-4},
		{name: "far outside", x: 20, y: 0, want: 0, tol: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Coverage(0, tt.x, tt.y)
			if diff := got - tt.want; diff > tt.tol || diff < -tt.tol {
				t.Errorf("Coverage(0, %g, %g) = %g, want %g", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestCoverage_StrokeBand(t *testing.T) {
	b := onePrim(t, func(b *Buffer) error {
		return b.AddCircle(0, 0, 0, 0, 10, 0, 0xFF00FF00, 4, 0)
	})
	// The band center is fully covered, the hollow interior is not.
	if got := b.Coverage(0, 10, 0); got != 1 {
		t.Errorf("Coverage at band center = %g, want 1", got)
	}
	if got := b.Coverage(0, 0, 0); got != 0 {
		t.Errorf("Coverage at hollow center = %g, want 0", got)
	}
}
