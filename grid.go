package sdfscene

import "math"

// GridConfig tunes the spatial hash grid built by Calculate.
//
// The zero value is not useful; start from DefaultGridConfig. CellSize
// overrides the heuristic entirely when set to a positive value.
type GridConfig struct {
	// CellScale multiplies sqrt(average primitive AABB area) to pick the
	// heuristic cell size.
	CellScale float32

	// TextScale multiplies the average glyph height when the scene contains
	// only text.
	TextScale float32

	// MaxGridDim caps the grid width and height in cells. When a dimension
	// exceeds the cap the cell size is recomputed to cover the scene.
	MaxGridDim uint32

	// CellSize forces an explicit cell size in scene units. Zero selects
	// the heuristic.
	CellSize float32
}

// DefaultGridConfig returns the grid tuning used by the shader pipeline.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellScale:  1.5,
		TextScale:  2.0,
		MaxGridDim: 512,
	}
}

// gridDims is the grid geometry chosen for one build.
type gridDims struct {
	width    uint32
	height   uint32
	cellSize float32
}

func (d gridDims) numCells() uint32 { return d.width * d.height }

// computeGridDims picks cell size and grid dimensions for the scene.
// aabbs[i] participates only when valid[i]; glyph quads always participate.
// Returns zero dims when there is nothing to index.
func computeGridDims(cfg GridConfig, bounds Rect, aabbs []Rect, valid []bool, glyphs []Glyph) gridDims {
	num2D := 0
	for i := range aabbs {
		if valid[i] {
			num2D++
		}
	}
	if num2D == 0 && len(glyphs) == 0 {
		return gridDims{cellSize: cfg.CellSize}
	}

	sceneW := bounds.Width()
	sceneH := bounds.Height()
	cs := cfg.CellSize
	if cs <= 0 {
		area := sceneW * sceneH
		if area <= 0 {
			return gridDims{}
		}
		if num2D > 0 {
			var avgArea float32
			for i, r := range aabbs {
				if !valid[i] {
					continue
				}
				avgArea += r.Width() * r.Height()
			}
			avgArea /= float32(num2D)
			cs = sqrt32(avgArea) * cfg.CellScale
		} else {
			var avgH float32
			for _, g := range glyphs {
				avgH += g.Height
			}
			avgH /= float32(len(glyphs))
			cs = avgH * cfg.TextScale
		}
		minCS := sqrt32(area / 65536.0)
		maxCS := sqrt32(area / 16.0)
		cs = min32(max32(cs, minCS), maxCS)
	}

	w := max32u(1, ceilCells(sceneW, cs))
	h := max32u(1, ceilCells(sceneH, cs))
	if w > cfg.MaxGridDim {
		w = cfg.MaxGridDim
		cs = sceneW / float32(w)
	}
	if h > cfg.MaxGridDim {
		h = cfg.MaxGridDim
		cs = max32(cs, sceneH/float32(h))
	}
	return gridDims{width: w, height: h, cellSize: cs}
}

// cellSpan is an inclusive cell rectangle covered by one AABB.
type cellSpan struct {
	x0, y0, x1, y1 uint32
}

// span maps an AABB to the grid cells it touches, clamped to the grid.
func (d gridDims) span(bounds Rect, minX, minY, maxX, maxY float32) cellSpan {
	inv := 1.0 / d.cellSize
	return cellSpan{
		x0: clampCell((minX-bounds.MinX)*inv, d.width),
		y0: clampCell((minY-bounds.MinY)*inv, d.height),
		x1: clampCell((maxX-bounds.MinX)*inv, d.width),
		y1: clampCell((maxY-bounds.MinY)*inv, d.height),
	}
}

func clampCell(v float32, dim uint32) uint32 {
	if v < 0 {
		return 0
	}
	if m := float32(dim - 1); v > m {
		return dim - 1
	}
	return uint32(v)
}

// buildGrid serializes the spatial hash into a single word stream:
// a bucket-start table of numCells words (offsets relative to the grid
// start) followed by per-bucket [entryCount, entries...] runs. Primitive
// entries are payload-relative word offsets; glyph entries carry the top
// bit plus the glyph record index.
func buildGrid(dims gridDims, bounds Rect, aabbs []Rect, valid []bool, payloadOffsets []uint32, glyphs []Glyph) []uint32 {
	numCells := dims.numCells()
	if numCells == 0 || dims.cellSize <= 0 {
		return nil
	}

	counts := make([]uint32, numCells)
	for i, r := range aabbs {
		if !valid[i] {
			continue
		}
		s := dims.span(bounds, r.MinX, r.MinY, r.MaxX, r.MaxY)
		for cy := s.y0; cy <= s.y1; cy++ {
			for cx := s.x0; cx <= s.x1; cx++ {
				counts[cy*dims.width+cx]++
			}
		}
	}
	for _, g := range glyphs {
		s := dims.span(bounds, g.X, g.Y, g.X+g.Width, g.Y+g.Height)
		for cy := s.y0; cy <= s.y1; cy++ {
			for cx := s.x0; cx <= s.x1; cx++ {
				counts[cy*dims.width+cx]++
			}
		}
	}

	// Bucket starts via prefix sum; the first bucket begins after the table.
	total := numCells
	for _, c := range counts {
		total += 1 + c
	}
	grid := make([]uint32, total)
	pos := numCells
	for i, c := range counts {
		grid[i] = pos
		pos += 1 + c
	}

	insert := func(s cellSpan, entry uint32) {
		for cy := s.y0; cy <= s.y1; cy++ {
			for cx := s.x0; cx <= s.x1; cx++ {
				off := grid[cy*dims.width+cx]
				n := grid[off]
				grid[off+1+n] = entry
				grid[off] = n + 1
			}
		}
	}
	for i, r := range aabbs {
		if !valid[i] {
			continue
		}
		insert(dims.span(bounds, r.MinX, r.MinY, r.MaxX, r.MaxY), payloadOffsets[i])
	}
	for gi, g := range glyphs {
		insert(dims.span(bounds, g.X, g.Y, g.X+g.Width, g.Y+g.Height), glyphEntry(uint32(gi)))
	}
	return grid
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func ceilCells(span, cs float32) uint32 {
	return uint32(math.Ceil(float64(span / cs)))
}

func max32u(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
