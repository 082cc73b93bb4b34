package scenefile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/sdfscene"
	"github.com/gogpu/sdfscene/font"
)

// sceneDoc is one YAML document. Streams may carry several documents;
// later backgrounds override, flags accumulate, bodies append.
type sceneDoc struct {
	Background string     `yaml:"background"`
	Flags      flagList   `yaml:"flags"`
	Body       []bodyItem `yaml:"body"`
}

// flagList accepts either a single scalar or a sequence of flag names.
type flagList []string

func (f *flagList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*f = flagList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*f = flagList(list)
		return nil
	default:
		return fmt.Errorf("scenefile: flags must be a name or a list of names")
	}
}

// bodyItem is a single-key map naming the shape. Exactly one field is
// expected; when several are present the first in declaration order wins.
type bodyItem struct {
	Text     *textNode  `yaml:"text"`
	Circle   *shapeNode `yaml:"circle"`
	Box      *shapeNode `yaml:"box"`
	Segment  *shapeNode `yaml:"segment"`
	Triangle *shapeNode `yaml:"triangle"`
	Bezier   *shapeNode `yaml:"bezier"`
	Ellipse  *shapeNode `yaml:"ellipse"`
	Arc      *shapeNode `yaml:"arc"`
	Pentagon *shapeNode `yaml:"pentagon"`
	Hexagon  *shapeNode `yaml:"hexagon"`
	Star     *shapeNode `yaml:"star"`
	Pie      *shapeNode `yaml:"pie"`
	Ring     *shapeNode `yaml:"ring"`
	Heart    *shapeNode `yaml:"heart"`
	Cross    *shapeNode `yaml:"cross"`
	RoundedX *shapeNode `yaml:"rounded_x"`
	Capsule  *shapeNode `yaml:"capsule"`
	Rhombus  *shapeNode `yaml:"rhombus"`
	Moon     *shapeNode `yaml:"moon"`
	Egg      *shapeNode `yaml:"egg"`
}

// shapeNode carries the union of shape attributes. Pointer fields
// distinguish absent attributes from explicit zeros so each shape can
// apply its own defaults.
type shapeNode struct {
	Position []float32 `yaml:"position"`
	Size     []float32 `yaml:"size"`
	From     []float32 `yaml:"from"`
	To       []float32 `yaml:"to"`
	P0       []float32 `yaml:"p0"`
	P1       []float32 `yaml:"p1"`
	P2       []float32 `yaml:"p2"`
	Radii    []float32 `yaml:"radii"`

	Radius       *float32 `yaml:"radius"`
	Angle        *float32 `yaml:"angle"`
	Thickness    *float32 `yaml:"thickness"`
	Points       *float32 `yaml:"points"`
	Inner        *float32 `yaml:"inner"`
	Scale        *float32 `yaml:"scale"`
	Width        *float32 `yaml:"width"`
	Distance     *float32 `yaml:"distance"`
	RadiusOuter  *float32 `yaml:"radius_outer"`
	RadiusInner  *float32 `yaml:"radius_inner"`
	RadiusBottom *float32 `yaml:"radius_bottom"`
	RadiusTop    *float32 `yaml:"radius_top"`
	Round        *float32 `yaml:"round"`

	Fill        string   `yaml:"fill"`
	Stroke      string   `yaml:"stroke"`
	StrokeWidth *float32 `yaml:"stroke-width"`
}

type textNode struct {
	Position    []float32 `yaml:"position"`
	Content     string    `yaml:"content"`
	FontSize    *float32  `yaml:"font-size"`
	FontSizeAlt *float32  `yaml:"fontSize"`
	Font        string    `yaml:"font"`
	Rotation    *float32  `yaml:"rotation"`
	Color       string    `yaml:"color"`
}

// Load reads a YAML scene description from path. Font attributes are
// resolved relative to the file's directory.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, filepath.Dir(path))
}

// LoadReader reads a YAML scene description from r. Font attributes are
// resolved relative to the working directory.
func LoadReader(r io.Reader) (*Scene, error) {
	return parse(r, "")
}

// ParseColor parses "#RGB", "#RRGGBB" or "#RRGGBBAA" into the packed
// color word the primitive stream stores (alpha high byte, red low).
// An empty string is fully opaque white.
func ParseColor(s string) (uint32, error) {
	if s == "" {
		return 0xFFFFFFFF, nil
	}
	if s[0] != '#' {
		return 0, fmt.Errorf("%w: %q", ErrColor, s)
	}
	hex := s[1:]
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}) + "FF"
	case 6:
		hex += "FF"
	case 8:
	default:
		return 0, fmt.Errorf("%w: %q", ErrColor, s)
	}

	var v uint32
	for i := 0; i < 8; i++ {
		n, ok := hexNibble(hex[i])
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrColor, s)
		}
		v = v<<4 | n
	}
	r := v >> 24 & 0xFF
	g := v >> 16 & 0xFF
	b := v >> 8 & 0xFF
	a := v & 0xFF
	return a<<24 | b<<16 | g<<8 | r, nil
}

func hexNibble(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}

// colors resolves the fill and stroke attributes of a shape, keeping the
// shape's defaults for absent values.
func colors(fillSpec, strokeSpec string, fillDef, strokeDef uint32) (uint32, uint32, error) {
	fill := fillDef
	if fillSpec != "" {
		var err error
		if fill, err = ParseColor(fillSpec); err != nil {
			return 0, 0, err
		}
	}
	stroke := strokeDef
	if strokeSpec != "" {
		var err error
		if stroke, err = ParseColor(strokeSpec); err != nil {
			return 0, 0, err
		}
	}
	return fill, stroke, nil
}

// loader accumulates a scene from YAML documents. Primitives replay
// through a scratch buffer so the word stream comes from the same
// writers the live path uses.
type loader struct {
	buf     *sdfscene.Buffer
	scene   *Scene
	baseDir string
	fonts   map[string]int
	nextID  uint32
	runes   uint32
}

func parse(r io.Reader, baseDir string) (*Scene, error) {
	scene := &Scene{BGColor: 0xFFFFFFFF, Flags: sdfscene.DefaultFlags}
	l := &loader{
		buf:     sdfscene.NewBuffer(),
		scene:   scene,
		baseDir: baseDir,
		fonts:   make(map[string]int),
	}

	dec := yaml.NewDecoder(r)
	for {
		var doc sceneDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scenefile: parse scene: %w", err)
		}
		if err := l.applyDoc(&doc); err != nil {
			return nil, err
		}
	}

	scene.PrimCount = uint32(l.buf.Len()) //nolint:gosec // prim count fits the offset table
	for i := 0; i < l.buf.Len(); i++ {
		scene.Words = append(scene.Words, l.buf.PrimWords(i)...)
	}

	sdfscene.Logger().Info("scene loaded",
		"primitives", scene.PrimCount,
		"spans", len(scene.Spans),
		"rotated", len(scene.Rotated),
		"fonts", len(scene.Fonts))
	return scene, nil
}

func (l *loader) applyDoc(doc *sceneDoc) error {
	if doc.Background != "" {
		c, err := ParseColor(doc.Background)
		if err != nil {
			return err
		}
		l.scene.BGColor = c
	}
	for _, f := range doc.Flags {
		switch f {
		case "show_bounds":
			l.scene.Flags |= sdfscene.FlagShowBounds
		case "show_grid":
			l.scene.Flags |= sdfscene.FlagShowGrid
		case "show_eval_count":
			l.scene.Flags |= sdfscene.FlagShowEvalCount
		}
	}
	for i := range doc.Body {
		if err := l.item(&doc.Body[i]); err != nil {
			return err
		}
	}
	return nil
}

// item replays one body entry. Layers follow the original numbering:
// each entry layers above every primitive and glyph before it.
func (l *loader) item(it *bodyItem) error {
	layer := l.nextID + l.runes

	switch {
	case it.Text != nil:
		return l.text(it.Text, layer)

	case it.Circle != nil:
		n := it.Circle
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddCircle(l.nextID, layer, cx, cy,
			f32(n.Radius, 10), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Box != nil:
		n := it.Box
		cx, cy := pair(n.Position, 0, 0)
		w, h := pair(n.Size, 20, 20)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddBox(l.nextID, layer, cx, cy, w/2, h/2,
			fill, stroke, f32(n.StrokeWidth, 0), f32(n.Round, 0)))

	case it.Segment != nil:
		n := it.Segment
		x0, y0 := pair(n.From, 0, 0)
		x1, y1 := pair(n.To, 100, 100)
		_, stroke, err := colors("", n.Stroke, 0, 0xFFFFFFFF)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddSegment(l.nextID, layer, x0, y0, x1, y1,
			0, stroke, f32(n.StrokeWidth, 1), 0))

	case it.Triangle != nil:
		n := it.Triangle
		x0, y0 := pair(n.P0, 0, 0)
		x1, y1 := pair(n.P1, 50, 100)
		x2, y2 := pair(n.P2, 100, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddTriangle(l.nextID, layer, x0, y0, x1, y1, x2, y2,
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Bezier != nil:
		n := it.Bezier
		x0, y0 := pair(n.P0, 0, 0)
		x1, y1 := pair(n.P1, 50, 50)
		x2, y2 := pair(n.P2, 100, 0)
		_, stroke, err := colors("", n.Stroke, 0, 0xFFFFFFFF)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddBezier2(l.nextID, layer, x0, y0, x1, y1, x2, y2,
			0, stroke, f32(n.StrokeWidth, 1), 0))

	case it.Ellipse != nil:
		n := it.Ellipse
		cx, cy := pair(n.Position, 0, 0)
		rx, ry := pair(n.Radii, 20, 10)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddEllipse(l.nextID, layer, cx, cy, rx, ry,
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Arc != nil:
		n := it.Arc
		cx, cy := pair(n.Position, 0, 0)
		sin, cos := sincos(f32(n.Angle, 90))
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0xFFFFFFFF)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddArc(l.nextID, layer, cx, cy, sin, cos,
			f32(n.Radius, 20), f32(n.Thickness, 2),
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Pentagon != nil:
		n := it.Pentagon
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddPentagon(l.nextID, layer, cx, cy,
			f32(n.Radius, 20), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Hexagon != nil:
		n := it.Hexagon
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddHexagon(l.nextID, layer, cx, cy,
			f32(n.Radius, 20), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Star != nil:
		n := it.Star
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddStar(l.nextID, layer, cx, cy,
			f32(n.Radius, 20), f32(n.Points, 5), f32(n.Inner, 2.5),
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Pie != nil:
		n := it.Pie
		cx, cy := pair(n.Position, 0, 0)
		sin, cos := sincos(f32(n.Angle, 45))
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddPie(l.nextID, layer, cx, cy, sin, cos,
			f32(n.Radius, 20), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Ring != nil:
		n := it.Ring
		cx, cy := pair(n.Position, 0, 0)
		sin, cos := sincos(f32(n.Angle, 0))
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddRing(l.nextID, layer, cx, cy, sin, cos,
			f32(n.Radius, 20), f32(n.Thickness, 4),
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Heart != nil:
		n := it.Heart
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0xFF0000FF, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddHeart(l.nextID, layer, cx, cy,
			f32(n.Scale, 20), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Cross != nil:
		n := it.Cross
		cx, cy := pair(n.Position, 0, 0)
		w, h := pair(n.Size, 20, 5)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddCross(l.nextID, layer, cx, cy, w, h,
			f32(n.Round, 0), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.RoundedX != nil:
		n := it.RoundedX
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddRoundedX(l.nextID, layer, cx, cy,
			f32(n.Width, 20), f32(n.Round, 3),
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Capsule != nil:
		n := it.Capsule
		x0, y0 := pair(n.From, 0, 0)
		x1, y1 := pair(n.To, 100, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddCapsule(l.nextID, layer, x0, y0, x1, y1,
			f32(n.Radius, 10), fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Rhombus != nil:
		n := it.Rhombus
		cx, cy := pair(n.Position, 0, 0)
		w, h := pair(n.Size, 20, 30)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddRhombus(l.nextID, layer, cx, cy, w, h,
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Moon != nil:
		n := it.Moon
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddMoon(l.nextID, layer, cx, cy,
			f32(n.Distance, 10), f32(n.RadiusOuter, 20), f32(n.RadiusInner, 15),
			fill, stroke, f32(n.StrokeWidth, 0), 0))

	case it.Egg != nil:
		n := it.Egg
		cx, cy := pair(n.Position, 0, 0)
		fill, stroke, err := colors(n.Fill, n.Stroke, 0, 0)
		if err != nil {
			return err
		}
		return l.add(l.buf.AddEgg(l.nextID, layer, cx, cy,
			f32(n.RadiusBottom, 20), f32(n.RadiusTop, 10),
			fill, stroke, f32(n.StrokeWidth, 0), 0))
	}
	return nil
}

func (l *loader) text(t *textNode, layer uint32) error {
	content := font.Normalize(t.Content)
	if content == "" {
		return nil
	}

	x, y := pair(t.Position, 0, 0)
	size := float32(16)
	if t.FontSize != nil {
		size = *t.FontSize
	}
	if t.FontSizeAlt != nil {
		size = *t.FontSizeAlt
	}
	color := uint32(0xFFFFFFFF)
	if t.Color != "" {
		var err error
		if color, err = ParseColor(t.Color); err != nil {
			return err
		}
	}

	fontIndex := -1
	if t.Font != "" {
		idx, err := l.fontIndex(t.Font)
		if err != nil {
			return err
		}
		fontIndex = idx
	}

	rotation := f32(t.Rotation, 0)
	switch {
	case rotation != 0 && fontIndex >= 0:
		l.scene.Rotated = append(l.scene.Rotated, RotatedSpan{
			X: x, Y: y,
			FontSize:  size,
			Rotation:  rotation * math.Pi / 180,
			Color:     color,
			FontIndex: fontIndex,
			Text:      content,
		})
	default:
		if rotation != 0 {
			sdfscene.Logger().Warn("rotated text needs a font, rotation dropped",
				"runes", utf8.RuneCountInString(content))
		}
		l.scene.Spans = append(l.scene.Spans, Span{
			X: x, Y: y,
			FontSize:  size,
			Color:     color,
			Layer:     layer,
			FontIndex: fontIndex,
			Text:      content,
		})
	}

	//nolint:gosec // rune counts are bounded well below 32 bits
	l.runes += uint32(utf8.RuneCountInString(content))
	return nil
}

// fontIndex resolves a font reference to a scene font table index,
// reading and deduplicating the blob on first use.
func (l *loader) fontIndex(ref string) (int, error) {
	if idx, ok := l.fonts[ref]; ok {
		return idx, nil
	}
	path := ref
	if l.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(l.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("scenefile: font %q: %w", ref, err)
	}

	idx := len(l.scene.Fonts)
	l.scene.Fonts = append(l.scene.Fonts, data)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	l.scene.FontNames = append(l.scene.FontNames, name)
	l.fonts[ref] = idx
	return idx, nil
}

// add commits one primitive added to the scratch buffer.
func (l *loader) add(err error) error {
	if err != nil {
		return fmt.Errorf("scenefile: add primitive %d: %w", l.nextID, err)
	}
	l.nextID++
	return nil
}

// f32 dereferences an optional attribute with a default.
func f32(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
}

// pair reads a two-element coordinate attribute with defaults.
func pair(v []float32, defX, defY float32) (float32, float32) {
	if len(v) >= 2 {
		return v[0], v[1]
	}
	return defX, defY
}

// sincos converts an angle attribute in degrees to the sine/cosine pair
// the angular primitives store.
func sincos(deg float32) (float32, float32) {
	s, c := math.Sincos(float64(deg) * math.Pi / 180)
	return float32(s), float32(c)
}
