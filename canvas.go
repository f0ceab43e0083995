package main

import (
	"math"
	"path"
	"strings"

	"stickerpad/internal/document"
	"stickerpad/internal/editor"
)

// gesture is the local transform of the node being moved, scaled or rotated.
// It stays on the canvas until the gesture ends and the editor commits it.
type gesture struct {
	ref            document.Ref
	x, y           float64
	rotation       float64
	scaleX, scaleY float64
}

// Canvas is the terminal rendering surface. It draws a coarse character-cell
// picture of the layer stack and owns the manipulation handles.
type Canvas struct {
	width, height float64
	measurer      editor.Measurer

	active  document.Ref
	gesture *gesture

	dirty  bool
	frames int
	cache  []string
	cacheW int
	cacheH int
}

func NewCanvas(width, height int, measurer editor.Measurer) *Canvas {
	return &Canvas{
		width:    float64(width),
		height:   float64(height),
		measurer: measurer,
		dirty:    true,
	}
}

func (c *Canvas) ClearActiveNodes() {
	c.active = document.Ref{}
	c.dirty = true
}

func (c *Canvas) Redraw() {
	c.dirty = true
}

// ResetScale drops the local scale of ref's node once its size has been
// folded into the element.
func (c *Canvas) ResetScale(ref document.Ref) {
	if c.gesture != nil && c.gesture.ref == ref {
		c.gesture.scaleX, c.gesture.scaleY = 1, 1
		c.dirty = true
	}
}

// Attach puts the handles on ref.
func (c *Canvas) Attach(ref document.Ref) {
	c.active = ref
	c.dirty = true
}

func (c *Canvas) Active() document.Ref { return c.active }

// BeginGesture starts manipulating layer from its committed geometry.
func (c *Canvas) BeginGesture(l document.Layer) {
	g := &gesture{ref: l.Ref, scaleX: 1, scaleY: 1}
	switch {
	case l.Text != nil:
		g.x, g.y, g.rotation = l.Text.X, l.Text.Y, l.Text.Rotation
	case l.Sticker != nil:
		g.x, g.y, g.rotation = l.Sticker.X, l.Sticker.Y, l.Sticker.Rotation
		g.scaleX, g.scaleY = l.Sticker.ScaleX, l.Sticker.ScaleY
	}
	c.gesture = g
	c.dirty = true
}

func (c *Canvas) Gesturing() bool { return c.gesture != nil }

func (c *Canvas) Nudge(dx, dy float64) {
	if c.gesture == nil {
		return
	}
	c.gesture.x += dx
	c.gesture.y += dy
	c.dirty = true
}

func (c *Canvas) Rotate(deg float64) {
	if c.gesture == nil {
		return
	}
	c.gesture.rotation = math.Mod(c.gesture.rotation+deg, 360)
	c.dirty = true
}

// Scale multiplies the node scale by 1+step, never below document.MinScale.
func (c *Canvas) Scale(step float64) {
	if c.gesture == nil {
		return
	}
	f := 1 + step
	c.gesture.scaleX = math.Max(document.MinScale, c.gesture.scaleX*f)
	c.gesture.scaleY = math.Max(document.MinScale, c.gesture.scaleY*f)
	c.dirty = true
}

// EndGesture reports where the node ended up. The gesture stays active so
// ResetScale can still reach it; FinishGesture drops it.
func (c *Canvas) EndGesture() (document.Ref, editor.Position, editor.GeometrySnapshot, bool) {
	g := c.gesture
	if g == nil {
		return document.Ref{}, editor.Position{}, editor.GeometrySnapshot{}, false
	}
	snap := editor.GeometrySnapshot{
		X:        g.x,
		Y:        g.y,
		Rotation: g.rotation,
		ScaleX:   g.scaleX,
		ScaleY:   g.scaleY,
	}
	return g.ref, editor.Position{X: g.x, Y: g.y}, snap, true
}

func (c *Canvas) FinishGesture() {
	c.gesture = nil
	c.dirty = true
}

// ToCanvas maps a terminal cell inside a cols x rows viewport to canvas px.
func (c *Canvas) ToCanvas(col, row, cols, rows int) (float64, float64) {
	if cols < 1 || rows < 1 {
		return 0, 0
	}
	return (float64(col) + 0.5) * c.width / float64(cols), (float64(row) + 0.5) * c.height / float64(rows)
}

// Render returns the cols x rows picture of st. The previous frame is reused
// until something calls Redraw or the viewport changes size.
func (c *Canvas) Render(st document.State, cols, rows int) []string {
	if cols < 1 || rows < 1 {
		return nil
	}
	if !c.dirty && c.cacheW == cols && c.cacheH == rows && c.cache != nil {
		return c.cache
	}

	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}
	sx, sy := float64(cols)/c.width, float64(rows)/c.height

	for _, l := range st.Layers() {
		x0, y0, x1, y1 := c.bounds(st, l)
		box := cellBox{
			left:   int(math.Floor(x0 * sx)),
			top:    int(math.Floor(y0 * sy)),
			right:  int(math.Ceil(x1*sx)) - 1,
			bottom: int(math.Ceil(y1*sy)) - 1,
		}
		border := '+'
		switch {
		case l.Ref == c.active:
			border = '#'
		case l.Selected:
			border = '='
		}
		fill, label := ' ', ""
		switch {
		case l.Text != nil:
			label = l.Text.Text
		case l.Sticker != nil:
			label = stickerLabel(st, l.Sticker.Src)
			switch st.Images[l.Sticker.Src].Status {
			case document.StatusPending:
				fill = '.'
			case document.StatusBroken:
				fill, label = 'x', "broken"
			default:
				fill = '░'
			}
		}
		drawCellBox(grid, box, border, fill, label)
	}

	if st.Preview != nil && !st.Preview.Blank() {
		x0, y0, x1, y1 := c.textBounds(*st.Preview, st.Preview.X, st.Preview.Y, st.Preview.Rotation, 1, 1)
		box := cellBox{
			left:   int(math.Floor(x0 * sx)),
			top:    int(math.Floor(y0 * sy)),
			right:  int(math.Ceil(x1*sx)) - 1,
			bottom: int(math.Ceil(y1*sy)) - 1,
		}
		drawCellBox(grid, box, ':', ' ', st.Preview.Text)
	}

	lines := make([]string, rows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	c.cache, c.cacheW, c.cacheH = lines, cols, rows
	c.dirty = false
	c.frames++
	return lines
}

// bounds is the axis-aligned box of a layer in canvas px, using the gesture
// geometry while the layer is being manipulated.
func (c *Canvas) bounds(st document.State, l document.Layer) (x0, y0, x1, y1 float64) {
	g := c.gesture
	if g != nil && g.ref != l.Ref {
		g = nil
	}
	switch {
	case l.Text != nil:
		el := *l.Text
		if g != nil {
			return c.textBounds(el, g.x, g.y, g.rotation, g.scaleX, g.scaleY)
		}
		return c.textBounds(el, el.X, el.Y, el.Rotation, 1, 1)
	case l.Sticker != nil:
		s := *l.Sticker
		w, h := placeholderSize, placeholderSize
		if slot := st.Images[s.Src]; slot.Status == document.StatusReady && slot.Image != nil {
			b := slot.Image.Bounds()
			w, h = float64(b.Dx()), float64(b.Dy())
		}
		if g != nil {
			return rotatedBox(g.x, g.y, w*g.scaleX, h*g.scaleY, g.rotation)
		}
		return rotatedBox(s.X, s.Y, w*s.ScaleX, h*s.ScaleY, s.Rotation)
	}
	return 0, 0, 0, 0
}

func (c *Canvas) textBounds(el document.TextElement, x, y, rotation, scaleX, scaleY float64) (float64, float64, float64, float64) {
	w, h := c.measurer.TextBounds(el)
	return rotatedBox(x, y, w*scaleX, h*scaleY, rotation)
}

const placeholderSize = 64.0

func rotatedBox(x, y, w, h, rotation float64) (float64, float64, float64, float64) {
	rad := rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		px := x + p[0]*cos - p[1]*sin
		py := y + p[0]*sin + p[1]*cos
		minX, maxX = math.Min(minX, px), math.Max(maxX, px)
		minY, maxY = math.Min(minY, py), math.Max(maxY, py)
	}
	return minX, minY, maxX, maxY
}

type cellBox struct {
	left, top, right, bottom int
}

func drawCellBox(grid [][]rune, box cellBox, border, fill rune, label string) {
	if box.right < box.left {
		box.right = box.left
	}
	if box.bottom < box.top {
		box.bottom = box.top
	}
	for y := box.top; y <= box.bottom; y++ {
		for x := box.left; x <= box.right; x++ {
			if !inGrid(grid, x, y) {
				continue
			}
			edge := y == box.top || y == box.bottom || x == box.left || x == box.right
			if edge {
				grid[y][x] = border
			} else {
				grid[y][x] = fill
			}
		}
	}

	// label goes on the first inner row, or on the border of flat boxes
	row := box.top + 1
	if row > box.bottom {
		row = box.top
	}
	first := strings.SplitN(label, "\n", 2)[0]
	x := box.left + 1
	for _, r := range first {
		if x >= box.right || !inGrid(grid, x, row) {
			break
		}
		grid[row][x] = r
		x++
	}
}

func inGrid(grid [][]rune, x, y int) bool {
	return y >= 0 && y < len(grid) && x >= 0 && x < len(grid[y])
}

func stickerLabel(st document.State, src string) string {
	for _, entry := range st.Catalog {
		if entry.Src == src {
			return entry.Name
		}
	}
	if strings.HasPrefix(src, "data:") {
		return "sticker"
	}
	return path.Base(src)
}
