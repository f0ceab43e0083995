package main

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickerpad/internal/document"
)

type boxMeasurer struct{ w, h float64 }

func (b boxMeasurer) TextBounds(document.TextElement) (float64, float64) { return b.w, b.h }

func canvasState() document.State {
	st := document.NewStore().Get()
	text := document.DefaultText()
	text.ID, text.Text, text.X, text.Y, text.ZIndex = "text-1", "Hello", 0, 0, 1
	sticker := document.DefaultSticker("/star.svg")
	sticker.ID, sticker.X, sticker.Y, sticker.ZIndex = "sticker-1", 500, 300, 2
	st.TextElements = []document.TextElement{text}
	st.Stickers = []document.StickerElement{sticker}
	st.MaxZIndex = 2
	st.Images["/star.svg"] = document.ImageSlot{Status: document.StatusReady, Image: image.NewRGBA(image.Rect(0, 0, 100, 100))}
	return st
}

func TestCanvasRendersLayers(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{w: 300, h: 100})
	lines := c.Render(canvasState(), 100, 50)
	require.Len(t, lines, 50)

	assert.Equal(t, '+', []rune(lines[0])[0])
	assert.Contains(t, lines[1], "Hello")
	assert.Equal(t, '░', []rune(lines[35])[55])
	assert.Contains(t, lines[31], "star.svg")
}

func TestCanvasHandlesFollowActiveNode(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{w: 300, h: 100})
	st := canvasState()
	st.Selection = document.Ref{Kind: document.KindText, ID: "text-1"}

	c.Attach(st.Selection)
	assert.Equal(t, '#', []rune(c.Render(st, 100, 50)[0])[0])

	c.ClearActiveNodes()
	assert.Equal(t, '=', []rune(c.Render(st, 100, 50)[0])[0])
}

func TestCanvasReusesFrameUntilRedraw(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{w: 300, h: 100})
	st := canvasState()
	c.Render(st, 100, 50)
	c.Render(st, 100, 50)
	assert.Equal(t, 1, c.frames)

	c.Redraw()
	c.Render(st, 100, 50)
	assert.Equal(t, 2, c.frames)

	c.Render(st, 80, 40)
	assert.Equal(t, 3, c.frames)
}

func TestCanvasGesture(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{w: 300, h: 100})
	st := canvasState()
	layers := st.Layers()

	_, _, _, ok := c.EndGesture()
	assert.False(t, ok)

	c.BeginGesture(layers[1])
	c.Nudge(-100, 50)
	c.Scale(1)
	c.Rotate(90)

	ref, pos, snap, ok := c.EndGesture()
	require.True(t, ok)
	assert.Equal(t, "sticker-1", ref.ID)
	assert.Equal(t, 400.0, pos.X)
	assert.Equal(t, 350.0, pos.Y)
	assert.Equal(t, 2.0, snap.ScaleX)
	assert.Equal(t, 90.0, snap.Rotation)

	c.ResetScale(ref)
	_, _, snap, _ = c.EndGesture()
	assert.Equal(t, 1.0, snap.ScaleX)

	c.FinishGesture()
	assert.False(t, c.Gesturing())
}

func TestCanvasScaleFloor(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{})
	c.BeginGesture(canvasState().Layers()[1])
	for i := 0; i < 100; i++ {
		c.Scale(-0.5)
	}
	_, _, snap, _ := c.EndGesture()
	assert.Equal(t, document.MinScale, snap.ScaleX)
}

func TestCanvasPreviewAndBrokenSticker(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{w: 200, h: 50})
	st := canvasState()
	st.Images["/star.svg"] = document.ImageSlot{Status: document.StatusBroken}
	preview := document.DefaultText()
	preview.ID, preview.Text = document.PreviewID, "typing"
	st.Preview = &preview

	out := strings.Join(c.Render(st, 200, 100), "\n")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "typing")
	assert.Contains(t, out, ":")
}

func TestToCanvas(t *testing.T) {
	c := NewCanvas(1000, 500, boxMeasurer{})
	x, y := c.ToCanvas(0, 0, 100, 50)
	assert.Equal(t, 5.0, x)
	assert.Equal(t, 5.0, y)
	x, y = c.ToCanvas(99, 49, 100, 50)
	assert.Equal(t, 995.0, x)
	assert.Equal(t, 495.0, y)
}
