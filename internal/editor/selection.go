package editor

import (
	"math"

	"stickerpad/internal/document"
)

// selectElement makes ref the only selected element and brings it to front.
// Pending typed text is committed first and a blank text element losing the
// selection is deleted.
func (e *Editor) selectElement(ref document.Ref) bool {
	var ok bool
	e.store.Update(func(st *document.State) {
		if !st.Has(ref) {
			return
		}
		ok = true
		if st.Selection == ref {
			document.RaiseToFront(st, ref)
			return
		}
		if st.Selection.IsZero() {
			commitInput(st)
		}
		deselect(st)
		document.RaiseToFront(st, ref)
		st.Selection = ref
		if ref.Kind == document.KindText {
			el, _, _ := st.FindText(ref.ID)
			st.Input = el.Text
		}
	})
	if !ok {
		e.logger.Debug("select of missing element", "ref", ref.ID)
	}
	return ok
}

// Select routes to the kind-specific select handler.
func (e *Editor) Select(ref document.Ref) bool {
	switch ref.Kind {
	case document.KindText:
		return e.HandleTextSelect(ref.ID)
	case document.KindSticker:
		return e.HandleStickerSelect(ref.ID)
	}
	return false
}

// HandleStageClick handles a click on the drawing surface. A zero hit means
// the click landed on the stage itself: everything is deselected, the
// surface drops its handles and redraws. Otherwise the hit element is
// selected.
func (e *Editor) HandleStageClick(hit document.Ref) {
	if !hit.IsZero() {
		e.Select(hit)
		return
	}
	e.store.Update(deselect)
	e.surface.ClearActiveNodes()
	e.surface.Redraw()
}

// PaintOrder lists all elements bottom to top. Hit testing walks it in
// reverse.
func (e *Editor) PaintOrder() []document.Layer {
	return e.store.Get().Layers()
}

// HitTest returns the topmost element whose box contains the canvas point.
func (e *Editor) HitTest(x, y float64) (document.Ref, bool) {
	st := e.store.Get()
	layers := st.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		var ox, oy, rot, sx, sy, w, h float64
		switch {
		case l.Text != nil:
			ox, oy, rot, sx, sy = l.Text.X, l.Text.Y, l.Text.Rotation, l.Text.ScaleX, l.Text.ScaleY
			w, h = e.measurer.TextBounds(*l.Text)
		case l.Sticker != nil:
			slot := st.Images[l.Sticker.Src]
			if slot.Status != document.StatusReady {
				continue
			}
			ox, oy, rot, sx, sy = l.Sticker.X, l.Sticker.Y, l.Sticker.Rotation, l.Sticker.ScaleX, l.Sticker.ScaleY
			b := slot.Image.Bounds()
			w, h = float64(b.Dx()), float64(b.Dy())
		}
		lx, ly := toLocal(x-ox, y-oy, rot, normScale(sx), normScale(sy))
		if lx >= 0 && ly >= 0 && lx <= w && ly <= h {
			return l.Ref, true
		}
	}
	return document.Ref{}, false
}

func toLocal(dx, dy, rotation, sx, sy float64) (float64, float64) {
	rad := -rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return (dx*cos - dy*sin) / sx, (dx*sin + dy*cos) / sy
}

// approxMeasurer sizes text from glyph count when no font metrics are wired.
type approxMeasurer struct{}

func (approxMeasurer) TextBounds(el document.TextElement) (float64, float64) {
	longest, lines := 0, 1
	cur := 0
	for _, r := range el.Text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur > longest {
			longest = cur
		}
	}
	return float64(longest) * el.FontSize * 0.6, float64(lines) * el.FontSize * 1.2
}
