package editor

import (
	"math"

	"stickerpad/internal/document"
)

type Position struct {
	X, Y float64
}

// GeometrySnapshot is what a surface reports when a resize or rotate gesture
// ends. FontSize is set only by surfaces that resize text natively.
type GeometrySnapshot struct {
	X, Y           float64
	Rotation       float64
	ScaleX, ScaleY float64
	FontSize       *float64
}

// commitDrag writes the final position of a drag gesture.
func (e *Editor) commitDrag(ref document.Ref, pos Position) bool {
	if !finite(pos.X) || !finite(pos.Y) {
		return false
	}
	var ok bool
	e.store.Update(func(st *document.State) {
		switch ref.Kind {
		case document.KindText:
			var i int
			if _, i, ok = st.FindText(ref.ID); ok {
				st.TextElements[i].X, st.TextElements[i].Y = pos.X, pos.Y
			}
		case document.KindSticker:
			var i int
			if _, i, ok = st.FindSticker(ref.ID); ok {
				st.Stickers[i].X, st.Stickers[i].Y = pos.X, pos.Y
			}
		}
	})
	if !ok {
		e.logger.Debug("drag end for missing element", "ref", ref.ID)
	}
	return ok
}

// commitTransform writes the geometry of a finished resize/rotate gesture.
//
// Text folds the gesture's scale into fontSize and keeps scale at 1, so the
// surface-local scale is reset afterwards. Stickers keep scaleX/scaleY as
// reported.
func (e *Editor) commitTransform(ref document.Ref, g GeometrySnapshot) bool {
	if !finite(g.X) || !finite(g.Y) || !finite(g.Rotation) {
		return false
	}
	sx, sy := normScale(g.ScaleX), normScale(g.ScaleY)

	var ok bool
	e.store.Update(func(st *document.State) {
		switch ref.Kind {
		case document.KindText:
			var i int
			if _, i, ok = st.FindText(ref.ID); !ok {
				return
			}
			el := &st.TextElements[i]
			el.X, el.Y, el.Rotation = g.X, g.Y, g.Rotation
			size := el.FontSize * sx
			if g.FontSize != nil && finite(*g.FontSize) {
				size = *g.FontSize
			}
			el.FontSize = math.Max(MinFontSize, size)
			el.ScaleX, el.ScaleY = 1, 1
		case document.KindSticker:
			var i int
			if _, i, ok = st.FindSticker(ref.ID); !ok {
				return
			}
			s := &st.Stickers[i]
			s.X, s.Y, s.Rotation = g.X, g.Y, g.Rotation
			s.ScaleX, s.ScaleY = sx, sy
		}
	})
	if !ok {
		e.logger.Debug("transform end for missing element", "ref", ref.ID)
		return false
	}
	if ref.Kind == document.KindText {
		e.surface.ResetScale(ref)
	}
	return true
}

// normScale keeps a reported scale finite and at least MinScale in
// magnitude. A zero value means the surface did not report one.
func normScale(v float64) float64 {
	switch {
	case v == 0 || !finite(v):
		return 1
	case math.Abs(v) < document.MinScale:
		return math.Copysign(document.MinScale, v)
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
