package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"stickerpad/internal/document"
)

func (m *model) handleNavigation(key string, speed int) (tea.Model, tea.Cmd) {
	if m.mode != ModeMove {
		if !m.beginGesture() {
			m.errorMessage = "Select a layer first (tab)"
			return m, nil
		}
		m.mode = ModeMove
	}
	step := moveStep * float64(speed)
	switch key {
	case "h", "left", "H", "shift+left":
		m.canvas.Nudge(-step, 0)
	case "l", "right", "L", "shift+right":
		m.canvas.Nudge(step, 0)
	case "k", "up", "K", "shift+up":
		m.canvas.Nudge(0, -step)
	case "j", "down", "J", "shift+down":
		m.canvas.Nudge(0, step)
	}
	return m, nil
}

func (m *model) handleTransformKey(key string) {
	switch key {
	case "+", "=":
		m.canvas.Scale(scaleStep)
	case "-", "_":
		m.canvas.Scale(-scaleStep)
	case "]":
		m.canvas.Rotate(rotateStep)
	case "[":
		m.canvas.Rotate(-rotateStep)
	}
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 5
	default:
		return 1
	}
}

// beginGesture attaches a gesture to the selected layer.
func (m *model) beginGesture() bool {
	if m.canvas.Gesturing() {
		return true
	}
	st := m.ed.State()
	for _, l := range st.Layers() {
		if l.Selected {
			m.canvas.BeginGesture(l)
			return true
		}
	}
	return false
}

// commitGesture ends the running gesture the way a canvas reports dragend or
// transformend.
func (m *model) commitGesture() {
	ref, pos, snap, ok := m.canvas.EndGesture()
	if !ok {
		return
	}
	defer m.canvas.FinishGesture()
	switch {
	case m.mode == ModeMove && ref.Kind == document.KindText:
		m.ed.HandleTextDragEnd(ref.ID, pos)
	case m.mode == ModeMove && ref.Kind == document.KindSticker:
		m.ed.HandleStickerDragEnd(ref.ID, pos)
	case ref.Kind == document.KindText:
		m.ed.HandleTextTransform(ref.ID, snap)
	case ref.Kind == document.KindSticker:
		m.ed.HandleStickerTransform(ref.ID, snap)
	}
}

// cycleSelection selects the next layer, wrapping around.
func (m *model) cycleSelection(delta int) {
	// Selecting raises a layer to the top, so walk creation order instead of
	// the paint order.
	st := m.ed.State()
	refs := stableRefs(st)
	if len(refs) == 0 {
		return
	}
	current := -1
	sel := st.Selection
	for i, ref := range refs {
		if ref == sel {
			current = i
		}
	}
	next := (current + delta + len(refs)) % len(refs)
	if current < 0 && delta < 0 {
		next = len(refs) - 1
	}
	m.selectLayer(refs[next])
}

func (m *model) selectLayer(ref document.Ref) {
	m.ed.Select(ref)
	if m.ed.State().Selection == ref {
		m.canvas.Attach(ref)
	}
}

func stableRefs(st document.State) []document.Ref {
	refs := make([]document.Ref, 0, len(st.TextElements)+len(st.Stickers))
	for _, el := range st.TextElements {
		refs = append(refs, el.Ref())
	}
	for _, s := range st.Stickers {
		refs = append(refs, s.Ref())
	}
	return refs
}
