package editor

import (
	"strings"

	"stickerpad/internal/document"
)

// SetTextContent mirrors the text-entry control. With a text element selected
// the element is patched live; otherwise the input drives a preview element
// that only becomes part of the document on commit.
func (e *Editor) SetTextContent(text string) {
	e.store.Update(func(st *document.State) {
		st.Input = text
		if st.Selection.Kind == document.KindText {
			if _, i, ok := st.FindText(st.Selection.ID); ok {
				st.TextElements[i].Text = text
				return
			}
		}
		// Typing always targets text; a selected sticker lets go.
		st.Selection = document.Ref{}
		st.Preview = e.previewFor(text)
	})
}

func (e *Editor) previewFor(text string) *document.TextElement {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	el := document.DefaultText()
	if e.fontSize > 0 {
		el.FontSize = e.fontSize
	}
	el.ID = document.PreviewID
	el.Text = trimmed
	return &el
}

// HandleControlFocusOut is the commit trigger. Focus moving to another
// control of the same panel is ignored.
func (e *Editor) HandleControlFocusOut(ev FocusEvent) {
	if ev.Related != "" && e.panel.Contains(ev.Related) {
		return
	}
	var committed string
	e.store.Update(func(st *document.State) {
		committed = commitInput(st)
		st.Input = ""
		st.Selection = document.Ref{}
		st.Preview = nil
	})
	if committed != "" {
		e.logger.Debug("text committed", "id", committed)
	}
	e.surface.ClearActiveNodes()
}

// commitInput settles the input buffer against the document: a blank buffer
// deletes the selected text element, a non-blank buffer with nothing selected
// becomes a new element. It returns the id of a created element.
func commitInput(st *document.State) string {
	blank := strings.TrimSpace(st.Input) == ""
	switch {
	case st.Selection.Kind == document.KindText:
		if blank {
			removeTextByID(st, st.Selection.ID)
		}
	case st.Selection.IsZero() && !blank:
		el := document.DefaultText()
		if st.Preview != nil {
			el = *st.Preview
		}
		el.ID = document.NewID(document.KindText)
		el.Text = strings.TrimSpace(st.Input)
		st.MaxZIndex++
		el.ZIndex = st.MaxZIndex
		st.TextElements = append(st.TextElements, el)
		return el.ID
	}
	return ""
}

// HandleTextSelect selects the text element id across both kinds, brings it
// to front and loads its text into the input.
func (e *Editor) HandleTextSelect(id string) bool {
	return e.selectElement(document.Ref{Kind: document.KindText, ID: id})
}

func (e *Editor) HandleTextDragEnd(id string, pos Position) bool {
	return e.commitDrag(document.Ref{Kind: document.KindText, ID: id}, pos)
}

func (e *Editor) HandleTextTransform(id string, g GeometrySnapshot) bool {
	return e.commitTransform(document.Ref{Kind: document.KindText, ID: id}, g)
}

// MakeCaps upper-cases the selected text element and the input buffer.
func (e *Editor) MakeCaps() bool {
	var changed bool
	e.store.Update(func(st *document.State) {
		if st.Selection.Kind != document.KindText {
			return
		}
		_, i, ok := st.FindText(st.Selection.ID)
		if !ok {
			return
		}
		upper := strings.ToUpper(st.TextElements[i].Text)
		st.TextElements[i].Text = upper
		st.Input = upper
		changed = true
	})
	return changed
}

// RemoveText deletes the text element id, or the selected text element when
// id is empty.
func (e *Editor) RemoveText(id string) bool {
	var removed bool
	e.store.Update(func(st *document.State) {
		target := id
		if target == "" && st.Selection.Kind == document.KindText {
			target = st.Selection.ID
		}
		if target == "" {
			return
		}
		removed = removeTextByID(st, target)
	})
	if removed {
		e.surface.ClearActiveNodes()
	}
	return removed
}

func removeTextByID(st *document.State, id string) bool {
	_, i, ok := st.FindText(id)
	if !ok {
		return false
	}
	st.TextElements = append(st.TextElements[:i:i], st.TextElements[i+1:]...)
	if st.Selection == (document.Ref{Kind: document.KindText, ID: id}) {
		st.Selection = document.Ref{}
		st.Input = ""
		st.Preview = nil
	}
	return true
}

// DeselectAll clears the selection. A selected text element left blank is
// deleted rather than kept.
func (e *Editor) DeselectAll() {
	e.store.Update(deselect)
	e.surface.ClearActiveNodes()
}

func deselect(st *document.State) {
	if st.Selection.Kind == document.KindText {
		if el, _, ok := st.FindText(st.Selection.ID); ok && el.Blank() {
			removeTextByID(st, el.ID)
		}
	}
	st.Selection = document.Ref{}
	st.Preview = nil
	st.Input = ""
}

// SelectedText returns the selected text element, if any.
func (e *Editor) SelectedText() (document.TextElement, bool) {
	return e.store.Get().SelectedText()
}

// TextStyle is the subset of text attributes shown by the style controls.
type TextStyle struct {
	FontSize   float64
	FontFamily string
	Fill       string
	FontStyle  document.FontStyle
	Align      document.Align
	Opacity    float64

	HasBackground bool
	HasBorder     bool
}

// CurrentTextStyle reports the selected element's style, or the defaults.
func (e *Editor) CurrentTextStyle() TextStyle {
	el, ok := e.SelectedText()
	if !ok {
		el = document.DefaultText()
	}
	return TextStyle{
		FontSize:      el.FontSize,
		FontFamily:    el.FontFamily,
		Fill:          el.Fill,
		FontStyle:     el.FontStyle,
		Align:         el.Align,
		Opacity:       el.Opacity,
		HasBackground: el.HasBackground,
		HasBorder:     el.HasBorder,
	}
}
