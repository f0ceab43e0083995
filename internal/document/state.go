package document

import (
	"image"
	"sort"
)

// Document is the content tracked by undo/redo.
type Document struct {
	TextElements []TextElement    `json:"textElements"`
	Stickers     []StickerElement `json:"stickers"`
	MaxZIndex    int              `json:"maxZIndex"`
}

// Clone deep-copies the document. Empty collections come back non-nil so
// equal documents always encode identically.
func (d Document) Clone() Document {
	out := Document{
		TextElements: make([]TextElement, len(d.TextElements)),
		Stickers:     make([]StickerElement, len(d.Stickers)),
		MaxZIndex:    d.MaxZIndex,
	}
	copy(out.TextElements, d.TextElements)
	copy(out.Stickers, d.Stickers)
	return out
}

func (d Document) Empty() bool {
	return len(d.TextElements) == 0 && len(d.Stickers) == 0
}

func (d Document) FindText(id string) (TextElement, int, bool) {
	for i, el := range d.TextElements {
		if el.ID == id {
			return el, i, true
		}
	}
	return TextElement{}, -1, false
}

func (d Document) FindSticker(id string) (StickerElement, int, bool) {
	for i, st := range d.Stickers {
		if st.ID == id {
			return st, i, true
		}
	}
	return StickerElement{}, -1, false
}

// Has reports whether ref names an element in the document.
func (d Document) Has(ref Ref) bool {
	switch ref.Kind {
	case KindText:
		_, _, ok := d.FindText(ref.ID)
		return ok
	case KindSticker:
		_, _, ok := d.FindSticker(ref.ID)
		return ok
	}
	return false
}

type ImageStatus int

const (
	StatusPending ImageStatus = iota
	StatusReady
	StatusBroken
)

func (s ImageStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusBroken:
		return "broken"
	default:
		return "pending"
	}
}

// ImageSlot holds the decoded handle for one image source. Until the decode
// callback fires the slot is pending and Image is nil.
type ImageSlot struct {
	Status ImageStatus
	Image  image.Image
	Err    error
}

// State is everything the store holds. Only the embedded Document is
// undoable; the rest is transient UI state.
type State struct {
	Document

	Catalog    []AvailableSticker
	Selection  Ref
	Input      string
	Preview    *TextElement
	Background string
	Images     map[string]ImageSlot
}

func (s State) Clone() State {
	out := s
	out.Document = s.Document.Clone()
	out.Catalog = append([]AvailableSticker(nil), s.Catalog...)
	if s.Preview != nil {
		p := *s.Preview
		out.Preview = &p
	}
	out.Images = make(map[string]ImageSlot, len(s.Images))
	for k, v := range s.Images {
		out.Images[k] = v
	}
	return out
}

func (s State) IsSelected(ref Ref) bool {
	return !ref.IsZero() && s.Selection == ref
}

// SelectedText returns the selected text element, if the selection is one.
func (s State) SelectedText() (TextElement, bool) {
	if s.Selection.Kind != KindText {
		return TextElement{}, false
	}
	el, _, ok := s.FindText(s.Selection.ID)
	return el, ok
}

func (s State) SelectedSticker() (StickerElement, bool) {
	if s.Selection.Kind != KindSticker {
		return StickerElement{}, false
	}
	st, _, ok := s.FindSticker(s.Selection.ID)
	return st, ok
}

// Layer is a read-only view of one element in paint order.
type Layer struct {
	Ref      Ref
	ZIndex   int
	Selected bool
	Text     *TextElement
	Sticker  *StickerElement
}

// Layers returns the union of both element kinds sorted by zIndex ascending.
// Ties keep text before stickers and insertion order within a kind.
func (s State) Layers() []Layer {
	layers := make([]Layer, 0, len(s.TextElements)+len(s.Stickers))
	for i := range s.TextElements {
		el := s.TextElements[i]
		layers = append(layers, Layer{Ref: el.Ref(), ZIndex: el.ZIndex, Selected: s.IsSelected(el.Ref()), Text: &el})
	}
	for i := range s.Stickers {
		st := s.Stickers[i]
		layers = append(layers, Layer{Ref: st.Ref(), ZIndex: st.ZIndex, Selected: s.IsSelected(st.Ref()), Sticker: &st})
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].ZIndex < layers[j].ZIndex
	})
	return layers
}
