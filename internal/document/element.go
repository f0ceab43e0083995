package document

import (
	"strings"

	"github.com/google/uuid"
)

type Kind string

const (
	KindText    Kind = "text"
	KindSticker Kind = "sticker"
)

type FontStyle string

const (
	FontNormal FontStyle = "normal"
	FontBold   FontStyle = "bold"
	FontItalic FontStyle = "italic"
)

func (s FontStyle) Valid() bool {
	switch s {
	case FontNormal, FontBold, FontItalic:
		return true
	}
	return false
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

func (a Align) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// PreviewID marks the transient element shown while text is typed with
// nothing selected. It is never stored in the document.
const PreviewID = "preview"

// MinScale is the smallest scale factor an element may carry.
const MinScale = 0.01

type TextElement struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`

	FontSize   float64   `json:"fontSize"`
	FontFamily string    `json:"fontFamily"`
	Fill       string    `json:"fill"`
	FontStyle  FontStyle `json:"fontStyle"`
	Align      Align     `json:"align"`
	Opacity    float64   `json:"opacity"`

	HasBackground     bool    `json:"hasBackground"`
	BackgroundColor   string  `json:"backgroundColor"`
	BackgroundOpacity float64 `json:"backgroundOpacity"`
	BackgroundRadius  float64 `json:"backgroundRadius"`

	HasBorder   bool    `json:"hasBorder"`
	BorderColor string  `json:"borderColor"`
	BorderWidth float64 `json:"borderWidth"`

	ZIndex int `json:"zIndex"`
}

// Blank reports whether the element would render no visible glyphs.
func (t TextElement) Blank() bool {
	return strings.TrimSpace(t.Text) == ""
}

func (t TextElement) Ref() Ref { return Ref{Kind: KindText, ID: t.ID} }

type StickerElement struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	ZIndex   int     `json:"zIndex"`
	Src      string  `json:"src"`
}

func (s StickerElement) Ref() Ref { return Ref{Kind: KindSticker, ID: s.ID} }

// AvailableSticker is a catalog entry, not an instance on the canvas.
type AvailableSticker struct {
	Name string `json:"name"`
	Src  string `json:"src"`
}

// Ref points at one element of either kind.
type Ref struct {
	Kind Kind
	ID   string
}

func (r Ref) IsZero() bool { return r.ID == "" }

// DefaultText returns a text element carrying the default style.
func DefaultText() TextElement {
	return TextElement{
		X:                 200,
		Y:                 200,
		ScaleX:            1,
		ScaleY:            1,
		FontSize:          30,
		FontFamily:        "Go",
		Fill:              "#000000",
		FontStyle:         FontNormal,
		Align:             AlignCenter,
		Opacity:           1,
		BackgroundColor:   "#ffffff",
		BackgroundOpacity: 1,
		BorderColor:       "#000000",
		BorderWidth:       1,
	}
}

func DefaultSticker(src string) StickerElement {
	return StickerElement{
		X:      100,
		Y:      100,
		ScaleX: 1,
		ScaleY: 1,
		Src:    src,
	}
}

// NewID returns a fresh element id for kind. Ids are never reused.
func NewID(kind Kind) string {
	return string(kind) + "-" + uuid.NewString()
}
