// Package raster paints an editor state into a bitmap and encodes it for
// export.
package raster

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"stickerpad/internal/document"
)

var ErrNothingToExport = errors.New("nothing to export")

type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

func (f Format) Ext() string { return "." + string(f) }

// ParseFormat accepts "png" or "pdf", case-insensitively, with or without a
// leading dot.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(s), ".")) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", errors.Errorf("unknown export format %q", s)
}

const (
	DefaultWidth  = 1024
	DefaultHeight = 700

	textPadding   = 6.0
	lineSpacing   = 1.2
	placeholderSz = 64.0
)

var selectionColor = color.NRGBA{R: 0x4a, G: 0x90, B: 0xe2, A: 0xff}

type Renderer struct {
	width, height int
	pixelRatio    float64
	fonts         *FontSet
	logger        *slog.Logger
}

type Option func(*Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithPixelRatio scales the output bitmap relative to canvas units.
func WithPixelRatio(ratio float64) Option {
	return func(r *Renderer) {
		if ratio > 0 {
			r.pixelRatio = ratio
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(opts ...Option) (*Renderer, error) {
	fonts, err := NewFontSet()
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		width:      DefaultWidth,
		height:     DefaultHeight,
		pixelRatio: 2,
		fonts:      fonts,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Render paints st: background, then every layer by ascending zIndex, then
// the typing preview. The selected layer gets an outline, so callers that
// want a clean picture clear the selection first.
func (r *Renderer) Render(st document.State) image.Image {
	pw := int(math.Round(float64(r.width) * r.pixelRatio))
	ph := int(math.Round(float64(r.height) * r.pixelRatio))
	dc := gg.NewContext(pw, ph)
	dc.SetColor(color.White)
	dc.Clear()

	if slot, ok := st.Images[st.Background]; ok && st.Background != "" && slot.Status == document.StatusReady {
		scaled := image.NewRGBA(image.Rect(0, 0, pw, ph))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), slot.Image, slot.Image.Bounds(), xdraw.Over, nil)
		dc.DrawImage(scaled, 0, 0)
	}

	dc.Scale(r.pixelRatio, r.pixelRatio)
	for _, layer := range st.Layers() {
		switch {
		case layer.Text != nil:
			r.drawText(dc, *layer.Text, layer.Selected)
		case layer.Sticker != nil:
			r.drawSticker(dc, *layer.Sticker, st.Images[layer.Sticker.Src], layer.Selected)
		}
	}
	if st.Preview != nil && !st.Preview.Blank() {
		r.drawText(dc, *st.Preview, false)
	}
	return dc.Image()
}

// Export encodes the rendered state in format.
func (r *Renderer) Export(st document.State, format Format) ([]byte, error) {
	bgReady := st.Background != "" && st.Images[st.Background].Status == document.StatusReady
	if st.Document.Empty() && !bgReady {
		return nil, ErrNothingToExport
	}
	img := r.Render(st)

	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := gg.NewContextForImage(img).EncodePNG(&buf); err != nil {
			return nil, errors.Wrap(err, "encode png")
		}
	case FormatPDF:
		if err := r.encodePDF(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown export format %q", format)
	}
	r.logger.Debug("composition exported", "format", format, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// TextBounds measures the unrotated, unscaled box of a text element.
func (r *Renderer) TextBounds(el document.TextElement) (w, h float64) {
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(r.fonts.Face(el.FontFamily, el.FontStyle, fontSize(el)))
	return dc.MeasureMultilineString(el.Text, lineSpacing)
}

func fontSize(el document.TextElement) float64 {
	if el.FontSize <= 0 {
		return 1
	}
	return el.FontSize
}

func (r *Renderer) drawText(dc *gg.Context, el document.TextElement, selected bool) {
	if el.Blank() {
		return
	}
	size := fontSize(el)
	dc.Push()
	defer dc.Pop()

	dc.Translate(el.X, el.Y)
	dc.Rotate(gg.Radians(el.Rotation))
	dc.Scale(nonZero(el.ScaleX), nonZero(el.ScaleY))
	dc.SetFontFace(r.fonts.Face(el.FontFamily, el.FontStyle, size))

	lines := strings.Split(el.Text, "\n")
	w, _ := dc.MeasureMultilineString(el.Text, lineSpacing)
	lineHeight := dc.FontHeight() * lineSpacing
	h := lineHeight * float64(len(lines))

	if el.HasBackground {
		if c, ok := ParseColor(el.BackgroundColor, el.BackgroundOpacity*el.Opacity); ok {
			dc.SetColor(c)
			dc.DrawRoundedRectangle(-textPadding, -textPadding, w+2*textPadding, h+2*textPadding, el.BackgroundRadius)
			dc.Fill()
		}
	}
	if el.HasBorder && el.BorderWidth > 0 {
		if c, ok := ParseColor(el.BorderColor, el.Opacity); ok {
			dc.SetColor(c)
			dc.SetLineWidth(el.BorderWidth)
			dc.DrawRoundedRectangle(-textPadding, -textPadding, w+2*textPadding, h+2*textPadding, el.BackgroundRadius)
			dc.Stroke()
		}
	}

	fill, ok := ParseColor(el.Fill, el.Opacity)
	if !ok {
		fill = color.NRGBA{A: uint8(clamp01(el.Opacity) * 255)}
	}
	dc.SetColor(fill)
	for i, line := range lines {
		x, ax := 0.0, 0.0
		switch el.Align {
		case document.AlignCenter:
			x, ax = w/2, 0.5
		case document.AlignRight:
			x, ax = w, 1
		}
		dc.DrawStringAnchored(line, x, float64(i)*lineHeight, ax, 1)
	}

	if selected {
		drawSelection(dc, -textPadding, -textPadding, w+2*textPadding, h+2*textPadding)
	}
}

func (r *Renderer) drawSticker(dc *gg.Context, st document.StickerElement, slot document.ImageSlot, selected bool) {
	dc.Push()
	defer dc.Pop()

	dc.Translate(st.X, st.Y)
	dc.Rotate(gg.Radians(st.Rotation))
	dc.Scale(nonZero(st.ScaleX), nonZero(st.ScaleY))

	var w, h float64
	switch slot.Status {
	case document.StatusReady:
		b := slot.Image.Bounds()
		w, h = float64(b.Dx()), float64(b.Dy())
		dc.DrawImage(slot.Image, -b.Min.X, -b.Min.Y)
	case document.StatusBroken:
		w, h = placeholderSz, placeholderSz
		drawBroken(dc, w, h)
	default:
		// Nothing renders until the decode callback has fired.
		return
	}
	if selected {
		drawSelection(dc, 0, 0, w, h)
	}
}

func drawBroken(dc *gg.Context, w, h float64) {
	dc.SetColor(color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff})
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	dc.SetColor(color.NRGBA{R: 0xcc, A: 0xff})
	dc.SetLineWidth(2)
	dc.DrawRectangle(0, 0, w, h)
	dc.DrawLine(0, 0, w, h)
	dc.DrawLine(w, 0, 0, h)
	dc.Stroke()
}

func drawSelection(dc *gg.Context, x, y, w, h float64) {
	dc.SetColor(selectionColor)
	dc.SetLineWidth(2)
	dc.SetDash(6, 4)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()
	dc.SetDash()
}

func nonZero(v float64) float64 {
	if math.Abs(v) < document.MinScale {
		return document.MinScale
	}
	return v
}
