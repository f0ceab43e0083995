package raster

import (
	"bytes"
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
)

// encodePDF places the rendered bitmap on a single page sized to the canvas.
func (r *Renderer) encodePDF(w io.Writer, img image.Image) error {
	var png bytes.Buffer
	if err := gg.NewContextForImage(img).EncodePNG(&png); err != nil {
		return errors.Wrap(err, "encode pdf page image")
	}

	width, height := float64(r.width), float64(r.height)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("composition", opts, &png)
	pdf.ImageOptions("composition", 0, 0, width, height, false, opts, 0, "")
	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "encode pdf")
	}
	return nil
}
