package imagesrc

import (
	"bytes"
	"image"
	"math"

	"github.com/pkg/errors"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// DefaultSVGSize is used for SVGs that declare no usable viewBox.
const DefaultSVGSize = 128

func RasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.WarnErrorMode)
	if err != nil {
		return nil, errors.Wrap(err, "parse svg")
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = DefaultSVGSize, DefaultSVGSize
	}
	iw, ih := int(math.Ceil(w)), int(math.Ceil(h))
	icon.SetTarget(0, 0, float64(iw), float64(ih))

	rgba := image.NewRGBA(image.Rect(0, 0, iw, ih))
	scanner := rasterx.NewScannerGV(iw, ih, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(iw, ih, scanner), 1)
	return rgba, nil
}
