package raster

import (
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"stickerpad/internal/document"
)

type fontKey struct {
	family string
	style  document.FontStyle
}

type faceKey struct {
	fontKey
	size float64
}

// FontSet maps a family/style pair onto the bundled Go fonts. Unknown
// families fall back to the proportional Go face.
type FontSet struct {
	mu    sync.Mutex
	fonts map[fontKey]*truetype.Font
	faces map[faceKey]font.Face
}

func NewFontSet() (*FontSet, error) {
	sources := map[fontKey][]byte{
		{"go", document.FontNormal}:      goregular.TTF,
		{"go", document.FontBold}:        gobold.TTF,
		{"go", document.FontItalic}:      goitalic.TTF,
		{"go mono", document.FontNormal}: gomono.TTF,
		{"go mono", document.FontBold}:   gomonobold.TTF,
		{"go mono", document.FontItalic}: gomonoitalic.TTF,
	}
	fs := &FontSet{
		fonts: make(map[fontKey]*truetype.Font, len(sources)),
		faces: map[faceKey]font.Face{},
	}
	for key, data := range sources {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "parse font %s/%s", key.family, key.style)
		}
		fs.fonts[key] = f
	}
	return fs, nil
}

func (fs *FontSet) Face(family string, style document.FontStyle, size float64) font.Face {
	key := fs.resolve(family, style)
	fk := faceKey{fontKey: key, size: size}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if face, ok := fs.faces[fk]; ok {
		return face
	}
	face := truetype.NewFace(fs.fonts[key], &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.faces[fk] = face
	return face
}

func (fs *FontSet) resolve(family string, style document.FontStyle) fontKey {
	if !style.Valid() {
		style = document.FontNormal
	}
	fam := strings.ToLower(strings.TrimSpace(family))
	switch {
	case strings.Contains(fam, "mono"), strings.Contains(fam, "courier"):
		fam = "go mono"
	default:
		fam = "go"
	}
	return fontKey{fam, style}
}
