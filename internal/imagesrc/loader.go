// Package imagesrc turns image source references (data URIs, file paths and
// http(s) URLs) into decoded images.
package imagesrc

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

var (
	ErrEmptySource       = errors.New("empty image source")
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrTooLarge          = errors.New("image source too large")
)

const maxSourceBytes = 32 << 20

type Loader struct {
	assetDir string
	client   *http.Client
	logger   *slog.Logger
	group    singleflight.Group
}

type Option func(*Loader)

// WithAssetDir resolves rooted and relative paths ("/sticker.svg") against
// dir, the way a web server serves its public folder.
func WithAssetDir(dir string) Option {
	return func(l *Loader) { l.assetDir = dir }
}

func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(opts ...Option) *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 15 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes src on its own goroutine and hands the result to done.
// Concurrent loads of the same source share one decode.
func (l *Loader) Load(ctx context.Context, src string, done func(image.Image, error)) {
	go func() {
		img, err := l.Decode(ctx, src)
		if err != nil {
			l.logger.Warn("image decode failed", "src", abbreviate(src), "err", err)
		}
		done(img, err)
	}()
}

func (l *Loader) Decode(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmptySource
	}
	v, err, _ := l.group.Do(src, func() (interface{}, error) {
		data, mime, err := l.fetch(ctx, src)
		if err != nil {
			return nil, err
		}
		return decodeBytes(data, mime, src)
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return ParseDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetchHTTP(ctx, src)
	case strings.Contains(src, "://"):
		return nil, "", errors.Wrapf(ErrUnsupportedSource, "scheme in %q", abbreviate(src))
	}
	path := src
	if l.assetDir != "" {
		candidate := filepath.Join(l.assetDir, filepath.FromSlash(strings.TrimPrefix(src, "/")))
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read image %s", path)
	}
	return data, "", nil
}

func (l *Loader) fetchHTTP(ctx context.Context, src string) ([]byte, string, error) {
	if _, err := url.Parse(src); err != nil {
		return nil, "", errors.Wrap(err, "parse image url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "build image request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "fetch %s", src)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", src)
	}
	if len(data) > maxSourceBytes {
		return nil, "", ErrTooLarge
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeBytes(data []byte, mime, src string) (image.Image, error) {
	if isSVG(data, mime, src) {
		return RasterizeSVG(data)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", abbreviate(src))
	}
	return img, nil
}

func isSVG(data []byte, mime, src string) bool {
	if strings.HasPrefix(mime, "image/svg") {
		return true
	}
	if !strings.HasPrefix(src, "data:") && strings.EqualFold(filepath.Ext(src), ".svg") {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// ParseDataURI splits a data URI into its payload and media type.
func ParseDataURI(src string) ([]byte, string, error) {
	rest := strings.TrimPrefix(src, "data:")
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, "", errors.Wrap(ErrUnsupportedSource, "data uri without payload")
	}
	meta, payload := rest[:comma], rest[comma+1:]
	parts := strings.Split(meta, ";")
	mime := parts[0]
	encoded := false
	for _, p := range parts[1:] {
		if p == "base64" {
			encoded = true
		}
	}
	if !encoded {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", errors.Wrap(err, "unescape data uri")
		}
		return []byte(unescaped), mime, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode data uri")
	}
	return data, mime, nil
}

// EncodeDataURI wraps raw file bytes, as delivered by a file picker, into a
// base64 data URI with a sniffed media type.
func EncodeDataURI(data []byte) string {
	mime := http.DetectContentType(data)
	if isSVG(data, "", "") {
		mime = "image/svg+xml"
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func abbreviate(src string) string {
	if len(src) > 64 {
		return src[:61] + "..."
	}
	return src
}
