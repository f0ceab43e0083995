// Package editor routes user gestures into document.Store mutations: the
// text and sticker controllers, the transform-commit pipeline, the selection
// and z-order rules, keyboard shortcuts and export.
package editor

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"stickerpad/internal/document"
	"stickerpad/internal/history"
	"stickerpad/internal/raster"
)

var (
	ErrNoExporter         = errors.New("no exporter configured")
	ErrUnknownStyle       = errors.New("unknown style key")
	ErrInvalidStyleValue  = errors.New("invalid style value")
	ErrNoSuchCatalogEntry = errors.New("no such catalog entry")
)

// Surface is the rendering side the editor drives. Implementations own the
// manipulation handles ("active nodes") and any per-node transform state.
type Surface interface {
	ClearActiveNodes()
	Redraw()
	ResetScale(ref document.Ref)
}

// ImageLoader decodes a source asynchronously and calls done exactly once.
type ImageLoader interface {
	Load(ctx context.Context, src string, done func(image.Image, error))
}

type Exporter interface {
	Export(st document.State, format raster.Format) ([]byte, error)
}

// Measurer reports the unscaled box of a text element for hit testing.
type Measurer interface {
	TextBounds(el document.TextElement) (w, h float64)
}

// ImageDelivery hands a finished decode back to the editor. The default
// calls Editor.ImageLoaded directly; UIs with an event loop route it through
// their own queue instead.
type ImageDelivery func(src string, img image.Image, err error)

type Editor struct {
	store    *document.Store
	history  *history.Manager
	surface  Surface
	loader   ImageLoader
	exporter Exporter
	measurer Measurer
	panel    ControlPanel
	logger   *slog.Logger
	deliver  ImageDelivery
	ctx      context.Context
	fontSize float64

	historyOpts []history.Option
	unsubscribe func()

	mountMu sync.Mutex
	unmount func()
}

type Option func(*Editor)

func WithSurface(s Surface) Option {
	return func(e *Editor) {
		if s != nil {
			e.surface = s
		}
	}
}

func WithImageLoader(l ImageLoader) Option {
	return func(e *Editor) { e.loader = l }
}

func WithImageDelivery(fn ImageDelivery) Option {
	return func(e *Editor) { e.deliver = fn }
}

func WithExporter(x Exporter) Option {
	return func(e *Editor) { e.exporter = x }
}

func WithMeasurer(m Measurer) Option {
	return func(e *Editor) { e.measurer = m }
}

func WithControlPanel(p ControlPanel) Option {
	return func(e *Editor) { e.panel = p }
}

func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.historyOpts = append(e.historyOpts, history.WithLimit(n))
	}
}

// WithDefaultFontSize sets the font size new text elements start with.
func WithDefaultFontSize(size float64) Option {
	return func(e *Editor) {
		if size >= MinFontSize {
			e.fontSize = size
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithContext bounds background image loads.
func WithContext(ctx context.Context) Option {
	return func(e *Editor) {
		if ctx != nil {
			e.ctx = ctx
		}
	}
}

func New(store *document.Store, opts ...Option) (*Editor, error) {
	e := &Editor{
		store:   store,
		surface: nopSurface{},
		panel:   DefaultControlPanel(),
		logger:  slog.Default(),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.deliver == nil {
		e.deliver = e.ImageLoaded
	}
	if e.measurer == nil {
		e.measurer = approxMeasurer{}
	}

	h, err := history.New(store, append(e.historyOpts, history.WithLogger(e.logger))...)
	if err != nil {
		return nil, errors.Wrap(err, "start history")
	}
	e.history = h
	e.unsubscribe = store.Subscribe(func(document.State, document.State) {
		e.surface.Redraw()
	})

	st := store.Get()
	if st.Background != "" {
		e.requestImage(st.Background)
	}
	for _, sticker := range st.Stickers {
		e.requestImage(sticker.Src)
	}
	return e, nil
}

func (e *Editor) Store() *document.Store     { return e.store }
func (e *Editor) History() *history.Manager  { return e.history }
func (e *Editor) State() document.State      { return e.store.Get() }
func (e *Editor) ControlPanel() ControlPanel { return e.panel }

// Close stops history recording, redraw notifications and shortcuts.
func (e *Editor) Close() {
	e.mountMu.Lock()
	unmount := e.unmount
	e.mountMu.Unlock()
	if unmount != nil {
		unmount()
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.history.Close()
}

// Undo steps back one document edit. Selection and input reset.
func (e *Editor) Undo() bool {
	if !e.history.Undo() {
		return false
	}
	e.surface.ClearActiveNodes()
	e.requestMissingImages()
	return true
}

func (e *Editor) Redo() bool {
	if !e.history.Redo() {
		return false
	}
	e.surface.ClearActiveNodes()
	e.requestMissingImages()
	return true
}

// LoadDocument replaces the whole document and starts a fresh history.
func (e *Editor) LoadDocument(doc document.Document) {
	e.store.Update(func(st *document.State) {
		st.Document = doc.Clone()
		st.Selection = document.Ref{}
		st.Input = ""
		st.Preview = nil
		document.PruneImages(st)
	})
	e.history.Clear()
	e.surface.ClearActiveNodes()
	e.requestMissingImages()
}

// SetBackground swaps the background image. It is not part of history.
func (e *Editor) SetBackground(src string) {
	e.store.Update(func(st *document.State) {
		st.Background = src
		document.PruneImages(st)
	})
	if src != "" {
		e.requestImage(src)
	}
}

// ImageLoaded stores a decode result. Results for sources that are no longer
// referenced are dropped.
func (e *Editor) ImageLoaded(src string, img image.Image, err error) {
	if !e.store.ResolveImage(src, img, err) {
		e.logger.Debug("dropping late image", "src", src)
		return
	}
	if err != nil {
		e.logger.Warn("image marked broken", "src", src, "err", err)
	}
}

func (e *Editor) requestImage(src string) {
	if src == "" || !e.store.EnsureImageSlot(src) {
		return
	}
	if e.loader == nil {
		return
	}
	deliver := e.deliver
	e.loader.Load(e.ctx, src, func(img image.Image, err error) {
		deliver(src, img, err)
	})
}

func (e *Editor) requestMissingImages() {
	st := e.store.Get()
	if st.Background != "" {
		e.requestImage(st.Background)
	}
	for _, sticker := range st.Stickers {
		e.requestImage(sticker.Src)
	}
}

type nopSurface struct{}

func (nopSurface) ClearActiveNodes()       {}
func (nopSurface) Redraw()                 {}
func (nopSurface) ResetScale(document.Ref) {}
