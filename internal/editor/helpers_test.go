package editor

import (
	"context"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"stickerpad/internal/document"
	"stickerpad/internal/raster"
)

// fakeSurface keeps a per-node scale the way a canvas transformer would.
type fakeSurface struct {
	scales  map[document.Ref][2]float64
	redraws int
	clears  int
	events  []string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{scales: map[document.Ref][2]float64{}}
}

func (s *fakeSurface) ClearActiveNodes() {
	s.clears++
	s.events = append(s.events, "clear")
}

func (s *fakeSurface) Redraw() {
	s.redraws++
	s.events = append(s.events, "redraw")
}

func (s *fakeSurface) ResetScale(ref document.Ref) { s.scales[ref] = [2]float64{1, 1} }

func (s *fakeSurface) scale(ref document.Ref) [2]float64 {
	if v, ok := s.scales[ref]; ok {
		return v
	}
	return [2]float64{1, 1}
}

type loadCall struct {
	src  string
	done func(image.Image, error)
}

// fakeLoader parks load requests until the test resolves them.
type fakeLoader struct {
	mu    sync.Mutex
	calls []loadCall
}

func (l *fakeLoader) Load(_ context.Context, src string, done func(image.Image, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, loadCall{src: src, done: done})
}

func (l *fakeLoader) srcs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.calls))
	for _, c := range l.calls {
		out = append(out, c.src)
	}
	return out
}

func (l *fakeLoader) resolve(src string, img image.Image, err error) {
	l.mu.Lock()
	var pending []loadCall
	var matched []loadCall
	for _, c := range l.calls {
		if c.src == src {
			matched = append(matched, c)
		} else {
			pending = append(pending, c)
		}
	}
	l.calls = pending
	l.mu.Unlock()
	for _, c := range matched {
		c.done(img, err)
	}
}

type fakeBinder struct {
	handlers map[string][]func()
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{handlers: map[string][]func(){}}
}

func (b *fakeBinder) Bind(key string, fn func()) func() {
	b.handlers[key] = append(b.handlers[key], fn)
	idx := len(b.handlers[key]) - 1
	return func() {
		hs := b.handlers[key]
		if idx < len(hs) {
			hs[idx] = nil
		}
	}
}

func (b *fakeBinder) count(key string) int {
	n := 0
	for _, fn := range b.handlers[key] {
		if fn != nil {
			n++
		}
	}
	return n
}

func (b *fakeBinder) press(key string) {
	for _, fn := range b.handlers[key] {
		if fn != nil {
			fn()
		}
	}
}

// recordingExporter captures the state it was asked to export.
type recordingExporter struct {
	surface *fakeSurface
	seen    document.State
	events  []string
}

func (x *recordingExporter) Export(st document.State, _ raster.Format) ([]byte, error) {
	x.seen = st
	x.events = append([]string(nil), x.surface.events...)
	return []byte("png"), nil
}

type fixture struct {
	ed      *Editor
	store   *document.Store
	surface *fakeSurface
	loader  *fakeLoader
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := document.NewStore()
	surface := newFakeSurface()
	loader := &fakeLoader{}
	ed, err := New(store, append([]Option{WithSurface(surface), WithImageLoader(loader)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(ed.Close)
	return &fixture{ed: ed, store: store, surface: surface, loader: loader}
}

// commitText types text with nothing selected and commits it via focus-out.
func (f *fixture) commitText(t *testing.T, text string) document.TextElement {
	t.Helper()
	before := len(f.store.Get().TextElements)
	f.ed.SetTextContent(text)
	f.ed.HandleControlFocusOut(FocusEvent{})
	els := f.store.Get().TextElements
	require.Len(t, els, before+1)
	return els[len(els)-1]
}

func selectedCount(st document.State) int {
	n := 0
	for _, l := range st.Layers() {
		if l.Selected {
			n++
		}
	}
	return n
}
