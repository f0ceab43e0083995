package document

import (
	"image"
	"sort"
	"sync"
)

// Listener observes a committed store write. It runs after the store lock is
// released and must not retain the slices in next or prev. Listeners are
// called one at a time and must not write to the store.
type Listener func(next, prev State)

// Store is the canonical editor state. It performs no validation; the
// controllers decide what is a legal write.
type Store struct {
	mu    sync.Mutex
	state State
	seq   uint64

	// notifyMu serializes notifications; delivered is the newest seq handed
	// to listeners.
	notifyMu  sync.Mutex
	delivered uint64

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int
}

type Option func(*State)

// WithCatalog seeds the sticker catalog.
func WithCatalog(catalog []AvailableSticker) Option {
	return func(s *State) {
		s.Catalog = append([]AvailableSticker(nil), catalog...)
	}
}

func WithDocument(doc Document) Option {
	return func(s *State) {
		s.Document = doc.Clone()
	}
}

func NewStore(opts ...Option) *Store {
	st := &Store{
		state: State{
			Document: Document{
				TextElements: []TextElement{},
				Stickers:     []StickerElement{},
			},
			Catalog: []AvailableSticker{{Name: "Sticker 1", Src: "/sticker.svg"}},
			Images:  map[string]ImageSlot{},
		},
		subs: map[int]Listener{},
	}
	for _, opt := range opts {
		opt(&st.state)
	}
	return st
}

// Get returns a deep copy of the current state.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Update applies fn to a working copy and commits it atomically. Subscribers
// see at most one notification per call, in commit order. When writers race,
// a notification overtaken by a newer one is dropped, so listeners never see
// state go backwards.
func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	prev := s.state
	next := s.state.Clone()
	fn(&next)
	s.state = next
	s.seq++
	seq := s.seq
	notifyNext, notifyPrev := next.Clone(), prev
	s.mu.Unlock()

	s.notify(seq, notifyNext, notifyPrev)
}

func (s *Store) SetTextElements(fn func(prev []TextElement) []TextElement) {
	s.Update(func(st *State) {
		st.TextElements = fn(st.TextElements)
	})
}

func (s *Store) ReplaceTextElements(els []TextElement) {
	s.SetTextElements(func([]TextElement) []TextElement {
		return append([]TextElement(nil), els...)
	})
}

func (s *Store) SetStickers(fn func(prev []StickerElement) []StickerElement) {
	s.Update(func(st *State) {
		st.Stickers = fn(st.Stickers)
	})
}

func (s *Store) ReplaceStickers(els []StickerElement) {
	s.SetStickers(func([]StickerElement) []StickerElement {
		return append([]StickerElement(nil), els...)
	})
}

func (s *Store) SetCatalog(fn func(prev []AvailableSticker) []AvailableSticker) {
	s.Update(func(st *State) {
		st.Catalog = fn(st.Catalog)
	})
}

// Select makes ref the one selected element across both kinds.
func (s *Store) Select(ref Ref) {
	s.Update(func(st *State) {
		st.Selection = ref
	})
}

func (s *Store) ClearSelection() {
	s.Update(func(st *State) {
		st.Selection = Ref{}
	})
}

func (s *Store) SetInput(text string) {
	s.Update(func(st *State) {
		st.Input = text
	})
}

func (s *Store) SetPreview(el *TextElement) {
	s.Update(func(st *State) {
		st.Preview = el
	})
}

// BringToFront assigns maxZIndex+1 to the element named by ref. It returns
// false without writing when ref does not exist.
func (s *Store) BringToFront(ref Ref) (int, bool) {
	var z int
	var ok bool
	s.Update(func(st *State) {
		z, ok = RaiseToFront(st, ref)
	})
	return z, ok
}

// RaiseToFront is BringToFront applied to a working state inside Update.
func RaiseToFront(st *State, ref Ref) (int, bool) {
	z := st.MaxZIndex + 1
	switch ref.Kind {
	case KindText:
		_, i, found := st.FindText(ref.ID)
		if !found {
			return 0, false
		}
		st.TextElements[i].ZIndex = z
	case KindSticker:
		_, i, found := st.FindSticker(ref.ID)
		if !found {
			return 0, false
		}
		st.Stickers[i].ZIndex = z
	default:
		return 0, false
	}
	st.MaxZIndex = z
	return z, true
}

func (s *Store) SetBackground(src string) {
	s.Update(func(st *State) {
		st.Background = src
		if src != "" {
			if _, ok := st.Images[src]; !ok {
				st.Images[src] = ImageSlot{Status: StatusPending}
			}
		}
	})
}

// EnsureImageSlot registers src as pending and reports whether it was new.
func (s *Store) EnsureImageSlot(src string) bool {
	var created bool
	s.Update(func(st *State) {
		if _, ok := st.Images[src]; !ok {
			st.Images[src] = ImageSlot{Status: StatusPending}
			created = true
		}
	})
	return created
}

// ResolveImage records a decode result. Results for sources nothing refers
// to anymore are dropped.
func (s *Store) ResolveImage(src string, img image.Image, err error) bool {
	var applied bool
	s.Update(func(st *State) {
		if _, ok := st.Images[src]; !ok {
			return
		}
		switch {
		case err != nil:
			st.Images[src] = ImageSlot{Status: StatusBroken, Err: err}
		case img == nil:
			st.Images[src] = ImageSlot{Status: StatusBroken}
		default:
			st.Images[src] = ImageSlot{Status: StatusReady, Image: img}
		}
		applied = true
	})
	return applied
}

// ReleaseUnusedImages drops slots no sticker or background references.
func (s *Store) ReleaseUnusedImages() {
	s.Update(func(st *State) {
		PruneImages(st)
	})
}

func PruneImages(st *State) {
	used := map[string]bool{st.Background: true}
	for _, sticker := range st.Stickers {
		used[sticker.Src] = true
	}
	for src := range st.Images {
		if !used[src] {
			delete(st.Images, src)
		}
	}
}

// Subscribe registers fn and returns a function removing it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(seq uint64, next, prev State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(next, prev)
	}
}
