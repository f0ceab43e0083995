package document

import (
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedText(id string, z int) TextElement {
	el := DefaultText()
	el.ID = id
	el.Text = id
	el.ZIndex = z
	return el
}

func TestSetTextElementsUpdaterAndReplacement(t *testing.T) {
	s := NewStore()

	s.SetTextElements(func(prev []TextElement) []TextElement {
		return append(prev, seedText("a", 1))
	})
	s.ReplaceTextElements([]TextElement{seedText("b", 2), seedText("c", 3)})

	st := s.Get()
	require.Len(t, st.TextElements, 2)
	assert.Equal(t, "b", st.TextElements[0].ID)
	assert.Equal(t, "c", st.TextElements[1].ID)
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := NewStore(WithDocument(Document{TextElements: []TextElement{seedText("a", 1)}, MaxZIndex: 1}))

	st := s.Get()
	st.TextElements[0].Text = "mutated"

	assert.Equal(t, "a", s.Get().TextElements[0].Text)
}

func TestSubscribersSeeOneNotificationPerUpdate(t *testing.T) {
	s := NewStore()
	var calls int
	var last State
	unsubscribe := s.Subscribe(func(next, prev State) {
		calls++
		last = next
	})

	s.Update(func(st *State) {
		st.Input = "hi"
		st.TextElements = append(st.TextElements, seedText("a", 1))
		st.MaxZIndex = 1
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, "hi", last.Input)
	assert.Len(t, last.TextElements, 1)

	unsubscribe()
	s.SetInput("bye")
	assert.Equal(t, 1, calls)
}

func TestOvertakenNotificationIsDropped(t *testing.T) {
	s := NewStore()
	var seen []string
	s.Subscribe(func(next, prev State) {
		seen = append(seen, next.Input)
	})

	s.notify(2, State{Input: "newer"}, State{})
	s.notify(1, State{Input: "older"}, State{})
	s.notify(3, State{Input: "newest"}, State{})

	assert.Equal(t, []string{"newer", "newest"}, seen)
}

func TestConcurrentWritersNotifyInOrder(t *testing.T) {
	s := NewStore()
	var last int
	var backwards bool
	s.Subscribe(func(next, prev State) {
		n := len(next.TextElements)
		if n < last {
			backwards = true
		}
		last = n
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Update(func(st *State) {
					st.TextElements = append(st.TextElements, seedText(fmt.Sprintf("%d-%d", i, j), 1))
				})
			}
		}(i)
	}
	wg.Wait()

	assert.False(t, backwards)
	assert.Equal(t, 400, last)
}

func TestSelectionIsSingleAcrossKinds(t *testing.T) {
	s := NewStore(WithDocument(Document{
		TextElements: []TextElement{seedText("t", 1)},
		Stickers:     []StickerElement{{ID: "s", ZIndex: 2, ScaleX: 1, ScaleY: 1}},
		MaxZIndex:    2,
	}))

	s.Select(Ref{Kind: KindText, ID: "t"})
	s.Select(Ref{Kind: KindSticker, ID: "s"})

	st := s.Get()
	selected := 0
	for _, layer := range st.Layers() {
		if layer.Selected {
			selected++
			assert.Equal(t, "s", layer.Ref.ID)
		}
	}
	assert.Equal(t, 1, selected)
	assert.False(t, st.IsSelected(Ref{Kind: KindText, ID: "t"}))
}

func TestBringToFrontIsMonotonic(t *testing.T) {
	s := NewStore(WithDocument(Document{
		TextElements: []TextElement{seedText("a", 1), seedText("b", 2)},
		MaxZIndex:    2,
	}))
	ref := Ref{Kind: KindText, ID: "a"}

	for i := 0; i < 3; i++ {
		before := s.Get().MaxZIndex
		z, ok := s.BringToFront(ref)
		require.True(t, ok)

		st := s.Get()
		assert.Greater(t, st.MaxZIndex, before)
		assert.Equal(t, st.MaxZIndex, z)
		el, _, _ := st.FindText("a")
		assert.Equal(t, z, el.ZIndex)
		other, _, _ := st.FindText("b")
		assert.NotEqual(t, other.ZIndex, el.ZIndex)
	}
}

func TestBringToFrontMissingTargetIsNoop(t *testing.T) {
	s := NewStore()
	_, ok := s.BringToFront(Ref{Kind: KindSticker, ID: "gone"})
	assert.False(t, ok)
	assert.Equal(t, 0, s.Get().MaxZIndex)
}

func TestLayersSortByZIndex(t *testing.T) {
	st := NewStore(WithDocument(Document{
		TextElements: []TextElement{seedText("top", 5), seedText("bottom", 1)},
		Stickers:     []StickerElement{{ID: "mid", ZIndex: 3}},
		MaxZIndex:    5,
	})).Get()

	layers := st.Layers()
	require.Len(t, layers, 3)
	assert.Equal(t, []string{"bottom", "mid", "top"}, []string{layers[0].Ref.ID, layers[1].Ref.ID, layers[2].Ref.ID})
}

func TestResolveImageIgnoresUnknownSources(t *testing.T) {
	s := NewStore()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	assert.False(t, s.ResolveImage("/late.png", img, nil))
	assert.NotContains(t, s.Get().Images, "/late.png")

	require.True(t, s.EnsureImageSlot("/a.png"))
	assert.False(t, s.EnsureImageSlot("/a.png"))
	assert.Equal(t, StatusPending, s.Get().Images["/a.png"].Status)

	assert.True(t, s.ResolveImage("/a.png", img, nil))
	assert.Equal(t, StatusReady, s.Get().Images["/a.png"].Status)

	require.True(t, s.EnsureImageSlot("/b.png"))
	s.ResolveImage("/b.png", nil, errors.New("boom"))
	assert.Equal(t, StatusBroken, s.Get().Images["/b.png"].Status)
}

func TestReleaseUnusedImages(t *testing.T) {
	s := NewStore()
	s.SetBackground("/bg.jpg")
	s.EnsureImageSlot("/used.svg")
	s.EnsureImageSlot("/orphan.svg")
	s.ReplaceStickers([]StickerElement{DefaultSticker("/used.svg")})

	s.ReleaseUnusedImages()

	images := s.Get().Images
	assert.Contains(t, images, "/bg.jpg")
	assert.Contains(t, images, "/used.svg")
	assert.NotContains(t, images, "/orphan.svg")
}

func TestNewIDNeverRepeats(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewID(KindSticker)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
