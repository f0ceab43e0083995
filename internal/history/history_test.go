package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickerpad/internal/document"
)

func newManager(t *testing.T, opts ...Option) (*document.Store, *Manager) {
	t.Helper()
	store := document.NewStore()
	m, err := New(store, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return store, m
}

func addText(store *document.Store, id string) {
	store.Update(func(st *document.State) {
		el := document.DefaultText()
		el.ID = id
		el.Text = id
		el.ZIndex = st.MaxZIndex + 1
		st.MaxZIndex = el.ZIndex
		st.TextElements = append(st.TextElements, el)
	})
}

func TestTransientChangesDoNotRecord(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")
	require.Equal(t, 1, m.Len())

	store.SetInput("typing")
	store.Select(document.Ref{Kind: document.KindText, ID: "a"})
	store.SetPreview(&document.TextElement{ID: document.PreviewID, Text: "x"})
	store.EnsureImageSlot("/a.svg")

	assert.Equal(t, 1, m.Len())
}

func TestIdenticalWritesCoalesce(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")

	store.SetTextElements(func(prev []document.TextElement) []document.TextElement {
		out := append([]document.TextElement(nil), prev...)
		out[0].X = out[0].X + 0
		return out
	})

	assert.Equal(t, 1, m.Len())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	store, m := newManager(t)
	const n = 5
	for i := 0; i < n; i++ {
		addText(store, fmt.Sprintf("t%d", i))
	}
	store.SetStickers(func(prev []document.StickerElement) []document.StickerElement {
		st := document.DefaultSticker("/a.svg")
		st.ID = "s"
		return append(prev, st)
	})
	final := store.Get().Document

	for i := 0; i < n+1; i++ {
		require.True(t, m.Undo())
	}
	assert.False(t, m.Undo())
	initial := store.Get().Document
	assert.True(t, initial.Empty())
	assert.Equal(t, 0, initial.MaxZIndex)

	for i := 0; i < n+1; i++ {
		require.True(t, m.Redo())
	}
	assert.False(t, m.Redo())
	assert.Equal(t, final, store.Get().Document)
}

func TestUndoResetsTransientState(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")
	addText(store, "b")
	store.Update(func(st *document.State) {
		st.Selection = document.Ref{Kind: document.KindText, ID: "a"}
		st.Input = "a"
	})

	require.True(t, m.Undo())

	st := store.Get()
	assert.True(t, st.Selection.IsZero())
	assert.Empty(t, st.Input)
	assert.Nil(t, st.Preview)
	assert.Len(t, st.TextElements, 1)
}

func TestNewEditDropsRedo(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")
	addText(store, "b")
	require.True(t, m.Undo())
	require.True(t, m.CanRedo())

	addText(store, "c")

	assert.False(t, m.CanRedo())
	assert.Equal(t, 2, m.Len())
}

func TestLimitEvictsOldest(t *testing.T) {
	store, m := newManager(t, WithLimit(3))
	for i := 0; i < 6; i++ {
		addText(store, fmt.Sprintf("t%d", i))
	}
	assert.Equal(t, 3, m.Len())

	for m.Undo() {
	}
	assert.Len(t, store.Get().TextElements, 3)
}

func TestClear(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")
	addText(store, "b")
	m.Undo()

	m.Clear()

	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Len(t, store.Get().TextElements, 1)
}

func TestDefaultLimit(t *testing.T) {
	store, m := newManager(t, WithLimit(0))
	for i := 0; i < DefaultLimit+10; i++ {
		addText(store, fmt.Sprintf("t%d", i))
	}
	assert.Equal(t, DefaultLimit, m.Len())
}

func TestBlankTextIsNotRecorded(t *testing.T) {
	store, m := newManager(t)
	addText(store, "a")
	require.Equal(t, 1, m.Len())

	store.SetTextElements(func(prev []document.TextElement) []document.TextElement {
		out := append([]document.TextElement(nil), prev...)
		out[0].Text = "  "
		return out
	})
	assert.Equal(t, 1, m.Len())

	store.SetTextElements(func([]document.TextElement) []document.TextElement { return nil })
	require.Equal(t, 2, m.Len())

	require.True(t, m.Undo())
	st := store.Get()
	require.Len(t, st.TextElements, 1)
	assert.Equal(t, "a", st.TextElements[0].Text)
}
