package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickerpad/internal/document"
	"stickerpad/internal/editor"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	config := defaultConfig()
	config.SaveDirectory = t.TempDir()
	m, err := initialModel(ctx, config, discardLogger(), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		cancel()
		m.close()
	})
	m.Update(tea.WindowSizeMsg{Width: 130, Height: 40})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func typeAndCommit(t *testing.T, m *model, text string) document.TextElement {
	t.Helper()
	press(m, runes("t"), runes(text), tea.KeyMsg{Type: tea.KeyEsc})
	els := m.ed.State().TextElements
	require.NotEmpty(t, els)
	return els[len(els)-1]
}

func TestTypeThenEscCommits(t *testing.T) {
	m := newTestModel(t)

	press(m, runes("t"), runes("Hi"), tea.KeyMsg{Type: tea.KeySpace}, runes("there"))
	assert.Equal(t, ModeTextInput, m.mode)
	st := m.ed.State()
	assert.Empty(t, st.TextElements)
	require.NotNil(t, st.Preview)
	assert.Equal(t, "Hi there", st.Preview.Text)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
	st = m.ed.State()
	require.Len(t, st.TextElements, 1)
	assert.Equal(t, "Hi there", st.TextElements[0].Text)
	assert.Nil(t, st.Preview)
}

func TestTabWithinPanelKeepsTyping(t *testing.T) {
	m := newTestModel(t)

	press(m, runes("t"), runes("draft"), tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ModeStyle, m.mode)
	assert.Equal(t, editor.ControlFontSize, m.focusedControl())
	assert.Equal(t, "draft", m.ed.State().Input)
	assert.Empty(t, m.ed.State().TextElements)

	press(m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, ModeTextInput, m.mode)
	press(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEsc})
	require.Len(t, m.ed.State().TextElements, 1)
	assert.Equal(t, "draf", m.ed.State().TextElements[0].Text)
}

func TestShortcutsOnCanvas(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "A")

	press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.False(t, m.ed.State().Selection.IsZero())

	press(m, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Empty(t, m.ed.State().TextElements)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlZ})
	assert.Len(t, m.ed.State().TextElements, 1)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Empty(t, m.ed.State().TextElements)

	press(m, runes("u"))
	assert.Len(t, m.ed.State().TextElements, 1)
	assert.Equal(t, "Undo", m.successMessage)
}

func TestBackspaceOnlyDeletesFromCanvas(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "AB")
	press(m, tea.KeyMsg{Type: tea.KeyTab}, runes("t"), tea.KeyMsg{Type: tea.KeyBackspace})

	st := m.ed.State()
	require.Len(t, st.TextElements, 1)
	assert.Equal(t, "A", st.TextElements[0].Text)
}

func TestMoveGestureCommitsOnEnter(t *testing.T) {
	m := newTestModel(t)
	press(m, runes("1"))
	require.Len(t, m.ed.State().Stickers, 1)
	undoBefore := m.ed.History().Len()

	press(m, tea.KeyMsg{Type: tea.KeyTab}, runes("l"), runes("l"), runes("J"))
	assert.Equal(t, ModeMove, m.mode)
	s := m.ed.State().Stickers[0]
	assert.Equal(t, 100.0, s.X, "nothing is written until the drag ends")

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	s = m.ed.State().Stickers[0]
	assert.Equal(t, 120.0, s.X)
	assert.Equal(t, 150.0, s.Y)
	assert.Equal(t, ModeNormal, m.mode)
	assert.False(t, m.canvas.Gesturing())
	// the select raised the sticker, the drag is one more entry
	assert.Equal(t, undoBefore+2, m.ed.History().Len())
}

func TestMoveGestureEscCancels(t *testing.T) {
	m := newTestModel(t)
	press(m, runes("1"), tea.KeyMsg{Type: tea.KeyTab}, runes("h"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, 100.0, m.ed.State().Stickers[0].X)
	assert.False(t, m.canvas.Gesturing())
}

func TestTransformGestureFoldsTextScale(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "Big")

	press(m, tea.KeyMsg{Type: tea.KeyTab}, runes("r"), runes("+"), runes("+"), runes("]"), tea.KeyMsg{Type: tea.KeyEnter})

	el := m.ed.State().TextElements[0]
	assert.InDelta(t, 36.3, el.FontSize, 1e-9)
	assert.Equal(t, 1.0, el.ScaleX)
	assert.Equal(t, 15.0, el.Rotation)
}

func TestStyleControls(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "Styled")
	press(m, tea.KeyMsg{Type: tea.KeyTab}, runes("s"))
	require.Equal(t, ModeStyle, m.mode)

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 32.0, m.ed.CurrentTextStyle().FontSize)

	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, fillColors[1], m.ed.CurrentTextStyle().Fill)

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
	assert.True(t, m.ed.State().Selection.IsZero())
	assert.Equal(t, fillColors[1], m.ed.State().TextElements[0].Fill)
}

func TestClickSelectsAndDeselects(t *testing.T) {
	m := newTestModel(t)
	el := typeAndCommit(t, m, "Hello")

	cols, rows := m.canvasSize()
	col := int((el.X + 10) * float64(cols) / float64(m.config.CanvasWidth))
	row := int((el.Y + 10) * float64(rows) / float64(m.config.CanvasHeight))

	press(m, tea.MouseMsg{X: col + 1, Y: row + 1, Type: tea.MouseLeft})
	assert.Equal(t, el.Ref(), m.ed.State().Selection)
	assert.Equal(t, el.Ref(), m.canvas.Active())

	press(m, tea.MouseMsg{X: 2, Y: rows - 1, Type: tea.MouseLeft})
	assert.True(t, m.ed.State().Selection.IsZero())
	assert.True(t, m.canvas.Active().IsZero())
}

func TestCatalogPick(t *testing.T) {
	m := newTestModel(t)
	m.ed.AddAvailableSticker("/second.svg")

	press(m, runes("a"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	st := m.ed.State()
	require.Len(t, st.Stickers, 1)
	assert.Equal(t, "/second.svg", st.Stickers[0].Src)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestImageMessageResolvesSlot(t *testing.T) {
	m := newTestModel(t)
	src := "data:image/svg+xml;base64,PHN2Zz48L3N2Zz4="
	m.ed.AddSticker(src)

	cmd := press(m, imageLoadedMsg{src: src, err: assert.AnError})
	assert.NotNil(t, cmd)
	assert.Equal(t, document.StatusBroken, m.ed.State().Images[src].Status)
}

func TestExportWritesFile(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "Export me")

	press(m, runes("e"))
	require.Equal(t, ModeFileInput, m.mode)
	cmd := press(m, runes("-card.pdf"), tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	req, err := m.exportTarget(m.filename)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.config.SaveDirectory, "stickerpad-card.pdf"), req.path)

	cmd = press(m, exportMsg(req))
	require.NotNil(t, cmd)
	done, ok := cmd().(exportedMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	data, err := os.ReadFile(req.path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	press(m, done)
	assert.Contains(t, m.successMessage, "stickerpad-card.pdf")
}

func TestExportOfEmptyCompositionFails(t *testing.T) {
	m := newTestModel(t)
	req, err := m.exportTarget("empty")
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(req.path))

	done := press(m, exportMsg(req))().(exportedMsg)
	assert.Error(t, done.err)
}

func TestViewRenders(t *testing.T) {
	m := newTestModel(t)
	typeAndCommit(t, m, "Visible composition")

	out := m.View()
	assert.Contains(t, out, "Visible composition")
	assert.Contains(t, out, "Sticker 1")
	assert.Contains(t, out, "Mode: NORMAL")

	press(m, runes("?"))
	assert.Contains(t, m.View(), "stickerpad help")
}
