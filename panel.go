package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stickerpad/internal/document"
	"stickerpad/internal/editor"
)

var (
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(panelWidth - 2)
	canvasStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	focusStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

var controlLabels = map[string]string{
	editor.ControlTextInput:  "Text",
	editor.ControlFontSize:   "Size",
	editor.ControlFontFamily: "Font",
	editor.ControlFill:       "Fill",
	editor.ControlFontStyle:  "Style",
	editor.ControlAlign:      "Align",
	editor.ControlOpacity:    "Opacity",
	editor.ControlBackground: "Background",
	editor.ControlBorder:     "Border",
	editor.ControlCaps:       "CAPS",
}

func (m *model) focusedControl() string {
	controls := m.ed.ControlPanel().Controls()
	if len(controls) == 0 {
		return ""
	}
	return controls[m.focus%len(controls)]
}

func (m *model) focusControl(id string) {
	for i, c := range m.ed.ControlPanel().Controls() {
		if c == id {
			m.focus = i
		}
	}
}

// moveFocus shifts focus inside the panel. Focus staying in the panel never
// commits the text being typed.
func (m *model) moveFocus(delta int) {
	controls := m.ed.ControlPanel().Controls()
	if len(controls) == 0 {
		return
	}
	next := (m.focus + delta + len(controls)) % len(controls)
	m.ed.HandleControlFocusOut(editor.FocusEvent{Related: controls[next]})
	m.focus = next
	if controls[next] == editor.ControlTextInput {
		m.mode = ModeTextInput
	} else {
		m.mode = ModeStyle
	}
}

func (m *model) enterTextInput() {
	m.focusControl(editor.ControlTextInput)
	m.mode = ModeTextInput
}

// leavePanel moves focus back to the canvas, which commits typed text.
func (m *model) leavePanel() {
	m.ed.HandleControlFocusOut(editor.FocusEvent{})
	m.mode = ModeNormal
}

func (m *model) typeRunes(runes []rune) {
	m.ed.SetTextContent(m.ed.State().Input + string(runes))
}

func (m *model) backspace() {
	input := []rune(m.ed.State().Input)
	if len(input) == 0 {
		return
	}
	m.ed.SetTextContent(string(input[:len(input)-1]))
}

// adjustControl steps the focused style control by delta.
func (m *model) adjustControl(delta int) {
	style := m.ed.CurrentTextStyle()
	var err error
	switch m.focusedControl() {
	case editor.ControlFontSize:
		size := style.FontSize + float64(delta)*fontStep
		if size < editor.MinFontSize {
			size = editor.MinFontSize
		}
		err = m.ed.HandleStyleChange("fontSize", size)
	case editor.ControlFontFamily:
		err = m.ed.HandleStyleChange("fontFamily", cycle(fontFamilies, style.FontFamily, delta))
	case editor.ControlFill:
		err = m.ed.HandleStyleChange("fill", cycle(fillColors, style.Fill, delta))
	case editor.ControlFontStyle:
		styles := []string{string(document.FontNormal), string(document.FontBold), string(document.FontItalic)}
		err = m.ed.ChangeTextStyle(document.FontStyle(cycle(styles, string(style.FontStyle), delta)))
	case editor.ControlAlign:
		aligns := []string{string(document.AlignLeft), string(document.AlignCenter), string(document.AlignRight)}
		err = m.ed.ChangeTextAlign(document.Align(cycle(aligns, string(style.Align), delta)))
	case editor.ControlOpacity:
		err = m.ed.HandleStyleChange("opacity", style.Opacity+float64(delta)*alphaStep)
	case editor.ControlBackground:
		err = m.ed.HandleStyleChange("hasBackground", !style.HasBackground)
	case editor.ControlBorder:
		err = m.ed.HandleStyleChange("hasBorder", !style.HasBorder)
	case editor.ControlCaps:
		m.ed.MakeCaps()
	}
	if err != nil {
		m.errorMessage = err.Error()
	}
}

func cycle(values []string, current string, delta int) string {
	idx := 0
	for i, v := range values {
		if strings.EqualFold(v, current) {
			idx = i
		}
	}
	return values[(idx+delta%len(values)+len(values))%len(values)]
}

func (m *model) controlValue(id string, st document.State, style editor.TextStyle) string {
	switch id {
	case editor.ControlTextInput:
		text := strings.ReplaceAll(st.Input, "\n", "⏎")
		if m.mode == ModeTextInput {
			text += "█"
		}
		return text
	case editor.ControlFontSize:
		return fmt.Sprintf("%.0f", style.FontSize)
	case editor.ControlFontFamily:
		return style.FontFamily
	case editor.ControlFill:
		return style.Fill
	case editor.ControlFontStyle:
		return string(style.FontStyle)
	case editor.ControlAlign:
		return string(style.Align)
	case editor.ControlOpacity:
		return fmt.Sprintf("%.1f", style.Opacity)
	case editor.ControlBackground:
		return onOff(style.HasBackground)
	case editor.ControlBorder:
		return onOff(style.HasBorder)
	case editor.ControlCaps:
		return "enter"
	}
	return ""
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m *model) renderPanel(height int) string {
	st := m.ed.State()
	style := m.ed.CurrentTextStyle()
	_, textSelected := st.SelectedText()

	var b strings.Builder
	b.WriteString(headerStyle.Render("Text"))
	b.WriteString("\n")
	for i, id := range m.ed.ControlPanel().Controls() {
		line := fmt.Sprintf("%-10s %s", controlLabels[id], m.controlValue(id, st, style))
		focused := (m.mode == ModeStyle || m.mode == ModeTextInput) && i == m.focus
		switch {
		case focused:
			line = focusStyle.Render("> " + line)
		case id != editor.ControlTextInput && !textSelected:
			line = dimStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Stickers"))
	b.WriteString("\n")
	for i, entry := range st.Catalog {
		line := fmt.Sprintf("%d %s", i+1, entry.Name)
		if m.mode == ModeCatalog && i == m.catalogIndex {
			line = focusStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	h := m.ed.History()
	b.WriteString(dimStyle.Render(fmt.Sprintf("undo %d  redo %d", h.Len(), h.RedoLen())))
	if st.Background != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("bg " + st.Images[st.Background].Status.String()))
	}

	return panelStyle.Height(max(height-2, 1)).Render(b.String())
}
