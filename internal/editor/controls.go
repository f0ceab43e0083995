package editor

// Control ids of the text control panel. Moving focus between two of them is
// not a commit.
const (
	ControlTextInput  = "text-input"
	ControlFontSize   = "font-size"
	ControlFontFamily = "font-family"
	ControlFill       = "fill"
	ControlFontStyle  = "font-style"
	ControlAlign      = "align"
	ControlOpacity    = "opacity"
	ControlBackground = "background"
	ControlBorder     = "border"
	ControlCaps       = "caps"
)

// ControlPanel is the set of controls that make up the text panel.
type ControlPanel struct {
	controls map[string]bool
	order    []string
}

func NewControlPanel(ids ...string) ControlPanel {
	p := ControlPanel{controls: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if id == "" || p.controls[id] {
			continue
		}
		p.controls[id] = true
		p.order = append(p.order, id)
	}
	return p
}

func DefaultControlPanel() ControlPanel {
	return NewControlPanel(
		ControlTextInput,
		ControlFontSize,
		ControlFontFamily,
		ControlFill,
		ControlFontStyle,
		ControlAlign,
		ControlOpacity,
		ControlBackground,
		ControlBorder,
		ControlCaps,
	)
}

func (p ControlPanel) Contains(id string) bool { return p.controls[id] }

// Controls lists the panel's controls in focus order.
func (p ControlPanel) Controls() []string {
	return append([]string(nil), p.order...)
}

// FocusEvent describes focus leaving a panel control. Related is the control
// receiving focus, empty when focus leaves for something outside any known
// control (the canvas, another window).
type FocusEvent struct {
	Related string
}
