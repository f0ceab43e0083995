package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"

	"stickerpad/internal/document"
)

// MinFontSize is the floor applied when a resize gesture shrinks text.
const MinFontSize float64 = 10

// HandleStyleChange patches one style field of the selected text element.
// Keys are accepted in any common casing ("fontSize", "font-size",
// "font_size"). With no text selected it does nothing.
func (e *Editor) HandleStyleChange(key string, value interface{}) error {
	var err error
	e.store.Update(func(st *document.State) {
		if st.Selection.Kind != document.KindText {
			return
		}
		_, i, ok := st.FindText(st.Selection.ID)
		if !ok {
			return
		}
		el := st.TextElements[i]
		if err = applyStyle(&el, key, value); err != nil {
			return
		}
		st.TextElements[i] = el
	})
	if err != nil {
		e.logger.Debug("style change rejected", "key", key, "value", value, "err", err)
	}
	return err
}

// ChangeTextStyle sets normal, bold or italic on the selected text.
func (e *Editor) ChangeTextStyle(style document.FontStyle) error {
	return e.HandleStyleChange("fontStyle", string(style))
}

func (e *Editor) ChangeTextAlign(align document.Align) error {
	return e.HandleStyleChange("align", string(align))
}

func applyStyle(el *document.TextElement, key string, value interface{}) error {
	switch name := strcase.ToLowerCamel(strings.TrimSpace(key)); name {
	case "fontSize":
		v, err := toFloat(value)
		if err != nil || v <= 0 {
			return invalid(name, value)
		}
		el.FontSize = v
	case "fontFamily":
		v, err := toString(value)
		if err != nil || strings.TrimSpace(v) == "" {
			return invalid(name, value)
		}
		el.FontFamily = v
	case "fill":
		v, err := toString(value)
		if err != nil {
			return invalid(name, value)
		}
		el.Fill = v
	case "fontStyle":
		v, err := toString(value)
		if err != nil || !document.FontStyle(v).Valid() {
			return invalid(name, value)
		}
		el.FontStyle = document.FontStyle(v)
	case "align":
		v, err := toString(value)
		if err != nil || !document.Align(v).Valid() {
			return invalid(name, value)
		}
		el.Align = document.Align(v)
	case "opacity":
		v, err := toFloat(value)
		if err != nil {
			return invalid(name, value)
		}
		el.Opacity = clamp(v, 0, 1)
	case "hasBackground":
		v, err := toBool(value)
		if err != nil {
			return invalid(name, value)
		}
		el.HasBackground = v
	case "backgroundColor":
		v, err := toString(value)
		if err != nil {
			return invalid(name, value)
		}
		el.BackgroundColor = v
	case "backgroundOpacity":
		v, err := toFloat(value)
		if err != nil {
			return invalid(name, value)
		}
		el.BackgroundOpacity = clamp(v, 0, 1)
	case "backgroundRadius":
		v, err := toFloat(value)
		if err != nil || v < 0 {
			return invalid(name, value)
		}
		el.BackgroundRadius = v
	case "hasBorder":
		v, err := toBool(value)
		if err != nil {
			return invalid(name, value)
		}
		el.HasBorder = v
	case "borderColor":
		v, err := toString(value)
		if err != nil {
			return invalid(name, value)
		}
		el.BorderColor = v
	case "borderWidth":
		v, err := toFloat(value)
		if err != nil || v < 0 {
			return invalid(name, value)
		}
		el.BorderWidth = v
	default:
		return errors.Wrapf(ErrUnknownStyle, "%q", key)
	}
	return nil
}

func invalid(name string, value interface{}) error {
	return errors.Wrapf(ErrInvalidStyleValue, "%s=%v", name, value)
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, errors.Errorf("not a number: %T", v)
}

func toBool(v interface{}) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	}
	return false, errors.Errorf("not a bool: %T", v)
}

func toString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	}
	return "", errors.Errorf("not a string: %T", v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
