package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return cleanClipboardText(string(output)), nil
		}
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	return cleanClipboardText(text), nil
}

func cleanClipboardText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// isRemoteImage reports whether s is a data URI or URL naming an image.
func isRemoteImage(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		u := s
		if i := strings.IndexAny(u, "?#"); i >= 0 {
			u = u[:i]
		}
		return imageExts[strings.ToLower(filepath.Ext(u))]
	}
	return false
}

// localImage returns the bytes of s when it names an image file on disk.
func localImage(s string) ([]byte, bool) {
	if strings.Contains(s, "\n") || !imageExts[strings.ToLower(filepath.Ext(s))] {
		return nil, false
	}
	data, err := os.ReadFile(expandPath(s))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// paste adds an image from the clipboard to the sticker catalog, or types
// any other text into the text control.
func (m *model) paste() {
	text, err := readClipboardText()
	if err != nil {
		m.errorMessage = "Clipboard unavailable"
		m.logger.Warn("clipboard read failed", "err", err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if isRemoteImage(text) {
		if entry, ok := m.ed.AddAvailableSticker(text); ok {
			m.successMessage = "Added " + entry.Name
		}
		return
	}
	if data, ok := localImage(text); ok {
		if entry, ok := m.ed.AddAvailableStickerBytes(data); ok {
			m.successMessage = "Added " + entry.Name + " from " + filepath.Base(text)
		}
		return
	}

	m.ed.SetTextContent(m.ed.State().Input + text)
	m.enterTextInput()
}

func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
