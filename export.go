package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"stickerpad/internal/raster"
)

// exportTarget resolves the name typed at the prompt to a path and format.
// A name without a known extension is saved as PNG in the save directory.
func (m *model) exportTarget(name string) (exportRequest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return exportRequest{}, errors.New("empty filename")
	}
	format := raster.FormatPNG
	if ext := filepath.Ext(name); ext != "" {
		f, err := raster.ParseFormat(ext)
		if err != nil {
			return exportRequest{}, err
		}
		format = f
	} else {
		name += format.Ext()
	}
	path := name
	if !filepath.IsAbs(name) {
		path = m.config.GetSavePath(name)
	}
	return exportRequest{path: path, format: format}, nil
}

// startExport drops the handles and schedules the export one frame later so
// the screen shows the clean composition first.
func (m *model) startExport(req exportRequest) tea.Cmd {
	m.ed.DeselectAll()
	m.canvas.ClearActiveNodes()
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return exportMsg(req)
	})
}

func (m *model) runExport(req exportRequest) tea.Cmd {
	data, err := m.ed.Export(m.ctx, req.format)
	if err != nil {
		return func() tea.Msg { return exportedMsg{path: req.path, err: err} }
	}
	return func() tea.Msg {
		return exportedMsg{path: req.path, err: writeExport(req.path, data)}
	}
}

func writeExport(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write %s", path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
