package main

import (
	"context"
	"image"
	"log/slog"

	"stickerpad/internal/editor"
	"stickerpad/internal/raster"
)

type model struct {
	ctx    context.Context
	width  int
	height int
	mode   Mode
	help   bool

	ed      *editor.Editor
	canvas  *Canvas
	keys    *keyRouter
	unmount func()
	config  *Config
	logger  *slog.Logger
	images  chan imageLoadedMsg

	focus          int // index into the control panel while in ModeStyle
	catalogIndex   int
	filename       string
	confirmAction  ConfirmAction
	pendingExport  exportRequest
	errorMessage   string
	successMessage string
}

// imageLoadedMsg carries a finished decode back onto the update loop.
type imageLoadedMsg struct {
	src string
	img image.Image
	err error
}

type exportRequest struct {
	path   string
	format raster.Format
}

// exportMsg fires one frame after the handles were cleared.
type exportMsg exportRequest

type exportedMsg struct {
	path string
	err  error
}
