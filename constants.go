package main

type Mode int

const (
	ModeNormal Mode = iota
	ModeTextInput
	ModeStyle
	ModeMove
	ModeTransform
	ModeCatalog
	ModeFileInput
	ModeConfirm
)

type ConfirmAction int

const (
	ConfirmQuit ConfirmAction = iota
	ConfirmOverwriteFile
	ConfirmClearDocument
)

const (
	panelWidth = 30
	moveStep   = 10.0 // canvas px per key press
	scaleStep  = 0.1
	rotateStep = 15.0
	fontStep   = 2.0
	alphaStep  = 0.1
)

var (
	fontFamilies = []string{"Go", "Go Mono"}
	fillColors   = []string{"#000000", "#ffffff", "#e53935", "#1e88e5", "#43a047", "#fdd835", "#8e24aa"}
)
