package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"stickerpad/internal/document"
	"stickerpad/internal/editor"
	"stickerpad/internal/imagesrc"
	"stickerpad/internal/raster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	debug      bool
	stickers   []string
	texts      []string
	exportPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "stickerpad [background]",
		Short:        "Compose text and stickers over an image",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.stickerpad.toml)")
	flags.BoolVar(&opts.debug, "debug", false, "log at debug level")
	flags.StringArrayVar(&opts.stickers, "sticker", nil, "sticker source to add (repeatable)")
	flags.StringArrayVar(&opts.texts, "text", nil, "text to place when exporting headless (repeatable)")
	flags.StringVar(&opts.exportPath, "export", "", "render to this .png or .pdf file and exit")
	return cmd
}

func run(ctx context.Context, opts *options, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}

	if opts.exportPath != "" {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		config, err := loadConfig(opts.configPath, logger)
		if err != nil {
			return err
		}
		return runHeadless(ctx, config, opts, backgroundArg(args, config), logger)
	}

	// bubbletea owns the terminal, so logs go to a file
	logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "stickerpad.log"), "stickerpad")
	if err != nil {
		return errors.Wrap(err, "open log file")
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	config, err := loadConfig(opts.configPath, logger)
	if err != nil {
		return err
	}
	m, err := initialModel(ctx, config, logger, backgroundArg(args, config), opts.stickers)
	if err != nil {
		return err
	}
	defer m.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "run terminal ui")
	}
	return nil
}

func backgroundArg(args []string, config *Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return config.Background
}

// syncLoader decodes on the caller's goroutine.
type syncLoader struct {
	loader *imagesrc.Loader
}

func (l syncLoader) Load(ctx context.Context, src string, done func(image.Image, error)) {
	done(l.loader.Decode(ctx, src))
}

// runHeadless lays out the given stickers and texts and exports them without
// opening the terminal UI.
func runHeadless(ctx context.Context, config *Config, opts *options, background string, logger *slog.Logger) error {
	renderer, err := raster.New(
		raster.WithSize(config.CanvasWidth, config.CanvasHeight),
		raster.WithPixelRatio(config.PixelRatio),
		raster.WithLogger(logger),
	)
	if err != nil {
		return errors.Wrap(err, "load fonts")
	}
	loader := imagesrc.New(imagesrc.WithAssetDir(config.AssetDirectory), imagesrc.WithLogger(logger))
	ed, err := editor.New(newStore(config),
		editor.WithImageLoader(syncLoader{loader: loader}),
		editor.WithExporter(renderer),
		editor.WithMeasurer(renderer),
		editor.WithDefaultFontSize(config.DefaultFontSize),
		editor.WithLogger(logger),
		editor.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer ed.Close()

	if background != "" {
		ed.SetBackground(background)
	}
	for i, src := range opts.stickers {
		id, ok := ed.AddSticker(src)
		if !ok {
			continue
		}
		offset := float64(i) * 40
		ed.HandleStickerDragEnd(id, editor.Position{X: 100 + offset, Y: 100 + offset})
	}
	for _, text := range opts.texts {
		ed.SetTextContent(text)
		ed.HandleControlFocusOut(editor.FocusEvent{})
	}

	format := raster.FormatPNG
	if ext := filepath.Ext(opts.exportPath); ext != "" {
		if format, err = raster.ParseFormat(ext); err != nil {
			return err
		}
	}
	data, err := ed.Export(ctx, format)
	if err != nil {
		return err
	}
	if err := writeExport(opts.exportPath, data); err != nil {
		return err
	}
	logger.Info("exported", "path", opts.exportPath, "bytes", len(data))
	return nil
}

func newStore(config *Config) *document.Store {
	var opts []document.Option
	if catalog := config.catalog(); catalog != nil {
		opts = append(opts, document.WithCatalog(catalog))
	}
	return document.NewStore(opts...)
}

func initialModel(ctx context.Context, config *Config, logger *slog.Logger, background string, stickers []string) (*model, error) {
	renderer, err := raster.New(
		raster.WithSize(config.CanvasWidth, config.CanvasHeight),
		raster.WithPixelRatio(config.PixelRatio),
		raster.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load fonts")
	}
	canvas := NewCanvas(config.CanvasWidth, config.CanvasHeight, renderer)
	images := make(chan imageLoadedMsg, 16)
	deliver := func(src string, img image.Image, err error) {
		select {
		case images <- imageLoadedMsg{src: src, img: img, err: err}:
		case <-ctx.Done():
		}
	}

	ed, err := editor.New(newStore(config),
		editor.WithSurface(canvas),
		editor.WithImageLoader(imagesrc.New(imagesrc.WithAssetDir(config.AssetDirectory), imagesrc.WithLogger(logger))),
		editor.WithImageDelivery(deliver),
		editor.WithExporter(renderer),
		editor.WithMeasurer(renderer),
		editor.WithHistoryLimit(config.HistoryLimit),
		editor.WithDefaultFontSize(config.DefaultFontSize),
		editor.WithLogger(logger),
		editor.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	for _, src := range stickers {
		ed.AddAvailableSticker(src)
	}
	if background != "" {
		ed.SetBackground(background)
	}

	keys := newKeyRouter()
	return &model{
		ctx:      ctx,
		mode:     ModeNormal,
		ed:       ed,
		canvas:   canvas,
		keys:     keys,
		unmount:  ed.Mount(keys),
		config:   config,
		logger:   logger,
		images:   images,
		filename: "stickerpad",
	}, nil
}

func (m *model) close() {
	m.unmount()
	m.ed.Close()
}

func waitForImage(ctx context.Context, images <-chan imageLoadedMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-images:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *model) Init() tea.Cmd {
	return waitForImage(m.ctx, m.images)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.canvas.Redraw()
		return m, nil

	case imageLoadedMsg:
		m.ed.ImageLoaded(msg.src, msg.img, msg.err)
		return m, waitForImage(m.ctx, m.images)

	case exportMsg:
		return m, m.runExport(exportRequest(msg))

	case exportedMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.logger.Error("export failed", "path", msg.path, "err", msg.err)
			return m, nil
		}
		m.successMessage = "Exported " + msg.path
		if err := copyToClipboard(msg.path); err != nil {
			m.logger.Debug("clipboard write failed", "err", err)
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Type == tea.MouseLeft {
			m.handleClick(msg.X, msg.Y)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	m.errorMessage = ""
	m.successMessage = ""

	if m.help {
		switch key {
		case "esc", "q", "?":
			m.help = false
		}
		return m, nil
	}

	switch m.mode {
	case ModeTextInput:
		m.handleTextInputKey(msg)
	case ModeStyle:
		m.handleStyleKey(key)
	case ModeMove:
		switch key {
		case "enter":
			m.commitGesture()
			m.mode = ModeNormal
		case "esc":
			m.canvas.FinishGesture()
			m.mode = ModeNormal
		default:
			return m.handleNavigation(key, m.getMoveSpeed(key))
		}
	case ModeTransform:
		switch key {
		case "enter":
			m.commitGesture()
			m.mode = ModeNormal
		case "esc":
			m.canvas.FinishGesture()
			m.mode = ModeNormal
		default:
			m.handleTransformKey(key)
		}
	case ModeCatalog:
		m.handleCatalogKey(key)
	case ModeFileInput:
		return m, m.handleFileInputKey(msg)
	case ModeConfirm:
		return m, m.handleConfirmKey(key)
	default:
		return m.handleNormalKey(key)
	}
	return m, nil
}

func (m *model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "?":
		m.help = true
	case "q":
		if m.ed.State().Document.Empty() {
			return m, tea.Quit
		}
		m.confirmAction = ConfirmQuit
		m.mode = ModeConfirm
	case "tab":
		m.cycleSelection(1)
	case "shift+tab":
		m.cycleSelection(-1)
	case "esc":
		m.ed.HandleStageClick(document.Ref{})
	case "h", "j", "k", "l", "H", "J", "K", "L", "left", "right", "up", "down",
		"shift+left", "shift+right", "shift+up", "shift+down":
		return m.handleNavigation(key, m.getMoveSpeed(key))
	case "r":
		if !m.beginGesture() {
			m.errorMessage = "Select a layer first (tab)"
			break
		}
		m.mode = ModeTransform
	case "t", "enter":
		m.enterTextInput()
	case "s":
		m.focusControl(editor.ControlFontSize)
		m.mode = ModeStyle
	case "a":
		m.catalogIndex = 0
		m.mode = ModeCatalog
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		if _, err := m.ed.AddStickerFromCatalog(n - 1); err != nil {
			m.errorMessage = err.Error()
		}
	case "c":
		m.ed.MakeCaps()
	case "p", "ctrl+v":
		m.paste()
	case "e":
		m.mode = ModeFileInput
	case "n":
		m.confirmAction = ConfirmClearDocument
		m.mode = ModeConfirm
	case "u":
		m.undo()
	case "ctrl+r":
		m.redo()
	default:
		m.keys.dispatch(key)
	}
	return m, nil
}

func (m *model) handleTextInputKey(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyRunes:
		m.typeRunes(msg.Runes)
	case tea.KeySpace:
		m.typeRunes([]rune{' '})
	case tea.KeyBackspace:
		m.backspace()
	case tea.KeyEnter:
		m.typeRunes([]rune{'\n'})
	case tea.KeyTab:
		m.moveFocus(1)
	case tea.KeyShiftTab:
		m.moveFocus(-1)
	case tea.KeyCtrlV:
		m.paste()
	case tea.KeyEsc, tea.KeyCtrlS:
		m.leavePanel()
	}
}

func (m *model) handleStyleKey(key string) {
	switch key {
	case "tab", "down", "j":
		m.moveFocus(1)
	case "shift+tab", "up", "k":
		m.moveFocus(-1)
	case "left", "h":
		m.adjustControl(-1)
	case "right", "l", "enter", " ":
		m.adjustControl(1)
	case "esc":
		m.leavePanel()
	}
}

func (m *model) handleCatalogKey(key string) {
	catalog := m.ed.State().Catalog
	switch key {
	case "down", "j":
		if m.catalogIndex < len(catalog)-1 {
			m.catalogIndex++
		}
	case "up", "k":
		if m.catalogIndex > 0 {
			m.catalogIndex--
		}
	case "enter":
		if _, err := m.ed.AddStickerFromCatalog(m.catalogIndex); err != nil {
			m.errorMessage = err.Error()
			return
		}
		m.successMessage = "Added " + catalog[m.catalogIndex].Name
		m.mode = ModeNormal
	case "p", "ctrl+v":
		m.paste()
	case "esc":
		m.mode = ModeNormal
	}
}

func (m *model) handleFileInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyRunes:
		m.filename += string(msg.Runes)
	case tea.KeyBackspace:
		if r := []rune(m.filename); len(r) > 0 {
			m.filename = string(r[:len(r)-1])
		}
	case tea.KeyEsc:
		m.mode = ModeNormal
	case tea.KeyEnter:
		req, err := m.exportTarget(m.filename)
		if err != nil {
			m.errorMessage = err.Error()
			return nil
		}
		if fileExists(req.path) {
			m.pendingExport = req
			m.confirmAction = ConfirmOverwriteFile
			m.mode = ModeConfirm
			return nil
		}
		m.mode = ModeNormal
		return m.startExport(req)
	}
	return nil
}

func (m *model) handleConfirmKey(key string) tea.Cmd {
	switch key {
	case "y", "Y":
		m.mode = ModeNormal
		switch m.confirmAction {
		case ConfirmQuit:
			return tea.Quit
		case ConfirmOverwriteFile:
			return m.startExport(m.pendingExport)
		case ConfirmClearDocument:
			m.ed.LoadDocument(document.Document{})
			m.successMessage = "New composition"
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return nil
}

// handleClick treats a left click inside the canvas frame as a stage click.
// Clicking the canvas takes focus away from the panel first.
func (m *model) handleClick(x, y int) {
	cols, rows := m.canvasSize()
	col, row := x-1, y-1
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return
	}
	if m.mode == ModeTextInput || m.mode == ModeStyle {
		m.leavePanel()
	}
	if m.canvas.Gesturing() {
		m.commitGesture()
		m.mode = ModeNormal
	}
	cx, cy := m.canvas.ToCanvas(col, row, cols, rows)
	ref, ok := m.ed.HitTest(cx, cy)
	if !ok {
		m.ed.HandleStageClick(document.Ref{})
		return
	}
	m.ed.HandleStageClick(ref)
	m.canvas.Attach(ref)
}

func (m *model) canvasSize() (int, int) {
	cols := m.width - panelWidth - 2
	rows := m.height - 3
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

func (m *model) View() string {
	if m.help {
		return m.helpView()
	}
	cols, rows := m.canvasSize()
	lines := m.canvas.Render(m.ed.State(), cols, rows)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(strings.Join(lines, "\n")),
		m.renderPanel(rows+2),
	)
	return body + "\n" + m.statusLine()
}

func (m *model) statusLine() string {
	var status string
	switch m.mode {
	case ModeTextInput:
		status = "Mode: TEXT | type to edit, Enter=newline, Tab=next control, Esc=commit"
	case ModeStyle:
		status = "Mode: STYLE | ↑/↓=control, ←/→=change, Esc=done"
	case ModeMove:
		status = "Mode: MOVE | hjkl/arrows=move, Enter=finish, Esc=cancel"
	case ModeTransform:
		status = "Mode: TRANSFORM | +/-=scale, [/]=rotate, Enter=finish, Esc=cancel"
	case ModeCatalog:
		status = "Mode: STICKERS | ↑/↓=choose, Enter=add, p=paste source, Esc=back"
	case ModeFileInput:
		status = fmt.Sprintf("Mode: EXPORT | filename: %s█ | .png or .pdf, Enter=export, Esc=cancel", m.filename)
	case ModeConfirm:
		var message string
		switch m.confirmAction {
		case ConfirmQuit:
			message = "Quit stickerpad? (y/n)"
		case ConfirmOverwriteFile:
			message = fmt.Sprintf("File %s already exists. Overwrite? (y/n)", m.pendingExport.path)
		case ConfirmClearDocument:
			message = "Start a new composition? (y/n)"
		}
		status = "Mode: CONFIRM | " + message
	default:
		status = "Mode: " + m.modeString()
		if sel := m.ed.State().Selection; !sel.IsZero() {
			status += fmt.Sprintf(" | Selected: %s", sel.Kind)
		}
		if m.errorMessage == "" && m.successMessage == "" {
			status += " | ? for help | q to quit"
		}
	}
	switch {
	case m.errorMessage != "":
		return statusStyle.Render(status) + " " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		return statusStyle.Render(status) + " " + okStyle.Render(m.successMessage)
	}
	return statusStyle.Render(status)
}

func (m *model) modeString() string {
	switch m.mode {
	case ModeNormal:
		return "NORMAL"
	case ModeTextInput:
		return "TEXT"
	case ModeStyle:
		return "STYLE"
	case ModeMove:
		return "MOVE"
	case ModeTransform:
		return "TRANSFORM"
	case ModeCatalog:
		return "STICKERS"
	case ModeFileInput:
		return "EXPORT"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

func (m *model) helpView() string {
	helpLines := []string{
		"stickerpad help",
		"===============",
		"",
		"Layers:",
		"-------",
		"  Tab/Shift+Tab    Select next/previous layer (brings it to front)",
		"  Esc              Deselect",
		"  Mouse click      Select the layer under the pointer",
		"  h/j/k/l, arrows  Move selected layer (Shift = faster), Enter to drop",
		"  r                Rotate/scale selected layer: +/- scale, [/] rotate",
		"  Delete/Backspace Remove selected layer",
		"  Ctrl+Z / u       Undo",
		"  Ctrl+Y / Ctrl+R  Redo",
		"",
		"Text:",
		"-----",
		"  t, Enter         Type text (new text, or edit the selected one)",
		"  Tab              Next panel control, typing is kept",
		"  Esc              Commit text and return to the canvas",
		"  s                Style controls: size, font, fill, style, align,",
		"                   opacity, background, border, caps",
		"  c                Upper-case the selected text",
		"",
		"Stickers:",
		"---------",
		"  a                Choose a sticker from the catalog",
		"  1-9              Add catalog sticker N",
		"  p, Ctrl+V        Paste an image URL, data URI or file path into the",
		"                   catalog (other text is typed)",
		"",
		"File:",
		"-----",
		"  e                Export PNG or PDF",
		"  n                New composition",
		"  q                Quit",
		"",
		"Press Esc or ? to close",
	}
	return strings.Join(helpLines, "\n")
}
