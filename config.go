package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"stickerpad/internal/document"
	"stickerpad/internal/history"
	"stickerpad/internal/raster"
)

type StickerConfig struct {
	Name string `toml:"name"`
	Src  string `toml:"src"`
}

type Config struct {
	SaveDirectory   string          `toml:"save_directory"`
	AssetDirectory  string          `toml:"asset_directory"`
	Background      string          `toml:"background"`
	CanvasWidth     int             `toml:"canvas_width"`
	CanvasHeight    int             `toml:"canvas_height"`
	HistoryLimit    int             `toml:"history_limit"`
	PixelRatio      float64         `toml:"pixel_ratio"`
	DefaultFontSize float64         `toml:"default_font_size"`
	Stickers        []StickerConfig `toml:"stickers"`
}

func defaultConfig() *Config {
	return &Config{
		CanvasWidth:     raster.DefaultWidth,
		CanvasHeight:    raster.DefaultHeight,
		HistoryLimit:    history.DefaultLimit,
		PixelRatio:      2,
		DefaultFontSize: document.DefaultText().FontSize,
	}
}

// loadConfig reads path, or ~/.stickerpad.toml when path is empty. Only an
// explicitly named file has to exist.
func loadConfig(path string, logger *slog.Logger) (*Config, error) {
	config := defaultConfig()
	explicit := path != ""
	if !explicit {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return config, nil
		}
		path = filepath.Join(homeDir, ".stickerpad.toml")
	}

	md, err := toml.DecodeFile(path, config)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("unknown config key", "path", path, "key", key.String())
	}
	config.normalize()
	return config, nil
}

func (c *Config) normalize() {
	def := defaultConfig()
	c.SaveDirectory = expandPath(c.SaveDirectory)
	c.AssetDirectory = expandPath(c.AssetDirectory)
	if c.CanvasWidth <= 0 {
		c.CanvasWidth = def.CanvasWidth
	}
	if c.CanvasHeight <= 0 {
		c.CanvasHeight = def.CanvasHeight
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.PixelRatio <= 0 {
		c.PixelRatio = def.PixelRatio
	}
	if c.DefaultFontSize <= 0 {
		c.DefaultFontSize = def.DefaultFontSize
	}

	stickers := c.Stickers[:0]
	for _, s := range c.Stickers {
		s.Src = strings.TrimSpace(s.Src)
		if s.Src == "" {
			continue
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("Sticker %d", len(stickers)+1)
		}
		stickers = append(stickers, s)
	}
	c.Stickers = stickers
}

func expandPath(value string) string {
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "~") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(homeDir, strings.TrimPrefix(value, "~"))
		}
	}
	if !filepath.IsAbs(value) {
		if absPath, err := filepath.Abs(value); err == nil {
			value = absPath
		}
	}
	return value
}

// catalog turns the configured stickers into the initial catalog. Nil keeps
// the built-in one.
func (c *Config) catalog() []document.AvailableSticker {
	if len(c.Stickers) == 0 {
		return nil
	}
	out := make([]document.AvailableSticker, 0, len(c.Stickers))
	for _, s := range c.Stickers {
		out = append(out, document.AvailableSticker{Name: s.Name, Src: s.Src})
	}
	return out
}

// GetSavePath joins filename onto the save directory. The directory is
// created when the export is written.
func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" {
		return filename
	}
	return filepath.Join(c.SaveDirectory, filename)
}
