package editor

import (
	"context"

	"github.com/pkg/errors"

	"stickerpad/internal/raster"
)

// Export commits pending input, clears the selection, lets the surface
// redraw without handles and only then samples the composition. Sampling
// before the redraw would bake selection decorations into the output.
func (e *Editor) Export(ctx context.Context, format raster.Format) ([]byte, error) {
	if e.exporter == nil {
		return nil, ErrNoExporter
	}
	e.HandleControlFocusOut(FocusEvent{})
	e.surface.ClearActiveNodes()
	e.surface.Redraw()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "export canceled")
	}
	data, err := e.exporter.Export(e.store.Get(), format)
	if err != nil {
		return nil, errors.Wrap(err, "export composition")
	}
	e.logger.Info("composition exported", "format", format, "bytes", len(data))
	return data, nil
}
