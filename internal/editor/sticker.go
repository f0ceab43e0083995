package editor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"stickerpad/internal/document"
	"stickerpad/internal/imagesrc"
)

// AddAvailableSticker appends src to the catalog as "Sticker N".
func (e *Editor) AddAvailableSticker(src string) (document.AvailableSticker, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return document.AvailableSticker{}, false
	}
	var entry document.AvailableSticker
	e.store.SetCatalog(func(prev []document.AvailableSticker) []document.AvailableSticker {
		entry = document.AvailableSticker{Name: fmt.Sprintf("Sticker %d", len(prev)+1), Src: src}
		return append(prev, entry)
	})
	return entry, true
}

// AddAvailableStickerBytes ingests raw file bytes from a picker as a data
// URI catalog entry.
func (e *Editor) AddAvailableStickerBytes(data []byte) (document.AvailableSticker, bool) {
	if len(data) == 0 {
		return document.AvailableSticker{}, false
	}
	return e.AddAvailableSticker(imagesrc.EncodeDataURI(data))
}

// AddSticker places a new, unselected instance of src on top of every other
// element and starts decoding its image.
func (e *Editor) AddSticker(src string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return "", false
	}
	st := document.DefaultSticker(src)
	st.ID = document.NewID(document.KindSticker)
	e.store.Update(func(s *document.State) {
		s.MaxZIndex++
		st.ZIndex = s.MaxZIndex
		s.Stickers = append(s.Stickers, st)
	})
	e.requestImage(src)
	e.logger.Debug("sticker added", "id", st.ID, "z", st.ZIndex)
	return st.ID, true
}

func (e *Editor) AddStickerFromCatalog(index int) (string, error) {
	catalog := e.store.Get().Catalog
	if index < 0 || index >= len(catalog) {
		return "", errors.Wrapf(ErrNoSuchCatalogEntry, "index %d", index)
	}
	id, _ := e.AddSticker(catalog[index].Src)
	return id, nil
}

func (e *Editor) HandleStickerDragEnd(id string, pos Position) bool {
	return e.commitDrag(document.Ref{Kind: document.KindSticker, ID: id}, pos)
}

func (e *Editor) HandleStickerTransform(id string, g GeometrySnapshot) bool {
	return e.commitTransform(document.Ref{Kind: document.KindSticker, ID: id}, g)
}

func (e *Editor) HandleStickerSelect(id string) bool {
	return e.selectElement(document.Ref{Kind: document.KindSticker, ID: id})
}

// HandleStickerRemove deletes the sticker id. Its image slot is released
// once nothing else uses the source.
func (e *Editor) HandleStickerRemove(id string) bool {
	var removed bool
	e.store.Update(func(st *document.State) {
		_, i, ok := st.FindSticker(id)
		if !ok {
			return
		}
		st.Stickers = append(st.Stickers[:i:i], st.Stickers[i+1:]...)
		if st.Selection == (document.Ref{Kind: document.KindSticker, ID: id}) {
			st.Selection = document.Ref{}
		}
		document.PruneImages(st)
		removed = true
	})
	if removed {
		e.surface.ClearActiveNodes()
	}
	return removed
}
