package editor

import "stickerpad/internal/document"

// Shortcut keys bound while the editor is mounted.
const (
	KeyDelete    = "delete"
	KeyBackspace = "backspace"
	KeyUndo      = "ctrl+z"
	KeyRedo      = "ctrl+y"
	KeyRedoAlt   = "ctrl+shift+z"
)

// KeyBinder registers a global key handler and returns its release func.
type KeyBinder interface {
	Bind(key string, fn func()) (unbind func())
}

// Mount registers the delete/undo/redo shortcuts on b. Mounting again while
// mounted binds nothing new and returns the same release func. The release
// func is safe to call more than once.
func (e *Editor) Mount(b KeyBinder) func() {
	e.mountMu.Lock()
	defer e.mountMu.Unlock()
	if e.unmount != nil {
		return e.unmount
	}

	undo := func() { e.Undo() }
	redo := func() { e.Redo() }
	unbinds := []func(){
		b.Bind(KeyDelete, e.DeleteSelected),
		b.Bind(KeyBackspace, e.DeleteSelected),
		b.Bind(KeyUndo, undo),
		b.Bind(KeyRedo, redo),
		b.Bind(KeyRedoAlt, redo),
	}

	var released bool
	e.unmount = func() {
		e.mountMu.Lock()
		defer e.mountMu.Unlock()
		if released {
			return
		}
		released = true
		for _, unbind := range unbinds {
			unbind()
		}
		e.unmount = nil
	}
	return e.unmount
}

// DeleteSelected removes whichever element is selected.
func (e *Editor) DeleteSelected() {
	sel := e.store.Get().Selection
	switch sel.Kind {
	case document.KindText:
		e.RemoveText(sel.ID)
	case document.KindSticker:
		e.HandleStickerRemove(sel.ID)
	}
}
