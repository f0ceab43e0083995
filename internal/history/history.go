// Package history records undo/redo snapshots of the undoable part of a
// document.Store: text elements, stickers and the z-order counter.
package history

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"stickerpad/internal/document"
)

const DefaultLimit = 50

type snapshot struct {
	data []byte
	doc  document.Document
}

type Manager struct {
	store  *document.Store
	limit  int
	logger *slog.Logger

	mu        sync.Mutex
	undoStack []snapshot
	redoStack []snapshot
	present   snapshot

	unsubscribe func()
}

type Option func(*Manager)

// WithLimit bounds the number of undo steps kept. Values below 1 fall back
// to DefaultLimit.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// New starts tracking store. The current document becomes the baseline that
// a full undo returns to.
func New(store *document.Store, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  store,
		limit:  DefaultLimit,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	present, err := capture(store.Get().Document)
	if err != nil {
		return nil, err
	}
	m.present = present
	m.unsubscribe = store.Subscribe(m.onChange)
	return m, nil
}

func capture(doc document.Document) (snapshot, error) {
	doc = doc.Clone()
	data, err := json.Marshal(doc)
	if err != nil {
		return snapshot{}, errors.Wrap(err, "encode history snapshot")
	}
	return snapshot{data: data, doc: doc}, nil
}

func (m *Manager) onChange(next, _ document.State) {
	// A blank text element only lives until the edit ends; recording it would
	// let undo bring it back with nothing left to clean it up.
	if hasBlankText(next.Document) {
		return
	}
	snap, err := capture(next.Document)
	if err != nil {
		m.logger.Error("history snapshot failed", "err", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Selection, input and image changes leave the document bytes unchanged,
	// as do restores from Undo/Redo.
	if bytes.Equal(snap.data, m.present.data) {
		return
	}
	m.undoStack = append(m.undoStack, m.present)
	if over := len(m.undoStack) - m.limit; over > 0 {
		m.undoStack = append([]snapshot(nil), m.undoStack[over:]...)
	}
	m.present = snap
	m.redoStack = nil
}

func hasBlankText(doc document.Document) bool {
	for _, el := range doc.TextElements {
		if el.Blank() {
			return true
		}
	}
	return false
}

// Undo restores the previous snapshot. Selection, input and preview reset.
func (m *Manager) Undo() bool {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return false
	}
	last := len(m.undoStack) - 1
	target := m.undoStack[last]
	m.undoStack = m.undoStack[:last]
	m.redoStack = append(m.redoStack, m.present)
	m.present = target
	m.mu.Unlock()

	m.restore(target.doc)
	m.logger.Debug("undo", "remaining", last)
	return true
}

func (m *Manager) Redo() bool {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return false
	}
	last := len(m.redoStack) - 1
	target := m.redoStack[last]
	m.redoStack = m.redoStack[:last]
	m.undoStack = append(m.undoStack, m.present)
	m.present = target
	m.mu.Unlock()

	m.restore(target.doc)
	m.logger.Debug("redo", "remaining", last)
	return true
}

func (m *Manager) restore(doc document.Document) {
	m.store.Update(func(st *document.State) {
		st.Document = doc.Clone()
		st.Selection = document.Ref{}
		st.Input = ""
		st.Preview = nil
	})
}

// Clear drops all history; the current document becomes the new baseline.
func (m *Manager) Clear() {
	present, err := capture(m.store.Get().Document)
	if err != nil {
		m.logger.Error("history snapshot failed", "err", err)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undoStack = nil
	m.redoStack = nil
	m.present = present
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// Len returns the number of undo steps available.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

func (m *Manager) RedoLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// Close stops recording store changes.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
