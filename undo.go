package main

import "sort"

// keyRouter is the global shortcut table the editor mounts its delete, undo
// and redo handlers on. It only sees keys while the canvas has focus.
type keyRouter struct {
	next     int
	bindings map[string]map[int]func()
}

func newKeyRouter() *keyRouter {
	return &keyRouter{bindings: map[string]map[int]func(){}}
}

func (r *keyRouter) Bind(key string, fn func()) func() {
	if r.bindings[key] == nil {
		r.bindings[key] = map[int]func(){}
	}
	id := r.next
	r.next++
	r.bindings[key][id] = fn
	return func() {
		delete(r.bindings[key], id)
	}
}

// dispatch runs the handlers bound to key in binding order and reports
// whether there were any.
func (r *keyRouter) dispatch(key string) bool {
	handlers := r.bindings[key]
	if len(handlers) == 0 {
		return false
	}
	ids := make([]int, 0, len(handlers))
	for id := range handlers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := handlers[id]; ok {
			fn()
		}
	}
	return true
}

func (r *keyRouter) count(key string) int {
	return len(r.bindings[key])
}

func (m *model) undo() {
	if m.ed.Undo() {
		m.canvas.FinishGesture()
		m.mode = ModeNormal
		m.successMessage = "Undo"
		return
	}
	m.errorMessage = "Nothing to undo"
}

func (m *model) redo() {
	if m.ed.Redo() {
		m.canvas.FinishGesture()
		m.mode = ModeNormal
		m.successMessage = "Redo"
		return
	}
	m.errorMessage = "Nothing to redo"
}
