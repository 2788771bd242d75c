package x11

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Window is a top-level X11 window whose XID may change over its lifetime,
// for instance when a toolkit recreates its native window.
type Window struct {
	d *Display

	mu       sync.Mutex
	id       uint32
	valid    bool
	onChange []func()
	onTitle  []func()
	onIcon   []func()
}

// maxIconSide bounds the icon dimensions accepted from _NET_WM_ICON.
const maxIconSide = 1024

// EffectiveWindowID returns the current XID, if the window still exists.
func (w *Window) EffectiveWindowID() (uint32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id, w.valid
}

// OnWindowIDChange registers fn to run whenever the XID changes or the
// window is destroyed.
func (w *Window) OnWindowIDChange(fn func()) {
	w.mu.Lock()
	w.onChange = append(w.onChange, fn)
	w.mu.Unlock()
}

// OnTitleChange registers fn to run when _NET_WM_NAME or WM_NAME changes.
func (w *Window) OnTitleChange(fn func()) {
	w.mu.Lock()
	w.onTitle = append(w.onTitle, fn)
	w.mu.Unlock()
}

// OnIconChange registers fn to run when _NET_WM_ICON changes.
func (w *Window) OnIconChange(fn func()) {
	w.mu.Lock()
	w.onIcon = append(w.onIcon, fn)
	w.mu.Unlock()
}

func (w *Window) propertyChanged(atoms Atoms, atom xproto.Atom) {
	w.mu.Lock()
	var listeners []func()
	switch atom {
	case atoms.NetWMName, atoms.WMName:
		listeners = append(listeners, w.onTitle...)
	case atoms.NetWMIcon:
		listeners = append(listeners, w.onIcon...)
	}
	w.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Rebind points w at a new XID and notifies listeners.
func (w *Window) Rebind(id uint32) error {
	if w.d != nil {
		if err := w.d.track(xproto.Window(id), w); err != nil {
			return err
		}
		if old, ok := w.EffectiveWindowID(); ok && old != id {
			w.d.untrack(xproto.Window(old))
		}
	}
	w.setID(id, true)
	return nil
}

func (w *Window) destroyed(id uint32) {
	w.mu.Lock()
	if !w.valid || w.id != id {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()
	w.setID(0, false)
}

func (w *Window) setID(id uint32, valid bool) {
	w.mu.Lock()
	changed := w.id != id || w.valid != valid
	w.id, w.valid = id, valid
	listeners := append([]func(){}, w.onChange...)
	w.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn()
	}
}

// IsTopLevel reports whether the window is managed as a top-level window:
// either the window manager has set WM_STATE on it or it is a direct child
// of the root window.
func (w *Window) IsTopLevel() bool {
	id, ok := w.EffectiveWindowID()
	if !ok || w.d == nil {
		return false
	}
	win := xproto.Window(id)

	reply, err := xproto.GetProperty(w.d.Conn, false, win, w.d.Atoms.WMState, xproto.GetPropertyTypeAny, 0, 2).Reply()
	if err == nil && reply != nil && reply.Format != 0 {
		return true
	}

	tree, err := xproto.QueryTree(w.d.Conn, win).Reply()
	if err != nil {
		logger().Debug("query tree failed", "window", fmt.Sprintf("0x%x", id), "error", err)
		return false
	}
	return tree.Parent == w.d.Root
}

// Title returns _NET_WM_NAME, falling back to WM_NAME.
func (w *Window) Title() string {
	id, ok := w.EffectiveWindowID()
	if !ok || w.d == nil {
		return ""
	}
	win := xproto.Window(id)
	if title, err := getUTF8Property(w.d.Conn, win, w.d.Atoms.NetWMName, w.d.Atoms.UTF8String); err == nil && title != "" {
		return title
	}
	if title, err := getStringProperty(w.d.Conn, win, w.d.Atoms.WMName); err == nil && title != "" {
		return title
	}
	return fmt.Sprintf("window-%d", id)
}

// Icon returns the largest image in _NET_WM_ICON as ARGB words, row by
// row. A window without an icon yields a zero size and no error.
func (w *Window) Icon() (width, height int, argb []uint32, err error) {
	id, ok := w.EffectiveWindowID()
	if !ok || w.d == nil {
		return 0, 0, nil, fmt.Errorf("window is not bound")
	}
	reply, err := xproto.GetProperty(w.d.Conn, false, xproto.Window(id), w.d.Atoms.NetWMIcon, xproto.AtomCardinal, 0, (1<<32)-1).Reply()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("get _NET_WM_ICON: %w", err)
	}
	if reply == nil || reply.Format != 32 {
		return 0, 0, nil, nil
	}
	values := make([]uint32, len(reply.Value)/4)
	for i := range values {
		values[i] = xgb.Get32(reply.Value[i*4:])
	}
	width, height, argb = largestIcon(values)
	return width, height, argb, nil
}

// largestIcon walks the width, height, pixels sequence of _NET_WM_ICON and
// returns the biggest complete image.
func largestIcon(values []uint32) (width, height int, argb []uint32) {
	for len(values) >= 2 {
		if values[0] == 0 || values[1] == 0 || values[0] > maxIconSide || values[1] > maxIconSide {
			break
		}
		w, h := int(values[0]), int(values[1])
		n := w * h
		if len(values)-2 < n {
			break
		}
		if n > width*height {
			width, height, argb = w, h, values[2:2+n]
		}
		values = values[2+n:]
	}
	return width, height, argb
}

func getUTF8Property(conn *xgb.Conn, win xproto.Window, atom xproto.Atom, utf8Atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(conn, false, win, atom, utf8Atom, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", err
	}
	if reply == nil || len(reply.Value) == 0 {
		return "", nil
	}
	return string(reply.Value), nil
}

func getStringProperty(conn *xgb.Conn, win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(conn, false, win, atom, xproto.AtomString, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", err
	}
	if reply == nil || len(reply.Value) == 0 {
		return "", nil
	}
	return string(reply.Value), nil
}
