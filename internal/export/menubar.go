package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/bnema/shellexport/internal/bus"
	"github.com/bnema/shellexport/internal/dbusmenu"
)

var menuCounter atomic.Uint64

// ExportedMenuBar publishes a window's menu bar and keeps it registered with
// the global menu registrar under the window's current id.
type ExportedMenuBar struct {
	window    Window
	registrar bus.Service
	bus       Bus
	path      dbus.ObjectPath
	publisher MenuPublisher
	log       *slog.Logger

	mu           sync.Mutex
	registeredID uint32
	registered   bool
	visible      bool
	blocked      bool
	entries      []dbusmenu.Entry
	closed       bool
}

func newExportedMenuBar(w Window, registrar bus.Service, b Bus, publish PublisherFunc, log *slog.Logger) (*ExportedMenuBar, error) {
	if !w.IsTopLevel() {
		return nil, ErrNotTopLevel
	}

	path := dbus.ObjectPath(fmt.Sprintf("/MenuBar/%d", menuCounter.Add(1)))
	publisher, err := publish(b, path)
	if err != nil {
		return nil, fmt.Errorf("publish menu bar: %w", err)
	}

	mb := &ExportedMenuBar{
		window:    w,
		registrar: registrar,
		bus:       b,
		path:      path,
		publisher: publisher,
		log:       log,
		visible:   true,
	}

	mb.mu.Lock()
	mb.register()
	mb.mu.Unlock()

	w.OnWindowIDChange(mb.WindowIDChanged)
	if blocker, ok := w.(Blocker); ok {
		blocker.OnBlockChange(func(blocked bool) {
			if blocked {
				mb.Block()
			} else {
				mb.Unblock()
			}
		})
	}
	return mb, nil
}

// Path returns the object path of the published menu.
func (mb *ExportedMenuBar) Path() dbus.ObjectPath {
	return mb.path
}

// RegisteredWindowID returns the window id currently registered with the
// registrar.
func (mb *ExportedMenuBar) RegisteredWindowID() (uint32, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.registeredID, mb.registered
}

func (mb *ExportedMenuBar) register() {
	id, ok := mb.window.EffectiveWindowID()
	if !ok {
		return
	}
	mb.registeredID, mb.registered = id, true
	err := mb.bus.Call(context.Background(), mb.registrar, "RegisterWindow", id, mb.path)
	if err != nil {
		mb.log.Warn("failed to register window menu", "window", id, "path", mb.path, "error", err)
	}
}

func (mb *ExportedMenuBar) unregister() {
	if !mb.registered {
		return
	}
	id := mb.registeredID
	mb.registeredID, mb.registered = 0, false
	err := mb.bus.Call(context.Background(), mb.registrar, "UnregisterWindow", id)
	if err != nil {
		mb.log.Warn("failed to unregister window menu", "window", id, "error", err)
	}
}

// WindowIDChanged moves the registration to the window's new id.
func (mb *ExportedMenuBar) WindowIDChanged() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.unregister()
	mb.register()
}

// SetVisible records the requested visibility. The published menu stays
// hidden while the window is blocked.
func (mb *ExportedMenuBar) SetVisible(visible bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.visible = visible
	mb.applyVisibility()
}

func (mb *ExportedMenuBar) applyVisibility() {
	if mb.closed {
		return
	}
	if err := mb.publisher.SetVisible(mb.visible && !mb.blocked); err != nil {
		mb.log.Warn("failed to update menu visibility", "path", mb.path, "error", err)
	}
}

// Visible returns the requested visibility, regardless of blocking.
func (mb *ExportedMenuBar) Visible() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.visible
}

func (mb *ExportedMenuBar) Show() { mb.SetVisible(true) }
func (mb *ExportedMenuBar) Hide() { mb.SetVisible(false) }

func (mb *ExportedMenuBar) Block() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.blocked = true
	mb.applyVisibility()
}

func (mb *ExportedMenuBar) Unblock() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.blocked = false
	mb.applyVisibility()
}

func (mb *ExportedMenuBar) AddEntry(e dbusmenu.Entry) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.entries = append(mb.entries, e)
	if mb.closed {
		return
	}
	if err := mb.publisher.SetEntries(mb.entries); err != nil {
		mb.log.Warn("failed to publish menu entries", "path", mb.path, "error", err)
	}
}

func (mb *ExportedMenuBar) Entries() []dbusmenu.Entry {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]dbusmenu.Entry(nil), mb.entries...)
}

func (mb *ExportedMenuBar) Exported() bool { return true }

// Close unregisters the window and removes the published menu.
func (mb *ExportedMenuBar) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return nil
	}
	mb.unregister()
	mb.closed = true
	return mb.publisher.Close()
}

// LocalMenuBar is the fallback used when the menu bar stays inside the
// window.
type LocalMenuBar struct {
	mu      sync.Mutex
	entries []dbusmenu.Entry
	visible bool
}

func newLocalMenuBar() *LocalMenuBar {
	return &LocalMenuBar{visible: true}
}

func (mb *LocalMenuBar) AddEntry(e dbusmenu.Entry) {
	mb.mu.Lock()
	mb.entries = append(mb.entries, e)
	mb.mu.Unlock()
}

func (mb *LocalMenuBar) Entries() []dbusmenu.Entry {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]dbusmenu.Entry(nil), mb.entries...)
}

func (mb *LocalMenuBar) SetVisible(visible bool) {
	mb.mu.Lock()
	mb.visible = visible
	mb.mu.Unlock()
}

func (mb *LocalMenuBar) Visible() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return mb.visible
}

func (mb *LocalMenuBar) Show()          { mb.SetVisible(true) }
func (mb *LocalMenuBar) Hide()          { mb.SetVisible(false) }
func (mb *LocalMenuBar) Exported() bool { return false }
func (mb *LocalMenuBar) Close() error   { return nil }
