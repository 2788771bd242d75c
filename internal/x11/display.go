// Package x11 tracks top-level X11 windows so their menu bars can follow
// window id changes.
package x11

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

func logger() *slog.Logger {
	return slog.With("component", "x11")
}

type Display struct {
	Conn  *xgb.Conn
	Root  xproto.Window
	Atoms Atoms

	mu      sync.Mutex
	windows map[xproto.Window]*Window
	closing sync.Once
}

// Open connects to the display named by $DISPLAY.
func Open() (*Display, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X11: %w", err)
	}

	atoms, err := InternAtoms(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	screen := xproto.Setup(conn).DefaultScreen(conn)
	return &Display{
		Conn:    conn,
		Root:    screen.Root,
		Atoms:   atoms,
		windows: make(map[xproto.Window]*Window),
	}, nil
}

// Close disconnects from the display. It is safe to call more than once.
func (d *Display) Close() {
	d.closing.Do(d.Conn.Close)
}

// Window starts tracking the window with the given XID.
func (d *Display) Window(id uint32) (*Window, error) {
	w := &Window{d: d}
	if err := w.Rebind(id); err != nil {
		return nil, err
	}
	return w, nil
}

func (d *Display) track(id xproto.Window, w *Window) error {
	err := xproto.ChangeWindowAttributesChecked(d.Conn, id, xproto.CwEventMask,
		[]uint32{xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		return fmt.Errorf("select events on window 0x%x: %w", id, err)
	}
	d.mu.Lock()
	d.windows[id] = w
	d.mu.Unlock()
	return nil
}

func (d *Display) untrack(id xproto.Window) {
	d.mu.Lock()
	delete(d.windows, id)
	d.mu.Unlock()
}

func (d *Display) lookup(id xproto.Window) *Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.windows[id]
}

// Run dispatches X events to tracked windows until ctx is done.
func (d *Display) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		d.Close()
	}()

	for {
		ev, err := d.Conn.WaitForEvent()
		if ev == nil && err == nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("X11 connection closed")
		}
		if err != nil {
			logger().Debug("x11 error", "error", err)
			continue
		}
		switch e := ev.(type) {
		case xproto.DestroyNotifyEvent:
			if w := d.lookup(e.Window); w != nil {
				d.untrack(e.Window)
				w.destroyed(uint32(e.Window))
			}
		case xproto.PropertyNotifyEvent:
			if w := d.lookup(e.Window); w != nil {
				w.propertyChanged(d.Atoms, e.Atom)
			}
		}
	}
}
