// Package proxy forwards tray icon actions to the X11 window the icon
// belongs to.
package proxy

import (
	"log/slog"

	"github.com/jezek/xgb/xproto"

	"github.com/bnema/shellexport/internal/x11"
)

// sourceApplication marks _NET_ACTIVE_WINDOW requests as coming from a
// normal application rather than a pager.
const sourceApplication = 1

func logger() *slog.Logger {
	return slog.With("component", "proxy")
}

type Proxy struct {
	display *x11.Display
	window  *x11.Window
	onMenu  func()
}

// New returns a handler that raises window on activation. onMenu, if not
// nil, runs when the host asks for the context menu.
func New(display *x11.Display, window *x11.Window, onMenu func()) *Proxy {
	return &Proxy{display: display, window: window, onMenu: onMenu}
}

func (p *Proxy) Activate(x, y int32) {
	p.raise()
}

func (p *Proxy) SecondaryActivate(x, y int32) {
	p.raise()
}

func (p *Proxy) ContextMenu(x, y int32) {
	if p.onMenu != nil {
		p.onMenu()
	}
}

func (p *Proxy) Scroll(delta int32, orientation string) {
	logger().Debug("scroll ignored", "delta", delta, "orientation", orientation)
}

func (p *Proxy) raise() {
	id, ok := p.window.EffectiveWindowID()
	if !ok {
		logger().Debug("activate on destroyed window")
		return
	}
	win := xproto.Window(id)

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   p.display.Atoms.NetActiveWindow,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			sourceApplication,
			uint32(xproto.TimeCurrentTime),
			0,
			0,
			0,
		}),
	}
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	xproto.MapWindow(p.display.Conn, win)
	xproto.SendEvent(p.display.Conn, false, p.display.Root, mask, string(ev.Bytes()))
	// jezek/xgb flushes requests asynchronously; Sync forces them out.
	p.display.Conn.Sync()
}
