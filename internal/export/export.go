// Package export publishes a window's menu bar and an application tray icon
// to desktop-shell services on the session bus.
//
// A Factory probes the bus once for the global menu registrar and for a
// StatusNotifier host, caches what it finds, and hands out adapters: an
// ExportedMenuBar when the registrar is present, a LocalMenuBar otherwise,
// and a tray icon registered with the StatusNotifierWatcher. Bus and
// detection failures never surface as errors; they only make a feature
// unavailable.
package export

import (
	"context"
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/bnema/shellexport/internal/bus"
	"github.com/bnema/shellexport/internal/dbusmenu"
	"github.com/bnema/shellexport/internal/sni"
)

var (
	// ErrNotTopLevel is returned when a menu bar is requested for a window
	// that is not a top-level window.
	ErrNotTopLevel = errors.New("menu bar parent must be a top-level window")

	// ErrStatusNotifierUnavailable is returned when no StatusNotifier host
	// is registered on the session bus.
	ErrStatusNotifierUnavailable = errors.New("status notifier host unavailable")
)

// Bus is the subset of a session bus connection the factory and its adapters
// use. *bus.Session implements it.
type Bus interface {
	NameHasOwner(name string) (bool, error)
	Call(ctx context.Context, svc bus.Service, method string, args ...any) error
	Property(ctx context.Context, svc bus.Service, name string) (dbus.Variant, error)
	Done() <-chan struct{}
	Conn() *dbus.Conn
	Close() error
}

// Dialer opens a new session bus connection.
type Dialer func() (Bus, error)

// Window is a top-level window whose native id may change over time.
type Window interface {
	IsTopLevel() bool
	EffectiveWindowID() (uint32, bool)
	OnWindowIDChange(fn func())
}

// Blocker is implemented by windows that report when a modal dialog blocks
// them.
type Blocker interface {
	OnBlockChange(fn func(blocked bool))
}

// MenuPublisher owns the menu object a registrar displays.
type MenuPublisher interface {
	SetEntries(entries []dbusmenu.Entry) error
	SetVisible(visible bool) error
	Close() error
}

// PublisherFunc publishes a new menu object at path.
type PublisherFunc func(b Bus, path dbus.ObjectPath) (MenuPublisher, error)

// TrayIcon is a status notifier item owned by the application. Path is
// unique per icon so several icons can share one connection.
type TrayIcon interface {
	Name() string
	Path() dbus.ObjectPath
	SetTitle(title string)
	SetIcon(pixmaps []sni.Pixmap)
	Close() error
}

// TrayOptions describes a tray icon to create.
type TrayOptions struct {
	Title    string
	Category string
	IconName string
	Icon     []sni.Pixmap
	WindowID uint32
	Handler  sni.ActionHandler
}

// TrayFunc builds an unregistered tray icon on b.
type TrayFunc func(b Bus, appID string, opts TrayOptions) (TrayIcon, error)

// MenuBar is a window's menu bar, exported or not.
type MenuBar interface {
	AddEntry(e dbusmenu.Entry)
	Entries() []dbusmenu.Entry
	SetVisible(visible bool)
	Visible() bool
	Show()
	Hide()
	Exported() bool
	Close() error
}

func dialSession() (Bus, error) {
	s, err := bus.Dial()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func publishDBusMenu(b Bus, path dbus.ObjectPath) (MenuPublisher, error) {
	m, err := dbusmenu.Publish(b.Conn(), path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newStatusNotifierItem(b Bus, appID string, opts TrayOptions) (TrayIcon, error) {
	title := opts.Title
	if title == "" {
		title = appID
	}
	name, path := sni.NextAddress()
	item, err := sni.NewItem(b.Conn(), name, path, sni.Properties{
		Category:   opts.Category,
		ID:         appID,
		Title:      title,
		WindowID:   opts.WindowID,
		IconName:   opts.IconName,
		IconPixmap: opts.Icon,
	}, opts.Handler)
	if err != nil {
		return nil, err
	}
	return item, nil
}
