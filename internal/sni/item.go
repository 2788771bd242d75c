// Package sni exports a StatusNotifierItem on the session bus.
package sni

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
)

const (
	Interface = "org.kde.StatusNotifierItem"
	Path      = dbus.ObjectPath("/StatusNotifierItem")
)

var counter atomic.Uint64

// NextAddress returns a bus name and an object path unique to this process
// for the next item. Items sharing a connection must not share a path.
func NextAddress() (string, dbus.ObjectPath) {
	n := counter.Add(1)
	return fmt.Sprintf("org.kde.StatusNotifierItem-%d-%d", os.Getpid(), n),
		dbus.ObjectPath(fmt.Sprintf("%s/%d", Path, n))
}

type Properties struct {
	Category   string
	ID         string
	Title      string
	Status     string
	WindowID   uint32
	IconName   string
	IconPixmap []Pixmap
	ItemIsMenu bool
}

type ActionHandler interface {
	Activate(x, y int32)
	SecondaryActivate(x, y int32)
	ContextMenu(x, y int32)
	Scroll(delta int32, orientation string)
}

type Item struct {
	conn    *dbus.Conn
	service string
	path    dbus.ObjectPath
	handler ActionHandler
	mu      sync.RWMutex
	props   Properties
	closed  bool
}

// NewItem claims service on conn and exports the item object at path.
// Registration with the StatusNotifierWatcher is left to the caller.
func NewItem(conn *dbus.Conn, service string, path dbus.ObjectPath, props Properties, handler ActionHandler) (*Item, error) {
	if !path.IsValid() {
		return nil, fmt.Errorf("invalid object path %q", path)
	}
	if conn == nil {
		return nil, fmt.Errorf("dbus connection is nil")
	}
	if props.Category == "" {
		props.Category = "ApplicationStatus"
	}
	if props.Status == "" {
		props.Status = "Active"
	}

	item := &Item{
		conn:    conn,
		service: service,
		path:    path,
		props:   props,
		handler: handler,
	}

	if err := conn.Export(item, path, Interface); err != nil {
		return nil, fmt.Errorf("export item: %w", err)
	}
	if err := conn.Export(item, path, "org.freedesktop.DBus.Properties"); err != nil {
		item.unexport()
		return nil, fmt.Errorf("export properties: %w", err)
	}
	if err := exportIntrospection(conn, path); err != nil {
		item.unexport()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(service, dbus.NameFlagDoNotQueue)
	if err != nil {
		item.unexport()
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		item.unexport()
		return nil, fmt.Errorf("dbus name not available: %s", service)
	}

	return item, nil
}

// Name returns the bus name the item owns.
func (i *Item) Name() string {
	return i.service
}

// Path returns the object path the item is exported at.
func (i *Item) Path() dbus.ObjectPath {
	return i.path
}

func (i *Item) unexport() {
	i.conn.Export(nil, i.path, Interface)
	i.conn.Export(nil, i.path, "org.freedesktop.DBus.Properties")
	i.conn.Export(nil, i.path, "org.freedesktop.DBus.Introspectable")
}

func (i *Item) Close() error {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return nil
	}
	i.closed = true
	i.mu.Unlock()

	i.unexport()
	if _, err := i.conn.ReleaseName(i.service); err != nil {
		return fmt.Errorf("release name %s: %w", i.service, err)
	}
	return nil
}

func (i *Item) SetHandler(handler ActionHandler) {
	i.mu.Lock()
	i.handler = handler
	i.mu.Unlock()
}

// SetIcon replaces the icon pixmaps. Updates after Close are dropped.
func (i *Item) SetIcon(pixmaps []Pixmap) {
	i.mu.Lock()
	i.props.IconPixmap = pixmaps
	closed := i.closed
	i.mu.Unlock()
	if !closed && i.conn != nil {
		i.conn.Emit(i.path, Interface+".NewIcon")
	}
}

// SetTitle replaces the title. Updates after Close are dropped.
func (i *Item) SetTitle(title string) {
	i.mu.Lock()
	i.props.Title = title
	closed := i.closed
	i.mu.Unlock()
	if !closed && i.conn != nil {
		i.conn.Emit(i.path, Interface+".NewTitle")
	}
}

func (i *Item) currentHandler() ActionHandler {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.handler
}

func (i *Item) Activate(x, y int32) *dbus.Error {
	if h := i.currentHandler(); h != nil {
		h.Activate(x, y)
	}
	return nil
}

func (i *Item) SecondaryActivate(x, y int32) *dbus.Error {
	if h := i.currentHandler(); h != nil {
		h.SecondaryActivate(x, y)
	}
	return nil
}

func (i *Item) ContextMenu(x, y int32) *dbus.Error {
	if h := i.currentHandler(); h != nil {
		h.ContextMenu(x, y)
	}
	return nil
}

func (i *Item) Scroll(delta int32, orientation string) *dbus.Error {
	if h := i.currentHandler(); h != nil {
		h.Scroll(delta, orientation)
	}
	return nil
}

func (i *Item) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if iface != Interface {
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown interface: %s", iface))
	}
	v, ok := i.properties()[prop]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown property: %s", prop))
	}
	return dbus.MakeVariant(v), nil
}

func (i *Item) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("property %s is read-only", prop))
}

func (i *Item) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != Interface {
		return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface: %s", iface))
	}
	props := i.properties()
	all := make(map[string]dbus.Variant, len(props))
	for name, v := range props {
		all[name] = dbus.MakeVariant(v)
	}
	return all, nil
}

func (i *Item) properties() map[string]any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	pixmaps := i.props.IconPixmap
	if pixmaps == nil {
		pixmaps = []Pixmap{}
	}
	return map[string]any{
		"Category":   i.props.Category,
		"Id":         i.props.ID,
		"Title":      i.props.Title,
		"Status":     i.props.Status,
		"WindowId":   i.props.WindowID,
		"IconName":   i.props.IconName,
		"IconPixmap": pixmaps,
		"ItemIsMenu": i.props.ItemIsMenu,
	}
}
