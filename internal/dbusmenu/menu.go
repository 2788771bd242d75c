// Package dbusmenu publishes a flat menu bar on the session bus using the
// com.canonical.dbusmenu interface.
//
// Only the top level of the menu is modelled: each Entry becomes a child of
// the root node. Visibility of the whole menu is carried by the root node's
// "visible" property so that a registrar can hide the bar while a window is
// blocked.
package dbusmenu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const Interface = "com.canonical.dbusmenu"

const protocolVersion uint32 = 3

func logger() *slog.Logger {
	return slog.With("component", "dbusmenu")
}

// Entry is one top-level item of a menu bar.
type Entry struct {
	Label    string
	Disabled bool
	OnClick  func()
}

// Menu is a menu object exported at a single object path.
type Menu struct {
	conn  *dbus.Conn
	path  dbus.ObjectPath
	props *prop.Properties

	mu       sync.RWMutex
	entries  []Entry
	visible  bool
	revision uint32
}

// Publish exports a new, empty and visible menu at path.
func Publish(conn *dbus.Conn, path dbus.ObjectPath) (*Menu, error) {
	if conn == nil {
		return nil, fmt.Errorf("dbus connection is nil")
	}
	m := &Menu{
		conn:     conn,
		path:     path,
		visible:  true,
		revision: 1,
	}
	if err := m.export(); err != nil {
		m.unexport()
		return nil, fmt.Errorf("publish menu %s: %w", path, err)
	}
	return m, nil
}

func (m *Menu) export() error {
	if err := m.conn.Export((*dbusmenu)(m), m.path, Interface); err != nil {
		return err
	}

	props, err := prop.Export(m.conn, m.path, prop.Map{
		Interface: map[string]*prop.Prop{
			"Version":       {Value: protocolVersion, Emit: prop.EmitConst},
			"TextDirection": {Value: "ltr", Emit: prop.EmitTrue},
			"Status":        {Value: "normal", Emit: prop.EmitTrue},
			"IconThemePath": {Value: []string{}, Emit: prop.EmitTrue},
		},
	})
	if err != nil {
		return err
	}
	m.props = props

	node := introspect.Node{
		Name: string(m.path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       Interface,
				Methods:    introspect.Methods((*dbusmenu)(m)),
				Properties: props.Introspection(Interface),
				Signals: []introspect.Signal{
					{Name: "LayoutUpdated", Args: []introspect.Arg{
						{Name: "revision", Type: "u"},
						{Name: "parent", Type: "i"},
					}},
					{Name: "ItemsPropertiesUpdated", Args: []introspect.Arg{
						{Name: "updatedProps", Type: "a(ia{sv})"},
						{Name: "removedProps", Type: "a(ias)"},
					}},
				},
			},
		},
	}
	return m.conn.Export(introspect.NewIntrospectable(&node), m.path, "org.freedesktop.DBus.Introspectable")
}

func (m *Menu) unexport() {
	m.conn.Export(nil, m.path, Interface)
	m.conn.Export(nil, m.path, "org.freedesktop.DBus.Properties")
	m.conn.Export(nil, m.path, "org.freedesktop.DBus.Introspectable")
}

// Path returns the object path the menu is exported at.
func (m *Menu) Path() dbus.ObjectPath {
	return m.path
}

// SetEntries replaces the top-level entries.
func (m *Menu) SetEntries(entries []Entry) error {
	m.mu.Lock()
	m.entries = append([]Entry(nil), entries...)
	m.revision++
	rev := m.revision
	m.mu.Unlock()
	return m.layoutUpdated(rev)
}

// SetVisible shows or hides the whole menu.
func (m *Menu) SetVisible(visible bool) error {
	m.mu.Lock()
	if m.visible == visible {
		m.mu.Unlock()
		return nil
	}
	m.visible = visible
	m.revision++
	rev := m.revision
	m.mu.Unlock()
	return m.layoutUpdated(rev)
}

func (m *Menu) layoutUpdated(rev uint32) error {
	return m.conn.Emit(m.path, Interface+".LayoutUpdated", rev, int32(0))
}

// Close removes the menu from the bus.
func (m *Menu) Close() error {
	m.unexport()
	return nil
}

type menuLayout struct {
	ID         int32
	Properties map[string]any
	Children   []any
}

type menuProps struct {
	ID         int32
	Properties map[string]any
}

type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

type menuUpdate struct {
	ID         int32
	NeedUpdate bool
}

func rootProps(visible bool) map[string]any {
	return map[string]any{
		"children-display": "submenu",
		"visible":          visible,
	}
}

func entryProps(e Entry) map[string]any {
	return map[string]any{
		"label":   e.Label,
		"enabled": !e.Disabled,
		"visible": true,
	}
}

// buildLayout renders the subtree rooted at parent. A negative depth means
// unlimited.
func buildLayout(entries []Entry, visible bool, parent, depth int32) (menuLayout, error) {
	if parent != 0 {
		if parent < 0 || int(parent) > len(entries) {
			return menuLayout{}, fmt.Errorf("menu item with ID %d not found", parent)
		}
		return menuLayout{ID: parent, Properties: entryProps(entries[parent-1]), Children: []any{}}, nil
	}

	layout := menuLayout{ID: 0, Properties: rootProps(visible), Children: []any{}}
	if depth == 0 {
		return layout, nil
	}
	for i, e := range entries {
		layout.Children = append(layout.Children, menuLayout{
			ID:         int32(i + 1),
			Properties: entryProps(e),
			Children:   []any{},
		})
	}
	return layout, nil
}

type dbusmenu Menu

func (menu *dbusmenu) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, menuLayout, *dbus.Error) {
	logger().Debug("menu method", "name", "GetLayout", "parentID", parentID, "depth", recursionDepth)

	menu.mu.RLock()
	defer menu.mu.RUnlock()

	layout, err := buildLayout(menu.entries, menu.visible, parentID, recursionDepth)
	if err != nil {
		return 0, menuLayout{}, dbus.MakeFailedError(err)
	}
	return menu.revision, layout, nil
}

func (menu *dbusmenu) GetGroupProperties(ids []int32, propertyNames []string) ([]menuProps, *dbus.Error) {
	menu.mu.RLock()
	defer menu.mu.RUnlock()

	if len(ids) == 0 {
		ids = make([]int32, 0, len(menu.entries)+1)
		for i := 0; i <= len(menu.entries); i++ {
			ids = append(ids, int32(i))
		}
	}

	r := make([]menuProps, 0, len(ids))
	for _, id := range ids {
		switch {
		case id == 0:
			r = append(r, menuProps{ID: 0, Properties: rootProps(menu.visible)})
		case id > 0 && int(id) <= len(menu.entries):
			r = append(r, menuProps{ID: id, Properties: entryProps(menu.entries[id-1])})
		}
	}
	return r, nil
}

func (menu *dbusmenu) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	menu.mu.RLock()
	defer menu.mu.RUnlock()

	var props map[string]any
	switch {
	case id == 0:
		props = rootProps(menu.visible)
	case id > 0 && int(id) <= len(menu.entries):
		props = entryProps(menu.entries[id-1])
	default:
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("menu item with ID %d not found", id))
	}

	v, ok := props[name]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("property %q not found", name))
	}
	return dbus.MakeVariant(v), nil
}

func (menu *dbusmenu) event(id int32, eventID string) error {
	if eventID != "clicked" || id == 0 {
		return nil
	}

	menu.mu.RLock()
	if id < 0 || int(id) > len(menu.entries) {
		menu.mu.RUnlock()
		return fmt.Errorf("menu item with ID %d not found", id)
	}
	e := menu.entries[id-1]
	menu.mu.RUnlock()

	if e.Disabled || e.OnClick == nil {
		return nil
	}
	e.OnClick()
	return nil
}

func (menu *dbusmenu) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	logger().Debug("menu method", "name", "Event", "id", id, "eventID", eventID)

	if err := menu.event(id, eventID); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (menu *dbusmenu) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	var (
		ids  []int32
		errs []error
	)
	for _, ev := range events {
		if err := menu.event(ev.ID, ev.EventID); err != nil {
			ids = append(ids, ev.ID)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return ids, dbus.MakeFailedError(err)
	}
	return ids, nil
}

func (menu *dbusmenu) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

func (menu *dbusmenu) AboutToShowGroup(ids []int32) ([]menuUpdate, []int32, *dbus.Error) {
	return nil, nil, nil
}
