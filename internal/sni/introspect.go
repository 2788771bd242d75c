package sni

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

func xyArgs() []introspect.Arg {
	return []introspect.Arg{
		{Name: "x", Type: "i", Direction: "in"},
		{Name: "y", Type: "i", Direction: "in"},
	}
}

func readOnly(name, sig string) introspect.Property {
	return introspect.Property{Name: name, Type: sig, Access: "read"}
}

func itemNode(path dbus.ObjectPath) *introspect.Node {
	return &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name: Interface,
				Methods: []introspect.Method{
					{Name: "Activate", Args: xyArgs()},
					{Name: "SecondaryActivate", Args: xyArgs()},
					{Name: "ContextMenu", Args: xyArgs()},
					{Name: "Scroll", Args: []introspect.Arg{
						{Name: "delta", Type: "i", Direction: "in"},
						{Name: "orientation", Type: "s", Direction: "in"},
					}},
				},
				Properties: []introspect.Property{
					readOnly("Category", "s"),
					readOnly("Id", "s"),
					readOnly("Title", "s"),
					readOnly("Status", "s"),
					readOnly("WindowId", "u"),
					readOnly("IconName", "s"),
					readOnly("IconPixmap", "a(iiay)"),
					readOnly("ItemIsMenu", "b"),
				},
				Signals: []introspect.Signal{
					{Name: "NewTitle"},
					{Name: "NewIcon"},
				},
			},
		},
	}
}

func exportIntrospection(conn *dbus.Conn, path dbus.ObjectPath) error {
	return conn.Export(introspect.NewIntrospectable(itemNode(path)), path, "org.freedesktop.DBus.Introspectable")
}
