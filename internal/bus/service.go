package bus

import "github.com/godbus/dbus/v5"

// Service names a remote object by its well-known bus name, object path and
// interface.
type Service struct {
	Name      string
	Path      dbus.ObjectPath
	Interface string
}

// Member returns the fully qualified name of a method or signal on the
// service interface.
func (s Service) Member(name string) string {
	return s.Interface + "." + name
}

var (
	// MenuRegistrar is the Unity global menu registrar.
	MenuRegistrar = Service{
		Name:      "com.canonical.AppMenu.Registrar",
		Path:      "/com/canonical/AppMenu/Registrar",
		Interface: "com.canonical.AppMenu.Registrar",
	}

	// StatusNotifierWatcher tracks StatusNotifierItems and hosts.
	StatusNotifierWatcher = Service{
		Name:      "org.kde.StatusNotifierWatcher",
		Path:      "/StatusNotifierWatcher",
		Interface: "org.kde.StatusNotifierWatcher",
	}
)

const propertiesGet = "org.freedesktop.DBus.Properties.Get"
