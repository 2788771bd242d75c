package bus

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Session is a connection to the desktop session bus.
type Session struct {
	conn *dbus.Conn
}

// Dial connects to the session bus.
func Dial() (*Session, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Session{conn: conn}, nil
}

// NewSession wraps an existing connection.
func NewSession(conn *dbus.Conn) *Session {
	return &Session{conn: conn}
}

// Conn returns the underlying connection, used to export objects.
func (s *Session) Conn() *dbus.Conn {
	return s.conn
}

// NameHasOwner reports whether name is currently owned on the bus.
func (s *Session) NameHasOwner(name string) (bool, error) {
	var owned bool
	err := s.conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned)
	if err != nil {
		return false, fmt.Errorf("name has owner %s: %w", name, err)
	}
	return owned, nil
}

// Call invokes method on svc and waits for the reply. The reply body is
// discarded.
func (s *Session) Call(ctx context.Context, svc Service, method string, args ...any) error {
	call := s.conn.Object(svc.Name, svc.Path).CallWithContext(ctx, svc.Member(method), 0, args...)
	if call.Err != nil {
		return fmt.Errorf("call %s: %w", svc.Member(method), call.Err)
	}
	return nil
}

// Property reads a property of svc's interface.
func (s *Session) Property(ctx context.Context, svc Service, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := s.conn.Object(svc.Name, svc.Path).CallWithContext(ctx, propertiesGet, 0, svc.Interface, name).Store(&v)
	if err != nil {
		return dbus.Variant{}, fmt.Errorf("get property %s.%s: %w", svc.Interface, name, err)
	}
	return v, nil
}

// Done is closed once the connection is lost or closed.
func (s *Session) Done() <-chan struct{} {
	return s.conn.Context().Done()
}

func (s *Session) Close() error {
	return s.conn.Close()
}
