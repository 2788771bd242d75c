package export

import (
	"log/slog"
	"time"
)

type Option func(*Factory)

// WithAppID sets the application id reported to status notifier hosts.
// An empty id leaves the default in place.
func WithAppID(appID string) Option {
	return func(f *Factory) {
		if appID != "" {
			f.appID = appID
		}
	}
}

func WithDialer(dial Dialer) Option {
	return func(f *Factory) { f.dial = dial }
}

func WithMenuPublisher(fn PublisherFunc) Option {
	return func(f *Factory) { f.newPublisher = fn }
}

func WithTrayItem(fn TrayFunc) Option {
	return func(f *Factory) { f.newTray = fn }
}

// WithReconnect sets how often and how far apart the factory retries the
// session bus after losing it. Zero attempts retries until the factory
// is closed.
func WithReconnect(attempts uint, delay time.Duration) Option {
	return func(f *Factory) {
		f.reconnectAttempts = attempts
		f.reconnectDelay = delay
	}
}

// WithNativeMenuBarDisabled makes CreateMenuBar always return an in-window
// menu bar.
func WithNativeMenuBarDisabled(disabled bool) Option {
	return func(f *Factory) { f.nativeMenuBarDisabled = disabled }
}

// WithBusSupport overrides the platform check that turns off the session
// bus on Windows and macOS.
func WithBusSupport(supported bool) Option {
	return func(f *Factory) { f.supported = supported }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) { f.log = l }
}
