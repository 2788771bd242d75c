package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/bnema/shellexport/internal/bus"
)

const (
	defaultReconnectAttempts = 5
	defaultReconnectDelay    = time.Second

	hostProbeTimeout    = 100 * time.Millisecond
	registerItemTimeout = time.Second

	unknownApplication = "unknown_application"
)

var errNoBus = errors.New("no session bus connection")

type presence int8

const (
	presenceUnknown presence = iota
	presenceAvailable
	presenceUnavailable
)

// Factory connects to the session bus on first use and creates menu bar
// and tray icon adapters.
type Factory struct {
	appID                 string
	dial                  Dialer
	newPublisher          PublisherFunc
	newTray               TrayFunc
	supported             bool
	nativeMenuBarDisabled bool
	reconnectAttempts     uint
	reconnectDelay        time.Duration
	log                   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	bus       Bus
	busFailed bool
	registrar presence
	notifier  presence
}

var (
	defaultOnce    sync.Once
	defaultFactory *Factory
)

// Default returns the process-wide factory. The app id of the first call
// wins.
func Default(appID string) *Factory {
	defaultOnce.Do(func() {
		defaultFactory = New(WithAppID(appID))
	})
	return defaultFactory
}

func New(opts ...Option) *Factory {
	f := &Factory{
		appID:             defaultAppID(),
		dial:              dialSession,
		newPublisher:      publishDBusMenu,
		newTray:           newStatusNotifierItem,
		supported:         runtime.GOOS != "windows" && runtime.GOOS != "darwin",
		reconnectAttempts: defaultReconnectAttempts,
		reconnectDelay:    defaultReconnectDelay,
		log:               slog.With("component", "dbusexport"),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.ctx, f.cancel = context.WithCancel(context.Background())
	return f
}

func defaultAppID() string {
	if id := os.Getenv("SHELLEXPORT_APP_ID"); id != "" {
		return id
	}
	if exe, err := os.Executable(); err == nil {
		if name := filepath.Base(exe); name != "" && name != "." {
			return name
		}
	}
	return unknownApplication
}

func (f *Factory) AppID() string {
	return f.appID
}

// Bus returns the session bus connection, dialing it on first use. It
// returns nil when the bus is unavailable; a failed dial is not retried
// until the previous connection is reported lost.
func (f *Factory) Bus() Bus {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := f.busLocked()
	return b
}

func (f *Factory) busLocked() (Bus, error) {
	if f.bus != nil {
		return f.bus, nil
	}
	if f.busFailed || !f.supported || f.dial == nil {
		return nil, errNoBus
	}

	b, err := f.dial()
	if err != nil {
		f.log.Warn("failed to connect to session bus", "error", err)
		f.busFailed = true
		return nil, err
	}
	f.bus = b
	go f.watch(b)
	return b, nil
}

func (f *Factory) watch(b Bus) {
	select {
	case <-b.Done():
		f.busDisconnected(b)
	case <-f.ctx.Done():
	}
}

// busDisconnected drops the lost connection and tries to reconnect at a
// fixed interval, giving up quietly after the configured attempts.
func (f *Factory) busDisconnected(lost Bus) {
	f.mu.Lock()
	if f.bus != lost {
		f.mu.Unlock()
		return
	}
	f.bus = nil
	f.busFailed = false
	f.mu.Unlock()

	f.log.Info("session bus disconnected, reconnecting")
	// TODO: re-register exported menu bars and tray icons on the new connection.
	err := retry.Do(func() error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if err := f.ctx.Err(); err != nil {
			return retry.Unrecoverable(err)
		}
		if f.bus != nil {
			return nil
		}
		f.busFailed = false
		_, err := f.busLocked()
		return err
	},
		retry.Attempts(f.reconnectAttempts),
		retry.Delay(f.reconnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(f.ctx),
	)
	if err != nil {
		f.log.Debug("giving up on session bus", "error", err)
	}
}

// HasGlobalMenu reports whether a global menu registrar owns its bus name.
// The answer is probed once and cached.
func (f *Factory) HasGlobalMenu() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registrar == presenceUnknown {
		f.registrar = f.detectLocked("window menu registrar", f.detectRegistrar)
	}
	return f.registrar == presenceAvailable
}

// HasStatusNotifier reports whether a StatusNotifierWatcher is running and
// has at least one host registered. The answer is probed once and cached.
func (f *Factory) HasStatusNotifier() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifier == presenceUnknown {
		f.notifier = f.detectLocked("status notifier", f.detectStatusNotifier)
	}
	return f.notifier == presenceAvailable
}

func (f *Factory) detectLocked(what string, detect func(Bus) (bool, error)) presence {
	if !f.supported {
		return presenceUnavailable
	}
	b, err := f.busLocked()
	if err == nil {
		var ok bool
		ok, err = detect(b)
		if err == nil {
			if ok {
				return presenceAvailable
			}
			return presenceUnavailable
		}
	}
	f.log.Warn("failed to detect "+what, "error", err)
	return presenceUnavailable
}

func (f *Factory) detectRegistrar(b Bus) (bool, error) {
	return b.NameHasOwner(bus.MenuRegistrar.Name)
}

func (f *Factory) detectStatusNotifier(b Bus) (bool, error) {
	owned, err := b.NameHasOwner(bus.StatusNotifierWatcher.Name)
	if err != nil || !owned {
		return false, err
	}

	ctx, cancel := context.WithTimeout(f.ctx, hostProbeTimeout)
	defer cancel()
	v, err := b.Property(ctx, bus.StatusNotifierWatcher, "IsStatusNotifierHostRegistered")
	if err != nil {
		return false, err
	}
	registered, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("IsStatusNotifierHostRegistered has signature %s", v.Signature())
	}
	return registered, nil
}

// CreateMenuBar returns a menu bar for w. It is exported to the global menu
// registrar when one is available and the native menu bar is not disabled;
// otherwise it stays inside the window.
func (f *Factory) CreateMenuBar(w Window) (MenuBar, error) {
	if !w.IsTopLevel() {
		return nil, ErrNotTopLevel
	}
	if !f.nativeMenuBarDisabled && f.HasGlobalMenu() {
		if b := f.Bus(); b != nil {
			mb, err := newExportedMenuBar(w, bus.MenuRegistrar, b, f.newPublisher, f.log)
			if err == nil {
				return mb, nil
			}
			f.log.Warn("failed to export menu bar", "error", err)
		}
	}
	return newLocalMenuBar(), nil
}

// CreateTrayIcon creates a status notifier item and registers it with the
// watcher.
func (f *Factory) CreateTrayIcon(opts TrayOptions) (TrayIcon, error) {
	if !f.HasStatusNotifier() {
		return nil, ErrStatusNotifierUnavailable
	}
	b := f.Bus()
	if b == nil {
		return nil, ErrStatusNotifierUnavailable
	}

	item, err := f.newTray(b, f.appID, opts)
	if err != nil {
		return nil, fmt.Errorf("create status notifier item: %w", err)
	}

	// A path-form registration is resolved by the watcher against our unique
	// name, which keeps items on one connection apart.
	ctx, cancel := context.WithTimeout(f.ctx, registerItemTimeout)
	defer cancel()
	if err := b.Call(ctx, bus.StatusNotifierWatcher, "RegisterStatusNotifierItem", string(item.Path())); err != nil {
		if cerr := item.Close(); cerr != nil {
			f.log.Debug("failed to close unregistered item", "error", cerr)
		}
		return nil, fmt.Errorf("register status notifier item: %w", err)
	}
	return item, nil
}

// Close stops reconnection attempts and closes the bus connection.
func (f *Factory) Close() error {
	f.cancel()

	f.mu.Lock()
	b := f.bus
	f.bus = nil
	f.busFailed = true
	f.mu.Unlock()

	if b == nil {
		return nil
	}
	return b.Close()
}
