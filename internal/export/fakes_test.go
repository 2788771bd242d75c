package export

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/bnema/shellexport/internal/bus"
	"github.com/bnema/shellexport/internal/dbusmenu"
	"github.com/bnema/shellexport/internal/sni"
)

type busCall struct {
	member string
	args   []any
}

func (c busCall) String() string {
	return fmt.Sprintf("%s%v", c.member, c.args)
}

type fakeBus struct {
	mu          sync.Mutex
	owners      map[string]bool
	ownerErr    error
	ownerChecks int
	props       map[string]dbus.Variant
	propErr     error
	callErr     map[string]error
	calls       []busCall
	timeouts    map[string]time.Duration
	done        chan struct{}
	closed      bool
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		owners:   make(map[string]bool),
		props:    make(map[string]dbus.Variant),
		callErr:  make(map[string]error),
		timeouts: make(map[string]time.Duration),
		done:     make(chan struct{}),
	}
}

func (b *fakeBus) NameHasOwner(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ownerChecks++
	if b.ownerErr != nil {
		return false, b.ownerErr
	}
	return b.owners[name], nil
}

func (b *fakeBus) Call(ctx context.Context, svc bus.Service, method string, args ...any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, busCall{member: svc.Member(method), args: args})
	b.recordTimeout(ctx, method)
	return b.callErr[method]
}

func (b *fakeBus) Property(ctx context.Context, svc bus.Service, name string) (dbus.Variant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordTimeout(ctx, name)
	if b.propErr != nil {
		return dbus.Variant{}, b.propErr
	}
	v, ok := b.props[name]
	if !ok {
		return dbus.Variant{}, errors.New("no such property")
	}
	return v, nil
}

// recordTimeout notes how long the caller allowed for name. Calls without a
// deadline record a negative duration.
func (b *fakeBus) recordTimeout(ctx context.Context, name string) {
	deadline, ok := ctx.Deadline()
	if !ok {
		b.timeouts[name] = -1
		return
	}
	b.timeouts[name] = time.Until(deadline)
}

func (b *fakeBus) timeout(name string) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.timeouts[name]
	return d, ok
}

func (b *fakeBus) Done() <-chan struct{} { return b.done }
func (b *fakeBus) Conn() *dbus.Conn      { return nil }

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	return nil
}

// disconnect simulates the bus daemon dropping the connection.
func (b *fakeBus) disconnect() {
	b.Close()
}

func (b *fakeBus) recorded() []busCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]busCall(nil), b.calls...)
}

func (b *fakeBus) checks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ownerChecks
}

type fakeWindow struct {
	mu        sync.Mutex
	topLevel  bool
	id        uint32
	valid     bool
	listeners []func()
}

func newFakeWindow(id uint32) *fakeWindow {
	return &fakeWindow{topLevel: true, id: id, valid: true}
}

func (w *fakeWindow) IsTopLevel() bool { return w.topLevel }

func (w *fakeWindow) EffectiveWindowID() (uint32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.id, w.valid
}

func (w *fakeWindow) OnWindowIDChange(fn func()) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *fakeWindow) setID(id uint32, valid bool) {
	w.mu.Lock()
	w.id, w.valid = id, valid
	listeners := append([]func(){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

type blockingWindow struct {
	*fakeWindow
	onBlock func(bool)
}

func (w *blockingWindow) OnBlockChange(fn func(blocked bool)) {
	w.onBlock = fn
}

type fakePublisher struct {
	path     dbus.ObjectPath
	visible  []bool
	entries  []dbusmenu.Entry
	closed   bool
	entryErr error
}

func (p *fakePublisher) SetEntries(entries []dbusmenu.Entry) error {
	p.entries = append([]dbusmenu.Entry(nil), entries...)
	return p.entryErr
}

func (p *fakePublisher) SetVisible(visible bool) error {
	p.visible = append(p.visible, visible)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func (p *fakePublisher) lastVisible() bool {
	if len(p.visible) == 0 {
		return true
	}
	return p.visible[len(p.visible)-1]
}

type publisherRecorder struct {
	published []*fakePublisher
	err       error
}

func (r *publisherRecorder) publish(b Bus, path dbus.ObjectPath) (MenuPublisher, error) {
	if r.err != nil {
		return nil, r.err
	}
	p := &fakePublisher{path: path}
	r.published = append(r.published, p)
	return p, nil
}

type fakeTray struct {
	name   string
	path   dbus.ObjectPath
	opts   TrayOptions
	appID  string
	closed bool
}

func newFakeTray(appID string, opts TrayOptions) *fakeTray {
	name, path := sni.NextAddress()
	return &fakeTray{name: name, path: path, appID: appID, opts: opts}
}

func (t *fakeTray) Name() string          { return t.name }
func (t *fakeTray) Path() dbus.ObjectPath { return t.path }
func (t *fakeTray) SetTitle(string)       {}
func (t *fakeTray) SetIcon([]sni.Pixmap)  {}
func (t *fakeTray) Close() error          { t.closed = true; return nil }
