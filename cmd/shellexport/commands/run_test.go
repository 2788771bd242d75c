package commands

import (
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/bnema/shellexport/internal/sni"
)

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{in: "0x3a00007", want: 0x3a00007},
		{in: "4194311", want: 4194311},
		{in: "0", wantErr: true},
		{in: "window", wantErr: true},
		{in: "0x1ffffffff", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseWindowID(%q) = %d, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseWindowID(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseWindowID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

type stubWindow struct {
	id       uint32
	valid    bool
	title    string
	icon     []uint32
	iconSize int
	onID     []func()
	onTitle  []func()
	onIcon   []func()
}

func (w *stubWindow) EffectiveWindowID() (uint32, bool) { return w.id, w.valid }
func (w *stubWindow) OnWindowIDChange(fn func())        { w.onID = append(w.onID, fn) }
func (w *stubWindow) Title() string                     { return w.title }
func (w *stubWindow) OnTitleChange(fn func())           { w.onTitle = append(w.onTitle, fn) }
func (w *stubWindow) OnIconChange(fn func())            { w.onIcon = append(w.onIcon, fn) }

func (w *stubWindow) Icon() (int, int, []uint32, error) {
	return w.iconSize, w.iconSize, w.icon, nil
}

func fire(listeners []func()) {
	for _, fn := range listeners {
		fn()
	}
}

type stubIcon struct {
	titles []string
	icons  [][]sni.Pixmap
}

func (i *stubIcon) Name() string                 { return "org.kde.StatusNotifierItem-1-1" }
func (i *stubIcon) Path() dbus.ObjectPath        { return "/StatusNotifierItem/1" }
func (i *stubIcon) SetTitle(title string)        { i.titles = append(i.titles, title) }
func (i *stubIcon) SetIcon(pixmaps []sni.Pixmap) { i.icons = append(i.icons, pixmaps) }
func (i *stubIcon) Close() error                 { return nil }

func TestStopOnDestroy(t *testing.T) {
	w := &stubWindow{id: 7, valid: true}
	stopped := 0
	stopOnDestroy(w, func() { stopped++ })

	w.id = 8
	fire(w.onID)
	if stopped != 0 {
		t.Fatal("stopped on a window id change")
	}

	w.id, w.valid = 0, false
	fire(w.onID)
	if stopped != 1 {
		t.Fatalf("stopped %d times, want 1", stopped)
	}
}

func TestFollowWindow(t *testing.T) {
	w := &stubWindow{id: 7, valid: true, title: "Library"}
	icon := &stubIcon{}
	followWindow(w, icon, true, true)

	w.title = "Library - 2 books"
	fire(w.onTitle)
	if len(icon.titles) != 1 || icon.titles[0] != "Library - 2 books" {
		t.Fatalf("titles = %v", icon.titles)
	}

	fire(w.onIcon)
	if len(icon.icons) != 0 {
		t.Fatal("empty window icon pushed to tray")
	}
	w.icon, w.iconSize = []uint32{0xff102030}, 1
	fire(w.onIcon)
	if len(icon.icons) != 1 || icon.icons[0][0].Width != 1 {
		t.Fatalf("icons = %v", icon.icons)
	}
}

func TestFollowWindowKeepsExplicitValues(t *testing.T) {
	w := &stubWindow{id: 7, valid: true}
	followWindow(w, &stubIcon{}, false, false)
	if len(w.onTitle) != 0 || len(w.onIcon) != 0 {
		t.Fatal("listeners installed for explicit title and icon")
	}
}
