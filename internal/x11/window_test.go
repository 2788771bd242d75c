package x11

import "testing"

func TestWindowRebindNotifies(t *testing.T) {
	w := &Window{}
	changes := 0
	w.OnWindowIDChange(func() { changes++ })

	if err := w.Rebind(0x400001); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if err := w.Rebind(0x400001); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if changes != 1 {
		t.Fatalf("changes = %d, want 1", changes)
	}

	if err := w.Rebind(0x500002); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	id, ok := w.EffectiveWindowID()
	if !ok || id != 0x500002 {
		t.Fatalf("id = 0x%x (%v), want 0x500002", id, ok)
	}
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
}

func TestWindowDestroyed(t *testing.T) {
	w := &Window{}
	changes := 0
	w.OnWindowIDChange(func() { changes++ })
	w.Rebind(7)

	w.destroyed(8)
	if _, ok := w.EffectiveWindowID(); !ok {
		t.Fatal("destroying another window invalidated this one")
	}

	w.destroyed(7)
	if _, ok := w.EffectiveWindowID(); ok {
		t.Fatal("window still valid after destroy")
	}
	if changes != 2 {
		t.Fatalf("changes = %d, want 2", changes)
	}
}

func TestWindowWithoutDisplay(t *testing.T) {
	w := &Window{}
	if w.IsTopLevel() {
		t.Fatal("unbound window reported as top level")
	}
	if got := w.Title(); got != "" {
		t.Fatalf("title = %q, want empty", got)
	}
}

func TestWindowPropertyChanged(t *testing.T) {
	atoms := Atoms{WMName: 39, NetWMName: 300, NetWMIcon: 301, UTF8String: 302}
	w := &Window{}
	titles, icons := 0, 0
	w.OnTitleChange(func() { titles++ })
	w.OnIconChange(func() { icons++ })

	w.propertyChanged(atoms, atoms.NetWMName)
	w.propertyChanged(atoms, atoms.WMName)
	w.propertyChanged(atoms, atoms.NetWMIcon)
	w.propertyChanged(atoms, atoms.UTF8String)

	if titles != 2 || icons != 1 {
		t.Fatalf("titles = %d, icons = %d, want 2 and 1", titles, icons)
	}
}

func TestLargestIcon(t *testing.T) {
	tests := []struct {
		name   string
		values []uint32
		width  int
		height int
		first  uint32
	}{
		{name: "empty"},
		{name: "single", values: []uint32{1, 1, 0xff000001}, width: 1, height: 1, first: 0xff000001},
		{name: "picks largest", values: []uint32{1, 1, 0xff000001, 2, 1, 0xff000002, 0xff000003}, width: 2, height: 1, first: 0xff000002},
		{name: "truncated", values: []uint32{1, 1, 0xff000001, 4, 4, 0}, width: 1, height: 1, first: 0xff000001},
		{name: "oversized", values: []uint32{1 << 20, 1 << 20, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, argb := largestIcon(tt.values)
			if w != tt.width || h != tt.height {
				t.Fatalf("size = %dx%d, want %dx%d", w, h, tt.width, tt.height)
			}
			if len(argb) != w*h {
				t.Fatalf("got %d pixels for %dx%d", len(argb), w, h)
			}
			if len(argb) > 0 && argb[0] != tt.first {
				t.Fatalf("first pixel = %#x, want %#x", argb[0], tt.first)
			}
		})
	}
}

func TestWindowIconWithoutDisplay(t *testing.T) {
	if _, _, _, err := (&Window{}).Icon(); err == nil {
		t.Fatal("expected error for unbound window")
	}
}
