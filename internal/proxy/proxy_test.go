package proxy

import (
	"testing"

	"github.com/bnema/shellexport/internal/x11"
)

func TestContextMenuRunsCallback(t *testing.T) {
	called := 0
	p := New(nil, &x11.Window{}, func() { called++ })

	p.ContextMenu(10, 10)
	p.Scroll(1, "vertical")
	if called != 1 {
		t.Fatalf("menu callback ran %d times, want 1", called)
	}
}

func TestActivateDestroyedWindowIsNoop(t *testing.T) {
	// An unbound window has no XID, so no request reaches the display.
	p := New(nil, &x11.Window{}, nil)
	p.Activate(0, 0)
	p.SecondaryActivate(0, 0)
	p.ContextMenu(0, 0)
}
