package bus

import "testing"

func TestServiceMember(t *testing.T) {
	tests := []struct {
		svc    Service
		method string
		want   string
	}{
		{MenuRegistrar, "RegisterWindow", "com.canonical.AppMenu.Registrar.RegisterWindow"},
		{StatusNotifierWatcher, "RegisterStatusNotifierItem", "org.kde.StatusNotifierWatcher.RegisterStatusNotifierItem"},
	}
	for _, tt := range tests {
		if got := tt.svc.Member(tt.method); got != tt.want {
			t.Errorf("Member(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}
}
