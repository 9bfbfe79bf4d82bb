package version

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.1.0", "v0.1.0"},
		{"v1.2", "v1.2.0"},
		{"1.0.0-rc.1", "v1.0.0-rc.1"},
		{"not-a-version", "not-a-version"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetCurrentVersion(t *testing.T) {
	if got := GetCurrentVersion("prod"); got != Version {
		t.Errorf("GetCurrentVersion(prod) = %q, want %q", got, Version)
	}
	if got := GetCurrentVersion("dev"); got != DevVersion {
		t.Errorf("GetCurrentVersion(dev) = %q, want %q", got, DevVersion)
	}
}
