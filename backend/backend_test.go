package backend

import (
	"context"
	"strings"
	"testing"

	"github.com/b0bbywan/go-mpris-hub/config"
)

// TestBackendDisabled verifies that sub-backends are nil when disabled in config
func TestBackendDisabled(t *testing.T) {
	cfg := &config.Config{
		Api:      &config.ApiConfig{Enabled: true, Port: 8080},
		MPRIS:    &config.MPRISConfig{Enabled: false},
		Zeroconf: &config.ZeroConfig{Enabled: false},
	}

	backend, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if backend == nil {
		t.Fatal("New() should return a non-nil Backend struct")
	}

	if backend.MPRIS != nil {
		t.Error("MPRIS should be nil when disabled")
	}
	if backend.Zeroconf != nil {
		t.Error("Zeroconf should be nil when disabled")
	}
	if backend.Broadcaster == nil {
		t.Error("Broadcaster should always be wired")
	}

	// Start and Close with everything disabled must be harmless.
	if err := backend.Start(); err != nil {
		t.Errorf("Start() unexpected error: %v", err)
	}
	backend.Close()
}

func TestParseKeyValue(t *testing.T) {
	input := `PRETTY_NAME="Debian GNU/Linux 12 (bookworm)"
NAME="Debian GNU/Linux"
VERSION_ID="12"
garbage line without equals
EMPTY=`

	out, err := parseKeyValue(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseKeyValue: %v", err)
	}

	if got := out["PRETTY_NAME"]; got != "Debian GNU/Linux 12 (bookworm)" {
		t.Errorf("PRETTY_NAME = %q", got)
	}
	if got := out["VERSION_ID"]; got != "12" {
		t.Errorf("VERSION_ID = %q, want 12", got)
	}
	if got := out["EMPTY"]; got != "" {
		t.Errorf("EMPTY = %q, want empty", got)
	}
	if _, ok := out["garbage line without equals"]; ok {
		t.Error("lines without '=' should be skipped")
	}
}

func TestGetServerDeviceInfo(t *testing.T) {
	b := &Backend{}
	info, err := b.GetServerDeviceInfo()
	if err != nil {
		t.Fatalf("GetServerDeviceInfo: %v", err)
	}
	if info.APISW != config.AppName {
		t.Errorf("APISW = %q, want %q", info.APISW, config.AppName)
	}
	if info.APIVersion != config.AppVersion {
		t.Errorf("APIVersion = %q, want %q", info.APIVersion, config.AppVersion)
	}
	if info.Backends.MPRIS {
		t.Error("Backends.MPRIS should be false on an empty backend")
	}
	if info.Hostname == "" {
		t.Error("Hostname should never be empty")
	}
}
