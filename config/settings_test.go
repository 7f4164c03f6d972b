package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Server.Port != 3000 {
		t.Errorf("expected default port 3000, got %d", s.Server.Port)
	}
	if s.Source.BaseURL == "" {
		t.Error("expected default source base URL")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected settings file to be created: %v", err)
	}
}

func TestLoadBackfillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"server":{"port":8080}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Server.Port != 8080 {
		t.Errorf("expected configured port to survive, got %d", s.Server.Port)
	}
	if s.Server.Host == "" || s.Source.BaseURL == "" || len(s.Source.UserAgents) == 0 {
		t.Errorf("expected missing fields to backfill: %+v", s)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	m := NewManager(path)

	s := DefaultSettings()
	s.Server.Port = 9090
	s.Providers.MDLAPIKey = "real-key"
	if err := m.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", loaded.Server.Port)
	}
	if loaded.Providers.MDLAPIKey != "real-key" {
		t.Errorf("expected saved key to round-trip, got %q", loaded.Providers.MDLAPIKey)
	}
}

func TestMDLEnabled(t *testing.T) {
	p := DefaultSettings().Providers
	if p.MDLEnabled() {
		t.Error("placeholder key must leave the provider disabled")
	}
	p.MDLAPIKey = ""
	if p.MDLEnabled() {
		t.Error("empty key must leave the provider disabled")
	}
	p.MDLAPIKey = "abc123"
	if !p.MDLEnabled() {
		t.Error("real key must enable the provider")
	}
}
