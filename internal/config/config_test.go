package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDecode_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("backend.base_url", "http://frappe.local:8000/")

	cfg, err := decode(v)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Backend.BaseURL != "http://frappe.local:8000" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Session.RememberMaxAge() != 30*24*60*60 {
		t.Fatalf("expected 30 day max-age, got %d", cfg.Session.RememberMaxAge())
	}
	if cfg.Search.Debounce().Milliseconds() != 300 {
		t.Fatalf("expected 300ms debounce, got %v", cfg.Search.Debounce())
	}
	if cfg.Session.IdleTTL().Hours() != 2 {
		t.Fatalf("expected 2h idle ttl, got %v", cfg.Session.IdleTTL())
	}
	if cfg.KV.Driver != "memory" {
		t.Fatalf("expected memory kv driver, got %s", cfg.KV.Driver)
	}
}

func TestDecode_RequiresBackend(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	if _, err := decode(v); err == nil {
		t.Fatal("expected error when backend.base_url is empty")
	}
}
