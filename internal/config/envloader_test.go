package config

import (
	"testing"
)

func TestMergeFromEnv(t *testing.T) {
	t.Setenv("DWARFCAT_FILTER", "/usr/include")
	t.Setenv("DWARFCAT_OUTPUT", "entities.json")
	t.Setenv("DWARFCAT_DEMANGLE", "true")
	t.Setenv("DWARFCAT_LOG_LEVEL", "warn")

	cfg := Default()
	if err := MergeFromEnv(cfg); err != nil {
		t.Fatalf("MergeFromEnv() failed: %v", err)
	}

	if cfg.Filter != "/usr/include" {
		t.Errorf("Filter = %q, want %q", cfg.Filter, "/usr/include")
	}
	if cfg.Output != "entities.json" {
		t.Errorf("Output = %q, want %q", cfg.Output, "entities.json")
	}
	if !cfg.Demangle {
		t.Error("Demangle = false, want true")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestMergeFromEnv_UnsetKeepsValues(t *testing.T) {
	cfg := Default()
	cfg.Filter = "/src"

	if err := MergeFromEnv(cfg); err != nil {
		t.Fatalf("MergeFromEnv() failed: %v", err)
	}

	if cfg.Filter != "/src" {
		t.Errorf("Filter = %q, want %q", cfg.Filter, "/src")
	}
	if cfg.Output != "out.json" {
		t.Errorf("Output = %q, want %q", cfg.Output, "out.json")
	}
}

func TestMergeFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("DWARFCAT_DEMANGLE", "yes-please")

	cfg := Default()
	if err := MergeFromEnv(cfg); err == nil {
		t.Fatal("MergeFromEnv() expected error for invalid boolean")
	}
}

func TestMergeFromEnv_NilPointer(t *testing.T) {
	var cfg *Config
	if err := MergeFromEnv(cfg); err != nil {
		t.Fatalf("MergeFromEnv(nil) failed: %v", err)
	}
}
