package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	t.Setenv("AVATAR_ROOT_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port=%d, want 8080", cfg.Port)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr=%q, want :8080", cfg.HTTPAddr)
	}
	if !cfg.ServerEnabled {
		t.Fatal("ServerEnabled=false, want true by default")
	}
	if len(cfg.Mappings.Locomotion) == 0 || len(cfg.Mappings.Expression) == 0 || len(cfg.Mappings.Gaze) == 0 {
		t.Fatalf("embedded mapping tables missing: %+v", cfg.Mappings)
	}

	sentinel, ok := cfg.Mappings.Gaze["user"]
	if !ok {
		t.Fatal("gaze table missing the user entry")
	}
	if sentinel != "" {
		t.Fatalf("gaze user entry=%q, want empty sentinel", sentinel)
	}
}

func TestLoadRootConfOverridesDefaults(t *testing.T) {
	rootDir := t.TempDir()
	t.Setenv("AVATAR_ROOT_DIR", rootDir)

	conf := "port: 9000\nserver_enabled: false\n"
	if err := os.WriteFile(filepath.Join(rootDir, "conf.yaml"), []byte(conf), 0o644); err != nil {
		t.Fatalf("write conf.yaml: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("Port=%d, want 9000 from root conf", cfg.Port)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("HTTPAddr=%q, want :9000", cfg.HTTPAddr)
	}
	if cfg.ServerEnabled {
		t.Fatal("ServerEnabled=true, want false from root conf")
	}
	// Sections absent from the root conf keep the embedded defaults.
	if len(cfg.Mappings.Locomotion) == 0 {
		t.Fatal("locomotion table lost after merge")
	}
}

func TestLoadMappingFileOverridesTables(t *testing.T) {
	rootDir := t.TempDir()
	t.Setenv("AVATAR_ROOT_DIR", rootDir)

	mappings := "locomotion:\n  idle: \"Custom/idle\"\n  spin: \"Custom/spin\"\n"
	mappingPath := filepath.Join(rootDir, "mappings.yaml")
	if err := os.WriteFile(mappingPath, []byte(mappings), 0o644); err != nil {
		t.Fatalf("write mappings.yaml: %v", err)
	}
	conf := "mappings:\n  file: mappings.yaml\n"
	if err := os.WriteFile(filepath.Join(rootDir, "conf.yaml"), []byte(conf), 0o644); err != nil {
		t.Fatalf("write conf.yaml: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Mappings.Locomotion["idle"]; got != "Custom/idle" {
		t.Fatalf("idle=%q, want override Custom/idle", got)
	}
	if got := cfg.Mappings.Locomotion["spin"]; got != "Custom/spin" {
		t.Fatalf("spin=%q, want new entry Custom/spin", got)
	}
	if got := cfg.Mappings.Locomotion["wave"]; got != "Gestures/wave" {
		t.Fatalf("wave=%q, want embedded default kept", got)
	}
}

func TestAnimationDurations(t *testing.T) {
	anim := AnimationConfig{
		BlinkIntervalSec: 12,
		BlinkHoldMs:      150,
		Catalog:          map[string]float64{"Gestures/wave": 2.4},
	}

	if got := anim.BlinkInterval().Seconds(); got != 12 {
		t.Fatalf("BlinkInterval=%vs, want 12s", got)
	}
	if got := anim.BlinkHold().Milliseconds(); got != 150 {
		t.Fatalf("BlinkHold=%vms, want 150ms", got)
	}
	clips := anim.CatalogDurations()
	if got := clips["Gestures/wave"].Milliseconds(); got != 2400 {
		t.Fatalf("wave duration=%vms, want 2400ms", got)
	}

	var zero AnimationConfig
	if zero.BlinkInterval() != 0 || zero.BlinkHold() != 0 {
		t.Fatal("zero config should disable blink timings")
	}
}
