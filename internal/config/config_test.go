package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	graferrors "github.com/FocuswithJustin/grafstandoff/core/errors"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SpaceName != "xces" {
		t.Errorf("SpaceName = %q", cfg.SpaceName)
	}
	if cfg.SpaceType != "http://www.xces.org/schema/2003" {
		t.Errorf("SpaceType = %q", cfg.SpaceType)
	}
	if cfg.DefaultSpaceType != "http://www.anc.org/ns/masc/1.0" {
		t.Errorf("DefaultSpaceType = %q", cfg.DefaultSpaceType)
	}
	if cfg.StandoffSet != "Standoff markups" || cfg.DefaultSpaceName != "Standoff Markups" {
		t.Errorf("set names = %q, %q", cfg.StandoffSet, cfg.DefaultSpaceName)
	}
	if cfg.FailFast {
		t.Error("FailFast should default to false")
	}
	if cfg.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers = %d", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(lookupFrom(map[string]string{
		EnvSpaceName:   " penn ",
		EnvStandoffSet: "Original markups",
		EnvFailFast:    "true",
		EnvWorkers:     "3",
		EnvLogFormat:   "json",
		EnvSpaceType:   "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.SpaceName != "penn" || cfg.StandoffSet != "Original markups" {
		t.Errorf("strings = %q, %q", cfg.SpaceName, cfg.StandoffSet)
	}
	if !cfg.FailFast || cfg.Workers != 3 || cfg.LogFormat != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SpaceType != "http://www.xces.org/schema/2003" {
		t.Errorf("empty variable should keep default, got %q", cfg.SpaceType)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad bool", map[string]string{EnvFailFast: "maybe"}},
		{"bad int", map[string]string{EnvWorkers: "many"}},
		{"zero workers", map[string]string{EnvWorkers: "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(lookupFrom(tt.env))
			if !errors.Is(err, graferrors.ErrInvalidInput) {
				t.Errorf("ApplyEnv() error = %v, want validation error", err)
			}
		})
	}
}

func TestFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graf.env")
	if err := os.WriteFile(path, []byte("GRAF_STANDOFF_SET=From file\nGRAF_WORKERS=2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvStandoffSet, "From process")
	os.Unsetenv(EnvWorkers)
	t.Cleanup(func() { os.Unsetenv(EnvWorkers) })

	cfg, err := FromEnv(path)
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	// godotenv does not override variables already set.
	if cfg.StandoffSet != "From process" {
		t.Errorf("StandoffSet = %q", cfg.StandoffSet)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2 from file", cfg.Workers)
	}
}

func TestFromEnvMissingFile(t *testing.T) {
	if _, err := FromEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("FromEnv() with missing file = %v", err)
	}
}

func TestDerivedOptions(t *testing.T) {
	cfg := Default()
	cfg.FailFast = true
	if !cfg.Policy().FailFast {
		t.Error("Policy().FailFast = false")
	}
	opts := cfg.BuildOptions("tok")
	if opts.SpaceName != "xces" || len(opts.Types) != 1 || opts.Types[0] != "tok" {
		t.Errorf("BuildOptions() = %+v", opts)
	}
}
