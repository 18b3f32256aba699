package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"despesas/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "postgres",
		DatabaseURL:  "postgres://localhost/despesas",
		SQLiteDBPath: "x.db",
		DemoDataFile: "demo.json",
	})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://localhost/despesas" || cfg.DemoDataFile != "demo.json" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, ""},
		{"sqlite without path", Config{Type: SQLiteBackend}, "SQLite database path"},
		{"postgres without url", Config{Type: PostgresBackend}, "database URL"},
		{"invalid", Config{Type: "sheets"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackendType(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if MemoryBackend.Shared() || !SQLiteBackend.Shared() || !PostgresBackend.Shared() {
		t.Error("only SQL backends are shared")
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DemoDataFile: filepath.Join(t.TempDir(), "none.json")})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if mem.Cleanup != nil {
		t.Error("memory backend needs no cleanup")
	}
	profiles, err := mem.Backend.ListProfiles(ctx)
	if err != nil || len(profiles) != 2 {
		t.Errorf("memory backend profiles = %v, %v", profiles, err)
	}

	sqlite, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "test.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer sqlite.Cleanup()
	if err := sqlite.Backend.Ping(ctx); err != nil {
		t.Errorf("sqlite ping: %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: PostgresBackend}); err == nil {
		t.Error("postgres without url should fail")
	}
}
