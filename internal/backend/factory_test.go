package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"saldo/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	got, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil || got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" {
		t.Fatalf("unexpected config %+v, %v", got, err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"memory", Config{Type: MemoryBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, true},
		{"postgres without url", Config{Type: PostgresBackend}, false},
		{"unknown", Config{Type: "csv"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok != (err == nil) {
				t.Fatalf("ok=%v, err=%v", tc.ok, err)
			}
		})
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[1] != "postgres" {
		t.Fatalf("unexpected types %v", got)
	}
}

func TestCreateMemoryBackendWithSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.txt")
	content := "# opening month\n2024-03-01;2500;fixed_income;Salary\n2024-03-02;-40;outflow;Groceries\n"
	if err := os.WriteFile(seed, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedFile: seed})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	txs, err := res.Store.List(ctx)
	if err != nil || len(txs) != 2 {
		t.Fatalf("expected 2 seeded transactions, got %d (%v)", len(txs), err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "saldo.db")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer res.Cleanup()
	if err := res.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	bal, err := res.Store.GetBalance(ctx)
	if err != nil || !bal.IsZero() {
		t.Fatalf("fresh database must have zero balance: %v %v", bal, err)
	}
}
