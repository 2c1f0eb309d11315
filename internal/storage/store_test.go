package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"hedera-defi/internal/config"
)

func TestUnconfiguredStore(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if err := store.UpsertSnapshot(ctx, LiquiditySnapshot{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("UpsertSnapshot err = %v", err)
	}
	if _, err := store.PreviousSnapshot(ctx, time.Now()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("PreviousSnapshot err = %v", err)
	}
	if _, err := store.CountSnapshots(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("CountSnapshots err = %v", err)
	}
	if n, err := store.DeleteAlertsBefore(ctx, time.Now()); !errors.Is(err, ErrNotConfigured) || n != 0 {
		t.Fatalf("DeleteAlertsBefore = %d, %v", n, err)
	}
	if _, err := store.ListRecentAlerts(ctx, 5); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("ListRecentAlerts err = %v", err)
	}
	if _, _, err := NewStore(nil).TryAdvisoryLock(ctx, 1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("TryAdvisoryLock err = %v", err)
	}
	store.Close()
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), config.DatabaseConfig{}); err == nil {
		t.Fatal("空 DSN 应报错")
	}
}

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/db": "pgx5://u:p@localhost:5432/db",
		"postgresql://u@db/hedera?x=1":     "pgx5://u@db/hedera?x=1",
		"pgx5://already":                   "pgx5://already",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := Migrate("", "migrations"); err == nil {
		t.Fatal("empty dsn must fail")
	}
}

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		DSN:             "postgres://u:p@localhost:5432/db",
		MaxOpenConns:    4,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	if pc.MaxConns != 4 || pc.MinConns != 4 || pc.MaxConnLifetime != time.Minute {
		t.Fatalf("unexpected pool limits: max=%d min=%d life=%s", pc.MaxConns, pc.MinConns, pc.MaxConnLifetime)
	}
	if pc.ConnConfig.RuntimeParams["application_name"] != applicationName {
		t.Fatalf("application_name = %q", pc.ConnConfig.RuntimeParams["application_name"])
	}

	pc, err = poolConfig(config.DatabaseConfig{DSN: "postgres://u@localhost/db?application_name=ops"})
	if err != nil {
		t.Fatal(err)
	}
	if pc.ConnConfig.RuntimeParams["application_name"] != "ops" {
		t.Fatal("explicit application_name must be kept")
	}
}
