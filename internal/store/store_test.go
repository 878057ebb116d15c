package store

import (
	"bytes"
	"database/sql"
	"strings"
	"testing"

	"github.com/desertthunder/arcana/internal/models"
	"github.com/desertthunder/arcana/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestStorage(t *testing.T) {
	media := map[string]func(t *testing.T) Storage{
		"Memory": func(t *testing.T) Storage { return NewMemoryStorage() },
		"SQLite": func(t *testing.T) Storage { return NewSQLiteStorage(setupTestDB(t)) },
	}

	for name, newStorage := range media {
		t.Run(name, func(t *testing.T) {
			t.Run("Get Missing Key", func(t *testing.T) {
				s := newStorage(t)
				if _, ok, err := s.GetItem("missing"); ok || err != nil {
					t.Errorf("expected missing key to be absent, got ok=%v err=%v", ok, err)
				}
			})

			t.Run("Set And Overwrite", func(t *testing.T) {
				s := newStorage(t)
				if err := s.SetItem("k", "one"); err != nil {
					t.Fatalf("failed to set item: %v", err)
				}
				if err := s.SetItem("k", "two"); err != nil {
					t.Fatalf("failed to overwrite item: %v", err)
				}

				v, ok, err := s.GetItem("k")
				if err != nil || !ok {
					t.Fatalf("expected item, got ok=%v err=%v", ok, err)
				}
				if v != "two" {
					t.Errorf("expected two, got %s", v)
				}
			})

			t.Run("Remove Is Idempotent", func(t *testing.T) {
				s := newStorage(t)
				_ = s.SetItem("k", "v")
				if err := s.RemoveItem("k"); err != nil {
					t.Fatalf("failed to remove item: %v", err)
				}
				if err := s.RemoveItem("k"); err != nil {
					t.Errorf("removing a missing key should be a no-op, got %v", err)
				}
				if _, ok, _ := s.GetItem("k"); ok {
					t.Error("expected item to be gone")
				}
			})
		})
	}
}

func TestTokenStore(t *testing.T) {
	bundle := models.TokenBundle{
		AccessToken:  "access",
		TokenType:    "Bearer",
		Scope:        "streaming",
		ExpiresIn:    3600,
		RefreshToken: "refresh",
		ObtainedAt:   1_700_000_000_000,
	}

	t.Run("Save And Load", func(t *testing.T) {
		ts := NewTokenStore(NewSQLiteStorage(setupTestDB(t)), nil, nil)

		if err := ts.Save(bundle); err != nil {
			t.Fatalf("failed to save bundle: %v", err)
		}

		loaded := ts.Load()
		if loaded == nil {
			t.Fatal("expected bundle, got nil")
		}
		if *loaded != bundle {
			t.Errorf("expected %+v, got %+v", bundle, *loaded)
		}
	})

	t.Run("Load Missing", func(t *testing.T) {
		ts := NewTokenStore(NewMemoryStorage(), nil, nil)
		if ts.Load() != nil {
			t.Error("expected nil bundle")
		}
	})

	t.Run("Load Unparseable Logs And Returns Nil", func(t *testing.T) {
		var buf bytes.Buffer
		mem := NewMemoryStorage()
		_ = mem.SetItem(TokensKey, "{not json")

		ts := NewTokenStore(mem, nil, shared.NewLogger(&buf))
		if ts.Load() != nil {
			t.Error("expected nil bundle for unparseable data")
		}
		if !strings.Contains(buf.String(), "unparseable") {
			t.Errorf("expected warning to be logged, got %q", buf.String())
		}
	})

	t.Run("Clear", func(t *testing.T) {
		ts := NewTokenStore(NewMemoryStorage(), nil, nil)
		_ = ts.Save(bundle)

		if err := ts.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if err := ts.Clear(); err != nil {
			t.Errorf("second clear should succeed, got %v", err)
		}
		if ts.Load() != nil {
			t.Error("expected bundle to be cleared")
		}
	})

	t.Run("Verifier In Separate Medium", func(t *testing.T) {
		tokens, session := NewMemoryStorage(), NewMemoryStorage()
		ts := NewTokenStore(tokens, session, nil)

		if err := ts.SavePkceVerifier("verifier"); err != nil {
			t.Fatalf("failed to save verifier: %v", err)
		}
		if _, ok, _ := tokens.GetItem(VerifierKey); ok {
			t.Error("verifier should not be written to token storage")
		}

		v, ok := ts.LoadPkceVerifier()
		if !ok || v != "verifier" {
			t.Errorf("expected verifier, got %q (ok=%v)", v, ok)
		}

		if err := ts.ClearPkceVerifier(); err != nil {
			t.Fatalf("failed to clear verifier: %v", err)
		}
		if _, ok := ts.LoadPkceVerifier(); ok {
			t.Error("expected verifier to be cleared")
		}
	})
}
