package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	store, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(ctx, "adminToken", "tok123"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "customerToken", "cust"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "adminToken")
	if err != nil || got != "tok123" {
		t.Fatalf("expected persisted token, got %q err=%v", got, err)
	}

	if err := reopened.Delete(ctx, "adminToken"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reopened.Get(ctx, "adminToken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if val, ok, err := Lookup(ctx, reopened, "customerToken"); err != nil || !ok || val != "cust" {
		t.Fatalf("customer token should survive admin delete, got %q ok=%v err=%v", val, ok, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 state file, got %o", perm)
	}
}

func TestOpenFileRejectsCorruptState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestMemoryStoreLookupMissing(t *testing.T) {
	val, ok, err := Lookup(context.Background(), NewMemory(), "cart")
	if err != nil || ok || val != "" {
		t.Fatalf("expected clean miss, got %q ok=%v err=%v", val, ok, err)
	}
}
