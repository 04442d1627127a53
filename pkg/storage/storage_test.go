package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/versemark/versemark/pkg/index"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "versemark.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	u1, err := db.UpsertUser(ctx, "google", "sub-1", "Ada")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if u1.ID == "" || u1.DisplayName != "Ada" {
		t.Fatalf("unexpected user %+v", u1)
	}

	u2, err := db.UpsertUser(ctx, "google", "sub-1", "Ada L.")
	if err != nil {
		t.Fatalf("UpsertUser again: %v", err)
	}
	if u2.ID != u1.ID {
		t.Fatalf("same identity must keep the same id: %s vs %s", u1.ID, u2.ID)
	}
	if u2.DisplayName != "Ada L." {
		t.Fatalf("display name not refreshed: %q", u2.DisplayName)
	}

	u3, err := db.UpsertUser(ctx, "facebook", "sub-1", "")
	if err != nil {
		t.Fatalf("UpsertUser facebook: %v", err)
	}
	if u3.ID == u1.ID {
		t.Fatal("different providers must not share users")
	}

	got, err := db.GetUser(ctx, u1.ID)
	if err != nil || got.Subject != "sub-1" || got.Provider != "google" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}
	if _, err := db.GetUser(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := db.UpsertUser(ctx, "", "x", ""); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	u, _ := db.UpsertUser(ctx, "anonymous", "a1", "")

	s, err := db.CreateSession(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(s.Token) != 64 {
		t.Fatalf("unexpected token %q", s.Token)
	}
	got, err := db.LookupSession(ctx, s.Token)
	if err != nil || got.UserID != u.ID {
		t.Fatalf("LookupSession = %+v, %v", got, err)
	}

	if err := db.DeleteSession(ctx, s.Token); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.LookupSession(ctx, s.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if _, err := db.LookupSession(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for empty token, got %v", err)
	}
}

func TestExpiredSession(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	u, _ := db.UpsertUser(ctx, "anonymous", "a1", "")

	s, err := db.CreateSession(ctx, u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := db.LookupSession(ctx, s.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be rejected, got %v", err)
	}

	if _, err := db.CreateSession(ctx, u.ID, -time.Minute); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	n, err := db.PurgeExpiredSessions(ctx)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredSessions = %d, %v", n, err)
	}
}

// Both backends must agree on merge semantics.
func testProgressStore(t *testing.T, store ProgressStore) {
	ctx := context.Background()

	p, err := store.ReadProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("expected empty progress, got %v", p)
	}

	if err := store.ApplyPatch(ctx, "u1", index.Patch{"Luke_Chapter 1_1:26–38": true, "Alma_Chapter 32_32:21": true}); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if err := store.ApplyPatch(ctx, "u2", index.Patch{"Luke_Chapter 1_1:26–38": true}); err != nil {
		t.Fatalf("ApplyPatch u2: %v", err)
	}
	if err := store.ApplyPatch(ctx, "u1", index.Patch{"Alma_Chapter 32_32:21": false, "D&C_Chapter 59_59:8": true}); err != nil {
		t.Fatalf("ApplyPatch merge: %v", err)
	}
	// Re-marking a read key is idempotent.
	if err := store.ApplyPatch(ctx, "u1", index.Patch{"D&C_Chapter 59_59:8": true}); err != nil {
		t.Fatalf("ApplyPatch repeat: %v", err)
	}

	got, err := store.ReadProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	want := index.Progress{"Luke_Chapter 1_1:26–38": true, "D&C_Chapter 59_59:8": true}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("progress = %v, want %v", got, want)
	}

	other, _ := store.ReadProgress(ctx, "u2")
	if !reflect.DeepEqual(other, index.Progress{"Luke_Chapter 1_1:26–38": true}) {
		t.Fatalf("users leaked into each other: %v", other)
	}
}

func TestSQLiteProgressStore(t *testing.T) {
	testProgressStore(t, openTestDB(t))
}

func TestPebbleProgressStore(t *testing.T) {
	s, err := OpenPebble(filepath.Join(t.TempDir(), "progress"))
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	defer s.Close()
	testProgressStore(t, s)
}

func TestPebbleUserPrefixIsolation(t *testing.T) {
	s, err := OpenPebble(filepath.Join(t.TempDir(), "progress"))
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	// "u1" must not see keys of "u10".
	if err := s.ApplyPatch(ctx, "u10", index.Patch{"x": true}); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	p, err := s.ReadProgress(ctx, "u1")
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if len(p) != 0 {
		t.Fatalf("unexpected progress for u1: %v", p)
	}
}

func TestConcurrentApplyPatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	keys := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	errs := make(chan error, len(keys))
	for _, k := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			errs <- db.ApplyPatch(ctx, "u1", index.Patch{k: true})
		}(k)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("ApplyPatch: %v", err)
		}
	}
	p, _ := db.ReadProgress(ctx, "u1")
	if len(p) != len(keys) {
		t.Fatalf("expected %d keys, got %v", len(keys), p)
	}
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	g, _ := db.UpsertUser(ctx, "google", "g1", "G")
	a1, _ := db.UpsertUser(ctx, "anonymous", "a1", "")
	_, _ = db.UpsertUser(ctx, "anonymous", "a2", "")
	_, _ = db.CreateSession(ctx, g.ID, time.Hour)
	_ = db.ApplyPatch(ctx, a1.ID, index.Patch{"k1": true, "k2": true})

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := []ProviderStats{
		{Provider: "anonymous", UserCount: 2, SessionCount: 0, MarkCount: 2},
		{Provider: "google", UserCount: 1, SessionCount: 1, MarkCount: 0},
	}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestGetStatsFromPebble(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store, err := OpenPebble(filepath.Join(t.TempDir(), "progress"))
	if err != nil {
		t.Fatalf("OpenPebble: %v", err)
	}
	defer store.Close()

	g, _ := db.UpsertUser(ctx, "google", "g1", "G")
	a1, _ := db.UpsertUser(ctx, "anonymous", "a1", "")
	a2, _ := db.UpsertUser(ctx, "anonymous", "a2", "")
	_ = store.ApplyPatch(ctx, a1.ID, index.Patch{"k1": true, "k2": true})
	_ = store.ApplyPatch(ctx, a2.ID, index.Patch{"k1": true})
	_ = store.ApplyPatch(ctx, g.ID, index.Patch{"k3": true})
	// A stray SQLite mark must not be counted for the pebble backend.
	_ = db.ApplyPatch(ctx, g.ID, index.Patch{"old": true})

	stats, err := db.GetStatsFrom(ctx, store)
	if err != nil {
		t.Fatalf("GetStatsFrom: %v", err)
	}
	want := []ProviderStats{
		{Provider: "anonymous", UserCount: 2, SessionCount: 0, MarkCount: 3},
		{Provider: "google", UserCount: 1, SessionCount: 0, MarkCount: 1},
	}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	same, err := db.GetStatsFrom(ctx, db)
	if err != nil {
		t.Fatalf("GetStatsFrom(db): %v", err)
	}
	if same[1].MarkCount != 1 {
		t.Fatalf("sqlite marks for google = %d, want 1", same[1].MarkCount)
	}
}

func TestProgressKeys(t *testing.T) {
	lower, upper := progressBounds("u1")
	k := progressKey("u1", "Luke_Chapter 1_1:5")
	if string(k) < string(lower) || string(k) >= string(upper) {
		t.Fatalf("key %q outside [%q, %q)", k, lower, upper)
	}
	entry, ok := entryKeyFrom("u1", k)
	if !ok || entry != "Luke_Chapter 1_1:5" {
		t.Fatalf("entryKeyFrom = %q, %v", entry, ok)
	}
	if _, ok := entryKeyFrom("u2", k); ok {
		t.Fatal("entryKeyFrom must reject another user's key")
	}
}
