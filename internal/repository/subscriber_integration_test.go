//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ninjainc/waitlist/internal/testutil"
)

// ============================================================================
// Subscriber Repository Integration Tests
// ============================================================================

func TestIntegrationSubscriberRepository_AddThenList(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	email := testutil.UniqueEmail("add")
	inserted, err := repo.AddSubscriber(ctx, email)
	if err != nil {
		t.Fatalf("AddSubscriber failed: %v", err)
	}
	if !inserted {
		t.Error("expected first insert to report inserted")
	}

	subs, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(subs))
	}
	if subs[0].Email != email {
		t.Errorf("Email mismatch: got %q, want %q", subs[0].Email, email)
	}
	if subs[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set by the database")
	}
	if subs[0].ID == 0 {
		t.Error("ID should be set by the database")
	}
}

func TestIntegrationSubscriberRepository_AddIsIdempotent(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	email := testutil.UniqueEmail("dup")
	if _, err := repo.AddSubscriber(ctx, email); err != nil {
		t.Fatalf("AddSubscriber (first) failed: %v", err)
	}

	before, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}

	inserted, err := repo.AddSubscriber(ctx, email)
	if err != nil {
		t.Fatalf("AddSubscriber (second) failed: %v", err)
	}
	if inserted {
		t.Error("expected duplicate insert to report not inserted")
	}

	count, err := repo.CountSubscribers(ctx)
	if err != nil {
		t.Fatalf("CountSubscribers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	after, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if !after[0].CreatedAt.Equal(before[0].CreatedAt) {
		t.Errorf("created_at changed on duplicate: %v -> %v", before[0].CreatedAt, after[0].CreatedAt)
	}
}

func TestIntegrationSubscriberRepository_ConcurrentDuplicates(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	const workers = 16
	email := testutil.UniqueEmail("race")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.AddSubscriber(ctx, email)
			if err != nil {
				t.Errorf("AddSubscriber failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if inserted != 1 {
		t.Errorf("expected exactly one inserted=true, got %d", inserted)
	}

	count, err := repo.CountSubscribers(ctx)
	if err != nil {
		t.Fatalf("CountSubscribers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestIntegrationSubscriberRepository_ListNewestFirst(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, e := range emails {
		if _, err := repo.AddSubscriber(ctx, e); err != nil {
			t.Fatalf("AddSubscriber(%s) failed: %v", e, err)
		}
	}

	subs, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}

	want := []string{"c@example.com", "b@example.com", "a@example.com"}
	if len(subs) != len(want) {
		t.Fatalf("expected %d subscribers, got %d", len(want), len(subs))
	}
	for i, e := range want {
		if subs[i].Email != e {
			t.Errorf("position %d: got %s, want %s", i, subs[i].Email, e)
		}
	}
}

func TestIntegrationSubscriberRepository_EqualTimestampsOrderedByID(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []string{"first@example.com", "second@example.com"} {
		if _, err := repo.Pool().Exec(ctx, `INSERT INTO subscribers (email, created_at) VALUES ($1, $2)`, e, ts); err != nil {
			t.Fatalf("insert %s: %v", e, err)
		}
	}

	subs, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if len(subs) != 2 || subs[0].Email != "second@example.com" {
		t.Errorf("expected most recent id first, got %+v", subs)
	}
}

func TestIntegrationSubscriberRepository_ListEmpty(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	subs, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if subs == nil {
		t.Error("expected empty non-nil slice")
	}
	if len(subs) != 0 {
		t.Errorf("expected no subscribers, got %d", len(subs))
	}
}

func TestIntegrationSubscriberRepository_EnsureSchemaIdempotent(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	email := testutil.UniqueEmail("keep")
	if _, err := repo.AddSubscriber(ctx, email); err != nil {
		t.Fatalf("AddSubscriber failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema (run %d) failed: %v", i+1, err)
		}
	}

	count, err := repo.CountSubscribers(ctx)
	if err != nil {
		t.Fatalf("CountSubscribers failed: %v", err)
	}
	if count != 1 {
		t.Errorf("EnsureSchema must keep existing rows, got %d", count)
	}
}

func TestIntegrationSubscriberRepository_EnsureSchemaAdoptsExistingTable(t *testing.T) {
	ctx, repo := newSubscriberTestEnv(t)

	// A table created before migrations were tracked.
	if err := testutil.DropSubscribersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("drop schema: %v", err)
	}
	if _, err := repo.Pool().Exec(ctx, `
		CREATE TABLE subscribers (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := repo.Pool().Exec(ctx, `INSERT INTO subscribers (email) VALUES ('legacy@example.com')`); err != nil {
		t.Fatalf("seed legacy row: %v", err)
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	subs, err := repo.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers failed: %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "legacy@example.com" {
		t.Errorf("expected legacy row to survive, got %+v", subs)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newSubscriberTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL, Options{MaxConns: 20})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.DropSubscribersSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset subscribers schema: %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	return ctx, repo
}
