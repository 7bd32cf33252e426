package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/sheets-importer/internal/gauth"
)

func TestStore_ReadAfterWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	ts := &gauth.TokenSet{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}

	if err := s.Store(ctx, "session-a", ts); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := s.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected TokenSet after Store, got nil")
	}
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
		t.Errorf("Got %+v, want stored tokens", got)
	}
}

func TestStore_AbsentSession(t *testing.T) {
	s := NewStore()

	got, err := s.Get(context.Background(), "never-stored")
	if err != nil {
		t.Fatalf("Get on absent session must not error, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for absent session, got %+v", got)
	}
}

func TestStore_Overwrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &gauth.TokenSet{AccessToken: "old"}
	second := &gauth.TokenSet{AccessToken: "new"}

	if err := s.Store(ctx, "session-a", first); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.Store(ctx, "session-a", second); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := s.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AccessToken != "new" {
		t.Errorf("AccessToken = %q, want %q after overwrite", got.AccessToken, "new")
	}
}

func TestStore_ExpiredEntryIsAbsent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	current := time.Now()
	s.now = func() time.Time { return current }

	if err := s.Store(ctx, "session-a", &gauth.TokenSet{AccessToken: "access"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Advance past the session TTL
	current = current.Add(25 * time.Hour)

	got, err := s.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected expired entry to read as absent, got %+v", got)
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Store(ctx, "session-a", &gauth.TokenSet{AccessToken: "access"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.Delete(ctx, "session-a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Get(ctx, "session-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil after Delete, got %+v", got)
	}

	// Deleting again is a no-op
	if err := s.Delete(ctx, "session-a"); err != nil {
		t.Errorf("Delete on absent session must not error, got %v", err)
	}
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Store(ctx, "session-a", &gauth.TokenSet{AccessToken: "a"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.Store(ctx, "session-b", &gauth.TokenSet{AccessToken: "b"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := s.Delete(ctx, "session-a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := s.Get(ctx, "session-b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.AccessToken != "b" {
		t.Errorf("session-b tokens affected by session-a delete: %+v", got)
	}
}
