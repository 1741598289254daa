package state

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestState_RejectCounts(t *testing.T) {
	var s State
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if n := s.Reject("/in/a.csv", t0); n != 1 {
		t.Fatalf("first Reject = %d, want 1", n)
	}
	if n := s.Reject("/in/a.csv", t0.Add(time.Minute)); n != 2 {
		t.Fatalf("second Reject = %d, want 2", n)
	}
	r := s.Rejections["/in/a.csv"]
	if !r.First.Equal(t0) || !r.Last.Equal(t0.Add(time.Minute)) {
		t.Errorf("First/Last = %v/%v", r.First, r.Last)
	}
	if s.Count("/in/b.csv") != 0 {
		t.Error("unknown path has a count")
	}
	if !s.Forget("/in/a.csv") || s.Forget("/in/a.csv") {
		t.Error("Forget should report presence exactly once")
	}
}

func TestState_Prune(t *testing.T) {
	var s State
	now := time.Now()
	s.Reject("/in/keep.csv", now)
	s.Reject("/in/gone.csv", now)

	n := s.Prune(func(p string) bool { return p == "/in/keep.csv" })
	if n != 1 || s.Count("/in/keep.csv") != 1 || s.Count("/in/gone.csv") != 0 {
		t.Errorf("Prune dropped %d, ledger %v", n, s.Rejections)
	}
}

func TestFileRepository_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := NewFileRepository(fs, "/var/lib/labship")
	ctx := context.Background()

	s, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if len(s.Rejections) != 0 {
		t.Fatalf("expected empty state, got %v", s.Rejections)
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Reject("/in/random.csv", at)
	s.Reject("/in/random.csv", at)
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ok, _ := afero.Exists(fs, repo.Path()+".tmp"); ok {
		t.Error("temp file left behind")
	}

	got, err := NewFileRepository(fs, "/var/lib/labship").Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Count("/in/random.csv") != 2 {
		t.Errorf("Count = %d, want 2", got.Count("/in/random.csv"))
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}
}

func TestFileRepository_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	repo := NewFileRepository(fs, "/state")
	if err := afero.WriteFile(fs, repo.Path(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestMemoryRepository_Isolated(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	var s State
	s.Reject("/in/a.csv", time.Now())
	if err := repo.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	s.Reject("/in/a.csv", time.Now())

	got, _ := repo.Load(ctx)
	if got.Count("/in/a.csv") != 1 {
		t.Errorf("saved state mutated through caller's map: count %d", got.Count("/in/a.csv"))
	}
}
