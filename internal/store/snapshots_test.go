package store

import (
	"context"
	"testing"
	"time"

	"github.com/lazypower/vigor/internal/energy"
)

func TestLatestSnapshotEmpty(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	s, err := db.LatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if s != nil {
		t.Errorf("LatestSnapshot = %+v, want nil", s)
	}
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		s := energy.Snapshot{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Levels:    energy.Levels{Mental: 70 + float64(i), Physical: 60, Financial: 50, Emotional: 40},
			Prime:     55 + float64(i),
		}
		if err := db.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	latest, err := db.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if latest == nil {
		t.Fatal("LatestSnapshot returned nil")
	}
	if latest.Mental != 72 || latest.Prime != 57 {
		t.Errorf("latest = %+v", latest)
	}
	if !latest.Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("Timestamp = %v", latest.Timestamp)
	}

	recent, err := db.RecentSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSnapshots: %v", err)
	}
	if len(recent) != 2 || recent[0].Mental != 72 || recent[1].Mental != 71 {
		t.Errorf("RecentSnapshots = %+v", recent)
	}
}
