package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"whisperstudio/internal/runs"
)

func entryN(i int) Entry {
	return Entry{
		Timestamp: time.Date(2026, 1, 1, 10, 0, i, 0, time.Local),
		Source:    runs.UploadSource(fmt.Sprintf("/media/%02d.mp3", i)),
		RunID:     fmt.Sprintf("20260101_1000%02d", i),
	}
}

func TestTrackerKeepsTenMostRecentFirst(t *testing.T) {
	tracker := NewTracker()
	const n = 14
	var snapshot []Entry
	for i := 0; i < n; i++ {
		snapshot = tracker.Record(entryN(i))
	}
	if len(snapshot) != Capacity {
		t.Fatalf("expected %d entries, got %d", Capacity, len(snapshot))
	}
	for i, entry := range snapshot {
		want := entryN(n - 1 - i).RunID
		if entry.RunID != want {
			t.Fatalf("entry %d: got %s want %s", i, entry.RunID, want)
		}
	}
}

func TestTrackerUnderCapacity(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(entryN(1))
	tracker.Record(entryN(2))
	snap := tracker.Snapshot()
	if len(snap) != 2 || snap[0].RunID != entryN(2).RunID {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	snap[0].RunID = "mutated"
	if tracker.Snapshot()[0].RunID == "mutated" {
		t.Fatal("Snapshot must return a copy")
	}
}

func TestNewTrackerSeedsNewestFirst(t *testing.T) {
	seed := make([]Entry, 0, 12)
	for i := 11; i >= 0; i-- {
		seed = append(seed, entryN(i))
	}
	tracker := NewTracker(seed...)
	snap := tracker.Snapshot()
	if len(snap) != Capacity {
		t.Fatalf("expected %d entries, got %d", Capacity, len(snap))
	}
	if snap[0].RunID != entryN(11).RunID || snap[Capacity-1].RunID != entryN(2).RunID {
		t.Fatalf("unexpected seeded order: first=%s last=%s", snap[0].RunID, snap[Capacity-1].RunID)
	}
}

func TestTrackerConcurrentRecords(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tracker.Record(entryN(i % 60))
			_ = tracker.Snapshot()
		}(i)
	}
	wg.Wait()
	if tracker.Len() != Capacity {
		t.Fatalf("expected %d entries, got %d", Capacity, tracker.Len())
	}
}

func TestEntryLine(t *testing.T) {
	entry := Entry{
		Timestamp: time.Date(2026, 2, 3, 14, 5, 6, 0, time.Local),
		Source:    runs.RemoteSource("https://youtu.be/x"),
		RunID:     "20260203_140506",
	}
	want := "- 14:05:06 · remote: https://youtu.be/x · id=20260203_140506"
	if got := entry.Line(); got != want {
		t.Fatalf("Line() = %q, want %q", got, want)
	}
}
