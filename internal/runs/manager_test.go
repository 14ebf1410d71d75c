package runs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"whisperstudio/internal/services"
	"whisperstudio/internal/transcript"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestAllocateCreatesTimestampedDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "outputs")
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	m := NewManager(root, WithClock(fixedClock(ts)))

	run, err := m.Allocate(context.Background(), UploadSource("/tmp/talk.mp3"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if run.ID != "20260314_092653" {
		t.Fatalf("unexpected id %q", run.ID)
	}
	if info, err := os.Stat(run.Dir); err != nil || !info.IsDir() {
		t.Fatalf("expected run dir, err=%v", err)
	}
	if run.Path("audio.wav") != filepath.Join(root, "20260314_092653", "audio.wav") {
		t.Fatalf("unexpected path %q", run.Path("audio.wav"))
	}
}

func TestAllocateSameSecondCollides(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.Local)
	m := NewManager(root, WithClock(fixedClock(ts)))

	first, err := m.Allocate(context.Background(), UploadSource("a.mp3"))
	if err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	marker := first.Path("keep.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}

	_, err = m.Allocate(context.Background(), UploadSource("b.mp3"))
	if !errors.Is(err, services.ErrRunIDCollision) {
		t.Fatalf("expected ErrRunIDCollision, got %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("collision must not disturb the first run: %v", err)
	}
}

func TestAllocateConcurrentSameSecondYieldsOneRun(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	m := NewManager(root, WithClock(fixedClock(ts)))

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Allocate(context.Background(), RemoteSource("https://example.com/v"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, collisions int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrRunIDCollision):
			collisions++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || collisions != workers-1 {
		t.Fatalf("expected 1 success and %d collisions, got %d/%d", workers-1, ok, collisions)
	}
}

func TestAllocateDistinctSeconds(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local)
	m := NewManager(root, WithClock(func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}))
	a, err := m.Allocate(context.Background(), UploadSource("a"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	b, err := m.Allocate(context.Background(), UploadSource("b"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if a.ID >= b.ID {
		t.Fatalf("expected time-ordered ids, got %q then %q", a.ID, b.ID)
	}
}

func TestResolveFileStaysInsideRun(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, WithClock(fixedClock(time.Date(2026, 5, 6, 7, 8, 9, 0, time.Local))))
	run, err := m.Allocate(context.Background(), UploadSource("a"))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := os.WriteFile(run.Path("transcript_000.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret.txt"), []byte("no"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, err := m.ResolveFile(run.ID, "transcript_000.txt")
	if err != nil || path != run.Path("transcript_000.txt") {
		t.Fatalf("ResolveFile = %q, %v", path, err)
	}
	for _, name := range []string{"../secret.txt", "..", "", "missing.txt", "sub/x"} {
		if _, err := m.ResolveFile(run.ID, name); !errors.Is(err, ErrNotFound) {
			t.Fatalf("ResolveFile(%q) expected ErrNotFound, got %v", name, err)
		}
	}
	if _, err := m.ResolveFile("../etc", "passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected invalid id rejection, got %v", err)
	}
	files, err := m.Files(run.ID)
	if err != nil || len(files) != 1 || files[0] != "transcript_000.txt" {
		t.Fatalf("Files = %v, %v", files, err)
	}
}

func TestRunTracksArtifacts(t *testing.T) {
	run := &Run{ID: "x", Dir: "/tmp/x"}
	run.Track(transcript.Artifact{SegmentIndex: 0, Kind: transcript.KindText, Path: "/tmp/x/transcript_000.txt"})
	got := run.Artifacts()
	got[0].Path = "mutated"
	if run.Artifacts()[0].Path != "/tmp/x/transcript_000.txt" {
		t.Fatal("Artifacts must return a copy")
	}
}

func TestSourceLabels(t *testing.T) {
	if got := UploadSource("/home/u/talk.mp3").Label(); got != "talk.mp3" {
		t.Fatalf("unexpected upload label %q", got)
	}
	if got := RemoteSource("https://www.youtube.com/watch?v=abc").Label(); got != "www.youtube.com/watch" {
		t.Fatalf("unexpected remote label %q", got)
	}
	if got := UploadSource("/a/b.wav").String(); got != "upload: b.wav" {
		t.Fatalf("unexpected string %q", got)
	}
}
