package whispercpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"whisperstudio/internal/services"
	"whisperstudio/internal/transcript"
)

func TestBuildArgsOmitsEmptyLanguage(t *testing.T) {
	svc := NewService(Config{ModelPath: "/models/ggml-small.bin"}, nil)
	for _, hint := range []string{"", "   ", "auto"} {
		args := svc.BuildArgs("/run/audio.wav", "/run/transcript_000", Options{Language: hint})
		want := []string{"-m", "/models/ggml-small.bin", "-f", "/run/audio.wav", "-of", "/run/transcript_000", "-otxt"}
		if !reflect.DeepEqual(args, want) {
			t.Fatalf("hint %q: got %v want %v", hint, args, want)
		}
	}
}

func TestBuildArgsIncludesRequestedOutputs(t *testing.T) {
	svc := NewService(Config{ModelPath: "m.bin", Threads: 4}, nil)
	args := svc.BuildArgs("in.wav", "out", Options{Language: "fr-FR", Subtitles: true, Structured: true})
	want := []string{"-m", "m.bin", "-f", "in.wav", "-of", "out", "-otxt", "-osrt", "-oj", "-l", "fr", "-t", "4"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v want %v", args, want)
	}
}

func fakeEngine(t *testing.T, produce ...string) services.CommandRunnerFunc {
	t.Helper()
	return func(_ context.Context, _ string, args ...string) (services.CommandResult, error) {
		var base string
		for i := 0; i < len(args)-1; i++ {
			if args[i] == "-of" {
				base = args[i+1]
			}
		}
		for _, ext := range produce {
			if err := os.WriteFile(base+ext, []byte("bonjour\n"), 0o644); err != nil {
				t.Fatalf("write fake output: %v", err)
			}
		}
		return services.CommandResult{}, nil
	}
}

func TestTranscribeReportsProducedArtifacts(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{ModelPath: "m.bin"}, nil)
	svc.WithCommandRunner(fakeEngine(t, ".txt", ".srt"))

	segment := transcript.Segment{Index: 2, Path: filepath.Join(dir, "chunk_002.wav")}
	artifacts, err := svc.Transcribe(context.Background(), segment, dir, Options{Subtitles: true, Structured: true})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected text and subtitle artifacts, got %+v", artifacts)
	}
	if artifacts[0].Kind != transcript.KindText || artifacts[0].Name() != "transcript_002.txt" {
		t.Fatalf("unexpected text artifact %+v", artifacts[0])
	}
	if artifacts[1].Kind != transcript.KindSubtitle || artifacts[1].SegmentIndex != 2 {
		t.Fatalf("unexpected subtitle artifact %+v", artifacts[1])
	}
	text, err := ReadText(artifacts[0])
	if err != nil || strings.TrimSpace(text) != "bonjour" {
		t.Fatalf("ReadText = %q, %v", text, err)
	}
}

func TestTranscribeIgnoresUnrequestedKinds(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{ModelPath: "m.bin"}, nil)
	svc.WithCommandRunner(fakeEngine(t, ".txt", ".srt", ".json"))

	artifacts, err := svc.Transcribe(context.Background(), transcript.Segment{Path: "a.wav"}, dir, Options{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Kind != transcript.KindText {
		t.Fatalf("expected only text artifact, got %+v", artifacts)
	}
}

func TestTranscribeMissingTextIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{ModelPath: "m.bin"}, nil)
	svc.WithCommandRunner(fakeEngine(t))

	artifacts, err := svc.Transcribe(context.Background(), transcript.Segment{Path: "a.wav"}, dir, Options{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected no artifacts, got %+v", artifacts)
	}
}

func TestTranscribeFailureIsEngineError(t *testing.T) {
	svc := NewService(Config{ModelPath: "m.bin"}, nil)
	svc.WithCommandRunner(services.CommandRunnerFunc(func(context.Context, string, ...string) (services.CommandResult, error) {
		return services.CommandResult{Stderr: "error: failed to load model", ExitCode: 2}, errors.New("exit status 2")
	}))

	_, err := svc.Transcribe(context.Background(), transcript.Segment{Index: 1, Path: "chunk_001.wav"}, t.TempDir(), Options{})
	var engineErr *services.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected EngineError, got %v", err)
	}
	if engineErr.SegmentIndex != 1 {
		t.Fatalf("expected segment 1, got %d", engineErr.SegmentIndex)
	}
	if !strings.Contains(engineErr.Message, "failed to load model") {
		t.Fatalf("expected diagnostics in message, got %q", engineErr.Message)
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatal("expected ErrEngine match")
	}
}
