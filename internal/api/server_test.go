package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"whisperstudio/internal/api"
	"whisperstudio/internal/history"
	"whisperstudio/internal/progress"
	"whisperstudio/internal/runs"
	"whisperstudio/internal/services"
	"whisperstudio/internal/workflow"
)

const testRunID = "20260101_120000"

type fakeTranscriber struct {
	mu      sync.Mutex
	started chan struct{}
	release chan struct{}
	result  *workflow.Result
	err     error
	got     []workflow.Request
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req workflow.Request, reporter progress.Reporter) (*workflow.Result, error) {
	f.mu.Lock()
	f.got = append(f.got, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	reporter.Report(0.5, "Transcribing segment 1/1...")
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return &workflow.Result{Message: ctx.Err().Error(), ErrorKind: "internal"}, ctx.Err()
		}
	}
	reporter.Report(1, "Done")
	return f.result, f.err
}

func (f *fakeTranscriber) requests() []workflow.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]workflow.Request(nil), f.got...)
}

func successResult() *workflow.Result {
	return &workflow.Result{
		RunID:        testRunID,
		Source:       runs.UploadSource("/media/meeting.mp4"),
		Transcript:   "hello world",
		Display:      "hello world",
		TextArtifact: filepath.Join("/out", testRunID, "transcript_000.txt"),
		Message:      "Transcription complete.",
	}
}

type fixture struct {
	t      *testing.T
	jobs   *api.JobService
	server *httptest.Server
	runs   *runs.Manager
	root   string
}

func newFixture(t *testing.T, transcriber api.Transcriber, deps api.Deps) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	root := t.TempDir()
	jobs := api.NewJobService(ctx, transcriber, 1, nil)
	manager := runs.NewManager(root)
	deps.Jobs = jobs
	deps.Runs = manager
	srv := api.NewServer("127.0.0.1:0", deps, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = jobs.Wait(waitCtx)
	})
	return &fixture{t: t, jobs: jobs, server: ts, runs: manager, root: root}
}

func (f *fixture) do(method, path string, body string) (*http.Response, []byte) {
	f.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		f.t.Fatalf("new request: %v", err)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		f.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		f.t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (f *fixture) submit(body string) api.SubmitResponse {
	f.t.Helper()
	resp, data := f.do(http.MethodPost, "/api/jobs", body)
	if resp.StatusCode != http.StatusAccepted {
		f.t.Fatalf("submit status = %d body=%s", resp.StatusCode, data)
	}
	var out api.SubmitResponse
	if err := json.Unmarshal(data, &out); err != nil {
		f.t.Fatalf("decode submit: %v", err)
	}
	return out
}

func (f *fixture) waitDone(id string) {
	f.t.Helper()
	done, err := f.jobs.Done(id)
	if err != nil {
		f.t.Fatalf("done: %v", err)
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		f.t.Fatalf("job %s did not finish", id)
	}
}

func TestSubmitRunsJobAndExposesResult(t *testing.T) {
	transcriber := &fakeTranscriber{result: successResult()}
	f := newFixture(t, transcriber, api.Deps{})

	sub := f.submit(`{"mediaPath":"/media/meeting.mp4","language":"fr","subtitles":true,"document":true}`)
	if sub.Events != "/api/jobs/"+sub.ID+"/events" {
		t.Fatalf("unexpected events path %q", sub.Events)
	}
	f.waitDone(sub.ID)

	resp, data := f.do(http.MethodGet, "/api/jobs/"+sub.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var job api.Job
	if err := json.Unmarshal(data, &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.State != api.JobCompleted {
		t.Fatalf("state = %s", job.State)
	}
	if job.FinishedAt == "" || job.Progress.Fraction != 1 {
		t.Fatalf("unexpected job %+v", job)
	}
	if job.Result == nil || job.Result.Transcript != "hello world" {
		t.Fatalf("unexpected result %+v", job.Result)
	}
	if job.Result.Text == nil || job.Result.Text.URL != "/api/runs/"+testRunID+"/files/transcript_000.txt" {
		t.Fatalf("unexpected text link %+v", job.Result.Text)
	}
	if job.Result.Subtitles != nil {
		t.Fatalf("expected no subtitle link, got %+v", job.Result.Subtitles)
	}

	got := transcriber.requests()
	if len(got) != 1 {
		t.Fatalf("expected one request, got %d", len(got))
	}
	if got[0].MediaPath != "/media/meeting.mp4" || got[0].Language != "fr" || !got[0].WantSubtitles || !got[0].WantDocument || got[0].WantStructured {
		t.Fatalf("request not forwarded: %+v", got[0])
	}
}

func TestSubmitMarksFailedJobs(t *testing.T) {
	transcriber := &fakeTranscriber{
		result: &workflow.Result{Message: "Error during audio conversion: boom", ErrorKind: "transcode"},
		err:    services.Wrap(services.ErrTranscode, "audio", "normalize", "boom", nil),
	}
	f := newFixture(t, transcriber, api.Deps{})

	sub := f.submit(`{"url":"https://example.com/v"}`)
	f.waitDone(sub.ID)

	job, err := f.jobs.Get(sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.State != api.JobFailed {
		t.Fatalf("state = %s", job.State)
	}
	if job.Result == nil || job.Result.ErrorKind != "transcode" || job.Result.Message == "" {
		t.Fatalf("unexpected result %+v", job.Result)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{result: successResult()}, api.Deps{})

	cases := []struct {
		name string
		body string
	}{
		{name: "empty", body: `{}`},
		{name: "blank", body: `{"mediaPath":"   "}`},
		{name: "unknown field", body: `{"file":"x.mp4"}`},
		{name: "malformed", body: `{"mediaPath":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, data := f.do(http.MethodPost, "/api/jobs", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", resp.StatusCode, data)
			}
			var payload map[string]string
			if err := json.Unmarshal(data, &payload); err != nil || payload["error"] == "" {
				t.Fatalf("expected error payload, got %s", data)
			}
		})
	}
	if jobs := f.jobs.List(); len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestJobsQueueBehindRunningJob(t *testing.T) {
	transcriber := &fakeTranscriber{
		result:  successResult(),
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	f := newFixture(t, transcriber, api.Deps{})

	first := f.submit(`{"mediaPath":"/media/a.mp4"}`)
	<-transcriber.started
	second := f.submit(`{"mediaPath":"/media/b.mp4"}`)

	job, err := f.jobs.Get(second.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.State != api.JobQueued {
		t.Fatalf("second job state = %s, want queued", job.State)
	}
	running, _ := f.jobs.Get(first.ID)
	if running.State != api.JobRunning {
		t.Fatalf("first job state = %s, want running", running.State)
	}

	resp, data := f.do(http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	var health api.HealthResponse
	if err := json.Unmarshal(data, &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Jobs != 2 {
		t.Fatalf("unexpected health %+v", health)
	}

	close(transcriber.release)
	<-transcriber.started
	f.waitDone(first.ID)
	f.waitDone(second.ID)

	resp, data = f.do(http.MethodGet, "/api/jobs", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list api.JobListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list.Jobs))
	}
	for _, job := range list.Jobs {
		if job.State != api.JobCompleted {
			t.Fatalf("job %s state = %s", job.ID, job.State)
		}
	}
	if f.jobs.Active() != 0 {
		t.Fatalf("expected no active jobs")
	}
}

func TestEventsStreamReplaysAndCloses(t *testing.T) {
	transcriber := &fakeTranscriber{
		result:  successResult(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	f := newFixture(t, transcriber, api.Deps{})
	sub := f.submit(`{"mediaPath":"/media/meeting.mp4"}`)
	<-transcriber.started

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + sub.Events
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}
	close(transcriber.release)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var events []api.Event
	for {
		var ev api.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Fatalf("read: %v", err)
			}
			break
		}
		events = append(events, ev)
	}

	if len(events) < 4 {
		t.Fatalf("expected at least 4 events, got %+v", events)
	}
	if events[0].Type != api.EventStatus || events[0].State != api.JobQueued {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].Type != api.EventStatus || events[1].State != api.JobRunning {
		t.Fatalf("second event = %+v", events[1])
	}
	last := events[len(events)-1]
	if last.Type != api.EventResult || last.State != api.JobCompleted || last.Result == nil {
		t.Fatalf("last event = %+v", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("sequence not increasing: %+v", events)
		}
	}
	sawProgress := false
	for _, ev := range events {
		if ev.Type == api.EventProgress && ev.Fraction == 0.5 {
			sawProgress = true
		}
	}
	if !sawProgress {
		t.Fatalf("missing progress event: %+v", events)
	}
}

func TestUnknownJob(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{result: successResult()}, api.Deps{})
	for _, path := range []string{"/api/jobs/missing", "/api/jobs/missing/events"} {
		resp, _ := f.do(http.MethodGet, path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
	}
	resp, _ := f.do(http.MethodDelete, "/api/jobs", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
}

func TestRunFiles(t *testing.T) {
	f := newFixture(t, &fakeTranscriber{result: successResult()}, api.Deps{})
	dir := filepath.Join(f.root, testRunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "transcript_000.txt"), []byte("hello world\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	resp, data := f.do(http.MethodGet, "/api/runs/"+testRunID+"/files", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var listing api.RunFilesResponse
	if err := json.Unmarshal(data, &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Files) != 1 || listing.Files[0].Name != "transcript_000.txt" {
		t.Fatalf("unexpected files %+v", listing.Files)
	}

	resp, data = f.do(http.MethodGet, listing.Files[0].URL, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d", resp.StatusCode)
	}
	if !bytes.Equal(data, []byte("hello world\n")) {
		t.Fatalf("unexpected content %q", data)
	}

	for _, path := range []string{
		"/api/runs/" + testRunID + "/files/missing.txt",
		"/api/runs/" + testRunID + "/files/nested",
		"/api/runs/not-a-run/files",
		"/api/runs/20250101_000000/files/transcript_000.txt",
	} {
		resp, _ := f.do(http.MethodGet, path, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestHistory(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(2 * time.Minute)
	ok := history.Record{
		RunID:        testRunID,
		Source:       runs.UploadSource("/media/meeting.mp4"),
		Status:       history.StatusCompleted,
		SegmentCount: 1,
		DocumentPath: filepath.Join("/out", testRunID, "transcript.pdf"),
		StartedAt:    started,
		FinishedAt:   &finished,
	}
	failed := history.Record{
		RunID:        "20260101_130000",
		Source:       runs.RemoteSource("https://example.com/v"),
		Status:       history.StatusFailed,
		ErrorKind:    "source_resolution",
		ErrorMessage: "download failed",
		StartedAt:    started.Add(time.Hour),
		FinishedAt:   &finished,
	}
	for _, rec := range []history.Record{ok, failed} {
		if err := store.Save(context.Background(), rec); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	tracker := history.NewTracker(ok.Entry())

	f := newFixture(t, &fakeTranscriber{result: successResult()}, api.Deps{Tracker: tracker, Store: store})

	resp, data := f.do(http.MethodGet, "/api/history", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var payload api.HistoryResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Recent) != 1 || payload.Recent[0].RunID != testRunID {
		t.Fatalf("unexpected recent %+v", payload.Recent)
	}
	if !strings.HasPrefix(payload.Recent[0].Line, "- ") || !strings.Contains(payload.Recent[0].Line, "id="+testRunID) {
		t.Fatalf("unexpected line %q", payload.Recent[0].Line)
	}
	if len(payload.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %+v", payload.Runs)
	}

	resp, data = f.do(http.MethodGet, "/api/history?status=failed", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered status = %d", resp.StatusCode)
	}
	payload = api.HistoryResponse{}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Runs) != 1 || payload.Runs[0].Status != "failed" || payload.Runs[0].ErrorKind != "source_resolution" {
		t.Fatalf("unexpected filtered runs %+v", payload.Runs)
	}

	for _, query := range []string{"?limit=0", "?limit=abc", "?status=bogus"} {
		resp, _ := f.do(http.MethodGet, "/api/history"+query, "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s status = %d", query, resp.StatusCode)
		}
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := api.NewServer("127.0.0.1:0", api.Deps{}, nil)
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	empty := api.NewServer("  ", api.Deps{}, nil)
	if err := empty.Start(ctx); err == nil {
		t.Fatal("expected error for empty bind")
	}
}
