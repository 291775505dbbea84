package internal

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// memoryStore is an in-memory TranscriptStore and VideoCatalog
type memoryStore struct {
	mu      sync.Mutex
	videos  map[string]*Video
	reads   int
	writes  int
	readErr error
	saveErr error
}

func newMemoryStore(videos ...Video) *memoryStore {
	s := &memoryStore{videos: make(map[string]*Video)}
	for i := range videos {
		v := videos[i]
		s.videos[v.ID] = &v
	}
	return s
}

func (s *memoryStore) Transcript(ctx context.Context, videoID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return "", s.readErr
	}
	v, ok := s.videos[videoID]
	if !ok {
		return "", ErrVideoNotFound
	}
	if v.Transcript == nil {
		return "", nil
	}
	return *v.Transcript, nil
}

func (s *memoryStore) SaveTranscript(ctx context.Context, videoID, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	v, ok := s.videos[videoID]
	if !ok {
		return ErrVideoNotFound
	}
	s.writes++
	v.Transcript = &transcript
	return nil
}

func (s *memoryStore) Video(ctx context.Context, videoID string) (*Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok {
		return nil, ErrVideoNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *memoryStore) stored(videoID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[videoID]
	if !ok || v.Transcript == nil {
		return "", false
	}
	return *v.Transcript, true
}

func (s *memoryStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakePipeline returns a fixed result and counts runs
type fakePipeline struct {
	text    string
	err     error
	calls   atomic.Int32
	release chan struct{}
	urls    chan string
}

func (p *fakePipeline) Run(ctx context.Context, videoURL string, observer PipelineObserver) (string, error) {
	p.calls.Add(1)
	if p.urls != nil {
		p.urls <- videoURL
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.text, p.err
}

func strPtr(s string) *string { return &s }

func TestTranscripts_StoredTranscriptSkipsPipeline(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1", Transcript: strPtr("hello world")})
	pipeline := &fakePipeline{text: "should not be used"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	got, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "hello world" {
		t.Errorf("Get() = %q, want %q", got, "hello world")
	}
	if calls := pipeline.calls.Load(); calls != 0 {
		t.Errorf("pipeline ran %d times, want 0", calls)
	}
	if store.writeCount() != 0 {
		t.Errorf("store written %d times, want 0", store.writeCount())
	}
}

func TestTranscripts_MissRunsPipelineAndPersists(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1", VideoURL: "https://cdn.example.com/v1.mp4"})
	pipeline := &fakePipeline{text: "  Tie the knot twice.  \n"}
	transcripts := NewTranscripts(store, pipeline, time.Minute, false)
	ctx := context.Background()

	got, err := transcripts.Get(ctx, "v1", "https://cdn.example.com/v1.mp4")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "Tie the knot twice." {
		t.Errorf("Get() = %q, want trimmed transcript", got)
	}

	saved, ok := store.stored("v1")
	if !ok || saved != "Tie the knot twice." {
		t.Errorf("stored transcript = %q (present %t), want %q", saved, ok, "Tie the knot twice.")
	}

	// second request is served from the store
	again, err := transcripts.Get(ctx, "v1", "https://cdn.example.com/v1.mp4")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if again != got {
		t.Errorf("second Get() = %q, want %q", again, got)
	}
	if calls := pipeline.calls.Load(); calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
	if store.writeCount() != 1 {
		t.Errorf("store written %d times, want 1", store.writeCount())
	}
}

func TestTranscripts_WhitespaceTranscriptCountsAsMissing(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1", Transcript: strPtr("   \n\t")})
	pipeline := &fakePipeline{text: "fresh"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	got, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "fresh" {
		t.Errorf("Get() = %q, want %q", got, "fresh")
	}
	if calls := pipeline.calls.Load(); calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
}

func TestTranscripts_EmptyResultIsNotPersisted(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{text: " \n "}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, ErrEmptyTranscription) {
		t.Fatalf("Get() error = %v, want ErrEmptyTranscription", err)
	}
	if store.writeCount() != 0 {
		t.Errorf("store written %d times, want 0", store.writeCount())
	}
}

func TestTranscripts_PipelineErrorIsNotPersisted(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{err: ErrDownload}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, ErrDownload) {
		t.Fatalf("Get() error = %v, want ErrDownload", err)
	}
	if store.writeCount() != 0 {
		t.Errorf("store written %d times, want 0", store.writeCount())
	}
}

func TestTranscripts_InvalidInput(t *testing.T) {
	store := newMemoryStore()
	pipeline := &fakePipeline{text: "x"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	tests := []struct {
		name     string
		videoID  string
		videoURL string
	}{
		{name: "empty id", videoID: "", videoURL: "https://cdn.example.com/v.mp4"},
		{name: "blank id", videoID: "   ", videoURL: "https://cdn.example.com/v.mp4"},
		{name: "empty url", videoID: "v1", videoURL: ""},
		{name: "blank url", videoID: "v1", videoURL: " \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := transcripts.Get(context.Background(), tt.videoID, tt.videoURL)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Get() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if calls := pipeline.calls.Load(); calls != 0 {
		t.Errorf("pipeline ran %d times, want 0", calls)
	}
	if store.reads != 0 {
		t.Errorf("store read %d times, want 0", store.reads)
	}
}

func TestTranscripts_StoreReadError(t *testing.T) {
	store := newMemoryStore()
	store.readErr = errors.New("connection refused")
	pipeline := &fakePipeline{text: "x"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, ErrStoreRead) {
		t.Fatalf("Get() error = %v, want ErrStoreRead", err)
	}
	if calls := pipeline.calls.Load(); calls != 0 {
		t.Errorf("pipeline ran %d times, want 0", calls)
	}
}

func TestTranscripts_PersistenceError(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	store.saveErr = errors.New("permission denied for table videos")
	pipeline := &fakePipeline{text: "generated"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Get() error = %v, want ErrPersistence", err)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error %q does not carry the store failure", err)
	}
}

func TestTranscripts_TimeoutCancelsPipeline(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{text: "late", release: make(chan struct{})}
	transcripts := NewTranscripts(store, pipeline, 20*time.Millisecond, false)

	_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Get() error = %v, want context.DeadlineExceeded", err)
	}
	if store.writeCount() != 0 {
		t.Errorf("store written %d times, want 0", store.writeCount())
	}
}

func TestTranscripts_ConcurrentMissesShareOneRun(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{
		text:    "shared transcript",
		release: make(chan struct{}),
		urls:    make(chan string, 8),
	}
	transcripts := NewTranscripts(store, pipeline, time.Minute, false)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
		}(i)
	}

	// wait until the leader is inside the pipeline, give the others time to join
	<-pipeline.urls
	time.Sleep(50 * time.Millisecond)
	close(pipeline.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if results[i] != "shared transcript" {
			t.Errorf("caller %d got %q", i, results[i])
		}
	}
	if calls := pipeline.calls.Load(); calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
	if store.writeCount() != 1 {
		t.Errorf("store written %d times, want 1", store.writeCount())
	}
}

func TestTranscripts_UnknownVideoSkipsPipeline(t *testing.T) {
	store := newMemoryStore()
	pipeline := &fakePipeline{text: "never stored"}
	transcripts := NewTranscripts(store, pipeline, 0, false)

	for i := 0; i < 2; i++ {
		_, err := transcripts.Get(context.Background(), "no-such-video", "https://cdn.example.com/x.mp4")
		if !errors.Is(err, ErrVideoNotFound) {
			t.Fatalf("Get() error = %v, want ErrVideoNotFound", err)
		}
	}
	if calls := pipeline.calls.Load(); calls != 0 {
		t.Errorf("pipeline ran %d times, want 0", calls)
	}
}

func TestTranscripts_JoinerHonorsItsOwnDeadline(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{
		text:    "slow transcript",
		release: make(chan struct{}),
		urls:    make(chan string, 1),
	}
	transcripts := NewTranscripts(store, pipeline, time.Minute, false)

	leaderDone := make(chan error, 1)
	go func() {
		_, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
		leaderDone <- err
	}()
	<-pipeline.urls

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := transcripts.Get(ctx, "v1", "https://cdn.example.com/v1.mp4")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Get() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Get() returned %s after its deadline, want prompt return", elapsed)
	}

	close(pipeline.release)
	if err := <-leaderDone; err != nil {
		t.Fatalf("leader error = %v", err)
	}
	if calls := pipeline.calls.Load(); calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
}

func TestTranscripts_LeaderCancelDoesNotFailJoiners(t *testing.T) {
	store := newMemoryStore(Video{ID: "v1"})
	pipeline := &fakePipeline{
		text:    "kept transcript",
		release: make(chan struct{}),
		urls:    make(chan string, 1),
	}
	transcripts := NewTranscripts(store, pipeline, time.Minute, false)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := transcripts.Get(leaderCtx, "v1", "https://cdn.example.com/v1.mp4")
		leaderDone <- err
	}()
	<-pipeline.urls

	type result struct {
		text string
		err  error
	}
	joinerDone := make(chan result, 1)
	go func() {
		text, err := transcripts.Get(context.Background(), "v1", "https://cdn.example.com/v1.mp4")
		joinerDone <- result{text, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	if err := <-leaderDone; !errors.Is(err, context.Canceled) {
		t.Errorf("leader error = %v, want context.Canceled", err)
	}

	close(pipeline.release)
	got := <-joinerDone
	if got.err != nil {
		t.Fatalf("joiner error = %v", got.err)
	}
	if got.text != "kept transcript" {
		t.Errorf("joiner got %q, want %q", got.text, "kept transcript")
	}
	if saved, ok := store.stored("v1"); !ok || saved != "kept transcript" {
		t.Errorf("stored transcript = %q (present %t), want it persisted", saved, ok)
	}
	if calls := pipeline.calls.Load(); calls != 1 {
		t.Errorf("pipeline ran %d times, want 1", calls)
	}
}

func TestTranscripts_Lookup(t *testing.T) {
	store := newMemoryStore(
		Video{ID: "done", Transcript: strPtr(" text ")},
		Video{ID: "pending"},
	)
	pipeline := &fakePipeline{text: "x"}
	transcripts := NewTranscripts(store, pipeline, 0, false)
	ctx := context.Background()

	got, err := transcripts.Lookup(ctx, "done")
	if err != nil || got != "text" {
		t.Errorf("Lookup(done) = %q, %v; want %q, nil", got, err, "text")
	}

	got, err = transcripts.Lookup(ctx, "pending")
	if err != nil || got != "" {
		t.Errorf("Lookup(pending) = %q, %v; want empty, nil", got, err)
	}

	if _, err := transcripts.Lookup(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Lookup(\"\") error = %v, want ErrInvalidInput", err)
	}
	if calls := pipeline.calls.Load(); calls != 0 {
		t.Errorf("pipeline ran %d times, want 0", calls)
	}
}

// recordingObserver collects stage notifications
type recordingObserver struct {
	mu     sync.Mutex
	stages []Stage
	total  int64
	bytes  int
}

func (o *recordingObserver) StageStarted(stage Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) DownloadWriter(total int64) io.Writer {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.total = total
	return o
}

func (o *recordingObserver) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bytes += len(p)
	return len(p), nil
}
