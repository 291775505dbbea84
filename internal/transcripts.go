package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultPipelineTimeout bounds a single pipeline run
const DefaultPipelineTimeout = 10 * time.Minute

// PipelineRunner produces a transcript for a video URL
type PipelineRunner interface {
	Run(ctx context.Context, videoURL string, observer PipelineObserver) (string, error)
}

// Transcripts returns the authoritative transcript for a video, running the
// pipeline at most once per video and persisting its result.
type Transcripts struct {
	store    TranscriptStore
	pipeline PipelineRunner
	timeout  time.Duration
	verbose  bool

	// inflight coalesces concurrent misses for the same video ID
	inflight singleflight.Group
}

// NewTranscripts creates the cache wrapper around a pipeline
func NewTranscripts(store TranscriptStore, pipeline PipelineRunner, timeout time.Duration, verbose bool) *Transcripts {
	if timeout <= 0 {
		timeout = DefaultPipelineTimeout
	}
	return &Transcripts{
		store:    store,
		pipeline: pipeline,
		timeout:  timeout,
		verbose:  verbose,
	}
}

// Lookup returns the stored transcript, or "" when none exists. It never runs the pipeline.
func (t *Transcripts) Lookup(ctx context.Context, videoID string) (string, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return "", fmt.Errorf("%w: video ID is required", ErrInvalidInput)
	}
	return t.stored(ctx, videoID)
}

// Get returns the transcript for videoID, generating it from videoURL on a miss
func (t *Transcripts) Get(ctx context.Context, videoID, videoURL string) (string, error) {
	return t.GetWithObserver(ctx, videoID, videoURL, nil)
}

// GetWithObserver is Get with pipeline stage notifications
func (t *Transcripts) GetWithObserver(ctx context.Context, videoID, videoURL string, observer PipelineObserver) (string, error) {
	videoID = strings.TrimSpace(videoID)
	videoURL = strings.TrimSpace(videoURL)
	if videoID == "" {
		return "", fmt.Errorf("%w: video ID is required", ErrInvalidInput)
	}
	if videoURL == "" {
		return "", fmt.Errorf("%w: video URL is required", ErrInvalidInput)
	}

	existing, err := t.stored(ctx, videoID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		if t.verbose {
			fmt.Printf("Found existing transcript for %s\n", videoID)
		}
		return existing, nil
	}

	// The flight outlives any single caller: one caller giving up must not
	// fail the others or waste a run that is already paid for.
	flightCtx := context.WithoutCancel(ctx)
	ch := t.inflight.DoChan(videoID, func() (any, error) {
		return t.generate(flightCtx, videoID, videoURL, observer)
	})

	select {
	case res := <-ch:
		if res.Shared && t.verbose {
			fmt.Printf("Joined in-flight transcription for %s\n", videoID)
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for transcript of %s: %w", videoID, ctx.Err())
	}
}

// generate runs the pipeline and persists the result. It re-checks the store
// first in case a flight for the same video finished just before this one.
func (t *Transcripts) generate(ctx context.Context, videoID, videoURL string, observer PipelineObserver) (string, error) {
	existing, err := t.stored(ctx, videoID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	if t.verbose {
		fmt.Printf("No transcript for %s, running pipeline\n", videoID)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	text, err := t.pipeline.Run(runCtx, videoURL, observer)
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", videoID, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("transcribing %s: %w", videoID, ErrEmptyTranscription)
	}

	if err := t.store.SaveTranscript(ctx, videoID, text); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPersistence, videoID, err)
	}
	return text, nil
}

func (t *Transcripts) stored(ctx context.Context, videoID string) (string, error) {
	text, err := t.store.Transcript(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrStoreRead, videoID, err)
	}
	return strings.TrimSpace(text), nil
}
