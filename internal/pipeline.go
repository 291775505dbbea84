package internal

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// URLResolver turns a stored video URL into a fetchable one
type URLResolver interface {
	Resolve(ctx context.Context, rawURL string) string
}

// MediaFetcher downloads a URL to a local path
type MediaFetcher interface {
	Fetch(ctx context.Context, url, dst string, progress func(total int64) io.Writer) (int64, error)
}

// AudioExtractor converts a local video into an audio file
type AudioExtractor interface {
	Extract(ctx context.Context, src, dst string) error
}

// SpeechTranscriber turns a local audio file into text
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audioFile string) (string, error)
}

// PipelineObserver receives stage notifications, e.g. to drive a progress display
type PipelineObserver interface {
	StageStarted(stage Stage)
	DownloadWriter(total int64) io.Writer
}

// Pipeline runs resolve -> download -> extract -> transcribe for one video.
// Each run owns its temporary files and removes them before returning.
type Pipeline struct {
	resolver    URLResolver
	fetcher     MediaFetcher
	extractor   AudioExtractor
	transcriber SpeechTranscriber
	tempDir     string
	audioExt    string
	verbose     bool
}

// NewPipeline creates a pipeline that stages files in tempDir
func NewPipeline(resolver URLResolver, fetcher MediaFetcher, extractor AudioExtractor, transcriber SpeechTranscriber, tempDir, audioExt string, verbose bool) *Pipeline {
	if audioExt == "" {
		audioExt = "mp3"
	}
	return &Pipeline{
		resolver:    resolver,
		fetcher:     fetcher,
		extractor:   extractor,
		transcriber: transcriber,
		tempDir:     tempDir,
		audioExt:    audioExt,
		verbose:     verbose,
	}
}

// Run transcribes the video at videoURL. observer may be nil.
func (p *Pipeline) Run(ctx context.Context, videoURL string, observer PipelineObserver) (string, error) {
	if err := EnsureDirs(p.tempDir); err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}

	id := uuid.NewString()
	videoFile := filepath.Join(p.tempDir, "video-"+id+".mp4")
	audioFile := filepath.Join(p.tempDir, "audio-"+id+"."+p.audioExt)
	// Removal failures must not mask the pipeline's own error.
	defer cleanupFiles(p.verbose, videoFile, audioFile)

	notify(observer, StageResolve)
	fetchURL := videoURL
	if p.resolver != nil {
		fetchURL = p.resolver.Resolve(ctx, videoURL)
	}

	notify(observer, StageDownload)
	var progress func(int64) io.Writer
	if observer != nil {
		progress = observer.DownloadWriter
	}
	if _, err := p.fetcher.Fetch(ctx, fetchURL, videoFile, progress); err != nil {
		return "", err
	}

	notify(observer, StageExtract)
	if err := p.extractor.Extract(ctx, videoFile, audioFile); err != nil {
		return "", err
	}

	notify(observer, StageTranscribe)
	return p.transcriber.Transcribe(ctx, audioFile)
}

func notify(observer PipelineObserver, stage Stage) {
	if observer != nil {
		observer.StageStarted(stage)
	}
}
