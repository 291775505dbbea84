package internal

import (
	"context"
	"strings"
	"time"
)

// Video is a catalog record. The pipeline reads ID and VideoURL and writes Transcript.
type Video struct {
	ID          string  `json:"id"`
	VideoURL    string  `json:"video_url"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Transcript  *string `json:"transcript,omitempty"`
}

// HasTranscript reports whether the record carries a usable transcript
func (v *Video) HasTranscript() bool {
	return v.Transcript != nil && strings.TrimSpace(*v.Transcript) != ""
}

// TranscriptStore reads and writes the transcript field of a video record.
// A missing transcript is returned as "" with a nil error; a missing record
// is an error wrapping ErrVideoNotFound.
type TranscriptStore interface {
	Transcript(ctx context.Context, videoID string) (string, error)
	SaveTranscript(ctx context.Context, videoID, transcript string) error
}

// VideoCatalog resolves a video ID to its catalog record.
type VideoCatalog interface {
	Video(ctx context.Context, videoID string) (*Video, error)
}

// Signer produces time-limited URLs for storage objects.
type Signer interface {
	SignURL(ctx context.Context, bucket, objectPath string, ttl time.Duration) (string, error)
}

// Stage names a step of the transcription pipeline
type Stage int

const (
	StageResolve Stage = iota
	StageDownload
	StageExtract
	StageTranscribe
)

// String returns a human-readable representation of the stage
func (s Stage) String() string {
	switch s {
	case StageResolve:
		return "resolve"
	case StageDownload:
		return "download"
	case StageExtract:
		return "extract"
	case StageTranscribe:
		return "transcribe"
	default:
		return "unknown"
	}
}
