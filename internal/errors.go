package internal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transcription pipeline. Stage errors wrap one of
// these, so callers can branch with errors.Is.
var (
	ErrInvalidInput             = errors.New("invalid input")
	ErrStoreRead                = errors.New("reading transcript store")
	ErrPersistence              = errors.New("persisting transcript")
	ErrDownload                 = errors.New("downloading video")
	ErrExtraction               = errors.New("extracting audio")
	ErrBinaryNotFound           = errors.New("media binary not found")
	ErrTranscription            = errors.New("transcription failed")
	ErrTranscriptionAuth        = errors.New("transcription credentials rejected")
	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
	ErrEmptyTranscription       = errors.New("transcription produced no text")
	ErrVideoNotFound            = errors.New("video not found")
)

// ProviderError carries the HTTP status returned by a transcription provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
