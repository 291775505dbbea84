package internal

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxDiagnosticBytes bounds the ffmpeg output kept in extraction errors
const maxDiagnosticBytes = 1000

// AudioProfile describes the audio produced for transcription
type AudioProfile struct {
	Codec       string
	SampleRate  int
	Channels    int
	Extension   string
	MaxDuration time.Duration // zero disables the cap
}

// DefaultAudioProfile is mono 16 kHz mp3, capped at 75 seconds
func DefaultAudioProfile() AudioProfile {
	return AudioProfile{
		Codec:       "libmp3lame",
		SampleRate:  16000,
		Channels:    1,
		Extension:   "mp3",
		MaxDuration: 75 * time.Second,
	}
}

// Audio handles audio extraction using FFmpeg
type Audio struct {
	cmdRunner CommandRunner
	binary    string
	lookupErr error
	profile   AudioProfile
	verbose   bool
}

// NewAudio creates an extractor. The binary is resolved once here; if it
// cannot be found every Extract call fails with ErrBinaryNotFound.
func NewAudio(cmdRunner CommandRunner, binary string, profile AudioProfile, verbose bool) *Audio {
	a := &Audio{
		cmdRunner: cmdRunner,
		profile:   profile,
		verbose:   verbose,
	}
	if binary == "" {
		binary = "ffmpeg"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		a.lookupErr = fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, binary, err)
		a.binary = binary
	} else {
		a.binary = resolved
	}
	return a
}

// Binary returns the resolved ffmpeg path
func (a *Audio) Binary() string {
	return a.binary
}

// Available reports whether the ffmpeg binary was found
func (a *Audio) Available() error {
	return a.lookupErr
}

// Args builds the ffmpeg argument vector for converting src into dst
func (a *Audio) Args(src, dst string) []string {
	args := []string{"-y", "-i", src}
	if secs := int(a.profile.MaxDuration.Seconds()); secs > 0 {
		args = append(args, "-t", strconv.Itoa(secs))
	}
	return append(args,
		"-vn",
		"-acodec", a.profile.Codec,
		"-ar", strconv.Itoa(a.profile.SampleRate),
		"-ac", strconv.Itoa(a.profile.Channels),
		dst)
}

// Extract strips the video stream from src and writes normalized audio to dst
func (a *Audio) Extract(ctx context.Context, src, dst string) error {
	if a.lookupErr != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, a.lookupErr)
	}

	if a.verbose {
		fmt.Printf("Extracting audio: %s -> %s\n", src, dst)
	}

	output, err := a.cmdRunner.Run(ctx, a.binary, a.Args(src, dst)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", ErrExtraction, ctxErr)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return fmt.Errorf("%w: %w: %w", ErrExtraction, ErrBinaryNotFound, err)
		}
		return fmt.Errorf("%w: ffmpeg failed: %w\nOutput: %s", ErrExtraction, err, tail(output, maxDiagnosticBytes))
	}
	return nil
}

// tail returns at most n trailing bytes of output, trimmed. The cut moves
// forward to a rune boundary.
func tail(output []byte, n int) string {
	s := strings.TrimSpace(string(output))
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "..." + s[start:]
}
