package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// UIManager handles all user interface concerns (progress, verbose output)
type UIManager interface {
	NewSpinner(description string) ProgressBar
	NewBytesBar(total int64, description string) ProgressBar
	NewPipelineObserver() *StageProgress

	Verbose(format string, args ...any)
	Printf(format string, args ...any)
}

// ProgressBar abstracts progress bar operations. Writes advance byte bars.
type ProgressBar interface {
	io.Writer
	Describe(description string)
	Advance()
	Finish()
}

// StandardUIManager handles normal UI operations. Progress goes to stderr so
// stdout stays clean for transcripts.
type StandardUIManager struct {
	verbose     bool
	quiet       bool
	interactive bool
}

func NewUIManager(verbose, quiet bool) UIManager {
	return &StandardUIManager{
		verbose:     verbose,
		quiet:       quiet,
		interactive: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

func (ui *StandardUIManager) silent() bool {
	// verbose output would interleave with bar redraws
	return ui.quiet || ui.verbose || !ui.interactive
}

func (ui *StandardUIManager) NewSpinner(description string) ProgressBar {
	if ui.silent() {
		return &SilentProgressBar{bar: progressbar.DefaultSilent(-1)}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish())
	return &VisibleProgressBar{bar: bar}
}

func (ui *StandardUIManager) NewBytesBar(total int64, description string) ProgressBar {
	if ui.silent() {
		return &SilentProgressBar{bar: progressbar.DefaultBytesSilent(total, description)}
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	return &VisibleProgressBar{bar: bar}
}

func (ui *StandardUIManager) NewPipelineObserver() *StageProgress {
	return &StageProgress{ui: ui}
}

func (ui *StandardUIManager) Verbose(format string, args ...any) {
	if ui.verbose {
		fmt.Printf(format, args...)
	}
}

func (ui *StandardUIManager) Printf(format string, args ...any) {
	if !ui.quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// VisibleProgressBar wraps the actual progress bar
type VisibleProgressBar struct {
	bar *progressbar.ProgressBar
}

func (v *VisibleProgressBar) Write(p []byte) (int, error) {
	return v.bar.Write(p)
}

func (v *VisibleProgressBar) Describe(description string) {
	v.bar.Describe(description)
}

func (v *VisibleProgressBar) Advance() {
	_ = v.bar.Add(1)
}

func (v *VisibleProgressBar) Finish() {
	_ = v.bar.Finish()
}

// SilentProgressBar implements a silent progress bar
type SilentProgressBar struct {
	bar *progressbar.ProgressBar
}

func (s *SilentProgressBar) Write(p []byte) (int, error) {
	return len(p), nil
}

func (s *SilentProgressBar) Describe(description string) {}

func (s *SilentProgressBar) Advance() {}

func (s *SilentProgressBar) Finish() {
	_ = s.bar.Finish()
}

// StageProgress shows one bar per pipeline stage: a spinner for
// resolve/extract/transcribe and a byte counter for the download.
type StageProgress struct {
	ui      UIManager
	current ProgressBar
}

var stageDescriptions = map[Stage]string{
	StageResolve:    "Resolving video URL...",
	StageDownload:   "Downloading video",
	StageExtract:    "Extracting audio...",
	StageTranscribe: "Transcribing audio...",
}

// StageStarted implements PipelineObserver
func (s *StageProgress) StageStarted(stage Stage) {
	s.Finish()
	if stage == StageDownload {
		// the byte bar is created once the content length is known
		return
	}
	s.current = s.ui.NewSpinner(stageDescriptions[stage])
	s.current.Advance()
}

// DownloadWriter implements PipelineObserver
func (s *StageProgress) DownloadWriter(total int64) io.Writer {
	s.Finish()
	s.current = s.ui.NewBytesBar(total, stageDescriptions[StageDownload])
	return s.current
}

// Finish clears whatever bar is showing
func (s *StageProgress) Finish() {
	if s.current != nil {
		s.current.Finish()
		s.current = nil
	}
}
