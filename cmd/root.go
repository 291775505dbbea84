package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

var (
	config *internal.Config

	// runTempDir is this process's private directory under the configured temp dir
	runTempDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skillcast [video ID]",
	Short: "Transcripts and Q&A for one-minute skill videos",
	Long: `skillcast produces the transcript of a skill video exactly once.

A stored transcript is returned as-is. Otherwise the video is downloaded
(signing private storage URLs first), its audio is extracted with ffmpeg,
transcribed by an OpenAI-compatible speech-to-text API, and the result is
written back to the videos table for every later request.

Running skillcast with a video ID is the same as "skillcast transcribe".`,
	Example: `  # Transcript for a video in the catalog
  skillcast 3f0c9a52-7d8e-4d1b-9b8e-2f3c1a7e6d10

  # Transcribe a specific URL for that video
  skillcast 3f0c9a52-... --url "https://cdn.example.com/videos/knots.mp4"

  # Ask a question about a video
  skillcast ask 3f0c9a52-... "Which knot is shown first?"`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			config = internal.InitConfig(configFile)
			config.TempDir = runTempDir
		}
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscribe(cmd, args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config = internal.InitConfig("")

	if err := internal.EnsureDirs(config.ConfigDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	runDir, err := internal.NewRunTempDir(config.TempDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating temp directory: %v\n", err)
		os.Exit(1)
	}
	runTempDir = runDir
	config.TempDir = runDir
	defer func() {
		if err := internal.CleanupTempDir(runDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error cleaning up temporary files: %v\n", err)
		}
	}()

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	if err := internal.EnsureDefaultPrompt(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompt: %v\n", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal. Cleaning up and shutting down...")

		// kills a running ffmpeg and aborts in-flight requests
		cancel()

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cleanupCancel()

		cleanupDone := make(chan struct{})
		go func() {
			if err := internal.CleanupTempDir(runDir); err != nil {
				fmt.Fprintf(os.Stderr, "Error cleaning up temporary files: %v\n", err)
			}
			close(cleanupDone)
		}()

		select {
		case <-cleanupDone:
		case <-cleanupCtx.Done():
			fmt.Fprintln(os.Stderr, "Warning: Cleanup timed out, forcing exit")
		}

		os.Exit(130)
	}()

	rootCmd.SetContext(ctx)

	return rootCmd.Execute()
}

func init() {
	internal.AddVideoURLFlag(rootCmd)
	internal.AddOutputFlag(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $XDG_CONFIG_HOME/skillcast/config.toml)")
}
