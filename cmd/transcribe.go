package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe [video ID]",
	Short: "Get a video's transcript (stored or generated once)",
	Example: `  # Transcript for a video in the catalog
  skillcast transcribe 3f0c9a52-7d8e-4d1b-9b8e-2f3c1a7e6d10

  # Transcribe a specific URL for that video
  skillcast transcribe 3f0c9a52-... --url "https://cdn.example.com/videos/knots.mp4"

  # Save transcript to file
  skillcast transcribe 3f0c9a52-... -o transcript.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTranscribe(cmd, args[0])
	},
}

// runTranscribe prints or saves the transcript for videoID
func runTranscribe(cmd *cobra.Command, videoID string) error {
	transcript, err := fetchTranscript(cmd, videoID)
	if err != nil {
		return err
	}

	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(transcript), 0644)
	}

	fmt.Println(transcript)
	return nil
}

// fetchTranscript returns the transcript for videoID, using --url when given
// and the catalog's video_url otherwise
func fetchTranscript(cmd *cobra.Command, videoID string) (string, error) {
	app, err := internal.NewApp(cmd.Context(), config)
	if err != nil {
		return "", err
	}
	defer app.Close()

	videoURL, _ := cmd.Flags().GetString("url")
	return app.TranscriptForVideo(cmd.Context(), videoID, videoURL, !config.Quiet)
}

func init() {
	internal.AddVideoURLFlag(transcribeCmd)
	internal.AddOutputFlag(transcribeCmd)
	rootCmd.AddCommand(transcribeCmd)
}
