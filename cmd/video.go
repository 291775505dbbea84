package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

// videoCmd represents the video command
var videoCmd = &cobra.Command{
	Use:   "video [video ID]",
	Short: "Print a video's catalog record as JSON",
	Example: `  # Show the catalog record
  skillcast video 3f0c9a52-7d8e-4d1b-9b8e-2f3c1a7e6d10

  # Save it as pretty JSON
  skillcast video 3f0c9a52-... --pretty -o video.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp(cmd.Context(), config)
		if err != nil {
			return err
		}
		defer app.Close()

		video, err := app.Video(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var jsonData []byte
		pretty, _ := cmd.Flags().GetBool("pretty")
		if pretty {
			jsonData, err = json.MarshalIndent(video, "", "  ")
		} else {
			jsonData, err = json.Marshal(video)
		}
		if err != nil {
			return fmt.Errorf("error converting video to JSON: %w", err)
		}

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, jsonData, 0644)
		}

		fmt.Println(string(jsonData))
		return nil
	},
}

func init() {
	internal.AddOutputFlag(videoCmd)
	videoCmd.Flags().Bool("pretty", false, "Format output as pretty JSON")
	rootCmd.AddCommand(videoCmd)
}
