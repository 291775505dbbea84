package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

// showCmd prints a stored transcript without ever running the pipeline
var showCmd = &cobra.Command{
	Use:   "show [video ID]",
	Short: "Print a stored transcript (never transcribes)",
	Example: `  # Print the transcript if one has been generated
  skillcast show 3f0c9a52-7d8e-4d1b-9b8e-2f3c1a7e6d10`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp(cmd.Context(), config)
		if err != nil {
			return err
		}
		defer app.Close()

		transcript, err := app.StoredTranscript(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if transcript == "" {
			return fmt.Errorf("no transcript stored for %s - run \"skillcast transcribe %s\" to generate one", args[0], args[0])
		}

		fmt.Println(transcript)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
