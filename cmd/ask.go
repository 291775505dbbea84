package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rtzll/skillcast/internal"
)

// askCmd answers a question about a video
var askCmd = &cobra.Command{
	Use:   "ask [video ID] [question]",
	Short: "Ask a question about a video",
	Example: `  # Ask about a video
  skillcast ask 3f0c9a52-7d8e-4d1b-9b8e-2f3c1a7e6d10 "Which knot is shown first?"

  # Use a specific model
  skillcast ask 3f0c9a52-... "What tools do I need?" --model openai/gpt-4o-mini

  # Use a custom prompt template
  skillcast ask 3f0c9a52-... "Summarize" --prompt "{{.Title}}: {{.Transcript}} Q: {{.Question}}"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internal.ValidateAnswerRequirements(cmd, config); err != nil {
			return err
		}

		app, err := internal.NewApp(cmd.Context(), config)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := internal.HandlePromptFlag(cmd, app); err != nil {
			return err
		}

		question := strings.Join(args[1:], " ")
		answer, err := app.Ask(cmd.Context(), args[0], question, !config.Quiet)
		if err != nil {
			return err
		}

		rendered, err := internal.RenderMarkdown(answer)
		if err != nil {
			fmt.Println(answer)
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	internal.AddAnswerFlags(askCmd)
	rootCmd.AddCommand(askCmd)
}
