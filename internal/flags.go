package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddVideoURLFlag adds the --url flag that bypasses the catalog lookup
func AddVideoURLFlag(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "Video URL (default: looked up from the videos table)")
}

// AddOutputFlag adds the -o/--output flag
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
}

// AddAnswerFlags adds flags related to video Q&A
func AddAnswerFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("model", "m", "", "Model to use for answers")
	cmd.Flags().StringP("prompt", "p", "", "Custom prompt (string or file path)")
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}
	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if app.config.Verbose {
		if IsLikelyFilePath(prompt) && FileExists(prompt) {
			fmt.Printf("Using custom prompt file: %s\n", prompt)
		} else {
			fmt.Printf("Using custom prompt string\n")
		}
	}
	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if verbose {
		config.Verbose = true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if quiet {
		config.Quiet = true
	}
	return nil
}

// ValidateAnswerRequirements checks the Q&A API key and applies the --model flag
func ValidateAnswerRequirements(cmd *cobra.Command, config *Config) error {
	if err := ValidateAnswerAPIKey(config.AnswerAPIKey); err != nil {
		return err
	}

	if modelFlag, _ := cmd.Flags().GetString("model"); modelFlag != "" {
		config.AnswerModel = modelFlag
	}
	if config.AnswerModel == "" {
		return fmt.Errorf("answer model is required - set answer_model in config.toml or pass --model")
	}
	return nil
}
