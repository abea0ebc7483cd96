package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dshills/codecheck/internal/providers"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{
		Provider: "openai",
		Models: []string{
			"gpt-4o",
			"gpt-4o-mini",
			"gpt-4",
			"gpt-4-turbo-preview",
			"gpt-3.5-turbo",
			"gpt-3.5-turbo-16k",
		},
	},
	{
		Provider: "anthropic",
		Models: []string{
			"claude-sonnet-4-5",
			"claude-opus-4-5",
			"claude-haiku-4-5",
		},
	},
	{
		Provider: "gemini",
		Models: []string{
			"gemini-2.5-flash",
			"gemini-2.5-pro",
			"gemini-2.0-flash",
		},
	},
	{
		Provider: "ollama",
		Models: []string{
			"llama3.3",
			"codellama",
			"qwen2.5-coder",
			"deepseek-coder-v2",
		},
	},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		for _, info := range knownModels {
			fmt.Fprintf(os.Stdout, "%s:\n", info.Provider)
			for _, m := range info.Models {
				fmt.Fprintf(os.Stdout, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stdout)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured provider responds",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(os.Stdout, "Checking %s/%s...\n", cfg.Provider, cfg.Model)

		p, err := providers.New(providers.Options{
			Provider:   cfg.Provider,
			Model:      cfg.Model,
			Credential: cfg.Credential,
			BaseURL:    cfg.BaseURL,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Review(ctx, providers.ReviewRequest{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
}
