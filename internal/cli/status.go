package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Callsight status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Callsight %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// Load config
			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Println("Config:  not found (using defaults)")
				} else {
					fmt.Printf("Config:  error loading: %v\n", err)
				}
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s auth=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Token != "")

			storePath := cfg.Store.Path
			if storePath == "" {
				storePath = "(default)"
			}
			fmt.Printf("Store:   %s\n", storePath)

			// LLM provider
			registry := llm.NewRegistryFromConfig(cfg.LLM, log)
			providers := registry.List()
			if len(providers) > 0 {
				fmt.Printf("LLM:     %s model=%s\n", strings.Join(providers, ", "), cfg.LLM.Model)
			} else {
				fmt.Println("LLM:     (none configured)")
			}

			if cfg.CRM.BaseURL != "" {
				fmt.Printf("CRM:     %s\n", cfg.CRM.BaseURL)
			} else {
				fmt.Println("CRM:     (not configured)")
			}
			if cfg.Manuals.BaseURL != "" {
				fmt.Printf("Manuals: %s\n", cfg.Manuals.BaseURL)
			} else {
				fmt.Println("Manuals: (not configured)")
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}
