package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/engine"
	"github.com/callsight/callsight/internal/gateway"
	"github.com/callsight/callsight/internal/insight"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/tools"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		bind      string
		ephemeral bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Callsight gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			// LLM provider registry
			registry := llm.NewRegistryFromConfig(cfg.LLM, log)
			if len(registry.List()) == 0 {
				return fmt.Errorf("no LLM provider configured — set llm.provider, llm.apiKey, and llm.model")
			}
			model := cfg.LLM.Model
			if model == "" {
				model = cfg.LLM.Provider
			}

			// History store (SQLite or in-memory)
			var callStore engine.Store
			if ephemeral {
				callStore = store.NewMemoryCallStore()
				log.Info().Msg("using in-memory call store")
			} else {
				dbPath := cfg.Store.Path
				if dbPath == "" {
					if err := paths.EnsureDirs(); err != nil {
						return err
					}
					dbPath = filepath.Join(paths.Data, "callsight.db")
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()
				callStore = store.NewSQLiteCallStore(db)
				log.Info().Str("path", dbPath).Msg("using SQLite call store")
			}

			// Tools + the two model-backed services
			toolkit := tools.NewToolkit(cfg)
			analyzer := insight.NewAgentAnalyzer(insight.AnalyzerConfig{
				Model:       model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			}, registry, toolkit, log)
			summarizer := insight.NewLLMSummarizer(insight.SummarizerConfig{
				Model:       model,
				MaxTokens:   cfg.LLM.MaxTokens,
				Temperature: cfg.LLM.Temperature,
			}, registry, log)

			eng := engine.New(callStore, analyzer, summarizer, log)
			srv := gateway.New(cfg, eng, log)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep windows and analytics in memory only")

	return cmd
}
