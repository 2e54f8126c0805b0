package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NethermindEth/basesociety/agent"
	"github.com/NethermindEth/basesociety/ai"
	"github.com/NethermindEth/basesociety/api"
	"github.com/NethermindEth/basesociety/api/handlers"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/NethermindEth/basesociety/config"
	"github.com/NethermindEth/basesociety/manager"
	"github.com/NethermindEth/basesociety/registry"
	"github.com/NethermindEth/basesociety/storage"
	"github.com/NethermindEth/basesociety/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	port        string
	databaseURL string
	natsURL     string
	mockLLM     bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "BaseSociety agent runtime",
	Long:  `Runs the agent execution API: launches agents, routes prompts to them and streams their activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if port != "" {
			cfg.Port = port
		}
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		if natsURL != "" {
			cfg.NATSURL = natsURL
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&port, "port", "", "API port (overrides PORT)")
	rootCmd.Flags().StringVar(&databaseURL, "db", "", "Database URL, sqlite:<path> or badger:<dir> (overrides DATABASE_URL)")
	rootCmd.Flags().StringVar(&natsURL, "nats", "", "NATS URL for event publishing (overrides NATS_URL)")
	rootCmd.Flags().BoolVar(&mockLLM, "mock-llm", false, "Echo prompts instead of calling the completion provider")
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := utils.NewLogger(cfg.LogLevel, cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var llm ai.CompletionClient
	if mockLLM {
		logger.Warn().Msg("Using echo completion client")
		llm = &ai.MockLLM{}
	} else {
		llmConfig := ai.DefaultLLMConfig()
		llmConfig.APIKey = cfg.OpenAIAPIKey
		llmConfig.BaseURL = cfg.OpenAIBaseURL
		llmConfig.Model = cfg.OpenAIModel
		client, err := ai.NewOpenAIClient(llmConfig)
		if err != nil {
			return err
		}
		llm = client
	}

	hub := communication.NewWSManager(logger.With().Str("component", "ws").Logger())
	events := communication.Publishers{hub}
	if cfg.NATSURL != "" {
		broker, err := communication.NewNATSBroker(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer broker.Close()
		events = append(events, broker)
	}

	actorConfig := agent.DefaultActorConfig()
	actorConfig.ReflectionInterval = cfg.ReflectionInterval

	agents := manager.New(registry.New(), store, llm, actorConfig, logger, manager.WithEvents(events))
	defer agents.Shutdown()

	if _, err := agents.Restore(ctx); err != nil {
		return fmt.Errorf("restore agents: %w", err)
	}

	router := api.NewRouter(handlers.New(agents, logger), hub, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return api.Serve(ctx, ":"+cfg.Port, router, logger)
	})

	err = g.Wait()
	logger.Info().Msg("Agent runtime stopped")
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
