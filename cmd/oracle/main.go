package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NethermindEth/basesociety/chain"
	"github.com/NethermindEth/basesociety/communication"
	"github.com/NethermindEth/basesociety/config"
	"github.com/NethermindEth/basesociety/oracle"
	"github.com/NethermindEth/basesociety/storage"
	"github.com/NethermindEth/basesociety/utils"
	"github.com/spf13/cobra"
)

var once bool

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "BaseSociety happiness decay oracle",
	Long:  `Periodically registers agents with the DecayOracle contract and lowers the happiness of inactive ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireChain(); err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().BoolVar(&once, "once", false, "Run a single reconciliation pass and exit")
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := utils.NewLogger(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fallback, err := oracle.ParseFallback(cfg.TokenFallback)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client, err := chain.Dial(ctx, chain.EthConfig{
		RPCURL:             cfg.RPCURL,
		AgentNFTAddress:    cfg.AgentNFTAddress,
		DecayOracleAddress: cfg.DecayOracleAddress,
		PrivateKey:         cfg.OraclePrivateKey,
		ChainID:            cfg.ChainID,
	}, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	var opts []oracle.Option
	if cfg.NATSURL != "" {
		broker, err := communication.NewNATSBroker(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer broker.Close()
		opts = append(opts, oracle.WithEvents(broker))
	}

	reconcilerConfig := oracle.DefaultConfig()
	reconcilerConfig.Interval = cfg.LoopInterval
	reconcilerConfig.Policy = cfg.DecayPolicy()
	reconcilerConfig.Fallback = fallback
	reconciler := oracle.NewReconciler(store, client, reconcilerConfig, logger, opts...)

	if once {
		_, err := reconciler.Tick(ctx)
		return err
	}

	if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
