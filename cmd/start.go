package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/cmd/bot"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/config"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startCmd = &cobra.Command{
	Use:   "start <LOAN_TOKEN> <TARGET_TOKEN>",
	Short: "Start the arbitrage loop for a token pair",
	Args:  cobra.ExactArgs(2),
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	log := utils.GetLogger()

	if err := config.LoadEnv(); err != nil {
		log.Error("Failed to load environment", zap.Error(err))
		return err
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Error("Failed to load config", zap.Error(err))
		return err
	}
	if !debug {
		if err := utils.SetLevel(cfg.LogLevel); err != nil {
			log.Warn("Ignoring log level", zap.Error(err))
		}
	}

	// Arguments are checked before any network activity
	loanSymbol, targetSymbol, err := validatePair(cfg, args)
	if err != nil {
		log.Error("Invalid arguments", zap.Error(err))
		return err
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Error("Failed to load secrets", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting",
		zap.String("mode", cfg.Mode),
		zap.String("loan_token", loanSymbol),
		zap.String("target", targetSymbol))

	b, err := bot.New(ctx, cfg, secrets, loanSymbol, targetSymbol, log)
	if err != nil {
		log.Error("Failed to create bot", zap.Error(err))
		return err
	}
	defer b.Close()

	if err := b.Run(ctx); err != nil {
		log.Error("Bot stopped with error", zap.Error(err))
		return err
	}
	return nil
}

func validatePair(cfg *config.Config, args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("%w: expected <LOAN_TOKEN> <TARGET_TOKEN>", types.ErrConfiguration)
	}
	loanSymbol, targetSymbol := args[0], args[1]
	if !cfg.IsAllowedLoanToken(loanSymbol) {
		return "", "", fmt.Errorf("%w: invalid source token %q, allowed: %s",
			types.ErrConfiguration, loanSymbol, strings.Join(cfg.AllowedLoanTokens, ", "))
	}
	if targetSymbol == "" || targetSymbol == loanSymbol {
		return "", "", fmt.Errorf("%w: invalid target token %q", types.ErrConfiguration, targetSymbol)
	}
	return loanSymbol, targetSymbol, nil
}
