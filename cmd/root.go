package cmd

import (
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "arbbot",
	Short: "A flash loan arbitrage bot between Paraswap and KyberSwap",
	Long: `A CLI bot that quotes a round trip through Paraswap and KyberSwap in
both directions and executes profitable ones atomically with a flash loan
through the arbitrage contract.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config/bot_config.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
