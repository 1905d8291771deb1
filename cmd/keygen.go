package cmd

import (
	"fmt"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/chain"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/config"

	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new wallet key for the bot",
	Long: `Generate a new random wallet and print it as a .env line.
The account must be funded with BNB before the bot can submit transactions.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	key, addr, err := chain.GenerateKey()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s=%s\n", config.EnvPrivateKey, key)
	fmt.Fprintf(out, "# address %s\n", addr.Hex())
	return nil
}
