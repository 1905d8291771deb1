package main

import (
	"os"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/cmd"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils"
)

func main() {
	err := cmd.Execute()
	utils.CleanupLogger()
	if err != nil {
		os.Exit(1)
	}
}
