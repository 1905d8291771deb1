package testutils

import (
	"testing"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// DevPrivateKey is a well-known development key, never funded on a real network
const DevPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// DevAddress is the account controlled by DevPrivateKey
const DevAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

var (
	busdAddress = common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56")
	cakeAddress = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
)

// BUSD returns a fresh BUSD token with no loan parameters
func BUSD() *types.Token {
	return &types.Token{Symbol: "BUSD", Address: busdAddress, Decimals: 18}
}

// CAKE returns a fresh CAKE token
func CAKE() *types.Token {
	return &types.Token{Symbol: "CAKE", Address: cakeAddress, Decimals: 18}
}

// LoanBUSD returns BUSD configured as a loan token with the given profit
// in whole tokens and an optional Paraswap vault.
func LoanBUSD(t *testing.T, profit string, vault *common.Address) *types.Token {
	t.Helper()
	info := types.LoanTokenInfo{
		Address:  busdAddress.Hex(),
		Decimals: 18,
		Profit:   decimal.RequireFromString(profit),
	}
	if vault != nil {
		info.Vault = vault.Hex()
	}
	token, err := types.NewLoanToken("BUSD", info)
	require.NoError(t, err)
	return token
}
