package types

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const busd = "0xe9e7cea3dedca5984780bafc599bd69add087d56"

func TestChecksumAddress(t *testing.T) {
	t.Run("Idempotent", func(t *testing.T) {
		once, err := ChecksumAddress(busd)
		require.NoError(t, err)
		twice, err := ChecksumAddress(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
		assert.Equal(t, "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", once)
	})

	t.Run("UpperCaseInput", func(t *testing.T) {
		got, err := ChecksumAddress("0x" + strings.ToUpper(busd[2:]))
		require.NoError(t, err)
		assert.Equal(t, "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", got)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{"", "0x123", "not-an-address", busd + "00"} {
			_, err := ChecksumAddress(in)
			assert.ErrorIs(t, err, ErrConfiguration, in)
		}
	})
}

func TestNewLoanToken(t *testing.T) {
	t.Run("ProfitInBaseUnits", func(t *testing.T) {
		token, err := NewLoanToken("BUSD", LoanTokenInfo{
			Address:  busd,
			Decimals: 18,
			Vault:    "0xba12222222228d8ba445958a75a0704d566bf2c8",
			Profit:   decimal.RequireFromString("0.5"),
		})
		require.NoError(t, err)
		assert.True(t, token.IsLoanToken())
		require.NotNil(t, token.Vault)
		assert.Equal(t, "0xBA12222222228d8Ba445958a75a0704d566BF2C8", token.Vault.Hex())

		want, _ := new(big.Int).SetString("500000000000000000", 10)
		assert.Equal(t, 0, want.Cmp(token.ProfitThreshold))
	})

	t.Run("SmallDecimals", func(t *testing.T) {
		token, err := NewLoanToken("USDC", LoanTokenInfo{
			Address:  busd,
			Decimals: 6,
			Profit:   decimal.RequireFromString("0.001"),
		})
		require.NoError(t, err)
		assert.Nil(t, token.Vault)
		assert.Equal(t, int64(1000), token.ProfitThreshold.Int64())
	})

	t.Run("NegativeProfit", func(t *testing.T) {
		_, err := NewLoanToken("BUSD", LoanTokenInfo{Address: busd, Decimals: 18, Profit: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("ProfitFinerThanDecimals", func(t *testing.T) {
		_, err := NewLoanToken("USDC", LoanTokenInfo{Address: busd, Decimals: 6, Profit: decimal.RequireFromString("0.0000001")})
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("BadVault", func(t *testing.T) {
		_, err := NewLoanToken("BUSD", LoanTokenInfo{Address: busd, Decimals: 18, Vault: "0xdead"})
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestNewToken(t *testing.T) {
	token, err := NewToken("CAKE", TokenInfo{Address: busd, Decimals: 18})
	require.NoError(t, err)
	assert.False(t, token.IsLoanToken())
	assert.Equal(t, "CAKE", token.String())
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "AtoB", DirectionAtoB.String())
	assert.Equal(t, "BtoA", DirectionBtoA.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
}
