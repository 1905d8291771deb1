package math

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const gweiExponent = 9

// WeiToGwei converts a wei amount into gwei without rounding
func WeiToGwei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -gweiExponent)
}

// GweiToWei converts gwei into wei, truncating any sub-wei fraction
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(gweiExponent).BigInt()
}

// ToBaseUnits converts a whole-token amount into base units
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}

// FromBaseUnits converts base units into a whole-token amount for display
func FromBaseUnits(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// SubtractPercentage returns amount reduced by percentage percent, rounded
// down. Percentages above 100 are clamped so the result never goes
// negative.
func SubtractPercentage(amount *big.Int, percentage uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int)
	}
	if percentage > 100 {
		percentage = 100
	}
	kept := new(big.Int).Mul(amount, new(big.Int).SetUint64(100-percentage))
	return kept.Quo(kept, big.NewInt(100))
}

// BpsToPercent converts basis points to whole percent, rounding down
func BpsToPercent(bps uint64) uint64 {
	return bps / 100
}
