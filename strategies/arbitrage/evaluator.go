package arbitrage

import (
	"math/big"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
)

// DesiredMinimumOutput is the amount the round trip must beat: the loan plus
// the loan token's profit threshold
func DesiredMinimumOutput(loanAmount, profitThreshold *big.Int) *big.Int {
	desired := new(big.Int)
	if loanAmount != nil {
		desired.Set(loanAmount)
	}
	if profitThreshold != nil {
		desired.Add(desired, profitThreshold)
	}
	return desired
}

// Evaluate accepts the round trip only when its final output is strictly
// greater than desired
func Evaluate(desired *big.Int, final *types.Quote) bool {
	if final == nil || final.DestAmount == nil || desired == nil {
		return false
	}
	return final.DestAmount.Cmp(desired) > 0
}
