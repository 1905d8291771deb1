package flashloan

import (
	"context"
	"math/big"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
)

// Facility is the lender the arbitrage contract borrows from
type Facility interface {
	// MaxFlashLoan returns the amount of token currently available to borrow,
	// in base units
	MaxFlashLoan(ctx context.Context, token *types.Token) (*big.Int, error)
	// FlashFee returns the lender fee for borrowing amount of token
	FlashFee(ctx context.Context, token *types.Token, amount *big.Int) (*big.Int, error)
	String() string
}
