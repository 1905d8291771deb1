package dex

import (
	"context"
	"math/big"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
)

// Aggregator represents a DEX aggregator pricing service
type Aggregator interface {
	// Name returns the service identifier
	Name() types.ServiceID

	// GetQuote prices selling amount of src for dst. It issues exactly one
	// request and never retries. Failures are *ServiceError values.
	GetQuote(ctx context.Context, src, dst *types.Token, amount *big.Int) (*types.Quote, error)

	// BuildSwap turns a quote obtained from the same service into executable
	// calldata, executed by executor and paying out to recipient.
	BuildSwap(ctx context.Context, quote *types.Quote, executor, recipient common.Address) (*types.SwapPayload, error)

	// SlippageBps returns the tolerance sent with build requests, in basis
	// points
	SlippageBps() uint64
}

// TokenCatalog lists the tokens a service knows about, keyed by symbol
type TokenCatalog interface {
	ListTokens(ctx context.Context) (map[string]types.TokenInfo, error)
}
