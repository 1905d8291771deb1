package arbitrage

import (
	"context"
	"fmt"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// PayloadBuilder turns accepted quotes into swap calldata
type PayloadBuilder struct {
	services map[types.ServiceID]dex.Aggregator
	contract common.Address
	logger   *zap.Logger
	metrics  *metrics.QuoteMetrics
}

// NewPayloadBuilder creates a builder whose payloads pay out to contract
func NewPayloadBuilder(aggregators []dex.Aggregator, contract common.Address, logger *zap.Logger, m *metrics.QuoteMetrics) *PayloadBuilder {
	return &PayloadBuilder{
		services: indexAggregators(aggregators),
		contract: contract,
		logger:   logger,
		metrics:  m,
	}
}

// Build requests calldata for quote from the service that issued it
func (b *PayloadBuilder) Build(ctx context.Context, quote *types.Quote, executor, recipient common.Address) (*types.SwapPayload, error) {
	agg, ok := b.services[quote.Service]
	if !ok {
		return nil, fmt.Errorf("no client for service %s", quote.Service)
	}

	payload, err := agg.BuildSwap(ctx, quote, executor, recipient)
	if err != nil {
		b.metrics.BuildFailures.WithLabelValues(string(quote.Service)).Inc()
		return nil, err
	}

	worstCase := math.SubtractPercentage(quote.DestAmount, math.BpsToPercent(agg.SlippageBps()))
	b.logger.Info("Swap payload built",
		zap.String("service", string(quote.Service)),
		zap.Stringer("src", quote.Source),
		zap.Stringer("dest", quote.Dest),
		zap.String("quoted_out", quote.DestAmount.String()),
		zap.String("min_out", worstCase.String()),
		zap.Int("calldata_bytes", len(payload.Calldata)))

	return payload, nil
}

// BuildPair builds both legs of attempt. Both must succeed.
func (b *PayloadBuilder) BuildPair(ctx context.Context, attempt *types.Attempt) ([2]*types.SwapPayload, error) {
	var payloads [2]*types.SwapPayload
	for i, quote := range []*types.Quote{attempt.Leg1, attempt.Leg2} {
		payload, err := b.Build(ctx, quote, b.executorFor(quote), b.contract)
		if err != nil {
			return payloads, fmt.Errorf("leg %d: %w", i+1, err)
		}
		payloads[i] = payload
	}
	return payloads, nil
}

// executorFor returns the address the swap is built for. A Paraswap swap
// spending the loan token is built for the token's vault, every other swap
// for the arbitrage contract.
func (b *PayloadBuilder) executorFor(quote *types.Quote) common.Address {
	if quote.Service == types.ServiceParaswap && quote.Source.Vault != nil {
		return *quote.Source.Vault
	}
	return b.contract
}
