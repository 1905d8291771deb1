package arbitrage

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"go.uber.org/zap"
)

// QuoteClient dispatches quote requests to the configured pricing services
type QuoteClient struct {
	services map[types.ServiceID]dex.Aggregator
	logger   *zap.Logger
	metrics  *metrics.QuoteMetrics
}

func NewQuoteClient(aggregators []dex.Aggregator, logger *zap.Logger, m *metrics.QuoteMetrics) *QuoteClient {
	return &QuoteClient{
		services: indexAggregators(aggregators),
		logger:   logger,
		metrics:  m,
	}
}

// GetQuote prices amount of src into dst on service. There is no retry; a
// failure is classified by the service client.
func (c *QuoteClient) GetQuote(ctx context.Context, service types.ServiceID, src, dst *types.Token, amount *big.Int) (*types.Quote, error) {
	agg, ok := c.services[service]
	if !ok {
		return nil, fmt.Errorf("no client for service %s", service)
	}

	label := string(service)
	c.metrics.Requests.WithLabelValues(label).Inc()
	start := time.Now()
	quote, err := agg.GetQuote(ctx, src, dst, amount)
	c.metrics.Latency.WithLabelValues(label).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.Failures.WithLabelValues(label, dex.KindOf(err)).Inc()
		return nil, err
	}

	c.logger.Info("Quote received",
		zap.String("service", label),
		zap.Stringer("src", src),
		zap.Stringer("dest", dst),
		zap.String("amount_in", amount.String()),
		zap.String("amount_out", quote.DestAmount.String()))

	return quote, nil
}

func indexAggregators(aggregators []dex.Aggregator) map[types.ServiceID]dex.Aggregator {
	services := make(map[types.ServiceID]dex.Aggregator, len(aggregators))
	for _, agg := range aggregators {
		services[agg.Name()] = agg
	}
	return services
}
