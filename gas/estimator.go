package gas

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultPollInterval = time.Second

// PriceSource is the part of the RPC client the monitor needs
type PriceSource interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// FeePriceState holds the latest gas price sample. The monitor is its only
// writer; readers take a snapshot. The lock is never held across I/O.
type FeePriceState struct {
	mu        sync.Mutex
	gwei      decimal.Decimal
	sampled   bool
	updatedAt time.Time
}

// NewFeePriceState returns a state with no sample yet
func NewFeePriceState() *FeePriceState {
	return &FeePriceState{}
}

// Set replaces the current sample
func (s *FeePriceState) Set(gwei decimal.Decimal, at time.Time) {
	s.mu.Lock()
	s.gwei = gwei
	s.sampled = true
	s.updatedAt = at
	s.mu.Unlock()
}

// Snapshot returns the latest sample, when it was taken and whether any
// sample exists at all
func (s *FeePriceState) Snapshot() (gwei decimal.Decimal, updatedAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gwei, s.updatedAt, s.sampled
}

// Current returns the latest sample or ErrFeePriceUnavailable. When maxAge
// is positive, samples older than maxAge yield ErrFeePriceStale.
func (s *FeePriceState) Current(now time.Time, maxAge time.Duration) (decimal.Decimal, time.Duration, error) {
	gwei, updatedAt, ok := s.Snapshot()
	if !ok {
		return decimal.Zero, 0, types.ErrFeePriceUnavailable
	}
	age := now.Sub(updatedAt)
	if maxAge > 0 && age > maxAge {
		return decimal.Zero, age, fmt.Errorf("%w: age %s exceeds %s", types.ErrFeePriceStale, age, maxAge)
	}
	return gwei, age, nil
}

// Monitor polls the network gas price on a fixed interval
type Monitor struct {
	source   PriceSource
	state    *FeePriceState
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.FeeMetrics
	now      func() time.Time
}

// NewMonitor creates a gas price monitor writing into state
func NewMonitor(source PriceSource, state *FeePriceState, interval time.Duration, logger *zap.Logger, m *metrics.FeeMetrics) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		source:   source,
		state:    state,
		interval: interval,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// Run samples immediately and then once per interval until ctx is done.
// Failures keep the previous sample.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.update(ctx); err != nil {
			m.logger.Error("Failed to update gas price", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// update fetches the latest gas price
func (m *Monitor) update(ctx context.Context) error {
	wei, err := m.source.SuggestGasPrice(ctx)
	if err != nil {
		m.metrics.Errors.Inc()
		return fmt.Errorf("failed to get gas price: %w", err)
	}
	if wei == nil {
		m.metrics.Errors.Inc()
		return fmt.Errorf("node returned empty gas price")
	}

	gwei := math.WeiToGwei(wei)
	m.state.Set(gwei, m.now())

	m.metrics.Samples.Inc()
	m.metrics.GasPriceGwei.Set(gwei.InexactFloat64())
	m.logger.Debug("Gas price updated", zap.String("gwei", gwei.String()))

	return nil
}
