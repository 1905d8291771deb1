package gas

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockSource struct {
	mu     sync.Mutex
	prices []*big.Int
	errs   []error
	calls  int
}

func (m *mockSource) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.prices) {
		return m.prices[i], nil
	}
	return m.prices[len(m.prices)-1], nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestFeePriceState(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("Unset", func(t *testing.T) {
		state := NewFeePriceState()
		_, _, err := state.Current(now, 0)
		assert.ErrorIs(t, err, types.ErrFeePriceUnavailable)
	})

	t.Run("Fresh", func(t *testing.T) {
		state := NewFeePriceState()
		state.Set(decimal.NewFromInt(5), now.Add(-500*time.Millisecond))
		gwei, age, err := state.Current(now, time.Second)
		require.NoError(t, err)
		assert.True(t, gwei.Equal(decimal.NewFromInt(5)))
		assert.Equal(t, 500*time.Millisecond, age)
	})

	t.Run("StaleWithoutLimit", func(t *testing.T) {
		state := NewFeePriceState()
		state.Set(decimal.NewFromInt(5), now.Add(-time.Hour))
		_, age, err := state.Current(now, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, age)
	})

	t.Run("StaleWithLimit", func(t *testing.T) {
		state := NewFeePriceState()
		state.Set(decimal.NewFromInt(5), now.Add(-time.Hour))
		_, _, err := state.Current(now, time.Minute)
		assert.ErrorIs(t, err, types.ErrFeePriceStale)
	})
}

func TestMonitorUpdate(t *testing.T) {
	m := metrics.NewNop()
	source := &mockSource{
		prices: []*big.Int{big.NewInt(3_000_000_000), nil, big.NewInt(5_000_000_000)},
		errs:   []error{nil, errors.New("connection refused"), nil},
	}
	state := NewFeePriceState()
	monitor := NewMonitor(source, state, time.Second, zaptest.NewLogger(t), m.Fee)

	require.NoError(t, monitor.update(context.Background()))
	gwei, _, ok := state.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "3", gwei.String())

	// A failed sample leaves the previous value in place
	require.Error(t, monitor.update(context.Background()))
	gwei, _, ok = state.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "3", gwei.String())

	require.NoError(t, monitor.update(context.Background()))
	gwei, _, _ = state.Snapshot()
	assert.Equal(t, "5", gwei.String())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Fee.Samples))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fee.Errors))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.Fee.GasPriceGwei))
}

func TestMonitorRun(t *testing.T) {
	source := &mockSource{prices: []*big.Int{big.NewInt(1_000_000_000)}}
	state := NewFeePriceState()
	monitor := NewMonitor(source, state, 10*time.Millisecond, zaptest.NewLogger(t), metrics.NewNop().Fee)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx) }()

	require.Eventually(t, func() bool { return source.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	gwei, _, ok := state.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "1", gwei.String())
}

func TestFeePriceStateConcurrentAccess(t *testing.T) {
	state := NewFeePriceState()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			state.Set(decimal.NewFromInt(int64(i)), time.Now())
		}(i)
		go func() {
			defer wg.Done()
			state.Snapshot()
		}()
	}
	wg.Wait()
	_, _, ok := state.Snapshot()
	assert.True(t, ok)
}
