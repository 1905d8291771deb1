package arbitrage

import (
	"context"
	"math/big"
	"sync"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/executor"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
)

type buildCall struct {
	quote     *types.Quote
	executor  common.Address
	recipient common.Address
}

// mockAggregator prices every swap with quoteFn and records builds
type mockAggregator struct {
	name     types.ServiceID
	quoteFn  func(src, dst *types.Token, amount *big.Int) (*big.Int, error)
	buildErr error

	mu     sync.Mutex
	quotes int
	builds []buildCall
}

func (m *mockAggregator) Name() types.ServiceID { return m.name }

func (m *mockAggregator) SlippageBps() uint64 { return 2000 }

func (m *mockAggregator) GetQuote(ctx context.Context, src, dst *types.Token, amount *big.Int) (*types.Quote, error) {
	m.mu.Lock()
	m.quotes++
	m.mu.Unlock()

	out, err := m.quoteFn(src, dst, amount)
	if err != nil {
		return nil, err
	}
	return &types.Quote{
		Service:      m.name,
		Source:       src,
		Dest:         dst,
		SourceAmount: amount,
		DestAmount:   out,
	}, nil
}

func (m *mockAggregator) BuildSwap(ctx context.Context, quote *types.Quote, executor, recipient common.Address) (*types.SwapPayload, error) {
	m.mu.Lock()
	m.builds = append(m.builds, buildCall{quote: quote, executor: executor, recipient: recipient})
	m.mu.Unlock()

	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return &types.SwapPayload{Service: m.name, Calldata: []byte(m.name)}, nil
}

type mockFacility struct {
	amount *big.Int
	err    error
	fee    *big.Int
	feeErr error

	mu       sync.Mutex
	feeCalls int
}

func (m *mockFacility) MaxFlashLoan(ctx context.Context, token *types.Token) (*big.Int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return new(big.Int).Set(m.amount), nil
}

func (m *mockFacility) FlashFee(ctx context.Context, token *types.Token, amount *big.Int) (*big.Int, error) {
	m.mu.Lock()
	m.feeCalls++
	m.mu.Unlock()
	if m.feeErr != nil {
		return nil, m.feeErr
	}
	if m.fee == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(m.fee), nil
}

func (m *mockFacility) String() string { return "mock" }

type mockExecutor struct {
	mu       sync.Mutex
	requests []executor.Request
	err      error
}

func (m *mockExecutor) Execute(ctx context.Context, req executor.Request) (*types.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &types.Execution{Direction: req.Direction}, nil
}

func (m *mockExecutor) calls() []executor.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]executor.Request(nil), m.requests...)
}
