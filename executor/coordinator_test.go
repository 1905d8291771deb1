package executor

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/chain"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/gas"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/testutils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	contract  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	flashPool = common.HexToAddress("0x4444444444444444444444444444444444444444")
	busd      = testutils.BUSD()
	cake      = testutils.CAKE()
)

type mockClient struct {
	chain.Client

	mu            sync.Mutex
	nonce         uint64
	estimateErr   error
	sendErr       error
	receiptStatus uint64
	sent          []*ethtypes.Transaction
}

func (m *mockClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return m.nonce, nil
}

func (m *mockClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if m.estimateErr != nil {
		return 0, m.estimateErr
	}
	return 450_000, nil
}

func (m *mockClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, tx)
	return nil
}

func (m *mockClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	return &ethtypes.Receipt{
		Status:      m.receiptStatus,
		TxHash:      txHash,
		BlockNumber: big.NewInt(36_000_000),
		GasUsed:     400_000,
	}, nil
}

func (m *mockClient) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fixture struct {
	client      *mockClient
	fees        *gas.FeePriceState
	metrics     *metrics.Metrics
	wallet      *chain.Wallet
	coordinator *Coordinator
}

func newFixture(t *testing.T, cfg Config) *fixture {
	wallet, err := chain.NewWallet(testutils.DevPrivateKey, big.NewInt(56))
	require.NoError(t, err)
	dedup, err := NewDedup(16)
	require.NoError(t, err)

	f := &fixture{
		client:  &mockClient{nonce: 7, receiptStatus: ethtypes.ReceiptStatusSuccessful},
		fees:    gas.NewFeePriceState(),
		metrics: metrics.NewNop(),
		wallet:  wallet,
	}
	cfg.Contract = contract
	f.coordinator, err = NewCoordinator(f.client, wallet, f.fees, cfg, dedup, zaptest.NewLogger(t), f.metrics.Execution)
	require.NoError(t, err)
	return f
}

func newRequest(direction types.Direction) Request {
	return Request{
		FlashLoan:  flashPool,
		LoanAmount: big.NewInt(1_000_000),
		Source:     busd,
		Dest:       cake,
		Payloads: [2]*types.SwapPayload{
			{Service: types.ServiceKyberswap, Calldata: []byte{0xbb, 0xbb}},
			{Service: types.ServiceParaswap, Calldata: []byte{0xaa}},
		},
		Direction: direction,
	}
}

func TestExecuteRequiresFeePrice(t *testing.T) {
	f := newFixture(t, Config{})

	_, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	assert.ErrorIs(t, err, types.ErrFeePriceUnavailable)
	assert.Equal(t, 0, f.client.sentCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Execution.Executions.WithLabelValues(statusFeeUnavailable)))
}

func TestExecuteStaleFeePrice(t *testing.T) {
	f := newFixture(t, Config{MaxFeePriceAge: time.Second})
	f.fees.Set(decimal.NewFromInt(3), time.Now().Add(-5*time.Second))

	_, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	assert.ErrorIs(t, err, types.ErrFeePriceStale)
	assert.Equal(t, 0, f.client.sentCount())
}

func TestExecuteSubmitsTransaction(t *testing.T) {
	f := newFixture(t, Config{})
	f.fees.Set(decimal.RequireFromString("3.5"), time.Now())

	execution, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionBtoA))
	require.NoError(t, err)
	require.Equal(t, 1, f.client.sentCount())
	assert.False(t, execution.Reverted())
	assert.Equal(t, types.DirectionBtoA, execution.Direction)

	tx := f.client.sent[0]
	assert.Equal(t, execution.TxHash, tx.Hash())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(DefaultGasLimit), tx.Gas())
	assert.Equal(t, big.NewInt(3_500_000_000), tx.GasPrice())
	assert.Equal(t, contract, *tx.To())

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(56)), tx)
	require.NoError(t, err)
	assert.Equal(t, f.wallet.Address(), sender)

	method := f.coordinator.abi.Methods[executeMethod]
	assert.Equal(t, method.ID, tx.Data()[:4])
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, flashPool, args[0])
	assert.Equal(t, big.NewInt(1_000_000), args[1])
	assert.Equal(t, busd.Address, args[2])
	assert.Equal(t, cake.Address, args[3])
	assert.Equal(t, uint8(1), args[4])
	// paraswap slot comes first whatever the direction
	assert.Equal(t, []byte{0xaa}, args[5])
	assert.Equal(t, []byte{0xbb, 0xbb}, args[6])

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Execution.Executions.WithLabelValues(statusMined)))
}

func TestExecuteEstimateFailureIsInformational(t *testing.T) {
	f := newFixture(t, Config{})
	f.fees.Set(decimal.NewFromInt(3), time.Now())
	f.client.estimateErr = errors.New("execution reverted")

	_, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.sentCount())
}

func TestExecuteReverted(t *testing.T) {
	f := newFixture(t, Config{})
	f.fees.Set(decimal.NewFromInt(3), time.Now())
	f.client.receiptStatus = ethtypes.ReceiptStatusFailed

	execution, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	require.NoError(t, err)
	assert.True(t, execution.Reverted())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Execution.Executions.WithLabelValues(statusReverted)))
}

func TestExecuteDuplicate(t *testing.T) {
	f := newFixture(t, Config{})
	f.fees.Set(decimal.NewFromInt(3), time.Now())

	_, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	require.NoError(t, err)

	_, err = f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	assert.ErrorIs(t, err, types.ErrDuplicateSubmission)
	assert.Equal(t, 1, f.client.sentCount())

	// same payloads in the other direction are a different submission
	_, err = f.coordinator.Execute(context.Background(), newRequest(types.DirectionBtoA))
	require.NoError(t, err)
	assert.Equal(t, 2, f.client.sentCount())
}

func TestExecuteSendFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, Config{})
	f.fees.Set(decimal.NewFromInt(3), time.Now())
	f.client.sendErr = errors.New("insufficient funds for gas")

	_, err := f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	require.Error(t, err)

	f.client.sendErr = nil
	_, err = f.coordinator.Execute(context.Background(), newRequest(types.DirectionAtoB))
	require.NoError(t, err)
	assert.Equal(t, 1, f.client.sentCount())
}

func TestOrderPayloads(t *testing.T) {
	para := &types.SwapPayload{Service: types.ServiceParaswap, Calldata: []byte{1}}
	kyber := &types.SwapPayload{Service: types.ServiceKyberswap, Calldata: []byte{2}}

	tests := []struct {
		name     string
		payloads [2]*types.SwapPayload
		wantErr  bool
	}{
		{"InOrder", [2]*types.SwapPayload{para, kyber}, false},
		{"Swapped", [2]*types.SwapPayload{kyber, para}, false},
		{"BothParaswap", [2]*types.SwapPayload{para, para}, true},
		{"Missing", [2]*types.SwapPayload{para, nil}, true},
		{"Unknown", [2]*types.SwapPayload{para, {Service: "oneinch"}}, true},
		{"EmptyCalldata", [2]*types.SwapPayload{para, {Service: types.ServiceKyberswap, Calldata: []byte{}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, k, err := orderPayloads(tt.payloads)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte{1}, p)
			assert.Equal(t, []byte{2}, k)
		})
	}
}

func TestNewCoordinatorValidation(t *testing.T) {
	_, err := NewCoordinator(&mockClient{}, nil, gas.NewFeePriceState(), Config{}, nil, zaptest.NewLogger(t), metrics.NewNop().Execution)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
