package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/chain"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/gas"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const DefaultGasLimit = 8_000_000

// Execution outcome labels
const (
	statusFeeUnavailable = "fee_unavailable"
	statusInvalid        = "invalid"
	statusDuplicate      = "duplicate"
	statusSendFailed     = "send_failed"
	statusWaitFailed     = "wait_failed"
	statusMined          = "mined"
	statusReverted       = "reverted"
)

// Signer signs transactions for the sending account
type Signer interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction) (*ethtypes.Transaction, error)
}

// Config contains coordinator settings
type Config struct {
	Contract common.Address
	GasLimit uint64
	// MaxFeePriceAge rejects fee samples older than this. Zero disables
	// the check.
	MaxFeePriceAge time.Duration
	// ABI overrides the built-in contract ABI when it has methods
	ABI abi.ABI
}

// Request describes one arbitrage execution
type Request struct {
	FlashLoan  common.Address
	LoanAmount *big.Int
	Source     *types.Token
	Dest       *types.Token
	Payloads   [2]*types.SwapPayload
	Direction  types.Direction
}

// Coordinator packs both swap payloads into a single contract call, submits
// it and waits for it to be mined
type Coordinator struct {
	client  chain.Client
	signer  Signer
	fees    *gas.FeePriceState
	cfg     Config
	abi     abi.ABI
	dedup   *Dedup
	logger  *zap.Logger
	metrics *metrics.ExecutionMetrics
	now     func() time.Time
}

// NewCoordinator creates a coordinator. dedup may be nil.
func NewCoordinator(client chain.Client, signer Signer, fees *gas.FeePriceState, cfg Config, dedup *Dedup, logger *zap.Logger, m *metrics.ExecutionMetrics) (*Coordinator, error) {
	if cfg.Contract == (common.Address{}) {
		return nil, fmt.Errorf("%w: arbitrage contract address must be set", types.ErrConfiguration)
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}

	contractABI := cfg.ABI
	if len(contractABI.Methods) == 0 {
		contractABI = DefaultABI()
	}
	if _, ok := contractABI.Methods[executeMethod]; !ok {
		return nil, fmt.Errorf("%w: ABI has no %s method", types.ErrConfiguration, executeMethod)
	}

	return &Coordinator{
		client:  client,
		signer:  signer,
		fees:    fees,
		cfg:     cfg,
		abi:     contractABI,
		dedup:   dedup,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Execute submits the arbitrage and blocks until it is mined. A reverted
// transaction is returned without error; callers check Execution.Reverted.
func (c *Coordinator) Execute(ctx context.Context, req Request) (*types.Execution, error) {
	gwei, age, err := c.fees.Current(c.now(), c.cfg.MaxFeePriceAge)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusFeeUnavailable).Inc()
		return nil, err
	}

	paraswapData, kyberswapData, err := orderPayloads(req.Payloads)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusInvalid).Inc()
		return nil, err
	}

	var key uint64
	if c.dedup != nil {
		key = Key(req.Direction, paraswapData, kyberswapData)
		if c.dedup.Seen(key) {
			c.metrics.Executions.WithLabelValues(statusDuplicate).Inc()
			return nil, types.ErrDuplicateSubmission
		}
	}

	data, err := c.abi.Pack(executeMethod,
		req.FlashLoan,
		req.LoanAmount,
		req.Source.Address,
		req.Dest.Address,
		uint8(req.Direction),
		paraswapData,
		kyberswapData,
	)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusInvalid).Inc()
		return nil, fmt.Errorf("failed to pack %s: %w", executeMethod, err)
	}

	from := c.signer.Address()
	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusSendFailed).Inc()
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice := math.GweiToWei(gwei)
	c.logger.Info("Preparing arbitrage transaction",
		zap.Stringer("direction", req.Direction),
		zap.String("loan_amount", req.LoanAmount.String()),
		zap.String("gas_price_gwei", gwei.String()),
		zap.Duration("fee_sample_age", age),
		zap.Uint64("nonce", nonce))

	c.estimateGas(ctx, from, gasPrice, data)

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.cfg.GasLimit,
		To:       &c.cfg.Contract,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := c.signer.SignTx(tx)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusSendFailed).Inc()
		return nil, err
	}

	if err := c.client.SendTransaction(ctx, signed); err != nil {
		c.metrics.Executions.WithLabelValues(statusSendFailed).Inc()
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	if c.dedup != nil {
		c.dedup.Mark(key)
	}
	c.logger.Info("Arbitrage transaction sent", zap.String("tx_hash", signed.Hash().Hex()))

	start := c.now()
	receipt, err := bind.WaitMined(ctx, c.client, signed)
	if err != nil {
		c.metrics.Executions.WithLabelValues(statusWaitFailed).Inc()
		return nil, fmt.Errorf("failed waiting for %s: %w", signed.Hash().Hex(), err)
	}
	c.metrics.WaitDuration.Observe(c.now().Sub(start).Seconds())

	execution := &types.Execution{
		Direction: req.Direction,
		TxHash:    signed.Hash(),
		Receipt:   receipt,
	}
	if execution.Reverted() {
		c.metrics.Executions.WithLabelValues(statusReverted).Inc()
		c.logger.Warn("Arbitrage transaction reverted",
			zap.String("tx_hash", signed.Hash().Hex()),
			zap.Stringer("block", receipt.BlockNumber),
			zap.Uint64("gas_used", receipt.GasUsed))
	} else {
		c.metrics.Executions.WithLabelValues(statusMined).Inc()
		c.logger.Info("Arbitrage transaction mined",
			zap.String("tx_hash", signed.Hash().Hex()),
			zap.Stringer("block", receipt.BlockNumber),
			zap.Uint64("gas_used", receipt.GasUsed))
	}

	return execution, nil
}

// estimateGas is informational only
func (c *Coordinator) estimateGas(ctx context.Context, from common.Address, gasPrice *big.Int, data []byte) {
	estimate, err := c.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     from,
		To:       &c.cfg.Contract,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if reason, ok := RevertReason(err); ok {
			fields = append(fields, zap.String("revert_reason", reason))
		}
		c.logger.Warn("Gas estimation failed", fields...)
		return
	}
	c.metrics.GasEstimate.Observe(float64(estimate))
	c.logger.Info("Estimated gas for transaction",
		zap.Uint64("estimate", estimate),
		zap.Uint64("limit", c.cfg.GasLimit))
}

var errPayloadPair = errors.New("payload pair must contain one paraswap and one kyberswap payload")

// orderPayloads places each payload in its contract slot. The contract
// takes paraswap calldata first regardless of direction.
func orderPayloads(payloads [2]*types.SwapPayload) (paraswapData, kyberswapData []byte, err error) {
	for _, p := range payloads {
		if p == nil || len(p.Calldata) == 0 {
			return nil, nil, errPayloadPair
		}
		switch p.Service {
		case types.ServiceParaswap:
			if paraswapData != nil {
				return nil, nil, errPayloadPair
			}
			paraswapData = p.Calldata
		case types.ServiceKyberswap:
			if kyberswapData != nil {
				return nil, nil, errPayloadPair
			}
			kyberswapData = p.Calldata
		default:
			return nil, nil, fmt.Errorf("unknown payload service %q", p.Service)
		}
	}
	if paraswapData == nil || kyberswapData == nil {
		return nil, nil, errPayloadPair
	}
	return paraswapData, kyberswapData, nil
}
