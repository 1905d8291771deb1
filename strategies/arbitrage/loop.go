package arbitrage

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/executor"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/flashloan"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const DefaultInterval = time.Second

// State of the arbitrage loop
type State int32

const (
	StateScanning State = iota
	StateExecuting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateExecuting:
		return "executing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Executor submits an accepted arbitrage on-chain
type Executor interface {
	Execute(ctx context.Context, req executor.Request) (*types.Execution, error)
}

// Config contains loop settings
type Config struct {
	FlashLoan common.Address
	Interval  time.Duration
	// StopAfterExecution ends the loop after the first mined transaction,
	// reverted or not
	StopAfterExecution bool
}

type route struct {
	direction types.Direction
	first     types.ServiceID
	second    types.ServiceID
}

// Each iteration tries Paraswap then KyberSwap, and then the mirrored order
var routes = [2]route{
	{direction: types.DirectionAtoB, first: types.ServiceParaswap, second: types.ServiceKyberswap},
	{direction: types.DirectionBtoA, first: types.ServiceKyberswap, second: types.ServiceParaswap},
}

// Loop scans both directions of the round trip on a fixed cadence and
// executes the first accepted opportunity
type Loop struct {
	cfg       Config
	loanToken *types.Token
	target    *types.Token
	facility  flashloan.Facility
	quotes    *QuoteClient
	builder   *PayloadBuilder
	executor  Executor
	logger    *zap.Logger
	metrics   *metrics.LoopMetrics

	state atomic.Int32
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLoop creates the loop for the loanToken/target pair
func NewLoop(cfg Config, loanToken, target *types.Token, facility flashloan.Facility, quotes *QuoteClient, builder *PayloadBuilder, exec Executor, logger *zap.Logger, m *metrics.LoopMetrics) (*Loop, error) {
	if !loanToken.IsLoanToken() {
		return nil, fmt.Errorf("%w: %s is not a loan token", types.ErrConfiguration, loanToken)
	}
	if loanToken.Address == target.Address {
		return nil, fmt.Errorf("%w: loan and target token are the same", types.ErrConfiguration)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	return &Loop{
		cfg:       cfg,
		loanToken: loanToken,
		target:    target,
		facility:  facility,
		quotes:    quotes,
		builder:   builder,
		executor:  exec,
		logger:    logger.With(zap.Stringer("loan_token", loanToken), zap.Stringer("target", target)),
		metrics:   m,
		sleep:     sleepContext,
	}, nil
}

// State returns the current loop state
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.metrics.State.Set(float64(s))
}

// Run scans until ctx is done, or until the first execution when
// StopAfterExecution is set
func (l *Loop) Run(ctx context.Context) error {
	l.setState(StateScanning)
	l.logger.Info("Arbitrage loop started",
		zap.Duration("interval", l.cfg.Interval),
		zap.Bool("stop_after_execution", l.cfg.StopAfterExecution))

	for {
		if ctx.Err() != nil {
			break
		}
		if stop := l.iterate(ctx); stop {
			break
		}
		if err := l.sleep(ctx, l.cfg.Interval); err != nil {
			break
		}
	}

	l.setState(StateStopped)
	l.logger.Info("Arbitrage loop stopped")
	return nil
}

// iterate runs both directions once and reports whether the loop is done
func (l *Loop) iterate(ctx context.Context) bool {
	l.metrics.Iterations.Inc()

	loanAmount, err := l.facility.MaxFlashLoan(ctx, l.loanToken)
	if err != nil {
		l.logger.Error("Failed to get flash loan capacity", zap.Error(err))
		return false
	}
	desired := DesiredMinimumOutput(loanAmount, l.loanToken.ProfitThreshold)
	fields := []zap.Field{
		zap.String("loan_amount", loanAmount.String()),
		zap.String("loan_amount_tokens", math.FromBaseUnits(loanAmount, l.loanToken.Decimals).String()),
		zap.String("desired_amount", desired.String()),
	}
	if fee, err := l.facility.FlashFee(ctx, l.loanToken, loanAmount); err != nil {
		l.logger.Warn("Failed to get flash loan fee", zap.Error(err))
	} else {
		fields = append(fields, zap.String("flash_fee", fee.String()))
	}
	l.logger.Info("Scanning", fields...)

	for i, r := range routes {
		if i > 0 {
			if err := l.sleep(ctx, l.cfg.Interval); err != nil {
				return false
			}
		}

		execution, err := l.attempt(ctx, r, loanAmount, desired)
		if err != nil {
			l.logger.Warn("Attempt aborted",
				zap.Stringer("direction", r.direction),
				zap.Error(err))
			continue
		}
		if execution != nil && l.cfg.StopAfterExecution {
			return true
		}
	}
	return false
}

// attempt runs one direction. It returns a nil execution when there is no
// opportunity.
func (l *Loop) attempt(ctx context.Context, r route, loanAmount, desired *big.Int) (*types.Execution, error) {
	l.metrics.Attempts.WithLabelValues(r.direction.String()).Inc()

	leg1, err := l.quotes.GetQuote(ctx, r.first, l.loanToken, l.target, loanAmount)
	if err != nil {
		return nil, fmt.Errorf("leg 1 quote: %w", err)
	}
	leg2, err := l.quotes.GetQuote(ctx, r.second, l.target, l.loanToken, leg1.DestAmount)
	if err != nil {
		return nil, fmt.Errorf("leg 2 quote: %w", err)
	}

	attempt := &types.Attempt{
		Direction:            r.direction,
		Leg1:                 leg1,
		Leg2:                 leg2,
		DesiredMinimumOutput: desired,
	}
	if !Evaluate(attempt.DesiredMinimumOutput, attempt.Leg2) {
		l.logger.Debug("No opportunity",
			zap.Stringer("direction", r.direction),
			zap.String("amount_out", leg2.DestAmount.String()),
			zap.String("desired_amount", desired.String()))
		return nil, nil
	}

	l.metrics.Opportunities.WithLabelValues(r.direction.String()).Inc()
	l.logger.Info("Arbitrage found",
		zap.Stringer("direction", r.direction),
		zap.String("first", string(r.first)),
		zap.String("second", string(r.second)),
		zap.String("amount_out", leg2.DestAmount.String()),
		zap.String("profit", new(big.Int).Sub(leg2.DestAmount, loanAmount).String()))

	payloads, err := l.builder.BuildPair(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	l.setState(StateExecuting)
	defer l.setState(StateScanning)

	execution, err := l.executor.Execute(ctx, executor.Request{
		FlashLoan:  l.cfg.FlashLoan,
		LoanAmount: loanAmount,
		Source:     l.loanToken,
		Dest:       l.target,
		Payloads:   payloads,
		Direction:  r.direction,
	})
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return execution, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
