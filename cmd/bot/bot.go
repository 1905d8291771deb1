package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/chain"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/config"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex/kyberswap"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex/paraswap"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/executor"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/flashloan/erc3156"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/gas"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/strategies/arbitrage"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/tokens"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner is a long running component
type Runner interface {
	Run(ctx context.Context) error
}

// Bot represents the arbitrage bot instance
type Bot struct {
	cfg      *config.Config
	client   *ethclient.Client
	monitor  Runner
	loop     Runner
	registry *prometheus.Registry
	logger   *zap.Logger
}

// New connects to the node and wires every component for the
// loanSymbol/targetSymbol pair
func New(ctx context.Context, cfg *config.Config, secrets *config.Secrets, loanSymbol, targetSymbol string, logger *zap.Logger) (*Bot, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry, metrics.DefaultNamespace)

	client, err := chain.Dial(ctx, cfg.RPCURL())
	if err != nil {
		return nil, err
	}

	b, err := wire(ctx, cfg, secrets, client, loanSymbol, targetSymbol, m, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	b.client = client
	b.registry = registry
	return b, nil
}

func wire(ctx context.Context, cfg *config.Config, secrets *config.Secrets, client chain.Client, loanSymbol, targetSymbol string, m *metrics.Metrics, logger *zap.Logger) (*Bot, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		logger.Warn("Node chain id differs from configuration",
			zap.Uint64("configured", cfg.ChainID),
			zap.Stringer("node", chainID))
	}

	wallet, err := chain.NewWallet(secrets.PrivateKey, chainID)
	if err != nil {
		return nil, err
	}
	balance, err := wallet.EnsureFunded(ctx, client)
	if err != nil {
		return nil, err
	}
	logger.Info("Wallet loaded",
		zap.String("address", wallet.Address().Hex()),
		zap.String("balance_gwei", math.WeiToGwei(balance).String()))

	identities, err := dex.NewRoundRobinPool(cfg.Proxies)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrConfiguration, err)
	}
	logger.Info("Outbound identities", zap.Int("count", identities.Len()))
	para := paraswap.New(paraswap.Config{
		Transport:   transportConfig(cfg.Paraswap.ServiceConfig),
		Network:     cfg.Paraswap.Network,
		MaxImpact:   cfg.Paraswap.MaxImpact,
		SlippageBps: cfg.Paraswap.SlippageBps,
	}, identities, logger.Named("paraswap"))
	kyber := kyberswap.New(kyberswap.Config{
		Transport:   transportConfig(cfg.Kyberswap.ServiceConfig),
		ClientID:    cfg.Kyberswap.ClientID,
		SlippageBps: cfg.Kyberswap.SlippageBps,
	}, identities, logger.Named("kyberswap"))

	registry, err := tokens.Load(ctx, cfg.TokenFile, cfg.LoanTokenFile, para, logger)
	if err != nil {
		return nil, err
	}
	loanToken, err := registry.LoanToken(loanSymbol)
	if err != nil {
		return nil, err
	}
	target, err := registry.Token(targetSymbol)
	if err != nil {
		return nil, err
	}

	contract := common.HexToAddress(cfg.ArbitrageAddress)
	flashLoan := common.HexToAddress(cfg.FlashLoanAddress)

	facility, err := erc3156.NewProvider(client, flashLoan, logger, m.FlashLoan)
	if err != nil {
		return nil, err
	}

	fees := gas.NewFeePriceState()
	monitor := gas.NewMonitor(client, fees, cfg.FeePollInterval.Duration, logger.Named("gas"), m.Fee)

	var contractABI abi.ABI
	if cfg.ArbitrageABIFile != "" {
		if contractABI, err = executor.LoadABI(cfg.ArbitrageABIFile); err != nil {
			return nil, err
		}
	}
	dedup, err := executor.NewDedup(cfg.DedupCacheSize)
	if err != nil {
		return nil, err
	}
	coordinator, err := executor.NewCoordinator(client, wallet, fees, executor.Config{
		Contract:       contract,
		GasLimit:       cfg.GasLimit,
		MaxFeePriceAge: cfg.MaxFeePriceAge.Duration,
		ABI:            contractABI,
	}, dedup, logger.Named("executor"), m.Execution)
	if err != nil {
		return nil, err
	}

	aggregators := []dex.Aggregator{para, kyber}
	loop, err := arbitrage.NewLoop(arbitrage.Config{
		FlashLoan:          flashLoan,
		Interval:           cfg.LoopInterval.Duration,
		StopAfterExecution: cfg.StopAfterExecution,
	},
		loanToken,
		target,
		facility,
		arbitrage.NewQuoteClient(aggregators, logger, m.Quotes),
		arbitrage.NewPayloadBuilder(aggregators, contract, logger, m.Quotes),
		coordinator,
		logger.Named("arbitrage"),
		m.Loop,
	)
	if err != nil {
		return nil, err
	}

	return &Bot{
		cfg:     cfg,
		monitor: monitor,
		loop:    loop,
		logger:  logger,
	}, nil
}

func transportConfig(s config.ServiceConfig) dex.TransportConfig {
	return dex.TransportConfig{
		BaseURL:           s.BaseURL,
		Timeout:           s.Timeout.Duration,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
	}
}

// Run starts the gas monitor and the metrics server and blocks on the
// arbitrage loop. Background components stop once the loop returns.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting arbitrage bot...")

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.monitor.Run(gctx)
	})

	if b.cfg.Metrics.Enabled && b.registry != nil {
		g.Go(func() error {
			if err := metrics.Serve(gctx, b.cfg.Metrics.Listen, b.registry, b.logger); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stop()
		return b.loop.Run(gctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	b.logger.Info("Arbitrage bot stopped")
	return err
}

// Close releases the node connection
func (b *Bot) Close() {
	if b.client != nil {
		b.client.Close()
	}
}
