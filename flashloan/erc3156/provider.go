package erc3156

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/flashloan"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ERC-3156 lender ABI, read-only subset
const lenderABI = `[
	{
		"inputs": [
			{
				"internalType": "address",
				"name": "token",
				"type": "address"
			}
		],
		"name": "maxFlashLoan",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "",
				"type": "uint256"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{
				"internalType": "address",
				"name": "token",
				"type": "address"
			},
			{
				"internalType": "uint256",
				"name": "amount",
				"type": "uint256"
			}
		],
		"name": "flashFee",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "",
				"type": "uint256"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Caller is the read-only contract call the provider needs
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Provider reads borrowing capacity from an ERC-3156 lender
type Provider struct {
	client  Caller
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
	metrics *metrics.FlashLoanMetrics
}

var _ flashloan.Facility = (*Provider)(nil)

// NewProvider creates a provider for the lender at address
func NewProvider(client Caller, address common.Address, logger *zap.Logger, m *metrics.FlashLoanMetrics) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("%w: flash loan address must be set", types.ErrConfiguration)
	}

	parsedABI, err := abi.JSON(strings.NewReader(lenderABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return &Provider{
		client:  client,
		address: address,
		abi:     parsedABI,
		logger:  logger,
		metrics: m,
	}, nil
}

// MaxFlashLoan implements flashloan.Facility
func (p *Provider) MaxFlashLoan(ctx context.Context, token *types.Token) (*big.Int, error) {
	amount, err := p.callUint(ctx, "maxFlashLoan", token.Address)
	if err != nil {
		p.metrics.Errors.Inc()
		return nil, fmt.Errorf("failed to read max flash loan for %s: %w", token.Symbol, err)
	}

	whole, _ := math.FromBaseUnits(amount, token.Decimals).Float64()
	p.metrics.Capacity.WithLabelValues(token.Symbol).Set(whole)

	p.logger.Debug("Flash loan capacity",
		zap.String("token", token.Symbol),
		zap.String("amount", amount.String()))

	return amount, nil
}

// FlashFee implements flashloan.Facility
func (p *Provider) FlashFee(ctx context.Context, token *types.Token, amount *big.Int) (*big.Int, error) {
	fee, err := p.callUint(ctx, "flashFee", token.Address, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to read flash fee for %s: %w", token.Symbol, err)
	}
	return fee, nil
}

func (p *Provider) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	callData, err := p.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := p.client.CallContract(ctx, ethereum.CallMsg{
		To:   &p.address,
		Data: callData,
	}, nil)
	if err != nil {
		return nil, err
	}

	out, err := p.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result %T", method, out[0])
	}
	return value, nil
}

func (p *Provider) String() string {
	return "erc3156:" + p.address.Hex()
}
