package types

import (
	"fmt"
	"math/big"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/utils/math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// TokenInfo is the registry record for a token
type TokenInfo struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// LoanTokenInfo is the registry record for a token that can be flash loaned.
// Profit is expressed in whole tokens.
type LoanTokenInfo struct {
	Address  string          `json:"address"`
	Decimals uint8           `json:"decimals"`
	Vault    string          `json:"vault"`
	Profit   decimal.Decimal `json:"profit"`
}

// Token is immutable once constructed
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8

	// Vault and ProfitThreshold are only set for the loaned asset
	Vault           *common.Address
	ProfitThreshold *big.Int
}

// NewToken builds a token from its registry record, checksumming the address
func NewToken(symbol string, info TokenInfo) (*Token, error) {
	addr, err := ParseAddress(info.Address)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", symbol, err)
	}
	return &Token{
		Symbol:   symbol,
		Address:  addr,
		Decimals: info.Decimals,
	}, nil
}

// NewLoanToken builds the loaned token. The profit threshold is converted to
// base units using the token's decimals.
func NewLoanToken(symbol string, info LoanTokenInfo) (*Token, error) {
	token, err := NewToken(symbol, TokenInfo{Address: info.Address, Decimals: info.Decimals})
	if err != nil {
		return nil, err
	}

	if info.Vault != "" {
		vault, err := ParseAddress(info.Vault)
		if err != nil {
			return nil, fmt.Errorf("token %s vault: %w", symbol, err)
		}
		token.Vault = &vault
	}

	if info.Profit.IsNegative() {
		return nil, fmt.Errorf("token %s: %w: negative profit threshold", symbol, ErrConfiguration)
	}
	if !info.Profit.Shift(int32(info.Decimals)).IsInteger() {
		return nil, fmt.Errorf("token %s: %w: profit %s is finer than %d decimals", symbol, ErrConfiguration, info.Profit, info.Decimals)
	}
	token.ProfitThreshold = math.ToBaseUnits(info.Profit, info.Decimals)

	return token, nil
}

// IsLoanToken reports whether the token carries loan parameters
func (t *Token) IsLoanToken() bool {
	return t.ProfitThreshold != nil
}

func (t *Token) String() string {
	return t.Symbol
}

// ParseAddress validates a hex address and returns it in canonical form
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", ErrConfiguration, s)
	}
	return common.HexToAddress(s), nil
}

// ChecksumAddress returns the EIP-55 form of s. It is idempotent.
func ChecksumAddress(s string) (string, error) {
	addr, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}
