package tokens

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Registry resolves token symbols to validated tokens
type Registry struct {
	tokens     map[string]types.TokenInfo
	loanTokens map[string]types.LoanTokenInfo
}

func NewRegistry(tokens map[string]types.TokenInfo, loanTokens map[string]types.LoanTokenInfo) *Registry {
	return &Registry{tokens: tokens, loanTokens: loanTokens}
}

// Load builds a registry from the token cache file and the loan token file.
// A missing cache file is populated from catalog and written once.
func Load(ctx context.Context, tokenFile, loanTokenFile string, catalog dex.TokenCatalog, logger *zap.Logger) (*Registry, error) {
	tokens, err := LoadOrFetch(ctx, tokenFile, catalog, logger)
	if err != nil {
		return nil, err
	}
	loanTokens, err := LoadLoanTokens(loanTokenFile)
	if err != nil {
		return nil, err
	}
	return NewRegistry(tokens, loanTokens), nil
}

// LoadOrFetch reads path, or fetches the catalog and writes it to path
func LoadOrFetch(ctx context.Context, path string, catalog dex.TokenCatalog, logger *zap.Logger) (map[string]types.TokenInfo, error) {
	tokens := make(map[string]types.TokenInfo)
	err := readJSON(path, &tokens)
	if err == nil {
		logger.Debug("Loaded token registry", zap.String("file", path), zap.Int("tokens", len(tokens)))
		return tokens, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	logger.Info("Token registry not found, fetching catalog", zap.String("file", path))
	tokens, err = catalog.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token catalog: %w", err)
	}
	if err := writeJSON(path, tokens); err != nil {
		return nil, err
	}
	logger.Info("Token registry written", zap.String("file", path), zap.Int("tokens", len(tokens)))
	return tokens, nil
}

// LoadLoanTokens reads the loan token file. It is never fetched remotely.
func LoadLoanTokens(path string) (map[string]types.LoanTokenInfo, error) {
	loanTokens := make(map[string]types.LoanTokenInfo)
	if err := readJSON(path, &loanTokens); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: loan token file %s not found", types.ErrConfiguration, path)
		}
		return nil, err
	}
	return loanTokens, nil
}

// Token resolves a swap target
func (r *Registry) Token(symbol string) (*types.Token, error) {
	info, ok := r.tokens[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown token %s", types.ErrConfiguration, symbol)
	}
	return types.NewToken(symbol, info)
}

// LoanToken resolves the flash loaned asset with its vault and profit threshold
func (r *Registry) LoanToken(symbol string) (*types.Token, error) {
	info, ok := r.loanTokens[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown loan token %s", types.ErrConfiguration, symbol)
	}
	return types.NewLoanToken(symbol, info)
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s: %v", types.ErrConfiguration, path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
