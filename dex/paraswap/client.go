package paraswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://apiv5.paraswap.io"
	DefaultNetwork     = 56
	DefaultMaxImpact   = 100
	DefaultSlippageBps = 9000

	sideSell = "SELL"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Config contains Paraswap specific settings
type Config struct {
	Transport   dex.TransportConfig
	Network     uint64
	MaxImpact   int
	SlippageBps uint64
}

// Client implements dex.Aggregator for the Paraswap API
type Client struct {
	transport *dex.HTTPTransport
	network   uint64
	maxImpact int
	slippage  uint64
	logger    *zap.Logger
}

var (
	_ dex.Aggregator   = (*Client)(nil)
	_ dex.TokenCatalog = (*Client)(nil)
)

// New creates a Paraswap client. identities may be nil.
func New(cfg Config, identities dex.IdentityPool, logger *zap.Logger) *Client {
	if cfg.Transport.BaseURL == "" {
		cfg.Transport.BaseURL = DefaultBaseURL
	}
	if cfg.Network == 0 {
		cfg.Network = DefaultNetwork
	}
	if cfg.MaxImpact == 0 {
		cfg.MaxImpact = DefaultMaxImpact
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	return &Client{
		transport: dex.NewHTTPTransport(types.ServiceParaswap, cfg.Transport, identities, logger),
		network:   cfg.Network,
		maxImpact: cfg.MaxImpact,
		slippage:  cfg.SlippageBps,
		logger:    logger,
	}
}

// Name returns the service identifier
func (c *Client) Name() types.ServiceID {
	return types.ServiceParaswap
}

// SlippageBps returns the build slippage tolerance
func (c *Client) SlippageBps() uint64 {
	return c.slippage
}

type pricesResponse struct {
	PriceRoute json.RawMessage `json:"priceRoute"`
	Error      string          `json:"error"`
}

type priceRoute struct {
	SrcAmount  string `json:"srcAmount"`
	DestAmount string `json:"destAmount"`
}

// GetQuote requests a SELL price route
func (c *Client) GetQuote(ctx context.Context, src, dst *types.Token, amount *big.Int) (*types.Quote, error) {
	query := url.Values{}
	query.Set("srcToken", src.Address.Hex())
	query.Set("srcDecimals", strconv.Itoa(int(src.Decimals)))
	query.Set("destToken", dst.Address.Hex())
	query.Set("destDecimals", strconv.Itoa(int(dst.Decimals)))
	query.Set("amount", amount.String())
	query.Set("side", sideSell)
	query.Set("network", strconv.FormatUint(c.network, 10))
	query.Set("maxImpact", strconv.Itoa(c.maxImpact))

	var resp pricesResponse
	if err := c.transport.Do(ctx, dex.Request{
		Op:     "quote",
		Path:   "/prices",
		Query:  query,
		Rotate: true,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, dex.Rejected(types.ServiceParaswap, "quote", 0, errors.New(resp.Error))
	}
	if len(resp.PriceRoute) == 0 || string(resp.PriceRoute) == "null" {
		return nil, dex.Rejected(types.ServiceParaswap, "quote", 0, errors.New("response missing priceRoute"))
	}

	var route priceRoute
	if err := jsonAPI.Unmarshal(resp.PriceRoute, &route); err != nil {
		return nil, dex.Rejected(types.ServiceParaswap, "quote", 0, fmt.Errorf("malformed priceRoute: %w", err))
	}
	destAmount, ok := new(big.Int).SetString(route.DestAmount, 10)
	if !ok || destAmount.Sign() < 0 {
		return nil, dex.Rejected(types.ServiceParaswap, "quote", 0, fmt.Errorf("invalid destAmount %q", route.DestAmount))
	}
	srcAmount := new(big.Int).Set(amount)
	if route.SrcAmount != "" {
		if parsed, ok := new(big.Int).SetString(route.SrcAmount, 10); ok {
			srcAmount = parsed
		}
	}

	return &types.Quote{
		Service:      types.ServiceParaswap,
		Source:       src,
		Dest:         dst,
		SourceAmount: srcAmount,
		DestAmount:   destAmount,
		Route:        resp.PriceRoute,
	}, nil
}

type transactionRequest struct {
	PriceRoute   json.RawMessage `json:"priceRoute"`
	UserAddress  string          `json:"userAddress"`
	SrcToken     string          `json:"srcToken"`
	SrcDecimals  uint8           `json:"srcDecimals"`
	DestToken    string          `json:"destToken"`
	DestDecimals uint8           `json:"destDecimals"`
	SrcAmount    string          `json:"srcAmount"`
	Slippage     uint64          `json:"slippage"`
	Receiver     string          `json:"receiver"`
}

type transactionResponse struct {
	Data  string `json:"data"`
	Error string `json:"error"`
}

// BuildSwap requests transaction calldata for a previously returned route
func (c *Client) BuildSwap(ctx context.Context, quote *types.Quote, executor, recipient common.Address) (*types.SwapPayload, error) {
	if quote.Service != types.ServiceParaswap {
		return nil, dex.Rejected(types.ServiceParaswap, "build", 0, fmt.Errorf("quote issued by %s", quote.Service))
	}

	query := url.Values{}
	query.Set("ignoreChecks", "true")

	var resp transactionResponse
	if err := c.transport.Do(ctx, dex.Request{
		Op:     "build",
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/transactions/%d", c.network),
		Query:  query,
		Body: transactionRequest{
			PriceRoute:   quote.Route,
			UserAddress:  executor.Hex(),
			SrcToken:     quote.Source.Address.Hex(),
			SrcDecimals:  quote.Source.Decimals,
			DestToken:    quote.Dest.Address.Hex(),
			DestDecimals: quote.Dest.Decimals,
			SrcAmount:    quote.SourceAmount.String(),
			Slippage:     c.slippage,
			Receiver:     recipient.Hex(),
		},
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Error != "" {
		return nil, dex.Rejected(types.ServiceParaswap, "build", 0, errors.New(resp.Error))
	}
	calldata, err := hexutil.Decode(resp.Data)
	if err != nil {
		return nil, dex.Rejected(types.ServiceParaswap, "build", 0, fmt.Errorf("invalid calldata: %w", err))
	}
	if len(calldata) == 0 {
		return nil, dex.Rejected(types.ServiceParaswap, "build", 0, errors.New("empty calldata"))
	}

	return &types.SwapPayload{Service: types.ServiceParaswap, Calldata: calldata}, nil
}

type tokensResponse struct {
	Tokens []struct {
		Symbol   string `json:"symbol"`
		Address  string `json:"address"`
		Decimals uint8  `json:"decimals"`
	} `json:"tokens"`
}

// ListTokens fetches the token catalog of the configured network
func (c *Client) ListTokens(ctx context.Context) (map[string]types.TokenInfo, error) {
	var resp tokensResponse
	if err := c.transport.Do(ctx, dex.Request{
		Op:   "tokens",
		Path: fmt.Sprintf("/tokens/%d", c.network),
	}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Tokens) == 0 {
		return nil, dex.Rejected(types.ServiceParaswap, "tokens", 0, errors.New("empty token catalog"))
	}

	tokens := make(map[string]types.TokenInfo, len(resp.Tokens))
	for _, t := range resp.Tokens {
		tokens[t.Symbol] = types.TokenInfo{Address: t.Address, Decimals: t.Decimals}
	}
	return tokens, nil
}
