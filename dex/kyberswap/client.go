package kyberswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/dex"
	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL     = "https://aggregator-api.kyberswap.com/bsc/api/v1"
	DefaultClientID    = "v1swapper"
	DefaultSlippageBps = 2000

	clientIDHeader = "x-client-id"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Transport   dex.TransportConfig
	ClientID    string
	SlippageBps uint64
}

// Client implements dex.Aggregator for the KyberSwap aggregator API
type Client struct {
	transport *dex.HTTPTransport
	clientID  string
	slippage  uint64
	logger    *zap.Logger
}

var _ dex.Aggregator = (*Client)(nil)

func New(cfg Config, identities dex.IdentityPool, logger *zap.Logger) *Client {
	if cfg.Transport.BaseURL == "" {
		cfg.Transport.BaseURL = DefaultBaseURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}

	headers := make(map[string]string, len(cfg.Transport.Headers)+1)
	for k, v := range cfg.Transport.Headers {
		headers[k] = v
	}
	headers[clientIDHeader] = cfg.ClientID
	cfg.Transport.Headers = headers

	return &Client{
		transport: dex.NewHTTPTransport(types.ServiceKyberswap, cfg.Transport, identities, logger),
		clientID:  cfg.ClientID,
		slippage:  cfg.SlippageBps,
		logger:    logger,
	}
}

func (c *Client) Name() types.ServiceID {
	return types.ServiceKyberswap
}

func (c *Client) SlippageBps() uint64 {
	return c.slippage
}

// envelope is shared by every KyberSwap response
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) check(op string) error {
	if e.Code != 0 {
		return dex.Rejected(types.ServiceKyberswap, op, 0, fmt.Errorf("code %d: %s", e.Code, e.Message))
	}
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return dex.Rejected(types.ServiceKyberswap, op, 0, errors.New("response missing data"))
	}
	return nil
}

type routeData struct {
	RouteSummary *struct {
		AmountIn  string `json:"amountIn"`
		AmountOut string `json:"amountOut"`
	} `json:"routeSummary"`
}

// GetQuote requests the best route for amount of src into dst
func (c *Client) GetQuote(ctx context.Context, src, dst *types.Token, amount *big.Int) (*types.Quote, error) {
	query := url.Values{}
	query.Set("tokenIn", src.Address.Hex())
	query.Set("tokenOut", dst.Address.Hex())
	query.Set("amountIn", amount.String())
	query.Set("source", c.clientID)

	var resp envelope
	if err := c.transport.Do(ctx, dex.Request{
		Op:     "quote",
		Path:   "/routes",
		Query:  query,
		Rotate: true,
	}, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("quote"); err != nil {
		return nil, err
	}

	var data routeData
	if err := jsonAPI.Unmarshal(resp.Data, &data); err != nil {
		return nil, dex.Rejected(types.ServiceKyberswap, "quote", 0, fmt.Errorf("malformed route: %w", err))
	}
	if data.RouteSummary == nil {
		return nil, dex.Rejected(types.ServiceKyberswap, "quote", 0, errors.New("response missing routeSummary"))
	}
	amountOut, ok := new(big.Int).SetString(data.RouteSummary.AmountOut, 10)
	if !ok || amountOut.Sign() < 0 {
		return nil, dex.Rejected(types.ServiceKyberswap, "quote", 0, fmt.Errorf("invalid amountOut %q", data.RouteSummary.AmountOut))
	}
	amountIn := new(big.Int).Set(amount)
	if parsed, ok := new(big.Int).SetString(data.RouteSummary.AmountIn, 10); ok {
		amountIn = parsed
	}

	return &types.Quote{
		Service:      types.ServiceKyberswap,
		Source:       src,
		Dest:         dst,
		SourceAmount: amountIn,
		DestAmount:   amountOut,
		Route:        resp.Data,
	}, nil
}

type buildRequest struct {
	RouteSummary      json.RawMessage `json:"routeSummary"`
	Sender            string          `json:"sender"`
	Recipient         string          `json:"recipient"`
	SlippageTolerance uint64          `json:"slippageTolerance"`
}

type buildData struct {
	Data string `json:"data"`
}

// BuildSwap encodes the route summary of quote into router calldata
func (c *Client) BuildSwap(ctx context.Context, quote *types.Quote, executor, recipient common.Address) (*types.SwapPayload, error) {
	if quote.Service != types.ServiceKyberswap {
		return nil, dex.Rejected(types.ServiceKyberswap, "build", 0, fmt.Errorf("quote issued by %s", quote.Service))
	}

	var route struct {
		RouteSummary json.RawMessage `json:"routeSummary"`
	}
	if err := jsonAPI.Unmarshal(quote.Route, &route); err != nil || len(route.RouteSummary) == 0 {
		return nil, dex.Rejected(types.ServiceKyberswap, "build", 0, errors.New("quote has no routeSummary"))
	}

	var resp envelope
	if err := c.transport.Do(ctx, dex.Request{
		Op:     "build",
		Method: http.MethodPost,
		Path:   "/route/build",
		Body: buildRequest{
			RouteSummary:      route.RouteSummary,
			Sender:            executor.Hex(),
			Recipient:         recipient.Hex(),
			SlippageTolerance: c.slippage,
		},
	}, &resp); err != nil {
		return nil, err
	}
	if err := resp.check("build"); err != nil {
		return nil, err
	}

	var data buildData
	if err := jsonAPI.Unmarshal(resp.Data, &data); err != nil {
		return nil, dex.Rejected(types.ServiceKyberswap, "build", 0, fmt.Errorf("malformed build response: %w", err))
	}
	calldata, err := hexutil.Decode(data.Data)
	if err != nil {
		return nil, dex.Rejected(types.ServiceKyberswap, "build", 0, fmt.Errorf("invalid calldata: %w", err))
	}
	if len(calldata) == 0 {
		return nil, dex.Rejected(types.ServiceKyberswap, "build", 0, errors.New("empty calldata"))
	}

	return &types.SwapPayload{Service: types.ServiceKyberswap, Calldata: calldata}, nil
}
