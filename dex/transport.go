package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ramongibson/Aggregator-Flash-Arbitrage-Bot/types"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	contentTypeJSON  = "application/json"
	maxResponseBytes = 8 << 20
	maxErrorSnippet  = 512
	DefaultTimeout   = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TransportConfig contains the HTTP settings of one pricing service
type TransportConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Headers           map[string]string
}

// Request describes one call to a pricing service
type Request struct {
	Op     string
	Method string
	Path   string
	Query  url.Values
	Body   interface{}
	// Rotate routes the request through the next identity of the pool
	Rotate bool
}

// HTTPTransport performs JSON requests against a pricing service and
// classifies every failure as unavailable or rejected
type HTTPTransport struct {
	service    types.ServiceID
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	headers    map[string]string
	identities IdentityPool
	logger     *zap.Logger
}

// NewHTTPTransport creates a transport for service. identities may be nil.
func NewHTTPTransport(service types.ServiceID, cfg TransportConfig, identities IdentityPool, logger *zap.Logger) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = func(req *http.Request) (*url.URL, error) {
		if u, ok := identityFrom(req.Context()); ok {
			return u, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &HTTPTransport{
		service:    service,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: timeout, Transport: base},
		limiter:    limiter,
		headers:    cfg.Headers,
		identities: identities,
		logger:     logger,
	}
}

// Do sends req and decodes a 2xx JSON response into out
func (t *HTTPTransport) Do(ctx context.Context, req Request, out interface{}) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return Unavailable(t.service, req.Op, fmt.Errorf("rate limiter: %w", err))
		}
	}

	target := t.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return Rejected(t.service, req.Op, 0, fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	if req.Rotate && t.identities != nil {
		ctx = withIdentity(ctx, t.identities.Next())
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Rejected(t.service, req.Op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		httpReq.Header.Set("Content-Type", contentTypeJSON)
	}
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return Unavailable(t.service, req.Op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Unavailable(t.service, req.Op, fmt.Errorf("failed to read response: %w", err))
	}

	t.logger.Debug("Pricing service response",
		zap.String("service", string(t.service)),
		zap.String("op", req.Op),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Rejected(t.service, req.Op, resp.StatusCode, errors.New(snippet(raw)))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return Rejected(t.service, req.Op, resp.StatusCode, fmt.Errorf("unexpected response: %w", err))
	}
	return nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
