// Package safeapi reads Safe account state from the Safe Transaction
// Service. It implements accessibility.Provider.
package safeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	ratelimiter "github.com/Narasimha1997/ratelimiter"
	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/metrics"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

const minPollInterval = 10 * time.Millisecond

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimiter.DefaultLimiter
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(lg *zap.Logger) Option {
	return func(c *Client) { c.logger = lg }
}

func New(cfg Config, opts ...Option) *Client {
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimiter.NewDefaultLimiter(cfg.RateLimit, time.Second),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close stops the rate limiter's background worker.
func (c *Client) Close() error {
	return c.limiter.Kill()
}

type safeResponse struct {
	Address   string   `json:"address"`
	Nonce     int64    `json:"nonce"`
	Threshold int      `json:"threshold"`
	Owners    []string `json:"owners"`
	Version   string   `json:"version"`
}

type balanceResponse struct {
	TokenAddress *string `json:"tokenAddress"`
	Balance      string  `json:"balance"`
}

type errorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// GetAccountInfo fetches the Safe at address on network. Errors are
// *types.ProviderError: the HTTP status for service errors, 0 for transport
// failures and timeouts. A failed balance lookup leaves Balance empty and
// sets BalanceError; a Safe holding no native coin reports "0".
func (c *Client) GetAccountInfo(ctx context.Context, network, address string) (*types.SafeInfo, error) {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		metrics.ProviderTime.WithLabelValues("get_account_info").Observe(v)
	}))
	defer timer.ObserveDuration()

	base, ok := c.cfg.URLs[network]
	if !ok {
		return nil, &types.ProviderError{Message: fmt.Sprintf("unsupported network %q", network), Code: http.StatusBadRequest}
	}
	if !common.IsHexAddress(address) {
		return nil, &types.ProviderError{Message: "Invalid address format", Code: http.StatusBadRequest}
	}
	checksummed := common.HexToAddress(address).Hex()

	var safe safeResponse
	if err := c.get(ctx, fmt.Sprintf("%s/api/v1/safes/%s/", base, checksummed), &safe); err != nil {
		return nil, err
	}
	owners, err := types.CanonicalAddresses(safe.Owners)
	if err != nil {
		return nil, &types.ProviderError{Message: "malformed owner list in response", Code: http.StatusBadGateway}
	}
	info := &types.SafeInfo{
		Address:   address,
		Nonce:     safe.Nonce,
		Threshold: safe.Threshold,
		Owners:    owners,
		Version:   safe.Version,
	}
	if canonical, err := types.CanonicalAddress(safe.Address); err == nil {
		info.Address = canonical
	}

	var balances []balanceResponse
	if err := c.get(ctx, fmt.Sprintf("%s/api/v1/safes/%s/balances/", base, checksummed), &balances); err != nil {
		c.logger.Warn("fetching safe balance", zap.String("address", address), zap.Error(err))
		info.BalanceError = err.Error()
		return info, nil
	}
	info.Balance = "0"
	for _, b := range balances {
		if b.TokenAddress == nil {
			info.Balance = b.Balance
			break
		}
	}
	return info, nil
}

// get issues a GET with bounded retries on transport failures and 5xx.
func (c *Client) get(ctx context.Context, url string, out any) error {
	err := retry.Do(
		func() error { return c.getOnce(ctx, url, out) },
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(200*time.Millisecond),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	var perr *types.ProviderError
	if err != nil && !errors.As(err, &perr) {
		// Cancellation while waiting between attempts.
		return &types.ProviderError{Message: err.Error(), Code: 0}
	}
	return err
}

// wait blocks until the limiter admits one request or ctx ends.
func (c *Client) wait(ctx context.Context) error {
	interval := time.Second / time.Duration(c.cfg.RateLimit)
	if interval < minPollInterval {
		interval = minPollInterval
	}
	for {
		allowed, err := c.limiter.ShouldAllow(1)
		if err != nil {
			return &types.ProviderError{Message: "rate limiter: " + err.Error(), Code: 0}
		}
		if allowed {
			return nil
		}
		select {
		case <-ctx.Done():
			return &types.ProviderError{Message: ctx.Err().Error(), Code: 0}
		case <-time.After(interval):
		}
	}
}

func (c *Client) getOnce(ctx context.Context, url string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.ProviderError{Message: err.Error(), Code: 0}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &types.ProviderError{Message: err.Error(), Code: 0}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &types.ProviderError{Message: err.Error(), Code: 0}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &types.ProviderError{Message: errorMessage(resp.StatusCode, body), Code: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &types.ProviderError{Message: "decoding response: " + err.Error(), Code: http.StatusBadGateway}
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return http.StatusText(status)
}

func retryable(err error) bool {
	var perr *types.ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Code == 0 || perr.Code >= 500
}
