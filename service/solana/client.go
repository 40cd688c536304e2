package solana

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/drainwatch/drainwatch/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Sentinel errors for the two failure classes callers can act on.
var (
	// ErrAccessDenied means the RPC endpoint rejected our key/plan (HTTP 403).
	// Retrying cannot succeed.
	ErrAccessDenied = errors.New("rpc access denied")

	// ErrExhaustedRetries means a retryable failure (rate limiting) persisted
	// past the retry cap.
	ErrExhaustedRetries = errors.New("rpc retries exhausted")
)

const (
	// maxAttempts caps retries on rate-limited calls.
	maxAttempts = 3

	// defaultFetchDelay paces per-transaction fetches so lower-tier RPC plans
	// don't trip rate limiting.
	defaultFetchDelay = 100 * time.Millisecond
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// Client fetches and parses transaction history for an account.
// It wraps the RPC client with pacing, retry and backoff behavior.
type Client struct {
	rpc        RPCClient
	logger     *slog.Logger
	metrics    *metrics.Metrics
	endpoint   string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)
	fetchDelay time.Duration

	// sleep is swapped out in tests so backoff behavior is assertable
	// without real delays.
	sleep func(time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithFetchDelay overrides the delay between per-transaction fetches.
func WithFetchDelay(d time.Duration) Option {
	return func(c *Client) { c.fetchDelay = d }
}

// WithSleepFunc overrides the sleep function used for pacing and backoff.
func WithSleepFunc(sleep func(time.Duration)) Option {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a new chain client.
// The endpoint parameter is used for metrics labeling. If m is nil, no
// metrics are recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		rpc:        rpcClient,
		logger:     logger,
		metrics:    m,
		endpoint:   endpoint,
		fetchDelay: defaultFetchDelay,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTransactions resolves up to limit recent signatures for the address and
// fetches each transaction individually, returning parsed records newest first.
//
// Failure handling follows three classes:
//   - rate limiting (429): exponential backoff (2^attempt seconds), up to
//     maxAttempts, then ErrExhaustedRetries;
//   - authorization (403): ErrAccessDenied immediately, no retry;
//   - a single transaction failing to fetch or parse: logged and skipped, the
//     analysis proceeds with what it has.
//
// An address with no history returns an empty slice and no error.
func (c *Client) FetchTransactions(ctx context.Context, address solana.PublicKey, limit int) ([]*TransactionRecord, error) {
	signatures, err := c.fetchSignatures(ctx, address, limit)
	if err != nil {
		return nil, err
	}

	if len(signatures) == 0 {
		c.logger.DebugContext(ctx, "no transaction history", "wallet", address.String())
		return []*TransactionRecord{}, nil
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"wallet", address.String(),
		"count", len(signatures),
	)

	records := make([]*TransactionRecord, 0, len(signatures))
	for _, sig := range signatures {
		// Pace individual fetches to respect RPC rate limits.
		c.sleep(c.fetchDelay)

		result, err := c.fetchTransaction(ctx, sig.Signature)
		if err != nil {
			if errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrExhaustedRetries) {
				return nil, err
			}
			// One bad signature must not fail the whole analysis.
			c.logger.WarnContext(ctx, "failed to fetch transaction, skipping",
				"signature", sig.Signature.String(),
				"error", err,
			)
			if c.metrics != nil {
				c.metrics.RecordTransactionSkipped(address.String(), "fetch_failed")
			}
			continue
		}

		record, err := recordFromResult(sig, result)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to parse transaction, skipping",
				"signature", sig.Signature.String(),
				"error", err,
			)
			if c.metrics != nil {
				c.metrics.RecordTransactionSkipped(address.String(), "parse_failed")
			}
			continue
		}

		records = append(records, record)
	}

	c.logger.InfoContext(ctx, "fetched and parsed transactions",
		"wallet", address.String(),
		"count", len(records),
	)

	return records, nil
}

// fetchSignatures resolves recent signatures with retry on rate limiting.
func (c *Client) fetchSignatures(ctx context.Context, address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	}

	var signatures []*rpc.TransactionSignature
	err := c.withRetry(ctx, "GetSignaturesForAddress", func() error {
		start := time.Now()
		out, err := c.rpc.GetSignaturesForAddress(ctx, address, opts)
		c.recordCall("GetSignaturesForAddress", err, time.Since(start))
		if err != nil {
			return err
		}
		signatures = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return signatures, nil
}

// fetchTransaction fetches one full transaction with retry on rate limiting.
func (c *Client) fetchTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var result *rpc.GetTransactionResult
	err := c.withRetry(ctx, "GetTransaction", func() error {
		start := time.Now()
		out, err := c.rpc.GetTransaction(ctx, signature, opts)
		c.recordCall("GetTransaction", err, time.Since(start))
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withRetry runs op, backing off exponentially (2^attempt seconds) on rate
// limiting up to maxAttempts. Authorization failures surface immediately as
// ErrAccessDenied; any other error propagates unchanged for the caller to
// classify.
func (c *Client) withRetry(ctx context.Context, method string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		if isAccessDenied(err) {
			c.logger.ErrorContext(ctx, "rpc authorization rejected",
				"method", method,
				"error", err,
			)
			return ErrAccessDenied
		}

		if !isRateLimited(err) {
			return err
		}

		lastErr = err
		backoff := time.Duration(1<<uint(attempt+1)) * time.Second // 2s, 4s, 8s
		c.logger.WarnContext(ctx, "rate limited, sleeping before retry",
			"method", method,
			"attempt", attempt+1,
			"backoff_seconds", backoff.Seconds(),
		)
		if c.metrics != nil {
			c.metrics.RecordRateLimitHit(c.endpoint)
			c.metrics.RecordRPCRetry(method, "rate_limit")
		}
		c.sleep(backoff)
	}

	c.logger.ErrorContext(ctx, "rpc retries exhausted",
		"method", method,
		"attempts", maxAttempts,
		"error", lastErr,
	)
	return ErrExhaustedRetries
}

func (c *Client) recordCall(method string, err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration.Seconds())
}

// isRateLimited reports whether err looks like an HTTP 429 from the RPC node.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}

// isAccessDenied reports whether err looks like an HTTP 403 (plan/key rejected).
func isAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "403") || strings.Contains(msg, "Forbidden")
}
