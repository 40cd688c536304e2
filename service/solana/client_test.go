package solana

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing. Error slices are consumed
// one per call, so retry behavior is scriptable: a nil entry (or an exhausted
// slice) means the call succeeds.
type mockRPCClient struct {
	sigErrs    []error
	signatures []*rpc.TransactionSignature

	txErrs       map[string][]error
	transactions map[string]*rpc.GetTransactionResult
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	if len(m.sigErrs) > 0 {
		err := m.sigErrs[0]
		m.sigErrs = m.sigErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.signatures, nil
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	key := signature.String()
	if queue := m.txErrs[key]; len(queue) > 0 {
		err := queue[0]
		m.txErrs[key] = queue[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.transactions[key], nil
}

// newTestClient builds a client whose sleeps are recorded instead of slept.
func newTestClient(mock *mockRPCClient, sleeps *[]time.Duration) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, "test", nil, logger,
		WithFetchDelay(0),
		WithSleepFunc(func(d time.Duration) {
			*sleeps = append(*sleeps, d)
		}),
	)
}

var (
	testSig1 = solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")
	testSig2 = solana.MustSignatureFromBase58("2TgM4N8qCMqLvfR8dxqTQgKygPNzT5KQkN5b5sT7eZPEkdxyLTXGnNQB3j7KG4DPFg5Qez5yNJBQRQ5r7DDnFfjG")
)

func TestFetchTransactions_EmptyHistory(t *testing.T) {
	var sleeps []time.Duration
	client := newTestClient(&mockRPCClient{}, &sleeps)

	records, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestFetchTransactions_RateLimitRetrySucceeds(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())
	mock := &mockRPCClient{
		sigErrs: []error{
			errors.New("HTTP 429: Too Many Requests"),
			errors.New("HTTP 429: Too Many Requests"),
		},
		signatures: []*rpc.TransactionSignature{
			{Signature: testSig1, Slot: 100, BlockTime: &now},
		},
	}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	records, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, testSig1.String(), records[0].Signature)

	// Exponential backoff: 2s after the first 429, 4s after the second.
	require.GreaterOrEqual(t, len(sleeps), 2)
	assert.Equal(t, 2*time.Second, sleeps[0])
	assert.Equal(t, 4*time.Second, sleeps[1])
}

func TestFetchTransactions_RateLimitExhausted(t *testing.T) {
	mock := &mockRPCClient{
		sigErrs: []error{
			errors.New("HTTP 429: Too Many Requests"),
			errors.New("HTTP 429: Too Many Requests"),
			errors.New("HTTP 429: Too Many Requests"),
		},
	}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	_, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.ErrorIs(t, err, ErrExhaustedRetries)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeps)
}

func TestFetchTransactions_AccessDeniedNoRetry(t *testing.T) {
	mock := &mockRPCClient{
		sigErrs: []error{errors.New("HTTP 403: Forbidden")},
	}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	_, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.ErrorIs(t, err, ErrAccessDenied)
	assert.Empty(t, sleeps, "authorization failures must not back off")
}

func TestFetchTransactions_SkipsFailedTransaction(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())
	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSig1, Slot: 100, BlockTime: &now},
			{Signature: testSig2, Slot: 99, BlockTime: &now},
		},
		txErrs: map[string][]error{
			testSig1.String(): {errors.New("transaction not found")},
		},
	}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	records, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.NoError(t, err)
	require.Len(t, records, 1, "the failing transaction is skipped, not fatal")
	assert.Equal(t, testSig2.String(), records[0].Signature)
}

func TestFetchTransactions_FatalErrorMidFetchAborts(t *testing.T) {
	now := solana.UnixTimeSeconds(time.Now().Unix())
	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: testSig1, Slot: 100, BlockTime: &now},
		},
		txErrs: map[string][]error{
			testSig1.String(): {errors.New("HTTP 403: Forbidden")},
		},
	}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	_, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestFetchTransactions_OtherErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	mock := &mockRPCClient{sigErrs: []error{boom}}

	var sleeps []time.Duration
	client := newTestClient(mock, &sleeps)

	_, err := client.FetchTransactions(context.Background(), solana.PublicKey{}, 50)
	require.ErrorIs(t, err, boom)
}
