package analyze

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/drainwatch/drainwatch/service/detect"
	"github.com/drainwatch/drainwatch/service/nats"
	"github.com/drainwatch/drainwatch/service/registry"
	"github.com/drainwatch/drainwatch/service/risk"
	chain "github.com/drainwatch/drainwatch/service/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher implements TransactionFetcher over a fixed record list.
type mockFetcher struct {
	records []*chain.TransactionRecord
	err     error
}

func (m *mockFetcher) FetchTransactions(_ context.Context, _ solanago.PublicKey, _ int) ([]*chain.TransactionRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// emptyRegistry implements detect.RegistryReader with no reports.
type emptyRegistry struct{}

func (emptyRegistry) Get(_ context.Context, _ string) (*registry.DrainerReport, error) {
	return nil, nil
}

func newResolver(fetcher *mockFetcher, publisher nats.Publisher) *LiveResolver {
	return NewLiveResolver(fetcher, emptyRegistry{}, nil, publisher, nil, testLogger(), 2)
}

func setAuthorityTx(wallet, attacker string) *chain.TransactionRecord {
	bt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &chain.TransactionRecord{
		Signature:   "sig1",
		Slot:        100,
		BlockTime:   &bt,
		FeePayer:    wallet,
		AccountKeys: []string{wallet, "tokenAcct"},
		Instructions: []chain.Instruction{
			{
				Kind:          chain.KindTokenSetAuthority,
				Source:        "tokenAcct",
				Authority:     wallet,
				AuthorityType: chain.AuthorityAccountOwner,
				NewAuthority:  &attacker,
			},
		},
		PreBalances:  []uint64{5_000_000_000, 2_039_280},
		PostBalances: []uint64{4_999_995_000, 2_039_280},
	}
}

func TestResolve_InvalidAddress(t *testing.T) {
	resolver := newResolver(&mockFetcher{}, nil)

	_, err := resolver.Resolve(context.Background(), "definitely-not-base58!", Options{})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestResolve_SafeWallet(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	resolver := newResolver(&mockFetcher{records: []*chain.TransactionRecord{}}, nil)

	report, err := resolver.Resolve(context.Background(), wallet, Options{})
	require.NoError(t, err)

	assert.Equal(t, wallet, report.WalletAddress)
	assert.Equal(t, 0, report.OverallRisk)
	assert.Equal(t, risk.SeveritySafe, report.Severity)
	assert.Empty(t, report.Detections)
	assert.Equal(t, 0, report.TransactionCount)
}

func TestResolve_DrainedWallet(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	attacker := solanago.NewWallet().PublicKey().String()
	fetcher := &mockFetcher{records: []*chain.TransactionRecord{setAuthorityTx(wallet, attacker)}}

	publisher := nats.NewMockPublisher()
	resolver := newResolver(fetcher, publisher)

	report, err := resolver.Resolve(context.Background(), wallet, Options{})
	require.NoError(t, err)

	assert.Equal(t, 95, report.OverallRisk)
	assert.Equal(t, risk.SeverityDrained, report.Severity)
	require.Len(t, report.Detections, 1)
	assert.Equal(t, detect.TypeSetAuthority, report.Detections[0].Type)
	assert.Equal(t, []string{attacker}, report.Detections[0].SuspiciousRecipients)
	assert.Equal(t, 1, report.TransactionCount)

	// The verdict is published as an event.
	require.Len(t, publisher.Analyses, 1)
	assert.Equal(t, wallet, publisher.Analyses[0].WalletAddress)
	assert.Equal(t, 95, publisher.Analyses[0].OverallRisk)
	assert.Equal(t, string(risk.SeverityDrained), publisher.Analyses[0].Severity)
}

func TestResolve_NativeLossExtracted(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	attacker := solanago.NewWallet().PublicKey().String()
	fetcher := &mockFetcher{records: []*chain.TransactionRecord{setAuthorityTx(wallet, attacker)}}
	resolver := newResolver(fetcher, nil)

	report, err := resolver.Resolve(context.Background(), wallet, Options{})
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), report.AffectedAssets.SolLostLamports)
}

func TestResolve_FetchErrorPropagates(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	fetcher := &mockFetcher{err: chain.ErrExhaustedRetries}
	resolver := newResolver(fetcher, nil)

	_, err := resolver.Resolve(context.Background(), wallet, Options{})
	require.ErrorIs(t, err, chain.ErrExhaustedRetries)
}

func TestOrchestrator_CollectsAllFindings(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	attacker := solanago.NewWallet().PublicKey().String()
	txs := []*chain.TransactionRecord{
		setAuthorityTx(wallet, attacker),
		setAuthorityTx(wallet, attacker),
	}

	orchestrator := NewOrchestrator([]detect.Detector{detect.SetAuthorityDetector{}}, nil, testLogger())
	results, err := orchestrator.Run(context.Background(), txs)
	require.NoError(t, err)
	assert.Len(t, results, 2, "one finding per matching transaction")
}

// failingDetector always errors, standing in for registry unavailability.
type failingDetector struct{ err error }

func (failingDetector) Name() string { return "failing" }
func (d failingDetector) Detect(_ context.Context, _ *chain.TransactionRecord) (*detect.Result, error) {
	return nil, d.err
}

func TestOrchestrator_DetectorErrorIsFatal(t *testing.T) {
	boom := errors.New("registry down")
	orchestrator := NewOrchestrator([]detect.Detector{failingDetector{err: boom}}, nil, testLogger())

	_, err := orchestrator.Run(context.Background(), []*chain.TransactionRecord{{Signature: "sig"}})
	require.ErrorIs(t, err, boom)
}

func TestFixtureResolver_DemoAddresses(t *testing.T) {
	resolver := NewFixtureResolver(nil)

	drained, err := resolver.Resolve(context.Background(), DemoDrainedWallet, Options{})
	require.NoError(t, err)
	assert.Equal(t, risk.SeverityDrained, drained.Severity)
	assert.Equal(t, 95, drained.OverallRisk)
	assert.NotEmpty(t, drained.Detections)
	assert.WithinDuration(t, time.Now(), drained.AnalyzedAt, time.Minute,
		"fixtures are stamped with the request time")

	safe, err := resolver.Resolve(context.Background(), DemoSafeWallet, Options{})
	require.NoError(t, err)
	assert.Equal(t, risk.SeveritySafe, safe.Severity)
	assert.Equal(t, 0, safe.OverallRisk)
}

func TestFixtureResolver_UnknownWithoutNextFails(t *testing.T) {
	resolver := NewFixtureResolver(nil)

	_, err := resolver.Resolve(context.Background(), solanago.NewWallet().PublicKey().String(), Options{})
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFixtureResolver_UnknownDelegatesToNext(t *testing.T) {
	wallet := solanago.NewWallet().PublicKey().String()
	live := newResolver(&mockFetcher{records: []*chain.TransactionRecord{}}, nil)
	resolver := NewFixtureResolver(live)

	report, err := resolver.Resolve(context.Background(), wallet, Options{})
	require.NoError(t, err)
	assert.Equal(t, wallet, report.WalletAddress)
	assert.Equal(t, risk.SeveritySafe, report.Severity)
}
