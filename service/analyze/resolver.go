// Package analyze is the entry point external callers use: it sequences the
// transaction fetch, the detectors, the asset extraction and the risk
// aggregation into one RiskReport.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drainwatch/drainwatch/service/assets"
	"github.com/drainwatch/drainwatch/service/detect"
	"github.com/drainwatch/drainwatch/service/metrics"
	"github.com/drainwatch/drainwatch/service/nats"
	"github.com/drainwatch/drainwatch/service/risk"
	chain "github.com/drainwatch/drainwatch/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// ErrInvalidAddress marks a malformed wallet address, rejected before any
// network call.
var ErrInvalidAddress = errors.New("invalid wallet address")

// DefaultTxLimit is the number of recent transactions analyzed when the
// caller doesn't specify one.
const DefaultTxLimit = 50

// Options tune one analysis call.
type Options struct {
	// Limit caps how many recent transactions are fetched (default
	// DefaultTxLimit).
	Limit int

	// IncludeExperimental enables token/NFT loss extraction, which is more
	// expensive and less certain than native-loss extraction.
	IncludeExperimental bool
}

// Resolver produces a RiskReport for a wallet address. The live resolver
// runs the real pipeline; the fixture resolver substitutes canned reports
// for known demo addresses. Selection happens by configuration, keeping the
// pipeline core free of test-mode conditionals.
type Resolver interface {
	Resolve(ctx context.Context, address string, opts Options) (*risk.Report, error)
}

// TransactionFetcher is the chain client dependency of the live resolver.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, address solanago.PublicKey, limit int) ([]*chain.TransactionRecord, error)
}

// LiveResolver runs the full pipeline: fetch history, run detectors, extract
// losses, aggregate.
type LiveResolver struct {
	fetcher       TransactionFetcher
	registry      detect.RegistryReader
	domains       detect.DomainLookup
	publisher     nats.Publisher // optional
	metrics       *metrics.Metrics
	logger        *slog.Logger
	lookupWorkers int
}

// NewLiveResolver creates the production resolver. The publisher and metrics
// may be nil; the domain lookup may be nil when no intel source is
// configured.
func NewLiveResolver(
	fetcher TransactionFetcher,
	registryReader detect.RegistryReader,
	domains detect.DomainLookup,
	publisher nats.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	lookupWorkers int,
) *LiveResolver {
	return &LiveResolver{
		fetcher:       fetcher,
		registry:      registryReader,
		domains:       domains,
		publisher:     publisher,
		metrics:       m,
		logger:        logger,
		lookupWorkers: lookupWorkers,
	}
}

// Resolve analyzes one wallet. It is an at-most-once operation per request;
// there is no mid-flight cancellation contract beyond the context.
func (r *LiveResolver) Resolve(ctx context.Context, address string, opts Options) (*risk.Report, error) {
	wallet, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultTxLimit
	}

	start := time.Now()
	r.logger.InfoContext(ctx, "starting wallet analysis",
		"wallet", address,
		"limit", limit,
		"experimental", opts.IncludeExperimental,
	)

	txs, err := r.fetcher.FetchTransactions(ctx, wallet, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction history: %w", err)
	}

	// The detector list is ordered; cheap pure detectors run before the
	// network-bound registry lookup.
	detectors := []detect.Detector{
		detect.SetAuthorityDetector{},
		detect.UnlimitedApprovalDetector{},
		detect.SolTransferDetector{Wallet: address},
		detect.KnownDrainerDetector{
			Registry: r.registry,
			Domains:  r.domains,
			Workers:  r.lookupWorkers,
		},
	}

	orchestrator := NewOrchestrator(detectors, r.metrics, r.logger)
	detections, err := orchestrator.Run(ctx, txs)
	if err != nil {
		return nil, err
	}

	losses := make([]assets.AffectedAssets, 0, len(txs))
	for _, tx := range txs {
		losses = append(losses, assets.Extract(tx, address, opts.IncludeExperimental))
	}

	report := risk.Aggregate(address, detections, losses, len(txs), time.Now().UTC())

	duration := time.Since(start)
	r.logger.InfoContext(ctx, "wallet analysis complete",
		"wallet", address,
		"overall_risk", report.OverallRisk,
		"severity", report.Severity,
		"detections", len(report.Detections),
		"transactions", report.TransactionCount,
		"duration", duration,
	)
	if r.metrics != nil {
		r.metrics.RecordAnalysis(string(report.Severity), duration.Seconds())
	}

	if r.publisher != nil {
		event := &nats.AnalysisEvent{
			WalletAddress:    report.WalletAddress,
			OverallRisk:      report.OverallRisk,
			Severity:         string(report.Severity),
			DetectionCount:   len(report.Detections),
			TransactionCount: report.TransactionCount,
			AnalyzedAt:       report.AnalyzedAt,
		}
		if err := r.publisher.PublishAnalysis(ctx, event); err != nil {
			// Event delivery is best-effort; the verdict already exists.
			r.logger.WarnContext(ctx, "failed to publish analysis event",
				"wallet", address,
				"error", err,
			)
		}
	}

	return report, nil
}
