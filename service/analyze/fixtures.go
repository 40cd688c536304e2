package analyze

import (
	"context"
	"time"

	"github.com/drainwatch/drainwatch/service/assets"
	"github.com/drainwatch/drainwatch/service/detect"
	"github.com/drainwatch/drainwatch/service/risk"
)

// Demo addresses recognized by the fixture resolver. They are syntactically
// valid base58 but never hit the chain.
const (
	DemoDrainedWallet = "DemoDrainedWa11et111111111111111111111111111"
	DemoSafeWallet    = "DemoSafeWa11et111111111111111111111111111111"
)

// FixtureResolver substitutes canned reports for known demo addresses and
// delegates everything else to the next resolver. It exists so demos and
// integration environments get stable output without seeding chain state.
type FixtureResolver struct {
	fixtures map[string]*risk.Report
	next     Resolver
}

// NewFixtureResolver creates a fixture resolver over the default demo table.
// next may be nil, in which case unknown addresses fail instead of falling
// through to the live pipeline.
func NewFixtureResolver(next Resolver) *FixtureResolver {
	return &FixtureResolver{
		fixtures: defaultFixtures(),
		next:     next,
	}
}

// Resolve returns the canned report for demo addresses, stamped with the
// current time, otherwise delegates to the next resolver.
func (f *FixtureResolver) Resolve(ctx context.Context, address string, opts Options) (*risk.Report, error) {
	fixture, ok := f.fixtures[address]
	if !ok {
		if f.next == nil {
			return nil, ErrInvalidAddress
		}
		return f.next.Resolve(ctx, address, opts)
	}

	// Copy so callers can't mutate the shared fixture.
	report := *fixture
	report.AnalyzedAt = time.Now().UTC()
	return &report, nil
}

func defaultFixtures() map[string]*risk.Report {
	drainedDetections := []detect.Result{
		{
			Type:                 detect.TypeSetAuthority,
			Severity:             detect.SeverityCritical,
			Confidence:           95,
			AffectedAccounts:     []string{DemoDrainedWallet},
			SuspiciousRecipients: []string{"Drainer1111111111111111111111111111111111111"},
			Recommendations: []string{
				"Account owner authority was transferred away; the listed token accounts are no longer under your control.",
				"Move any remaining assets from this wallet to a fresh wallet immediately.",
			},
			Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
			Signature: "DemoSig11111111111111111111111111111111111111111111111111111111111111111111111111111",
		},
	}

	return map[string]*risk.Report{
		DemoDrainedWallet: {
			WalletAddress: DemoDrainedWallet,
			OverallRisk:   95,
			Severity:      risk.SeverityDrained,
			Detections:    drainedDetections,
			Recommendations: []string{
				"Account owner authority was transferred away; the listed token accounts are no longer under your control.",
				"Move any remaining assets from this wallet to a fresh wallet immediately.",
			},
			AffectedAssets: assets.AffectedAssets{
				SolLostLamports: 12_500_000_000,
				TokenMints:      []string{"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
				NFTMints:        []string{},
			},
			TransactionCount: 17,
		},
		DemoSafeWallet: {
			WalletAddress:   DemoSafeWallet,
			OverallRisk:     0,
			Severity:        risk.SeveritySafe,
			Detections:      []detect.Result{},
			Recommendations: []string{},
			AffectedAssets: assets.AffectedAssets{
				TokenMints: []string{},
				NFTMints:   []string{},
			},
			TransactionCount: 8,
		},
	}
}
