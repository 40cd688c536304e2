// Package risk turns a set of detections and extracted losses into one
// verdict. The overall score is a confidence-weighted maximum over the
// detections: one confirmed Critical finding must dominate regardless of how
// many low-severity findings co-occur, and must not be diluted by averaging
// with noise.
package risk

import (
	"math"
	"time"

	"github.com/drainwatch/drainwatch/service/assets"
	"github.com/drainwatch/drainwatch/service/detect"
)

// Severity is the verdict label derived from the overall risk score.
type Severity string

const (
	SeveritySafe    Severity = "Safe"
	SeverityAtRisk  Severity = "AtRisk"
	SeverityDrained Severity = "Drained"
)

// Fixed thresholds mapping score to verdict.
const (
	drainedThreshold = 90
	atRiskThreshold  = 40
)

// Report is the final verdict for one analysis. Created once per call,
// immutable, never persisted; it is a response value, not a stored entity.
type Report struct {
	WalletAddress    string                `json:"wallet_address"`
	OverallRisk      int                   `json:"overall_risk"` // 0-100
	Severity         Severity              `json:"severity"`
	Detections       []detect.Result       `json:"detections"`
	Recommendations  []string              `json:"recommendations"`
	AffectedAssets   assets.AffectedAssets `json:"affected_assets"`
	TransactionCount int                   `json:"transaction_count"`
	AnalyzedAt       time.Time             `json:"analyzed_at"`
}

// SeverityForScore derives the verdict label from a 0-100 score.
func SeverityForScore(score int) Severity {
	switch {
	case score >= drainedThreshold:
		return SeverityDrained
	case score >= atRiskThreshold:
		return SeverityAtRisk
	default:
		return SeveritySafe
	}
}

// Aggregate combines detections and per-transaction losses into a Report.
// Pure given its inputs. Zero detections yield score 0 and severity Safe —
// the default, not a special case.
func Aggregate(wallet string, detections []detect.Result, losses []assets.AffectedAssets, txCount int, analyzedAt time.Time) *Report {
	report := &Report{
		WalletAddress:    wallet,
		Detections:       detections,
		TransactionCount: txCount,
		AnalyzedAt:       analyzedAt,
	}
	if report.Detections == nil {
		report.Detections = []detect.Result{}
	}

	var maxContribution float64
	for _, d := range detections {
		contribution := float64(d.Severity.Score()) * float64(d.Confidence) / 100
		if contribution > maxContribution {
			maxContribution = contribution
		}
	}
	report.OverallRisk = int(math.Round(maxContribution))
	report.Severity = SeverityForScore(report.OverallRisk)

	// Concatenate then deduplicate recommendations, preserving the order of
	// first appearance.
	report.Recommendations = []string{}
	seen := make(map[string]struct{})
	for _, d := range detections {
		for _, rec := range d.Recommendations {
			if _, ok := seen[rec]; ok {
				continue
			}
			seen[rec] = struct{}{}
			report.Recommendations = append(report.Recommendations, rec)
		}
	}

	report.AffectedAssets = assets.AffectedAssets{TokenMints: []string{}, NFTMints: []string{}}
	for _, loss := range losses {
		report.AffectedAssets.Merge(loss)
	}

	return report
}
