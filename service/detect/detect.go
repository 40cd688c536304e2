// Package detect implements rule-based attack detectors over parsed
// transactions. Each detector is a small stateless value type that flags one
// suspicious instruction pattern; detectors are independent and safe to run
// in any order because the aggregator only takes a maximum.
package detect

import (
	"context"
	"time"

	"github.com/drainwatch/drainwatch/service/solana"
)

// Type identifies the attack pattern a detection describes.
type Type string

const (
	TypeSetAuthority      Type = "SetAuthority"
	TypeUnlimitedApproval Type = "UnlimitedApproval"
	TypeKnownDrainer      Type = "KnownDrainer"
	TypeSolTransfer       Type = "SolTransfer"
)

// Severity is how bad a finding would be if true, distinct from confidence
// (how certain the detector is that the finding is real).
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Score maps a severity to the numeric scale the aggregator uses.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 100
	case SeverityHigh:
		return 75
	case SeverityMedium:
		return 40
	case SeverityLow:
		return 10
	default:
		return 0
	}
}

// Result is one finding, produced once per (transaction, detector) pair and
// never mutated after creation.
type Result struct {
	Type                 Type      `json:"type"`
	Severity             Severity  `json:"severity"`
	Confidence           int       `json:"confidence"` // 0-100
	AffectedAccounts     []string  `json:"affected_accounts"`
	SuspiciousRecipients []string  `json:"suspicious_recipients"`
	Domains              []string  `json:"domains,omitempty"`
	Recommendations      []string  `json:"recommendations"`
	Timestamp            time.Time `json:"timestamp"`
	Signature            string    `json:"signature"`
}

// Detector flags one suspicious instruction pattern in a transaction.
// Implementations return (nil, nil) when nothing matched.
type Detector interface {
	Name() string
	Detect(ctx context.Context, tx *solana.TransactionRecord) (*Result, error)
}

// resultTime picks the finding timestamp: the transaction's block time when
// the node reported one, otherwise the current time.
func resultTime(tx *solana.TransactionRecord) time.Time {
	if tx.BlockTime != nil {
		return *tx.BlockTime
	}
	return time.Now().UTC()
}

// appendUnique appends value to list unless already present, preserving order.
func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
