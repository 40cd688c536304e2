package detect

import (
	"context"
	"math"

	"github.com/drainwatch/drainwatch/service/solana"
)

// UnlimitedApprovalDetector flags token approvals for the maximum
// representable u64 amount. An unlimited approval lets the delegate drain the
// account at any future time without further consent.
type UnlimitedApprovalDetector struct{}

func (UnlimitedApprovalDetector) Name() string { return "unlimited_approval" }

// isUnlimited tolerates an off-by-one encoding of the sentinel amount: some
// wallets emit 2^64-1, others a value that round-trips through a float and
// lands one unit off.
func isUnlimited(amount uint64) bool {
	return amount >= math.MaxUint64-1
}

func (UnlimitedApprovalDetector) Detect(_ context.Context, tx *solana.TransactionRecord) (*Result, error) {
	var affected, recipients []string

	for _, inst := range tx.Instructions {
		if inst.Kind != solana.KindTokenApprove {
			continue
		}
		if !isUnlimited(inst.Amount) {
			continue
		}
		if inst.Source != "" {
			affected = appendUnique(affected, inst.Source)
		}
		if inst.Delegate != "" {
			recipients = appendUnique(recipients, inst.Delegate)
		}
	}

	if len(affected) == 0 && len(recipients) == 0 {
		return nil, nil
	}

	return &Result{
		Type:                 TypeUnlimitedApproval,
		Severity:             SeverityHigh,
		Confidence:           90,
		AffectedAccounts:     affected,
		SuspiciousRecipients: recipients,
		Recommendations: []string{
			"An unlimited token approval was granted; the delegate can withdraw the full balance at any time.",
			"Revoke the approval (spl-token revoke or a revoke tool) as soon as possible.",
			"Review recent dApp interactions for the site that requested this approval.",
		},
		Timestamp: resultTime(tx),
		Signature: tx.Signature,
	}, nil
}
