package detect

import (
	"context"

	"github.com/drainwatch/drainwatch/service/solana"
)

// DefaultSolTransferThreshold is the outbound lamport amount (1 SOL) above
// which a native transfer from the analyzed wallet is worth flagging.
const DefaultSolTransferThreshold = 1_000_000_000

// SolTransferDetector flags large outbound native transfers from the analyzed
// wallet. On its own this is a weak signal (Medium severity); it mostly
// corroborates other findings in the aggregated score.
type SolTransferDetector struct {
	Wallet    string
	Threshold uint64 // 0 means DefaultSolTransferThreshold
}

func (SolTransferDetector) Name() string { return "sol_transfer" }

func (d SolTransferDetector) Detect(_ context.Context, tx *solana.TransactionRecord) (*Result, error) {
	threshold := d.Threshold
	if threshold == 0 {
		threshold = DefaultSolTransferThreshold
	}

	var recipients []string
	for _, inst := range tx.Instructions {
		if inst.Kind != solana.KindSystemTransfer {
			continue
		}
		if inst.Source != d.Wallet || inst.Lamports < threshold {
			continue
		}
		if inst.Destination != "" {
			recipients = appendUnique(recipients, inst.Destination)
		}
	}

	if len(recipients) == 0 {
		return nil, nil
	}

	return &Result{
		Type:                 TypeSolTransfer,
		Severity:             SeverityMedium,
		Confidence:           70,
		AffectedAccounts:     []string{d.Wallet},
		SuspiciousRecipients: recipients,
		Recommendations: []string{
			"A large SOL transfer left this wallet; verify you initiated it.",
			"If you did not authorize this transfer, treat the wallet as compromised.",
		},
		Timestamp: resultTime(tx),
		Signature: tx.Signature,
	}, nil
}
