package detect

import (
	"context"

	"github.com/drainwatch/drainwatch/service/solana"
)

// SetAuthorityDetector flags token SetAuthority instructions that hand
// account-owner authority to a new address. Transferring owner authority away
// is an irreversible, total loss-of-control event, hence Critical severity.
type SetAuthorityDetector struct{}

func (SetAuthorityDetector) Name() string { return "set_authority" }

// Detect emits one finding aggregating all matches in the transaction (union
// of affected accounts and new authorities), not one per instruction.
func (SetAuthorityDetector) Detect(_ context.Context, tx *solana.TransactionRecord) (*Result, error) {
	var affected, recipients []string

	for _, inst := range tx.Instructions {
		if inst.Kind != solana.KindTokenSetAuthority {
			continue
		}
		if inst.AuthorityType != solana.AuthorityAccountOwner || inst.NewAuthority == nil {
			continue
		}
		if inst.Source != "" {
			affected = appendUnique(affected, inst.Source)
		}
		recipients = appendUnique(recipients, *inst.NewAuthority)
	}

	if len(recipients) == 0 {
		return nil, nil
	}

	return &Result{
		Type:                 TypeSetAuthority,
		Severity:             SeverityCritical,
		Confidence:           95,
		AffectedAccounts:     affected,
		SuspiciousRecipients: recipients,
		Recommendations: []string{
			"Account owner authority was transferred away; the listed token accounts are no longer under your control.",
			"Move any remaining assets from this wallet to a fresh wallet immediately.",
			"Never sign transactions from untrusted sites; authority changes are irreversible.",
		},
		Timestamp: resultTime(tx),
		Signature: tx.Signature,
	}, nil
}
