package registry

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// AttackCategory is the on-chain classification assigned by the off-chain
// summarizer. The client only reads it.
type AttackCategory uint8

const (
	CategoryPhishing          AttackCategory = 0
	CategoryFakeAirdrop       AttackCategory = 1
	CategorySocialEngineering AttackCategory = 2
	CategoryMaliciousApproval AttackCategory = 3
	CategorySetAuthority      AttackCategory = 4
	CategoryUnknown           AttackCategory = 255
)

// String returns a human-readable category label.
func (c AttackCategory) String() string {
	switch c {
	case CategoryPhishing:
		return "phishing"
	case CategoryFakeAirdrop:
		return "fake_airdrop"
	case CategorySocialEngineering:
		return "social_engineering"
	case CategoryMaliciousApproval:
		return "malicious_approval"
	case CategorySetAuthority:
		return "set_authority"
	default:
		return "unknown"
	}
}

// DrainerReport is the aggregated on-chain record for one reported address.
// The program owns this structure; clients never mutate it directly.
type DrainerReport struct {
	DrainerAddress   string   `json:"drainer_address"`
	ReportCount      uint32   `json:"report_count"`
	FirstSeen        int64    `json:"first_seen"`
	LastSeen         int64    `json:"last_seen"`
	TotalSolReported uint64   `json:"total_sol_reported"`
	RecentReporters  []string `json:"recent_reporters"` // at most 2, newest first

	// Metadata written by the off-chain summarizer, empty until it runs.
	AttackCategory string   `json:"attack_category"`
	AttackMethods  []uint8  `json:"attack_methods,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	Domains        []string `json:"domains,omitempty"`
	AIConfidence   uint8    `json:"ai_confidence"`
}

// reportAccount mirrors the Anchor account layout, borsh-encoded after the
// 8-byte account discriminator.
type reportAccount struct {
	DrainerAddress   solana.PublicKey
	ReportCount      uint32
	FirstSeen        int64
	LastSeen         int64
	TotalSolReported uint64
	RecentReporters  [2]solana.PublicKey
	AttackCategory   uint8
	AttackMethods    []uint8
	Summary          string
	Domains          []string
	AIConfidence     uint8
}

// reportAccountDiscriminator is sha256("account:DrainerReport")[..8], the
// deserialization-safety prefix Anchor writes on every account.
var reportAccountDiscriminator = [8]byte{128, 141, 53, 82, 70, 169, 131, 176}

// decodeReportAccount deserializes the raw account data of a DrainerReport.
func decodeReportAccount(data []byte) (*DrainerReport, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], reportAccountDiscriminator[:]) {
		return nil, fmt.Errorf("unexpected account discriminator: %x", data[:8])
	}

	var raw reportAccount
	if err := bin.NewBorshDecoder(data[8:]).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode report account: %w", err)
	}

	report := &DrainerReport{
		DrainerAddress:   raw.DrainerAddress.String(),
		ReportCount:      raw.ReportCount,
		FirstSeen:        raw.FirstSeen,
		LastSeen:         raw.LastSeen,
		TotalSolReported: raw.TotalSolReported,
		AttackCategory:   AttackCategory(raw.AttackCategory).String(),
		AttackMethods:    raw.AttackMethods,
		Summary:          raw.Summary,
		Domains:          raw.Domains,
		AIConfidence:     raw.AIConfidence,
	}

	// The ring holds newest-first slots; unfilled slots are the zero pubkey.
	for _, reporter := range raw.RecentReporters {
		if !reporter.IsZero() {
			report.RecentReporters = append(report.RecentReporters, reporter.String())
		}
	}

	return report, nil
}
