package nats

import "time"

// AnalysisEvent is published when a wallet analysis completes.
type AnalysisEvent struct {
	WalletAddress    string    `json:"wallet_address"`
	OverallRisk      int       `json:"overall_risk"`
	Severity         string    `json:"severity"`
	DetectionCount   int       `json:"detection_count"`
	TransactionCount int       `json:"transaction_count"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// ReportEvent is published when a drainer report is submitted on chain.
type ReportEvent struct {
	DrainerAddress string    `json:"drainer_address"`
	AmountLamports *uint64   `json:"amount_lamports,omitempty"`
	Signature      string    `json:"signature"`
	ReportedAt     time.Time `json:"reported_at"`
}
