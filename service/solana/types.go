package solana

import (
	"time"
)

// InstructionKind identifies the decoded shape of an instruction.
type InstructionKind string

const (
	KindUnknown           InstructionKind = "unknown"
	KindSystemTransfer    InstructionKind = "system_transfer"
	KindTokenTransfer     InstructionKind = "token_transfer"
	KindTokenApprove      InstructionKind = "token_approve"
	KindTokenSetAuthority InstructionKind = "token_set_authority"
)

// AuthorityType mirrors the SPL Token SetAuthority authority_type field.
type AuthorityType uint8

const (
	AuthorityMintTokens    AuthorityType = 0
	AuthorityFreezeAccount AuthorityType = 1
	AuthorityAccountOwner  AuthorityType = 2
	AuthorityCloseAccount  AuthorityType = 3
)

// Instruction is one decoded instruction from a transaction.
// Fields beyond ProgramID/Kind/Accounts are populated depending on Kind;
// unused fields are zero values.
type Instruction struct {
	ProgramID string
	Kind      InstructionKind
	Accounts  []string // resolved account addresses, in instruction order

	// System transfer
	Lamports uint64

	// Token transfer / approve
	Amount      uint64
	Mint        string // empty when the instruction doesn't reference the mint
	Source      string
	Destination string
	Delegate    string
	Authority   string

	// Token set-authority
	AuthorityType AuthorityType
	NewAuthority  *string // nil when authority is being revoked
}

// TokenBalance is one entry of the pre- or post-transaction token balance table.
type TokenBalance struct {
	AccountIndex uint16 // index into the transaction's account list
	Account      string // token account address
	Mint         string
	Owner        string // may be empty for older RPC responses
	Amount       uint64 // raw units
	Decimals     uint8
}

// TransactionRecord is a parsed on-chain transaction: the unit the detectors
// and the asset extractor operate on. Immutable once fetched.
type TransactionRecord struct {
	Signature         string
	Slot              uint64
	BlockTime         *time.Time // nil when the node did not report one
	FeePayer          string
	AccountKeys       []string
	Instructions      []Instruction
	PreBalances       []uint64 // lamports, indexed like AccountKeys
	PostBalances      []uint64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	Err               *string // non-nil if the transaction failed on-chain
}

// PreLamports returns the pre-transaction lamport balance for an address,
// or 0 if the address is not in the account list.
func (t *TransactionRecord) PreLamports(address string) uint64 {
	for i, key := range t.AccountKeys {
		if key == address && i < len(t.PreBalances) {
			return t.PreBalances[i]
		}
	}
	return 0
}

// PostLamports returns the post-transaction lamport balance for an address,
// or 0 if the address is not in the account list.
func (t *TransactionRecord) PostLamports(address string) uint64 {
	for i, key := range t.AccountKeys {
		if key == address && i < len(t.PostBalances) {
			return t.PostBalances[i]
		}
	}
	return 0
}
