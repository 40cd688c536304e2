package solana

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// SPL Token instruction types
const (
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramApproveInstruction         = uint8(4)
	TokenProgramSetAuthorityInstruction    = uint8(6)
	TokenProgramTransferCheckedInstruction = uint8(12)
	TokenProgramApproveCheckedInstruction  = uint8(13)
)

// recordFromResult builds a TransactionRecord from a full GetTransactionResult.
// The signature metadata supplies the id/slot/block time; the result supplies
// account keys, decoded instructions and the pre/post balance tables.
func recordFromResult(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) (*TransactionRecord, error) {
	record := recordFromSignature(sig)

	if result == nil {
		return record, nil
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	// Account key order is: static keys, then loaded writable, then loaded
	// read-only (versioned transactions with address lookup tables).
	keys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys))
	keys = append(keys, tx.Message.AccountKeys...)
	if result.Meta != nil {
		keys = append(keys, result.Meta.LoadedAddresses.Writable...)
		keys = append(keys, result.Meta.LoadedAddresses.ReadOnly...)
	}

	record.AccountKeys = make([]string, len(keys))
	for i, key := range keys {
		record.AccountKeys[i] = key.String()
	}
	if len(record.AccountKeys) > 0 {
		record.FeePayer = record.AccountKeys[0]
	}

	for _, compiled := range tx.Message.Instructions {
		record.Instructions = append(record.Instructions, decodeInstruction(compiled, keys))
	}

	if result.Meta != nil {
		record.PreBalances = result.Meta.PreBalances
		record.PostBalances = result.Meta.PostBalances
		record.PreTokenBalances = tokenBalancesFromMeta(result.Meta.PreTokenBalances, record.AccountKeys)
		record.PostTokenBalances = tokenBalancesFromMeta(result.Meta.PostTokenBalances, record.AccountKeys)
	}

	return record, nil
}

// recordFromSignature builds a metadata-only TransactionRecord from a
// signature-list entry. Used as a fallback when the full fetch fails.
func recordFromSignature(sig *rpc.TransactionSignature) *TransactionRecord {
	record := &TransactionRecord{
		Signature: sig.Signature.String(),
		Slot:      sig.Slot,
	}

	if sig.BlockTime != nil {
		bt := sig.BlockTime.Time()
		record.BlockTime = &bt
	}

	if sig.Err != nil {
		errMsg := fmt.Sprintf("transaction failed: %v", sig.Err)
		record.Err = &errMsg
	}

	return record
}

// decodeInstruction resolves a compiled instruction against the account list
// and decodes the instruction kinds the detectors care about. Anything else
// is kept as KindUnknown with its accounts resolved, so the known-drainer
// detector still sees every referenced address.
func decodeInstruction(compiled solana.CompiledInstruction, keys []solana.PublicKey) Instruction {
	inst := Instruction{Kind: KindUnknown}

	if int(compiled.ProgramIDIndex) < len(keys) {
		inst.ProgramID = keys[compiled.ProgramIDIndex].String()
	}

	inst.Accounts = make([]string, 0, len(compiled.Accounts))
	for _, idx := range compiled.Accounts {
		if int(idx) < len(keys) {
			inst.Accounts = append(inst.Accounts, keys[idx].String())
		}
	}

	switch {
	case inst.ProgramID == SystemProgramID.String():
		decodeSystemInstruction(&inst, compiled.Data)
	case inst.ProgramID == TokenProgramID.String() || inst.ProgramID == Token2022ProgramID.String():
		decodeTokenInstruction(&inst, compiled.Data)
	}

	return inst
}

// decodeSystemInstruction decodes a System Program transfer.
// Transfer layout: [0..4] instruction type (u32, 2), [4..12] lamports (u64).
// Accounts: [from, to].
func decodeSystemInstruction(inst *Instruction, data []byte) {
	if len(data) < 12 {
		return
	}
	if binary.LittleEndian.Uint32(data[0:4]) != SystemProgramTransferInstruction {
		return
	}

	inst.Kind = KindSystemTransfer
	inst.Lamports = binary.LittleEndian.Uint64(data[4:12])
	if len(inst.Accounts) >= 2 {
		inst.Source = inst.Accounts[0]
		inst.Destination = inst.Accounts[1]
	}
}

// decodeTokenInstruction decodes the SPL Token instructions relevant to drain
// detection: Transfer(Checked), Approve(Checked) and SetAuthority.
func decodeTokenInstruction(inst *Instruction, data []byte) {
	if len(data) == 0 {
		return
	}

	switch data[0] {
	case TokenProgramTransferInstruction:
		// [0] tag, [1..9] amount (u64). Accounts: [source, destination, authority].
		if len(data) < 9 {
			return
		}
		inst.Kind = KindTokenTransfer
		inst.Amount = binary.LittleEndian.Uint64(data[1:9])
		if len(inst.Accounts) >= 3 {
			inst.Source = inst.Accounts[0]
			inst.Destination = inst.Accounts[1]
			inst.Authority = inst.Accounts[2]
		}

	case TokenProgramTransferCheckedInstruction:
		// [0] tag, [1..9] amount (u64), [9] decimals (u8).
		// Accounts: [source, mint, destination, authority].
		if len(data) < 10 {
			return
		}
		inst.Kind = KindTokenTransfer
		inst.Amount = binary.LittleEndian.Uint64(data[1:9])
		if len(inst.Accounts) >= 4 {
			inst.Source = inst.Accounts[0]
			inst.Mint = inst.Accounts[1]
			inst.Destination = inst.Accounts[2]
			inst.Authority = inst.Accounts[3]
		}

	case TokenProgramApproveInstruction:
		// [0] tag, [1..9] amount (u64). Accounts: [source, delegate, owner].
		if len(data) < 9 {
			return
		}
		inst.Kind = KindTokenApprove
		inst.Amount = binary.LittleEndian.Uint64(data[1:9])
		if len(inst.Accounts) >= 3 {
			inst.Source = inst.Accounts[0]
			inst.Delegate = inst.Accounts[1]
			inst.Authority = inst.Accounts[2]
		}

	case TokenProgramApproveCheckedInstruction:
		// [0] tag, [1..9] amount (u64), [9] decimals (u8).
		// Accounts: [source, mint, delegate, owner].
		if len(data) < 10 {
			return
		}
		inst.Kind = KindTokenApprove
		inst.Amount = binary.LittleEndian.Uint64(data[1:9])
		if len(inst.Accounts) >= 4 {
			inst.Source = inst.Accounts[0]
			inst.Mint = inst.Accounts[1]
			inst.Delegate = inst.Accounts[2]
			inst.Authority = inst.Accounts[3]
		}

	case TokenProgramSetAuthorityInstruction:
		// [0] tag, [1] authority_type (u8), [2] COption flag, [3..35] new authority.
		// Accounts: [account or mint, current authority].
		if len(data) < 3 {
			return
		}
		inst.Kind = KindTokenSetAuthority
		inst.AuthorityType = AuthorityType(data[1])
		if len(inst.Accounts) >= 2 {
			inst.Source = inst.Accounts[0]
			inst.Authority = inst.Accounts[1]
		}
		if data[2] == 1 && len(data) >= 35 {
			newAuth := solana.PublicKeyFromBytes(data[3:35]).String()
			inst.NewAuthority = &newAuth
		}
	}
}

// tokenBalancesFromMeta converts RPC token balance entries to the domain model.
// Raw amounts arrive as decimal strings; unparseable entries are dropped rather
// than poisoning the whole record.
func tokenBalancesFromMeta(balances []rpc.TokenBalance, accountKeys []string) []TokenBalance {
	if len(balances) == 0 {
		return nil
	}

	out := make([]TokenBalance, 0, len(balances))
	for _, tb := range balances {
		if tb.UiTokenAmount == nil {
			continue
		}
		amount, err := strconv.ParseUint(tb.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}

		entry := TokenBalance{
			AccountIndex: tb.AccountIndex,
			Mint:         tb.Mint.String(),
			Amount:       amount,
			Decimals:     tb.UiTokenAmount.Decimals,
		}
		if int(tb.AccountIndex) < len(accountKeys) {
			entry.Account = accountKeys[tb.AccountIndex]
		}
		if tb.Owner != nil {
			entry.Owner = tb.Owner.String()
		}
		out = append(out, entry)
	}
	return out
}
