package registry

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/drainwatch/drainwatch/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// AntiSpamFeeLamports is the fixed fee (0.01 SOL) the program charges per
// report to deter spam entries.
const AntiSpamFeeLamports = 10_000_000

// txFeeBufferLamports covers the network transaction fee on top of the
// anti-spam fee when pre-checking the reporter balance.
const txFeeBufferLamports = 5_000

// reportInstructionDiscriminator is sha256("global:report_drainer")[..8].
var reportInstructionDiscriminator = [8]byte{85, 75, 117, 179, 126, 35, 99, 201}

// reportSeed is the constant PDA seed prefix; each drainer gets exactly one
// report account at ["drainer", drainerAddress] without a separate index.
var reportSeed = []byte("drainer")

// ErrInvalidAddress marks a malformed base58 address, rejected before any
// network call.
var ErrInvalidAddress = errors.New("invalid address")

// RPCClient is the subset of Solana RPC operations the registry client needs.
// *rpc.Client satisfies it directly; tests substitute a mock.
type RPCClient interface {
	GetAccountInfoWithOpts(
		ctx context.Context,
		account solana.PublicKey,
		opts *rpc.GetAccountInfoOpts,
	) (*rpc.GetAccountInfoResult, error)

	GetBalance(
		ctx context.Context,
		account solana.PublicKey,
		commitment rpc.CommitmentType,
	) (*rpc.GetBalanceResult, error)

	GetLatestBlockhash(
		ctx context.Context,
		commitment rpc.CommitmentType,
	) (*rpc.GetLatestBlockhashResult, error)

	SendTransactionWithOpts(
		ctx context.Context,
		tx *solana.Transaction,
		opts rpc.TransactionOpts,
	) (solana.Signature, error)
}

// Client reads and writes the on-chain drainer registry.
//
// Reads are free and idempotent. Writes submit a report_drainer instruction
// that the program applies atomically; the client never mutates report
// accounts directly.
type Client struct {
	rpc          RPCClient
	programID    solana.PublicKey
	feeAuthority solana.PublicKey
	reporter     *solana.PrivateKey // nil for read-only clients
	logger       *slog.Logger
	metrics      *metrics.Metrics
	timeout      time.Duration
}

// NewClient creates a registry client. The reporter key may be nil, in which
// case Report returns an error; Get works regardless. If m is nil, no metrics
// are recorded.
func NewClient(rpcClient RPCClient, programID, feeAuthority solana.PublicKey, reporter *solana.PrivateKey, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:          rpcClient,
		programID:    programID,
		feeAuthority: feeAuthority,
		reporter:     reporter,
		logger:       logger,
		metrics:      m,
		timeout:      10 * time.Second,
	}
}

// ReportAddress derives the PDA of the report account for a drainer address.
func (c *Client) ReportAddress(drainer solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{reportSeed, drainer.Bytes()},
		c.programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive report address: %w", err)
	}
	return addr, nil
}

// Get fetches the DrainerReport for an address, or (nil, nil) if the address
// has never been reported. Registry unavailability is surfaced as an error:
// it must not silently downgrade a risk verdict.
func (c *Client) Get(ctx context.Context, address string) (*DrainerReport, error) {
	drainer, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	reportAddr, err := c.ReportAddress(drainer)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, reportAddr, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			c.recordLookup("miss", duration)
			return nil, nil
		}
		c.recordLookup("error", duration)
		return nil, fmt.Errorf("failed to fetch report account: %w", err)
	}

	if result == nil || result.Value == nil {
		c.recordLookup("miss", duration)
		return nil, nil
	}

	data := result.Value.Data.GetBinary()
	report, err := decodeReportAccount(data)
	if err != nil {
		c.recordLookup("error", duration)
		return nil, err
	}

	c.recordLookup("hit", duration)
	c.logger.DebugContext(ctx, "drainer report found",
		"drainer", address,
		"report_count", report.ReportCount,
	)
	return report, nil
}

// Report submits a report_drainer instruction for the given address, paying
// the anti-spam fee from the client's reporter key. amountLamports, when
// non-nil, is added to the on-chain running total of stolen funds.
//
// Validation (self-report, system account, fee balance) happens before any
// fee is paid; on-chain logic errors are mapped to the package sentinels.
func (c *Client) Report(ctx context.Context, address string, amountLamports *uint64) (solana.Signature, error) {
	if c.reporter == nil {
		return solana.Signature{}, errors.New("registry client has no reporter key configured")
	}

	drainer, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	reporterKey := c.reporter.PublicKey()
	if drainer.Equals(reporterKey) {
		return solana.Signature{}, ErrCannotReportSelf
	}
	if drainer.Equals(solana.SystemProgramID) {
		return solana.Signature{}, ErrCannotReportSystemAccount
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Pre-check the fee balance so a doomed submission doesn't burn a
	// network fee. The program enforces this again when the fee transfers.
	balance, err := c.rpc.GetBalance(ctx, reporterKey, rpc.CommitmentConfirmed)
	if err != nil {
		c.recordReport("error")
		return solana.Signature{}, fmt.Errorf("failed to check reporter balance: %w", err)
	}
	if balance.Value < AntiSpamFeeLamports+txFeeBufferLamports {
		c.recordReport("insufficient_funds")
		return solana.Signature{}, ErrInsufficientFunds
	}

	reportAddr, err := c.ReportAddress(drainer)
	if err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.recordReport("error")
		return solana.Signature{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	instruction := solana.NewInstruction(
		c.programID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(reportAddr, true, false),
			solana.NewAccountMeta(reporterKey, true, true),
			solana.NewAccountMeta(c.feeAuthority, true, false),
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(solana.SysVarClockPubkey, false, false),
		},
		encodeReportInstruction(drainer, amountLamports),
	)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(reporterKey),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(reporterKey) {
			return c.reporter
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		mapped := mapProgramError(err)
		c.recordReport("error")
		return solana.Signature{}, fmt.Errorf("report submission failed: %w", mapped)
	}

	c.recordReport("success")
	c.logger.InfoContext(ctx, "drainer report submitted",
		"drainer", address,
		"signature", sig.String(),
		"reporter", reporterKey.String(),
	)
	return sig, nil
}

// encodeReportInstruction builds the report_drainer instruction payload:
// 8-byte discriminator, 32-byte drainer pubkey, then a borsh Option<u64>
// (presence flag byte + little-endian amount).
func encodeReportInstruction(drainer solana.PublicKey, amountLamports *uint64) []byte {
	data := make([]byte, 0, 8+32+9)
	data = append(data, reportInstructionDiscriminator[:]...)
	data = append(data, drainer.Bytes()...)
	if amountLamports != nil {
		var amount [8]byte
		binary.LittleEndian.PutUint64(amount[:], *amountLamports)
		data = append(data, 1)
		data = append(data, amount[:]...)
	} else {
		data = append(data, 0)
	}
	return data
}

func (c *Client) recordLookup(status string, durationSeconds float64) {
	if c.metrics != nil {
		c.metrics.RecordRegistryLookup(status, durationSeconds)
	}
}

func (c *Client) recordReport(status string) {
	if c.metrics != nil {
		c.metrics.RecordRegistryReport(status)
	}
}
