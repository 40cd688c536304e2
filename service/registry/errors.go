package registry

import (
	"errors"
	"strings"
)

// Validation and on-chain failure classes for report submissions.
// Validation errors are raised client-side before any network call; the
// on-chain program enforces the same rules again.
var (
	ErrInsufficientFunds         = errors.New("insufficient funds for anti-spam fee")
	ErrCannotReportSelf          = errors.New("cannot report your own address as a drainer")
	ErrCannotReportSystemAccount = errors.New("cannot report the system program as a drainer")
	ErrReportCountOverflow       = errors.New("report count overflow")
	ErrAmountOverflow            = errors.New("total reported amount overflow")
)

// Anchor custom error codes start at 6000 (0x1770) and appear in transaction
// simulation/send errors as "custom program error: 0x...".
var programErrorCodes = map[string]error{
	"0x1770": ErrInsufficientFunds,
	"0x1772": ErrReportCountOverflow,
	"0x1773": ErrAmountOverflow,
	"0x1774": ErrCannotReportSelf,
	"0x1775": ErrCannotReportSystemAccount,
}

// mapProgramError translates an on-chain custom error into one of the
// package sentinels. Unrecognized errors pass through unchanged.
func mapProgramError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for code, sentinel := range programErrorCodes {
		if strings.Contains(msg, code) {
			return sentinel
		}
	}
	return err
}
