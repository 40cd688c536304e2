// Package assets computes what a wallet lost in a transaction: native
// lamports and, behind an experimental flag, fungible token and NFT balances.
// Only losses are reported; gains are clamped to zero, because the pipeline
// cares about what was taken, not received.
package assets

import (
	"github.com/drainwatch/drainwatch/service/solana"
)

// AffectedAssets is the aggregated loss summary for one or more transactions.
type AffectedAssets struct {
	SolLostLamports uint64   `json:"sol_lost_lamports"`
	TokenMints      []string `json:"token_mints"`
	NFTMints        []string `json:"nft_mints"`
}

// SolLost returns the native loss in SOL.
func (a AffectedAssets) SolLost() float64 {
	return float64(a.SolLostLamports) / 1e9
}

// Merge folds another extraction into this one: lamport losses are summed,
// mint sets are unioned preserving first-appearance order.
func (a *AffectedAssets) Merge(other AffectedAssets) {
	a.SolLostLamports += other.SolLostLamports
	for _, mint := range other.TokenMints {
		a.TokenMints = appendUnique(a.TokenMints, mint)
	}
	for _, mint := range other.NFTMints {
		a.NFTMints = appendUnique(a.NFTMints, mint)
	}
}

// Extract computes the per-transaction loss for an account.
//
// Native loss is max(0, pre-post). Token and NFT extraction is gated behind
// includeExperimental because it is more expensive and less certain. A token
// account present pre-transaction and absent post-transaction counts its
// entire pre-balance as lost, since account closure typically follows a full
// withdrawal. Known overcount: the rent-exempt reserve of a closed token
// account returns to the owner but is not reconciled against the native loss.
func Extract(tx *solana.TransactionRecord, account string, includeExperimental bool) AffectedAssets {
	var out AffectedAssets

	pre := tx.PreLamports(account)
	post := tx.PostLamports(account)
	if pre > post {
		out.SolLostLamports = pre - post
	}

	if !includeExperimental {
		return out
	}

	// Index post-transaction token balances by account index for the diff.
	postByIndex := make(map[uint16]solana.TokenBalance, len(tx.PostTokenBalances))
	for _, tb := range tx.PostTokenBalances {
		postByIndex[tb.AccountIndex] = tb
	}

	for _, preBal := range tx.PreTokenBalances {
		if preBal.Owner != account {
			continue
		}

		var loss uint64
		postBal, exists := postByIndex[preBal.AccountIndex]
		if !exists {
			loss = preBal.Amount
		} else if preBal.Amount > postBal.Amount {
			loss = preBal.Amount - postBal.Amount
		}

		if loss == 0 {
			continue
		}

		// A loss of exactly 1 raw unit at 0 decimals is an NFT, not a
		// fungible token.
		if loss == 1 && preBal.Decimals == 0 {
			out.NFTMints = appendUnique(out.NFTMints, preBal.Mint)
		} else {
			out.TokenMints = appendUnique(out.TokenMints, preBal.Mint)
		}
	}

	return out
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
