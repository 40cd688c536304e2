package assets

import (
	"testing"

	"github.com/drainwatch/drainwatch/service/solana"
	"github.com/stretchr/testify/assert"
)

const wallet = "Victim111111111111111111111111111111111111"

func balanceTx(pre, post uint64) *solana.TransactionRecord {
	return &solana.TransactionRecord{
		AccountKeys:  []string{wallet, "other"},
		PreBalances:  []uint64{pre, 0},
		PostBalances: []uint64{post, 0},
	}
}

func TestExtract_NativeLoss(t *testing.T) {
	out := Extract(balanceTx(5_000_000_000, 1_000_000_000), wallet, false)
	assert.Equal(t, uint64(4_000_000_000), out.SolLostLamports)
	assert.InDelta(t, 4.0, out.SolLost(), 1e-9)
}

func TestExtract_NativeGainClampedToZero(t *testing.T) {
	out := Extract(balanceTx(1_000_000_000, 5_000_000_000), wallet, false)
	assert.Equal(t, uint64(0), out.SolLostLamports, "gains are not negative losses")
}

func TestExtract_UnknownAccountNoLoss(t *testing.T) {
	out := Extract(balanceTx(5_000_000_000, 1_000_000_000), "NotInTx", false)
	assert.Equal(t, uint64(0), out.SolLostLamports)
}

func TestExtract_TokenLossRequiresExperimental(t *testing.T) {
	tx := balanceTx(0, 0)
	tx.PreTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Account: "tokenAcct", Mint: "MintA", Owner: wallet, Amount: 100, Decimals: 6},
	}
	tx.PostTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Account: "tokenAcct", Mint: "MintA", Owner: wallet, Amount: 0, Decimals: 6},
	}

	out := Extract(tx, wallet, false)
	assert.Empty(t, out.TokenMints, "token extraction is gated")

	out = Extract(tx, wallet, true)
	assert.Equal(t, []string{"MintA"}, out.TokenMints)
}

func TestExtract_ClosedTokenAccountFullDrain(t *testing.T) {
	tx := balanceTx(0, 0)
	tx.PreTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Account: "tokenAcct", Mint: "MintA", Owner: wallet, Amount: 750, Decimals: 6},
	}
	// No post entry: the account was closed after withdrawal.

	out := Extract(tx, wallet, true)
	assert.Equal(t, []string{"MintA"}, out.TokenMints)
}

func TestExtract_UnchangedTokenBalanceIgnored(t *testing.T) {
	tx := balanceTx(0, 0)
	tx.PreTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Mint: "MintA", Owner: wallet, Amount: 500, Decimals: 6},
	}
	tx.PostTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Mint: "MintA", Owner: wallet, Amount: 500, Decimals: 6},
	}

	out := Extract(tx, wallet, true)
	assert.Empty(t, out.TokenMints)
	assert.Empty(t, out.NFTMints)
}

func TestExtract_OtherOwnersIgnored(t *testing.T) {
	tx := balanceTx(0, 0)
	tx.PreTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Mint: "MintA", Owner: "someoneElse", Amount: 100, Decimals: 6},
	}

	out := Extract(tx, wallet, true)
	assert.Empty(t, out.TokenMints)
}

func TestExtract_NFTHeuristic(t *testing.T) {
	tx := balanceTx(0, 0)
	tx.PreTokenBalances = []solana.TokenBalance{
		{AccountIndex: 2, Mint: "NftMint", Owner: wallet, Amount: 1, Decimals: 0},
		{AccountIndex: 3, Mint: "FungibleMint", Owner: wallet, Amount: 2, Decimals: 0},
	}

	out := Extract(tx, wallet, true)
	assert.Equal(t, []string{"NftMint"}, out.NFTMints)
	assert.Equal(t, []string{"FungibleMint"}, out.TokenMints,
		"a loss of more than one unit is fungible even at 0 decimals")
}

func TestMerge(t *testing.T) {
	total := AffectedAssets{
		SolLostLamports: 100,
		TokenMints:      []string{"MintA"},
	}
	total.Merge(AffectedAssets{
		SolLostLamports: 50,
		TokenMints:      []string{"MintA", "MintB"},
		NFTMints:        []string{"NftMint"},
	})

	assert.Equal(t, uint64(150), total.SolLostLamports)
	assert.Equal(t, []string{"MintA", "MintB"}, total.TokenMints)
	assert.Equal(t, []string{"NftMint"}, total.NFTMints)
}
