// internal/token/instructions_test.go
package token

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMint   = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testSource = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	testDest   = solana.MustPublicKeyFromBase58("GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG")
)

func composeParams(t *testing.T, amount uint64, destExists bool) ComposeParams {
	t.Helper()
	sourceATA, err := AssociatedAddress(testSource, testMint)
	require.NoError(t, err)
	destATA, err := AssociatedAddress(testDest, testMint)
	require.NoError(t, err)
	return ComposeParams{
		Amount:      amount,
		Decimals:    6,
		Mint:        testMint,
		SourceOwner: testSource,
		DestOwner:   testDest,
		SourceATA:   sourceATA,
		DestATA:     destATA,
		DestExists:  destExists,
	}
}

func TestComposeZeroAmountExistingDest(t *testing.T) {
	instructions := Compose(composeParams(t, 0, true))
	assert.Empty(t, instructions)
}

func TestComposeZeroAmountMissingDest(t *testing.T) {
	instructions := Compose(composeParams(t, 0, false))
	require.Len(t, instructions, 1)
	assert.Equal(t, associatedTokenProgramID, instructions[0].ProgramID())
}

func TestComposeTransferWithMissingDest(t *testing.T) {
	instructions := Compose(composeParams(t, 1_000_000, false))
	require.Len(t, instructions, 3)

	assert.Equal(t, associatedTokenProgramID, instructions[0].ProgramID())
	assert.Equal(t, solana.TokenProgramID, instructions[1].ProgramID())
	assert.Equal(t, memoProgramID, instructions[2].ProgramID())

	data, err := instructions[1].Data()
	require.NoError(t, err)
	require.Len(t, data, 10)
	assert.Equal(t, byte(transferCheckedOpcode), data[0])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, byte(6), data[9])

	memoData, err := instructions[2].Data()
	require.NoError(t, err)
	memo := string(memoData)
	assert.Contains(t, memo, "1")
	assert.Contains(t, memo, testDest.String())
	assert.Equal(t, "Send 1 tokens to "+testDest.String(), memo)
}

func TestComposeTransferWithExistingDest(t *testing.T) {
	instructions := Compose(composeParams(t, 1_000_000, true))
	require.Len(t, instructions, 2)
	assert.Equal(t, solana.TokenProgramID, instructions[0].ProgramID())
	assert.Equal(t, memoProgramID, instructions[1].ProgramID())
}

func TestTransferCheckedAccounts(t *testing.T) {
	p := composeParams(t, 42, true)
	instr := NewTransferCheckedInstruction(p.SourceATA, p.Mint, p.DestATA, p.SourceOwner, p.Amount, p.Decimals)
	accounts := instr.Accounts()
	require.Len(t, accounts, 4)
	assert.Equal(t, p.SourceATA, accounts[0].PublicKey)
	assert.True(t, accounts[0].IsWritable)
	assert.Equal(t, p.Mint, accounts[1].PublicKey)
	assert.Equal(t, p.DestATA, accounts[2].PublicKey)
	assert.True(t, accounts[2].IsWritable)
	assert.Equal(t, p.SourceOwner, accounts[3].PublicKey)
	assert.True(t, accounts[3].IsSigner)
}

func TestHumanAmount(t *testing.T) {
	tests := []struct {
		amount   uint64
		decimals uint8
		want     string
	}{
		{1_000_000, 6, "1"},
		{1_230_000, 6, "1.23"},
		{1, 6, "0.000001"},
		{500, 2, "5"},
		{0, 6, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanAmount(tt.amount, tt.decimals))
	}
}

func TestAssociatedAddressDeterministic(t *testing.T) {
	first, err := AssociatedAddress(testSource, testMint)
	require.NoError(t, err)
	second, err := AssociatedAddress(testSource, testMint)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	otherOwner, err := AssociatedAddress(testDest, testMint)
	require.NoError(t, err)
	assert.NotEqual(t, first, otherOwner)

	otherMint, err := AssociatedAddress(testSource, solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"))
	require.NoError(t, err)
	assert.NotEqual(t, first, otherMint)
}
