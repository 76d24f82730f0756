// internal/wallet/wallet_test.go
package wallet

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	generated := solana.NewWallet()

	w, err := New(generated.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), w.PublicKey)
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New("not-base58!!!")
	assert.Error(t, err)

	// valid base58, wrong length
	_, err = New("3yZe7d")
	assert.ErrorContains(t, err, "length")
}

func TestSign(t *testing.T) {
	w := Generate()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(0, w.PublicKey, w.PublicKey).Build()},
		solana.Hash{1},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	signed, err := w.Sign(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, signed.Signatures, 1)
	assert.NoError(t, signed.VerifySignatures())
}

func TestATACached(t *testing.T) {
	w := Generate()
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	first, err := w.ATA(mint)
	require.NoError(t, err)

	second, err := w.ATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
}

func TestLoad(t *testing.T) {
	a := solana.NewWallet()
	b := solana.NewWallet()

	path := filepath.Join(t.TempDir(), "wallets.csv")
	content := "Name,PrivateKey\n" +
		"main," + a.PrivateKey.String() + "\n" +
		"backup," + b.PrivateKey.String() + "\n" +
		"broken,not-a-key\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	wallets, err := Load(path)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, a.PublicKey(), wallets["main"].PublicKey)
	assert.Equal(t, b.PublicKey(), wallets["backup"].PublicKey)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,PrivateKey\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
