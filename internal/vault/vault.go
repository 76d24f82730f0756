// internal/vault/vault.go
// Package vault is the client SDK for the idea-vault program: PDA
// derivation, account decoding, unsigned transaction builders and
// balance reads.
package vault

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the deployed idea-vault program.
var DefaultProgramID = solana.MustPublicKeyFromBase58("8ijFSYEJ7dCWSGVbLs7nVntbbmaz1tXYtkBGpn5JSNep")

var associatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// Program binds the SDK to one on-chain deployment of the idea-vault
// program. All PDAs, builders and reads derive from its ID, so pointing
// at a different deployment (a fork, a devnet redeploy) is a matter of
// constructing a different Program.
type Program struct {
	ID solana.PublicKey
}

// DefaultProgram targets the deployed idea-vault program. The package-level
// helpers delegate to it.
var DefaultProgram = Program{ID: DefaultProgramID}

// AdminConfigPDA derives the singleton admin config account.
func (p Program) AdminConfigPDA() (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress([][]byte{[]byte("admin_config")}, p.ID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive admin config PDA: %w", err)
	}
	return addr, bump, nil
}

// VaultSeed hashes an idea ID so the PDA seed always fits the 32 byte
// Solana seed limit.
func VaultSeed(ideaID string) [32]byte {
	return sha256.Sum256([]byte(ideaID))
}

// VaultPDA derives the vault account for an idea.
func (p Program) VaultPDA(ideaID string) (solana.PublicKey, uint8, error) {
	seed := VaultSeed(ideaID)
	addr, bump, err := solana.FindProgramAddress([][]byte{[]byte("vault"), seed[:]}, p.ID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive vault PDA for %q: %w", ideaID, err)
	}
	return addr, bump, nil
}

// UserDepositPDA derives the per-user deposit record under a vault.
func (p Program) UserDepositPDA(vault, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(
		[][]byte{[]byte("deposit"), vault.Bytes(), user.Bytes()},
		p.ID,
	)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("derive user deposit PDA: %w", err)
	}
	return addr, bump, nil
}

// VaultATA returns the vault's associated token account for a mint. The
// vault is a PDA, so the off-curve owner is expected.
func VaultATA(vault, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(vault, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault ATA: %w", err)
	}
	return addr, nil
}

// AdminConfigPDA derives the admin config account of the default program.
func AdminConfigPDA() (solana.PublicKey, uint8, error) {
	return DefaultProgram.AdminConfigPDA()
}

// VaultPDA derives an idea's vault account under the default program.
func VaultPDA(ideaID string) (solana.PublicKey, uint8, error) {
	return DefaultProgram.VaultPDA(ideaID)
}

// UserDepositPDA derives a user's deposit record under the default program.
func UserDepositPDA(vault, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	return DefaultProgram.UserDepositPDA(vault, user)
}
