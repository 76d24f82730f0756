// internal/vault/balance.go
package vault

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SPL token account layout keeps the u64 amount after mint and owner.
const tokenAmountOffset = 64

// Reader is the subset of *chain.Client the read path needs.
type Reader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// Exists reports whether the vault for an idea has been initialized.
func (p Program) Exists(ctx context.Context, client Reader, ideaID string) (bool, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return false, err
	}
	return client.AccountExists(ctx, vaultPDA)
}

// Fetch loads and decodes the vault account of an idea. Returns nil without
// error when the vault does not exist yet.
func (p Program) Fetch(ctx context.Context, client Reader, ideaID string) (*IdeaVault, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return nil, err
	}
	data, err := accountData(ctx, client, vaultPDA)
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeIdeaVault(data)
}

// FetchUserDeposit loads the user's deposit record under an idea's vault.
// Returns nil without error when the user never deposited.
func (p Program) FetchUserDeposit(ctx context.Context, client Reader, ideaID string, user solana.PublicKey) (*UserDeposit, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return nil, err
	}
	depositPDA, _, err := p.UserDepositPDA(vaultPDA, user)
	if err != nil {
		return nil, err
	}
	data, err := accountData(ctx, client, depositPDA)
	if err != nil || data == nil {
		return nil, err
	}
	return DecodeUserDeposit(data)
}

// TokenBalance reads the base-unit balance of the owner's associated token
// account for a mint. A missing account is a zero balance.
func TokenBalance(ctx context.Context, client Reader, owner, mint solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("derive token account: %w", err)
	}
	return tokenAccountAmount(ctx, client, ata)
}

// Balance reads the base-unit balance held by an idea's vault. A missing
// vault token account is a zero balance.
func (p Program) Balance(ctx context.Context, client Reader, ideaID string, mint solana.PublicKey) (uint64, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return 0, err
	}
	vaultATA, err := VaultATA(vaultPDA, mint)
	if err != nil {
		return 0, err
	}
	return tokenAccountAmount(ctx, client, vaultATA)
}

// Exists reports whether an idea's vault exists under the default program.
func Exists(ctx context.Context, client Reader, ideaID string) (bool, error) {
	return DefaultProgram.Exists(ctx, client, ideaID)
}

// Fetch loads an idea's vault account from the default program.
func Fetch(ctx context.Context, client Reader, ideaID string) (*IdeaVault, error) {
	return DefaultProgram.Fetch(ctx, client, ideaID)
}

// FetchUserDeposit loads a user's deposit record from the default program.
func FetchUserDeposit(ctx context.Context, client Reader, ideaID string, user solana.PublicKey) (*UserDeposit, error) {
	return DefaultProgram.FetchUserDeposit(ctx, client, ideaID, user)
}

// Balance reads an idea's vault balance under the default program.
func Balance(ctx context.Context, client Reader, ideaID string, mint solana.PublicKey) (uint64, error) {
	return DefaultProgram.Balance(ctx, client, ideaID, mint)
}

func tokenAccountAmount(ctx context.Context, client Reader, account solana.PublicKey) (uint64, error) {
	data, err := accountData(ctx, client, account)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}
	if len(data) < tokenAmountOffset+8 {
		return 0, fmt.Errorf("token account %s data too short: %d bytes", account, len(data))
	}
	return binary.LittleEndian.Uint64(data[tokenAmountOffset:]), nil
}

// accountData fetches raw account bytes. A missing account is nil data.
func accountData(ctx context.Context, client Reader, account solana.PublicKey) ([]byte, error) {
	result, err := client.GetAccountInfo(ctx, account)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Value == nil || result.Value.Data == nil {
		return nil, nil
	}
	return result.Value.Data.GetBinary(), nil
}
