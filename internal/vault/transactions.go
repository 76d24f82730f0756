// internal/vault/transactions.go
package vault

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// blockhashSource supplies the recent blockhash a builder binds into the
// unsigned transaction. *chain.Client satisfies it.
type blockhashSource interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// NewInitializeVaultTransaction builds an unsigned transaction creating the
// vault and its token account for an idea. The payer signs and funds rent.
func (p Program) NewInitializeVaultTransaction(ctx context.Context, client blockhashSource, payer solana.PublicKey, ideaID string, mint solana.PublicKey) (*solana.Transaction, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return nil, err
	}
	vaultATA, err := VaultATA(vaultPDA, mint)
	if err != nil {
		return nil, err
	}
	adminConfig, _, err := p.AdminConfigPDA()
	if err != nil {
		return nil, err
	}

	// initialize_vault(idea_id: String, vault_seed: [u8; 32])
	seed := VaultSeed(ideaID)
	data := make([]byte, 0, 8+4+len(ideaID)+32)
	data = append(data, initializeVaultDiscriminator...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(ideaID)))
	data = append(data, ideaID...)
	data = append(data, seed[:]...)

	ix := solana.NewInstruction(
		p.ID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsWritable: true, IsSigner: true},
			{PublicKey: adminConfig, IsWritable: false, IsSigner: false},
			{PublicKey: vaultPDA, IsWritable: true, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: vaultATA, IsWritable: true, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: associatedTokenProgramID, IsWritable: false, IsSigner: false},
		},
		data,
	)

	return assemble(ctx, client, payer, ix)
}

// NewDepositTransaction builds an unsigned transaction depositing base units
// of the vault mint from the user's token account into the vault.
func (p Program) NewDepositTransaction(ctx context.Context, client blockhashSource, user solana.PublicKey, ideaID string, amount uint64, mint solana.PublicKey) (*solana.Transaction, error) {
	accounts, err := p.resolveAccounts(user, ideaID, mint)
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		p.ID,
		[]*solana.AccountMeta{
			{PublicKey: user, IsWritable: true, IsSigner: true},
			{PublicKey: accounts.adminConfig, IsWritable: false, IsSigner: false},
			{PublicKey: accounts.vault, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.userATA, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.vaultATA, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.userDeposit, IsWritable: true, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: associatedTokenProgramID, IsWritable: false, IsSigner: false},
		},
		amountData(depositDiscriminator, amount),
	)

	return assemble(ctx, client, user, ix)
}

// NewWithdrawTransaction builds an unsigned transaction withdrawing base
// units from the vault back to the user's token account.
func (p Program) NewWithdrawTransaction(ctx context.Context, client blockhashSource, user solana.PublicKey, ideaID string, amount uint64, mint solana.PublicKey) (*solana.Transaction, error) {
	accounts, err := p.resolveAccounts(user, ideaID, mint)
	if err != nil {
		return nil, err
	}

	ix := solana.NewInstruction(
		p.ID,
		[]*solana.AccountMeta{
			{PublicKey: user, IsWritable: true, IsSigner: true},
			{PublicKey: accounts.adminConfig, IsWritable: false, IsSigner: false},
			{PublicKey: accounts.vault, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.userDeposit, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.userATA, IsWritable: true, IsSigner: false},
			{PublicKey: accounts.vaultATA, IsWritable: true, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		},
		amountData(withdrawDiscriminator, amount),
	)

	return assemble(ctx, client, user, ix)
}

// NewInitializeVaultTransaction builds the vault-creation transaction against
// the default program.
func NewInitializeVaultTransaction(ctx context.Context, client blockhashSource, payer solana.PublicKey, ideaID string, mint solana.PublicKey) (*solana.Transaction, error) {
	return DefaultProgram.NewInitializeVaultTransaction(ctx, client, payer, ideaID, mint)
}

// NewDepositTransaction builds a deposit transaction against the default
// program.
func NewDepositTransaction(ctx context.Context, client blockhashSource, user solana.PublicKey, ideaID string, amount uint64, mint solana.PublicKey) (*solana.Transaction, error) {
	return DefaultProgram.NewDepositTransaction(ctx, client, user, ideaID, amount, mint)
}

// NewWithdrawTransaction builds a withdraw transaction against the default
// program.
func NewWithdrawTransaction(ctx context.Context, client blockhashSource, user solana.PublicKey, ideaID string, amount uint64, mint solana.PublicKey) (*solana.Transaction, error) {
	return DefaultProgram.NewWithdrawTransaction(ctx, client, user, ideaID, amount, mint)
}

type vaultAccounts struct {
	adminConfig solana.PublicKey
	vault       solana.PublicKey
	vaultATA    solana.PublicKey
	userATA     solana.PublicKey
	userDeposit solana.PublicKey
}

func (p Program) resolveAccounts(user solana.PublicKey, ideaID string, mint solana.PublicKey) (*vaultAccounts, error) {
	vaultPDA, _, err := p.VaultPDA(ideaID)
	if err != nil {
		return nil, err
	}
	vaultATA, err := VaultATA(vaultPDA, mint)
	if err != nil {
		return nil, err
	}
	userDeposit, _, err := p.UserDepositPDA(vaultPDA, user)
	if err != nil {
		return nil, err
	}
	userATA, _, err := solana.FindAssociatedTokenAddress(user, mint)
	if err != nil {
		return nil, fmt.Errorf("derive user token account: %w", err)
	}
	adminConfig, _, err := p.AdminConfigPDA()
	if err != nil {
		return nil, err
	}

	return &vaultAccounts{
		adminConfig: adminConfig,
		vault:       vaultPDA,
		vaultATA:    vaultATA,
		userATA:     userATA,
		userDeposit: userDeposit,
	}, nil
}

func amountData(discriminator []byte, amount uint64) []byte {
	data := make([]byte, 16)
	copy(data, discriminator)
	binary.LittleEndian.PutUint64(data[8:], amount)
	return data
}

func assemble(ctx context.Context, client blockhashSource, payer solana.PublicKey, ix solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	return tx, nil
}
