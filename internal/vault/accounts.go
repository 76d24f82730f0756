// internal/vault/accounts.go
package vault

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Anchor 8-byte discriminators for the program's instructions and accounts.
var (
	initializeVaultDiscriminator = []byte{48, 191, 163, 44, 71, 129, 63, 164}
	depositDiscriminator         = []byte{242, 35, 198, 137, 82, 225, 242, 182}
	withdrawDiscriminator        = []byte{183, 18, 70, 156, 148, 109, 161, 34}

	ideaVaultDiscriminator   = []byte{56, 77, 82, 142, 145, 174, 154, 42}
	userDepositDiscriminator = []byte{69, 238, 23, 217, 255, 137, 185, 35}
)

// IdeaVault is the decoded state of a vault account.
type IdeaVault struct {
	IdeaID         string
	Bump           uint8
	Mint           solana.PublicKey
	VaultATA       solana.PublicKey
	TotalDeposited uint64
}

// UserDeposit is the decoded state of a per-user deposit account.
type UserDeposit struct {
	Vault  solana.PublicKey
	User   solana.PublicKey
	Amount uint64
}

// DecodeIdeaVault decodes raw account data into an IdeaVault.
// Layout: discriminator, idea_id (u32 length prefix + bytes),
// vault_seed [32], bump u8, mint, vault_ata, total_deposited u64.
func DecodeIdeaVault(data []byte) (*IdeaVault, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], ideaVaultDiscriminator) {
		return nil, fmt.Errorf("invalid account discriminator for IdeaVault")
	}
	offset := 8

	if len(data) < offset+4 {
		return nil, fmt.Errorf("truncated idea_id length")
	}
	strLen := int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	// idea_id + vault_seed + bump + mint + vault_ata + total_deposited
	if len(data) < offset+strLen+32+1+32+32+8 {
		return nil, fmt.Errorf("truncated IdeaVault account: %d bytes", len(data))
	}

	v := &IdeaVault{IdeaID: string(data[offset : offset+strLen])}
	offset += strLen
	offset += 32 // vault_seed, derivable from idea_id

	v.Bump = data[offset]
	offset++

	v.Mint = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	v.VaultATA = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32

	v.TotalDeposited = binary.LittleEndian.Uint64(data[offset:])
	return v, nil
}

// DecodeUserDeposit decodes raw account data into a UserDeposit.
// Layout: discriminator, vault, user, amount u64.
func DecodeUserDeposit(data []byte) (*UserDeposit, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("account data too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], userDepositDiscriminator) {
		return nil, fmt.Errorf("invalid account discriminator for UserDeposit")
	}
	if len(data) < 8+32+32+8 {
		return nil, fmt.Errorf("truncated UserDeposit account: %d bytes", len(data))
	}

	d := &UserDeposit{
		Vault:  solana.PublicKeyFromBytes(data[8:40]),
		User:   solana.PublicKeyFromBytes(data[40:72]),
		Amount: binary.LittleEndian.Uint64(data[72:80]),
	}
	return d, nil
}

// EncodeIdeaVault serializes an IdeaVault into account data. Used by
// tests and local fixtures.
func EncodeIdeaVault(v *IdeaVault) []byte {
	seed := VaultSeed(v.IdeaID)

	buf := make([]byte, 0, 8+4+len(v.IdeaID)+32+1+32+32+8)
	buf = append(buf, ideaVaultDiscriminator...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.IdeaID)))
	buf = append(buf, v.IdeaID...)
	buf = append(buf, seed[:]...)
	buf = append(buf, v.Bump)
	buf = append(buf, v.Mint.Bytes()...)
	buf = append(buf, v.VaultATA.Bytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, v.TotalDeposited)
	return buf
}

// EncodeUserDeposit serializes a UserDeposit into account data.
func EncodeUserDeposit(d *UserDeposit) []byte {
	buf := make([]byte, 0, 8+32+32+8)
	buf = append(buf, userDepositDiscriminator...)
	buf = append(buf, d.Vault.Bytes()...)
	buf = append(buf, d.User.Bytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, d.Amount)
	return buf
}
