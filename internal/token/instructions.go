// internal/token/instructions.go
package token

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

var (
	associatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	memoProgramID            = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// transferCheckedOpcode is the SPL token program instruction index for
// TransferChecked.
const transferCheckedOpcode = 12

// ComposeParams carries everything the composer needs for one attempt. The
// associated accounts are pre-resolved; DestExists reflects the network state
// read against the endpoint being attempted.
type ComposeParams struct {
	Amount      uint64
	Decimals    uint8
	Mint        solana.PublicKey
	SourceOwner solana.PublicKey
	DestOwner   solana.PublicKey
	SourceATA   solana.PublicKey
	DestATA     solana.PublicKey
	DestExists  bool
}

// Compose assembles the ordered instruction list for one transfer:
// create-destination-account when missing, then transfer-checked and a memo
// when there is value to move. A zero amount against an existing destination
// yields an empty list; callers treat that as a no-op.
func Compose(p ComposeParams) []solana.Instruction {
	var instructions []solana.Instruction

	if !p.DestExists {
		instructions = append(instructions,
			NewCreateAssociatedAccountInstruction(p.SourceOwner, p.DestOwner, p.Mint))
	}

	if p.Amount > 0 {
		instructions = append(instructions,
			NewTransferCheckedInstruction(p.SourceATA, p.Mint, p.DestATA, p.SourceOwner, p.Amount, p.Decimals),
			NewMemoInstruction([]byte(TransferMemo(p.Amount, p.Decimals, p.DestOwner))))
	}

	return instructions
}

// NewCreateAssociatedAccountInstruction builds the instruction creating the
// associated token account of (owner, mint), funded by payer.
func NewCreateAssociatedAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	ata, _, _ := solana.FindAssociatedTokenAddress(owner, mint)

	return solana.NewInstruction(
		associatedTokenProgramID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsWritable: true, IsSigner: true},
			{PublicKey: ata, IsWritable: true, IsSigner: false},
			{PublicKey: owner, IsWritable: false, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SysVarRentPubkey, IsWritable: false, IsSigner: false},
		},
		[]byte{},
	)
}

// NewTransferCheckedInstruction builds a TransferChecked instruction. The
// checked variant makes the token program validate decimals against the mint
// at execution time, so a mismatch fails instead of silently mispricing.
func NewTransferCheckedInstruction(source, mint, dest, authority solana.PublicKey, amount uint64, decimals uint8) solana.Instruction {
	data := make([]byte, 10)
	data[0] = transferCheckedOpcode
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = decimals

	return solana.NewInstruction(
		solana.TokenProgramID,
		[]*solana.AccountMeta{
			{PublicKey: source, IsWritable: true, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: dest, IsWritable: true, IsSigner: false},
			{PublicKey: authority, IsWritable: false, IsSigner: true},
		},
		data,
	)
}

// NewMemoInstruction builds a memo carrying an arbitrary byte string. The
// memo program takes no accounts.
func NewMemoInstruction(data []byte) solana.Instruction {
	return solana.NewInstruction(memoProgramID, []*solana.AccountMeta{}, data)
}

// TransferMemo renders the human-readable transfer description attached to
// outgoing transfers.
func TransferMemo(amount uint64, decimals uint8, destOwner solana.PublicKey) string {
	return fmt.Sprintf("Send %s tokens to %s", HumanAmount(amount, decimals), destOwner.String())
}

// HumanAmount formats a smallest-unit amount using the mint's decimals,
// without trailing zeros.
func HumanAmount(amount uint64, decimals uint8) string {
	value := float64(amount) / math.Pow10(int(decimals))
	return strconv.FormatFloat(value, 'f', -1, 64)
}
