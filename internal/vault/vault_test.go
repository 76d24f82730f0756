// internal/vault/vault_test.go
package vault

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMint = solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
	testUser = solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
)

func TestVaultPDADeterministic(t *testing.T) {
	a, bumpA, err := VaultPDA("idea-123")
	require.NoError(t, err)
	b, bumpB, err := VaultPDA("idea-123")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)

	other, _, err := VaultPDA("idea-456")
	require.NoError(t, err)
	assert.NotEqual(t, a, other)
}

func TestVaultSeedIsSHA256(t *testing.T) {
	seed := VaultSeed("idea-123")
	assert.Len(t, seed, 32)
	assert.NotEqual(t, VaultSeed("idea-456"), seed)
}

func TestUserDepositPDADeterministic(t *testing.T) {
	vaultPDA, _, err := VaultPDA("idea-123")
	require.NoError(t, err)

	a, _, err := UserDepositPDA(vaultPDA, testUser)
	require.NoError(t, err)
	b, _, err := UserDepositPDA(vaultPDA, testUser)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	otherUser := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	c, _, err := UserDepositPDA(vaultPDA, otherUser)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestAdminConfigPDA(t *testing.T) {
	a, _, err := AdminConfigPDA()
	require.NoError(t, err)
	b, _, err := AdminConfigPDA()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestIdeaVaultRoundTrip(t *testing.T) {
	vaultPDA, bump, err := VaultPDA("idea-rt")
	require.NoError(t, err)
	vaultATA, err := VaultATA(vaultPDA, testMint)
	require.NoError(t, err)

	original := &IdeaVault{
		IdeaID:         "idea-rt",
		Bump:           bump,
		Mint:           testMint,
		VaultATA:       vaultATA,
		TotalDeposited: 42_000_000,
	}

	decoded, err := DecodeIdeaVault(EncodeIdeaVault(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeIdeaVaultRejectsBadData(t *testing.T) {
	_, err := DecodeIdeaVault(nil)
	assert.Error(t, err)

	_, err = DecodeIdeaVault(make([]byte, 100))
	assert.ErrorContains(t, err, "discriminator")

	truncated := EncodeIdeaVault(&IdeaVault{IdeaID: "x", Mint: testMint})
	_, err = DecodeIdeaVault(truncated[:20])
	assert.Error(t, err)
}

func TestUserDepositRoundTrip(t *testing.T) {
	vaultPDA, _, err := VaultPDA("idea-rt")
	require.NoError(t, err)

	original := &UserDeposit{Vault: vaultPDA, User: testUser, Amount: 1_500_000}
	decoded, err := DecodeUserDeposit(EncodeUserDeposit(original))
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

type fakeChain struct {
	accounts  map[string][]byte
	blockhash solana.Hash
	err       error
}

func (f *fakeChain) LatestBlockhash(_ context.Context) (solana.Hash, error) {
	if f.err != nil {
		return solana.Hash{}, f.err
	}
	return f.blockhash, nil
}

func (f *fakeChain) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.accounts[account.String()]
	if !ok {
		return nil, nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	var wrapped rpc.DataBytesOrJSON
	if err := json.Unmarshal([]byte(`["`+encoded+`","base64"]`), &wrapped); err != nil {
		return nil, err
	}
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Data: &wrapped}}, nil
}

func (f *fakeChain) AccountExists(_ context.Context, account solana.PublicKey) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.accounts[account.String()]
	return ok, nil
}

func tokenAccountData(amount uint64) []byte {
	data := make([]byte, 165) // SPL token account size
	binary.LittleEndian.PutUint64(data[tokenAmountOffset:], amount)
	return data
}

func TestNewDepositTransaction(t *testing.T) {
	chain := &fakeChain{blockhash: solana.Hash{1, 2, 3}}

	tx, err := NewDepositTransaction(context.Background(), chain, testUser, "idea-dep", 5_000_000, testMint)
	require.NoError(t, err)

	require.Len(t, tx.Message.Instructions, 1)
	assert.Equal(t, chain.blockhash, tx.Message.RecentBlockhash)
	assert.Equal(t, testUser, tx.Message.AccountKeys[0])

	ix := tx.Message.Instructions[0]
	program, err := tx.Message.Program(ix.ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, program)

	require.Len(t, ix.Data, 16)
	assert.Equal(t, []byte(depositDiscriminator), []byte(ix.Data[:8]))
	assert.Equal(t, uint64(5_000_000), binary.LittleEndian.Uint64(ix.Data[8:]))
	assert.Len(t, ix.Accounts, 10)
}

func TestProgramIDFlowsThroughDerivationAndBuilders(t *testing.T) {
	other := Program{ID: solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")}

	defaultPDA, _, err := VaultPDA("idea-custom")
	require.NoError(t, err)
	customPDA, _, err := other.VaultPDA("idea-custom")
	require.NoError(t, err)
	assert.NotEqual(t, defaultPDA, customPDA)

	defaultAdmin, _, err := AdminConfigPDA()
	require.NoError(t, err)
	customAdmin, _, err := other.AdminConfigPDA()
	require.NoError(t, err)
	assert.NotEqual(t, defaultAdmin, customAdmin)

	chain := &fakeChain{blockhash: solana.Hash{8}}
	tx, err := other.NewDepositTransaction(context.Background(), chain, testUser, "idea-custom", 1, testMint)
	require.NoError(t, err)

	ix := tx.Message.Instructions[0]
	program, err := tx.Message.Program(ix.ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, other.ID, program)
}

func TestNewWithdrawTransaction(t *testing.T) {
	chain := &fakeChain{blockhash: solana.Hash{4, 5, 6}}

	tx, err := NewWithdrawTransaction(context.Background(), chain, testUser, "idea-wd", 2_000_000, testMint)
	require.NoError(t, err)

	ix := tx.Message.Instructions[0]
	require.Len(t, ix.Data, 16)
	assert.Equal(t, []byte(withdrawDiscriminator), []byte(ix.Data[:8]))
	assert.Equal(t, uint64(2_000_000), binary.LittleEndian.Uint64(ix.Data[8:]))
	assert.Len(t, ix.Accounts, 8)
}

func TestNewInitializeVaultTransaction(t *testing.T) {
	chain := &fakeChain{blockhash: solana.Hash{7}}

	tx, err := NewInitializeVaultTransaction(context.Background(), chain, testUser, "idea-init", testMint)
	require.NoError(t, err)

	ix := tx.Message.Instructions[0]
	seed := VaultSeed("idea-init")
	wantLen := 8 + 4 + len("idea-init") + 32
	require.Len(t, ix.Data, wantLen)
	assert.Equal(t, []byte(initializeVaultDiscriminator), []byte(ix.Data[:8]))
	assert.Equal(t, uint32(len("idea-init")), binary.LittleEndian.Uint32(ix.Data[8:12]))
	assert.Equal(t, "idea-init", string(ix.Data[12:12+len("idea-init")]))
	assert.Equal(t, seed[:], []byte(ix.Data[wantLen-32:]))
	assert.Len(t, ix.Accounts, 8)
}

func TestBuilderPropagatesBlockhashError(t *testing.T) {
	chain := &fakeChain{err: errors.New("connection refused")}

	_, err := NewDepositTransaction(context.Background(), chain, testUser, "idea-err", 1, testMint)
	assert.ErrorContains(t, err, "connection refused")
}

func TestFetchVault(t *testing.T) {
	vaultPDA, bump, err := VaultPDA("idea-f")
	require.NoError(t, err)
	vaultATA, err := VaultATA(vaultPDA, testMint)
	require.NoError(t, err)

	stored := &IdeaVault{IdeaID: "idea-f", Bump: bump, Mint: testMint, VaultATA: vaultATA, TotalDeposited: 9}
	chain := &fakeChain{accounts: map[string][]byte{
		vaultPDA.String(): EncodeIdeaVault(stored),
	}}

	got, err := Fetch(context.Background(), chain, "idea-f")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	exists, err := Exists(context.Background(), chain, "idea-f")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFetchVaultMissing(t *testing.T) {
	chain := &fakeChain{}

	got, err := Fetch(context.Background(), chain, "idea-missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := Exists(context.Background(), chain, "idea-missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFetchUserDeposit(t *testing.T) {
	vaultPDA, _, err := VaultPDA("idea-ud")
	require.NoError(t, err)
	depositPDA, _, err := UserDepositPDA(vaultPDA, testUser)
	require.NoError(t, err)

	stored := &UserDeposit{Vault: vaultPDA, User: testUser, Amount: 750_000}
	chain := &fakeChain{accounts: map[string][]byte{
		depositPDA.String(): EncodeUserDeposit(stored),
	}}

	got, err := FetchUserDeposit(context.Background(), chain, "idea-ud", testUser)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	none, err := FetchUserDeposit(context.Background(), chain, "idea-ud", solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112"))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTokenBalance(t *testing.T) {
	userATA, _, err := solana.FindAssociatedTokenAddress(testUser, testMint)
	require.NoError(t, err)

	chain := &fakeChain{accounts: map[string][]byte{
		userATA.String(): tokenAccountData(12_340_000),
	}}

	balance, err := TokenBalance(context.Background(), chain, testUser, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_340_000), balance)
}

func TestTokenBalanceMissingAccountIsZero(t *testing.T) {
	chain := &fakeChain{}

	balance, err := TokenBalance(context.Background(), chain, testUser, testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)
}

func TestVaultBalance(t *testing.T) {
	vaultPDA, _, err := VaultPDA("idea-bal")
	require.NoError(t, err)
	vaultATA, err := VaultATA(vaultPDA, testMint)
	require.NoError(t, err)

	chain := &fakeChain{accounts: map[string][]byte{
		vaultATA.String(): tokenAccountData(100_000_000),
	}}

	balance, err := Balance(context.Background(), chain, "idea-bal", testMint)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000_000), balance)
}
