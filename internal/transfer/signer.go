// internal/transfer/signer.go
package transfer

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/spark-it/sparksol/internal/chain"
)

// Provider identifies the wallet extension behind an external signer.
type Provider string

const (
	ProviderPhantom  Provider = "PHANTOM"
	ProviderBackpack Provider = "BACKPACK"
	ProviderSolflare Provider = "SOLFLARE"
)

// Signer hands an unsigned transaction to an out-of-process wallet and
// returns it signed. The pipeline never assumes signing succeeds, retries, or
// is idempotent: it requests at most one signature per logical request.
type Signer interface {
	Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// requestSignature invokes the gateway once. A nil transaction and an error
// are both signing failures, tagged non-retryable: prompting the same user
// again on the next endpoint would not change the answer.
func requestSignature(ctx context.Context, signer Signer, tx *solana.Transaction) (*solana.Transaction, error) {
	signed, err := signer.Sign(ctx, tx)
	if err != nil {
		return nil, &chain.Error{Kind: chain.KindUserRejected, Op: "sign", Err: err}
	}
	if signed == nil {
		return nil, &chain.Error{Kind: chain.KindUserRejected, Op: "sign", Err: chain.ErrSigningFailed}
	}
	return signed, nil
}
