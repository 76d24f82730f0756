// internal/transfer/request.go
package transfer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/spark-it/sparksol/internal/chain"
)

// Request describes one token transfer. Amount is in the smallest unit; a
// zero amount asks only for destination account creation.
type Request struct {
	Amount      uint64
	Decimals    uint8
	TokenMint   string
	SourceOwner string
	DestOwner   string
	Cluster     chain.Cluster
}

type parsedRequest struct {
	mint   solana.PublicKey
	source solana.PublicKey
	dest   solana.PublicKey
}

// parse validates the base58 addresses and cluster up front. Failures here
// are fatal; no endpoint is ever attempted for a malformed request.
func (r Request) parse() (*parsedRequest, error) {
	if _, err := chain.ParseCluster(string(r.Cluster)); err != nil {
		return nil, chain.NewValidationError("request", err)
	}
	mint, err := solana.PublicKeyFromBase58(r.TokenMint)
	if err != nil {
		return nil, chain.NewValidationError("request", fmt.Errorf("invalid token mint %q: %w", r.TokenMint, err))
	}
	source, err := solana.PublicKeyFromBase58(r.SourceOwner)
	if err != nil {
		return nil, chain.NewValidationError("request", fmt.Errorf("invalid source owner %q: %w", r.SourceOwner, err))
	}
	dest, err := solana.PublicKeyFromBase58(r.DestOwner)
	if err != nil {
		return nil, chain.NewValidationError("request", fmt.Errorf("invalid destination owner %q: %w", r.DestOwner, err))
	}
	return &parsedRequest{mint: mint, source: source, dest: dest}, nil
}

// Result is the outcome of a successfully driven request. NoOp marks the case
// where nothing needed to happen (zero amount against an existing
// destination): no transaction was signed or broadcast.
type Result struct {
	Signature solana.Signature
	Endpoint  string
	NoOp      bool
}
