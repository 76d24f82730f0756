// internal/token/resolver.go
package token

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/chain"
)

const decimalsTTL = 5 * time.Minute

// mintDecimalsOffset is the position of the decimals byte in SPL mint
// account data (4 authority option + 32 authority + 8 supply).
const mintDecimalsOffset = 44

// Reader is the account read surface the resolver needs. Both the pooled
// chain.Client and a single chain.NodeClient satisfy it.
type Reader interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// AssociatedAddress derives the associated token account for (owner, mint).
// Pure and deterministic; fails only for malformed keys.
func AssociatedAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return ata, nil
}

type cachedDecimals struct {
	decimals  uint8
	fetchedAt time.Time
}

// Resolver answers token account questions against the network, caching mint
// decimals since they never change after mint creation.
type Resolver struct {
	cache  sync.Map
	logger *zap.Logger
}

func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("token")}
}

// MintDecimals reads the decimals declared on the mint account, through a TTL
// cache keyed by mint address.
func (r *Resolver) MintDecimals(ctx context.Context, client Reader, mint solana.PublicKey) (uint8, error) {
	key := mint.String()
	if value, ok := r.cache.Load(key); ok {
		entry := value.(cachedDecimals)
		if time.Since(entry.fetchedAt) < decimalsTTL {
			return entry.decimals, nil
		}
		r.cache.Delete(key)
	}

	acc, err := client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account: %w", err)
	}
	if acc == nil || acc.Value == nil {
		return 0, chain.NewValidationError("mintDecimals", fmt.Errorf("mint account not found: %s", key))
	}
	data := acc.Value.Data.GetBinary()
	if len(data) <= mintDecimalsOffset {
		return 0, chain.NewValidationError("mintDecimals", fmt.Errorf("invalid mint account data length: %d", len(data)))
	}

	decimals := data[mintDecimalsOffset]
	r.cache.Store(key, cachedDecimals{decimals: decimals, fetchedAt: time.Now()})
	r.logger.Debug("mint decimals resolved",
		zap.String("mint", key),
		zap.Uint8("decimals", decimals))
	return decimals, nil
}
