// internal/chain/node.go
package chain

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// NodeMetrics accumulates per-endpoint call statistics.
type NodeMetrics struct {
	mu           sync.RWMutex
	successCount uint64
	errorCount   uint64
	latency      time.Duration
}

func (m *NodeMetrics) observe(success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.successCount++
	} else {
		m.errorCount++
	}
	m.latency = (m.latency + latency) / 2 // moving average
}

// Snapshot returns the success count, error count and averaged latency.
func (m *NodeMetrics) Snapshot() (uint64, uint64, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successCount, m.errorCount, m.latency
}

// NodeClient wraps a single RPC endpoint. All reads run at commitment
// "confirmed"; broadcasts run preflight at "confirmed" as well.
type NodeClient struct {
	rpc      *rpc.Client
	endpoint string

	mu      sync.RWMutex
	active  bool
	metrics NodeMetrics
}

// Dial creates a client for one endpoint. No network call is made.
func Dial(endpoint string) *NodeClient {
	return &NodeClient{
		rpc:      rpc.New(endpoint),
		endpoint: endpoint,
		active:   true,
	}
}

func (n *NodeClient) Endpoint() string { return n.endpoint }

func (n *NodeClient) SetActive(state bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = state
}

func (n *NodeClient) IsActive() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// Metrics returns the node's call statistics.
func (n *NodeClient) Metrics() *NodeMetrics { return &n.metrics }

func (n *NodeClient) observe(start time.Time, err error) {
	n.metrics.observe(err == nil, time.Since(start))
}

// GetAccountInfo fetches account state. A missing account is a nil result,
// not an error; failing the node over would not make the account appear.
func (n *NodeClient) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	start := time.Now()
	result, err := n.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		n.observe(start, nil)
		return nil, nil
	}
	n.observe(start, err)
	if err != nil {
		return nil, Classify(n.endpoint, "getAccountInfo", err)
	}
	return result, nil
}

// AccountExists reports whether the account holds allocated state. "Not
// found" is a definitive false, not an error; transport failures propagate.
func (n *NodeClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	start := time.Now()
	_, err := n.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		n.observe(start, nil)
		return false, nil
	}
	n.observe(start, err)
	if err != nil {
		return false, Classify(n.endpoint, "getAccountInfo", err)
	}
	return true, nil
}

// LatestBlockhash fetches a recent blockhash at commitment "confirmed".
func (n *NodeClient) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	start := time.Now()
	result, err := n.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	n.observe(start, err)
	if err != nil {
		return solana.Hash{}, Classify(n.endpoint, "getLatestBlockhash", err)
	}
	return result.Value.Blockhash, nil
}

// SendRawTransaction broadcasts a signed, serialized transaction with
// preflight enabled at commitment "confirmed".
func (n *NodeClient) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	start := time.Now()
	sig, err := n.rpc.SendRawTransactionWithOpts(ctx, raw, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	n.observe(start, err)
	if err != nil {
		return solana.Signature{}, Classify(n.endpoint, "sendTransaction", err)
	}
	return sig, nil
}

// SignatureStatuses fetches confirmation status for the given signatures.
func (n *NodeClient) SignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	start := time.Now()
	result, err := n.rpc.GetSignatureStatuses(ctx, false, sigs...)
	n.observe(start, err)
	if err != nil {
		return nil, Classify(n.endpoint, "getSignatureStatuses", err)
	}
	return result, nil
}

// GetTransaction fetches a confirmed transaction with its metadata. A
// transaction not yet visible at this commitment is a nil result, not an
// error, so the caller can poll without tripping endpoint fallback.
func (n *NodeClient) GetTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	start := time.Now()
	result, err := n.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		n.observe(start, nil)
		return nil, nil
	}
	n.observe(start, err)
	if err != nil {
		return nil, Classify(n.endpoint, "getTransaction", err)
	}
	return result, nil
}

// Version fetches the node software version. Used as a cheap liveness probe.
func (n *NodeClient) Version(ctx context.Context) (string, error) {
	start := time.Now()
	version, err := n.rpc.GetVersion(ctx)
	n.observe(start, err)
	if err != nil {
		return "", Classify(n.endpoint, "getVersion", err)
	}
	return version.SolanaCore, nil
}
