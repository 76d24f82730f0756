// internal/chain/client.go
package chain

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	healthCheckTimeout = 10 * time.Second
	healthCheckRetries = 3
	healthCheckDelay   = 500 * time.Millisecond
)

// Client fans requests across an ordered list of endpoints: the first active
// node is tried first, and a node failing with a transport error is skipped
// for the rest of the client's lifetime. Each call is independent; the client
// holds no per-request state.
type Client struct {
	nodes  []*NodeClient
	logger *zap.Logger
}

// NewClient builds a client over the ordered endpoint list.
func NewClient(endpoints []string, logger *zap.Logger) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoActiveClients
	}
	nodes := make([]*NodeClient, 0, len(endpoints))
	for _, endpoint := range endpoints {
		nodes = append(nodes, Dial(endpoint))
	}
	return &Client{nodes: nodes, logger: logger.Named("chain")}, nil
}

// HealthCheck probes every node concurrently and marks unreachable ones
// inactive. It fails only when no node answered.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, node := range c.nodes {
		node := node
		g.Go(func() error {
			var lastErr error
			for attempt := 0; attempt < healthCheckRetries; attempt++ {
				core, err := node.Version(ctx)
				if err == nil {
					c.logger.Debug("RPC endpoint healthy",
						zap.String("endpoint", node.Endpoint()),
						zap.String("solana_core", core))
					return nil
				}
				lastErr = err
				time.Sleep(healthCheckDelay)
			}
			node.SetActive(false)
			c.logger.Warn("RPC endpoint unreachable, marking inactive",
				zap.String("endpoint", node.Endpoint()),
				zap.Error(lastErr))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if !c.hasActiveNodes() {
		return ErrNoActiveClients
	}
	return nil
}

func (c *Client) hasActiveNodes() bool {
	for _, node := range c.nodes {
		if node.IsActive() {
			return true
		}
	}
	return false
}

// try runs op against each active node in priority order until one succeeds.
// Transport failures deactivate the node; the last error is returned when
// every node has been tried.
func (c *Client) try(ctx context.Context, op string, fn func(*NodeClient) error) error {
	var lastErr error
	attempted := false
	for _, node := range c.nodes {
		if !node.IsActive() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		attempted = true
		err := fn(node)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) {
			return err
		}
		var tagged *Error
		if errors.As(err, &tagged) && tagged.Kind == KindTransport {
			node.SetActive(false)
		}
		c.logger.Warn("RPC call failed, trying next endpoint",
			zap.String("op", op),
			zap.String("endpoint", node.Endpoint()),
			zap.Error(err))
	}
	if !attempted {
		return ErrNoActiveClients
	}
	return lastErr
}

// GetAccountInfo fetches account state from the first answering endpoint.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	var result *rpc.GetAccountInfoResult
	err := c.try(ctx, "getAccountInfo", func(node *NodeClient) error {
		var err error
		result, err = node.GetAccountInfo(ctx, account)
		return err
	})
	return result, err
}

// AccountExists reports whether the account holds allocated state.
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	var exists bool
	err := c.try(ctx, "getAccountInfo", func(node *NodeClient) error {
		var err error
		exists, err = node.AccountExists(ctx, account)
		return err
	})
	return exists, err
}

// LatestBlockhash fetches a recent blockhash from the first answering endpoint.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.try(ctx, "getLatestBlockhash", func(node *NodeClient) error {
		var err error
		hash, err = node.LatestBlockhash(ctx)
		return err
	})
	return hash, err
}

// SendRawTransaction broadcasts a signed transaction, falling through the
// endpoint list until one accepts it.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	var sig solana.Signature
	err := c.try(ctx, "sendTransaction", func(node *NodeClient) error {
		var err error
		sig, err = node.SendRawTransaction(ctx, raw)
		return err
	})
	return sig, err
}

// GetTransaction fetches a confirmed transaction with metadata.
func (c *Client) GetTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	var result *rpc.GetTransactionResult
	err := c.try(ctx, "getTransaction", func(node *NodeClient) error {
		var err error
		result, err = node.GetTransaction(ctx, sig)
		return err
	})
	return result, err
}

// SignatureStatuses fetches confirmation status for the given signatures.
func (c *Client) SignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var result *rpc.GetSignatureStatusesResult
	err := c.try(ctx, "getSignatureStatuses", func(node *NodeClient) error {
		var err error
		result, err = node.SignatureStatuses(ctx, sigs...)
		return err
	})
	return result, err
}
