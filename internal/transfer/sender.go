// internal/transfer/sender.go
package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/token"
)

// Node is the per-endpoint surface the pipeline drives. chain.NodeClient is
// the production implementation; tests substitute fakes.
type Node interface {
	Endpoint() string
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
	SignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// DialFunc opens a connection to one endpoint.
type DialFunc func(endpoint string) Node

// Config tunes one Sender. The zero value is usable: no per-attempt timeout,
// decimals validation on, no confirmation wait.
type Config struct {
	// AttemptTimeout bounds each endpoint attempt. Zero disables the bound;
	// the caller's context still applies.
	AttemptTimeout time.Duration
	// SkipDecimalsValidation disables the pre-sign check of the request's
	// decimals against the mint account.
	SkipDecimalsValidation bool
	// AwaitConfirmation makes Send block until the broadcast transaction
	// confirms on the endpoint that accepted it.
	AwaitConfirmation   bool
	ConfirmationTimeout time.Duration
	// Dial overrides how endpoints are opened. Defaults to chain.Dial.
	Dial DialFunc
}

// Sender drives a transfer Request to a signature or a terminal failure.
//
// The pipeline has two endpoint-scoped phases. The build phase walks the
// registry order until one endpoint serves the reads (destination existence,
// mint decimals, blockhash) and yields an unsigned transaction. The wallet
// then signs exactly once. The broadcast phase walks the registry order again
// with the single signed artifact until an endpoint accepts it. Signing is
// never re-entered on fallback.
type Sender struct {
	registry *chain.Registry
	signer   Signer
	resolver *token.Resolver
	logger   *zap.Logger
	metrics  *Metrics
	cfg      Config
}

func NewSender(registry *chain.Registry, signer Signer, logger *zap.Logger, metrics *Metrics, cfg Config) *Sender {
	if cfg.Dial == nil {
		cfg.Dial = func(endpoint string) Node { return chain.Dial(endpoint) }
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Sender{
		registry: registry,
		signer:   signer,
		resolver: token.NewResolver(logger),
		logger:   logger.Named("transfer"),
		metrics:  metrics,
		cfg:      cfg,
	}
}

// Send drives req to completion. It returns a no-op Result without touching
// the signer or broadcasting when there is nothing to do, the first accepted
// signature otherwise, and an error when validation fails, signing fails, or
// every endpoint has been exhausted.
func (s *Sender) Send(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	defer s.metrics.TrackPipeline(start)

	parsed, err := req.parse()
	if err != nil {
		s.metrics.failureCounter.Inc()
		return nil, err
	}

	endpoints, err := s.registry.Endpoints(req.Cluster)
	if err != nil {
		s.metrics.failureCounter.Inc()
		return nil, chain.NewValidationError("request", err)
	}

	logger := s.logger.With(
		zap.String("mint", req.TokenMint),
		zap.String("dest", req.DestOwner),
		zap.Uint64("amount", req.Amount))

	unsigned, result, err := s.build(ctx, endpoints, req, parsed, logger)
	if err != nil {
		s.metrics.failureCounter.Inc()
		return nil, err
	}
	if result != nil {
		logger.Info("Nothing to send, destination account already exists")
		return result, nil
	}

	signed, err := requestSignature(ctx, s.signer, unsigned)
	if err != nil {
		s.metrics.failureCounter.Inc()
		logger.Warn("Signing failed, aborting", zap.Error(err))
		return nil, err
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		s.metrics.failureCounter.Inc()
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	result, err = s.broadcast(ctx, endpoints, raw, logger)
	if err != nil {
		s.metrics.failureCounter.Inc()
		return nil, err
	}
	s.metrics.successCounter.Inc()
	return result, nil
}

// build walks the endpoints in order until one serves all reads. It returns
// a non-nil Result instead of a transaction when the request is a no-op.
func (s *Sender) build(ctx context.Context, endpoints []string, req Request, parsed *parsedRequest, logger *zap.Logger) (*solana.Transaction, *Result, error) {
	var lastErr error
	for _, endpoint := range endpoints {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		node := s.cfg.Dial(endpoint)
		tx, noop, err := s.buildAt(ctx, node, req, parsed)
		if err != nil {
			if !chain.Retryable(err) {
				return nil, nil, err
			}
			lastErr = err
			logger.Warn("Build attempt failed, trying next endpoint",
				zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		if noop {
			return nil, &Result{NoOp: true, Endpoint: endpoint}, nil
		}
		return tx, nil, nil
	}
	return nil, nil, exhausted(lastErr)
}

func (s *Sender) buildAt(ctx context.Context, node Node, req Request, parsed *parsedRequest) (*solana.Transaction, bool, error) {
	ctx, cancel := s.attemptContext(ctx)
	defer cancel()

	sourceATA, err := token.AssociatedAddress(parsed.source, parsed.mint)
	if err != nil {
		return nil, false, chain.NewValidationError("deriveAssociatedAddress", err)
	}
	destATA, err := token.AssociatedAddress(parsed.dest, parsed.mint)
	if err != nil {
		return nil, false, chain.NewValidationError("deriveAssociatedAddress", err)
	}

	destExists, err := node.AccountExists(ctx, destATA)
	if err != nil {
		return nil, false, err
	}

	if req.Amount > 0 && !s.cfg.SkipDecimalsValidation {
		decimals, err := s.resolver.MintDecimals(ctx, node, parsed.mint)
		if err != nil {
			return nil, false, err
		}
		if decimals != req.Decimals {
			return nil, false, chain.NewValidationError("mintDecimals",
				fmt.Errorf("request decimals %d do not match mint decimals %d", req.Decimals, decimals))
		}
	}

	instructions := token.Compose(token.ComposeParams{
		Amount:      req.Amount,
		Decimals:    req.Decimals,
		Mint:        parsed.mint,
		SourceOwner: parsed.source,
		DestOwner:   parsed.dest,
		SourceATA:   sourceATA,
		DestATA:     destATA,
		DestExists:  destExists,
	})
	if len(instructions) == 0 {
		return nil, true, nil
	}

	blockhash, err := node.LatestBlockhash(ctx)
	if err != nil {
		return nil, false, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(parsed.source))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, false, nil
}

// broadcast submits the signed artifact to each endpoint in order, stopping
// at the first acceptance. Exhausting the list yields the last error.
func (s *Sender) broadcast(ctx context.Context, endpoints []string, raw []byte, logger *zap.Logger) (*Result, error) {
	var lastErr error
	for _, endpoint := range endpoints {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		node := s.cfg.Dial(endpoint)
		attemptCtx, cancel := s.attemptContext(ctx)
		sig, err := node.SendRawTransaction(attemptCtx, raw)
		cancel()
		s.metrics.observeAttempt(endpoint, err == nil)

		if err != nil {
			if !chain.Retryable(err) {
				return nil, err
			}
			lastErr = err
			logger.Warn("Broadcast failed, trying next endpoint",
				zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}

		logger.Info("Transaction sent",
			zap.String("endpoint", endpoint),
			zap.String("signature", sig.String()))

		if s.cfg.AwaitConfirmation {
			monitor := NewMonitor(node, s.logger, s.cfg.ConfirmationTimeout)
			if _, err := monitor.AwaitConfirmation(ctx, sig); err != nil {
				return nil, fmt.Errorf("transaction %s sent but not confirmed: %w", sig, err)
			}
		}
		return &Result{Signature: sig, Endpoint: endpoint}, nil
	}
	return nil, exhausted(lastErr)
}

func (s *Sender) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.AttemptTimeout)
}

func exhausted(lastErr error) error {
	if lastErr == nil {
		return chain.ErrAllEndpointsFailed
	}
	return fmt.Errorf("%w: %w", chain.ErrAllEndpointsFailed, lastErr)
}
