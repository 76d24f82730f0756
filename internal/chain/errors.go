// internal/chain/errors.go
package chain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

var (
	// ErrUnknownCluster is returned for a cluster outside {mainnet, devnet}.
	ErrUnknownCluster = errors.New("unknown cluster")

	// ErrNoActiveClients is returned when every node in a pool is marked down.
	ErrNoActiveClients = errors.New("no active RPC clients available")

	// ErrAllEndpointsFailed is returned when every registered endpoint was
	// attempted and none succeeded.
	ErrAllEndpointsFailed = errors.New("all RPC endpoints failed")

	// ErrSigningFailed is returned when the external signer declines or
	// returns nothing.
	ErrSigningFailed = errors.New("failed to sign transaction")
)

// ErrorKind classifies a pipeline failure for retry decisions.
type ErrorKind uint8

const (
	// KindTransport covers timeouts, connection failures and malformed
	// responses from an endpoint. Retryable on the next endpoint.
	KindTransport ErrorKind = iota
	// KindRPCRejected covers well-formed JSON-RPC error responses, including
	// preflight rejections. Retryable on the next endpoint.
	KindRPCRejected
	// KindUserRejected covers signing refusals. Never retried: the same user
	// would be prompted again on every remaining endpoint.
	KindUserRejected
	// KindValidation covers malformed requests detected before or during the
	// build phase. Never retried.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRPCRejected:
		return "rpc_rejected"
	case KindUserRejected:
		return "user_rejected"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is an RPC pipeline error tagged with its endpoint, operation and kind.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s error [%s]: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s error [%s] at %s: %v", e.Kind, e.Op, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify wraps err with endpoint and operation context, deriving the kind
// from the error shape: JSON-RPC error responses are rejections, anything
// else that crossed the wire is transport.
func Classify(endpoint, op string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	kind := KindTransport
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		kind = KindRPCRejected
	}
	return &Error{Kind: kind, Endpoint: endpoint, Op: op, Err: err}
}

// NewValidationError tags err as a non-retryable request validation failure.
func NewValidationError(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Retryable reports whether the next endpoint should be attempted after err.
// Untagged errors are treated as transport failures.
func Retryable(err error) bool {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind == KindTransport || tagged.Kind == KindRPCRejected
	}
	return true
}
