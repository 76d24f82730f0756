// internal/transfer/monitor.go
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// ErrConfirmationTimeout is returned when a broadcast transaction did not
// reach the requested confirmation depth in time.
var ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

// StatusReader is the status surface the monitor polls.
type StatusReader interface {
	SignatureStatuses(ctx context.Context, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Status is a point-in-time view of a broadcast transaction.
type Status struct {
	Signature     string
	Status        string
	Confirmations uint64
	Slot          uint64
	Error         string
	Timestamp     time.Time
}

// Monitor polls signature status until a transaction confirms.
type Monitor struct {
	client           StatusReader
	logger           *zap.Logger
	pollInterval     time.Duration
	timeout          time.Duration
	minConfirmations uint64
}

func NewMonitor(client StatusReader, logger *zap.Logger, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Monitor{
		client:           client,
		logger:           logger.Named("tx-monitor"),
		pollInterval:     500 * time.Millisecond,
		timeout:          timeout,
		minConfirmations: 1,
	}
}

func (m *Monitor) checkConfirmation(ctx context.Context, signature solana.Signature) (bool, error) {
	response, err := m.client.SignatureStatuses(ctx, signature)
	if err != nil {
		return false, fmt.Errorf("failed to get signature status: %w", err)
	}
	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return false, nil
	}

	status := response.Value[0]
	if status.Confirmations != nil && *status.Confirmations >= m.minConfirmations {
		return true, nil
	}
	return status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
		status.ConfirmationStatus == rpc.ConfirmationStatusFinalized, nil
}

// TransactionStatus fetches the current status of a signature.
func (m *Monitor) TransactionStatus(ctx context.Context, signature solana.Signature) (*Status, error) {
	response, err := m.client.SignatureStatuses(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction status: %w", err)
	}

	if response == nil || len(response.Value) == 0 || response.Value[0] == nil {
		return &Status{
			Signature: signature.String(),
			Status:    "pending",
			Timestamp: time.Now(),
		}, nil
	}

	status := response.Value[0]
	txStatus := &Status{
		Signature: signature.String(),
		Timestamp: time.Now(),
		Slot:      status.Slot,
	}
	if status.Confirmations != nil {
		txStatus.Confirmations = *status.Confirmations
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		txStatus.Status = "finalized"
	case rpc.ConfirmationStatusConfirmed:
		txStatus.Status = "confirmed"
	default:
		txStatus.Status = "pending"
	}

	if status.Err != nil {
		txStatus.Error = fmt.Sprintf("%v", status.Err)
		txStatus.Status = "failed"
	}

	return txStatus, nil
}

// AwaitConfirmation blocks until the signature confirms, the timeout elapses,
// or the context is cancelled.
func (m *Monitor) AwaitConfirmation(ctx context.Context, signature solana.Signature) (*Status, error) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	deadline := time.After(m.timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
			confirmed, err := m.checkConfirmation(ctx, signature)
			if err != nil {
				m.logger.Warn("Confirmation check failed", zap.Error(err))
				continue
			}
			if confirmed {
				return m.TransactionStatus(ctx, signature)
			}
		}
	}
}
