// internal/memo/memo.go
// Package memo sends wallet-attestation messages on chain and verifies
// them afterwards. A message transaction is a zero-lamport self transfer
// plus a memo instruction, signed by the wallet it attests.
package memo

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/token"
	"github.com/spark-it/sparksol/internal/transfer"
)

const (
	pollInterval = 2 * time.Second
	pollTimeout  = 30 * time.Second
)

// memoLogPattern extracts the quoted memo text from a program log line.
var memoLogPattern = regexp.MustCompile(`"([^"]*)"`)

var ErrValidationFailed = fmt.Errorf("message validation failed")

// Broadcaster is the subset of *chain.Client the send path needs.
type Broadcaster interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error)
}

// TransactionReader is the subset of *chain.Client the verify path needs.
type TransactionReader interface {
	GetTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error)
}

// Service sends and verifies attestation messages.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger.Named("memo")}
}

// Send builds, signs and broadcasts an attestation carrying message. The
// sender's wallet signs exactly once; the raw signature bytes come back for
// later verification.
func (s *Service) Send(ctx context.Context, client Broadcaster, signer transfer.Signer, sender solana.PublicKey, message string) ([]byte, error) {
	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	// Some wallets refuse to sign a transaction with no transfer, so a
	// zero-lamport self transfer rides along with the memo.
	instructions := []solana.Instruction{
		system.NewTransferInstruction(0, sender, sender).Build(),
		token.NewMemoInstruction([]byte(message)),
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(sender))
	if err != nil {
		return nil, fmt.Errorf("build message transaction: %w", err)
	}

	signed, err := signer.Sign(ctx, tx)
	if err != nil || signed == nil {
		if err == nil {
			err = chain.ErrSigningFailed
		}
		return nil, &chain.Error{Kind: chain.KindUserRejected, Op: "sign", Err: err}
	}
	// A wallet can also hand the transaction back untouched. Without a
	// signature there is nothing to broadcast or return.
	if len(signed.Signatures) == 0 {
		return nil, &chain.Error{Kind: chain.KindUserRejected, Op: "sign", Err: chain.ErrSigningFailed}
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize message transaction: %w", err)
	}

	sig, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.logger.Info("message sent",
		zap.String("sender", sender.String()),
		zap.String("signature", sig.String()))
	return signed.Signatures[0][:], nil
}

// Verify polls for the transaction behind signature and checks that its memo
// text equals message and its fee payer is sender. Mismatches fail
// permanently; a transaction not yet visible is retried until the timeout.
func (s *Service) Verify(ctx context.Context, client TransactionReader, message string, sender solana.PublicKey, signature []byte) error {
	sig := solana.SignatureFromBytes(signature)
	sigBase58 := base58.Encode(signature)
	logger := s.logger.With(zap.String("signature", sigBase58))

	operation := func() (struct{}, error) {
		result, err := client.GetTransaction(ctx, sig)
		if err != nil {
			if !chain.Retryable(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		if result == nil || result.Meta == nil || result.Transaction == nil {
			return struct{}{}, fmt.Errorf("transaction %s not confirmed yet", sigBase58)
		}
		if err := s.check(logger, result, message, sender); err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(pollInterval)),
		backoff.WithMaxElapsedTime(pollTimeout))
	if err != nil {
		return err
	}

	logger.Info("message verified", zap.String("sender", sender.String()))
	return nil
}

func (s *Service) check(logger *zap.Logger, result *rpc.GetTransactionResult, message string, sender solana.PublicKey) error {
	extracted, ok := ExtractMemo(result.Meta.LogMessages)
	if !ok {
		return fmt.Errorf("%w: no memo in transaction logs", ErrValidationFailed)
	}
	if extracted != message {
		logger.Warn("memo mismatch", zap.String("extracted", extracted))
		return fmt.Errorf("%w: memo text mismatch", ErrValidationFailed)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(sender) {
		return fmt.Errorf("%w: fee payer is not the expected sender", ErrValidationFailed)
	}
	return nil
}

// ExtractMemo finds the memo program's log line and pulls out the quoted
// memo text.
func ExtractMemo(logs []string) (string, bool) {
	for _, line := range logs {
		if !strings.Contains(line, "Program log: Memo") {
			continue
		}
		if matches := memoLogPattern.FindStringSubmatch(line); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", false
}
