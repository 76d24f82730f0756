// internal/app/commands.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/chain"
	"github.com/spark-it/sparksol/internal/transfer"
	"github.com/spark-it/sparksol/internal/usdc"
	"github.com/spark-it/sparksol/internal/vault"
	"github.com/spark-it/sparksol/internal/wallet"
)

// Transfer runs the transfer pipeline for one request against the configured
// cluster.
func (r *Runner) Transfer(ctx context.Context, w *wallet.Wallet, req transfer.Request) (*transfer.Result, error) {
	req.SourceOwner = w.PublicKey.String()
	req.Cluster = r.cluster

	sender := r.Sender(w)
	result, err := sender.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	if result.NoOp {
		r.logger.Info("Nothing to do: destination exists and amount is zero")
	} else {
		r.logger.WithTransaction(result.Signature.String()).Info("Transfer submitted",
			zap.String("endpoint", result.Endpoint))
	}
	return result, nil
}

// VaultInit creates the vault for an idea, funded by the wallet.
func (r *Runner) VaultInit(ctx context.Context, w *wallet.Wallet, ideaID string) (solana.Signature, error) {
	mint, err := usdc.MintForCluster(string(r.cluster))
	if err != nil {
		return solana.Signature{}, err
	}

	return r.signAndBroadcast(ctx, w, func(ctx context.Context, client *chain.Client) (*solana.Transaction, error) {
		exists, err := r.vault.Exists(ctx, client, ideaID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("vault for idea %q already exists", ideaID)
		}
		return r.vault.NewInitializeVaultTransaction(ctx, client, w.PublicKey, ideaID, mint)
	})
}

// Deposit moves a USDC amount from the wallet into an idea's vault.
func (r *Runner) Deposit(ctx context.Context, w *wallet.Wallet, ideaID, amount string) (solana.Signature, error) {
	if err := usdc.Validate(amount); err != nil {
		return solana.Signature{}, err
	}
	baseUnits, err := usdc.ToBaseUnits(amount)
	if err != nil {
		return solana.Signature{}, err
	}
	mint, err := usdc.MintForCluster(string(r.cluster))
	if err != nil {
		return solana.Signature{}, err
	}

	return r.signAndBroadcast(ctx, w, func(ctx context.Context, client *chain.Client) (*solana.Transaction, error) {
		balance, err := vault.TokenBalance(ctx, client, w.PublicKey, mint)
		if err != nil {
			return nil, err
		}
		if balance < baseUnits {
			return nil, fmt.Errorf("insufficient balance: have %s, need %s",
				usdc.Format(balance), usdc.Format(baseUnits))
		}
		return r.vault.NewDepositTransaction(ctx, client, w.PublicKey, ideaID, baseUnits, mint)
	})
}

// Withdraw moves a USDC amount from an idea's vault back to the wallet.
func (r *Runner) Withdraw(ctx context.Context, w *wallet.Wallet, ideaID, amount string) (solana.Signature, error) {
	if err := usdc.Validate(amount); err != nil {
		return solana.Signature{}, err
	}
	baseUnits, err := usdc.ToBaseUnits(amount)
	if err != nil {
		return solana.Signature{}, err
	}
	mint, err := usdc.MintForCluster(string(r.cluster))
	if err != nil {
		return solana.Signature{}, err
	}

	return r.signAndBroadcast(ctx, w, func(ctx context.Context, client *chain.Client) (*solana.Transaction, error) {
		deposit, err := r.vault.FetchUserDeposit(ctx, client, ideaID, w.PublicKey)
		if err != nil {
			return nil, err
		}
		if deposit == nil || deposit.Amount < baseUnits {
			var held uint64
			if deposit != nil {
				held = deposit.Amount
			}
			return nil, fmt.Errorf("insufficient deposit: have %s, need %s",
				usdc.Format(held), usdc.Format(baseUnits))
		}
		return r.vault.NewWithdrawTransaction(ctx, client, w.PublicKey, ideaID, baseUnits, mint)
	})
}

// VaultStatus reports an idea's vault state and the wallet's position in it.
func (r *Runner) VaultStatus(ctx context.Context, w *wallet.Wallet, ideaID string) error {
	mint, err := usdc.MintForCluster(string(r.cluster))
	if err != nil {
		return err
	}
	client, err := r.Client(ctx)
	if err != nil {
		return err
	}

	state, err := r.vault.Fetch(ctx, client, ideaID)
	if err != nil {
		return err
	}
	if state == nil {
		fmt.Printf("vault for idea %q does not exist\n", ideaID)
		return nil
	}

	balance, err := r.vault.Balance(ctx, client, ideaID, mint)
	if err != nil {
		return err
	}
	deposit, err := r.vault.FetchUserDeposit(ctx, client, ideaID, w.PublicKey)
	if err != nil {
		return err
	}
	walletBalance, err := vault.TokenBalance(ctx, client, w.PublicKey, mint)
	if err != nil {
		return err
	}

	fmt.Printf("idea:            %s\n", state.IdeaID)
	fmt.Printf("vault balance:   %s\n", usdc.Format(balance))
	fmt.Printf("total deposited: %s\n", usdc.Format(state.TotalDeposited))
	if deposit != nil {
		fmt.Printf("your deposit:    %s\n", usdc.Format(deposit.Amount))
	} else {
		fmt.Printf("your deposit:    none\n")
	}
	fmt.Printf("wallet balance:  %s\n", usdc.Format(walletBalance))
	return nil
}

// SendMessage broadcasts a memo attestation signed by the wallet and prints
// the signature to pass to verify later.
func (r *Runner) SendMessage(ctx context.Context, w *wallet.Wallet, message string) (string, error) {
	client, err := r.Client(ctx)
	if err != nil {
		return "", err
	}

	sig, err := r.memo.Send(ctx, client, w, w.PublicKey, message)
	if err != nil {
		return "", err
	}
	return base58.Encode(sig), nil
}

// VerifyMessage checks that a previously sent attestation carries the message
// and was signed by sender.
func (r *Runner) VerifyMessage(ctx context.Context, message, sender, sigBase58 string) error {
	senderKey, err := solana.PublicKeyFromBase58(sender)
	if err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	sig, err := base58.Decode(sigBase58)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	client, err := r.Client(ctx)
	if err != nil {
		return err
	}
	return r.memo.Verify(ctx, client, message, senderKey, sig)
}

// Health dials every endpoint of the configured cluster and reports which
// ones respond.
func (r *Runner) Health(ctx context.Context) error {
	if _, err := r.Client(ctx); err != nil {
		return err
	}
	fmt.Printf("cluster %s: endpoints healthy\n", r.cluster)
	return nil
}

// signAndBroadcast runs the shared unsigned-build, sign-once, broadcast and
// confirm sequence for vault transactions.
func (r *Runner) signAndBroadcast(ctx context.Context, w *wallet.Wallet, build func(context.Context, *chain.Client) (*solana.Transaction, error)) (solana.Signature, error) {
	client, err := r.Client(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := build(ctx, client)
	if err != nil {
		return solana.Signature{}, err
	}

	signed, err := w.Sign(ctx, tx)
	if err != nil {
		return solana.Signature{}, &chain.Error{Kind: chain.KindUserRejected, Op: "sign", Err: err}
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}

	sig, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return solana.Signature{}, err
	}

	monitor := transfer.NewMonitor(client, r.logger.Logger, time.Duration(r.cfg.ConfirmationTimeout)*time.Millisecond)
	status, err := monitor.AwaitConfirmation(ctx, sig)
	if err != nil {
		return sig, err
	}
	r.logger.WithTransaction(sig.String()).Info("Transaction confirmed",
		zap.String("status", status.Status),
		zap.Uint64("slot", status.Slot))
	return sig, nil
}
