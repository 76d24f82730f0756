// ====================================
// File: cmd/sparksol/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spark-it/sparksol/internal/app"
	"github.com/spark-it/sparksol/internal/transfer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	runner, err := app.NewRunner(configPath(args))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sparksol: %v\n", err)
		os.Exit(1)
	}
	defer runner.Shutdown()

	ctx, cancel := runner.Context()
	defer cancel()
	runner.ServeMetrics(ctx)

	if err := run(ctx, runner, command, args); err != nil {
		runner.Logger().LogError("Command failed", err, zap.String("command", command))
		os.Exit(1)
	}
}

func run(ctx context.Context, runner *app.Runner, command string, args []string) error {
	switch command {
	case "transfer":
		return runTransfer(ctx, runner, args)
	case "vault-init":
		return runVaultInit(ctx, runner, args)
	case "deposit":
		return runDeposit(ctx, runner, args)
	case "withdraw":
		return runWithdraw(ctx, runner, args)
	case "vault-status":
		return runVaultStatus(ctx, runner, args)
	case "send-message":
		return runSendMessage(ctx, runner, args)
	case "verify-message":
		return runVerifyMessage(ctx, runner, args)
	case "health":
		return runner.Health(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runTransfer(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("transfer")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	mint := fs.String("mint", "", "token mint address")
	dest := fs.String("to", "", "destination owner address")
	amount := fs.Uint64("amount", 0, "amount in base units; 0 creates the destination account only")
	decimals := fs.Uint("decimals", 0, "token decimals")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mint == "" || *dest == "" {
		return fmt.Errorf("transfer requires -mint and -to")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}

	result, err := runner.Transfer(ctx, w, transfer.Request{
		Amount:    *amount,
		Decimals:  uint8(*decimals),
		TokenMint: *mint,
		DestOwner: *dest,
	})
	if err != nil {
		return err
	}
	if result.NoOp {
		fmt.Println("nothing to do")
		return nil
	}
	fmt.Println(result.Signature.String())
	return nil
}

func runVaultInit(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("vault-init")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	ideaID := fs.String("idea", "", "idea identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ideaID == "" {
		return fmt.Errorf("vault-init requires -idea")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}
	sig, err := runner.VaultInit(ctx, w, *ideaID)
	if err != nil {
		return err
	}
	fmt.Println(sig.String())
	return nil
}

func runDeposit(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("deposit")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	ideaID := fs.String("idea", "", "idea identifier")
	amount := fs.String("amount", "", "USDC amount, e.g. 1.50")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ideaID == "" || *amount == "" {
		return fmt.Errorf("deposit requires -idea and -amount")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}
	sig, err := runner.Deposit(ctx, w, *ideaID, *amount)
	if err != nil {
		return err
	}
	fmt.Println(sig.String())
	return nil
}

func runWithdraw(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("withdraw")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	ideaID := fs.String("idea", "", "idea identifier")
	amount := fs.String("amount", "", "USDC amount, e.g. 1.50")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ideaID == "" || *amount == "" {
		return fmt.Errorf("withdraw requires -idea and -amount")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}
	sig, err := runner.Withdraw(ctx, w, *ideaID, *amount)
	if err != nil {
		return err
	}
	fmt.Println(sig.String())
	return nil
}

func runVaultStatus(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("vault-status")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	ideaID := fs.String("idea", "", "idea identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ideaID == "" {
		return fmt.Errorf("vault-status requires -idea")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}
	return runner.VaultStatus(ctx, w, *ideaID)
}

func runSendMessage(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("send-message")
	walletName := fs.String("wallet", "", "wallet name from the wallets file")
	message := fs.String("message", "", "message text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *message == "" {
		return fmt.Errorf("send-message requires -message")
	}

	w, err := runner.Wallet(*walletName)
	if err != nil {
		return err
	}
	sig, err := runner.SendMessage(ctx, w, *message)
	if err != nil {
		return err
	}
	fmt.Println(sig)
	return nil
}

func runVerifyMessage(ctx context.Context, runner *app.Runner, args []string) error {
	fs := newFlagSet("verify-message")
	message := fs.String("message", "", "expected message text")
	sender := fs.String("sender", "", "expected sender address")
	signature := fs.String("signature", "", "base58 transaction signature")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *message == "" || *sender == "" || *signature == "" {
		return fmt.Errorf("verify-message requires -message, -sender and -signature")
	}

	if err := runner.VerifyMessage(ctx, *message, *sender, *signature); err != nil {
		return err
	}
	fmt.Println("verified")
	return nil
}

// configPath pre-scans args for -config so the runner can be built before
// the per-command flag sets parse.
func configPath(args []string) string {
	path := "configs/config.json"
	for i, arg := range args {
		if (arg == "-config" || arg == "--config") && i+1 < len(args) {
			path = args[i+1]
		}
	}
	return path
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.String("config", "configs/config.json", "path to config file")
	return fs
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sparksol <command> [flags]

commands:
  transfer        send SPL tokens with endpoint fallback
  vault-init      create the vault for an idea
  deposit         deposit USDC into an idea's vault
  withdraw        withdraw USDC from an idea's vault
  vault-status    show vault and deposit balances
  send-message    broadcast a signed memo attestation
  verify-message  verify a previously sent attestation
  health          check the configured RPC endpoints`)
}
