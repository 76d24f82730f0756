// internal/usdc/amount.go
package usdc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Decimals is the decimal count of the USDC mint on every cluster.
const Decimals = 6

// MaxAmount caps a single request at one billion USDC.
const MaxAmount = 1_000_000_000

// Well-known USDC mint addresses.
var (
	MintMainnet = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	MintDevnet  = solana.MustPublicKeyFromBase58("4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
)

var ErrInvalidAmount = errors.New("invalid USDC amount")

// ToBaseUnits converts a decimal USDC string to base units. The conversion is
// string-based so no floating point rounding can change the value; excess
// decimal digits beyond six are truncated, not rounded.
func ToBaseUnits(amount string) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, amount)
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		frac = frac[:Decimals]
	} else {
		frac = frac + strings.Repeat("0", Decimals-len(frac))
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		combined = "0"
	}
	value, err := strconv.ParseUint(combined, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return value, nil
}

// FromBaseUnits converts base units to a decimal USDC value for display.
func FromBaseUnits(amount uint64) float64 {
	const scale = uint64(1_000_000)
	whole := amount / scale
	remainder := amount % scale
	return float64(whole) + float64(remainder)/float64(scale)
}

// Format renders base units as a display string, e.g. "1.23 USDC".
func Format(amount uint64) string {
	return fmt.Sprintf("%.2f USDC", FromBaseUnits(amount))
}

// Validate checks a user-entered USDC amount string: positive, at most six
// decimal places, below the overflow guard.
func Validate(amount string) error {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	parsed, err := strconv.ParseFloat(amount, 64)
	if err != nil || parsed <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if _, frac, ok := strings.Cut(amount, "."); ok && len(frac) > Decimals {
		return fmt.Errorf("%w: more than %d decimal places in %q", ErrInvalidAmount, Decimals, amount)
	}
	if parsed > MaxAmount {
		return fmt.Errorf("%w: %q exceeds maximum", ErrInvalidAmount, amount)
	}
	return nil
}

// MintForCluster returns the USDC mint for a cluster name ("mainnet" or
// "devnet").
func MintForCluster(cluster string) (solana.PublicKey, error) {
	switch cluster {
	case "mainnet":
		return MintMainnet, nil
	case "devnet":
		return MintDevnet, nil
	default:
		return solana.PublicKey{}, fmt.Errorf("no USDC mint for cluster %q", cluster)
	}
}
