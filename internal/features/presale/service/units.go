package service

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ToBaseUnits converts a human-entered decimal amount into the token's
// integer base-unit representation, e.g. "1000" at 6 decimals becomes
// 1000000000. More fractional digits than the token supports is an error,
// not a silent truncation.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, ErrInvalidAmount
	}

	whole, frac := amount, ""
	if idx := strings.Index(amount, "."); idx >= 0 {
		whole, frac = amount[:idx], amount[idx+1:]
	}
	if whole == "" && frac == "" {
		return nil, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}

	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, decimals)
	}
	// Pad the fraction out to the full decimal width.
	frac += strings.Repeat("0", int(decimals)-len(frac))

	result, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if result.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	return result, nil
}
