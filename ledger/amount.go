package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// LamportDecimals 1 SOL = 10^9 lamports
const LamportDecimals = 9

var (
	ErrInvalidAmount = errors.New("invalid amount")
	maxLamports      = decimal.NewFromBigInt(new(big.Int).SetUint64(^uint64(0)), 0)
)

// ParseAmount "1.5" -> 1500000000
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("%w: %s must be non-negative", ErrInvalidAmount, s)
	}
	l := d.Shift(LamportDecimals)
	if !l.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, s, LamportDecimals)
	}
	if l.GreaterThan(maxLamports) {
		return 0, fmt.Errorf("%w: %s overflows u64 lamports", ErrInvalidAmount, s)
	}
	return l.BigInt().Uint64(), nil
}

// FormatAmount 1500000000 -> "1.5"
func FormatAmount(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -LamportDecimals).String()
}
