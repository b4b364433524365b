package escrow

import (
	"fmt"
	"math/big"
)

// Trade is the time-boxed settlement record opened when a seller accepts the
// winning bid. The escrow module holds custody of the asset for the entire
// [AcceptedAt, finalize] interval; the record is deleted on the first
// successful finalize, whether settlement or reversal.
type Trade struct {
	AssetID    uint64
	Buyer      [20]byte
	Seller     [20]byte
	Price      *big.Int
	AcceptedAt int64
	Deadline   int64
	Paid       bool
}

// Clone returns a deep copy of the trade allowing callers to mutate the
// result without affecting the stored instance.
func (t *Trade) Clone() *Trade {
	if t == nil {
		return nil
	}
	clone := *t
	if t.Price != nil {
		clone.Price = new(big.Int).Set(t.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeTrade validates the supplied trade definition, returning a cloned
// instance with a non-nil price. The function does not mutate the original
// value.
func SanitizeTrade(t *Trade) (*Trade, error) {
	if t == nil {
		return nil, fmt.Errorf("escrow: nil trade")
	}
	clone := t.Clone()
	if clone.AssetID == 0 {
		return nil, fmt.Errorf("escrow: trade asset id must be positive")
	}
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("escrow: trade price must be positive")
	}
	if clone.Deadline < clone.AcceptedAt {
		return nil, fmt.Errorf("escrow: trade deadline before acceptance")
	}
	if clone.Buyer == clone.Seller {
		return nil, fmt.Errorf("escrow: buyer and seller must differ")
	}
	return clone, nil
}
