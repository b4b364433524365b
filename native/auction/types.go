package auction

import (
	"fmt"
	"math/big"
)

// Bid is the currently winning price/bidder pair for a listing. A fresh
// listing seeds the bid with the ask price and the seller, so "no bid yet"
// and "ask price" are the same state; Bidder == Seller is the sentinel for a
// listing that has not received a genuine bid.
type Bid struct {
	Time   int64
	Amount *big.Int
	Bidder [20]byte
}

// Clone returns a deep copy of the bid.
func (b Bid) Clone() Bid {
	clone := b
	if b.Amount != nil {
		clone.Amount = new(big.Int).Set(b.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return clone
}

// Listing is one active offer to sell an asset at a minimum ask price. A
// listing exists for an asset exactly while the registry's lock flag is set.
type Listing struct {
	AssetID   uint64
	Seller    [20]byte
	AskPrice  *big.Int
	Bid       Bid
	CreatedAt int64
}

// Clone returns a deep copy of the listing allowing callers to mutate the
// result without affecting the stored instance.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.AskPrice != nil {
		clone.AskPrice = new(big.Int).Set(l.AskPrice)
	} else {
		clone.AskPrice = big.NewInt(0)
	}
	clone.Bid = l.Bid.Clone()
	return &clone
}

// SanitizeListing validates the supplied listing, returning a cloned instance
// with non-nil amounts. The function does not mutate the original value.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("auction: nil listing")
	}
	clone := l.Clone()
	if clone.AssetID == 0 {
		return nil, fmt.Errorf("auction: listing asset id must be positive")
	}
	if clone.Seller == ([20]byte{}) {
		return nil, fmt.Errorf("auction: listing seller must not be zero")
	}
	if clone.AskPrice.Sign() <= 0 {
		return nil, fmt.Errorf("auction: ask price must be positive")
	}
	if clone.Bid.Amount.Cmp(clone.AskPrice) < 0 {
		return nil, fmt.Errorf("auction: top bid below ask price")
	}
	return clone, nil
}
