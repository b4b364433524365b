package state

import (
	"fmt"
	"math/big"

	"assetchain/native/auction"
)

const (
	listingPrefix   = "auction/listing/"
	listingIndexKey = "auction/index"
)

type storedBid struct {
	Time   uint64
	Amount *big.Int
	Bidder []byte
}

type storedListing struct {
	AssetID   uint64
	Seller    []byte
	AskPrice  *big.Int
	Bid       storedBid
	CreatedAt uint64
}

func listingKey(assetID uint64) string {
	return fmt.Sprintf("%s%d", listingPrefix, assetID)
}

func (m *Manager) listingIndex() ([]uint64, error) {
	var ids []uint64
	if _, err := m.kvGet(listingIndexKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) writeListingIndex(ids []uint64) error {
	return m.kvPut(listingIndexKey, ids)
}

// ListingPut persists the listing record and keeps the id index current.
func (m *Manager) ListingPut(listing *auction.Listing) error {
	if listing == nil {
		return fmt.Errorf("state: nil listing")
	}
	stored := storedListing{
		AssetID:   listing.AssetID,
		Seller:    append([]byte(nil), listing.Seller[:]...),
		AskPrice:  listing.AskPrice,
		CreatedAt: uint64(listing.CreatedAt),
		Bid: storedBid{
			Time:   uint64(listing.Bid.Time),
			Amount: listing.Bid.Amount,
			Bidder: append([]byte(nil), listing.Bid.Bidder[:]...),
		},
	}
	if err := m.kvPut(listingKey(listing.AssetID), &stored); err != nil {
		return err
	}
	ids, err := m.listingIndex()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == listing.AssetID {
			return nil
		}
	}
	return m.writeListingIndex(append(ids, listing.AssetID))
}

// ListingGet loads the listing record for the asset.
func (m *Manager) ListingGet(assetID uint64) (*auction.Listing, bool) {
	var stored storedListing
	ok, err := m.kvGet(listingKey(assetID), &stored)
	if err != nil || !ok {
		return nil, false
	}
	listing := &auction.Listing{
		AssetID:   stored.AssetID,
		AskPrice:  stored.AskPrice,
		CreatedAt: int64(stored.CreatedAt),
		Bid: auction.Bid{
			Time:   int64(stored.Bid.Time),
			Amount: stored.Bid.Amount,
		},
	}
	copy(listing.Seller[:], stored.Seller)
	copy(listing.Bid.Bidder[:], stored.Bid.Bidder)
	return listing, true
}

// ListingDelete removes the listing record and its index entry.
func (m *Manager) ListingDelete(assetID uint64) error {
	if err := m.kvDelete(listingKey(assetID)); err != nil {
		return err
	}
	ids, err := m.listingIndex()
	if err != nil {
		return err
	}
	filtered := ids[:0]
	for _, id := range ids {
		if id != assetID {
			filtered = append(filtered, id)
		}
	}
	return m.writeListingIndex(filtered)
}

// ListingIDs returns the asset ids of all stored listings.
func (m *Manager) ListingIDs() ([]uint64, error) {
	return m.listingIndex()
}
