package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"assetchain/core/types"
)

const (
	EventTypeListed        = "auction.listed"
	EventTypeCancelled     = "auction.cancelled"
	EventTypeBidPlaced     = "auction.bid_placed"
	EventTypeOfferAccepted = "auction.offer_accepted"
	EventTypePurchased     = "auction.purchased"
)

type auctionEvent struct {
	evt *types.Event
}

func (e auctionEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e auctionEvent) Event() *types.Event { return e.evt }

// NewListedEvent emits the canonical payload when a listing opens.
func NewListedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeListed, l)
}

// NewCancelledEvent emits the payload when the seller withdraws a listing.
func NewCancelledEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeCancelled, l)
}

// NewBidPlacedEvent emits the payload when a new top bid is recorded.
func NewBidPlacedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeBidPlaced, l)
}

// NewOfferAcceptedEvent emits the payload when the seller accepts the top bid
// and the sale moves into escrow.
func NewOfferAcceptedEvent(l *Listing) *types.Event {
	return newListingEvent(EventTypeOfferAccepted, l)
}

// NewPurchasedEvent emits the payload for an instant purchase at the ask
// price.
func NewPurchasedEvent(l *Listing, buyer [20]byte, paid *big.Int) *types.Event {
	evt := newListingEvent(EventTypePurchased, l)
	evt.Attributes["buyer"] = hex.EncodeToString(buyer[:])
	if paid != nil {
		evt.Attributes["paid"] = paid.String()
	}
	return evt
}

func newListingEvent(eventType string, l *Listing) *types.Event {
	attrs := make(map[string]string)
	if l == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeListing(l)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["assetId"] = strconv.FormatUint(sanitized.AssetID, 10)
	attrs["seller"] = hex.EncodeToString(sanitized.Seller[:])
	attrs["askPrice"] = sanitized.AskPrice.String()
	attrs["topBid"] = sanitized.Bid.Amount.String()
	attrs["topBidder"] = hex.EncodeToString(sanitized.Bid.Bidder[:])
	attrs["createdAt"] = strconv.FormatInt(sanitized.CreatedAt, 10)
	return &types.Event{Type: eventType, Attributes: attrs}
}
