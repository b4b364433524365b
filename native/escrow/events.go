package escrow

import (
	"encoding/hex"
	"strconv"

	"assetchain/core/types"
)

const (
	EventTypeTradeOpened   = "escrow.trade.opened"
	EventTypeTradePaid     = "escrow.trade.paid"
	EventTypeTradeSettled  = "escrow.trade.settled"
	EventTypeTradeReversed = "escrow.trade.reversed"
)

type escrowEvent struct {
	evt *types.Event
}

func (e escrowEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e escrowEvent) Event() *types.Event { return e.evt }

// NewTradeOpenedEvent emits the canonical payload when custody is taken.
func NewTradeOpenedEvent(t *Trade) *types.Event {
	return newTradeEvent(EventTypeTradeOpened, t)
}

// NewTradePaidEvent emits the payload when the buyer funds the trade.
func NewTradePaidEvent(t *Trade) *types.Event {
	return newTradeEvent(EventTypeTradePaid, t)
}

// NewTradeSettledEvent emits the payload when a funded trade settles before
// the deadline.
func NewTradeSettledEvent(t *Trade) *types.Event {
	return newTradeEvent(EventTypeTradeSettled, t)
}

// NewTradeReversedEvent emits the payload when an expired trade returns the
// asset to the seller.
func NewTradeReversedEvent(t *Trade) *types.Event {
	return newTradeEvent(EventTypeTradeReversed, t)
}

func newTradeEvent(eventType string, t *Trade) *types.Event {
	attrs := make(map[string]string)
	if t == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	sanitized, err := SanitizeTrade(t)
	if err != nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["assetId"] = strconv.FormatUint(sanitized.AssetID, 10)
	attrs["buyer"] = hex.EncodeToString(sanitized.Buyer[:])
	attrs["seller"] = hex.EncodeToString(sanitized.Seller[:])
	attrs["price"] = sanitized.Price.String()
	attrs["acceptedAt"] = strconv.FormatInt(sanitized.AcceptedAt, 10)
	attrs["deadline"] = strconv.FormatInt(sanitized.Deadline, 10)
	attrs["paid"] = strconv.FormatBool(sanitized.Paid)
	return &types.Event{Type: eventType, Attributes: attrs}
}
