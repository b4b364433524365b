package assets

import (
	"encoding/hex"
	"strconv"

	"assetchain/core/types"
)

const (
	EventTypeMinted      = "assets.minted"
	EventTypeTransferred = "assets.transferred"
)

type assetEvent struct {
	evt *types.Event
}

func (e assetEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e assetEvent) Event() *types.Event { return e.evt }

// NewMintedEvent returns the canonical payload for a freshly minted asset.
func NewMintedEvent(a *Asset) *types.Event {
	attrs := make(map[string]string)
	if a != nil {
		attrs["assetId"] = strconv.FormatUint(a.ID, 10)
		attrs["owner"] = hex.EncodeToString(a.Owner[:])
		attrs["mintedAt"] = strconv.FormatInt(a.MintedAt, 10)
	}
	return &types.Event{Type: EventTypeMinted, Attributes: attrs}
}

// NewTransferredEvent returns the canonical payload for a custody change.
func NewTransferredEvent(a *Asset, from [20]byte) *types.Event {
	attrs := make(map[string]string)
	if a != nil {
		attrs["assetId"] = strconv.FormatUint(a.ID, 10)
		attrs["from"] = hex.EncodeToString(from[:])
		attrs["to"] = hex.EncodeToString(a.Owner[:])
	}
	return &types.Event{Type: EventTypeTransferred, Attributes: attrs}
}
