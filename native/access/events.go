package access

import (
	"encoding/hex"

	"assetchain/core/types"
)

const (
	EventTypeRestricted   = "access.restricted"
	EventTypeUnrestricted = "access.unrestricted"
)

type accessEvent struct {
	evt *types.Event
}

func (e accessEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e accessEvent) Event() *types.Event { return e.evt }

// NewRestrictedEvent returns the canonical payload emitted when an address is
// added to the blacklist.
func NewRestrictedEvent(addr [20]byte) *types.Event {
	return newAccessEvent(EventTypeRestricted, addr)
}

// NewUnrestrictedEvent returns the canonical payload emitted when an address
// is removed from the blacklist.
func NewUnrestrictedEvent(addr [20]byte) *types.Event {
	return newAccessEvent(EventTypeUnrestricted, addr)
}

func newAccessEvent(eventType string, addr [20]byte) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"address": hex.EncodeToString(addr[:]),
		},
	}
}
