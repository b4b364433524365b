package state

import (
	"fmt"
	"math/big"

	"assetchain/native/escrow"
)

const tradePrefix = "escrow/trade/"

type storedTrade struct {
	AssetID    uint64
	Buyer      []byte
	Seller     []byte
	Price      *big.Int
	AcceptedAt uint64
	Deadline   uint64
	Paid       bool
}

func tradeKey(assetID uint64) string {
	return fmt.Sprintf("%s%d", tradePrefix, assetID)
}

// TradePut persists the trade record.
func (m *Manager) TradePut(trade *escrow.Trade) error {
	if trade == nil {
		return fmt.Errorf("state: nil trade")
	}
	stored := storedTrade{
		AssetID:    trade.AssetID,
		Buyer:      append([]byte(nil), trade.Buyer[:]...),
		Seller:     append([]byte(nil), trade.Seller[:]...),
		Price:      trade.Price,
		AcceptedAt: uint64(trade.AcceptedAt),
		Deadline:   uint64(trade.Deadline),
		Paid:       trade.Paid,
	}
	return m.kvPut(tradeKey(trade.AssetID), &stored)
}

// TradeGet loads the trade record for the asset.
func (m *Manager) TradeGet(assetID uint64) (*escrow.Trade, bool) {
	var stored storedTrade
	ok, err := m.kvGet(tradeKey(assetID), &stored)
	if err != nil || !ok {
		return nil, false
	}
	trade := &escrow.Trade{
		AssetID:    stored.AssetID,
		Price:      stored.Price,
		AcceptedAt: int64(stored.AcceptedAt),
		Deadline:   int64(stored.Deadline),
		Paid:       stored.Paid,
	}
	copy(trade.Buyer[:], stored.Buyer)
	copy(trade.Seller[:], stored.Seller)
	return trade, true
}

// TradeDelete removes the trade record.
func (m *Manager) TradeDelete(assetID uint64) error {
	return m.kvDelete(tradeKey(assetID))
}
