package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"assetchain/native/assets"
	"assetchain/native/auction"
	"assetchain/native/escrow"
)

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if cleaned == "" {
		return addr, fmt.Errorf("address must not be empty")
	}
	decoded, err := hex.DecodeString(cleaned)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address: %w", err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("amount must not be empty")
	}
	amount, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func parseProof(raw []string) ([][32]byte, error) {
	proof := make([][32]byte, 0, len(raw))
	for i, item := range raw {
		cleaned := strings.TrimPrefix(strings.TrimSpace(item), "0x")
		decoded, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("proof[%d]: invalid hex: %w", i, err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("proof[%d]: must be 32 bytes, got %d", i, len(decoded))
		}
		var node [32]byte
		copy(node[:], decoded)
		proof = append(proof, node)
	}
	return proof, nil
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

type assetJSON struct {
	ID       uint64 `json:"id"`
	Owner    string `json:"owner"`
	Approved string `json:"approved,omitempty"`
	Content  string `json:"content"`
	Locked   bool   `json:"locked"`
	MintedAt int64  `json:"mintedAt"`
	TokenURI string `json:"tokenUri,omitempty"`
}

func newAssetJSON(a *assets.Asset, tokenURI string) assetJSON {
	out := assetJSON{
		ID:       a.ID,
		Owner:    formatAddress(a.Owner),
		Content:  a.Content,
		Locked:   a.Locked,
		MintedAt: a.MintedAt,
		TokenURI: tokenURI,
	}
	if a.Approved != ([20]byte{}) {
		out.Approved = formatAddress(a.Approved)
	}
	return out
}

type bidJSON struct {
	Time   int64  `json:"time"`
	Amount string `json:"amount"`
	Bidder string `json:"bidder"`
}

type listingJSON struct {
	AssetID   uint64  `json:"assetId"`
	Seller    string  `json:"seller"`
	AskPrice  string  `json:"askPrice"`
	Bid       bidJSON `json:"bid"`
	CreatedAt int64   `json:"createdAt"`
}

func newListingJSON(l *auction.Listing) listingJSON {
	return listingJSON{
		AssetID:   l.AssetID,
		Seller:    formatAddress(l.Seller),
		AskPrice:  l.AskPrice.String(),
		CreatedAt: l.CreatedAt,
		Bid: bidJSON{
			Time:   l.Bid.Time,
			Amount: l.Bid.Amount.String(),
			Bidder: formatAddress(l.Bid.Bidder),
		},
	}
}

type tradeJSON struct {
	AssetID    uint64 `json:"assetId"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	Price      string `json:"price"`
	AcceptedAt int64  `json:"acceptedAt"`
	Deadline   int64  `json:"deadline"`
	Paid       bool   `json:"paid"`
}

func newTradeJSON(t *escrow.Trade) tradeJSON {
	return tradeJSON{
		AssetID:    t.AssetID,
		Buyer:      formatAddress(t.Buyer),
		Seller:     formatAddress(t.Seller),
		Price:      t.Price.String(),
		AcceptedAt: t.AcceptedAt,
		Deadline:   t.Deadline,
		Paid:       t.Paid,
	}
}
