package state

import (
	"fmt"

	"assetchain/native/assets"
)

const (
	assetPrefix   = "assets/record/"
	claimedPrefix = "assets/claimed/"
	assetSeqKey   = "assets/sequence"
)

// storedAsset mirrors assets.Asset with RLP-friendly field types. RLP has no
// signed integer encoding, so the mint timestamp is stored unsigned.
type storedAsset struct {
	ID       uint64
	Owner    []byte
	Approved []byte
	Content  string
	Locked   bool
	MintedAt uint64
}

func assetKey(id uint64) string {
	return fmt.Sprintf("%s%d", assetPrefix, id)
}

// AssetPut persists the asset record.
func (m *Manager) AssetPut(asset *assets.Asset) error {
	if asset == nil {
		return fmt.Errorf("state: nil asset")
	}
	stored := storedAsset{
		ID:       asset.ID,
		Owner:    append([]byte(nil), asset.Owner[:]...),
		Approved: append([]byte(nil), asset.Approved[:]...),
		Content:  asset.Content,
		Locked:   asset.Locked,
		MintedAt: uint64(asset.MintedAt),
	}
	return m.kvPut(assetKey(asset.ID), &stored)
}

// AssetGet loads the asset record for the id.
func (m *Manager) AssetGet(id uint64) (*assets.Asset, bool) {
	var stored storedAsset
	ok, err := m.kvGet(assetKey(id), &stored)
	if err != nil || !ok {
		return nil, false
	}
	asset := &assets.Asset{
		ID:       stored.ID,
		Content:  stored.Content,
		Locked:   stored.Locked,
		MintedAt: int64(stored.MintedAt),
	}
	copy(asset.Owner[:], stored.Owner)
	copy(asset.Approved[:], stored.Approved)
	return asset, true
}

// AssetNextID increments and returns the mint sequence. Ids start at 1.
func (m *Manager) AssetNextID() (uint64, error) {
	var seq uint64
	if _, err := m.kvGet(assetSeqKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := m.kvPut(assetSeqKey, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// AssetClaimed reports whether the address already minted its token.
func (m *Manager) AssetClaimed(addr [20]byte) bool {
	return m.kvHas(addrKey(claimedPrefix, addr))
}

// AssetMarkClaimed records the one-per-account mint claim.
func (m *Manager) AssetMarkClaimed(addr [20]byte) error {
	return m.kvPut(addrKey(claimedPrefix, addr), true)
}
