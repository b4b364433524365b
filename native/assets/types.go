package assets

import "fmt"

// Asset captures the identity, ownership and custody flags of one unique
// digital asset. Content is the creator-supplied payload stored with the
// token and travels with it on every transfer.
type Asset struct {
	ID       uint64
	Owner    [20]byte
	Approved [20]byte
	Content  string
	Locked   bool
	MintedAt int64
}

// Clone returns a copy of the asset so callers can mutate the result without
// affecting the stored instance.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// SanitizeAsset validates the supplied asset definition and returns a cloned
// instance. The function does not mutate the original value.
func SanitizeAsset(a *Asset) (*Asset, error) {
	if a == nil {
		return nil, fmt.Errorf("assets: nil asset")
	}
	if a.ID == 0 {
		return nil, fmt.Errorf("assets: asset id must be positive")
	}
	if a.Owner == ([20]byte{}) {
		return nil, fmt.Errorf("assets: asset owner must not be zero")
	}
	return a.Clone(), nil
}
