package common

import "errors"

// ErrRestricted rejects any trading action attempted by or against an
// access-restricted account.
var ErrRestricted = errors.New("account restricted")

// AccessList exposes the blacklist membership check consumed at module
// checkpoints.
type AccessList interface {
	IsRestricted(addr [20]byte) bool
}

// Guard fails with ErrRestricted when the address is flagged. A nil list
// disables the checkpoint, which keeps engines usable in isolation.
func Guard(list AccessList, addr [20]byte) error {
	if list == nil {
		return nil
	}
	if list.IsRestricted(addr) {
		return ErrRestricted
	}
	return nil
}
