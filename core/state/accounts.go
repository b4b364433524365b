package state

import (
	"math/big"

	"assetchain/core/types"
)

const accountPrefix = "accounts/record/"

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the account record for the address. A missing record yields
// a fresh zero-balance account.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	var stored storedAccount
	ok, err := m.kvGet(addrKey(accountPrefix, addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return (&types.Account{}).EnsureDefaults(), nil
	}
	account := &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}
	return account.EnsureDefaults(), nil
}

// PutAccount persists the account record for the address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	account = account.EnsureDefaults()
	stored := storedAccount{Nonce: account.Nonce, Balance: account.Balance}
	return m.kvPut(addrKey(accountPrefix, addr), &stored)
}
