package state

const restrictedPrefix = "access/restricted/"

// AccessSetRestricted flips the blacklist flag for the address.
func (m *Manager) AccessSetRestricted(addr [20]byte, restricted bool) error {
	key := addrKey(restrictedPrefix, addr)
	if !restricted {
		return m.kvDelete(key)
	}
	return m.kvPut(key, true)
}

// AccessIsRestricted reports whether the address is blacklisted.
func (m *Manager) AccessIsRestricted(addr [20]byte) bool {
	return m.kvHas(addrKey(restrictedPrefix, addr))
}
