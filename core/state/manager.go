package state

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"assetchain/storage"
)

// Manager persists all module state in the underlying key/value database.
// Keys are namespaced strings hashed with keccak256; values are RLP encoded.
// It satisfies the state interfaces of every native engine.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func kvKey(key string) []byte {
	return ethcrypto.Keccak256([]byte(key))
}

// kvPut stores the value under the supplied key using RLP encoding.
func (m *Manager) kvPut(key string, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return m.db.Put(kvKey(key), encoded)
}

// kvGet retrieves the value stored under the supplied key and decodes it into
// out. It reports whether the key was present.
func (m *Manager) kvGet(key string, out interface{}) (bool, error) {
	data, err := m.db.Get(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (m *Manager) kvDelete(key string) error {
	return m.db.Delete(kvKey(key))
}

func (m *Manager) kvHas(key string) bool {
	ok, err := m.db.Has(kvKey(key))
	return err == nil && ok
}

const versionKey = "state/version"

// Initialized reports whether genesis state has been written.
func (m *Manager) Initialized() bool {
	return m.kvHas(versionKey)
}

// MarkInitialized records the state schema version after genesis.
func (m *Manager) MarkInitialized() error {
	return m.kvPut(versionKey, uint64(1))
}

func addrKey(prefix string, addr [20]byte) string {
	return fmt.Sprintf("%s%x", prefix, addr[:])
}
