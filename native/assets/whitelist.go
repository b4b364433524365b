package assets

import (
	"bytes"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// WhitelistLeaf hashes an address into the whitelist merkle leaf format.
func WhitelistLeaf(addr [20]byte) [32]byte {
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(addr[:]))
	return leaf
}

// VerifyWhitelistProof walks a sorted-pair keccak256 merkle proof from the
// leaf for addr up to root. Sibling ordering is by byte comparison, so the
// prover does not need to encode left/right positions.
func VerifyWhitelistProof(root [32]byte, proof [][32]byte, addr [20]byte) bool {
	node := WhitelistLeaf(addr)
	for _, sibling := range proof {
		if bytes.Compare(node[:], sibling[:]) <= 0 {
			copy(node[:], ethcrypto.Keccak256(node[:], sibling[:]))
		} else {
			copy(node[:], ethcrypto.Keccak256(sibling[:], node[:]))
		}
	}
	return node == root
}
