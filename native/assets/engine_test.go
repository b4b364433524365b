package assets

import (
	"errors"
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"assetchain/core/types"
	nativecommon "assetchain/native/common"
)

type mockState struct {
	assets   map[uint64]*Asset
	accounts map[[20]byte]*types.Account
	claimed  map[[20]byte]bool
	nextID   uint64
}

func newMockState() *mockState {
	return &mockState{
		assets:   make(map[uint64]*Asset),
		accounts: make(map[[20]byte]*types.Account),
		claimed:  make(map[[20]byte]bool),
	}
}

func (m *mockState) AssetPut(asset *Asset) error {
	m.assets[asset.ID] = asset.Clone()
	return nil
}

func (m *mockState) AssetGet(id uint64) (*Asset, bool) {
	asset, ok := m.assets[id]
	if !ok {
		return nil, false
	}
	return asset.Clone(), true
}

func (m *mockState) AssetNextID() (uint64, error) {
	m.nextID++
	return m.nextID, nil
}

func (m *mockState) AssetClaimed(addr [20]byte) bool { return m.claimed[addr] }

func (m *mockState) AssetMarkClaimed(addr [20]byte) error {
	m.claimed[addr] = true
	return nil
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return (&types.Account{}).EnsureDefaults(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) fund(addr [20]byte, amount int64) {
	m.accounts[addr] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Balance
	}
	return big.NewInt(0)
}

type stubAccessList map[[20]byte]bool

func (s stubAccessList) IsRestricted(addr [20]byte) bool { return s[addr] }

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetFeeTreasury(addr(0xfe))
	engine.SetNowFunc(func() int64 { return 1_000 })
	return engine
}

func TestMintChargesPublicPrice(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	engine.SetMintPrices(big.NewInt(10), big.NewInt(5))

	minter := addr(1)
	state.fund(minter, 100)

	if _, err := engine.Mint(minter, minter, "ipfs://one", big.NewInt(14)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}

	id, err := engine.Mint(minter, minter, "ipfs://one", big.NewInt(15))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id 1, got %d", id)
	}
	if got := state.balance(minter); got.Cmp(big.NewInt(85)) != 0 {
		t.Fatalf("minter balance = %s, want 85", got)
	}
	if got := state.balance(addr(0xfe)); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("treasury balance = %s, want 15", got)
	}
	asset, ok := engine.Get(id)
	if !ok {
		t.Fatal("minted asset not found")
	}
	if asset.Owner != minter || asset.Content != "ipfs://one" || asset.Locked {
		t.Fatalf("unexpected asset record: %+v", asset)
	}
}

func TestMintOncePerAccount(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	minter := addr(1)
	if _, err := engine.Mint(minter, minter, "a", nil); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if _, err := engine.Mint(minter, minter, "b", nil); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestMintRejectsRestricted(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	blocked := addr(9)
	engine.SetAccessList(stubAccessList{blocked: true})

	if _, err := engine.Mint(blocked, blocked, "a", nil); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted for caller, got %v", err)
	}
	if _, err := engine.Mint(addr(1), blocked, "a", nil); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted for recipient, got %v", err)
	}
}

func whitelistRoot(addrs ...[20]byte) ([32]byte, map[[20]byte][][32]byte) {
	if len(addrs) != 2 {
		panic("helper supports exactly two leaves")
	}
	a := WhitelistLeaf(addrs[0])
	b := WhitelistLeaf(addrs[1])
	var root [32]byte
	if string(a[:]) <= string(b[:]) {
		copy(root[:], ethcrypto.Keccak256(a[:], b[:]))
	} else {
		copy(root[:], ethcrypto.Keccak256(b[:], a[:]))
	}
	proofs := map[[20]byte][][32]byte{
		addrs[0]: {b},
		addrs[1]: {a},
	}
	return root, proofs
}

func TestWhitelistMint(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	engine.SetMintPrices(big.NewInt(10), big.NewInt(5))

	member := addr(1)
	other := addr(2)
	root, proofs := whitelistRoot(member, other)
	engine.SetMerkleRoot(root)

	state.fund(member, 100)

	if _, err := engine.WhitelistMint(member, member, proofs[other], "a", big.NewInt(10)); !errors.Is(err, ErrInvalidProof) {
		t.Fatalf("expected ErrInvalidProof for wrong proof, got %v", err)
	}
	id, err := engine.WhitelistMint(member, member, proofs[member], "a", big.NewInt(10))
	if err != nil {
		t.Fatalf("whitelist mint: %v", err)
	}
	if got := state.balance(member); got.Cmp(big.NewInt(90)) != 0 {
		t.Fatalf("member paid %s, want discounted 10", new(big.Int).Sub(big.NewInt(100), got))
	}
	if owner, _ := engine.OwnerOf(id); owner != member {
		t.Fatalf("owner = %x, want member", owner)
	}
}

func TestTransferAuthorization(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	owner := addr(1)
	spender := addr(2)
	recipient := addr(3)
	id, err := engine.Mint(owner, owner, "a", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := engine.Transfer(spender, owner, recipient, id); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := engine.Approve(spender, spender, id); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized approving foreign asset, got %v", err)
	}
	if err := engine.Approve(owner, spender, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !engine.IsApprovedForTransfer(id, spender) {
		t.Fatal("spender should be approved")
	}
	if err := engine.Transfer(spender, owner, recipient, id); err != nil {
		t.Fatalf("approved transfer: %v", err)
	}
	if owner, _ := engine.OwnerOf(id); owner != recipient {
		t.Fatalf("owner = %x, want recipient", owner)
	}
	// Approval does not survive the transfer.
	if engine.IsApprovedForTransfer(id, spender) {
		t.Fatal("approval should be cleared after transfer")
	}
}

func TestTransferBlockedWhileLocked(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	authority := addr(0xaa)
	engine.AddAuthority(authority)

	owner := addr(1)
	id, err := engine.Mint(owner, owner, "a", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := engine.SetLocked(addr(0xbb), id, true); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for stranger lock, got %v", err)
	}
	if err := engine.SetLocked(authority, id, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := engine.Transfer(owner, owner, addr(2), id); !errors.Is(err, ErrAssetLocked) {
		t.Fatalf("expected ErrAssetLocked, got %v", err)
	}
	// Module custody path ignores the lock flag.
	if err := engine.ModuleTransfer(authority, owner, addr(2), id); err != nil {
		t.Fatalf("module transfer: %v", err)
	}
}

func TestTransferRejectsRestrictedParties(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)

	owner := addr(1)
	blocked := addr(2)
	id, err := engine.Mint(owner, owner, "a", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	engine.SetAccessList(stubAccessList{blocked: true})
	if err := engine.Transfer(owner, owner, blocked, id); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted for recipient, got %v", err)
	}
}

func TestTokenURI(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	engine.SetBaseURI("https://meta.example.com/")

	owner := addr(1)
	id, err := engine.Mint(owner, owner, "a", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	uri, ok := engine.TokenURI(id)
	if !ok {
		t.Fatal("token URI missing")
	}
	if uri != "https://meta.example.com/1.json" {
		t.Fatalf("uri = %q", uri)
	}
	if _, ok := engine.TokenURI(99); ok {
		t.Fatal("expected missing URI for unknown id")
	}
}

func TestModuleAddressDeterministic(t *testing.T) {
	a := ModuleAddress("auction")
	b := ModuleAddress("escrow")
	if a == b {
		t.Fatal("module vaults must differ")
	}
	if a != ModuleAddress("auction") {
		t.Fatal("module vault must be deterministic")
	}
}
