package assets

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"assetchain/core/events"
	"assetchain/core/types"
	nativecommon "assetchain/native/common"
)

var (
	errNilState = errors.New("assets engine: state not configured")

	// ErrAssetNotFound is returned when the asset id has never been minted.
	ErrAssetNotFound = errors.New("assets: asset not found")
	// ErrAssetLocked blocks holder-initiated transfers while the asset sits
	// in an active listing.
	ErrAssetLocked = errors.New("assets: asset is locked for auction")
	// ErrNotAuthorized rejects transfers by callers that are neither the
	// owner nor the approved spender.
	ErrNotAuthorized = errors.New("assets: caller not authorized for transfer")
	// ErrAlreadyClaimed enforces the one-mint-per-account rule.
	ErrAlreadyClaimed = errors.New("assets: account already claimed a token")
	// ErrInvalidProof is returned when a whitelist merkle proof does not
	// resolve to the configured root.
	ErrInvalidProof = errors.New("assets: incorrect whitelist proof")
	// ErrInsufficientPayment is returned when the attached value does not
	// cover the mint price.
	ErrInsufficientPayment = errors.New("assets: attached value below mint price")
	// ErrInsufficientBalance is returned when the payer cannot cover the
	// attached value.
	ErrInsufficientBalance = errors.New("assets: insufficient balance")
)

type engineState interface {
	AssetPut(*Asset) error
	AssetGet(id uint64) (*Asset, bool)
	AssetNextID() (uint64, error)
	AssetClaimed(addr [20]byte) bool
	AssetMarkClaimed(addr [20]byte) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine owns asset identity, ownership, approvals and the per-asset lock
// flag. Lock changes and custody moves are reserved for registered module
// authorities (the auction and escrow modules).
type Engine struct {
	state           engineState
	access          nativecommon.AccessList
	emitter         events.Emitter
	nowFn           func() int64
	feeTreasury     [20]byte
	baseURI         string
	basePrice       *big.Int
	additionalPrice *big.Int
	merkleRoot      [32]byte
	authorities     map[[20]byte]bool
}

// NewEngine creates an assets engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:         events.NoopEmitter{},
		nowFn:           func() int64 { return time.Now().Unix() },
		basePrice:       big.NewInt(0),
		additionalPrice: big.NewInt(0),
		authorities:     make(map[[20]byte]bool),
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAccessList configures the blacklist consulted at mint and transfer.
func (e *Engine) SetAccessList(list nativecommon.AccessList) { e.access = list }

// SetFeeTreasury configures the address credited with mint payments.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetBaseURI configures the prefix used to format token URIs.
func (e *Engine) SetBaseURI(uri string) { e.baseURI = uri }

// SetMintPrices configures the whitelist price and the public surcharge.
// Whitelisted accounts pay base; everyone else pays base+additional.
func (e *Engine) SetMintPrices(base, additional *big.Int) {
	e.basePrice = cloneBigInt(base)
	e.additionalPrice = cloneBigInt(additional)
}

// SetMerkleRoot configures the whitelist proof root.
func (e *Engine) SetMerkleRoot(root [32]byte) { e.merkleRoot = root }

// AddAuthority registers a module address allowed to lock assets and move
// custody without holder approval.
func (e *Engine) AddAuthority(addr [20]byte) {
	if e.authorities == nil {
		e.authorities = make(map[[20]byte]bool)
	}
	e.authorities[addr] = true
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(assetEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) isAuthority(addr [20]byte) bool {
	return e.authorities != nil && e.authorities[addr]
}

func (e *Engine) transferValue(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("assets: negative transfer amount")
	}
	fromAcc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	fromAcc = fromAcc.EnsureDefaults()
	toAcc = toAcc.EnsureDefaults()
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

// Mint creates a new asset for the recipient at the public price. Every
// account may claim at most one token.
func (e *Engine) Mint(caller, to [20]byte, content string, value *big.Int) (uint64, error) {
	price := new(big.Int).Add(cloneBigInt(e.basePrice), cloneBigInt(e.additionalPrice))
	return e.mint(caller, to, content, value, price)
}

// WhitelistMint creates a new asset at the discounted base price for a
// recipient whose address proves membership in the whitelist merkle tree.
func (e *Engine) WhitelistMint(caller, to [20]byte, proof [][32]byte, content string, value *big.Int) (uint64, error) {
	if !VerifyWhitelistProof(e.merkleRoot, proof, to) {
		return 0, ErrInvalidProof
	}
	return e.mint(caller, to, content, value, cloneBigInt(e.basePrice))
}

func (e *Engine) mint(caller, to [20]byte, content string, value, price *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := nativecommon.Guard(e.access, caller); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.access, to); err != nil {
		return 0, err
	}
	if e.state.AssetClaimed(to) {
		return 0, ErrAlreadyClaimed
	}
	attached := cloneBigInt(value)
	if attached.Cmp(price) < 0 {
		return 0, ErrInsufficientPayment
	}
	if err := e.transferValue(caller, e.feeTreasury, attached); err != nil {
		return 0, err
	}
	id, err := e.state.AssetNextID()
	if err != nil {
		return 0, err
	}
	asset := &Asset{
		ID:       id,
		Owner:    to,
		Content:  content,
		MintedAt: e.now(),
	}
	if err := e.state.AssetPut(asset); err != nil {
		return 0, err
	}
	if err := e.state.AssetMarkClaimed(to); err != nil {
		return 0, err
	}
	e.emit(NewMintedEvent(asset))
	return id, nil
}

// Transfer moves the asset between holders. The caller must be the owner or
// the approved spender, neither party may be restricted, and the asset must
// not be locked in a listing. Approval is cleared on success.
func (e *Engine) Transfer(caller, from, to [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != from {
		return ErrNotAuthorized
	}
	if caller != asset.Owner && caller != asset.Approved {
		return ErrNotAuthorized
	}
	if err := nativecommon.Guard(e.access, from); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.access, to); err != nil {
		return err
	}
	if asset.Locked {
		return ErrAssetLocked
	}
	return e.moveCustody(asset, to)
}

// ModuleTransfer is the custody path reserved for the auction and escrow
// module authorities. It bypasses holder approval and the lock flag so the
// modules can take and release custody atomically with their own records.
func (e *Engine) ModuleTransfer(authority, from, to [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !e.isAuthority(authority) {
		return ErrNotAuthorized
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != from {
		return ErrNotAuthorized
	}
	return e.moveCustody(asset, to)
}

func (e *Engine) moveCustody(asset *Asset, to [20]byte) error {
	from := asset.Owner
	asset.Owner = to
	asset.Approved = [20]byte{}
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(asset, from))
	return nil
}

// Approve grants the spender the right to move the asset on the owner's
// behalf. A zero spender clears the approval.
func (e *Engine) Approve(caller, spender [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrAssetNotFound
	}
	if caller != asset.Owner {
		return ErrNotAuthorized
	}
	asset.Approved = spender
	return e.state.AssetPut(asset)
}

// SetLocked flips the per-asset lock flag. Authority-only.
func (e *Engine) SetLocked(authority [20]byte, id uint64, locked bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if !e.isAuthority(authority) {
		return ErrNotAuthorized
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Locked == locked {
		return nil
	}
	asset.Locked = locked
	return e.state.AssetPut(asset)
}

// OwnerOf returns the current holder of the asset.
func (e *Engine) OwnerOf(id uint64) ([20]byte, bool) {
	if e == nil || e.state == nil {
		return [20]byte{}, false
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return [20]byte{}, false
	}
	return asset.Owner, true
}

// IsLocked reports the per-asset lock flag.
func (e *Engine) IsLocked(id uint64) bool {
	if e == nil || e.state == nil {
		return false
	}
	asset, ok := e.state.AssetGet(id)
	return ok && asset.Locked
}

// IsApprovedForTransfer reports whether the spender may move the asset on the
// owner's behalf.
func (e *Engine) IsApprovedForTransfer(id uint64, spender [20]byte) bool {
	if e == nil || e.state == nil {
		return false
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return false
	}
	return asset.Approved == spender && spender != ([20]byte{})
}

// Get returns a copy of the asset record.
func (e *Engine) Get(id uint64) (*Asset, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return nil, false
	}
	return asset.Clone(), true
}

// TokenURI formats the canonical metadata location for the asset.
func (e *Engine) TokenURI(id uint64) (string, bool) {
	if e == nil || e.state == nil {
		return "", false
	}
	if _, ok := e.state.AssetGet(id); !ok {
		return "", false
	}
	return fmt.Sprintf("%s%d.json", e.baseURI, id), true
}

// ContentOf returns the creator payload stored with the asset.
func (e *Engine) ContentOf(id uint64) (string, bool) {
	if e == nil || e.state == nil {
		return "", false
	}
	asset, ok := e.state.AssetGet(id)
	if !ok {
		return "", false
	}
	return asset.Content, true
}

// ModuleAddress derives the deterministic vault address for a native module.
func ModuleAddress(module string) [20]byte {
	var addr [20]byte
	hash := ethcrypto.Keccak256([]byte("module/" + module + "/vault"))
	copy(addr[:], hash[12:])
	return addr
}
