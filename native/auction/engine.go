package auction

import (
	"errors"
	"math/big"
	"sort"
	"time"

	"assetchain/core/events"
	"assetchain/core/types"
	"assetchain/native/assets"
	"assetchain/native/common"
	"assetchain/native/escrow"
)

var (
	errNilState    = errors.New("auction engine: state not configured")
	errNilRegistry = errors.New("auction engine: asset registry not configured")
	errNilEscrow   = errors.New("auction engine: escrow engine not configured")
)

// MinBidStepBps is the minimum increment over the top bid, in basis points.
const MinBidStepBps = 300

// ModuleAddress is the auction module identity used for lock authority and as
// the approval target sellers must grant before listing can hand off custody.
var ModuleAddress = assets.ModuleAddress("auction")

type engineState interface {
	ListingPut(*Listing) error
	ListingGet(assetID uint64) (*Listing, bool)
	ListingDelete(assetID uint64) error
	ListingIDs() ([]uint64, error)
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine runs the listing state machine: list, bid, cancel, and the two exit
// paths of accepting the top bid into escrow or selling instantly at the ask
// price.
type Engine struct {
	state       engineState
	registry    *assets.Engine
	settlement  *escrow.Engine
	access      common.AccessList
	emitter     events.Emitter
	nowFn       func() int64
	feeTreasury [20]byte
	feeBps      uint32
}

// NewEngine creates an auction engine with a no-op emitter and a 3%
// commission on instant purchases.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		feeBps:  300,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the asset registry used for locks and custody moves.
func (e *Engine) SetRegistry(registry *assets.Engine) { e.registry = registry }

// SetSettlement configures the escrow engine that accepted sales hand off to.
func (e *Engine) SetSettlement(settlement *escrow.Engine) { e.settlement = settlement }

// SetAccessList configures the blacklist consulted on every mutating call.
func (e *Engine) SetAccessList(list common.AccessList) { e.access = list }

// SetFeeTreasury configures the address credited with commissions.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetCommissionBps overrides the instant purchase commission rate.
func (e *Engine) SetCommissionBps(bps uint32) { e.feeBps = bps }

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
	e.emitter.Emit(auctionEvent{evt: evt})
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

func (e *Engine) transferValue(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return errors.New("auction: negative transfer amount")
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
		return errors.New("auction: insufficient balance")
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to, toAcc)
}

func (e *Engine) commission(amount *big.Int) *big.Int {
	fee := new(big.Int).Mul(cloneBigInt(amount), new(big.Int).SetUint64(uint64(e.feeBps)))
	return fee.Div(fee, big.NewInt(10_000))
}

// minNextBid returns the smallest amount that clears the 3% step over the top
// bid. Rounds up so a bid is never accepted short of the full increment.
func minNextBid(top *big.Int) *big.Int {
	step := new(big.Int).Mul(cloneBigInt(top), big.NewInt(MinBidStepBps))
	step.Add(step, big.NewInt(9_999))
	step.Div(step, big.NewInt(10_000))
	return step.Add(step, cloneBigInt(top))
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	return nil
}

// List opens a listing for an asset the caller owns. The asset is locked in
// the registry for the lifetime of the listing and the top bid is seeded with
// the ask price and the seller as a sentinel bidder.
func (e *Engine) List(caller [20]byte, assetID uint64, askPrice *big.Int) (*Listing, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.access, caller); err != nil {
		return nil, err
	}
	if _, ok := e.state.ListingGet(assetID); ok {
		return nil, ErrAlreadyListed
	}
	owner, ok := e.registry.OwnerOf(assetID)
	if !ok {
		return nil, assets.ErrAssetNotFound
	}
	if owner != caller {
		return nil, ErrNotOwner
	}
	if e.registry.IsLocked(assetID) {
		return nil, ErrAlreadyListed
	}
	now := e.now()
	listing := &Listing{
		AssetID:   assetID,
		Seller:    caller,
		AskPrice:  cloneBigInt(askPrice),
		CreatedAt: now,
		Bid: Bid{
			Time:   now,
			Amount: cloneBigInt(askPrice),
			Bidder: caller,
		},
	}
	sanitized, err := SanitizeListing(listing)
	if err != nil {
		return nil, err
	}
	if err := e.registry.SetLocked(ModuleAddress, assetID, true); err != nil {
		return nil, err
	}
	if err := e.state.ListingPut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewListedEvent(sanitized))
	return sanitized.Clone(), nil
}

// Cancel removes the caller's listing and unlocks the asset. Recorded bids are
// discarded; bidders never escrowed funds so nothing is refunded.
func (e *Engine) Cancel(caller [20]byte, assetID uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	listing, ok := e.state.ListingGet(assetID)
	if !ok {
		return ErrNotListed
	}
	if listing.Seller != caller {
		return ErrNotOwner
	}
	if err := e.registry.SetLocked(ModuleAddress, assetID, false); err != nil {
		return err
	}
	if err := e.state.ListingDelete(assetID); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(listing))
	return nil
}

// PlaceBid records a new top bid. Bids are declarations of intent only; no
// funds move until the seller accepts. The amount must exceed the current top
// bid by at least 3%, rounded up.
func (e *Engine) PlaceBid(caller [20]byte, assetID uint64, amount *big.Int) (*Listing, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := common.Guard(e.access, caller); err != nil {
		return nil, err
	}
	listing, ok := e.state.ListingGet(assetID)
	if !ok {
		return nil, ErrNotListed
	}
	if caller == listing.Seller {
		return nil, ErrSelfTrade
	}
	bid := cloneBigInt(amount)
	if bid.Cmp(minNextBid(listing.Bid.Amount)) < 0 {
		return nil, ErrBidTooLow
	}
	listing.Bid = Bid{
		Time:   e.now(),
		Amount: bid,
		Bidder: caller,
	}
	if err := e.state.ListingPut(listing); err != nil {
		return nil, err
	}
	e.emit(NewBidPlacedEvent(listing))
	return listing.Clone(), nil
}

// AcceptOffer closes the listing at the top bid and opens an escrow trade.
// The seller must have approved the auction module to move the asset; custody
// transfers to the escrow vault and the bidder gains a payment window. The
// seed bid cannot be accepted.
func (e *Engine) AcceptOffer(caller [20]byte, assetID uint64) (*escrow.Trade, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if e.settlement == nil {
		return nil, errNilEscrow
	}
	if err := common.Guard(e.access, caller); err != nil {
		return nil, err
	}
	listing, ok := e.state.ListingGet(assetID)
	if !ok {
		return nil, ErrNotListed
	}
	if listing.Seller != caller {
		return nil, ErrNotOwner
	}
	if listing.Bid.Bidder == listing.Seller {
		return nil, ErrSelfTrade
	}
	if err := common.Guard(e.access, listing.Bid.Bidder); err != nil {
		return nil, err
	}
	if !e.registry.IsApprovedForTransfer(assetID, ModuleAddress) {
		return nil, ErrNotApproved
	}
	if err := e.registry.SetLocked(ModuleAddress, assetID, false); err != nil {
		return nil, err
	}
	if err := e.registry.ModuleTransfer(ModuleAddress, listing.Seller, escrow.ModuleAddress, assetID); err != nil {
		return nil, err
	}
	trade, err := e.settlement.OpenTrade(assetID, listing.Bid.Bidder, listing.Seller, listing.Bid.Amount)
	if err != nil {
		return nil, err
	}
	if err := e.state.ListingDelete(assetID); err != nil {
		return nil, err
	}
	e.emit(NewOfferAcceptedEvent(listing))
	return trade, nil
}

// BuyAsset purchases the listed asset instantly at the ask price, skipping
// escrow entirely. The attached value must cover the ask; the seller is
// credited the ask minus the commission, and the commission plus any
// overpayment goes to the treasury.
func (e *Engine) BuyAsset(caller [20]byte, assetID uint64, value *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := common.Guard(e.access, caller); err != nil {
		return err
	}
	listing, ok := e.state.ListingGet(assetID)
	if !ok {
		return ErrNotListed
	}
	if caller == listing.Seller {
		return ErrSelfTrade
	}
	if err := common.Guard(e.access, listing.Seller); err != nil {
		return err
	}
	attached := cloneBigInt(value)
	if attached.Cmp(listing.AskPrice) < 0 {
		return ErrInsufficientPayment
	}
	fee := e.commission(listing.AskPrice)
	payout := new(big.Int).Sub(cloneBigInt(listing.AskPrice), fee)
	// The buyer is debited the full attached value in a single transfer, so a
	// short balance fails here before any funds move. The seller is then paid
	// out of the treasury, which keeps the commission and any excess.
	if err := e.transferValue(caller, e.feeTreasury, attached); err != nil {
		return err
	}
	if err := e.transferValue(e.feeTreasury, listing.Seller, payout); err != nil {
		return err
	}
	if err := e.registry.SetLocked(ModuleAddress, assetID, false); err != nil {
		return err
	}
	if err := e.registry.ModuleTransfer(ModuleAddress, listing.Seller, caller, assetID); err != nil {
		return err
	}
	if err := e.state.ListingDelete(assetID); err != nil {
		return err
	}
	e.emit(NewPurchasedEvent(listing, caller, attached))
	return nil
}

// GetListing returns a copy of the active listing for the asset.
func (e *Engine) GetListing(assetID uint64) (*Listing, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	listing, ok := e.state.ListingGet(assetID)
	if !ok {
		return nil, false
	}
	return listing.Clone(), true
}

// ListedAssetIDs returns the ids of all active listings in ascending order.
func (e *Engine) ListedAssetIDs() ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	ids, err := e.state.ListingIDs()
	if err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListedCount returns the number of active listings.
func (e *Engine) ListedCount() (int, error) {
	ids, err := e.ListedAssetIDs()
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// TopBid returns the current winning bid for the asset's listing.
func (e *Engine) TopBid(assetID uint64) (Bid, bool) {
	listing, ok := e.GetListing(assetID)
	if !ok {
		return Bid{}, false
	}
	return listing.Bid, true
}

// SellerOf returns the seller behind the asset's listing.
func (e *Engine) SellerOf(assetID uint64) ([20]byte, bool) {
	listing, ok := e.GetListing(assetID)
	if !ok {
		return [20]byte{}, false
	}
	return listing.Seller, true
}
