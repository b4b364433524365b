package auction_test

import (
	"errors"
	"math/big"
	"testing"

	"assetchain/core/state"
	"assetchain/core/types"
	"assetchain/native/access"
	"assetchain/native/assets"
	"assetchain/native/auction"
	nativecommon "assetchain/native/common"
	"assetchain/native/escrow"
	"assetchain/storage"
)

type env struct {
	t          *testing.T
	mgr        *state.Manager
	registry   *assets.Engine
	settlement *escrow.Engine
	engine     *auction.Engine
	gate       *access.Engine
	now        int64
	admin      [20]byte
	treasury   [20]byte
}

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:        t,
		mgr:      state.NewManager(storage.NewMemDB()),
		now:      10_000,
		admin:    addr(0xad),
		treasury: addr(0xfe),
	}

	e.gate = access.NewEngine()
	e.gate.SetState(e.mgr)
	e.gate.SetAdmin(e.admin)

	e.registry = assets.NewEngine()
	e.registry.SetState(e.mgr)
	e.registry.SetAccessList(e.gate)
	e.registry.AddAuthority(auction.ModuleAddress)
	e.registry.AddAuthority(escrow.ModuleAddress)
	e.registry.SetNowFunc(func() int64 { return e.now })

	e.settlement = escrow.NewEngine()
	e.settlement.SetState(e.mgr)
	e.settlement.SetRegistry(e.registry)
	e.settlement.SetFeeTreasury(e.treasury)
	e.settlement.SetNowFunc(func() int64 { return e.now })

	e.engine = auction.NewEngine()
	e.engine.SetState(e.mgr)
	e.engine.SetRegistry(e.registry)
	e.engine.SetSettlement(e.settlement)
	e.engine.SetAccessList(e.gate)
	e.engine.SetFeeTreasury(e.treasury)
	e.engine.SetNowFunc(func() int64 { return e.now })
	return e
}

func (e *env) mint(owner [20]byte) uint64 {
	e.t.Helper()
	id, err := e.registry.Mint(owner, owner, "content", nil)
	if err != nil {
		e.t.Fatalf("mint: %v", err)
	}
	return id
}

func (e *env) fund(addr [20]byte, amount int64) {
	e.t.Helper()
	if err := e.mgr.PutAccount(addr, &types.Account{Balance: big.NewInt(amount)}); err != nil {
		e.t.Fatalf("fund: %v", err)
	}
}

func (e *env) balance(addr [20]byte) *big.Int {
	e.t.Helper()
	account, err := e.mgr.GetAccount(addr)
	if err != nil {
		e.t.Fatalf("get account: %v", err)
	}
	return account.Balance
}

func TestListLocksAsset(t *testing.T) {
	e := newEnv(t)
	seller := addr(1)
	id := e.mint(seller)

	if _, err := e.engine.List(addr(2), id, big.NewInt(100)); !errors.Is(err, auction.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	listing, err := e.engine.List(seller, id, big.NewInt(100))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if listing.Bid.Bidder != seller || listing.Bid.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("seed bid should carry the ask price and the seller, got %+v", listing.Bid)
	}
	if !e.registry.IsLocked(id) {
		t.Fatal("listed asset must be locked")
	}
	if err := e.registry.Transfer(seller, seller, addr(2), id); !errors.Is(err, assets.ErrAssetLocked) {
		t.Fatalf("expected ErrAssetLocked while listed, got %v", err)
	}
	if _, err := e.engine.List(seller, id, big.NewInt(200)); !errors.Is(err, auction.ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}
	count, err := e.engine.ListedCount()
	if err != nil || count != 1 {
		t.Fatalf("listed count = %d (%v), want 1", count, err)
	}
}

func TestBidMinimumStep(t *testing.T) {
	e := newEnv(t)
	seller, bidder := addr(1), addr(2)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}

	if _, err := e.engine.PlaceBid(seller, id, big.NewInt(200)); !errors.Is(err, auction.ErrSelfTrade) {
		t.Fatalf("expected ErrSelfTrade for seller bid, got %v", err)
	}
	// Minimum over the 100 seed is 103.
	if _, err := e.engine.PlaceBid(bidder, id, big.NewInt(102)); !errors.Is(err, auction.ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow at 102, got %v", err)
	}
	if _, err := e.engine.PlaceBid(bidder, id, big.NewInt(103)); err != nil {
		t.Fatalf("bid 103: %v", err)
	}
	// 3% of 103 is 3.09, which rounds up to 4: next minimum is 107.
	other := addr(3)
	if _, err := e.engine.PlaceBid(other, id, big.NewInt(106)); !errors.Is(err, auction.ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow at 106, got %v", err)
	}
	listing, err := e.engine.PlaceBid(other, id, big.NewInt(107))
	if err != nil {
		t.Fatalf("bid 107: %v", err)
	}
	if listing.Bid.Bidder != other || listing.Bid.Amount.Cmp(big.NewInt(107)) != 0 {
		t.Fatalf("top bid = %+v, want 107 by other", listing.Bid)
	}
	bid, ok := e.engine.TopBid(id)
	if !ok || bid.Amount.Cmp(big.NewInt(107)) != 0 {
		t.Fatalf("TopBid = %+v, want 107", bid)
	}
}

func TestCancelUnlocksAndAllowsRelist(t *testing.T) {
	e := newEnv(t)
	seller := addr(1)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := e.engine.Cancel(addr(2), id); !errors.Is(err, auction.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := e.engine.Cancel(seller, id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if e.registry.IsLocked(id) {
		t.Fatal("cancelled listing must unlock the asset")
	}
	if err := e.engine.Cancel(seller, id); !errors.Is(err, auction.ErrNotListed) {
		t.Fatalf("expected ErrNotListed, got %v", err)
	}
	if _, err := e.engine.List(seller, id, big.NewInt(50)); err != nil {
		t.Fatalf("relist after cancel: %v", err)
	}
}

func TestAcceptOfferOpensEscrow(t *testing.T) {
	e := newEnv(t)
	seller, bidder := addr(1), addr(2)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}

	// No genuine bid yet: accepting the seed would be a self trade.
	if _, err := e.engine.AcceptOffer(seller, id); !errors.Is(err, auction.ErrSelfTrade) {
		t.Fatalf("expected ErrSelfTrade, got %v", err)
	}
	if _, err := e.engine.PlaceBid(bidder, id, big.NewInt(110)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	// Custody hand-off needs a standing approval for the auction module.
	if _, err := e.engine.AcceptOffer(seller, id); !errors.Is(err, auction.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
	if err := e.registry.Approve(seller, auction.ModuleAddress, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	trade, err := e.engine.AcceptOffer(seller, id)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if trade.Buyer != bidder || trade.Price.Cmp(big.NewInt(110)) != 0 {
		t.Fatalf("trade = %+v, want bidder at 110", trade)
	}
	if owner, _ := e.registry.OwnerOf(id); owner != escrow.ModuleAddress {
		t.Fatalf("owner = %x, want escrow vault", owner)
	}
	if _, ok := e.engine.GetListing(id); ok {
		t.Fatal("listing should be deleted after acceptance")
	}

	// The full settlement still works end to end.
	e.fund(bidder, 500)
	if err := e.settlement.Pay(bidder, id, big.NewInt(110)); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := e.settlement.CheckTrade(bidder, id); err != nil {
		t.Fatalf("check: %v", err)
	}
	if owner, _ := e.registry.OwnerOf(id); owner != bidder {
		t.Fatalf("owner = %x, want bidder", owner)
	}
	if got := e.balance(seller); got.Cmp(big.NewInt(107)) != 0 {
		t.Fatalf("seller payout = %s, want 110 minus 3%% fee", got)
	}
}

func TestBuyAssetInstantPurchase(t *testing.T) {
	e := newEnv(t)
	seller, buyer := addr(1), addr(2)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	e.fund(buyer, 150)

	if err := e.engine.BuyAsset(seller, id, big.NewInt(100)); !errors.Is(err, auction.ErrSelfTrade) {
		t.Fatalf("expected ErrSelfTrade, got %v", err)
	}
	if err := e.engine.BuyAsset(buyer, id, big.NewInt(99)); !errors.Is(err, auction.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	// Overpayment is kept: 120 in, seller gets 97, treasury keeps 23.
	if err := e.engine.BuyAsset(buyer, id, big.NewInt(120)); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if owner, _ := e.registry.OwnerOf(id); owner != buyer {
		t.Fatalf("owner = %x, want buyer", owner)
	}
	if e.registry.IsLocked(id) {
		t.Fatal("purchased asset must be unlocked")
	}
	if got := e.balance(buyer); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("buyer balance = %s, want 30", got)
	}
	if got := e.balance(seller); got.Cmp(big.NewInt(97)) != 0 {
		t.Fatalf("seller balance = %s, want 97", got)
	}
	if got := e.balance(e.treasury); got.Cmp(big.NewInt(23)) != 0 {
		t.Fatalf("treasury balance = %s, want 23", got)
	}
	if _, ok := e.engine.GetListing(id); ok {
		t.Fatal("listing should be deleted after purchase")
	}
}

func TestBuyAssetShortBalanceHasNoEffect(t *testing.T) {
	e := newEnv(t)
	seller, buyer := addr(1), addr(2)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	// The buyer can cover the seller payout (97) but not the attached 120.
	e.fund(buyer, 100)

	if err := e.engine.BuyAsset(buyer, id, big.NewInt(120)); err == nil {
		t.Fatal("expected error for attached value above balance")
	}
	if got := e.balance(buyer); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("buyer balance = %s, want untouched 100", got)
	}
	if got := e.balance(seller); got.Sign() != 0 {
		t.Fatalf("seller balance = %s, want 0", got)
	}
	if got := e.balance(e.treasury); got.Sign() != 0 {
		t.Fatalf("treasury balance = %s, want 0", got)
	}
	if _, ok := e.engine.GetListing(id); !ok {
		t.Fatal("listing must survive a failed purchase")
	}
	if owner, _ := e.registry.OwnerOf(id); owner != seller {
		t.Fatalf("owner = %x, want seller", owner)
	}
	if !e.registry.IsLocked(id) {
		t.Fatal("asset must stay locked while listed")
	}

	// With the exact ask the same buyer succeeds.
	if err := e.engine.BuyAsset(buyer, id, big.NewInt(100)); err != nil {
		t.Fatalf("buy at ask: %v", err)
	}
	if got := e.balance(seller); got.Cmp(big.NewInt(97)) != 0 {
		t.Fatalf("seller payout = %s, want 97", got)
	}
}

func TestRestrictedAccountsBlocked(t *testing.T) {
	e := newEnv(t)
	seller, blocked := addr(1), addr(2)
	id := e.mint(seller)
	if _, err := e.engine.List(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := e.gate.Restrict(e.admin, blocked); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if _, err := e.engine.PlaceBid(blocked, id, big.NewInt(200)); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted bid, got %v", err)
	}
	if err := e.engine.BuyAsset(blocked, id, big.NewInt(100)); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted buy, got %v", err)
	}

	// A restricted seller cannot open new listings either.
	id2 := e.mint(addr(3))
	if err := e.gate.Restrict(e.admin, addr(3)); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if _, err := e.engine.List(addr(3), id2, big.NewInt(100)); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted list, got %v", err)
	}
}

func TestListedAssetIDsSorted(t *testing.T) {
	e := newEnv(t)
	owner := addr(1)
	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := e.registry.Mint(owner, addr(byte(10+i)), "content", nil)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		ids = append(ids, id)
	}
	// List in reverse order; reads come back ascending.
	for i := len(ids) - 1; i >= 0; i-- {
		if _, err := e.engine.List(addr(byte(10+i)), ids[i], big.NewInt(100)); err != nil {
			t.Fatalf("list %d: %v", ids[i], err)
		}
	}
	got, err := e.engine.ListedAssetIDs()
	if err != nil {
		t.Fatalf("listed ids: %v", err)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1] >= got[i] {
			t.Fatalf("ids not ascending: %v", got)
		}
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}
