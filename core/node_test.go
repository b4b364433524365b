package core

import (
	"errors"
	"math/big"
	"testing"

	"assetchain/native/auction"
	nativecommon "assetchain/native/common"
	"assetchain/storage"
)

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func testConfig() NodeConfig {
	return NodeConfig{
		Admin:       addr(0xad),
		FeeTreasury: addr(0xfe),
		BaseURI:     "https://meta.example.com/",
		Genesis: []GenesisAccount{
			{Address: addr(2), Balance: big.NewInt(1_000)},
		},
	}
}

func TestNodeAuctionLifecycle(t *testing.T) {
	node, err := NewNode(storage.NewMemDB(), testConfig())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	seller, buyer := addr(1), addr(2)

	id, err := node.AssetsMint(seller, seller, "ipfs://content", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := node.AuctionList(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := node.AuctionBid(buyer, id, big.NewInt(110)); err != nil {
		t.Fatalf("bid: %v", err)
	}
	if err := node.AssetsApprove(seller, auction.ModuleAddress, id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	trade, err := node.AuctionAccept(seller, id)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if trade.Buyer != buyer {
		t.Fatalf("trade buyer = %x, want buyer", trade.Buyer)
	}
	if err := node.EscrowPay(buyer, id, big.NewInt(110)); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := node.EscrowCheck(seller, id); err != nil {
		t.Fatalf("check: %v", err)
	}

	asset, ok := node.AssetGet(id)
	if !ok || asset.Owner != buyer {
		t.Fatalf("asset should belong to buyer, got %+v", asset)
	}
	sellerAcc, err := node.GetAccount(seller)
	if err != nil {
		t.Fatalf("seller account: %v", err)
	}
	if sellerAcc.Balance.Cmp(big.NewInt(107)) != 0 {
		t.Fatalf("seller balance = %s, want 107", sellerAcc.Balance)
	}
	treasuryAcc, err := node.GetAccount(addr(0xfe))
	if err != nil {
		t.Fatalf("treasury account: %v", err)
	}
	if treasuryAcc.Balance.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("treasury balance = %s, want 3", treasuryAcc.Balance)
	}
	if len(node.Events()) == 0 {
		t.Fatal("lifecycle should have emitted events")
	}
}

func TestNodeAccessControl(t *testing.T) {
	node, err := NewNode(storage.NewMemDB(), testConfig())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	blocked := addr(7)

	if err := node.AccessRestrict(addr(9), blocked); err == nil {
		t.Fatal("non-admin restrict should fail")
	}
	if err := node.AccessRestrict(addr(0xad), blocked); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if !node.AccessIsRestricted(blocked) {
		t.Fatal("address should be restricted")
	}
	if _, err := node.AssetsMint(blocked, blocked, "x", nil); !errors.Is(err, nativecommon.ErrRestricted) {
		t.Fatalf("expected ErrRestricted, got %v", err)
	}
	if err := node.AccessUnrestrict(addr(0xad), blocked); err != nil {
		t.Fatalf("unrestrict: %v", err)
	}
	if _, err := node.AssetsMint(blocked, blocked, "x", nil); err != nil {
		t.Fatalf("mint after unrestrict: %v", err)
	}
}

func TestGenesisAppliedOnce(t *testing.T) {
	db := storage.NewMemDB()
	node, err := NewNode(db, testConfig())
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	funded := addr(2)

	account, err := node.GetAccount(funded)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("genesis balance = %s, want 1000", account.Balance)
	}

	// Spend some funds, then reboot over the same database: the genesis
	// allocation must not be re-applied.
	seller := addr(1)
	id, err := node.AssetsMint(seller, seller, "x", nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := node.AuctionList(seller, id, big.NewInt(100)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := node.AuctionBuy(funded, id, big.NewInt(100)); err != nil {
		t.Fatalf("buy: %v", err)
	}

	reboot, err := NewNode(db, testConfig())
	if err != nil {
		t.Fatalf("reboot: %v", err)
	}
	account, err = reboot.GetAccount(funded)
	if err != nil {
		t.Fatalf("account after reboot: %v", err)
	}
	if account.Balance.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("balance after reboot = %s, want 900", account.Balance)
	}
	asset, ok := reboot.AssetGet(id)
	if !ok || asset.Owner != funded {
		t.Fatalf("asset should persist across reboot, got %+v", asset)
	}
}
