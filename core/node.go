package core

import (
	"fmt"
	"math/big"
	"sync"

	"assetchain/core/events"
	"assetchain/core/state"
	"assetchain/core/types"
	"assetchain/native/access"
	"assetchain/native/assets"
	"assetchain/native/auction"
	"assetchain/native/escrow"
	"assetchain/storage"
)

// eventBufferSize caps the in-memory event ring exposed over RPC.
const eventBufferSize = 256

// GenesisAccount seeds a ledger balance at first boot.
type GenesisAccount struct {
	Address [20]byte
	Balance *big.Int
}

// NodeConfig carries the ledger parameters resolved from configuration.
type NodeConfig struct {
	Admin               [20]byte
	FeeTreasury         [20]byte
	BaseURI             string
	MintBasePrice       *big.Int
	MintAdditionalPrice *big.Int
	WhitelistRoot       [32]byte
	TradeWindowSeconds  int64
	CommissionBps       uint32
	Genesis             []GenesisAccount
}

// Node owns the state database and serializes every mutating operation under a
// single mutex, which gives the ledger its total order. Engines are cheap and
// constructed per call against the shared state manager.
type Node struct {
	db    storage.Database
	state *state.Manager
	cfg   NodeConfig

	stateMu  sync.Mutex
	eventsMu sync.Mutex
	events   []types.Event
}

// NewNode initializes the ledger over the provided database, applying genesis
// balances exactly once.
func NewNode(db storage.Database, cfg NodeConfig) (*Node, error) {
	if cfg.CommissionBps == 0 {
		cfg.CommissionBps = 300
	}
	if cfg.TradeWindowSeconds <= 0 {
		cfg.TradeWindowSeconds = escrow.DefaultSettleWindow
	}
	n := &Node{
		db:    db,
		state: state.NewManager(db),
		cfg:   cfg,
	}
	if err := n.applyGenesis(); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Node) applyGenesis() error {
	if n.state.Initialized() {
		return nil
	}
	for _, acc := range n.cfg.Genesis {
		account, err := n.state.GetAccount(acc.Address)
		if err != nil {
			return err
		}
		if acc.Balance != nil {
			account.Balance = new(big.Int).Set(acc.Balance)
		}
		if err := n.state.PutAccount(acc.Address, account); err != nil {
			return fmt.Errorf("core: genesis account %x: %w", acc.Address, err)
		}
	}
	return n.state.MarkInitialized()
}

// Emit satisfies events.Emitter. Events are kept in a bounded ring; old
// entries fall off the front.
func (n *Node) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	n.eventsMu.Lock()
	defer n.eventsMu.Unlock()
	n.events = append(n.events, *payload)
	if len(n.events) > eventBufferSize {
		n.events = n.events[len(n.events)-eventBufferSize:]
	}
}

// Events returns a copy of the buffered events, oldest first.
func (n *Node) Events() []types.Event {
	n.eventsMu.Lock()
	defer n.eventsMu.Unlock()
	out := make([]types.Event, len(n.events))
	copy(out, n.events)
	return out
}

func (n *Node) accessEngine() *access.Engine {
	engine := access.NewEngine()
	engine.SetState(n.state)
	engine.SetAdmin(n.cfg.Admin)
	engine.SetEmitter(n)
	return engine
}

func (n *Node) assetsEngine() *assets.Engine {
	engine := assets.NewEngine()
	engine.SetState(n.state)
	engine.SetAccessList(n.accessEngine())
	engine.SetEmitter(n)
	engine.SetFeeTreasury(n.cfg.FeeTreasury)
	engine.SetBaseURI(n.cfg.BaseURI)
	engine.SetMintPrices(n.cfg.MintBasePrice, n.cfg.MintAdditionalPrice)
	engine.SetMerkleRoot(n.cfg.WhitelistRoot)
	engine.AddAuthority(auction.ModuleAddress)
	engine.AddAuthority(escrow.ModuleAddress)
	return engine
}

func (n *Node) escrowEngine() *escrow.Engine {
	engine := escrow.NewEngine()
	engine.SetState(n.state)
	engine.SetRegistry(n.assetsEngine())
	engine.SetEmitter(n)
	engine.SetFeeTreasury(n.cfg.FeeTreasury)
	engine.SetCommissionBps(n.cfg.CommissionBps)
	engine.SetSettleWindow(n.cfg.TradeWindowSeconds)
	return engine
}

func (n *Node) auctionEngine() *auction.Engine {
	engine := auction.NewEngine()
	engine.SetState(n.state)
	engine.SetRegistry(n.assetsEngine())
	engine.SetSettlement(n.escrowEngine())
	engine.SetAccessList(n.accessEngine())
	engine.SetEmitter(n)
	engine.SetFeeTreasury(n.cfg.FeeTreasury)
	engine.SetCommissionBps(n.cfg.CommissionBps)
	return engine
}

// GetAccount returns a copy of the ledger account for the address.
func (n *Node) GetAccount(addr [20]byte) (*types.Account, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	account, err := n.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return account.Clone(), nil
}

// AccessRestrict adds the address to the blacklist. Admin only.
func (n *Node) AccessRestrict(caller, addr [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.accessEngine().Restrict(caller, addr)
}

// AccessUnrestrict removes the address from the blacklist. Admin only.
func (n *Node) AccessUnrestrict(caller, addr [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.accessEngine().Unrestrict(caller, addr)
}

// AccessIsRestricted reports the blacklist flag for the address.
func (n *Node) AccessIsRestricted(addr [20]byte) bool {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.accessEngine().IsRestricted(addr)
}

// AssetsMint creates a token for the recipient at the public price.
func (n *Node) AssetsMint(caller, to [20]byte, content string, value *big.Int) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().Mint(caller, to, content, value)
}

// AssetsWhitelistMint creates a token at the discounted base price for a
// whitelist-proven recipient.
func (n *Node) AssetsWhitelistMint(caller, to [20]byte, proof [][32]byte, content string, value *big.Int) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().WhitelistMint(caller, to, proof, content, value)
}

// AssetsTransfer moves a token between holders.
func (n *Node) AssetsTransfer(caller, from, to [20]byte, id uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().Transfer(caller, from, to, id)
}

// AssetsApprove grants the spender transfer rights over the token.
func (n *Node) AssetsApprove(caller, spender [20]byte, id uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().Approve(caller, spender, id)
}

// AssetGet returns a copy of the token record.
func (n *Node) AssetGet(id uint64) (*assets.Asset, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().Get(id)
}

// AssetTokenURI formats the metadata location for the token.
func (n *Node) AssetTokenURI(id uint64) (string, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.assetsEngine().TokenURI(id)
}

// AuctionList opens a listing for the caller's asset.
func (n *Node) AuctionList(caller [20]byte, assetID uint64, askPrice *big.Int) (*auction.Listing, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().List(caller, assetID, askPrice)
}

// AuctionCancel withdraws the caller's listing.
func (n *Node) AuctionCancel(caller [20]byte, assetID uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().Cancel(caller, assetID)
}

// AuctionBid records a new top bid on the listing.
func (n *Node) AuctionBid(caller [20]byte, assetID uint64, amount *big.Int) (*auction.Listing, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().PlaceBid(caller, assetID, amount)
}

// AuctionAccept closes the listing at the top bid and opens the escrow trade.
func (n *Node) AuctionAccept(caller [20]byte, assetID uint64) (*escrow.Trade, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().AcceptOffer(caller, assetID)
}

// AuctionBuy purchases the listing instantly at the ask price.
func (n *Node) AuctionBuy(caller [20]byte, assetID uint64, value *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().BuyAsset(caller, assetID, value)
}

// AuctionListings returns the asset ids of all active listings.
func (n *Node) AuctionListings() ([]uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().ListedAssetIDs()
}

// AuctionListing returns a copy of the active listing for the asset.
func (n *Node) AuctionListing(assetID uint64) (*auction.Listing, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().GetListing(assetID)
}

// AuctionTopBid returns the current winning bid for the listing.
func (n *Node) AuctionTopBid(assetID uint64) (auction.Bid, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().TopBid(assetID)
}

// AuctionListedCount returns the number of active listings.
func (n *Node) AuctionListedCount() (int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.auctionEngine().ListedCount()
}

// EscrowPay moves the trade price from the buyer into the escrow vault.
func (n *Node) EscrowPay(caller [20]byte, assetID uint64, value *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.escrowEngine().Pay(caller, assetID, value)
}

// EscrowCheck finalizes the trade, settling or reversing it.
func (n *Node) EscrowCheck(caller [20]byte, assetID uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.escrowEngine().CheckTrade(caller, assetID)
}

// EscrowTrade returns a copy of the open trade for the asset.
func (n *Node) EscrowTrade(assetID uint64) (*escrow.Trade, bool) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.escrowEngine().TradeOf(assetID)
}
