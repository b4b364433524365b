package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"assetchain/core/events"
	"assetchain/core/types"
	"assetchain/native/assets"
)

var (
	errNilState    = errors.New("escrow engine: state not configured")
	errNilRegistry = errors.New("escrow engine: asset registry not configured")

	// ErrNoSuchTrade is returned when no trade is open for the asset.
	ErrNoSuchTrade = errors.New("escrow: no open trade for asset")
	// ErrTradeExpired rejects payment, and the buyer's finalize of an
	// unpaid trade, once the settlement deadline has passed.
	ErrTradeExpired = errors.New("escrow: trade time expired")
	// ErrTradeNotPaid rejects finalize before the deadline while the buyer
	// has not funded the trade.
	ErrTradeNotPaid = errors.New("escrow: trade not paid yet")
	// ErrNotBuyer rejects payment from anyone but the trade's buyer.
	ErrNotBuyer = errors.New("escrow: caller is not the trade buyer")
	// ErrNotParty rejects finalize calls from outside the trade.
	ErrNotParty = errors.New("escrow: caller is not a trade party")
	// ErrWrongPayment is returned when the attached value does not match
	// the agreed trade price exactly, in either direction.
	ErrWrongPayment = errors.New("escrow: payment must equal trade price")
)

// DefaultSettleWindow is the payment window granted to the buyer once the
// seller accepts, in seconds.
const DefaultSettleWindow int64 = 3600

// ModuleAddress is the custodial vault: it owns the asset and holds the
// escrowed payment for the entire lifetime of a trade.
var ModuleAddress = assets.ModuleAddress("escrow")

type engineState interface {
	TradePut(*Trade) error
	TradeGet(assetID uint64) (*Trade, bool)
	TradeDelete(assetID uint64) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// Engine finalizes accepted sales: it guards the payment deadline, holds the
// buyer's funds, and settles or reverses custody exactly once per trade.
type Engine struct {
	state       engineState
	registry    *assets.Engine
	emitter     events.Emitter
	nowFn       func() int64
	feeTreasury [20]byte
	feeBps      uint32
	window      int64
}

// NewEngine creates an escrow engine with a no-op emitter, the default
// settlement window and a 3% commission.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		feeBps:  300,
		window:  DefaultSettleWindow,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the asset registry used for custody moves.
func (e *Engine) SetRegistry(registry *assets.Engine) { e.registry = registry }

// SetFeeTreasury configures the address that receives the commission.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetCommissionBps overrides the commission rate in basis points.
func (e *Engine) SetCommissionBps(bps uint32) { e.feeBps = bps }

// SetSettleWindow overrides the payment window in seconds.
func (e *Engine) SetSettleWindow(secs int64) {
	if secs <= 0 {
		e.window = DefaultSettleWindow
		return
	}
	e.window = secs
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
	e.emitter.Emit(escrowEvent{evt: evt})
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
		return fmt.Errorf("escrow: negative transfer amount")
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
		return fmt.Errorf("escrow: insufficient balance")
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

// HasTrade reports whether a trade is open for the asset.
func (e *Engine) HasTrade(assetID uint64) bool {
	if e == nil || e.state == nil {
		return false
	}
	_, ok := e.state.TradeGet(assetID)
	return ok
}

// TradeOf returns a copy of the open trade record.
func (e *Engine) TradeOf(assetID uint64) (*Trade, bool) {
	if e == nil || e.state == nil {
		return nil, false
	}
	trade, ok := e.state.TradeGet(assetID)
	if !ok {
		return nil, false
	}
	return trade.Clone(), true
}

// OpenTrade records the settlement terms for an accepted sale. The auction
// module calls it atomically with the custody transfer to the escrow vault;
// the record and the custody are created and destroyed together.
func (e *Engine) OpenTrade(assetID uint64, buyer, seller [20]byte, price *big.Int) (*Trade, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, ok := e.state.TradeGet(assetID); ok {
		return nil, fmt.Errorf("escrow: trade already open for asset %d", assetID)
	}
	now := e.now()
	trade := &Trade{
		AssetID:    assetID,
		Buyer:      buyer,
		Seller:     seller,
		Price:      cloneBigInt(price),
		AcceptedAt: now,
		Deadline:   now + e.window,
	}
	sanitized, err := SanitizeTrade(trade)
	if err != nil {
		return nil, err
	}
	if err := e.state.TradePut(sanitized); err != nil {
		return nil, err
	}
	e.emit(NewTradeOpenedEvent(sanitized))
	return sanitized.Clone(), nil
}

// Pay moves the agreed price from the buyer into the escrow vault. The funds
// are held against the trade, not forwarded: settlement is a distinct phase
// so either party can trigger it. Paying twice is a no-op.
func (e *Engine) Pay(caller [20]byte, assetID uint64, value *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	trade, ok := e.state.TradeGet(assetID)
	if !ok {
		return ErrNoSuchTrade
	}
	if caller != trade.Buyer {
		return ErrNotBuyer
	}
	if e.now() > trade.Deadline {
		return ErrTradeExpired
	}
	if trade.Paid {
		return nil
	}
	if cloneBigInt(value).Cmp(trade.Price) != 0 {
		return ErrWrongPayment
	}
	if err := e.transferValue(trade.Buyer, ModuleAddress, trade.Price); err != nil {
		return err
	}
	trade.Paid = true
	if err := e.state.TradePut(trade); err != nil {
		return err
	}
	e.emit(NewTradePaidEvent(trade))
	return nil
}

// CheckTrade finalizes the trade. Before the deadline a paid trade settles:
// custody moves to the buyer and the seller is credited the price minus the
// commission. After the deadline the trade reverses: the asset returns to
// the seller and any held payment is refunded to the buyer in full. An
// unpaid, expired trade can only be reversed by the seller; the buyer's call
// fails with ErrTradeExpired. The record is deleted on the first successful
// finalize, so a second call observes ErrNoSuchTrade.
func (e *Engine) CheckTrade(caller [20]byte, assetID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.registry == nil {
		return errNilRegistry
	}
	trade, ok := e.state.TradeGet(assetID)
	if !ok {
		return ErrNoSuchTrade
	}
	if caller != trade.Buyer && caller != trade.Seller {
		return ErrNotParty
	}
	if e.now() <= trade.Deadline {
		if !trade.Paid {
			return ErrTradeNotPaid
		}
		return e.settle(trade)
	}
	if !trade.Paid && caller == trade.Buyer {
		return ErrTradeExpired
	}
	return e.reverse(trade)
}

func (e *Engine) settle(trade *Trade) error {
	if err := e.registry.ModuleTransfer(ModuleAddress, ModuleAddress, trade.Buyer, trade.AssetID); err != nil {
		return err
	}
	fee := e.commission(trade.Price)
	payout := new(big.Int).Sub(cloneBigInt(trade.Price), fee)
	if err := e.transferValue(ModuleAddress, trade.Seller, payout); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := e.transferValue(ModuleAddress, e.feeTreasury, fee); err != nil {
			return err
		}
	}
	if err := e.state.TradeDelete(trade.AssetID); err != nil {
		return err
	}
	e.emit(NewTradeSettledEvent(trade))
	return nil
}

func (e *Engine) reverse(trade *Trade) error {
	if err := e.registry.ModuleTransfer(ModuleAddress, ModuleAddress, trade.Seller, trade.AssetID); err != nil {
		return err
	}
	if trade.Paid {
		if err := e.transferValue(ModuleAddress, trade.Buyer, trade.Price); err != nil {
			return err
		}
	}
	if err := e.state.TradeDelete(trade.AssetID); err != nil {
		return err
	}
	e.emit(NewTradeReversedEvent(trade))
	return nil
}
