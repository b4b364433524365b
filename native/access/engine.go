package access

import (
	"errors"
	"time"

	"assetchain/core/events"
	"assetchain/core/types"
)

var (
	errNilState = errors.New("access engine: state not configured")

	// ErrNotAdmin rejects blacklist mutations from anyone but the
	// configured administrator.
	ErrNotAdmin = errors.New("access: caller is not the administrator")
)

type engineState interface {
	AccessSetRestricted(addr [20]byte, restricted bool) error
	AccessIsRestricted(addr [20]byte) bool
}

// Engine owns the access-control blacklist. It is the authority consulted by
// every trading checkpoint via the common.AccessList interface.
type Engine struct {
	state   engineState
	admin   [20]byte
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates an access engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAdmin configures the sole address allowed to mutate the blacklist.
func (e *Engine) SetAdmin(addr [20]byte) { e.admin = addr }

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
	e.emitter.Emit(accessEvent{evt: evt})
}

// Restrict flags the address so every trading checkpoint rejects it.
func (e *Engine) Restrict(caller, addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.admin {
		return ErrNotAdmin
	}
	if e.state.AccessIsRestricted(addr) {
		return nil
	}
	if err := e.state.AccessSetRestricted(addr, true); err != nil {
		return err
	}
	e.emit(NewRestrictedEvent(addr))
	return nil
}

// Unrestrict clears the flag for the address.
func (e *Engine) Unrestrict(caller, addr [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if caller != e.admin {
		return ErrNotAdmin
	}
	if !e.state.AccessIsRestricted(addr) {
		return nil
	}
	if err := e.state.AccessSetRestricted(addr, false); err != nil {
		return err
	}
	e.emit(NewUnrestrictedEvent(addr))
	return nil
}

// IsRestricted reports whether the address is flagged. It satisfies
// common.AccessList so the engine can be handed directly to the other
// modules as their checkpoint view.
func (e *Engine) IsRestricted(addr [20]byte) bool {
	if e == nil || e.state == nil {
		return false
	}
	return e.state.AccessIsRestricted(addr)
}
