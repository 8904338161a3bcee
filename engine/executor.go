// Package engine executes signed actions against the game ledger: one action
// at a time, each fully committed or fully rolled back, with a reentrancy
// guard rejecting nested entries for the whole duration of a call.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/plurality-game/plurality/chess"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/crypto"
	"github.com/plurality-game/plurality/events"
)

const (
	maxActionAge    = int64(time.Hour)       // reject actions older than 1 hour
	maxActionFuture = int64(5 * time.Minute) // reject actions more than 5 min in the future
)

// Options wires the executor's collaborators and identity.
type Options struct {
	Network string            // replay domain; must match every action
	Owner   string            // administrator pubkey hex
	Signer  crypto.PrivateKey // operator key for round records
	Rules   chess.RulesEngine
	Oracle  chess.MoveOracle
	Payer   Payer
	Rounds  core.RoundStore
	Clock   func() time.Time // nil → time.Now
}

// Executor applies actions to the state using the global Handler registry.
type Executor struct {
	state   core.State
	emitter *events.Emitter
	opts    Options
	guard   Guard
}

// NewExecutor creates an Executor with the given state, event emitter, and
// collaborator wiring.
func NewExecutor(state core.State, emitter *events.Emitter, opts Options) *Executor {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Executor{state: state, emitter: emitter, opts: opts}
}

// Rebind swaps the collaborator bindings. Owner-gated by the caller; fails
// with ErrReentrantCall while an action is executing.
func (e *Executor) Rebind(rules chess.RulesEngine, oracle chess.MoveOracle) error {
	if !e.guard.TryAcquire() {
		return core.ErrReentrantCall
	}
	defer e.guard.Release()
	if rules != nil {
		e.opts.Rules = rules
	}
	if oracle != nil {
		e.opts.Oracle = oracle
	}
	return nil
}

// Execute verifies and executes a single action as one atomic unit: guard
// held throughout, every state change committed on success or reverted on
// any failure. Nested calls arriving while the guard is held are rejected
// with ErrReentrantCall and must be retried by the caller.
func (e *Executor) Execute(ctx context.Context, act *core.Action) error {
	if err := act.Verify(); err != nil {
		return fmt.Errorf("signature: %w", err)
	}
	if act.Network != e.opts.Network {
		return fmt.Errorf("wrong network: expected %q got %q", e.opts.Network, act.Network)
	}

	if !e.guard.TryAcquire() {
		return core.ErrReentrantCall
	}
	defer e.guard.Release()

	now := e.opts.Clock()
	if now.UnixNano()-act.Timestamp > maxActionAge {
		return fmt.Errorf("action expired")
	}
	if act.Timestamp-now.UnixNano() > maxActionFuture {
		return fmt.Errorf("action timestamp too far in the future")
	}

	snapID, err := e.state.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	hctx := &Context{
		Ctx:     ctx,
		State:   e.state,
		Action:  act,
		Emitter: e.emitter,
		Rules:   e.opts.Rules,
		Oracle:  e.opts.Oracle,
		Payer:   e.opts.Payer,
		Rounds:  e.opts.Rounds,
		Owner:   e.opts.Owner,
		Signer:  e.opts.Signer,
		Now:     now,
	}

	if err := e.applyAction(hctx); err != nil {
		if revertErr := e.state.RevertToSnapshot(snapID); revertErr != nil {
			return fmt.Errorf("revert snapshot after action failure: %w (revert: %v)", err, revertErr)
		}
		return err
	}

	if err := e.state.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// Events become visible only after the commit: a rolled-back action
	// must not leak its intermediate move or stake events to subscribers.
	hctx.flush()

	if e.emitter != nil {
		e.emitter.Emit(events.Event{
			Type:     events.EventActionExecuted,
			ActionID: act.ID,
			Data:     map[string]any{"type": string(act.Type), "from": act.From},
		})
	}
	return nil
}

// applyAction increments the nonce, then dispatches to the handler.
func (e *Executor) applyAction(hctx *Context) error {
	act := hctx.Action
	acc, err := e.state.GetAccount(act.From)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}
	if acc.Nonce != act.Nonce {
		return fmt.Errorf("invalid nonce: expected %d got %d", acc.Nonce, act.Nonce)
	}
	if acc.Nonce == math.MaxUint64 {
		return fmt.Errorf("nonce overflow for account %s", act.From)
	}
	acc.Nonce++
	if err := e.state.SetAccount(acc); err != nil {
		return err
	}

	return globalRegistry.Execute(act.Type, hctx, act.Payload)
}
