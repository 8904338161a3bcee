package engine

import (
	"context"
	"time"

	"github.com/plurality-game/plurality/chess"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/crypto"
	"github.com/plurality-game/plurality/events"
)

// Payer is the fallible outbound value-transfer capability. Settlement zeroes
// the ledger debit first and only then calls Pay; a Pay error makes the
// executor roll the whole action back, so the debit is restored atomically.
type Payer interface {
	Pay(state core.State, to string, amount uint64) error
}

// Context is passed to every Handler and provides access to the ledger
// state, the triggering action, the event emitter, and the external
// collaborators.
type Context struct {
	Ctx     context.Context
	State   core.State
	Action  *core.Action
	Emitter *events.Emitter

	Rules  chess.RulesEngine
	Oracle chess.MoveOracle
	Payer  Payer
	Rounds core.RoundStore

	// Owner is the configured administrator pubkey hex; Signer is the
	// operator key used to sign round records.
	Owner  string
	Signer crypto.PrivateKey

	// Now is the wall-clock instant the action entered the executor. All
	// phase and deadline checks inside one action use this single value.
	Now time.Time

	// pending holds events queued by the handler; the executor flushes
	// them after Commit so a rolled-back action publishes nothing.
	pending []events.Event
}

// RequireOwner rejects actions not sent by the configured owner key.
func (c *Context) RequireOwner() error {
	if c.Action.From != c.Owner {
		return core.ErrNotOwner
	}
	return nil
}

// CurrentGame loads the live game record, or ErrNotFound if none started.
func (c *Context) CurrentGame() (*core.Game, error) {
	id, err := c.State.CurrentGameID()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, core.ErrNotFound
	}
	return c.State.GetGame(id)
}

// Emit queues ev, tagged with the triggering action's ID, for publication
// once the action commits.
func (c *Context) Emit(ev events.Event) {
	ev.ActionID = c.Action.ID
	c.pending = append(c.pending, ev)
}

// flush delivers the queued events. Called by the executor after Commit.
func (c *Context) flush() {
	if c.Emitter == nil {
		return
	}
	for _, ev := range c.pending {
		c.Emitter.Emit(ev)
	}
	c.pending = nil
}
