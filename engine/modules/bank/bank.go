// Package bank moves native value between accounts and provides the Payer
// capability that settlement uses for outbound payouts.
package bank

import (
	"encoding/json"
	"fmt"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionTransfer, handleTransfer)
}

func handleTransfer(ctx *engine.Context, payload json.RawMessage) error {
	var p core.TransferPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode transfer payload: %w", err)
	}
	if p.Amount == 0 {
		return fmt.Errorf("%w: transfer amount must be > 0", core.ErrInvalidAmount)
	}
	if p.To == "" {
		return fmt.Errorf("%w: transfer to address required", core.ErrInvalidAmount)
	}

	if err := Debit(ctx.State, ctx.Action.From, p.Amount); err != nil {
		return err
	}
	if err := Credit(ctx.State, p.To, p.Amount); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type: events.EventTransfer,
		Data: map[string]any{
			"from":   ctx.Action.From,
			"to":     p.To,
			"amount": p.Amount,
		},
	})
	return nil
}

// Debit removes amount from the account's balance. A short balance surfaces
// as ErrTransferFailed: the incoming value transfer could not be completed.
func Debit(state core.State, address string, amount uint64) error {
	acc, err := state.GetAccount(address)
	if err != nil {
		return err
	}
	if acc.Balance < amount {
		return fmt.Errorf("%w: insufficient balance for %s: have %d need %d",
			core.ErrTransferFailed, acc.Address, acc.Balance, amount)
	}
	acc.Balance -= amount
	return state.SetAccount(acc)
}

// Credit adds amount to the account's balance, guarding against overflow.
func Credit(state core.State, address string, amount uint64) error {
	acc, err := state.GetAccount(address)
	if err != nil {
		return err
	}
	if acc.Balance+amount < acc.Balance {
		return fmt.Errorf("%w: balance overflow for %s", core.ErrTransferFailed, address)
	}
	acc.Balance += amount
	return state.SetAccount(acc)
}

// NativePayer credits payouts to ledger accounts. Production default; tests
// substitute failing or reentering payers to exercise the rollback and
// reentrancy paths.
type NativePayer struct{}

func (NativePayer) Pay(state core.State, to string, amount uint64) error {
	return Credit(state, to, amount)
}
