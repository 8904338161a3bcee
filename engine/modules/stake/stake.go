// Package stake is the staking-pool ledger: it records per-participant
// stakes, mints pool shares at the current pool ratio, and grows the side's
// pool. A participant may stake on both sides; that arbitrage is intentional
// and must not be "fixed".
package stake

import (
	"encoding/json"
	"fmt"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/engine/modules/bank"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionStake, handleStake)
}

func handleStake(ctx *engine.Context, payload json.RawMessage) error {
	var p core.StakePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode stake payload: %w", err)
	}
	if !p.Side.Valid() {
		return fmt.Errorf("%w: unknown side %q", core.ErrInvalidAmount, p.Side)
	}

	game, err := ctx.CurrentGame()
	if err != nil {
		return fmt.Errorf("%w: no game in progress", core.ErrWrongPhase)
	}
	if game.Phase != core.PhaseStaking {
		return fmt.Errorf("%w: staking requires phase %s, game is %s",
			core.ErrWrongPhase, core.PhaseStaking, game.Phase)
	}
	if ctx.Now.UnixNano() >= game.StakeDeadline {
		return fmt.Errorf("%w: staking closed", core.ErrWrongPhase)
	}
	if p.Amount < game.MinStake {
		return fmt.Errorf("%w: stake %d below minimum %d", core.ErrInvalidAmount, p.Amount, game.MinStake)
	}

	// Shares are priced at the pool ratio of this moment: later stakers get
	// fewer shares per unit as the pool grows. Integer floor; dust accrues
	// to the pool.
	poolBefore := game.PoolSize(p.Side)
	shares, err := core.MulDiv(p.Amount, game.SeedValue, poolBefore)
	if err != nil {
		return err
	}

	if err := bank.Debit(ctx.State, ctx.Action.From, p.Amount); err != nil {
		return err
	}

	pos, err := ctx.State.GetPosition(game.ID, ctx.Action.From)
	if err != nil {
		return err
	}
	switch p.Side {
	case core.SideWorld:
		pos.WorldStake += p.Amount
		pos.WorldShares += shares
		game.WorldPool += p.Amount
	case core.SideLeela:
		pos.LeelaStake += p.Amount
		pos.LeelaShares += shares
		game.LeelaPool += p.Amount
	}
	if err := ctx.State.SetPosition(pos); err != nil {
		return err
	}
	if err := ctx.State.SetGame(game); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type:   events.EventStakeRecorded,
		GameID: game.ID,
		Data: map[string]any{
			"participant": ctx.Action.From,
			"side":        string(p.Side),
			"amount":      p.Amount,
			"shares":      shares,
			"pool":        game.PoolSize(p.Side),
		},
	})
	return nil
}
