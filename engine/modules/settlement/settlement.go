// Package settlement pays out winnings from ended games. Payouts follow the
// final pool ratio: a winning participant receives
// stake * losingPool / winningPool, floored; the rounding residue stays in
// the pool. The position is zeroed before the outbound transfer and the
// executor's snapshot restores it if the transfer fails.
package settlement

import (
	"encoding/json"
	"fmt"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionClaimPayout, handleClaimPayout)
}

func handleClaimPayout(ctx *engine.Context, payload json.RawMessage) error {
	var p core.ClaimPayoutPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode claim_payout payload: %w", err)
	}

	game, err := ctx.State.GetGame(p.GameID)
	if err != nil {
		return fmt.Errorf("game %d: %w", p.GameID, err)
	}
	if game.Phase != core.PhaseEnded {
		return fmt.Errorf("%w: game %d has not ended", core.ErrWrongPhase, p.GameID)
	}

	pos, err := ctx.State.GetPosition(game.ID, ctx.Action.From)
	if err != nil {
		return err
	}

	payout, err := computePayout(game, pos)
	if err != nil {
		return err
	}

	// Checks-effects-interactions: the whole position is consumed before the
	// value leaves the ledger, so a reentrant claim finds nothing to pay.
	*pos = core.Position{GameID: pos.GameID, Address: pos.Address}
	if err := ctx.State.SetPosition(pos); err != nil {
		return err
	}
	game.Claimed += payout
	if err := ctx.State.SetGame(game); err != nil {
		return err
	}

	if err := ctx.Payer.Pay(ctx.State, ctx.Action.From, payout); err != nil {
		return fmt.Errorf("%w: %v", core.ErrTransferFailed, err)
	}

	ctx.Emit(events.Event{
		Type:   events.EventPayoutSent,
		GameID: game.ID,
		Data: map[string]any{
			"participant": ctx.Action.From,
			"winner":      string(game.Winner),
			"amount":      payout,
		},
	})
	return nil
}

// computePayout applies the final pool ratio. The wide intermediate product
// cannot overflow the division because a participant's stake never exceeds
// its own pool. On a drawn game (ended, winner undecided) each participant
// is refunded exactly what they staked, on both sides.
func computePayout(game *core.Game, pos *core.Position) (uint64, error) {
	switch game.Winner {
	case core.WinnerWorld:
		if pos.WorldStake == 0 {
			return 0, core.ErrNothingToClaim
		}
		return core.MulDiv(pos.WorldStake, game.LeelaPool, game.WorldPool)
	case core.WinnerLeela:
		if pos.LeelaStake == 0 {
			return 0, core.ErrNothingToClaim
		}
		return core.MulDiv(pos.LeelaStake, game.WorldPool, game.LeelaPool)
	default: // draw
		refund := pos.WorldStake + pos.LeelaStake
		if refund == 0 {
			return 0, core.ErrNothingToClaim
		}
		return refund, nil
	}
}
