// Package ballot is the per-round vote tally for the World's next move.
// Vote weight is the participant's total staked capital: World-side and
// Leela-side stake both count toward the World's move. That is intentional.
package ballot

import (
	"encoding/json"
	"fmt"

	"github.com/plurality-game/plurality/chess"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionCastVote, handleCastVote)
}

func handleCastVote(ctx *engine.Context, payload json.RawMessage) error {
	var p core.CastVotePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode cast_vote payload: %w", err)
	}
	mv := chess.Move(p.Move)
	if mv == chess.MoveNone {
		return fmt.Errorf("%w: zero move", core.ErrInvalidMove)
	}

	game, err := ctx.CurrentGame()
	if err != nil {
		return fmt.Errorf("%w: no game in progress", core.ErrWrongPhase)
	}
	if game.Phase != core.PhaseStaking {
		return fmt.Errorf("%w: voting requires a live game, game is %s", core.ErrWrongPhase, game.Phase)
	}

	pos, err := ctx.State.GetPosition(game.ID, ctx.Action.From)
	if err != nil {
		return err
	}
	weight := pos.TotalStake()
	if weight == 0 {
		return core.ErrNotAStaker
	}

	// Sentinels are vocabulary the rules engine understands directly;
	// everything else must pass legality validation before entering the tally.
	if !mv.IsSentinel() {
		if err := ctx.Rules.ValidateMove(ctx.Ctx, game.ID, mv); err != nil {
			return fmt.Errorf("%w: %v", core.ErrInvalidMove, err)
		}
	}

	b, err := ctx.State.GetBallot(game.ID, game.Round)
	if err != nil {
		return err
	}
	if _, voted := b.Voted[ctx.Action.From]; voted {
		return core.ErrAlreadyVoted
	}

	if _, seen := b.Tally[p.Move]; !seen {
		b.Candidates = append(b.Candidates, p.Move)
	}
	b.Tally[p.Move] += weight
	b.Voted[ctx.Action.From] = p.Move
	if err := ctx.State.SetBallot(b); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type:   events.EventVoteRecorded,
		GameID: game.ID,
		Data: map[string]any{
			"participant": ctx.Action.From,
			"round":       game.Round,
			"move":        p.Move,
			"weight":      weight,
		},
	})
	return nil
}

// WinningMove scans the ballot's candidates once, tracking the running
// maximum. The first move to reach a given total wins ties: later candidates
// with equal weight never overwrite the leader. Returns MoveNone for an
// empty ballot.
func WinningMove(b *core.Ballot) chess.Move {
	var (
		best       chess.Move
		bestWeight uint64
	)
	for _, mv := range b.Candidates {
		if w := b.Tally[mv]; w > bestWeight {
			best = chess.Move(mv)
			bestWeight = w
		}
	}
	return best
}
