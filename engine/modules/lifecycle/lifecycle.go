// Package lifecycle drives the game's phase machine: starting games (pool
// seeding), opening and extending the staking window, and resolving rounds
// by forwarding the plurality move and the oracle's reply to the rules
// engine. All operations here are owner-gated.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/plurality-game/plurality/chess"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/engine/modules/ballot"
	"github.com/plurality-game/plurality/engine/modules/bank"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionStartGame, handleStartGame)
	engine.Register(core.ActionOpenStaking, handleOpenStaking)
	engine.Register(core.ActionResolveRound, handleResolveRound)
}

func handleStartGame(ctx *engine.Context, payload json.RawMessage) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}

	// Only one live game at a time; an ended game stays on record and a new
	// one starts under the next ID.
	currentID, err := ctx.State.CurrentGameID()
	if err != nil {
		return err
	}
	if currentID != 0 {
		current, err := ctx.State.GetGame(currentID)
		if err != nil {
			return err
		}
		if current.Phase != core.PhaseEnded {
			return fmt.Errorf("%w: game %d still in progress", core.ErrWrongPhase, currentID)
		}
	}

	params, err := ctx.State.GetParams()
	if err != nil {
		return fmt.Errorf("game parameters: %w", err)
	}
	if params.SeedValue == 0 {
		return fmt.Errorf("%w: pool seed must be > 0", core.ErrInvalidAmount)
	}

	// The seeds are real funds: the house backs both pools so the
	// conservation invariant holds exactly from the first stake.
	if err := bank.Debit(ctx.State, ctx.Owner, 2*params.SeedValue); err != nil {
		return fmt.Errorf("seed pools: %w", err)
	}

	game := &core.Game{
		ID:            currentID + 1,
		Phase:         core.PhaseStaking,
		Winner:        core.WinnerUndecided,
		MinStake:      params.MinStake,
		SeedValue:     params.SeedValue,
		StakeDeadline: ctx.Now.Add(time.Duration(params.StakePeriod) * time.Second).UnixNano(),
		WorldPool:     params.SeedValue,
		LeelaPool:     params.SeedValue,
		CreatedAt:     ctx.Now.UnixNano(),
	}

	if err := ctx.Rules.InitGame(ctx.Ctx, game.ID); err != nil {
		return fmt.Errorf("rules engine init: %w", err)
	}
	if err := ctx.Oracle.InitOracle(ctx.Ctx, game.ID); err != nil {
		return fmt.Errorf("oracle init: %w", err)
	}

	if err := ctx.State.SetGame(game); err != nil {
		return err
	}
	if err := ctx.State.SetCurrentGameID(game.ID); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type:   events.EventGameStarted,
		GameID: game.ID,
		Data: map[string]any{
			"min_stake":      game.MinStake,
			"seed_value":     game.SeedValue,
			"stake_deadline": game.StakeDeadline,
		},
	})
	return nil
}

func handleOpenStaking(ctx *engine.Context, payload json.RawMessage) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p core.OpenStakingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode open_staking payload: %w", err)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be > 0", core.ErrInvalidAmount)
	}

	game, err := ctx.CurrentGame()
	if err != nil {
		return fmt.Errorf("%w: no game in progress", core.ErrWrongPhase)
	}
	if game.Phase != core.PhaseStaking {
		return fmt.Errorf("%w: game is %s", core.ErrWrongPhase, game.Phase)
	}

	// Re-callable: each call moves the deadline out from now.
	game.StakeDeadline = ctx.Now.Add(time.Duration(p.Duration) * time.Second).UnixNano()
	if err := ctx.State.SetGame(game); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type:   events.EventStakingOpened,
		GameID: game.ID,
		Data:   map[string]any{"stake_deadline": game.StakeDeadline},
	})
	return nil
}

func handleResolveRound(ctx *engine.Context, payload json.RawMessage) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}

	game, err := ctx.CurrentGame()
	if err != nil {
		return fmt.Errorf("%w: no game in progress", core.ErrWrongPhase)
	}
	if game.Phase != core.PhaseStaking {
		return fmt.Errorf("%w: game is %s", core.ErrWrongPhase, game.Phase)
	}
	if ctx.Now.UnixNano() < game.StakeDeadline {
		return fmt.Errorf("%w: staking still open", core.ErrWrongPhase)
	}
	game.Phase = core.PhaseResolving
	if err := ctx.State.SetGame(game); err != nil {
		return err
	}

	b, err := ctx.State.GetBallot(game.ID, game.Round)
	if err != nil {
		return err
	}
	worldMove := ballot.WinningMove(b)
	if worldMove == chess.MoveNone {
		// Zero-vote round: abort with everything intact. The round stays
		// open for voting and resolution can be retried.
		return core.ErrNoVotes
	}

	// World's half-move first; the game can end before the opponent replies.
	if err := ctx.Rules.PlayMove(ctx.Ctx, game.ID, worldMove, true); err != nil {
		return fmt.Errorf("play world move %s: %w", worldMove, err)
	}
	ended, winner, err := halfMoveResult(ctx, game, worldMove, core.SideWorld)
	if err != nil {
		return err
	}
	ctx.Emit(events.Event{
		Type:   events.EventMovePlayed,
		GameID: game.ID,
		Data:   map[string]any{"round": game.Round, "move": uint16(worldMove), "side": string(core.SideWorld)},
	})

	leelaMove := chess.MoveNone
	if !ended {
		leelaMove, err = ctx.Oracle.NextMove(ctx.Ctx, game.ID, game.Round)
		if err != nil {
			return fmt.Errorf("oracle move: %w", err)
		}
		if err := ctx.Rules.PlayMove(ctx.Ctx, game.ID, leelaMove, false); err != nil {
			return fmt.Errorf("play oracle move %s: %w", leelaMove, err)
		}
		ended, winner, err = halfMoveResult(ctx, game, leelaMove, core.SideLeela)
		if err != nil {
			return err
		}
		ctx.Emit(events.Event{
			Type:   events.EventMovePlayed,
			GameID: game.ID,
			Data:   map[string]any{"round": game.Round, "move": uint16(leelaMove), "side": string(core.SideLeela)},
		})
	}

	round := game.Round
	if ended {
		// The winner must be durably recorded, pools frozen, before anything
		// else can happen; the next game is a separate start_game action.
		game.Winner = winner
		game.Phase = core.PhaseEnded
		game.EndedAt = ctx.Now.UnixNano()
	} else {
		game.Round++
		game.Phase = core.PhaseStaking
	}
	if err := ctx.State.SetGame(game); err != nil {
		return err
	}

	// The move log is written last so a failed resolution never leaves a
	// record behind after the state rollback.
	if err := appendRoundRecord(ctx, game, round, worldMove, leelaMove); err != nil {
		return fmt.Errorf("round record: %w", err)
	}

	if ended {
		ctx.Emit(events.Event{
			Type:   events.EventGameEnded,
			GameID: game.ID,
			Data: map[string]any{
				"winner":     string(game.Winner),
				"world_pool": game.WorldPool,
				"leela_pool": game.LeelaPool,
				"rounds":     round + 1,
			},
		})
	}
	return nil
}

// halfMoveResult decides whether the half-move just applied ended the game
// and who won. A resign sentinel loses for the mover without consulting the
// engine; otherwise the engine's endgame check is authoritative. A draw ends
// the game with the winner left undecided (claims then refund stakes).
func halfMoveResult(ctx *engine.Context, game *core.Game, mv chess.Move, mover core.Side) (bool, core.Winner, error) {
	if mv == chess.MoveResign {
		return true, sideWinner(mover.Opposite()), nil
	}
	outcome, err := ctx.Rules.CheckEndgame(ctx.Ctx, game.ID)
	if err != nil {
		return false, core.WinnerUndecided, fmt.Errorf("endgame check: %w", err)
	}
	switch outcome {
	case chess.OutcomeMoverWins:
		return true, sideWinner(mover), nil
	case chess.OutcomeDraw:
		return true, core.WinnerUndecided, nil
	}
	return false, core.WinnerUndecided, nil
}

func sideWinner(s core.Side) core.Winner {
	if s == core.SideWorld {
		return core.WinnerWorld
	}
	return core.WinnerLeela
}

func appendRoundRecord(ctx *engine.Context, game *core.Game, round uint64, worldMove, leelaMove chess.Move) error {
	tip, err := ctx.Rounds.Tip()
	if err != nil {
		return err
	}
	if tip == "" {
		tip = core.GenesisRoundHash
	}
	rec := &core.RoundRecord{
		GameID:    game.ID,
		Round:     round,
		WorldMove: uint16(worldMove),
		LeelaMove: uint16(leelaMove),
		PrevHash:  tip,
		StateRoot: ctx.State.ComputeRoot(),
		Timestamp: ctx.Now.UnixNano(),
		Operator:  ctx.Signer.Public().Hex(),
	}
	rec.Sign(ctx.Signer)
	if err := ctx.Rounds.PutRound(rec); err != nil {
		return err
	}
	return ctx.Rounds.SetTip(rec.Hash)
}
