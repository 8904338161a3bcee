// Package admin updates the operator-tunable parameters that the next game
// is created with. Parameter changes never touch a game in progress.
package admin

import (
	"encoding/json"
	"fmt"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
)

func init() {
	engine.Register(core.ActionSetParams, handleSetParams)
}

func handleSetParams(ctx *engine.Context, payload json.RawMessage) error {
	if err := ctx.RequireOwner(); err != nil {
		return err
	}
	var p core.SetParamsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode set_params payload: %w", err)
	}

	params, err := ctx.State.GetParams()
	if err != nil {
		return fmt.Errorf("game parameters: %w", err)
	}

	if p.SeedValue != nil {
		// The seed is the share-price baseline; repricing a live game's pool
		// would corrupt standing shares.
		id, err := ctx.State.CurrentGameID()
		if err != nil {
			return err
		}
		if id != 0 {
			game, err := ctx.State.GetGame(id)
			if err != nil {
				return err
			}
			if game.Phase != core.PhaseEnded {
				return fmt.Errorf("%w: cannot change pool seed mid-game", core.ErrWrongPhase)
			}
		}
		if *p.SeedValue == 0 {
			return fmt.Errorf("%w: pool seed must be > 0", core.ErrInvalidAmount)
		}
		params.SeedValue = *p.SeedValue
	}
	if p.MinStake != nil {
		params.MinStake = *p.MinStake
	}
	if p.StakePeriod != nil {
		if *p.StakePeriod <= 0 {
			return fmt.Errorf("%w: stake period must be > 0", core.ErrInvalidAmount)
		}
		params.StakePeriod = *p.StakePeriod
	}

	if err := ctx.State.SetParams(params); err != nil {
		return err
	}

	ctx.Emit(events.Event{
		Type: events.EventParamsUpdated,
		Data: map[string]any{
			"min_stake":    params.MinStake,
			"seed_value":   params.SeedValue,
			"stake_period": params.StakePeriod,
		},
	})
	return nil
}
