package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/plurality-game/plurality/chess/remote"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/indexer"
)

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	exec    *engine.Executor
	state   core.State
	rounds  core.RoundStore
	indexer *indexer.Indexer
	network string // expected network id; reported to clients via getInfo
	owner   string
}

// NewHandler creates an RPC Handler.
func NewHandler(exec *engine.Executor, state core.State, rounds core.RoundStore, idx *indexer.Indexer, network, owner string) *Handler {
	return &Handler{exec: exec, state: state, rounds: rounds, indexer: idx, network: network, owner: owner}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "getInfo":
		return h.getInfo(req)

	case "getGame":
		return h.getGame(req)

	case "getPool":
		return h.getPool(req)

	case "getPosition":
		return h.getPosition(req)

	case "getBallot":
		return h.getBallot(req)

	case "getRound":
		return h.getRound(req)

	case "getBalance":
		return h.getBalance(req)

	case "getParams":
		return h.getParams(req)

	case "getHistory":
		return h.getHistory(req)

	case "sendAction":
		return h.sendAction(ctx, req)

	case "rebindCollaborators":
		return h.rebindCollaborators(req)

	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// liveGame resolves an optional game_id parameter, defaulting to the current game.
func (h *Handler) liveGame(gameID *uint64) (*core.Game, error) {
	id := uint64(0)
	if gameID != nil {
		id = *gameID
	} else {
		current, err := h.state.CurrentGameID()
		if err != nil {
			return nil, err
		}
		id = current
	}
	if id == 0 {
		return nil, fmt.Errorf("no game started: %w", core.ErrNotFound)
	}
	return h.state.GetGame(id)
}

func (h *Handler) getInfo(req Request) Response {
	currentID, err := h.state.CurrentGameID()
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{
		"network":      h.network,
		"owner":        h.owner,
		"current_game": currentID,
	})
}

func (h *Handler) getGame(req Request) Response {
	var params struct {
		GameID *uint64 `json:"game_id"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		}
	}
	game, err := h.liveGame(params.GameID)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, game)
}

func (h *Handler) getPool(req Request) Response {
	var params struct {
		GameID *uint64 `json:"game_id"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
		}
	}
	game, err := h.liveGame(params.GameID)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{
		"game_id":    game.ID,
		"world_pool": game.WorldPool,
		"leela_pool": game.LeelaPool,
		"seed_value": game.SeedValue,
		"claimed":    game.Claimed,
	})
}

func (h *Handler) getPosition(req Request) Response {
	var params struct {
		GameID  *uint64 `json:"game_id"`
		Address string  `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	game, err := h.liveGame(params.GameID)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	pos, err := h.state.GetPosition(game.ID, params.Address)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, pos)
}

func (h *Handler) getBallot(req Request) Response {
	var params struct {
		GameID *uint64 `json:"game_id"`
		Round  *uint64 `json:"round"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, CodeInvalidParams, err.Error())
		}
	}
	game, err := h.liveGame(params.GameID)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	round := game.Round
	if params.Round != nil {
		round = *params.Round
	}
	b, err := h.state.GetBallot(game.ID, round)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, b)
}

func (h *Handler) getRound(req Request) Response {
	var params struct {
		GameID uint64 `json:"game_id"`
		Round  uint64 `json:"round"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	rec, err := h.rounds.GetRound(params.GameID, params.Round)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, rec)
}

func (h *Handler) getBalance(req Request) Response {
	var params struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}
	acc, err := h.state.GetAccount(params.Address)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"address": params.Address, "balance": acc.Balance, "nonce": acc.Nonce})
}

func (h *Handler) getParams(req Request) Response {
	params, err := h.state.GetParams()
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, params)
}

func (h *Handler) getHistory(req Request) Response {
	var params struct {
		Address string `json:"address"`
		Kind    string `json:"kind"` // stakes | votes | payouts
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return errResponse(req.ID, CodeInvalidParams, "address is required")
	}

	var (
		entries []indexer.Entry
		err     error
	)
	switch params.Kind {
	case "stakes":
		entries, err = h.indexer.StakesBy(params.Address)
	case "votes":
		entries, err = h.indexer.VotesBy(params.Address)
	case "payouts":
		entries, err = h.indexer.PayoutsTo(params.Address)
	default:
		return errResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown kind %q", params.Kind))
	}
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, entries)
}

func (h *Handler) sendAction(ctx context.Context, req Request) Response {
	var act core.Action
	if err := json.Unmarshal(req.Params, &act); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "action: "+err.Error())
	}
	if err := h.exec.Execute(ctx, &act); err != nil {
		if errors.Is(err, core.ErrReentrantCall) {
			return errResponse(req.ID, CodeBusy, err.Error())
		}
		return errResponse(req.ID, CodeActionRejected, err.Error())
	}
	return okResponse(req.ID, map[string]any{"action_id": act.ID})
}

// rebindCollaborators swaps the engine/oracle endpoints. The RPC auth token
// gates this; the node refuses it entirely when no token is configured.
func (h *Handler) rebindCollaborators(req Request) Response {
	var params struct {
		EngineURL string `json:"engine_url"`
		OracleURL string `json:"oracle_url"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	if params.EngineURL == "" && params.OracleURL == "" {
		return errResponse(req.ID, CodeInvalidParams, "engine_url or oracle_url required")
	}

	var (
		rules  *remote.Engine
		oracle *remote.Oracle
	)
	if params.EngineURL != "" {
		rules = remote.NewEngine(params.EngineURL)
	}
	if params.OracleURL != "" {
		oracle = remote.NewOracle(params.OracleURL)
	}
	if err := rebind(h.exec, rules, oracle); err != nil {
		return errResponse(req.ID, CodeBusy, err.Error())
	}
	return okResponse(req.ID, "ok")
}

// rebind avoids passing typed nils into the executor's interface parameters.
func rebind(exec *engine.Executor, rules *remote.Engine, oracle *remote.Oracle) error {
	switch {
	case rules != nil && oracle != nil:
		return exec.Rebind(rules, oracle)
	case rules != nil:
		return exec.Rebind(rules, nil)
	default:
		return exec.Rebind(nil, oracle)
	}
}
