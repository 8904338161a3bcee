// Package remote provides HTTP client implementations of the chess
// collaborator interfaces for engine and oracle services running out of
// process. Both speak a small JSON POST protocol.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/plurality-game/plurality/chess"
)

const defaultTimeout = 15 * time.Second

// client posts JSON requests to a base URL.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) client {
	return client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// post sends body to baseURL+path and decodes the JSON response into out
// (which may be nil). Non-2xx responses become errors carrying the body.
func (c client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Engine is an HTTP-backed chess.RulesEngine.
type Engine struct {
	c client
}

// NewEngine creates an Engine client for the service at baseURL.
func NewEngine(baseURL string) *Engine {
	return &Engine{c: newClient(baseURL)}
}

type gameReq struct {
	GameID uint64 `json:"game_id"`
}

type moveReq struct {
	GameID      uint64 `json:"game_id"`
	Move        uint16 `json:"move"`
	WorldToMove bool   `json:"world_to_move,omitempty"`
}

func (e *Engine) InitGame(ctx context.Context, gameID uint64) error {
	return e.c.post(ctx, "/init", gameReq{GameID: gameID}, nil)
}

func (e *Engine) ValidateMove(ctx context.Context, gameID uint64, mv chess.Move) error {
	var resp struct {
		Legal  bool   `json:"legal"`
		Reason string `json:"reason"`
	}
	if err := e.c.post(ctx, "/validate", moveReq{GameID: gameID, Move: uint16(mv)}, &resp); err != nil {
		return err
	}
	if !resp.Legal {
		return fmt.Errorf("engine rejected %s: %s", mv, resp.Reason)
	}
	return nil
}

func (e *Engine) PlayMove(ctx context.Context, gameID uint64, mv chess.Move, worldToMove bool) error {
	return e.c.post(ctx, "/play", moveReq{GameID: gameID, Move: uint16(mv), WorldToMove: worldToMove}, nil)
}

func (e *Engine) CheckEndgame(ctx context.Context, gameID uint64) (chess.Outcome, error) {
	var resp struct {
		Outcome chess.Outcome `json:"outcome"`
	}
	if err := e.c.post(ctx, "/endgame", gameReq{GameID: gameID}, &resp); err != nil {
		return "", err
	}
	switch resp.Outcome {
	case chess.OutcomeOngoing, chess.OutcomeMoverWins, chess.OutcomeDraw:
		return resp.Outcome, nil
	}
	return "", fmt.Errorf("engine returned unknown outcome %q", resp.Outcome)
}

// Oracle is an HTTP-backed chess.MoveOracle.
type Oracle struct {
	c client
}

// NewOracle creates an Oracle client for the service at baseURL.
func NewOracle(baseURL string) *Oracle {
	return &Oracle{c: newClient(baseURL)}
}

func (o *Oracle) InitOracle(ctx context.Context, gameID uint64) error {
	return o.c.post(ctx, "/init", gameReq{GameID: gameID}, nil)
}

func (o *Oracle) NextMove(ctx context.Context, gameID, round uint64) (chess.Move, error) {
	var resp struct {
		Move uint16 `json:"move"`
	}
	req := struct {
		GameID uint64 `json:"game_id"`
		Round  uint64 `json:"round"`
	}{gameID, round}
	if err := o.c.post(ctx, "/move", req, &resp); err != nil {
		return chess.MoveNone, err
	}
	return chess.Move(resp.Move), nil
}
