package chess

import "context"

// Outcome is the rules engine's verdict after a half-move has been applied.
type Outcome string

const (
	// OutcomeOngoing means the game continues.
	OutcomeOngoing Outcome = "ongoing"
	// OutcomeMoverWins means the half-move just applied ended the game in
	// favour of the side that played it.
	OutcomeMoverWins Outcome = "mover_wins"
	// OutcomeDraw means the game ended without a winner.
	OutcomeDraw Outcome = "draw"
)

// RulesEngine validates and applies moves and detects end-of-game. Any error
// from PlayMove is fatal to the round being resolved: the caller must abort
// and roll back, never swallow it.
type RulesEngine interface {
	// InitGame prepares engine-side state for a fresh game.
	InitGame(ctx context.Context, gameID uint64) error
	// ValidateMove reports whether mv would be legal for the World side in
	// the current position. Sentinel moves are not sent here.
	ValidateMove(ctx context.Context, gameID uint64, mv Move) error
	// PlayMove applies one half-move. worldToMove is true when the World
	// side (not the oracle side) is moving.
	PlayMove(ctx context.Context, gameID uint64, mv Move, worldToMove bool) error
	// CheckEndgame returns the game's status after the last applied half-move.
	CheckEndgame(ctx context.Context, gameID uint64) (Outcome, error)
}

// MoveOracle supplies Leela's chosen move for a round. The core treats the
// oracle as a privileged collaborator: its moves are authoritative and are
// not re-validated.
type MoveOracle interface {
	// InitOracle prepares oracle-side state for a fresh game.
	InitOracle(ctx context.Context, gameID uint64) error
	// NextMove returns the oracle's move for the given round.
	NextMove(ctx context.Context, gameID, round uint64) (Move, error)
}
