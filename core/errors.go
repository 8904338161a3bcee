package core

import "errors"

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// Gameplay failure taxonomy. Every handler surfaces exactly one of these
// (usually wrapped with context via fmt.Errorf and %w) and the executor
// guarantees that a failed action leaves no partial state behind.
var (
	// ErrWrongPhase means the operation is illegal in the game's current
	// lifecycle state, or the staking deadline has passed.
	ErrWrongPhase = errors.New("wrong game phase")

	// ErrInvalidAmount covers zero-value operations and stakes below the
	// configured minimum.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAlreadyVoted means the participant already voted in this round.
	ErrAlreadyVoted = errors.New("already voted this round")

	// ErrNotAStaker means the participant holds no stake in the live game.
	ErrNotAStaker = errors.New("not a staker")

	// ErrInvalidMove means the move failed rules-engine validation.
	ErrInvalidMove = errors.New("invalid move")

	// ErrReentrantCall means a nested call entered the engine while another
	// action held the guard. Callers retry after the outer call completes.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrNothingToClaim means the participant has no stake on the paying side.
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrTransferFailed means a value transfer (inbound debit or outbound
	// payout) could not be completed. The whole action is rolled back.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrNoVotes means round resolution found an empty ballot. The round
	// stays open and resolution may be retried once votes arrive.
	ErrNoVotes = errors.New("no votes cast this round")

	// ErrNotOwner gates administrative actions to the configured owner key.
	ErrNotOwner = errors.New("not the contract owner")
)
