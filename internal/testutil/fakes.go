package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/plurality-game/plurality/chess"
	"github.com/plurality-game/plurality/core"
)

// FakeRules is a scripted chess.RulesEngine. Outcomes are consumed from the
// Outcomes queue one per CheckEndgame call; an empty queue means ongoing.
type FakeRules struct {
	mu       sync.Mutex
	Illegal  map[chess.Move]bool // moves ValidateMove rejects
	Outcomes []chess.Outcome
	PlayErr  error // returned by every PlayMove when set

	InitCalls int
	Played    []chess.Move
}

func (f *FakeRules) InitGame(context.Context, uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls++
	return nil
}

func (f *FakeRules) ValidateMove(_ context.Context, _ uint64, mv chess.Move) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Illegal[mv] {
		return fmt.Errorf("%w: %s", core.ErrInvalidMove, mv)
	}
	return nil
}

func (f *FakeRules) PlayMove(_ context.Context, _ uint64, mv chess.Move, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PlayErr != nil {
		return f.PlayErr
	}
	f.Played = append(f.Played, mv)
	return nil
}

func (f *FakeRules) CheckEndgame(context.Context, uint64) (chess.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Outcomes) == 0 {
		return chess.OutcomeOngoing, nil
	}
	out := f.Outcomes[0]
	f.Outcomes = f.Outcomes[1:]
	return out, nil
}

// FakeOracle is a scripted chess.MoveOracle. Moves are consumed from the
// queue one per NextMove call; an exhausted queue is an error.
type FakeOracle struct {
	mu    sync.Mutex
	Moves []chess.Move
	Err   error // returned by every NextMove when set

	InitCalls int
}

func (f *FakeOracle) InitOracle(context.Context, uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls++
	return nil
}

func (f *FakeOracle) NextMove(context.Context, uint64, uint64) (chess.Move, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return chess.MoveNone, f.Err
	}
	if len(f.Moves) == 0 {
		return chess.MoveNone, errors.New("oracle script exhausted")
	}
	mv := f.Moves[0]
	f.Moves = f.Moves[1:]
	return mv, nil
}

// LedgerPayer credits the recipient's ledger account, mirroring the
// production payer without importing the bank module.
type LedgerPayer struct{}

func (LedgerPayer) Pay(state core.State, to string, amount uint64) error {
	acc, err := state.GetAccount(to)
	if err != nil {
		return err
	}
	acc.Balance += amount
	return state.SetAccount(acc)
}

// FailingPayer fails every payment. For rollback tests.
type FailingPayer struct{}

func (FailingPayer) Pay(core.State, string, uint64) error {
	return errors.New("payment channel down")
}
