package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
	"github.com/plurality-game/plurality/internal/testutil"
	"github.com/plurality-game/plurality/wallet"
)

const testNetwork = "plurality-test"

// Test-only action types exercising the executor itself. Registered once for
// the whole package; handlers read their scripting from package vars.
var (
	reenterAction *core.Action
	reenterErr    error
)

func init() {
	engine.Register("test_ok", func(ctx *engine.Context, _ json.RawMessage) error {
		return nil
	})
	engine.Register("test_fail", func(ctx *engine.Context, _ json.RawMessage) error {
		_ = ctx.State.SetAccount(&core.Account{Address: "ghost", Balance: 999})
		return errors.New("handler failure")
	})
}

func newExecutor(t *testing.T, state core.State) (*engine.Executor, *wallet.Wallet) {
	t.Helper()
	owner, err := wallet.Generate()
	if err != nil {
		t.Fatal(err)
	}
	exec := engine.NewExecutor(state, events.NewEmitter(), engine.Options{
		Network: testNetwork,
		Owner:   owner.PubKey(),
		Signer:  owner.PrivKey(),
		Rules:   &testutil.FakeRules{},
		Oracle:  &testutil.FakeOracle{},
		Payer:   testutil.LedgerPayer{},
		Rounds:  testutil.NewMemRoundStore(),
	})
	return exec, owner
}

func TestExecuteCommitsOnSuccess(t *testing.T) {
	state := testutil.NewStateDB()
	exec, _ := newExecutor(t, state)
	w, _ := wallet.Generate()

	act, err := w.NewAction(testNetwork, "test_ok", 0, struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	if err := exec.Execute(context.Background(), act); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	acc, _ := state.GetAccount(w.PubKey())
	if acc.Nonce != 1 {
		t.Errorf("nonce after execution: got %d want 1", acc.Nonce)
	}
}

func TestExecuteRejectsWrongNetwork(t *testing.T) {
	exec, _ := newExecutor(t, testutil.NewStateDB())
	w, _ := wallet.Generate()

	act, _ := w.NewAction("other-net", "test_ok", 0, struct{}{})
	if err := exec.Execute(context.Background(), act); err == nil {
		t.Error("action for another network should be rejected")
	}
}

func TestExecuteRejectsBadSignature(t *testing.T) {
	exec, _ := newExecutor(t, testutil.NewStateDB())
	w, _ := wallet.Generate()

	act, _ := w.NewAction(testNetwork, "test_ok", 0, struct{}{})
	act.Nonce = 7 // invalidates the signature
	if err := exec.Execute(context.Background(), act); err == nil {
		t.Error("tampered action should be rejected")
	}
}

func TestExecuteRejectsNonceReplay(t *testing.T) {
	exec, _ := newExecutor(t, testutil.NewStateDB())
	w, _ := wallet.Generate()

	act, _ := w.NewAction(testNetwork, "test_ok", 0, struct{}{})
	if err := exec.Execute(context.Background(), act); err != nil {
		t.Fatalf("first execution: %v", err)
	}
	if err := exec.Execute(context.Background(), act); err == nil {
		t.Error("replay with a consumed nonce should fail")
	}
}

func TestExecuteRejectsStaleTimestamp(t *testing.T) {
	exec, _ := newExecutor(t, testutil.NewStateDB())
	w, _ := wallet.Generate()

	act, _ := w.NewAction(testNetwork, "test_ok", 0, struct{}{})
	act.Timestamp = time.Now().Add(-2 * time.Hour).UnixNano()
	act.Sign(w.PrivKey()) // re-sign so only the age check can fail
	if err := exec.Execute(context.Background(), act); err == nil {
		t.Error("expired action should be rejected")
	}
}

func TestExecuteRollsBackFailedAction(t *testing.T) {
	state := testutil.NewStateDB()
	exec, _ := newExecutor(t, state)
	w, _ := wallet.Generate()

	act, _ := w.NewAction(testNetwork, "test_fail", 0, struct{}{})
	if err := exec.Execute(context.Background(), act); err == nil {
		t.Fatal("failing handler should surface its error")
	}

	ghost, _ := state.GetAccount("ghost")
	if ghost.Balance != 0 {
		t.Errorf("handler write should be rolled back, ghost balance = %d", ghost.Balance)
	}
	acc, _ := state.GetAccount(w.PubKey())
	if acc.Nonce != 0 {
		t.Errorf("nonce increment should be rolled back, got %d", acc.Nonce)
	}
}

func TestExecuteRejectsNestedCall(t *testing.T) {
	state := testutil.NewStateDB()
	exec, _ := newExecutor(t, state)
	w, _ := wallet.Generate()

	// The handler re-enters the executor with a validly signed action; the
	// guard must reject it immediately rather than queue or deadlock.
	engine.Register("test_reenter", func(ctx *engine.Context, _ json.RawMessage) error {
		reenterErr = exec.Execute(ctx.Ctx, reenterAction)
		return nil
	})

	reenterAction, _ = w.NewAction(testNetwork, "test_ok", 1, struct{}{})
	outer, _ := w.NewAction(testNetwork, "test_reenter", 0, struct{}{})

	if err := exec.Execute(context.Background(), outer); err != nil {
		t.Fatalf("outer action: %v", err)
	}
	if !errors.Is(reenterErr, core.ErrReentrantCall) {
		t.Errorf("nested call: got %v want ErrReentrantCall", reenterErr)
	}
}

func TestRebindWhileIdle(t *testing.T) {
	exec, _ := newExecutor(t, testutil.NewStateDB())

	if err := exec.Rebind(&testutil.FakeRules{}, nil); err != nil {
		t.Errorf("Rebind on an idle executor: %v", err)
	}
	if err := exec.Rebind(nil, &testutil.FakeOracle{}); err != nil {
		t.Errorf("Rebind oracle only: %v", err)
	}
}
