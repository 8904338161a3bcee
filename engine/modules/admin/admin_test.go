package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
	"github.com/plurality-game/plurality/internal/testutil"
	"github.com/plurality-game/plurality/storage"
	"github.com/plurality-game/plurality/wallet"
)

const testNetwork = "plurality-test"

func u64(v uint64) *uint64 { return &v }
func i64(v int64) *int64   { return &v }

func newAdminExec(t *testing.T) (*storage.StateDB, *engine.Executor, *wallet.Wallet) {
	t.Helper()
	state := testutil.NewStateDB()
	require.NoError(t, state.SetParams(&core.Params{MinStake: 10, SeedValue: 100, StakePeriod: 300}))

	owner, err := wallet.Generate()
	require.NoError(t, err)
	exec := engine.NewExecutor(state, events.NewEmitter(), engine.Options{
		Network: testNetwork,
		Owner:   owner.PubKey(),
		Signer:  owner.PrivKey(),
		Rules:   &testutil.FakeRules{},
		Oracle:  &testutil.FakeOracle{},
		Payer:   testutil.LedgerPayer{},
		Rounds:  testutil.NewMemRoundStore(),
	})
	return state, exec, owner
}

func setParams(t *testing.T, exec *engine.Executor, w *wallet.Wallet, nonce uint64, p core.SetParamsPayload) error {
	t.Helper()
	act, err := w.NewAction(testNetwork, core.ActionSetParams, nonce, p)
	require.NoError(t, err)
	return exec.Execute(context.Background(), act)
}

func TestSetParamsUpdatesOnlyGivenFields(t *testing.T) {
	state, exec, owner := newAdminExec(t)

	require.NoError(t, setParams(t, exec, owner, 0, core.SetParamsPayload{MinStake: u64(25)}))

	params, err := state.GetParams()
	require.NoError(t, err)
	require.Equal(t, uint64(25), params.MinStake)
	require.Equal(t, uint64(100), params.SeedValue, "untouched field must keep its value")
	require.Equal(t, int64(300), params.StakePeriod)
}

func TestSetParamsRequiresOwner(t *testing.T) {
	_, exec, _ := newAdminExec(t)
	intruder, err := wallet.Generate()
	require.NoError(t, err)

	setErr := setParams(t, exec, intruder, 0, core.SetParamsPayload{MinStake: u64(1)})
	require.ErrorIs(t, setErr, core.ErrNotOwner)
}

func TestSetParamsSeedBlockedMidGame(t *testing.T) {
	state, exec, owner := newAdminExec(t)
	require.NoError(t, state.SetGame(&core.Game{ID: 1, Phase: core.PhaseStaking}))
	require.NoError(t, state.SetCurrentGameID(1))

	err := setParams(t, exec, owner, 0, core.SetParamsPayload{SeedValue: u64(500)})
	require.ErrorIs(t, err, core.ErrWrongPhase)

	// Min stake changes are allowed while a game is live.
	require.NoError(t, setParams(t, exec, owner, 0, core.SetParamsPayload{MinStake: u64(20)}))
}

func TestSetParamsSeedAllowedAfterGameEnds(t *testing.T) {
	state, exec, owner := newAdminExec(t)
	require.NoError(t, state.SetGame(&core.Game{ID: 1, Phase: core.PhaseEnded}))
	require.NoError(t, state.SetCurrentGameID(1))

	require.NoError(t, setParams(t, exec, owner, 0, core.SetParamsPayload{SeedValue: u64(500)}))
	params, _ := state.GetParams()
	require.Equal(t, uint64(500), params.SeedValue)
}

func TestSetParamsRejectsInvalidValues(t *testing.T) {
	_, exec, owner := newAdminExec(t)

	err := setParams(t, exec, owner, 0, core.SetParamsPayload{SeedValue: u64(0)})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	err = setParams(t, exec, owner, 0, core.SetParamsPayload{StakePeriod: i64(0)})
	require.ErrorIs(t, err, core.ErrInvalidAmount)
}
