package bank

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/events"
	"github.com/plurality-game/plurality/internal/testutil"
	"github.com/plurality-game/plurality/wallet"
)

const testNetwork = "plurality-test"

func TestTransferMovesBalance(t *testing.T) {
	state := testutil.NewStateDB()
	sender, err := wallet.Generate()
	require.NoError(t, err)
	receiver, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, state.SetAccount(&core.Account{Address: sender.PubKey(), Balance: 1000}))

	exec := engine.NewExecutor(state, events.NewEmitter(), engine.Options{
		Network: testNetwork,
		Payer:   NativePayer{},
	})

	act, err := sender.Transfer(testNetwork, receiver.PubKey(), 300, 0)
	require.NoError(t, err)
	require.NoError(t, exec.Execute(context.Background(), act))

	senderAcc, _ := state.GetAccount(sender.PubKey())
	require.Equal(t, uint64(700), senderAcc.Balance)
	receiverAcc, _ := state.GetAccount(receiver.PubKey())
	require.Equal(t, uint64(300), receiverAcc.Balance)
}

func TestTransferInsufficientBalance(t *testing.T) {
	state := testutil.NewStateDB()
	sender, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, state.SetAccount(&core.Account{Address: sender.PubKey(), Balance: 10}))

	exec := engine.NewExecutor(state, events.NewEmitter(), engine.Options{Network: testNetwork})

	act, err := sender.Transfer(testNetwork, "cafe", 300, 0)
	require.NoError(t, err)
	execErr := exec.Execute(context.Background(), act)
	require.ErrorIs(t, execErr, core.ErrTransferFailed)

	acc, _ := state.GetAccount(sender.PubKey())
	require.Equal(t, uint64(10), acc.Balance)
	require.Zero(t, acc.Nonce, "failed transfer must not consume the nonce")
}

func TestTransferRejectsZeroAmount(t *testing.T) {
	state := testutil.NewStateDB()
	sender, err := wallet.Generate()
	require.NoError(t, err)
	require.NoError(t, state.SetAccount(&core.Account{Address: sender.PubKey(), Balance: 10}))

	exec := engine.NewExecutor(state, events.NewEmitter(), engine.Options{Network: testNetwork})

	act, err := sender.Transfer(testNetwork, "cafe", 0, 0)
	require.NoError(t, err)
	require.ErrorIs(t, exec.Execute(context.Background(), act), core.ErrInvalidAmount)
}

func TestCreditOverflowGuard(t *testing.T) {
	state := testutil.NewStateDB()
	require.NoError(t, state.SetAccount(&core.Account{Address: "rich", Balance: math.MaxUint64}))

	err := Credit(state, "rich", 1)
	require.ErrorIs(t, err, core.ErrTransferFailed)
}

func TestDebitCreditRoundTrip(t *testing.T) {
	state := testutil.NewStateDB()
	require.NoError(t, state.SetAccount(&core.Account{Address: "alice", Balance: 100}))

	require.NoError(t, Debit(state, "alice", 40))
	require.NoError(t, Credit(state, "bob", 40))

	alice, _ := state.GetAccount("alice")
	bob, _ := state.GetAccount("bob")
	require.Equal(t, uint64(60), alice.Balance)
	require.Equal(t, uint64(40), bob.Balance)
}
