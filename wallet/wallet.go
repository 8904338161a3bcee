package wallet

import (
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/crypto"
)

// Wallet holds a key pair and provides action-building helpers.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key (used as "from" address).
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the short human-readable address (first 20 bytes of SHA-256(pubkey)).
func (w *Wallet) Address() string {
	return w.pub.Address()
}

// NewAction creates a signed action. network must match the target node and
// nonce the account's current nonce.
func (w *Wallet) NewAction(network string, typ core.ActionType, nonce uint64, payload any) (*core.Action, error) {
	act, err := core.NewAction(network, typ, w.pub.Hex(), nonce, payload)
	if err != nil {
		return nil, err
	}
	act.Sign(w.priv)
	return act, nil
}

// Transfer creates a signed native-token transfer.
func (w *Wallet) Transfer(network, to string, amount, nonce uint64) (*core.Action, error) {
	return w.NewAction(network, core.ActionTransfer, nonce, core.TransferPayload{
		To:     to,
		Amount: amount,
	})
}

// Stake creates a signed stake on the given side of the live game.
func (w *Wallet) Stake(network string, side core.Side, amount, nonce uint64) (*core.Action, error) {
	return w.NewAction(network, core.ActionStake, nonce, core.StakePayload{
		Side:   side,
		Amount: amount,
	})
}

// CastVote creates a signed vote for the World's next move.
func (w *Wallet) CastVote(network string, move uint16, nonce uint64) (*core.Action, error) {
	return w.NewAction(network, core.ActionCastVote, nonce, core.CastVotePayload{Move: move})
}

// ClaimPayout creates a signed payout claim against an ended game.
func (w *Wallet) ClaimPayout(network string, gameID, nonce uint64) (*core.Action, error) {
	return w.NewAction(network, core.ActionClaimPayout, nonce, core.ClaimPayoutPayload{GameID: gameID})
}
