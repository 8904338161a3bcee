package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/plurality-game/plurality/crypto"
)

// ActionType identifies the kind of operation an action performs.
type ActionType string

const (
	ActionTransfer     ActionType = "transfer"
	ActionStake        ActionType = "stake"
	ActionCastVote     ActionType = "cast_vote"
	ActionClaimPayout  ActionType = "claim_payout"
	ActionStartGame    ActionType = "start_game"
	ActionOpenStaking  ActionType = "open_staking"
	ActionResolveRound ActionType = "resolve_round"
	ActionSetParams    ActionType = "set_params"
)

// Action is the atomic unit of work against the game ledger.
// From holds the sender's full hex-encoded ed25519 public key (64 chars).
// Network binds the action to one node instance so it cannot be replayed
// elsewhere. Signature covers all fields except Signature itself.
type Action struct {
	ID        string          `json:"id"`
	Type      ActionType      `json:"type"`
	Network   string          `json:"network"`
	From      string          `json:"from"` // hex-encoded ed25519 public key
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields that are covered by the signature.
type signingBody struct {
	Type      ActionType      `json:"type"`
	Network   string          `json:"network"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the action (sans Signature).
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (a *Action) Hash() string {
	body := signingBody{
		Type:      a.Type,
		Network:   a.Network,
		From:      a.From,
		Nonce:     a.Nonce,
		Timestamp: a.Timestamp,
		Payload:   a.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign computes the signature and sets ID.
func (a *Action) Sign(priv crypto.PrivateKey) {
	hash := a.Hash()
	a.Signature = crypto.Sign(priv, []byte(hash))
	a.ID = hash
}

// Verify checks the signature and that From is a valid public key.
func (a *Action) Verify() error {
	if a.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(a.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	return crypto.Verify(pub, []byte(a.Hash()), a.Signature)
}

// NewAction creates an unsigned action with the current timestamp.
func NewAction(network string, typ ActionType, from string, nonce uint64, payload any) (*Action, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Action{
		Type:      typ,
		Network:   network,
		From:      from,
		Nonce:     nonce,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// ---- Payload types ----

// TransferPayload moves native tokens between accounts.
type TransferPayload struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// StakePayload stakes funds on one side of the live game.
type StakePayload struct {
	Side   Side   `json:"side"`
	Amount uint64 `json:"amount"`
}

// CastVotePayload votes for the World's next move in the current round.
type CastVotePayload struct {
	Move uint16 `json:"move"`
}

// ClaimPayoutPayload claims the sender's payout from an ended game.
type ClaimPayoutPayload struct {
	GameID uint64 `json:"game_id"`
}

// StartGamePayload starts the next game (owner only). Pools are seeded from
// the configured seed value by a real debit of the owner's account.
type StartGamePayload struct{}

// OpenStakingPayload opens or extends the live game's staking window (owner only).
type OpenStakingPayload struct {
	Duration int64 `json:"duration"` // seconds from now
}

// ResolveRoundPayload resolves the current round (owner only).
type ResolveRoundPayload struct{}

// SetParamsPayload updates settings applied to the next game (owner only).
// Nil fields are left unchanged.
type SetParamsPayload struct {
	MinStake    *uint64 `json:"min_stake,omitempty"`
	SeedValue   *uint64 `json:"seed_value,omitempty"`
	StakePeriod *int64  `json:"stake_period,omitempty"` // seconds
}
