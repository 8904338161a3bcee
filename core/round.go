package core

import (
	"encoding/json"

	"github.com/plurality-game/plurality/crypto"
)

// RoundRecord is the durable, hash-chained log entry written once per
// resolved round. LeelaMove is zero when the World's half-move ended the
// game before the opponent replied. Records are appended regardless of the
// round's outcome so the full move history is auditable.
type RoundRecord struct {
	GameID    uint64 `json:"game_id"`
	Round     uint64 `json:"round"`
	WorldMove uint16 `json:"world_move"`
	LeelaMove uint16 `json:"leela_move"`
	PrevHash  string `json:"prev_hash"`
	StateRoot string `json:"state_root"` // ledger root after applying the round
	Timestamp int64  `json:"timestamp"`
	Operator  string `json:"operator"` // operator's pubkey hex
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
}

// roundBody holds the fields covered by Hash and Signature.
type roundBody struct {
	GameID    uint64 `json:"game_id"`
	Round     uint64 `json:"round"`
	WorldMove uint16 `json:"world_move"`
	LeelaMove uint16 `json:"leela_move"`
	PrevHash  string `json:"prev_hash"`
	StateRoot string `json:"state_root"`
	Timestamp int64  `json:"timestamp"`
	Operator  string `json:"operator"`
}

// ComputeHash returns the SHA-256 hash of the serialised record body.
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (r *RoundRecord) ComputeHash() string {
	body := roundBody{
		GameID:    r.GameID,
		Round:     r.Round,
		WorldMove: r.WorldMove,
		LeelaMove: r.LeelaMove,
		PrevHash:  r.PrevHash,
		StateRoot: r.StateRoot,
		Timestamp: r.Timestamp,
		Operator:  r.Operator,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets Hash and signs the record with the operator's private key.
func (r *RoundRecord) Sign(priv crypto.PrivateKey) {
	r.Hash = r.ComputeHash()
	r.Signature = crypto.Sign(priv, []byte(r.Hash))
}

// Verify checks the record signature against the given public key.
func (r *RoundRecord) Verify(pub crypto.PublicKey) error {
	return crypto.Verify(pub, []byte(r.Hash), r.Signature)
}

// GenesisRoundHash is the canonical all-zeros previous hash for the first
// record of a fresh log.
const GenesisRoundHash = "0000000000000000000000000000000000000000000000000000000000000000"

// RoundStore persists the move log outside the snapshot-able ledger state.
type RoundStore interface {
	PutRound(r *RoundRecord) error
	GetRound(gameID, round uint64) (*RoundRecord, error)
	// Tip returns the hash of the most recent record, or "" for an empty log.
	Tip() (string, error)
	SetTip(hash string) error
}
