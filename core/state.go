package core

// Account holds a participant's native-token balance and replay-protection
// nonce. Address is the hex-encoded ed25519 public key.
type Account struct {
	Address string `json:"address"` // pubkey hex
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// Side identifies one of the two competing parties.
type Side string

const (
	SideWorld Side = "world" // crowd-voted
	SideLeela Side = "leela" // oracle-driven
)

// Valid reports whether s names one of the two sides.
func (s Side) Valid() bool { return s == SideWorld || s == SideLeela }

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideWorld {
		return SideLeela
	}
	return SideWorld
}

// Phase is a game's lifecycle state.
type Phase string

const (
	PhaseStaking   Phase = "staking"   // live: stakes (until the deadline) and votes accepted
	PhaseResolving Phase = "resolving" // a round resolution is applying moves
	PhaseEnded     Phase = "ended"     // terminal: payout claims accepted
)

// Winner of an ended game. WinnerUndecided on an ended game means the game
// was drawn; claims then refund each participant's own stake.
type Winner string

const (
	WinnerUndecided Winner = "undecided"
	WinnerWorld     Winner = "world"
	WinnerLeela     Winner = "leela"
)

// Game is one staking match. Ended games are kept forever so payout claims
// can never race the start of the next game: a "reset" is simply a fresh
// Game record under the next ID.
type Game struct {
	ID            uint64 `json:"id"`
	Phase         Phase  `json:"phase"`
	Winner        Winner `json:"winner"`
	MinStake      uint64 `json:"min_stake"`
	SeedValue     uint64 `json:"seed_value"`     // per-side share-price baseline, funded by the house
	StakeDeadline int64  `json:"stake_deadline"` // unix nanoseconds; stakes rejected afterwards
	Round         uint64 `json:"round"`          // current move index
	WorldPool     uint64 `json:"world_pool"`
	LeelaPool     uint64 `json:"leela_pool"`
	Claimed       uint64 `json:"claimed"` // cumulative payouts since the game ended
	CreatedAt     int64  `json:"created_at"`
	EndedAt       int64  `json:"ended_at"`
}

// PoolSize returns the current pool value attributed to side.
func (g *Game) PoolSize(side Side) uint64 {
	if side == SideWorld {
		return g.WorldPool
	}
	return g.LeelaPool
}

// Position is a participant's per-game stake and share bookkeeping. A
// participant may hold stake on both sides at once; that is intentional.
// Records are zeroed on claim but never deleted, for auditability.
type Position struct {
	GameID      uint64 `json:"game_id"`
	Address     string `json:"address"` // pubkey hex
	WorldStake  uint64 `json:"world_stake"`
	LeelaStake  uint64 `json:"leela_stake"`
	WorldShares uint64 `json:"world_shares"`
	LeelaShares uint64 `json:"leela_shares"`
}

// TotalStake is the participant's combined staked capital, which is also
// their voting power for the World's move regardless of side.
func (p *Position) TotalStake() uint64 { return p.WorldStake + p.LeelaStake }

// Ballot is one round's vote tally. Candidates preserves first-vote order so
// winning-move iteration is bounded and ties resolve deterministically to the
// first move that reached the maximum.
type Ballot struct {
	GameID     uint64            `json:"game_id"`
	Round      uint64            `json:"round"`
	Tally      map[uint16]uint64 `json:"tally"`      // move → accumulated weight
	Candidates []uint16          `json:"candidates"` // moves with ≥1 vote, first-seen order
	Voted      map[string]uint16 `json:"voted"`      // address → move voted this round
}

// NewBallot creates an empty ballot for (gameID, round).
func NewBallot(gameID, round uint64) *Ballot {
	return &Ballot{
		GameID: gameID,
		Round:  round,
		Tally:  make(map[uint16]uint64),
		Voted:  make(map[string]uint16),
	}
}

// Params are the operator-tunable settings applied to the next game.
type Params struct {
	MinStake    uint64 `json:"min_stake"`
	SeedValue   uint64 `json:"seed_value"`
	StakePeriod int64  `json:"stake_period"` // seconds
}

// State is the full ledger interface. Implementations must be snapshot-able
// so the executor can roll back failed actions in their entirety.
type State interface {
	// Accounts. GetAccount returns a zero-value account for unknown addresses.
	GetAccount(address string) (*Account, error)
	SetAccount(account *Account) error

	// Games. CurrentGameID returns 0 when no game has ever been started.
	CurrentGameID() (uint64, error)
	SetCurrentGameID(id uint64) error
	GetGame(id uint64) (*Game, error)
	SetGame(g *Game) error

	// Positions. GetPosition returns a zero-value position when absent.
	GetPosition(gameID uint64, address string) (*Position, error)
	SetPosition(p *Position) error

	// Ballots. GetBallot returns an empty ballot when absent.
	GetBallot(gameID, round uint64) (*Ballot, error)
	SetBallot(b *Ballot) error

	// Operator parameters for the next game.
	GetParams() (*Params, error)
	SetParams(p *Params) error

	// Snapshot / rollback / commit.
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing. Round records embed it for auditability.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	Commit() error
}
