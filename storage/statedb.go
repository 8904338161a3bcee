package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/crypto"
)

// registerPrefix records a state-key prefix into statePrefixes so that
// ComputeRoot() always covers it.  All prefix constants must be declared
// via this function; manually editing statePrefixes is not required.
func registerPrefix(p string) string {
	statePrefixes = append(statePrefixes, p)
	return p
}

// statePrefixes is populated automatically by registerPrefix() below.
// ComputeRoot() iterates these prefixes to build the full world-state view.
var statePrefixes []string

var (
	prefixAccount  = registerPrefix("acct:")
	prefixGame     = registerPrefix("game:")
	prefixPosition = registerPrefix("pos:")
	prefixBallot   = registerPrefix("ballot:")
	prefixMeta     = registerPrefix("meta:")
)

const (
	keyCurrentGame = "meta:current_game"
	keyParams      = "meta:params"
)

type stateSnapshot struct {
	dirty   map[string][]byte
	deleted map[string]bool
}

// StateDB implements core.State on top of a DB with in-memory write buffer,
// snapshot/rollback, and deterministic state-root computation. Writers are
// serialized by the executor's guard, but RPC queries read from arbitrary
// goroutines, so the write buffer is protected by an RWMutex.
type StateDB struct {
	mu        sync.RWMutex
	db        DB
	dirty     map[string][]byte
	deleted   map[string]bool
	snapshots []stateSnapshot
}

// NewStateDB creates a StateDB backed by db.
func NewStateDB(db DB) *StateDB {
	return &StateDB{
		db:      db,
		dirty:   make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// ---- internal helpers ----

func (s *StateDB) get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deleted[key] {
		return nil, core.ErrNotFound
	}
	if v, ok := s.dirty[key]; ok {
		return v, nil
	}
	return s.db.Get([]byte(key))
}

func (s *StateDB) set(key string, val []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleted, key)
	s.dirty[key] = val
}

func (s *StateDB) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.set(key, data)
	return nil
}

// ---- Account ----

func (s *StateDB) GetAccount(address string) (*core.Account, error) {
	data, err := s.get(prefixAccount + address)
	if errors.Is(err, core.ErrNotFound) {
		return &core.Account{Address: address}, nil // zero-value account
	}
	if err != nil {
		return nil, err
	}
	var acc core.Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *StateDB) SetAccount(acc *core.Account) error {
	return s.putJSON(prefixAccount+acc.Address, acc)
}

// ---- Game ----

func (s *StateDB) CurrentGameID() (uint64, error) {
	data, err := s.get(keyCurrentGame)
	if errors.Is(err, core.ErrNotFound) {
		return 0, nil // no game started yet
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(data), 10, 64)
}

func (s *StateDB) SetCurrentGameID(id uint64) error {
	s.set(keyCurrentGame, []byte(strconv.FormatUint(id, 10)))
	return nil
}

func (s *StateDB) GetGame(id uint64) (*core.Game, error) {
	data, err := s.get(prefixGame + strconv.FormatUint(id, 10))
	if err != nil {
		return nil, err
	}
	var g core.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *StateDB) SetGame(g *core.Game) error {
	return s.putJSON(prefixGame+strconv.FormatUint(g.ID, 10), g)
}

// ---- Position ----

func positionKey(gameID uint64, address string) string {
	return prefixPosition + strconv.FormatUint(gameID, 10) + ":" + address
}

func (s *StateDB) GetPosition(gameID uint64, address string) (*core.Position, error) {
	data, err := s.get(positionKey(gameID, address))
	if errors.Is(err, core.ErrNotFound) {
		return &core.Position{GameID: gameID, Address: address}, nil // zero-value position
	}
	if err != nil {
		return nil, err
	}
	var p core.Position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StateDB) SetPosition(p *core.Position) error {
	return s.putJSON(positionKey(p.GameID, p.Address), p)
}

// ---- Ballot ----

func ballotKey(gameID, round uint64) string {
	return prefixBallot + strconv.FormatUint(gameID, 10) + ":" + strconv.FormatUint(round, 10)
}

func (s *StateDB) GetBallot(gameID, round uint64) (*core.Ballot, error) {
	data, err := s.get(ballotKey(gameID, round))
	if errors.Is(err, core.ErrNotFound) {
		return core.NewBallot(gameID, round), nil // empty ballot
	}
	if err != nil {
		return nil, err
	}
	var b core.Ballot
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.Tally == nil {
		b.Tally = make(map[uint16]uint64)
	}
	if b.Voted == nil {
		b.Voted = make(map[string]uint16)
	}
	return &b, nil
}

func (s *StateDB) SetBallot(b *core.Ballot) error {
	return s.putJSON(ballotKey(b.GameID, b.Round), b)
}

// ---- Params ----

func (s *StateDB) GetParams() (*core.Params, error) {
	data, err := s.get(keyParams)
	if err != nil {
		return nil, err
	}
	var p core.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *StateDB) SetParams(p *core.Params) error {
	return s.putJSON(keyParams, p)
}

// ---- Snapshot / Rollback / Commit ----

// Snapshot saves the current write buffer and returns a snapshot ID.
func (s *StateDB) Snapshot() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := stateSnapshot{
		dirty:   make(map[string][]byte, len(s.dirty)),
		deleted: make(map[string]bool, len(s.deleted)),
	}
	for k, v := range s.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		snap.dirty[k] = cp
	}
	for k, v := range s.deleted {
		snap.deleted[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return len(s.snapshots) - 1, nil
}

// RevertToSnapshot restores the write buffer to a previously saved snapshot.
// The snapshot maps are deep-copied so that subsequent writes cannot corrupt them.
func (s *StateDB) RevertToSnapshot(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.snapshots) {
		return fmt.Errorf("invalid snapshot id %d", id)
	}
	snap := s.snapshots[id]

	dirty := make(map[string][]byte, len(snap.dirty))
	for k, v := range snap.dirty {
		cp := make([]byte, len(v))
		copy(cp, v)
		dirty[k] = cp
	}
	deleted := make(map[string]bool, len(snap.deleted))
	for k, v := range snap.deleted {
		deleted[k] = v
	}

	s.dirty = dirty
	s.deleted = deleted
	s.snapshots = s.snapshots[:id]
	return nil
}

// ComputeRoot returns the deterministic hash of the complete ledger state.
// It merges all persisted state entries (scanned from DB by the known state
// prefixes) with the current write buffer, then hashes the sorted key-value
// pairs using length-prefix encoding.  It does NOT flush or modify state,
// so it is safe to call mid-action before signing a round record.
func (s *StateDB) ComputeRoot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Step 1: collect all persisted state entries from DB.
	merged := make(map[string][]byte)
	for _, prefix := range statePrefixes {
		it := s.db.NewIterator([]byte(prefix))
		for it.Next() {
			k := string(it.Key())
			v := make([]byte, len(it.Value()))
			copy(v, it.Value())
			merged[k] = v
		}
		it.Release()
	}

	// Step 2: apply in-memory write buffer (uncommitted changes this action).
	for k, v := range s.dirty {
		merged[k] = v
	}

	// Step 3: exclude deleted keys.
	for k := range s.deleted {
		delete(merged, k)
	}

	// Step 4: sort keys for determinism.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Step 5: length-prefix encode each key-value pair and hash.
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, k := range keys {
		v := merged[k]
		kb := []byte(k)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(kb)))
		buf.Write(lenBuf[:])
		buf.Write(kb)
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(v)))
		buf.Write(lenBuf[:])
		buf.Write(v)
	}
	return crypto.Hash(buf.Bytes())
}

// Commit atomically flushes the write buffer to the underlying DB via a
// write batch and then clears it, discarding any outstanding snapshots.
func (s *StateDB) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.db.NewBatch()
	for k, v := range s.dirty {
		batch.Set([]byte(k), v)
	}
	for k := range s.deleted {
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.dirty = make(map[string][]byte)
	s.deleted = make(map[string]bool)
	s.snapshots = nil
	return nil
}
