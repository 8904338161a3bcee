package storage

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/plurality-game/plurality/core"
)

// LevelDB implements DB using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB opens (or creates) a LevelDB database at path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return &LevelDB{db: db}, nil
}

func (l *LevelDB) Get(key []byte) ([]byte, error) {
	val, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, core.ErrNotFound
	}
	return val, err
}

func (l *LevelDB) Set(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *LevelDB) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *LevelDB) NewIterator(prefix []byte) Iterator {
	return l.db.NewIterator(util.BytesPrefix(prefix), nil)
}

func (l *LevelDB) NewBatch() Batch {
	return &levelBatch{db: l.db, batch: new(leveldb.Batch)}
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}

// levelBatch wraps leveldb.Batch behind the storage.Batch interface.
type levelBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelBatch) Set(key, value []byte) { b.batch.Put(key, value) }
func (b *levelBatch) Delete(key []byte)     { b.batch.Delete(key) }
func (b *levelBatch) Reset()                { b.batch.Reset() }
func (b *levelBatch) Write() error          { return b.db.Write(b.batch, nil) }

// ---- RoundStore implementation ----

// RoundLog implements core.RoundStore on top of a DB. Records are keyed by
// (game, round) and chained through the tip pointer.
type RoundLog struct {
	db DB
}

// NewRoundLog wraps a DB as a RoundStore.
func NewRoundLog(db DB) *RoundLog {
	return &RoundLog{db: db}
}

func roundKey(gameID, round uint64) []byte {
	return []byte(fmt.Sprintf("round:%d:%d", gameID, round))
}

func (s *RoundLog) PutRound(r *core.RoundRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Set(roundKey(r.GameID, r.Round), data)
}

func (s *RoundLog) GetRound(gameID, round uint64) (*core.RoundRecord, error) {
	data, err := s.db.Get(roundKey(gameID, round))
	if err != nil {
		return nil, err
	}
	var r core.RoundRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RoundLog) Tip() (string, error) {
	val, err := s.db.Get([]byte("roundlog:tip"))
	if err == core.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (s *RoundLog) SetTip(hash string) error {
	return s.db.Set([]byte("roundlog:tip"), []byte(hash))
}
