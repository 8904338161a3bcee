// Package indexer maintains per-participant history (stakes, votes, payouts)
// from the event stream so clients can query it without scanning full state.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/events"
	"github.com/plurality-game/plurality/storage"
)

const (
	prefixStakes  = "idx:stakes:"
	prefixVotes   = "idx:votes:"
	prefixPayouts = "idx:payouts:"

	cacheSize = 512
)

// Entry is one recorded participant event.
type Entry struct {
	EventID string         `json:"event_id"`
	GameID  uint64         `json:"game_id"`
	Data    map[string]any `json:"data"`
}

// Indexer subscribes to game events and updates secondary lookup tables.
// Reads go through a small LRU that is invalidated on every write.
type Indexer struct {
	db    storage.DB
	cache *lru.Cache
}

// New creates an Indexer backed by db and subscribes to relevant events.
func New(db storage.DB, emitter *events.Emitter) (*Indexer, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	idx := &Indexer{db: db, cache: cache}
	emitter.Subscribe(events.EventStakeRecorded, idx.record(prefixStakes))
	emitter.Subscribe(events.EventVoteRecorded, idx.record(prefixVotes))
	emitter.Subscribe(events.EventPayoutSent, idx.record(prefixPayouts))
	return idx, nil
}

// StakesBy returns the participant's recorded stakes, oldest first.
func (idx *Indexer) StakesBy(address string) ([]Entry, error) {
	return idx.getList(prefixStakes + address)
}

// VotesBy returns the participant's recorded votes, oldest first.
func (idx *Indexer) VotesBy(address string) ([]Entry, error) {
	return idx.getList(prefixVotes + address)
}

// PayoutsTo returns the payouts sent to the participant, oldest first.
func (idx *Indexer) PayoutsTo(address string) ([]Entry, error) {
	return idx.getList(prefixPayouts + address)
}

// record builds an event handler appending entries under prefix+participant.
func (idx *Indexer) record(prefix string) events.Handler {
	return func(ev events.Event) {
		participant, _ := ev.Data["participant"].(string)
		if participant == "" {
			return
		}
		_ = idx.addToList(prefix+participant, Entry{
			EventID: ev.ID,
			GameID:  ev.GameID,
			Data:    ev.Data,
		})
	}
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]Entry, error) {
	if cached, ok := idx.cache.Get(key); ok {
		return cached.([]Entry), nil
	}
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil // empty list
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	idx.cache.Add(key, entries)
	return entries, nil
}

func (idx *Indexer) addToList(key string, e Entry) error {
	entries, _ := idx.getList(key)
	entries = append(entries, e)
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	idx.cache.Remove(key)
	return idx.db.Set([]byte(key), data)
}
