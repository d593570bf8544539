package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/thinkingspace/pkg/codec"
	"github.com/matzehuels/thinkingspace/pkg/errors"
	"github.com/matzehuels/thinkingspace/pkg/model"
	"github.com/matzehuels/thinkingspace/pkg/observability"
	"github.com/matzehuels/thinkingspace/pkg/store"
)

// DefaultSnapshotInterval is the period between automatic snapshots.
const DefaultSnapshotInterval = 30 * time.Second

// Snapshot is a timestamped copy of a document.
type Snapshot struct {
	SavedAt  time.Time
	Hash     string
	Document *model.Document
}

// snapshotEntry is the stored form of a Snapshot. Data holds the document
// in the record dialect.
type snapshotEntry struct {
	SavedAt time.Time       `json:"saved_at"`
	Hash    string          `json:"hash"`
	Data    json.RawMessage `json:"data"`
}

// Snapshotter keeps the most recent snapshot of a document in a store slot.
//
// The timer started by [Snapshotter.Start] only signals on [Snapshotter.Due];
// the event loop calls [Snapshotter.Save] in response, so the document is
// never read off the loop.
type Snapshotter struct {
	store    store.Store
	key      string
	interval time.Duration
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time

	due  chan time.Time
	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	lastHash string
}

// NewSnapshotter creates a snapshotter writing to key in st. A
// non-positive interval disables the timer; Save still works.
func NewSnapshotter(st store.Store, key string, interval, ttl time.Duration, logger *log.Logger) *Snapshotter {
	if logger == nil {
		logger = log.Default()
	}
	return &Snapshotter{
		store:    st,
		key:      key,
		interval: interval,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		due:      make(chan time.Time, 1),
		stop:     make(chan struct{}),
	}
}

// Key returns the store key of the snapshot slot.
func (s *Snapshotter) Key() string { return s.key }

// Start runs the timer until Stop. It is a no-op when the interval is not
// positive.
func (s *Snapshotter) Start() {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.run()
}

func (s *Snapshotter) run() {
	defer s.wg.Done()
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case tick := <-t.C:
			// A pending signal already covers this tick.
			select {
			case s.due <- tick:
			default:
			}
		}
	}
}

// Due delivers a value each time a snapshot should be taken.
func (s *Snapshotter) Due() <-chan time.Time { return s.due }

// Stop halts the timer and waits for it to exit. It is safe to call more
// than once.
func (s *Snapshotter) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Save stores doc unless its content equals the previous save. It reports
// whether anything was written.
func (s *Snapshotter) Save(ctx context.Context, doc *model.Document) (bool, error) {
	data, err := codec.Marshal(doc, codec.Record)
	if err != nil {
		return false, err
	}
	hash := store.Hash(data)
	if hash == s.lastHash {
		observability.Persistence().OnSnapshot(ctx, s.key, len(data), true, nil)
		return false, nil
	}
	entry, err := json.Marshal(snapshotEntry{SavedAt: s.now().UTC(), Hash: hash, Data: data})
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	err = s.store.Set(ctx, s.key, entry, s.ttl)
	observability.Persistence().OnSnapshot(ctx, s.key, len(entry), false, err)
	if err != nil {
		s.logger.Warn("snapshot failed", "key", s.key, "err", err)
		return false, err
	}
	s.lastHash = hash
	s.logger.Debug("snapshot saved", "key", s.key, "bytes", len(entry))
	return true, nil
}

// Latest returns the stored snapshot. It reports false when the slot is
// empty.
func (s *Snapshotter) Latest(ctx context.Context) (*Snapshot, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil || !ok {
		return nil, false, err
	}
	var entry snapshotEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeParse, err, "snapshot %s", s.key)
	}
	doc, err := codec.Unmarshal(entry.Data, codec.Record)
	if err != nil {
		return nil, false, err
	}
	return &Snapshot{SavedAt: entry.SavedAt, Hash: entry.Hash, Document: doc}, true, nil
}

// Clear empties the slot.
func (s *Snapshotter) Clear(ctx context.Context) error {
	s.lastHash = ""
	return s.store.Delete(ctx, s.key)
}
