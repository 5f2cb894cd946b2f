// Package history records the snapshots served by the preview server in a
// bbolt database, one bucket per app, so earlier states can be listed and
// fetched after the fact.
package history

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vango-dev/toyreact/internal/errors"
)

// Snapshot is one recorded render of an app.
type Snapshot struct {
	Seq     int       `json:"seq"`
	Version uint64    `json:"version"`
	At      time.Time `json:"at"`
	HTML    string    `json:"html,omitempty"`
}

// Store is a snapshot history backed by a bbolt file.
type Store struct {
	db     *bolt.DB
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLimit keeps at most n snapshots per app, dropping the oldest.
// Zero keeps everything.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open opens or creates the history file at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.New("E801").WithDetail(path).Wrap(err)
	}
	s := &Store{db: db, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a snapshot of app and returns its sequence number.
func (s *Store) Record(app string, version uint64, html string) (int, error) {
	var seq uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(app))
		if err != nil {
			return err
		}
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(Snapshot{Version: version, At: s.now().UTC(), HTML: html})
		if err != nil {
			return err
		}
		if err := b.Put(marshalSeq(seq), data); err != nil {
			return err
		}
		return s.trim(b)
	})
	if err != nil {
		return 0, errors.New("E801").WithDetailf("record %s", app).Wrap(err)
	}
	s.logger.Debug("history: recorded", "app", app, "seq", seq, "version", version)
	return int(seq), nil
}

// trim drops the oldest entries of b beyond the limit.
func (s *Store) trim(b *bolt.Bucket) error {
	if s.limit <= 0 {
		return nil
	}
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, slices.Clone(k))
	}
	for len(keys) > s.limit {
		if err := b.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

// List returns the snapshots of app, oldest first, without their HTML.
func (s *Store) List(app string) ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(app))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			snap, err := unmarshalSnapshot(k, v)
			if err != nil {
				return err
			}
			snap.HTML = ""
			snaps = append(snaps, snap)
			return nil
		})
	})
	if err != nil {
		return nil, errors.New("E801").WithDetailf("list %s", app).Wrap(err)
	}
	return snaps, nil
}

// Get returns a single snapshot of app.
func (s *Store) Get(app string, seq int) (Snapshot, error) {
	var (
		snap  Snapshot
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(app))
		if b == nil || seq <= 0 {
			return nil
		}
		v := b.Get(marshalSeq(uint64(seq)))
		if v == nil {
			return nil
		}
		var err error
		snap, err = unmarshalSnapshot(marshalSeq(uint64(seq)), v)
		found = err == nil
		return err
	})
	if err != nil {
		return Snapshot{}, errors.New("E801").WithDetailf("get %s/%d", app, seq).Wrap(err)
	}
	if !found {
		return Snapshot{}, errors.New("E802").WithDetailf("%s/%d", app, seq)
	}
	return snap, nil
}

// Apps lists the apps with recorded snapshots, sorted.
func (s *Store) Apps() ([]string, error) {
	var apps []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			apps = append(apps, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, errors.New("E801").Wrap(err)
	}
	slices.Sort(apps)
	return apps, nil
}

func unmarshalSnapshot(k, v []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(v, &snap); err != nil {
		return Snapshot{}, err
	}
	snap.Seq = int(unmarshalSeq(k))
	return snap, nil
}

func marshalSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unmarshalSeq(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}
