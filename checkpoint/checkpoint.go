// Package checkpoint persists optimization state in a bolt database
// so a long run can be interrupted and resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// bucket is the name of the bucket holding all the checkpoints.
var bucket = []byte("main")

// Record is a stored optimization state.
type Record struct {
	// Parameters holds the best parameter values so far.
	Parameters map[string]float64 `json:"parameters"`
	// LnL is the log-likelihood at Parameters.
	LnL float64 `json:"lnL"`
	// Iter is the iteration the record was saved at.
	Iter int `json:"iter"`
	// Final marks a finished optimization.
	Final bool `json:"final"`
}

// Store reads and writes checkpoint records under a fixed key. It
// implements optimize.CheckpointSaver. A Store with a nil database
// is valid and does nothing.
type Store struct {
	db     *bolt.DB
	key    []byte
	last   time.Time
	period time.Duration
}

// NewStore creates a checkpoint store writing under the given key
// no more often than the period allows.
func NewStore(db *bolt.DB, key string, period time.Duration) *Store {
	return &Store{
		db:     db,
		key:    []byte(key),
		period: period,
	}
}

// Open opens a bolt database for checkpointing.
func Open(path string) (*bolt.DB, error) {
	return bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
}

// Save stores the current best point. Even if saving fails the save
// time is updated, so a broken database does not flood the log.
func (s *Store) Save(parameters map[string]float64, lnL float64, iter int, final bool) error {
	s.Touch()
	if s.db == nil {
		return nil
	}
	rec := Record{
		Parameters: parameters,
		LnL:        lnL,
		Iter:       iter,
		Final:      final,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		log.Error("Error serializing checkpoint:", err)
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucket)
		if err != nil {
			return err
		}
		return b.Put(s.key, data)
	})
	if err != nil {
		log.Error("Error saving checkpoint:", err)
	}
	return err
}

// Load returns the stored record, or nil if there is none.
func (s *Store) Load() (*Record, error) {
	if s.db == nil {
		return nil, nil
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get(s.key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	if len(rec.Parameters) == 0 {
		return nil, nil
	}

	if rec.Final {
		log.Noticef("Found finished optimization checkpoint (iter=%v, lnL=%v)", rec.Iter, rec.LnL)
	} else {
		log.Noticef("Found unfinished optimization checkpoint (iter=%v, lnL=%v)", rec.Iter, rec.LnL)
	}
	return rec, nil
}

// Stale returns true if the last save was more than a period ago.
func (s *Store) Stale() bool {
	return time.Since(s.last) > s.period
}

// Touch sets the last save time to now.
func (s *Store) Touch() {
	s.last = time.Now()
}
