// checkpoint creates SweepIO which provides various operations with sweep checkpoints.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is key name for all parameters
var MAIN = []byte("main")

// Progress stores the state of a partially completed scale sweep.
type Progress struct {
	// Done is the number of grid points which finished simulating.
	Done int
	// ESJD keeps the expected squared jumping distance for every
	// finished point.
	ESJD []float64
	// AcceptanceRates keeps the acceptance rate for every finished
	// point.
	AcceptanceRates []float64
	// Times keeps the wall-clock seconds spent on every finished point.
	Times []float64
	// Final indicates that the whole sweep finished.
	Final bool
}

// SweepIO saves and loads sweep checkpoints.
type SweepIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewSweepIO creates a new SweepIO.
func NewSweepIO(db *bolt.DB, key []byte, seconds float64) (s *SweepIO) {
	s = &SweepIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
	return
}

// Save saves checkpoint to the database given all the values needed.
func (s *SweepIO) Save(p *Progress) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	dataB, err := json.Marshal(p)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return err
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
	}
	return err
}

// Load returns sweep progress from checkpoint.
func (s *SweepIO) Load() (*Progress, error) {
	var p *Progress

	b, err := LoadData(s.db, s.key)

	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &p)

	if err != nil {
		return nil, err
	}

	if p == nil || p.Done == 0 {
		return nil, nil
	}

	if p.Final {
		log.Noticef("Found finished sweep checkpoint (points=%v)", p.Done)
	} else {
		log.Noticef("Found unfinished sweep checkpoint (points=%v)", p.Done)
	}

	return p, nil
}

// Old returns true if last checkpoint save time too long ago.
func (s *SweepIO) Old() bool {
	if time.Since(s.last).Seconds() > s.seconds {
		return true
	}
	return false
}

// SetNow sets last checkpoint time to now.
func (s *SweepIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
