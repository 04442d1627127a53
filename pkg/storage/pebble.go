package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/versemark/versemark/pkg/index"
)

// PebbleStore keeps read markers in a pebble key-value store, one key per
// marker. Users and sessions stay in sqlite.
type PebbleStore struct {
	db *pebble.DB
}

var _ ProgressStore = (*PebbleStore)(nil)

// OpenPebble opens or creates a pebble store at dir.
func OpenPebble(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *PebbleStore) ReadProgress(ctx context.Context, userID string) (index.Progress, error) {
	if s.db == nil {
		return nil, errors.New("pebble store is closed")
	}
	lower, upper := progressBounds(userID)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	p := index.Progress{}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if key, ok := entryKeyFrom(userID, iter.Key()); ok {
			p[key] = true
		}
	}
	return p, iter.Error()
}

// ApplyPatch writes the whole patch as one synced batch.
func (s *PebbleStore) ApplyPatch(ctx context.Context, userID string, patch index.Patch) error {
	if s.db == nil {
		return errors.New("pebble store is closed")
	}
	if len(patch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := s.db.NewBatch()
	defer batch.Close()

	readAt := []byte(strconv.FormatInt(time.Now().UTC().Unix(), 10))
	for key, read := range patch {
		var err error
		if read {
			err = batch.Set(progressKey(userID, key), readAt, nil)
		} else {
			err = batch.Delete(progressKey(userID, key), nil)
		}
		if err != nil {
			return err
		}
	}
	return s.db.Apply(batch, pebble.Sync)
}
