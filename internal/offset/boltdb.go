package offset

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/SteelMorgan/logtailn/internal/domain"
	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
)

const (
	bucketName = "offsets"

	// inode (8 bytes) + offset (8 bytes), big endian
	valueSize = 16
)

// BoltDBStore implements Store using BoltDB.
// Several logical streams can share one database, each under its own key.
type BoltDBStore struct {
	db  *bbolt.DB
	key string
}

// NewBoltDBStore opens (or creates) the database at dbPath and binds the store to key
func NewBoltDBStore(dbPath, key string) (*BoltDBStore, error) {
	// Short timeout: bbolt holds an exclusive flock while the database is open
	db, err := bbolt.Open(dbPath, stateFileMode, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLocked, dbPath)
		}
		return nil, fmt.Errorf("%w: failed to open boltdb %s: %w", domain.ErrCannotCreate, dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create bucket: %w", domain.ErrCannotCreate, err)
	}

	log.Debug().
		Str("db_path", dbPath).
		Str("key", key).
		Msg("BoltDB offset store initialized")

	return &BoltDBStore{db: db, key: key}, nil
}

// Path returns the key the state is stored under
func (s *BoltDBStore) Path() string {
	return s.key
}

// Load retrieves the state stored under the store key
func (s *BoltDBStore) Load(ctx context.Context) (domain.PersistedState, error) {
	var state domain.PersistedState

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		val := b.Get([]byte(s.key))
		if val == nil {
			return nil
		}

		decoded, err := decodeValue(val)
		if err != nil {
			return err
		}
		state = decoded
		return nil
	})

	if err != nil {
		return domain.PersistedState{}, fmt.Errorf("failed to get offset for %s: %w", s.key, err)
	}

	return state, nil
}

// Save stores the state under the store key
func (s *BoltDBStore) Save(ctx context.Context, state domain.PersistedState) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(s.key), encodeValue(state))
	})

	if err != nil {
		return fmt.Errorf("%w: failed to set offset for %s: %w", domain.ErrCannotCreate, s.key, err)
	}

	log.Debug().
		Str("key", s.key).
		Uint64("inode", state.Identity).
		Int64("offset", state.Offset).
		Msg("Offset updated")

	return nil
}

// Close closes the BoltDB database
func (s *BoltDBStore) Close() error {
	return s.db.Close()
}

func encodeValue(state domain.PersistedState) []byte {
	val := make([]byte, valueSize)
	binary.BigEndian.PutUint64(val[:8], state.Identity)
	binary.BigEndian.PutUint64(val[8:], uint64(state.Offset))
	return val
}

func decodeValue(val []byte) (domain.PersistedState, error) {
	if len(val) != valueSize {
		return domain.PersistedState{}, fmt.Errorf("%w: value is %d bytes", domain.ErrInvalidFormat, len(val))
	}

	offset := int64(binary.BigEndian.Uint64(val[8:]))
	if offset < 0 {
		return domain.PersistedState{}, fmt.Errorf("%w: negative offset %d", domain.ErrInvalidFormat, offset)
	}

	return domain.PersistedState{
		Identity: binary.BigEndian.Uint64(val[:8]),
		Offset:   offset,
	}, nil
}
