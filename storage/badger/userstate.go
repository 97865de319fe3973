package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/tastevec/core"
	"github.com/poiesic/tastevec/storage"
)

// UserStateRepository implements storage.UserStateRepository for BadgerDB.
type UserStateRepository struct {
	backend *Backend
}

var _ storage.UserStateRepository = (*UserStateRepository)(nil)

// NewUserStateRepository creates a new UserStateRepository.
func NewUserStateRepository(backend *Backend) (*UserStateRepository, error) {
	return &UserStateRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *UserStateRepository) Close() error {
	return nil
}

// Save persists the current state for one user, overwriting any
// previous vector.
func (r *UserStateRepository) Save(ctx context.Context, state *core.UserState) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeUserStateKey(state.UserID)
		value := storage.MarshalUserState(state)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get retrieves one user's state.
func (r *UserStateRepository) Get(ctx context.Context, userID string) (*core.UserState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var state *core.UserState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeUserStateKey(userID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			state, err = storage.UnmarshalUserState(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// LoadAll returns every persisted user state.
func (r *UserStateRepository) LoadAll(ctx context.Context) ([]*core.UserState, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var states []*core.UserState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userStatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var state *core.UserState
			err := iter.Item().Value(func(val []byte) error {
				var err error
				state, err = storage.UnmarshalUserState(val)
				return err
			})
			if err != nil {
				return err
			}
			states = append(states, state)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return states, nil
}
