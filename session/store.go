package session

import (
	"context"

	"github.com/jrsteele09/property-portal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store is the only writer of session keys. Reads validate the all-or-nothing invariant.
type Store struct {
	repo storage.Repo
}

// NewStore wraps a storage repo
func NewStore(repo storage.Repo) *Store {
	return &Store{repo: repo}
}

// Load reads the persisted session. A missing token yields ErrNoSession; a token with
// a missing or unknown role (or any other broken field) clears storage and yields
// ErrInvalidSession.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	values, err := s.repo.GetAll(ctx, Keys...)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Load] repo.GetAll")
	}

	if values[KeyToken] == "" {
		if len(values) > 0 {
			// Leftovers without a token are never a session
			if err := s.Clear(ctx); err != nil {
				return nil, err
			}
		}
		return nil, ErrNoSession
	}

	sess, err := fromValues(values)
	if err != nil {
		log.Warn().Err(err).Msg("Discarding partial session")
		if clearErr := s.Clear(ctx); clearErr != nil {
			return nil, clearErr
		}
		return nil, errors.Wrap(ErrInvalidSession, err.Error())
	}
	return sess, nil
}

// Exists reports whether a token is stored, without validating the rest.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	v, ok, err := s.repo.Get(ctx, KeyToken)
	if err != nil {
		return false, errors.Wrap(err, "[Store.Exists] repo.Get")
	}
	return ok && v != "", nil
}

// Save validates sess and writes every key in one step.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if err := sess.Validate(); err != nil {
		return errors.Wrap(ErrInvalidSession, err.Error())
	}
	if err := s.repo.SetAll(ctx, sess.values()); err != nil {
		return errors.Wrap(err, "[Store.Save] repo.SetAll")
	}
	return nil
}

// Clear removes every session key in one step.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, Keys...); err != nil {
		return errors.Wrap(err, "[Store.Clear] repo.Delete")
	}
	return nil
}
