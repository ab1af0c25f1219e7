package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-quiz-service/internal/domain"
)

// SessionStore keeps each user's SessionState as a JSON value with a TTL, so
// sessions survive restarts and are shared between instances.
// Abandoned sessions simply expire.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, userID string) (domain.SessionState, bool, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	return decodeSession(data, err)
}

func (s *SessionStore) Save(ctx context.Context, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(state.UserID), data, s.ttl).Err()
}

// Advance writes next under WATCH so it only lands while prev is still stored.
func (s *SessionStore) Advance(ctx context.Context, prev, next domain.SessionState) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := s.key(prev.UserID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, ok, err := decodeSession(tx.Get(ctx, key).Bytes())
		if err != nil {
			return err
		}
		if !ok || !current.SamePosition(prev) {
			return domain.ErrSessionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return domain.ErrSessionConflict
	}
	return err
}

// Take uses GETDEL so only one caller can claim a session.
func (s *SessionStore) Take(ctx context.Context, userID string) (domain.SessionState, bool, error) {
	data, err := s.client.GetDel(ctx, s.key(userID)).Bytes()
	return decodeSession(data, err)
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *SessionStore) key(userID string) string {
	return "quiz:session:" + userID
}

func decodeSession(data []byte, err error) (domain.SessionState, bool, error) {
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, err
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return state, true, nil
}
