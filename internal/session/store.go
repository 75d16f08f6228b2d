package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoSession = errors.New("no active session")

// Record is the server-side session value: who is signed in. Group roles are
// cached next to it so permission checks avoid a database round trip, and
// everything disappears together on logout.
type Record struct {
	UserID    int       `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(userID int) string {
	return fmt.Sprintf("session:%d", userID)
}

func roleKey(userID int, groupID string) string {
	return fmt.Sprintf("session:%d:role:%s", userID, groupID)
}

func (s *Store) Save(ctx context.Context, userID int, email string) error {
	rec := Record{
		UserID:    userID,
		Email:     email,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(userID), data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, userID int) (*Record, error) {
	data, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the session and all cached group roles for the user.
func (s *Store) Delete(ctx context.Context, userID int) error {
	pattern := fmt.Sprintf("session:%d:role:*", userID)
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}

// CacheRole stores a resolved group role for the session's lifetime.
func (s *Store) CacheRole(ctx context.Context, userID int, groupID, role string) error {
	return s.rdb.Set(ctx, roleKey(userID, groupID), role, s.ttl).Err()
}

// CachedRole returns the cached role, or "" when none is cached.
func (s *Store) CachedRole(ctx context.Context, userID int, groupID string) (string, error) {
	role, err := s.rdb.Get(ctx, roleKey(userID, groupID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return role, nil
}
