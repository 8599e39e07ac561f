// File: services/chat/store.go
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cakebox/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "chat:sess:"

// RedisSessionStore keeps sessions in Redis with a sliding TTL. No state
// survives the TTL; conversations are ephemeral by design.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session models.ChatSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.ChatSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+session.ID, b, s.ttl).Err()
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// MemorySessionStore is an in-process store used in tests and single-node
// development setups.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.ChatSession)}
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	// Copy through JSON so callers never share mutable state with the store.
	b, err := json.Marshal(session)
	if err != nil {
		return nil, err
	}
	var out models.ChatSession
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *MemorySessionStore) Save(ctx context.Context, session *models.ChatSession) error {
	b, err := json.Marshal(session)
	if err != nil {
		return err
	}
	var copied models.ChatSession
	if err := json.Unmarshal(b, &copied); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &copied
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
