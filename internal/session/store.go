package session

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/circuitbreaker"
	"github.com/rutopia/productobot/internal/metrics"
)

const lockStripes = 64

// Store persists conversations in Redis with a local read cache in front.
// Concurrent turns on the same identity serialize through a striped mutex,
// so two platform events for one thread can never interleave their
// read-modify-write cycles.
type Store struct {
	client   *circuitbreaker.RedisWrapper
	logger   *zap.Logger
	ttl      time.Duration
	maxLocal int

	mu          sync.RWMutex
	localCache  map[string]*Conversation
	cacheAccess map[string]time.Time

	locks [lockStripes]sync.Mutex
}

// NewStore builds a conversation store. client may be nil for a purely
// in-memory store (tests, degraded mode).
func NewStore(client *circuitbreaker.RedisWrapper, ttl time.Duration, logger *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		client:      client,
		logger:      logger,
		ttl:         ttl,
		maxLocal:    10000,
		localCache:  make(map[string]*Conversation),
		cacheAccess: make(map[string]time.Time),
	}
}

// Lock serializes turns on one conversation identity. The returned
// function releases the lock.
func (s *Store) Lock(id Identity) func() {
	h := fnv.New32a()
	h.Write([]byte(id.Key()))
	m := &s.locks[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// GetOrCreate returns the conversation for an identity, creating it on
// first contact.
func (s *Store) GetOrCreate(ctx context.Context, id Identity) (*Conversation, error) {
	conv, err := s.Get(ctx, id)
	if err == nil {
		return conv, nil
	}
	if err != ErrConversationNotFound && err != ErrConversationExpired {
		return nil, err
	}

	now := time.Now()
	conv = &Conversation{
		ID:        uuid.New().String(),
		Channel:   id.Channel,
		Thread:    id.Thread,
		History:   make([]Message, 0),
		FirstSeen: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.save(ctx, id, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.logger.Info("Created conversation",
		zap.String("conversation_id", conv.ID),
		zap.String("identity", id.Key()))
	metrics.ConversationsCreated.Inc()
	return conv, nil
}

// Get returns the conversation for an identity.
func (s *Store) Get(ctx context.Context, id Identity) (*Conversation, error) {
	key := id.Key()

	s.mu.RLock()
	conv, ok := s.localCache[key]
	s.mu.RUnlock()
	if ok {
		metrics.ConversationCacheHits.Inc()
		if conv.IsExpired() {
			_ = s.Delete(ctx, id)
			return nil, ErrConversationExpired
		}
		s.mu.Lock()
		s.cacheAccess[key] = time.Now()
		s.mu.Unlock()
		return conv.clone(), nil
	}
	metrics.ConversationCacheMisses.Inc()

	if s.client == nil {
		return nil, ErrConversationNotFound
	}
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrConversationNotFound
	} else if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var loaded Conversation
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	if loaded.IsExpired() {
		_ = s.Delete(ctx, id)
		return nil, ErrConversationExpired
	}

	s.cacheLocally(key, &loaded)
	return loaded.clone(), nil
}

// Update persists a modified conversation.
func (s *Store) Update(ctx context.Context, id Identity, conv *Conversation) error {
	if conv == nil {
		return fmt.Errorf("conversation is nil")
	}
	conv.UpdatedAt = time.Now()
	return s.save(ctx, id, conv)
}

// Delete removes a conversation.
func (s *Store) Delete(ctx context.Context, id Identity) error {
	key := id.Key()
	if s.client != nil {
		if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
	}
	s.mu.Lock()
	delete(s.localCache, key)
	delete(s.cacheAccess, key)
	metrics.ConversationCacheSize.Set(float64(len(s.localCache)))
	s.mu.Unlock()
	return nil
}

// CleanupExpired scans stored conversations and deletes expired ones.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, nil
	}
	keys, err := s.client.Keys(ctx, "conv:*").Result()
	if err != nil {
		return 0, fmt.Errorf("list conversations: %w", err)
	}

	cleaned := 0
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue
		}
		if conv.IsExpired() {
			if err := s.client.Del(ctx, key).Err(); err == nil {
				cleaned++
			}
		}
	}
	s.logger.Info("Cleaned up expired conversations", zap.Int("count", cleaned))
	return cleaned, nil
}

// RedisWrapper exposes the underlying wrapper for health checks.
func (s *Store) RedisWrapper() *circuitbreaker.RedisWrapper {
	return s.client
}

func (s *Store) redisKey(identityKey string) string {
	return "conv:" + identityKey
}

func (s *Store) save(ctx context.Context, id Identity, conv *Conversation) error {
	key := id.Key()
	if s.client != nil {
		data, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("marshal conversation: %w", err)
		}
		ttl := time.Until(conv.ExpiresAt)
		if ttl <= 0 {
			ttl = s.ttl
		}
		if err := s.client.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
			return err
		}
	}
	s.cacheLocally(key, conv.clone())
	return nil
}

func (s *Store) cacheLocally(key string, conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localCache[key] = conv
	s.cacheAccess[key] = time.Now()
	s.evictLocked()
	metrics.ConversationCacheSize.Set(float64(len(s.localCache)))
}

// evictLocked drops the least recently accessed half of the local cache
// once it exceeds maxLocal. Caller holds s.mu.
func (s *Store) evictLocked() {
	if len(s.localCache) <= s.maxLocal {
		return
	}
	type entry struct {
		key  string
		when time.Time
	}
	entries := make([]entry, 0, len(s.localCache))
	for k := range s.localCache {
		entries = append(entries, entry{key: k, when: s.cacheAccess[k]})
	}
	for i := 0; i < len(entries)-1; i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].when.Before(entries[i].when) {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	toRemove := s.maxLocal / 2
	for i := 0; i < toRemove && i < len(entries); i++ {
		delete(s.localCache, entries[i].key)
		delete(s.cacheAccess, entries[i].key)
		metrics.ConversationCacheEvictions.Inc()
	}
}
