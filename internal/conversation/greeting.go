package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GreetingTracker records which senders were already greeted.
type GreetingTracker interface {
	// FirstContact marks sender as greeted and reports whether this is the
	// first contact within the tracker's TTL.
	FirstContact(ctx context.Context, sender string) (bool, error)
}

const greetingKeyPrefix = "scheduler:greeted:"

// RedisGreetingTracker stores greeted senders as Redis keys with a TTL.
type RedisGreetingTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGreetingTracker(client *redis.Client, ttl time.Duration) *RedisGreetingTracker {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisGreetingTracker{client: client, ttl: ttl}
}

func (t *RedisGreetingTracker) FirstContact(ctx context.Context, sender string) (bool, error) {
	return t.client.SetNX(ctx, greetingKeyPrefix+normalizeSender(sender), time.Now().UTC().Format(time.RFC3339), t.ttl).Result()
}

// MemoryGreetingTracker is the in-process tracker used when Redis is not
// configured. Entries expire after the TTL; a zero TTL never expires.
type MemoryGreetingTracker struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryGreetingTracker(ttl time.Duration) *MemoryGreetingTracker {
	return &MemoryGreetingTracker{ttl: ttl, now: time.Now, seen: make(map[string]time.Time)}
}

func (t *MemoryGreetingTracker) FirstContact(_ context.Context, sender string) (bool, error) {
	key := normalizeSender(sender)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if at, ok := t.seen[key]; ok && (t.ttl <= 0 || now.Sub(at) < t.ttl) {
		return false, nil
	}
	t.seen[key] = now
	return true, nil
}

func normalizeSender(sender string) string {
	s := strings.TrimSpace(strings.ToLower(sender))
	s = strings.TrimPrefix(s, "whatsapp:")
	return strings.TrimPrefix(s, "+")
}

var (
	_ GreetingTracker = (*RedisGreetingTracker)(nil)
	_ GreetingTracker = (*MemoryGreetingTracker)(nil)
)
