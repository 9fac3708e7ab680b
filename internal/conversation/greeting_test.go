package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGreetingTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := NewRedisGreetingTracker(client, time.Hour)
	ctx := context.Background()

	first, err := tracker.FirstContact(ctx, "whatsapp:+5511999990000")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := tracker.FirstContact(ctx, "+5511999990000")
	require.NoError(t, err)
	assert.False(t, again)
	assert.True(t, mr.Exists(greetingKeyPrefix+"5511999990000"))

	mr.FastForward(2 * time.Hour)
	afterTTL, err := tracker.FirstContact(ctx, "whatsapp:+5511999990000")
	require.NoError(t, err)
	assert.True(t, afterTTL)
}

func TestRedisGreetingTrackerUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisGreetingTracker(client, time.Hour).FirstContact(context.Background(), "+551199")
	assert.Error(t, err)
}

func TestMemoryGreetingTracker(t *testing.T) {
	now := time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC)
	tracker := NewMemoryGreetingTracker(time.Hour)
	tracker.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := tracker.FirstContact(ctx, "whatsapp:+5511999990000")
	again, _ := tracker.FirstContact(ctx, "5511999990000")
	other, _ := tracker.FirstContact(ctx, "+5521988887777")
	assert.True(t, first)
	assert.False(t, again)
	assert.True(t, other)

	now = now.Add(61 * time.Minute)
	expired, _ := tracker.FirstContact(ctx, "+5511999990000")
	assert.True(t, expired)
}

func TestMemoryGreetingTrackerNoTTL(t *testing.T) {
	tracker := NewMemoryGreetingTracker(0)
	tracker.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	first, _ := tracker.FirstContact(context.Background(), "+55")
	tracker.now = func() time.Time { return time.Now().Add(5000 * time.Hour) }
	again, _ := tracker.FirstContact(context.Background(), "+55")
	assert.True(t, first)
	assert.False(t, again)
}
