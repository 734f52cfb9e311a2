package notifications

import (
	"context"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:7", UserChannel(7))

	id, ok := ParseUserChannel("notifications:user:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notifications:user:", "notifications:user:0", "notifications:user:x", "chat:conv:1"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.Publish(context.Background(), &models.Notification{RecipientID: 1}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestHub_RegisterDeliverUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(1, nil)
	require.NoError(t, err)
	other, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Connections(1))

	assert.Equal(t, 2, hub.Deliver(1, []byte("hello")))
	assert.Equal(t, "hello", string(<-a.Send))
	assert.Equal(t, "hello", string(<-b.Send))
	assert.Empty(t, other.Send)

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.Connections(1))
	_, open := <-a.Send
	assert.False(t, open)

	assert.Equal(t, 0, hub.Deliver(99, []byte("nobody")))
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestHub_BackpressureDropsAndNotifies(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(3, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		require.Equal(t, 1, hub.Deliver(3, []byte("x")))
	}
	assert.Equal(t, 0, hub.Deliver(3, []byte("overflow")))
	assert.Len(t, c.Send, sendBufferSize)
}

func TestHub_ShutdownRefusesNewClients(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	_, open := <-c.Send
	assert.False(t, open)

	// A late unregister from the read pump is harmless.
	hub.Unregister(c)

	_, err = hub.Register(1, nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_StartWiringDeliversPublishedNotification(t *testing.T) {
	rdb := newRedis(t)
	hub := NewHub()
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, notifier))

	recipient, err := hub.Register(10, nil)
	require.NoError(t, err)
	bystander, err := hub.Register(11, nil)
	require.NoError(t, err)

	postID := uint(4)
	require.NoError(t, notifier.Publish(ctx, &models.Notification{
		ID:           9,
		RecipientID:  10,
		ActorID:      11,
		Verb:         models.NotificationVerbLiked,
		TargetPostID: &postID,
	}))

	select {
	case msg := <-recipient.Send:
		assert.Equal(t, EventNotificationCreated, gjson.GetBytes(msg, "type").String())
		assert.Equal(t, int64(9), gjson.GetBytes(msg, "payload.id").Int())
		assert.Equal(t, "liked", gjson.GetBytes(msg, "payload.verb").String())
		assert.Equal(t, int64(4), gjson.GetBytes(msg, "payload.target_post_id").Int())
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	assert.Empty(t, bystander.Send)
}
