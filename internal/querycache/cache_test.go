package querycache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.storefront/internal/metrics"
)

func TestKey_HasPrefix(t *testing.T) {
	tests := []struct {
		key, prefix Key
		want        bool
	}{
		{MessagesKey("admin", "1"), AllMessagesKey("admin"), true},
		{MessagesKey("admin", "1"), MessagesKey("admin", "1"), true},
		{MessagesKey("admin", "10"), MessagesKey("admin", "1"), false},
		{ConversationsKey("user"), NewKey("chat", "user"), true},
		{NotificationsKey(), NewKey("notifications"), true},
		{UnreadCountKey(), NewKey("notif"), false},
		{OrdersKey(), "", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix), "%s under %s", tt.key, tt.prefix)
	}
}

func TestCache_FetchAndGet(t *testing.T) {
	c := New(nil)
	calls := 0
	c.Register(OrdersKey(), func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	})

	_, ok := c.Get(OrdersKey())
	assert.False(t, ok, "nothing fetched yet")

	v, err := c.Fetch(context.Background(), OrdersKey())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	got, ok := c.Get(OrdersKey())
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	_, err = c.Fetch(context.Background(), NewKey("missing"))
	var unknown *UnknownKeyError
	assert.ErrorAs(t, err, &unknown)
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c := New(nil)
	var mu sync.Mutex
	var fetched []Key
	register := func(k Key) {
		c.Register(k, func(ctx context.Context) (any, error) {
			mu.Lock()
			fetched = append(fetched, k)
			mu.Unlock()
			return string(k), nil
		})
	}
	register(MessagesKey("admin", "a"))
	register(MessagesKey("admin", "b"))
	register(ConversationsKey("admin"))
	register(NotificationsKey())

	c.Invalidate(context.Background(), AllMessagesKey("admin"))
	assert.Equal(t, []Key{MessagesKey("admin", "a"), MessagesKey("admin", "b")}, fetched)

	fetched = nil
	c.Invalidate(context.Background(), NotificationsKey())
	assert.Equal(t, []Key{NotificationsKey()}, fetched)
}

func TestCache_FailedRefetchKeepsPreviousValue(t *testing.T) {
	c := New(nil)
	fail := false
	c.Register(UnreadCountKey(), func(ctx context.Context) (any, error) {
		if fail {
			return nil, errors.New("network down")
		}
		return 3, nil
	})

	var seen []error
	cancel := c.Subscribe(func(key Key, value any, err error) {
		seen = append(seen, err)
		assert.Equal(t, 3, value)
	})
	defer cancel()

	_, err := c.Fetch(context.Background(), UnreadCountKey())
	require.NoError(t, err)

	fail = true
	c.Invalidate(context.Background(), UnreadCountKey())

	v, ok := c.Get(UnreadCountKey())
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	require.Len(t, seen, 2)
	assert.NoError(t, seen[0])
	assert.Error(t, seen[1])
}

func TestCache_UnregisterOnlyOwnRegistration(t *testing.T) {
	c := New(nil)
	first := c.Register(OrdersKey(), func(ctx context.Context) (any, error) { return "first", nil })
	c.Register(OrdersKey(), func(ctx context.Context) (any, error) { return "second", nil })

	first()

	v, err := c.Fetch(context.Background(), OrdersKey())
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestCache_SubscribeCancel(t *testing.T) {
	c := New(nil)
	c.Register(OrdersKey(), func(ctx context.Context) (any, error) { return 1, nil })

	count := 0
	cancel := c.Subscribe(func(Key, any, error) { count++ })
	c.Invalidate(context.Background(), OrdersKey())
	cancel()
	c.Invalidate(context.Background(), OrdersKey())

	assert.Equal(t, 1, count)
}

func TestKey_Family(t *testing.T) {
	tests := []struct {
		key  Key
		want Key
	}{
		{MessagesKey("admin", "conv-42"), AllMessagesKey("admin")},
		{AllMessagesKey("user"), AllMessagesKey("user")},
		{ConversationsKey("admin"), ConversationsKey("admin")},
		{NotificationsKey(), NotificationsKey()},
		{OrdersKey(), OrdersKey()},
		{NewKey("chat", "admin", "messages", "c1", "extra"), AllMessagesKey("admin")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.Family(), "family of %s", tt.key)
	}
}

// invalidationPrefixes prefix label values currently exported
func invalidationPrefixes(t *testing.T) []string {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)

	var out []string
	for _, mf := range families {
		if mf.GetName() != "storefront_console_cache_invalidations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "prefix" {
					out = append(out, lp.GetValue())
				}
			}
		}
	}
	return out
}

func TestCache_InvalidationLabelsStayBounded(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		c.Invalidate(ctx, MessagesKey("admin", fmt.Sprintf("conv-%d", i)))
	}

	prefixes := invalidationPrefixes(t)
	assert.Contains(t, prefixes, "chat:admin:messages")
	for _, p := range prefixes {
		assert.False(t, strings.Contains(p, "conv-"), "id leaked into label %q", p)
	}
}
