package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a local NATS server; skipped otherwise.
func getTestNATS(t *testing.T) *nats.Conn {
	nc, err := nats.Connect(nats.DefaultURL, nats.Timeout(time.Second))
	if err != nil {
		t.Skipf("skipping: cannot connect to NATS: %v", err)
	}
	return nc
}

func TestBroadcaster_SharesInvalidations(t *testing.T) {
	nc := getTestNATS(t)
	defer nc.Close()

	subject := "storefront.console.test." + time.Now().Format("150405.000000")

	cacheA, cacheB := New(nil), New(nil)
	fetchedA, fetchedB := make(chan struct{}, 4), make(chan struct{}, 4)
	cacheA.Register(NotificationsKey(), func(context.Context) (any, error) { fetchedA <- struct{}{}; return nil, nil })
	cacheB.Register(NotificationsKey(), func(context.Context) (any, error) { fetchedB <- struct{}{}; return nil, nil })

	a := NewBroadcaster(nc, subject, cacheA)
	b := NewBroadcaster(nc, subject, cacheB)
	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	defer a.Stop()
	defer b.Stop()
	require.NoError(t, nc.Flush())

	a.Invalidate(context.Background(), NotificationsKey())

	select {
	case <-fetchedB:
	case <-time.After(2 * time.Second):
		t.Fatal("remote process did not refetch")
	}

	// A refetched once locally and ignored its own echo
	assert.Len(t, fetchedA, 1)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, fetchedA, 1)
	assert.NotEqual(t, a.Origin(), b.Origin())
}
