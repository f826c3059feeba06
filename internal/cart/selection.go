package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// DefaultKey set holding the selected cart item ids
const DefaultKey = "storefront:cart:selected"

// SelectionStore cart items picked for checkout, persisted across runs.
type SelectionStore struct {
	client *redis.Client
	key    string
}

// NewSelectionStore creates a store; an empty key means DefaultKey.
func NewSelectionStore(client *redis.Client, key string) *SelectionStore {
	if key == "" {
		key = DefaultKey
	}
	return &SelectionStore{client: client, key: key}
}

// Select adds ids; already selected ids are ignored.
func (s *SelectionStore) Select(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("select cart items: %w", err)
	}
	return nil
}

// Deselect removes ids; unknown ids are ignored.
func (s *SelectionStore) Deselect(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := s.client.SRem(ctx, s.key, members...).Err(); err != nil {
		return fmt.Errorf("deselect cart items: %w", err)
	}
	return nil
}

// List selected ids, sorted.
func (s *SelectionStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list cart selection: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsSelected reports whether id is selected.
func (s *SelectionStore) IsSelected(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		return false, fmt.Errorf("check cart selection: %w", err)
	}
	return ok, nil
}

// Clear drops the whole selection, e.g. after checkout.
func (s *SelectionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear cart selection: %w", err)
	}
	return nil
}
