// Package snapshot persists the in-memory store to Redis.
// The state is kept under five fixed keys: <prefix>orders, products, users, carts and events.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"BakeryStore/internal/repo/memory"
)

const DefaultPrefix = "bakery:"

const (
	slotOrders   = "orders"
	slotProducts = "products"
	slotUsers    = "users"
	slotCarts    = "carts"
	slotEvents   = "events"
)

var slots = []string{slotOrders, slotProducts, slotUsers, slotCarts, slotEvents}

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(slot string) string {
	return s.prefix + slot
}

// Save writes every slot in one MULTI/EXEC block.
func (s *RedisStore) Save(ctx context.Context, st memory.State) error {
	values := map[string]interface{}{
		slotOrders:   st.Orders,
		slotProducts: st.Products,
		slotUsers:    st.Users,
		slotCarts:    st.Carts,
		slotEvents:   st.Events,
	}

	encoded := make([]interface{}, 0, 2*len(slots))
	for _, slot := range slots {
		b, err := json.Marshal(values[slot])
		if err != nil {
			return fmt.Errorf("encode %s: %w", slot, err)
		}
		encoded = append(encoded, s.key(slot), b)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.MSet(ctx, encoded...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. found is false when no slot has ever been written.
func (s *RedisStore) Load(ctx context.Context) (st memory.State, found bool, err error) {
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, s.key(slot))
	}

	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return memory.State{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	st = memory.NewState()
	targets := map[string]interface{}{
		slotOrders:   &st.Orders,
		slotProducts: &st.Products,
		slotUsers:    &st.Users,
		slotCarts:    &st.Carts,
		slotEvents:   &st.Events,
	}
	for i, slot := range slots {
		v, ok := raw[i].(string)
		if !ok {
			continue
		}
		found = true
		if err := json.Unmarshal([]byte(v), targets[slot]); err != nil {
			return memory.State{}, false, fmt.Errorf("decode %s: %w", slot, err)
		}
	}
	if !found {
		return memory.State{}, false, nil
	}
	return st, true, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(slots))
	for _, slot := range slots {
		keys = append(keys, s.key(slot))
	}
	return s.client.Del(ctx, keys...).Err()
}
