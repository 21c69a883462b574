package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/redis/go-redis/v9"
	"time"
)

// Store keeps carts as JSON under cart:{id}. The Redis key expires together
// with the cart.
type Store struct {
	RDB *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Load returns the cart stored under id. A missing or expired cart comes back
// as a fresh empty cart with the same id; expired ones are deleted on the way.
func (s *Store) Load(ctx context.Context, id string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, id)
	b, err := s.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{ID: id, Lines: []Line{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var c Cart
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", id, err)
	}
	if c.Expired(s.now()) {
		_ = s.RDB.Del(ctx, key).Err()
		return &Cart{ID: id, Lines: []Line{}}, nil
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &c, nil
}

// Save refreshes the cart's expiry and writes it back.
func (s *Store) Save(ctx context.Context, c *Cart) error {
	c.Touch(s.now(), s.TTL)
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.RDB.Set(ctx, fmt.Sprintf(redisx.KeyCart, c.ID), b, s.TTL).Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.RDB.Del(ctx, fmt.Sprintf(redisx.KeyCart, id)).Err()
}
