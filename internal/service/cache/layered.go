package cache

import (
	"context"
	"time"
)

// Layered is a two-level BytesCache: a process-local L1 in front of a shared
// L2 (Redis). Writes go through to L2 first; L2 hits are promoted to L1 for at
// most l1TTL.
type Layered struct {
	l1    *TTLCache
	l2    BytesCache
	l1TTL time.Duration
}

func NewLayered(l2 BytesCache, l1TTL time.Duration) *Layered {
	return &Layered{l1: NewTTLCache(), l2: l2, l1TTL: l1TTL}
}

// L1 exposes the local layer, e.g. for periodic sweeps.
func (c *Layered) L1() *TTLCache { return c.l1 }

func (c *Layered) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, _ := c.l1.GetBytes(ctx, key); ok {
		return b, true, nil
	}
	b, ok, err := c.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.l1.SetBytes(ctx, key, b, c.l1TTL)
	return b, true, nil
}

func (c *Layered) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1 := ttl
	if c.l1TTL > 0 && (l1 <= 0 || c.l1TTL < l1) {
		l1 = c.l1TTL
	}
	return c.l1.SetBytes(ctx, key, value, l1)
}
