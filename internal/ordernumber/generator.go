// Package ordernumber hands out human-readable order numbers of the form
// PREFIX-YYYYMMDD-NNNNNN. Uniqueness is enforced by the orders table; the
// generator only makes collisions unlikely.
package ordernumber

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	DefaultPrefix = "SF"
	counterTTL    = 48 * time.Hour
)

// Counter is the slice of the redis client the generator needs.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// Generator is consumed by checkout.
type Generator interface {
	Next(ctx context.Context) (string, error)
}

type Option func(*RedisGenerator)

func WithClock(now func() time.Time) Option {
	return func(g *RedisGenerator) { g.now = now }
}

func WithRandom(fn func() int) Option {
	return func(g *RedisGenerator) { g.random = fn }
}

// RedisGenerator numbers orders with a per-day Redis counter and falls back to
// a random suffix when Redis is unavailable.
type RedisGenerator struct {
	counter Counter
	prefix  string
	logg    *logger.Logger
	now     func() time.Time
	random  func() int
}

func New(counter Counter, prefix string, logg *logger.Logger, opts ...Option) *RedisGenerator {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logg == nil {
		logg = logger.Nop()
	}
	g := &RedisGenerator{
		counter: counter,
		prefix:  prefix,
		logg:    logg,
		now:     time.Now,
		random:  func() int { return rand.IntN(1_000_000) },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *RedisGenerator) Next(ctx context.Context) (string, error) {
	day := g.now().UTC().Format("20060102")
	if g.counter != nil {
		seq, err := g.counter.IncrWithTTL(ctx, g.counter.CounterKey("order_number:"+day), counterTTL)
		if err == nil {
			return format(g.prefix, day, seq), nil
		}
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{"day": day, "error": err.Error()}), "order number counter unavailable, using random suffix")
	}
	return format(g.prefix, day, int64(g.random())), nil
}

func format(prefix, day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, day, seq)
}
