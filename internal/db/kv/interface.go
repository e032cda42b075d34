package kv

//go:generate mockgen -package mock -destination=mock/kv.go . Store,SortedSet

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when the implementation of one of the Store or SortedSet do not find a record
var ErrNotFound = errors.New("not found")

// Store defines the interface for persisting data in a key value store
type Store interface {
	Set(ctx context.Context, collection string, key string, value interface{}, expiration time.Duration) error
	MSet(ctx context.Context, collection string, values map[string]interface{}) error
	SetNX(ctx context.Context, collection string, key string, value interface{}, expiration time.Duration) (bool, error)
	MSetNX(ctx context.Context, collection string, values map[string]interface{}) (bool, error)
	Get(ctx context.Context, collection string, key string) ([]byte, error)
	MGet(ctx context.Context, collection string, keys []string) (map[string][]byte, error)
	Del(ctx context.Context, collection string, keys ...string) error
	Expire(ctx context.Context, collection string, key string, expiration time.Duration) error
	Close()
}

// Z represents sorted set member.
type Z struct {
	Score  float64
	Member interface{}
}

// ZRangeBy represents a sorted set query
type ZRangeBy struct {
	Min, Max      string
	Offset, Count int64
}

// SortedSet defines the interface for persisting data in a sorted set store
type SortedSet interface {
	ZAdd(ctx context.Context, key string, members ...*Z) error
	ZRangeByScore(ctx context.Context, key string, opt *ZRangeBy) ([]string, error)
	ZRem(ctx context.Context, key string, members ...interface{}) error
	Close()
}
