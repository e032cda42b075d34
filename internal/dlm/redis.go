package dlm

import (
	"fmt"
	"sync"
	"time"

	goredislib "github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

// RedisDLM is a Redis backed implementation of the Distributed Lock Manager interface
type RedisDLM struct {
	redSync *redsync.Redsync
	prefix  string

	mux     sync.Mutex
	mutexes map[string]*redsync.Mutex
}

// NewRedisDLM is a helper function for creating a RedisDLM
func NewRedisDLM(prefix string, opts *goredislib.Options) *RedisDLM {
	r := new(RedisDLM)

	client := goredislib.NewClient(opts)
	pool := goredis.NewPool(client)

	r.redSync = redsync.New(pool)
	r.prefix = prefix
	r.mutexes = make(map[string]*redsync.Mutex)
	return r
}

// Lock locks a given name until the expiry duration has passed or Unlock is called
func (r *RedisDLM) Lock(name string, expiry time.Duration) error {
	m := r.redSync.NewMutex(fmt.Sprintf("%s:%s", r.prefix, name),
		redsync.WithExpiry(expiry), redsync.WithTries(1))
	if err := m.Lock(); err != nil {
		return err
	}
	r.mux.Lock()
	r.mutexes[name] = m
	r.mux.Unlock()
	return nil
}

// Unlock removes a lock from a given name
func (r *RedisDLM) Unlock(name string) (bool, error) {
	r.mux.Lock()
	m, ok := r.mutexes[name]
	delete(r.mutexes, name)
	r.mux.Unlock()
	if !ok {
		return false, nil
	}
	return m.Unlock()
}
