package database

import (
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached returns a client for the lookup cache, or an error when no
// server answers.
func NewMemcached(server string) (*memcache.Client, error) {
	mc := memcache.New(server)
	mc.Timeout = 500 * time.Millisecond

	if err := mc.Ping(); err != nil {
		return nil, fmt.Errorf("memcached %s: %w", server, err)
	}

	return mc, nil
}
