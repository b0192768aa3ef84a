// Package auth implements the authorization cache (spec §4.5): a
// thread-safe, TTL-gated map from a hashed opaque token to the
// principal an upstream authorization call resolved it to, tolerant of
// token rotation on refresh. Adapted from the teacher's common/cache.go
// LRU wrapper: same golang-lru backing, narrowed from a generic
// CacheKey/Cache interface pair down to this package's one concrete key
// and value shape.
package auth

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/blake2b"

	"github.com/ground-x/blmessaging/common/errs"
	"github.com/ground-x/blmessaging/log"
)

// DefaultFreshnessInterval is the TTL spec §4.5 names as the default.
const DefaultFreshnessInterval = 15 * time.Minute

// DefaultCacheSize bounds the LRU backing store.
const DefaultCacheSize = 8192

// Principal is the authorized identity a token resolves to. RefreshedToken,
// when non-empty, is what must be used as the authorization input on the
// entry's next refresh — the token-rotation-tolerance spec §4.5 requires.
type Principal struct {
	Subject        string
	RefreshedToken []byte
}

type entry struct {
	principal Principal
	timestamp time.Time
}

// Authorizer performs the actual upstream authorization call for a token
// not already cached or past its freshness window.
type Authorizer func(token []byte) (Principal, error)

// Cache is the authorization cache. All operations are safe for
// concurrent use.
type Cache struct {
	mu       sync.Mutex
	lru      *lru.Cache
	freshness time.Duration
	logger   *log.Logger
}

func New(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	backing, err := lru.New(size)
	if err != nil {
		// lru.New only fails for size <= 0, already excluded above.
		panic(err)
	}
	return &Cache{lru: backing, freshness: DefaultFreshnessInterval, logger: log.New("auth.cache")}
}

// ConfigureFreshnessInterval sets the TTL applied to future lookups.
func (c *Cache) ConfigureFreshnessInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freshness = d
}

// hashToken produces the cache key: a blake2b-256 digest of the raw
// token, so the map never holds the bearer token itself in the clear.
func hashToken(token []byte) [32]byte {
	return blake2b.Sum256(token)
}

// TryGetAuthorizedPrincipal returns the cached principal if its entry is
// within the freshness window, nil otherwise.
func (c *Cache) TryGetAuthorizedPrincipal(token []byte) *Principal {
	key := hashToken(token)
	c.mu.Lock()
	v, ok := c.lru.Get(key)
	freshness := c.freshness
	c.mu.Unlock()
	if !ok {
		return nil
	}
	e := v.(entry)
	now := time.Now()
	if now.Before(e.timestamp) {
		// entry.timestamp <= now is a cache invariant; a violation means
		// the clock went backwards or a caller forged a timestamp, both
		// of which are programmer errors per spec §4.5.
		c.logger.Fatal("authorization cache entry timestamp in the future", "subject", e.principal.Subject)
	}
	if now.Sub(e.timestamp) > freshness {
		return nil
	}
	p := e.principal
	return &p
}

// Update runs authorize (unless the caller already has a result, passed
// via precomputed) against the RefreshedToken of token's existing entry
// if it has one, or against token itself otherwise, and stores the
// outcome under the token's key on success, wrapping any failure as
// *security failure*.
func (c *Cache) Update(token []byte, authorize Authorizer, precomputed *Principal) (Principal, error) {
	var p Principal
	if precomputed != nil {
		p = *precomputed
	} else {
		input := token
		c.mu.Lock()
		if v, ok := c.lru.Peek(hashToken(token)); ok {
			if rt := v.(entry).principal.RefreshedToken; len(rt) > 0 {
				input = rt
			}
		}
		c.mu.Unlock()
		var err error
		p, err = authorize(input)
		if err != nil {
			return Principal{}, errs.Wrap(errs.AuthorizationFailure, "auth: upstream authorization failed", err)
		}
	}
	key := hashToken(token)
	c.mu.Lock()
	c.lru.Add(key, entry{principal: p, timestamp: time.Now()})
	c.mu.Unlock()
	return p, nil
}

// TryUpdate is Update but returns nil instead of propagating a failure.
func (c *Cache) TryUpdate(token []byte, authorize Authorizer, precomputed *Principal) *Principal {
	p, err := c.Update(token, authorize, precomputed)
	if err != nil {
		return nil
	}
	return &p
}

// Evict removes token's entry, if any.
func (c *Cache) Evict(token []byte) {
	key := hashToken(token)
	c.mu.Lock()
	c.lru.Remove(key)
	c.mu.Unlock()
}
