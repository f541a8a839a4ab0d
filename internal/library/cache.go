package library

import (
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"nvcfold/internal/evalvalue"
	"nvcfold/internal/ir"
	"nvcfold/internal/lowering"
)

// Cache is the idempotent, process-wide unit resolver: an in-memory map
// backed by an optional persisted Store and a Lowerer collaborator for
// cache misses. Cache-then-load, guarded against duplicate concurrent
// loads by singleflight.Group, which collapses concurrent callers
// resolving the same name into exactly one load.
type Cache struct {
	store   *Store // nil means "no persisted backing, in-memory only"
	lower   lowering.Lowerer
	group   singleflight.Group
	mu      sync.RWMutex
	units   map[string]*ir.Unit
	thunkMu sync.RWMutex
	thunks  map[string]*ir.Unit
}

// NewCache constructs a Cache. store may be nil for a pure in-memory,
// no-persistence configuration (as the cache tests use).
func NewCache(store *Store, lower lowering.Lowerer) *Cache {
	return &Cache{
		store:  store,
		lower:  lower,
		units:  make(map[string]*ir.Unit),
		thunks: make(map[string]*ir.Unit),
	}
}

// Lookup implements eval.Resolver: resolve name, loading it on demand
// from the persisted store and falling back to the Lowerer collaborator
// on a total miss. A library-qualified name ("work.counter") that isn't
// found under its full name is retried under its bare unit name — this
// flat, single-table store's analogue of splitting the name into
// library and unit prefixes and asking the library collaborator to
// serve the unit directly. When the resolved unit is a package, its
// body (the same name suffixed "-body") is eagerly resolved and cached
// too, so a nested unit whose Parent chain walks into the package body
// finds it already loaded rather than triggering a second on-demand load
// mid-fold.
func (c *Cache) Lookup(name string) (*ir.Unit, bool) {
	u, ok := c.lookupOne(name)
	if !ok {
		return nil, false
	}
	if u.Kind == ir.UnitPackage {
		c.lookupOne(name + "-body")
	}
	return u, true
}

func (c *Cache) lookupOne(name string) (*ir.Unit, bool) {
	c.mu.RLock()
	if u, ok := c.units[name]; ok {
		c.mu.RUnlock()
		return u, true
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(name, func() (interface{}, error) {
		c.mu.RLock()
		if u, ok := c.units[name]; ok {
			c.mu.RUnlock()
			return u, nil
		}
		c.mu.RUnlock()

		if c.store != nil {
			if u, ok, storeErr := c.store.Get(name); storeErr == nil && ok {
				return u, nil
			}
			if _, unit, qualified := splitLibraryUnit(name); qualified {
				if u, ok, storeErr := c.store.Get(unit); storeErr == nil && ok {
					return u, nil
				}
			}
		}

		u, lowerErr := c.lower.LowerUnit(name)
		if lowerErr != nil {
			return nil, lowerErr
		}
		if c.store != nil {
			// Best-effort persistence: a write failure here must not fail
			// a resolution that otherwise succeeded.
			_ = c.store.Put(name, u)
		}
		return u, nil
	})
	if err != nil {
		return nil, false
	}

	u := result.(*ir.Unit)
	c.mu.Lock()
	c.units[name] = u
	c.mu.Unlock()
	return u, true
}

// splitLibraryUnit splits a library-qualified name ("work.counter") into
// its library and bare-unit components at the last '.'. qualified is
// false for a name with no library prefix.
func splitLibraryUnit(name string) (lib, unit string, qualified bool) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", name, false
	}
	return name[:idx], name[idx+1:], true
}

// thunkKey computes the content-addressed cache key for a call site:
// syntactically identical (callee, argument values) pairs hash to the
// same key, so a thunk is lowered at most once no matter how many call
// sites share its shape.
func thunkKey(calleeName string, args []evalvalue.Value) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(calleeName))
	for _, a := range args {
		h.Write([]byte{0})
		h.Write([]byte(a.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LookupThunk resolves (or lowers and memoizes) the specialized Thunk
// unit for one call site's argument values.
func (c *Cache) LookupThunk(calleeName string, args []evalvalue.Value) (*ir.Unit, bool) {
	key := thunkKey(calleeName, args)

	c.thunkMu.RLock()
	if u, ok := c.thunks[key]; ok {
		c.thunkMu.RUnlock()
		return u, true
	}
	c.thunkMu.RUnlock()

	result, err, _ := c.group.Do("thunk:"+key, func() (interface{}, error) {
		c.thunkMu.RLock()
		if u, ok := c.thunks[key]; ok {
			c.thunkMu.RUnlock()
			return u, nil
		}
		c.thunkMu.RUnlock()
		return c.lower.LowerThunk(calleeName, args)
	})
	if err != nil {
		return nil, false
	}

	u := result.(*ir.Unit)
	c.thunkMu.Lock()
	c.thunks[key] = u
	c.thunkMu.Unlock()
	return u, true
}
