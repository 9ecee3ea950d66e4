// Package query keeps views of server state consistent with the backend:
// a keyed read cache, a declared table of which mutation invalidates which
// query family, list views that re-fetch on invalidation, and mutations
// that report one notice per attempt.
package query

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FamilyTodos groups every todo list query regardless of parameters.
const FamilyTodos = "todos"

// Key identifies one cached read.
type Key struct {
	Family string
	Params string
}

func (k Key) String() string { return k.Family + "|" + k.Params }

// MutationKind names a write.
type MutationKind string

const (
	MutationCreate MutationKind = "create"
	MutationMark   MutationKind = "mark"
	MutationDelete MutationKind = "delete"
)

// Invalidations declares which query families each mutation invalidates
// after it succeeds.
var Invalidations = map[MutationKind][]string{
	MutationCreate: {FamilyTodos},
	MutationMark:   {FamilyTodos},
	MutationDelete: {FamilyTodos},
}

// InvalidatedBy returns the families invalidated by kind.
func InvalidatedBy(kind MutationKind) []string {
	return append([]string(nil), Invalidations[kind]...)
}

// Refetcher is an active observer of a family, re-fetched on invalidation.
type Refetcher interface {
	Refetch(ctx context.Context) error
}

type entry struct {
	value any
}

// Client is the query cache. Entries are replaced, never merged.
type Client struct {
	group singleflight.Group

	mu          sync.Mutex
	entries     map[Key]entry
	generations map[string]uint64
	observers   map[string]map[int]Refetcher
	nextID      int
}

func NewClient() *Client {
	return &Client{
		entries:     map[Key]entry{},
		generations: map[string]uint64{},
		observers:   map[string]map[int]Refetcher{},
	}
}

// Fetch returns the cached value for key or runs fn. Concurrent fetches of
// the same key share one call. A result whose family was invalidated while
// it was in flight is returned but not cached.
func (c *Client) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.value, nil
	}
	gen := c.generations[key.Family]
	c.mu.Unlock()

	// the generation is part of the flight key so a fetch started after an
	// invalidation never joins one started before it
	flight := key.String() + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generations[key.Family] == gen {
			c.entries[key] = entry{value: v}
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Cached reports whether key holds a value.
func (c *Client) Cached(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// Len is the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Observe registers r for invalidations of family. The returned func
// unregisters it.
func (c *Client) Observe(family string, r Refetcher) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.observers[family] == nil {
		c.observers[family] = map[int]Refetcher{}
	}
	id := c.nextID
	c.nextID++
	c.observers[family][id] = r
	return func() {
		c.mu.Lock()
		delete(c.observers[family], id)
		c.mu.Unlock()
	}
}

// Invalidate drops every entry of the given families and re-fetches their
// active observers. Refetch errors are joined; observers record them in
// their own state too.
func (c *Client) Invalidate(ctx context.Context, families ...string) error {
	var observers []Refetcher
	c.mu.Lock()
	for _, family := range families {
		c.generations[family]++
		for k := range c.entries {
			if k.Family == family {
				delete(c.entries, k)
			}
		}
		for _, r := range c.observers[family] {
			observers = append(observers, r)
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, r := range observers {
		if err := r.Refetch(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
