package storage

import (
	"slices"
	"sync"

	"tierswap/pkg/primitives"
	"tierswap/pkg/swaperr"
)

// node is one entry of the recency list.
type node struct {
	num  primitives.PageNumber
	data []byte
	prev *node
	next *node
}

// CacheStore is a bounded page store with LRU bookkeeping.
//
// A doubly linked list combined with a map gives O(1) reads, writes and
// removals. Reads and updates move a page to the most recently used end.
//
// When the store is at capacity, writing a new page fails with CACHE_FULL
// rather than silently evicting: dropping a page here would lose data the
// swap planner believes is resident. Call Evict or Remove to make room.
type CacheStore struct {
	pageSize int
	maxPages int
	cache    map[primitives.PageNumber]*node
	head     *node // dummy head, most recently used end
	tail     *node // dummy tail, least recently used end
	closed   bool
	mutex    sync.Mutex
}

// NewCacheStore creates a cache holding at most maxPages pages.
func NewCacheStore(pageSize, maxPages int) (*CacheStore, error) {
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	if maxPages <= 0 {
		return nil, swaperr.IllegalArgument("cache capacity must be positive, got %d", maxPages)
	}

	head := &node{}
	tail := &node{}
	head.next = tail
	tail.prev = head

	return &CacheStore{
		pageSize: pageSize,
		maxPages: maxPages,
		cache:    make(map[primitives.PageNumber]*node),
		head:     head,
		tail:     tail,
	}, nil
}

func (c *CacheStore) Kind() Kind    { return KindCache }
func (c *CacheStore) PageSize() int { return c.pageSize }

// Capacity returns the maximum number of pages the cache holds.
func (c *CacheStore) Capacity() int { return c.maxPages }

func (c *CacheStore) addToFront(n *node) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *CacheStore) removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *CacheStore) moveToFront(n *node) {
	c.removeNode(n)
	c.addToFront(n)
}

// ReadPage returns the page and marks it most recently used.
func (c *CacheStore) ReadPage(num primitives.PageNumber) ([]byte, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, false, errClosed("CacheStore", "ReadPage")
	}

	n, ok := c.cache[num]
	if !ok {
		return nil, false, nil
	}
	c.moveToFront(n)
	return slices.Clone(n.data), true, nil
}

// WritePage updates or inserts the page and marks it most recently used.
func (c *CacheStore) WritePage(num primitives.PageNumber, data []byte) error {
	if err := checkPageSize("CacheStore", c.pageSize, data); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return errClosed("CacheStore", "WritePage")
	}

	if n, exists := c.cache[num]; exists {
		n.data = slices.Clone(data)
		c.moveToFront(n)
		return nil
	}

	if len(c.cache) >= c.maxPages {
		return swaperr.New(swaperr.CategoryTransient, swaperr.CodeCacheFull, "cache full, cannot add page").
			WithDetail("page %d, capacity %d", num, c.maxPages).
			In("WritePage", "CacheStore")
	}

	n := &node{num: num, data: slices.Clone(data)}
	c.cache[num] = n
	c.addToFront(n)
	return nil
}

// Remove drops a page. Removing an absent page does nothing.
func (c *CacheStore) Remove(num primitives.PageNumber) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, exists := c.cache[num]; exists {
		delete(c.cache, num)
		c.removeNode(n)
	}
}

// Evict removes and returns the least recently used page.
// It reports false when the cache is empty.
func (c *CacheStore) Evict() (primitives.PageNumber, []byte, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	victim := c.tail.prev
	if victim == c.head {
		return 0, nil, false
	}
	delete(c.cache, victim.num)
	c.removeNode(victim)
	return victim.num, victim.data, true
}

// Len returns the number of pages held.
func (c *CacheStore) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.cache)
}

// LRUOrder returns page numbers from least to most recently used.
func (c *CacheStore) LRUOrder() []primitives.PageNumber {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]primitives.PageNumber, 0, len(c.cache))
	for cur := c.tail.prev; cur != c.head; cur = cur.prev {
		out = append(out, cur.num)
	}
	return out
}

func (c *CacheStore) Pages() ([]primitives.PageNumber, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, errClosed("CacheStore", "Pages")
	}

	out := make([]primitives.PageNumber, 0, len(c.cache))
	for num := range c.cache {
		out = append(out, num)
	}
	slices.Sort(out)
	return out, nil
}

// Close empties the cache.
func (c *CacheStore) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.closed = true
	c.cache = make(map[primitives.PageNumber]*node)
	c.head.next = c.tail
	c.tail.prev = c.head
	return nil
}
