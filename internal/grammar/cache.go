package grammar

import (
	"container/list"
	"sync"
)

// cacheCapacity bounds the process-wide compile cache. Rule catalogs
// reuse bodies across files and reloads, so compiles after warmup are
// almost always hits.
const cacheCapacity = 256

// compileCache is a mutex-protected LRU keyed on the textual rule
// body. It memoizes failures too — reloading a catalog with a broken
// rule should not re-lex the same bad body every time.
type compileCache struct {
	mu    sync.Mutex
	order *list.List // Front = most recently used. Values are *cacheEntry.
	items map[string]*list.Element
}

type cacheEntry struct {
	expr    string
	matcher *Matcher
	err     *CompileError
}

var globalCache = &compileCache{
	order: list.New(),
	items: make(map[string]*list.Element),
}

func (c *compileCache) get(expr string) (*Matcher, *CompileError, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[expr]
	if !ok {
		return nil, nil, false
	}
	c.order.MoveToFront(el)
	entry := el.Value.(*cacheEntry)
	return entry.matcher, entry.err, true
}

func (c *compileCache) put(expr string, m *Matcher, err *CompileError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[expr]; ok {
		c.order.MoveToFront(el)
		el.Value = &cacheEntry{expr: expr, matcher: m, err: err}
		return
	}
	el := c.order.PushFront(&cacheEntry{expr: expr, matcher: m, err: err})
	c.items[expr] = el
	if c.order.Len() > cacheCapacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).expr)
	}
}

// Compile turns a rule-body expression into an executable matcher.
// Results (successes and failures alike) are memoized process-wide;
// the cache is safe for concurrent compiles from parallel scans.
func Compile(expr string) (*Matcher, error) {
	if m, cerr, ok := globalCache.get(expr); ok {
		if cerr != nil {
			return nil, cerr
		}
		return m, nil
	}
	m, cerr := compileExpr(expr)
	globalCache.put(expr, m, cerr)
	if cerr != nil {
		return nil, cerr
	}
	return m, nil
}

// cacheLen is exposed for tests.
func cacheLen() int {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	return globalCache.order.Len()
}
