package template

import "sync"

// Cache memoizes parsed templates by name. Parsing is pure, so a cached
// Template is interchangeable with a freshly parsed one; the cache only
// saves the work. Safe for concurrent use.
type Cache struct {
	engine    *Engine
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewCache creates a cache over the given engine
func NewCache(engine *Engine) *Cache {
	return &Cache{
		engine:    engine,
		templates: make(map[string]*Template),
	}
}

// Get returns the cached template for name, parsing source on first use.
// The source for a given name must not change between calls.
func (c *Cache) Get(name, source string) (*Template, error) {
	c.mu.RLock()
	t, ok := c.templates[name]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.engine.ParseNamed(name, source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.templates[name] = t
	c.mu.Unlock()
	return t, nil
}

// Len returns the number of cached templates
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.templates)
}
