package robots

import (
	"sync"

	"github.com/ternarybob/scout/internal/models"
)

// Cache holds robots rules keyed by request URL. Entries are inserted on the
// first successful parse that allows fetching and evicted by the refresher
// when revalidation turns them away.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]models.RobotsRules
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]models.RobotsRules)}
}

// Has reports whether rules are cached for url.
func (c *Cache) Has(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[url]
	return ok
}

// Get returns the cached rules for url.
func (c *Cache) Get(url string) (models.RobotsRules, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rules, ok := c.entries[url]
	return rules, ok
}

// Set stores rules for url, replacing any previous entry.
func (c *Cache) Set(url string, rules models.RobotsRules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = rules
}

// Remove evicts the entry for url if present.
func (c *Cache) Remove(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

// URLs returns a snapshot of all cached request URLs.
func (c *Cache) URLs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	urls := make([]string, 0, len(c.entries))
	for url := range c.entries {
		urls = append(urls, url)
	}
	return urls
}
