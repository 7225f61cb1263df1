package fingerprint

// Cache holds the fingerprints of files placed during one run, in insertion
// order. It is not safe for concurrent use.
type Cache struct {
	order  []string
	byPath map[string]*Fingerprint
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byPath: make(map[string]*Fingerprint)}
}

// Add records fp under its path. Adding a path twice keeps the first entry.
func (c *Cache) Add(fp *Fingerprint) {
	if fp == nil {
		return
	}
	if _, ok := c.byPath[fp.Path]; ok {
		return
	}
	c.byPath[fp.Path] = fp
	c.order = append(c.order, fp.Path)
}

// Len returns the number of cached fingerprints.
func (c *Cache) Len() int {
	return len(c.order)
}

// FindDuplicate returns the path of the first cached fingerprint holding the
// same content as fp. The fingerprint's own path never matches itself.
func (c *Cache) FindDuplicate(fp *Fingerprint) (string, bool) {
	if fp == nil {
		return "", false
	}
	for _, path := range c.order {
		if path == fp.Path {
			continue
		}
		if SameContent(c.byPath[path], fp) {
			return path, true
		}
	}
	return "", false
}
