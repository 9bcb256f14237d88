package tree

import (
	"sort"

	"tagbrowser/internal/tags"
)

// Cache maps relative folder paths to their tag sets. Only folders with at
// least one tag are present. It also remembers every folder seen at depth
// one to three so untagged folders can still be found by name.
type Cache struct {
	tags    map[string][]string
	folders map[string]struct{}
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		tags:    make(map[string][]string),
		folders: make(map[string]struct{}),
	}
}

// Get returns the tags of rel, or nil.
func (c *Cache) Get(rel string) []string {
	return c.tags[rel]
}

// Set replaces the tags of rel. An empty set removes the entry.
func (c *Cache) Set(rel string, set []string) {
	set = tags.Normalize(set)
	if len(set) == 0 {
		delete(c.tags, rel)
		return
	}
	c.tags[rel] = set
	if d := Depth(rel); d >= 1 && d <= 3 {
		c.folders[rel] = struct{}{}
	}
}

// Delete drops rel from the tag map.
func (c *Cache) Delete(rel string) {
	delete(c.tags, rel)
}

// AddFolder records a folder without tags.
func (c *Cache) AddFolder(rel string) {
	c.folders[rel] = struct{}{}
}

// Len is the number of tagged folders.
func (c *Cache) Len() int {
	return len(c.tags)
}

// Paths returns the tagged folders, sorted.
func (c *Cache) Paths() []string {
	out := make([]string, 0, len(c.tags))
	for p := range c.tags {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Folders returns every known folder at depth one to three, sorted.
func (c *Cache) Folders() []string {
	out := make([]string, 0, len(c.folders))
	for p := range c.folders {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// AllTags returns every distinct tag in the cache, sorted.
func (c *Cache) AllTags() []string {
	var all []string
	for _, set := range c.tags {
		all = append(all, set...)
	}
	return tags.Normalize(all)
}

// Entries returns a copy of the path → tags map.
func (c *Cache) Entries() map[string][]string {
	out := make(map[string][]string, len(c.tags))
	for p, set := range c.tags {
		out[p] = append([]string(nil), set...)
	}
	return out
}

// Equal reports whether both caches hold the same tags and folders.
func (c *Cache) Equal(other *Cache) bool {
	if len(c.tags) != len(other.tags) || len(c.folders) != len(other.folders) {
		return false
	}
	for p, set := range c.tags {
		o, ok := other.tags[p]
		if !ok || len(o) != len(set) {
			return false
		}
		for i := range set {
			if set[i] != o[i] {
				return false
			}
		}
	}
	for p := range c.folders {
		if _, ok := other.folders[p]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of c.
func (c *Cache) Clone() *Cache {
	out := NewCache()
	for p, set := range c.tags {
		out.tags[p] = append([]string(nil), set...)
	}
	for p := range c.folders {
		out.folders[p] = struct{}{}
	}
	return out
}
