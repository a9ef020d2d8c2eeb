package preview

import (
	"fmt"
	"image"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lvillar/pdfmerger"
)

// Key identifies one rendered page preview.
type Key struct {
	DocumentID string
	PageIndex  int // zero-based
	Rotation   pdfmerger.Rotation
}

// Cache is a bounded, least-recently-used store of rendered previews.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[Key, image.Image]
}

// NewCache creates a cache holding at most size previews.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[Key, image.Image](size)
	if err != nil {
		return nil, fmt.Errorf("preview: cache size %d: %w", size, err)
	}
	return &Cache{lru: l}, nil
}

// Get returns the preview stored under k.
func (c *Cache) Get(k Key) (image.Image, bool) {
	return c.lru.Get(k)
}

// Add stores img under k, evicting the least recently used entry when full.
func (c *Cache) Add(k Key, img image.Image) {
	c.lru.Add(k, img)
}

// InvalidateDocument drops every preview of document id and returns how many
// were removed.
func (c *Cache) InvalidateDocument(id string) int {
	n := 0
	for _, k := range c.lru.Keys() {
		if k.DocumentID == id && c.lru.Remove(k) {
			n++
		}
	}
	return n
}

// Len returns the number of cached previews.
func (c *Cache) Len() int {
	return c.lru.Len()
}
