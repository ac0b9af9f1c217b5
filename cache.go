package vroom

import (
	"os"
	"path/filepath"

	vcache "github.com/shapestone/vroom/internal/cache"
)

// ErrCacheStale is returned by (*Cache).Load when the cache's recorded
// source size/mtime no longer match the source file on disk.
var ErrCacheStale = vcache.ErrStale

// ErrCacheCorrupt is returned by (*Cache).Load when a cache file's header
// or payload fails validation; the corrupt file is removed first.
var ErrCacheCorrupt = vcache.ErrCorrupt

// Cache stores ParseIndex values on disk keyed by source file path, so a
// repeat Parse of an unchanged file can skip scanning entirely (spec.md
// §4.M). A zero-value dir places each cache file alongside its source
// (sourcePath + ".vroomidx"); a non-empty dir instead collects every cache
// file under that one directory.
type Cache struct {
	dir string
}

// NewCache returns a Cache rooted at dir. An empty dir means "alongside
// the source file".
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) pathFor(sourcePath string) string {
	if c.dir == "" {
		return vcache.PathFor(sourcePath)
	}
	return filepath.Join(c.dir, filepath.Base(sourcePath)+".vroomidx")
}

// Load reads sourcePath's cached ParseIndex, validating it against
// sourcePath's current mtime/size. Returns ErrCacheStale if the source has
// changed since the cache was written, or ErrCacheCorrupt if the cache
// file itself is unreadable.
func (c *Cache) Load(sourcePath string) (*ParseIndex, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, err
	}
	idx, err := vcache.Load(c.pathFor(sourcePath), info.ModTime().UnixNano(), info.Size())
	if err != nil {
		return nil, err
	}
	return &ParseIndex{raw: idx}, nil
}

// Save persists index's cache entry for sourcePath, recording sourcePath's
// current mtime/size so a later Load can detect staleness.
func (c *Cache) Save(sourcePath string, index *ParseIndex) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	return vcache.Save(c.pathFor(sourcePath), info.ModTime().UnixNano(), info.Size(), index.raw)
}

// Discard removes sourcePath's cache entry, if any.
func (c *Cache) Discard(sourcePath string) error {
	return vcache.Discard(c.pathFor(sourcePath))
}
