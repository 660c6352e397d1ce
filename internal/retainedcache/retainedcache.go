// Package retainedcache persists computed RetainedHeap results beside the
// snapshot they were computed from, content-addressed by the snapshot's
// SHA-1 digest plus an algorithm-version integer, grounded on
// original_source/pyheap-ui/src/pyheap_ui/heap.py's RetainedHeapCache.
package retainedcache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/pherr"
	"github.com/ivanyu/pyheap-go/internal/retained"
)

// Version is bumped whenever the retained-heap algorithm changes
// semantics, invalidating every prior cache entry.
const Version = 1

// Cache reads and writes the retained-heap cache file beside (or, with a
// CacheDir override, alongside a copy of the basename in) the snapshot
// file.
type Cache struct {
	snapshotPath string
	cacheDir     string
	log          *slog.Logger
}

// New returns a Cache for the snapshot at snapshotPath. cacheDir, if
// non-empty, overrides the directory the cache file is read from/written
// to; otherwise the cache sits beside the snapshot.
func New(snapshotPath, cacheDir string, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{snapshotPath: snapshotPath, cacheDir: cacheDir, log: log}
}

type record struct {
	Objects map[string]int64 `json:"objects"`
	Threads map[string]int64 `json:"threads"`
}

// Load returns the cached result, if one exists and parses cleanly. A
// missing file is not an error: ok is false with err nil. A corrupt file
// is logged and also treated as a miss (spec.md §7: CacheCorruption never
// blocks computation), not returned as an error.
func (c *Cache) Load() (rh *retained.RetainedHeap, ok bool, err error) {
	path, err := c.fileName()
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, pherr.WrapResourceError(err, "read retained-heap cache")
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		c.log.Warn("retained heap cache corrupted, treating as miss", "path", path, "error", err)
		return nil, false, nil
	}

	objects := make(map[address.Address]int64, len(rec.Objects))
	for k, v := range rec.Objects {
		a, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			c.log.Warn("retained heap cache corrupted, treating as miss", "path", path, "error", perr)
			return nil, false, nil
		}
		objects[address.Address(a)] = v
	}

	c.log.Info("loaded retained heap cache", "path", path)
	return &retained.RetainedHeap{Objects: objects, Threads: rec.Threads}, true, nil
}

// Store writes rh to the cache file, overwriting any existing content.
func (c *Cache) Store(rh *retained.RetainedHeap) error {
	path, err := c.fileName()
	if err != nil {
		return err
	}

	rec := record{
		Objects: make(map[string]int64, len(rh.Objects)),
		Threads: rh.Threads,
	}
	for a, v := range rh.Objects {
		rec.Objects[strconv.FormatUint(uint64(a), 10)] = v
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal retained heap cache")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pherr.WrapResourceError(err, "write retained-heap cache")
	}
	c.log.Info("saved retained heap cache", "path", path)
	return nil
}

func (c *Cache) fileName() (string, error) {
	digest, err := c.snapshotDigest()
	if err != nil {
		return "", err
	}
	suffix := "." + digest + "." + strconv.Itoa(Version) + ".retained_heap"

	if c.cacheDir == "" {
		return c.snapshotPath + suffix, nil
	}
	return filepath.Join(c.cacheDir, filepath.Base(c.snapshotPath)+suffix), nil
}

func (c *Cache) snapshotDigest() (string, error) {
	f, err := os.Open(c.snapshotPath)
	if err != nil {
		return "", pherr.WrapResourceError(err, "open snapshot file for hashing")
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", pherr.WrapResourceError(err, "hash snapshot file")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
