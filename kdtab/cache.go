package kdtab

import (
	"database/sql/driver"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viant/sqlite-kd/index"
	sqlite "modernc.org/sqlite"
)

// DefaultCacheSize is the number of dataset indexes kept in memory.
const DefaultCacheSize = 256

// Global shared cache of indices keyed by db path/table/dataset for
// cross-connection reuse; least recently used datasets are evicted.
var sharedCache = newIndexCache(DefaultCacheSize)

type indexCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *cacheEntry]
}

func newIndexCache(size int) *indexCache {
	entries, _ := lru.NewWithEvict[string, *cacheEntry](size, func(key string, _ *cacheEntry) {
		log().Debug("kd index evicted", "key", key)
	})
	return &indexCache{entries: entries}
}

// SetCacheSize changes the number of dataset indexes kept in memory.
func SetCacheSize(size int) {
	if size > 0 {
		sharedCache.entries.Resize(size)
	}
}

var registerInvalidateOnce sync.Once

// builtIndex is a dataset index together with the shadow rowids of its ids.
type builtIndex struct {
	idx    index.Index
	rowids map[string]int64
}

type cacheEntry struct {
	mu         sync.Mutex
	cond       *sync.Cond
	data       *builtIndex
	building   bool
	generation uint64
}

func newCacheEntry() *cacheEntry {
	e := &cacheEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *cacheEntry) get() *builtIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data
}

func (e *cacheEntry) invalidate() {
	e.mu.Lock()
	e.data = nil
	e.generation++
	e.mu.Unlock()
}

// startBuild claims the build; the returned generation must be handed back
// to finishBuild.
func (e *cacheEntry) startBuild() (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.data != nil || e.building {
		return 0, false
	}
	e.building = true
	return e.generation, true
}

// finishBuild publishes data unless the entry was invalidated while building.
func (e *cacheEntry) finishBuild(generation uint64, data *builtIndex) {
	e.mu.Lock()
	e.building = false
	if data != nil && generation == e.generation {
		e.data = data
	}
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *cacheEntry) waitForBuild() *builtIndex {
	e.mu.Lock()
	for e.building {
		e.cond.Wait()
	}
	data := e.data
	e.mu.Unlock()
	return data
}

func cacheKey(dbPath, tableName, dataset string) string {
	return dbPath + "|" + tableName + "|" + dataset
}

func getCacheEntry(key string) *cacheEntry {
	if entry, ok := sharedCache.entries.Get(key); ok {
		return entry
	}
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	entry, ok := sharedCache.entries.Get(key)
	if !ok {
		entry = newCacheEntry()
		sharedCache.entries.Add(key, entry)
	}
	return entry
}

// InvalidateCache clears cached indices for a given shadow/dataset across
// active connections; an empty dataset clears every dataset of the table.
// It returns the number of cleared entries.
func InvalidateCache(shadow, dataset string) int {
	tableName := tableNameFromShadow(shadow)
	if tableName == "" {
		tableName = shadow
	}
	count := 0
	pattern := "|" + tableName + "|"
	suffix := pattern + dataset
	for _, k := range sharedCache.entries.Keys() {
		if dataset == "" && !strings.Contains(k, pattern) || dataset != "" && !strings.HasSuffix(k, suffix) {
			continue
		}
		if entry, ok := sharedCache.entries.Peek(k); ok {
			entry.invalidate()
			count++
		}
	}
	if count > 0 {
		cacheInvalidations.Add(float64(count))
		log().Debug("kd cache invalidated", "shadow", shadow, "dataset", dataset, "entries", count)
	}
	return count
}

// invalidateFunc implements SQL scalar kd_invalidate(shadow TEXT, dataset TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	ds, err := asString(args[1])
	if err != nil {
		return int64(0), nil
	}
	return int64(InvalidateCache(shadow, ds)), nil
}

func registerInvalidate() error {
	var err error
	registerInvalidateOnce.Do(func() {
		err = sqlite.RegisterScalarFunction("kd_invalidate", 2, invalidateFunc)
		if err != nil && strings.Contains(err.Error(), "already registered") {
			err = nil
		}
	})
	return err
}
