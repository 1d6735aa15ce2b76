package kdtab

import (
	"database/sql/driver"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/index/bruteforce"
	"github.com/viant/sqlite-kd/kdtree"
)

func TestParseTableOptions(t *testing.T) {
	testCases := []struct {
		name   string
		args   []string
		expect index.Options
		err    bool
	}{
		{
			name:   "defaults",
			expect: index.Options{Kind: index.KindAuto, Distance: kdtree.DistanceFunctionSquaredEuclidean},
		},
		{
			name:   "all options",
			args:   []string{" distance = l1", "index='kd'", "auto_min_docs=10", "auto_max_dim=3", "unknown=1", "flag"},
			expect: index.Options{Kind: index.KindKD, Distance: kdtree.DistanceFunctionManhattan, AutoMinDocs: 10, AutoMaxDim: 3},
		},
		{name: "bad distance", args: []string{"distance=cosine"}, err: true},
		{name: "bad index", args: []string{"index=hnsw"}, err: true},
		{name: "bad threshold", args: []string{"auto_max_dim=x"}, err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTableOptions(tc.args)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, got)
		})
	}
}

func TestShadowNames(t *testing.T) {
	assert.Equal(t, "_kd_places", ShadowTableName("places"))
	assert.Equal(t, "places", tableNameFromShadow("main._kd_places"))
	assert.Equal(t, "places", tableNameFromShadow("_kd_places"))
	assert.Equal(t, "", tableNameFromShadow("places"))

	assert.True(t, validShadowName("main._kd_places"))
	assert.False(t, validShadowName("main._kd_places; DROP TABLE x"))
	assert.False(t, validShadowName("docs"))

	tbl := &Table{dbName: "main", tableName: "places"}
	assert.Equal(t, "main._kd_places", tbl.qualifiedShadow())
	assert.Equal(t, "trg_kd_main__kd_places", sanitizeName("trg_kd_main._kd_places"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestCacheEntry_InvalidateDuringBuild(t *testing.T) {
	entry := newCacheEntry()
	generation, ok := entry.startBuild()
	require.True(t, ok)
	_, ok = entry.startBuild()
	assert.False(t, ok, "second builder must wait")

	entry.invalidate()
	entry.finishBuild(generation, &builtIndex{idx: bruteforce.New("")})
	assert.Nil(t, entry.get(), "stale build must not be published")

	generation, ok = entry.startBuild()
	require.True(t, ok)
	data := &builtIndex{idx: bruteforce.New("")}
	entry.finishBuild(generation, data)
	assert.Same(t, data, entry.waitForBuild())
}

func TestInvalidateCache(t *testing.T) {
	a := getCacheEntry(cacheKey("/tmp/x.db", "inv_places", "a"))
	b := getCacheEntry(cacheKey("/tmp/x.db", "inv_places", "b"))
	other := getCacheEntry(cacheKey("/tmp/x.db", "inv_places_other", "a"))
	for _, e := range []*cacheEntry{a, b, other} {
		g, ok := e.startBuild()
		require.True(t, ok)
		e.finishBuild(g, &builtIndex{idx: bruteforce.New("")})
	}

	before := testutil.ToFloat64(cacheInvalidations)
	assert.Equal(t, 1, InvalidateCache("main._kd_inv_places", "a"))
	assert.Equal(t, before+1, testutil.ToFloat64(cacheInvalidations))
	assert.Nil(t, a.get())
	assert.NotNil(t, b.get())

	assert.Equal(t, 2, InvalidateCache("main._kd_inv_places", ""))
	assert.Nil(t, b.get())
	assert.NotNil(t, other.get())

	n, err := invalidateFunc(nil, []driver.Value{"_kd_inv_places_other", "a"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Nil(t, other.get())
}

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(reg))
	require.NoError(t, RegisterMetrics(reg), "second registration is a no-op")

	queries.WithLabelValues("knn").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "kd_queries_total")
}

func TestIndexCache_Evicts(t *testing.T) {
	cache := newIndexCache(2)
	for _, key := range []string{"a", "b", "c"} {
		cache.entries.Add(key, newCacheEntry())
	}
	assert.Equal(t, []string{"b", "c"}, cache.entries.Keys())
}
