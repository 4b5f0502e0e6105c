package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elasticpathing/traceprep/internal/database"
	"github.com/elasticpathing/traceprep/internal/matching"
	"github.com/elasticpathing/traceprep/internal/metrics"
	"github.com/elasticpathing/traceprep/internal/models"
	"github.com/elasticpathing/traceprep/internal/repository"
	"github.com/elasticpathing/traceprep/internal/trace"
	fixtures "github.com/elasticpathing/traceprep/internal/testutil"
)

type anchorRow struct {
	time, nodeID int64
	ok           bool
}

func readAnchor(t *testing.T, path string) anchorRow {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: path, ReadOnly: true})
	require.NoError(t, err)
	defer db.Close()

	var row anchorRow
	row.time, row.nodeID, row.ok, err = repository.NewTraceRepository(db).GetAnchor(ctx)
	require.NoError(t, err)
	return row
}

// setup builds a map with one named node and a store tree holding an
// on-road trace, an off-map trace and an empty store.
func setup(t *testing.T) (driver *Driver, collector *metrics.Collector, root string, stores map[string]string) {
	t.Helper()
	ctx := context.Background()

	mapPath := fixtures.CreateMapDB(t, t.TempDir(),
		[]models.MapNode{{ID: 100, Lat: 47.6000, Lon: -122.3300}},
		[]fixtures.Way{{WID: 1, Name: "Pine Street", NID: 100}})

	root = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "day2"), 0o755))
	stores = map[string]string{
		"road":  filepath.Join(root, "day1_1.sq3"),
		"lost":  filepath.Join(root, "day2", "day2_1.sq3"),
		"empty": filepath.Join(root, "day2", "day2_2.sq3"),
	}
	fixtures.CreateTraceStore(t, stores["road"], []models.TraceSample{
		{Time: 28801000, Lat: 47.6000, Lon: -122.3300, Speed: 12},
		{Time: 28802000, Lat: 47.6001, Lon: -122.3301, Speed: 12},
	})
	fixtures.CreateTraceStore(t, stores["lost"], []models.TraceSample{
		{Time: 30001000, Lat: 10, Lon: 10},
		{Time: 30002000, Lat: 10.001, Lon: 10.001},
	})
	fixtures.CreateTraceStore(t, stores["empty"], nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("not a store"), 0o644))

	mapDB, err := database.Open(ctx, database.Config{Path: mapPath, ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { mapDB.Close() })

	collector = metrics.NewCollector()
	m := matching.NewMatcher(repository.NewNodeRepository(mapDB), matching.Options{}, nil)
	return NewDriver(m, ".sq3", collector, nil), collector, root, stores
}

func TestRunAnchorsStores(t *testing.T) {
	driver, collector, root, stores := setup(t)

	sum, err := driver.Run(context.Background(), root)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Stores)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Fallback)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 1, sum.Empty)
	assert.Equal(t, "bad nodes percentage: 1/2", sum.BadNodes())
	assert.Equal(t, 100.0, sum.Percent())

	assert.Equal(t, anchorRow{time: 28801000, nodeID: 100, ok: true}, readAnchor(t, stores["road"]))
	assert.Equal(t, anchorRow{time: 30001000, nodeID: models.NoNodeID, ok: true}, readAnchor(t, stores["lost"]))
	assert.False(t, readAnchor(t, stores["empty"]).ok)

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.TracesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.TracesFallback))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.TracesEmpty))
}

func TestRunIsIdempotent(t *testing.T) {
	driver, collector, root, stores := setup(t)
	ctx := context.Background()

	_, err := driver.Run(ctx, root)
	require.NoError(t, err)
	before := map[string]anchorRow{}
	for name, path := range stores {
		before[name] = readAnchor(t, path)
	}

	sum, err := driver.Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 1, sum.Empty)
	assert.Equal(t, "bad nodes percentage: 0/0", sum.BadNodes())

	for name, path := range stores {
		assert.Equal(t, before[name], readAnchor(t, path), name)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.TracesSkipped))
}

func TestRunDistinctRunIDs(t *testing.T) {
	driver, _, root, _ := setup(t)

	first, err := driver.Run(context.Background(), root)
	require.NoError(t, err)
	second, err := driver.Run(context.Background(), root)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunEmptyRoot(t *testing.T) {
	driver, _, _, _ := setup(t)

	sum, err := driver.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Stores)
	assert.Equal(t, 100.0, sum.Percent())
}

func TestRunMissingRoot(t *testing.T) {
	driver, _, _, _ := setup(t)

	_, err := driver.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunCancelled(t *testing.T) {
	driver, _, root, stores := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.Run(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, readAnchor(t, stores["road"]).ok)
}

func TestRunRematchesReconvertedStore(t *testing.T) {
	driver, _, root, stores := setup(t)
	ctx := context.Background()

	_, err := driver.Run(ctx, root)
	require.NoError(t, err)
	require.Equal(t, int64(100), readAnchor(t, stores["road"]).nodeID)

	// a Chicago trace rewritten over the Seattle store
	raw := filepath.Join(t.TempDir(), "day1.txt")
	require.NoError(t, os.WriteFile(raw, []byte("Date,Time,Latitude,Longitude\n"+
		"1/2/2012,9:00:00 AM,41.8781,-87.6298\n"+
		"1/2/2012,9:00:05 AM,41.8782,-87.6299\n"), 0o644))
	res, err := trace.NewConverter(trace.SegmenterOptions{}, nil).
		ConvertFile(ctx, raw, trace.FileStores{Dir: root, Base: "day1", Suffix: ".sq3"})
	require.NoError(t, err)
	require.Equal(t, []string{stores["road"]}, res.Stores)
	assert.False(t, readAnchor(t, stores["road"]).ok)

	sum, err := driver.Run(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, anchorRow{time: 32401000, nodeID: models.NoNodeID, ok: true}, readAnchor(t, stores["road"]))
}

func TestRunPrintsRunningCounts(t *testing.T) {
	driver, _, root, _ := setup(t)
	var out bytes.Buffer

	_, err := driver.WithProgress(&out).Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t,
		"1/3 stores: 1 anchored, 0 fallback, 0 skipped, 0 empty\n"+
			"2/3 stores: 2 anchored, 1 fallback, 0 skipped, 0 empty\n"+
			"3/3 stores: 2 anchored, 1 fallback, 0 skipped, 1 empty\n",
		out.String())
}
