package services

import (
	"testing"

	"store-route-planner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationIDs(c domain.Cluster) []int64 {
	ids := make([]int64, 0, len(c.Records))
	for _, r := range c.Records {
		ids = append(ids, r.Location.ID)
	}
	return ids
}

func TestClusterDemandCoversEveryRecordOnce(t *testing.T) {
	records := riyadhDemand()

	clusters, err := ClusterDemand(records, 4, DefaultClusterOptions())
	require.NoError(t, err)
	require.Len(t, clusters, 4)

	seen := map[int64]int{}
	for i, c := range clusters {
		assert.Equal(t, i+1, c.Vehicle)
		for _, id := range locationIDs(c) {
			seen[id]++
		}
	}

	require.Len(t, seen, len(records))
	for id, n := range seen {
		assert.Equalf(t, 1, n, "location %d assigned %d times", id, n)
	}
}

func TestClusterDemandIsDeterministic(t *testing.T) {
	records := riyadhDemand()

	first, err := ClusterDemand(records, 3, DefaultClusterOptions())
	require.NoError(t, err)

	for range 5 {
		again, err := ClusterDemand(records, 3, DefaultClusterOptions())
		require.NoError(t, err)
		require.Len(t, again, len(first))
		for i := range first {
			assert.Equal(t, locationIDs(first[i]), locationIDs(again[i]))
		}
	}
}

func TestClusterDemandSeparatesDistantGroups(t *testing.T) {
	records := []domain.DemandRecord{
		demand(1, 24.50, 46.50, 10),
		demand(2, 24.5001, 46.5001, 10),
		demand(3, 24.90, 46.90, 10),
		demand(4, 24.9001, 46.9001, 10),
	}

	clusters, err := ClusterDemand(records, 2, DefaultClusterOptions())
	require.NoError(t, err)

	groups := [][]int64{locationIDs(clusters[0]), locationIDs(clusters[1])}
	assert.ElementsMatch(t, [][]int64{{1, 2}, {3, 4}}, groups)
}

func TestClusterDemandFewerRecordsThanVehicles(t *testing.T) {
	records := riyadhDemand()[:2]

	clusters, err := ClusterDemand(records, 4, DefaultClusterOptions())
	require.NoError(t, err)
	require.Len(t, clusters, 4)

	assert.Equal(t, []int64{1}, locationIDs(clusters[0]))
	assert.Equal(t, []int64{2}, locationIDs(clusters[1]))
	assert.Empty(t, clusters[2].Records)
	assert.Empty(t, clusters[3].Records)
}

func TestClusterDemandRejectsNonPositiveK(t *testing.T) {
	for _, k := range []int{0, -1} {
		_, err := ClusterDemand(riyadhDemand(), k, DefaultClusterOptions())
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestClusterDemandIdenticalCoordinates(t *testing.T) {
	records := []domain.DemandRecord{
		demand(1, 24.7, 46.7, 10),
		demand(2, 24.7, 46.7, 20),
		demand(3, 24.7, 46.7, 30),
	}

	clusters, err := ClusterDemand(records, 2, DefaultClusterOptions())
	require.NoError(t, err)

	total := 0
	for _, c := range clusters {
		total += len(c.Records)
	}
	assert.Equal(t, 3, total)
}
