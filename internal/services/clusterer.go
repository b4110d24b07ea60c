package services

import (
	"fmt"
	"math"
	"math/rand/v2"

	"store-route-planner/internal/domain"
)

// ClusterOptions controls the k-means partitioning of demand.
type ClusterOptions struct {
	// Seed fixes the pseudo-random initialization so equal input yields equal clusters.
	Seed uint64
	// Restarts is the number of k-means++ initializations; the lowest inertia wins.
	Restarts int
	// MaxIterations caps Lloyd iterations per restart.
	MaxIterations int
}

func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{
		Seed:          42,
		Restarts:      4,
		MaxIterations: 300,
	}
}

// Centroid movement (deg²) below which a restart is considered converged.
const clusterTolerance = 1e-12

type point [2]float64

// ClusterDemand partitions records into k geographic groups, one per vehicle.
//
// Membership is decided by k-means on raw (lat, lon) pairs. No projection
// correction is applied, which is acceptable at city scale. When there are
// fewer records than groups, record i is placed in group i and the remaining
// groups stay empty. Every record lands in exactly one group.
func ClusterDemand(records []domain.DemandRecord, k int, opts ClusterOptions) ([]domain.Cluster, error) {
	if k <= 0 {
		return nil, domain.NewInputError("vehicle_count", fmt.Sprintf("must be positive, got %d", k))
	}
	if opts.Restarts <= 0 {
		opts.Restarts = 1
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultClusterOptions().MaxIterations
	}

	clusters := make([]domain.Cluster, k)
	for i := range clusters {
		clusters[i] = domain.Cluster{Vehicle: i + 1}
	}

	if len(records) < k {
		for i, r := range records {
			clusters[i].Records = append(clusters[i].Records, r)
		}
		return clusters, nil
	}

	points := make([]point, len(records))
	for i, r := range records {
		points[i] = point{r.Location.Coords.Lat, r.Location.Coords.Lon}
	}

	labels := kmeans(points, k, opts)
	for i, r := range records {
		clusters[labels[i]].Records = append(clusters[labels[i]].Records, r)
	}

	return clusters, nil
}

// kmeans returns the label of every point for the best of opts.Restarts runs.
func kmeans(points []point, k int, opts ClusterOptions) []int {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	var bestLabels []int
	bestInertia := math.Inf(1)
	for run := 0; run < opts.Restarts; run++ {
		centroids := seedCentroids(points, k, rng)
		labels, inertia := lloyd(points, centroids, opts.MaxIterations)
		if bestLabels == nil || inertia < bestInertia {
			bestLabels = labels
			bestInertia = inertia
		}
	}

	return bestLabels
}

// seedCentroids picks k initial centroids with k-means++ weighting.
func seedCentroids(points []point, k int, rng *rand.Rand) []point {
	n := len(points)
	centroids := make([]point, 0, k)
	centroids = append(centroids, points[rng.IntN(n)])

	dist := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			_, d := nearestCentroid(p, centroids)
			dist[i] = d
			total += d
		}

		// All remaining points coincide with a centroid.
		if !(total > 0) {
			centroids = append(centroids, points[rng.IntN(n)])
			continue
		}

		target := rng.Float64() * total
		chosen := n - 1
		cum := 0.0
		for i, d := range dist {
			cum += d
			if cum > target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

// lloyd refines centroids in place and returns labels and inertia for the
// final centroids. Groups that lose every point keep their previous centroid.
func lloyd(points []point, centroids []point, maxIter int) ([]int, float64) {
	k := len(centroids)
	labels := make([]int, len(points))
	sums := make([]point, k)
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		assign(points, centroids, labels)

		for j := range sums {
			sums[j] = point{}
			counts[j] = 0
		}
		for i, p := range points {
			l := labels[i]
			sums[l][0] += p[0]
			sums[l][1] += p[1]
			counts[l]++
		}

		shift := 0.0
		for j := range centroids {
			if counts[j] == 0 {
				continue
			}
			next := point{sums[j][0] / float64(counts[j]), sums[j][1] / float64(counts[j])}
			shift += sqDist(next, centroids[j])
			centroids[j] = next
		}

		if !(shift > clusterTolerance) {
			break
		}
	}

	inertia := assign(points, centroids, labels)
	return labels, inertia
}

// assign writes the nearest centroid of every point into labels and returns
// the summed squared distance.
func assign(points []point, centroids []point, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		l, d := nearestCentroid(p, centroids)
		labels[i] = l
		inertia += d
	}
	return inertia
}

// nearestCentroid returns the index and squared distance of the closest
// centroid. Ties go to the lowest index.
func nearestCentroid(p point, centroids []point) (int, float64) {
	best := 0
	bestDist := math.Inf(1)
	for j, c := range centroids {
		d := sqDist(p, c)
		if d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best, bestDist
}

func sqDist(a, b point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
