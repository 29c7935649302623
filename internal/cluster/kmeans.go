package cluster

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// run is one k-means solution.
type run struct {
	centers [][]float64
	labels  []int
	inertia float64
}

// kmeans clusters points into k groups, restarting nInit times and keeping
// the solution with the lowest inertia. Earlier restarts win ties.
func kmeans(points [][]float64, k, nInit, maxIter int, tol float64, rng *rand.Rand) run {
	best := run{inertia: math.Inf(1)}
	for range max(nInit, 1) {
		centers := seedPlusPlus(points, k, rng)
		r := lloyd(points, centers, maxIter, tol)
		if r.inertia < best.inertia {
			best = r
		}
	}
	return best
}

// seedPlusPlus picks k initial centers with k-means++ weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(len(points))]))

	d2 := make([]float64, len(points))
	for i, p := range points {
		d2[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(d2)
		var next int
		if total == 0 {
			next = rng.IntN(len(points))
		} else {
			target := rng.Float64() * total
			acc := 0.0
			next = len(points) - 1
			for i, d := range d2 {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		}
		c := clone(points[next])
		centers = append(centers, c)
		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centers
}

// lloyd refines centers until assignments settle, the centers move less
// than tol, or maxIter is reached.
func lloyd(points [][]float64, centers [][]float64, maxIter int, tol float64) run {
	k := len(centers)
	dim := len(points[0])
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	for iter := 0; iter < max(maxIter, 1); iter++ {
		changed := false
		for i, p := range points {
			if c := nearest(p, centers); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := range sums {
			for j := range sums[c] {
				sums[c][j] = 0
			}
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centers {
			if counts[c] == 0 {
				// Empty cluster keeps its previous center.
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centers[c], sums[c])
			copy(centers[c], sums[c])
		}
		if shift <= tol {
			// Reassign once more so labels match the final centers.
			for i, p := range points {
				labels[i] = nearest(p, centers)
			}
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return run{centers: centers, labels: labels, inertia: inertia}
}

// nearest returns the index of the closest center; ties go to the lower index.
func nearest(p []float64, centers [][]float64) int {
	best := 0
	bestD := math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			best = c
			bestD = d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func clone(p []float64) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
