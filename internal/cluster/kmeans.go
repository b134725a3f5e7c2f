// Package cluster implements k-means clustering over a collection's live
// vectors (component F), so the search engine can narrow a semantic query
// to the top-K nearest clusters instead of scanning every vector.
package cluster

import (
	"math"
	"math/rand/v2"

	"github.com/codanna-go/codanna/internal/core"
)

// defaultMaxIterations bounds how long Lloyd's algorithm runs before
// accepting whatever centroids it has, even if they haven't converged.
const defaultMaxIterations = 100

// defaultEpsilon is the centroid-shift threshold below which clustering is
// considered converged.
const defaultEpsilon = 1e-4

// Options configures one clustering run. Zero values fall back to the
// package defaults.
type Options struct {
	MaxIterations int
	Epsilon       float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.Epsilon <= 0 {
		o.Epsilon = defaultEpsilon
	}
	return o
}

// KForN returns the cluster count spec.md mandates for a collection of n
// live vectors: k = clamp(ceil(sqrt(n)), 1, 100).
func KForN(n int) int {
	if n <= 0 {
		return 1
	}
	k := int(math.Ceil(math.Sqrt(float64(n))))
	if k < 1 {
		k = 1
	}
	if k > 100 {
		k = 100
	}
	return k
}

// Result is the output of one clustering run.
type Result struct {
	Centroids   [][]float32
	Assignments map[core.VectorId]core.ClusterId
}

// Run clusters vectors (assumed L2-normalized, one per id) with
// k = KForN(len(ids)) using cosine similarity. The PRNG seed is derived
// from n alone so rebuilds of the same collection size are reproducible,
// as spec.md's clustering determinism requirement asks for.
func Run(ids []core.VectorId, vectors [][]float32, opts Options) Result {
	opts = opts.withDefaults()
	n := len(ids)
	if n == 0 {
		return Result{Assignments: map[core.VectorId]core.ClusterId{}}
	}

	k := KForN(n)
	if k > n {
		k = n
	}

	rng := rand.New(rand.NewPCG(uint64(n), uint64(n)))
	centroids := seedCentroids(vectors, k, rng)

	assignment := make([]int, n)
	for iter := 0; iter < opts.MaxIterations; iter++ {
		changed := assign(vectors, centroids, assignment)
		newCentroids := recompute(vectors, assignment, k, len(vectors[0]))
		shift := centroidShift(centroids, newCentroids)
		centroids = newCentroids
		if !changed || shift < opts.Epsilon {
			break
		}
	}
	// Final assignment pass against the converged centroids.
	assign(vectors, centroids, assignment)

	out := Result{Centroids: centroids, Assignments: make(map[core.VectorId]core.ClusterId, n)}
	for i, id := range ids {
		clusterID, err := core.NewClusterId(uint32(assignment[i] + 1))
		if err != nil {
			continue
		}
		out.Assignments[id] = clusterID
	}
	return out
}

// seedCentroids picks k distinct vectors as initial centroids using rng,
// deterministic sampling without replacement.
func seedCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	perm := rng.Perm(n)
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float32(nil), vectors[perm[i]]...)
	}
	return centroids
}

// assign sets assignment[i] to the index of the centroid with highest
// cosine similarity to vectors[i], returning whether any assignment
// changed from its previous value.
func assign(vectors [][]float32, centroids [][]float32, assignment []int) bool {
	changed := false
	for i, v := range vectors {
		best, bestSim := 0, -2.0
		for c, centroid := range centroids {
			sim := cosineSimilarity(v, centroid)
			if sim > bestSim {
				bestSim, best = sim, c
			}
		}
		if assignment[i] != best {
			assignment[i] = best
			changed = true
		}
	}
	return changed
}

// recompute averages each cluster's member vectors and re-normalizes the
// result, since cosine similarity against a non-unit centroid would no
// longer compare like with like.
func recompute(vectors [][]float32, assignment []int, k, dim int) [][]float32 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, v := range vectors {
		c := assignment[i]
		counts[c]++
		for d, x := range v {
			sums[c][d] += float64(x)
		}
	}

	centroids := make([][]float32, k)
	for c := range centroids {
		centroid := make([]float32, dim)
		if counts[c] > 0 {
			for d := range centroid {
				centroid[d] = float32(sums[c][d] / float64(counts[c]))
			}
			normalize(centroid)
		}
		centroids[c] = centroid
	}
	return centroids
}

// centroidShift sums 1-cosine_similarity across matching centroid pairs,
// the convergence signal Run checks against Epsilon.
func centroidShift(old, new [][]float32) float64 {
	var shift float64
	for i := range old {
		shift += 1 - float64(cosineSimilarity(old[i], new[i]))
	}
	return shift
}

func cosineSimilarity(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

func normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
}
