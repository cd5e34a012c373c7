package ml

import "math"

// treeNode is one node of a CART-style regression tree whose leaves store
// the mean target (read as a probability since targets are in {0,1}).
type treeNode struct {
	isLeaf     bool
	prediction float64

	splitFeature int
	splitValue   float64
	left, right  *treeNode
}

// treeParams bounds a tree's growth, shared by the random forest (depth
// 10, min-split 5) and the shallower "GBM" forest (depth 5) per spec
// §4.9.
type treeParams struct {
	maxDepth      int
	minSplit      int
	featuresTried int // 0 means try every feature (bagging handles the forest's diversity)
}

func meanTarget(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

// variance computes the population variance of y over idx, the split
// criterion for this regression tree (equivalent to Gini impurity for a
// 0/1 target up to a constant factor).
func variance(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	mean := meanTarget(y, idx)
	sum := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sum += d * d
	}
	return sum / float64(len(idx))
}

func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams, rng *rng) *treeNode {
	if depth >= p.maxDepth || len(idx) < p.minSplit || len(idx) == 0 {
		return &treeNode{isLeaf: true, prediction: meanTarget(y, idx)}
	}

	nFeatures := len(X[idx[0]])
	candidateFeatures := featureCandidates(nFeatures, p.featuresTried, rng)

	bestGain := 0.0
	bestFeature := -1
	var bestValue float64
	var bestLeft, bestRight []int

	parentVar := variance(y, idx)

	for _, f := range candidateFeatures {
		values := uniqueSorted(X, idx, f)
		for _, threshold := range values {
			var left, right []int
			for _, i := range idx {
				if X[i][f] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			weightedVar := (float64(len(left))*variance(y, left) + float64(len(right))*variance(y, right)) / float64(len(idx))
			gain := parentVar - weightedVar
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestValue = threshold
				bestLeft = left
				bestRight = right
			}
		}
	}

	if bestFeature == -1 {
		return &treeNode{isLeaf: true, prediction: meanTarget(y, idx)}
	}

	return &treeNode{
		splitFeature: bestFeature,
		splitValue:   bestValue,
		left:         buildTree(X, y, bestLeft, depth+1, p, rng),
		right:        buildTree(X, y, bestRight, depth+1, p, rng),
	}
}

func uniqueSorted(X [][]float64, idx []int, feature int) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, i := range idx {
		v := X[i][feature]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func featureCandidates(nFeatures, want int, rng *rng) []int {
	if want <= 0 || want >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.perm(nFeatures)
	return perm[:want]
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.isLeaf {
		if x[n.splitFeature] <= n.splitValue {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prediction
}

// rng is a tiny deterministic linear-congruential generator, used instead
// of math/rand so bootstrap sampling and feature subsampling stay
// reproducible across retrains without needing a seeded global source.
type rng struct {
	state uint64
}

func newRNG(seed uint64) *rng {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &rng{state: seed}
}

func (r *rng) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

func (r *rng) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.next() % uint64(n))
}

func (r *rng) perm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (r *rng) bootstrapSample(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = r.intn(n)
	}
	return idx
}

func sqrtInt(n int) int {
	return int(math.Sqrt(float64(n)))
}
