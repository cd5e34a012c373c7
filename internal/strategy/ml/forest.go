package ml

// Model is the common training/inference surface every ensemble member
// implements, per spec §4.9's "each model exposes train(X, y) and
// predict(x) -> probability of Up".
type Model interface {
	Train(X [][]float64, y []float64)
	Predict(x []float64) float64
	Name() string
}

// Forest is a bagged ensemble of regression trees whose leaf means are
// read as a probability. RandomForest (100 trees, depth 10) and the
// simplified GBM (50 trees, depth 5) are both instances of this shape —
// spec §4.9 explicitly calls the latter "a shallower forest", not true
// gradient boosting.
type Forest struct {
	name    string
	nTrees  int
	params  treeParams
	trees   []*treeNode
	rng     *rng
}

func newForest(name string, nTrees, maxDepth, minSplit int) *Forest {
	return &Forest{
		name:   name,
		nTrees: nTrees,
		params: treeParams{maxDepth: maxDepth, minSplit: minSplit},
		rng:    newRNG(uint64(nTrees*maxDepth + minSplit)),
	}
}

// NewRandomForest builds the 100-tree, depth-10, min-split-5 forest.
func NewRandomForest() *Forest {
	return newForest("random_forest", 100, 10, 5)
}

// NewGBM builds the simplified 50-tree, depth-5 "GBM" forest.
func NewGBM() *Forest {
	return newForest("gbm_simplified", 50, 5, 5)
}

func (f *Forest) Name() string { return f.name }

// Train grows nTrees trees, each on a bootstrap resample of (X, y) with a
// sqrt(nFeatures)-sized random feature subset per split, the standard
// random-forest diversity mechanism.
func (f *Forest) Train(X [][]float64, y []float64) {
	if len(X) == 0 {
		f.trees = nil
		return
	}
	nFeatures := len(X[0])
	f.params.featuresTried = sqrtInt(nFeatures)
	if f.params.featuresTried < 1 {
		f.params.featuresTried = 1
	}

	trees := make([]*treeNode, f.nTrees)
	for t := 0; t < f.nTrees; t++ {
		idx := f.rng.bootstrapSample(len(X))
		trees[t] = buildTree(X, y, idx, 0, f.params, f.rng)
	}
	f.trees = trees
}

// Predict averages every tree's leaf prediction.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}
