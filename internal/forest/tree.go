// Package forest implements CART random forests over dense float64 feature
// rows: a classifier over integer class codes and a regressor over real
// targets.
package forest

import (
	"math/rand"
	"sort"
)

// Node is one entry of a tree's flat node table. Internal nodes route
// x[Feature] <= Threshold to Left, everything else to Right. Classifier
// leaves carry the class distribution of the training samples that reached
// them; regressor leaves carry their mean target in Value.
type Node struct {
	Dist      []float64
	Threshold float64
	Gain      float64
	Value     float64
	Feature   int
	Left      int
	Right     int
	Samples   int
	Leaf      bool
}

// Tree is a fitted decision tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// leaf walks the tree and returns the leaf reached by row.
func (t *Tree) leaf(row []float64) *Node {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Leaf {
			return n
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Leaf {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// criterion scores candidate splits. reset loads a node's samples on the
// right side; shift moves one sample to the left side.
type criterion interface {
	reset(samples []int) float64
	shift(sample int)
	weighted(nl, nr int) float64
	pure(samples []int) bool
	leaf(samples []int) Node
}

// builder grows one tree. It is not safe for concurrent use; each tree gets
// its own builder and random source.
type builder struct {
	x      [][]float64
	rng    *rand.Rand
	crit   criterion
	params Params
	mtry   int
	nodes  []Node
}

func newBuilder(x [][]float64, crit criterion, params Params, rng *rand.Rand) *builder {
	return &builder{
		x:      x,
		rng:    rng,
		crit:   crit,
		params: params,
		mtry:   params.featuresPerSplit(len(x[0])),
	}
}

func (b *builder) build(samples []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

// grow appends the subtree for samples and returns its node index.
func (b *builder) grow(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Samples: len(samples)})

	if b.stop(samples, depth) {
		b.makeLeaf(idx, samples)
		return idx
	}

	best, ok := b.bestSplit(samples)
	if !ok {
		b.makeLeaf(idx, samples)
		return idx
	}

	left, right := partition(b.x, samples, best.feature, best.threshold)
	// A split that does not separate anything would recurse forever.
	if len(left) == 0 || len(right) == 0 {
		b.makeLeaf(idx, samples)
		return idx
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)

	b.nodes[idx] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Gain:      best.gain,
		Left:      l,
		Right:     r,
		Samples:   len(samples),
	}
	return idx
}

func (b *builder) stop(samples []int, depth int) bool {
	if len(samples) < b.params.MinSamplesSplit || len(samples) < 2*b.params.MinSamplesLeaf {
		return true
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return true
	}
	return b.crit.pure(samples)
}

func (b *builder) makeLeaf(idx int, samples []int) {
	n := b.crit.leaf(samples)
	n.Leaf = true
	n.Samples = len(samples)
	b.nodes[idx] = n
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans a random subset of mtry features and returns the split with
// the largest weighted impurity decrease.
func (b *builder) bestSplit(samples []int) (split, bool) {
	n := len(samples)
	features := b.candidateFeatures()

	var best split
	found := false
	order := make([]int, n)

	for _, f := range features {
		copy(order, samples)
		sort.SliceStable(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})

		parent := b.crit.reset(order)
		for i := 0; i < n-1; i++ {
			b.crit.shift(order[i])

			lo, hi := b.x[order[i]][f], b.x[order[i+1]][f]
			if lo == hi {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < b.params.MinSamplesLeaf || nr < b.params.MinSamplesLeaf {
				continue
			}

			gain := parent - b.crit.weighted(nl, nr)
			if gain <= 1e-12 {
				continue
			}
			if !found || gain > best.gain {
				best = split{feature: f, threshold: threshold(lo, hi), gain: gain * float64(n)}
				found = true
			}
		}
	}
	return best, found
}

// threshold returns the midpoint of two adjacent sorted values. When the
// values are neighbouring floats the midpoint rounds up to hi, which would
// send both sides left, so lo is used instead.
func threshold(lo, hi float64) float64 {
	mid := lo + (hi-lo)/2
	if mid >= hi || mid < lo {
		return lo
	}
	return mid
}

// candidateFeatures draws mtry distinct feature indices.
func (b *builder) candidateFeatures() []int {
	p := len(b.x[0])
	perm := make([]int, p)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < b.mtry; i++ {
		j := i + b.rng.Intn(p-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	out := perm[:b.mtry]
	sort.Ints(out)
	return out
}

func partition(x [][]float64, samples []int, feature int, threshold float64) (left, right []int) {
	for _, s := range samples {
		if x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	return left, right
}

// giniCriterion scores classification splits by Gini impurity.
type giniCriterion struct {
	y          []int
	left       []int
	right      []int
	numClasses int
}

func newGini(y []int, numClasses int) *giniCriterion {
	return &giniCriterion{
		y:          y,
		left:       make([]int, numClasses),
		right:      make([]int, numClasses),
		numClasses: numClasses,
	}
}

func (g *giniCriterion) reset(samples []int) float64 {
	clear(g.left)
	clear(g.right)
	for _, s := range samples {
		g.right[g.y[s]]++
	}
	return gini(g.right, len(samples))
}

func (g *giniCriterion) shift(sample int) {
	c := g.y[sample]
	g.left[c]++
	g.right[c]--
}

func (g *giniCriterion) weighted(nl, nr int) float64 {
	return (float64(nl)*gini(g.left, nl) + float64(nr)*gini(g.right, nr)) / float64(nl+nr)
}

func (g *giniCriterion) pure(samples []int) bool {
	if len(samples) < 2 {
		return true
	}
	for _, s := range samples[1:] {
		if g.y[s] != g.y[samples[0]] {
			return false
		}
	}
	return true
}

func (g *giniCriterion) leaf(samples []int) Node {
	dist := make([]float64, g.numClasses)
	if len(samples) == 0 {
		return Node{Dist: dist}
	}
	for _, s := range samples {
		dist[g.y[s]]++
	}
	for c := range dist {
		dist[c] /= float64(len(samples))
	}
	return Node{Dist: dist}
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

// mseCriterion scores regression splits by the variance of the target.
type mseCriterion struct {
	y                    []float64
	sumL, sqL, sumR, sqR float64
}

func newMSE(y []float64) *mseCriterion {
	return &mseCriterion{y: y}
}

func (m *mseCriterion) reset(samples []int) float64 {
	m.sumL, m.sqL, m.sumR, m.sqR = 0, 0, 0, 0
	for _, s := range samples {
		v := m.y[s]
		m.sumR += v
		m.sqR += v * v
	}
	return variance(m.sumR, m.sqR, len(samples))
}

func (m *mseCriterion) shift(sample int) {
	v := m.y[sample]
	m.sumL += v
	m.sqL += v * v
	m.sumR -= v
	m.sqR -= v * v
}

func (m *mseCriterion) weighted(nl, nr int) float64 {
	return (float64(nl)*variance(m.sumL, m.sqL, nl) + float64(nr)*variance(m.sumR, m.sqR, nr)) / float64(nl+nr)
}

func (m *mseCriterion) pure(samples []int) bool {
	if len(samples) < 2 {
		return true
	}
	for _, s := range samples[1:] {
		if m.y[s] != m.y[samples[0]] {
			return false
		}
	}
	return true
}

func (m *mseCriterion) leaf(samples []int) Node {
	if len(samples) == 0 {
		return Node{}
	}
	sum := 0.0
	for _, s := range samples {
		sum += m.y[s]
	}
	return Node{Value: sum / float64(len(samples))}
}

// variance is clamped at zero against rounding in sq/n - mean².
func variance(sum, sq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	return max(0, sq/float64(n)-mean*mean)
}
