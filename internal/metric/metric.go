// Package metric computes node-level graph metrics of a binary adjacency matrix.
//
// Degree and betweenness are computed on the undirected, unweighted graph whose
// edges are the non-zero off-diagonal entries of the matrix. Betweenness sums
// over ordered (source, target) pairs, so a node in the middle of a three-node
// path scores 2. This matches the Brain Connectivity Toolbox's betweenness_bin.
package metric

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// Nodes holds per-node metrics, indexed like the rows of the adjacency matrix
type Nodes struct {
	Degree      []int
	Betweenness []float64
}

// Graph builds an undirected graph with one node per row of adj and an edge
// for every non-zero entry above the diagonal
func Graph(adj *mat64.Dense) (*simple.UndirectedGraph, error) {
	rows, cols := adj.Dims()
	if rows != cols {
		return nil, errors.New(errors.FileFormat, "metric", "adjacency matrix is %d by %d, want square", rows, cols)
	}

	g := simple.NewUndirectedGraph()
	for i := 0; i < rows; i++ {
		g.AddNode(simple.Node(i))
	}

	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			if adj.At(i, j) != 0 || adj.At(j, i) != 0 {
				g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
			}
		}
	}

	return g, nil
}

// Degree returns the number of neighbours of each node 0..n-1
func Degree(g graph.Undirected, n int) []int {
	deg := make([]int, n)
	for i := 0; i < n; i++ {
		deg[i] = len(graph.NodesOf(g.From(int64(i))))
	}

	return deg
}

// Betweenness returns the betweenness centrality of each node 0..n-1
func Betweenness(g graph.Undirected, n int) ([]float64, error) {
	cb := network.Betweenness(g)

	bc := make([]float64, n)
	for id, v := range cb {
		if id < 0 || id >= int64(n) {
			return nil, errors.New(errors.Dependency, "metric", "betweenness returned unknown node id %d for %d nodes", id, n)
		}
		bc[id] = v
	}

	return bc, nil
}

// Compute returns degree and betweenness for every node of adj
func Compute(adj *mat64.Dense) (nodes Nodes, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(fmt.Errorf("%v", r), errors.Dependency, "metric", "graph computation panicked")
		}
	}()

	g, err := Graph(adj)
	if err != nil {
		return Nodes{}, err
	}

	n, _ := adj.Dims()
	nodes.Degree = Degree(g, n)
	nodes.Betweenness, err = Betweenness(g, n)
	if err != nil {
		return Nodes{}, err
	}

	if len(nodes.Degree) != n || len(nodes.Betweenness) != n {
		return Nodes{}, errors.New(errors.Dependency, "metric", "got %d degrees and %d betweenness values for %d nodes", len(nodes.Degree), len(nodes.Betweenness), n)
	}

	return nodes, nil
}
