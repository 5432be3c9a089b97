// Copyright ©2024 NKI/AVL. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// ClustersDOT renders clusters as a DOT graph: one node per gene, with
// an edge between every pair of genes sharing a cluster, weighted by
// that cluster's overlap score. The graph is a
// simple.WeightedUndirectedGraph rendered with dot.Marshal.
func ClustersDOT(clusters []Cluster) ([]byte, error) {
	g := geneGraph{
		WeightedUndirectedGraph: simple.NewWeightedUndirectedGraph(0, 0),
		idFor:                   make(map[string]int64),
	}
	for ci, cl := range clusters {
		for i := 0; i < len(cl.Genes); i++ {
			for j := i + 1; j < len(cl.Genes); j++ {
				g.SetWeightedEdge(geneEdge{
					f:       g.nodeFor(cl.Genes[i]),
					t:       g.nodeFor(cl.Genes[j]),
					w:       cl.Overlap,
					cluster: ci,
				})
			}
		}
	}
	return dot.Marshal(g, "clusters", "", "\t")
}

type geneGraph struct {
	*simple.WeightedUndirectedGraph
	idFor map[string]int64
}

func (g geneGraph) nodeFor(name string) graph.Node {
	if id, ok := g.idFor[name]; ok {
		return g.Node(id)
	}
	id := g.WeightedUndirectedGraph.NewNode().ID()
	g.idFor[name] = id
	n := geneNode{id: id, name: name}
	g.AddNode(n)
	return n
}

type geneNode struct {
	id   int64
	name string
}

func (n geneNode) ID() int64     { return n.id }
func (n geneNode) DOTID() string { return n.name }

type geneEdge struct {
	f, t    graph.Node
	w       float64
	cluster int
}

func (e geneEdge) From() graph.Node { return e.f }
func (e geneEdge) To() graph.Node   { return e.t }
func (e geneEdge) ReversedEdge() graph.Edge {
	return geneEdge{f: e.t, t: e.f, w: e.w, cluster: e.cluster}
}
func (e geneEdge) Weight() float64 { return e.w }
func (e geneEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "weight", Value: fmt.Sprint(e.w)},
		{Key: "cluster", Value: fmt.Sprint(e.cluster)},
	}
}
