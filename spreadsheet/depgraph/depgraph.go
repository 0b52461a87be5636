// Package depgraph tracks which cells reference which other cells.
//
// It keeps two directed graphs in lock-step: out (p -> q iff p references q)
// and in, its transpose. Both are backed by github.com/katalvlaran/lvlath,
// so edge bookkeeping, adjacency, and traversal all come from a
// maintained, independently-tested graph implementation rather than a
// second hand-rolled adjacency map.
package depgraph

import (
	"sort"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// Graph is a directed dependency graph over opaque string node IDs.
// Callers own the mapping from their own keys (e.g. a cell position) to
// the IDs they pass in.
type Graph struct {
	out *core.Graph // out.AddEdge(p, q): p references q
	in  *core.Graph // transpose of out: in.AddEdge(q, p): p references q
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		out: core.NewGraph(core.WithDirected(true)),
		in:  core.NewGraph(core.WithDirected(true)),
	}
}

// AddEdges atomically replaces the outgoing edge set of p with refs,
// updating the transpose graph to match. A node with no references yet
// still gets a vertex, so it can be looked up and traversed into later.
func (g *Graph) AddEdges(p string, refs []string) {
	_ = g.out.AddVertex(p)
	_ = g.in.AddVertex(p)

	for _, old := range g.outNeighbors(p) {
		g.removeEdge(p, old)
	}

	for _, r := range refs {
		_ = g.out.AddVertex(r)
		_ = g.in.AddVertex(r)
		if _, err := g.out.AddEdge(p, r, 0); err != nil {
			continue
		}
		_, _ = g.in.AddEdge(r, p, 0)
	}
}

// RemoveCell deletes p's outgoing edges (the positions p references).
// Edges where other cells reference p are left untouched: those cells
// still have p as a (now-empty) precedent.
func (g *Graph) RemoveCell(p string) {
	for _, old := range g.outNeighbors(p) {
		g.removeEdge(p, old)
	}
}

// ReverseReachableFrom returns every node transitively depending on p
// (i.e. every node with a path to p in the "references" direction),
// excluding p itself. Order is unspecified but the set is complete and
// deduplicated.
func (g *Graph) ReverseReachableFrom(p string) []string {
	if !g.in.HasVertex(p) {
		return nil
	}

	// Single-source DFS (no WithFullTraversal) only ever visits the
	// component reachable from p, so Visited is already exactly the
	// closure we want, plus p itself.
	res, err := dfs.DFS(g.in, p)
	if err != nil || res == nil {
		return nil
	}

	out := make([]string, 0, len(res.Visited))
	for id, visited := range res.Visited {
		if visited && id != p {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (g *Graph) outNeighbors(p string) []string {
	if !g.out.HasVertex(p) {
		return nil
	}
	ids, err := g.out.NeighborIDs(p)
	if err != nil {
		return nil
	}
	return ids
}

func (g *Graph) removeEdge(from, to string) {
	edges, err := g.out.Neighbors(from)
	if err != nil {
		return
	}
	for _, e := range edges {
		if e.From == from && e.To == to {
			_ = g.out.RemoveEdge(e.ID)
			break
		}
	}

	inEdges, err := g.in.Neighbors(to)
	if err != nil {
		return
	}
	for _, e := range inEdges {
		if e.From == to && e.To == from {
			_ = g.in.RemoveEdge(e.ID)
			break
		}
	}
}

// HasNode reports whether p has ever been recorded, either as a
// referencer or as a reference target.
func (g *Graph) HasNode(p string) bool {
	return g.out.HasVertex(p)
}

// Out exposes the underlying "references" graph for diagnostics (e.g.
// running dfs.DetectCycles as a consistency check in tests). Callers
// must not mutate it directly.
func (g *Graph) Out() *core.Graph {
	return g.out
}
