// Package graph builds the immutable-per-load content graph: an index from
// node identifier to node definition across all loaded chapters, plus the
// declared variable defaults. The graph never tracks a current position;
// that is interpreter-owned state.
package graph

import (
	"sort"

	"github.com/parleyhq/parley/pkg/domain"
)

// Graph indexes nodes by identifier. Later insertions with a colliding id
// overwrite earlier ones (last-writer-wins), which lets a chapter extension
// patch nodes by reusing ids; normal authoring uses disjoint namespaces.
type Graph struct {
	nodes    map[string]domain.Node
	entryID  string
	defaults domain.Vars
	chapters []string
}

// New builds a graph from the initial chapter.
func New(ch *domain.Chapter) *Graph {
	g := &Graph{
		nodes:    make(map[string]domain.Node, len(ch.Nodes)),
		defaults: make(domain.Vars),
	}
	g.entryID = ch.EntryNodeID()
	g.index(ch)
	return g
}

// Get resolves a node by id.
func (g *Graph) Get(id string) (domain.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// EntryID returns the first node id of the first loaded chapter.
func (g *Graph) EntryID() string {
	return g.entryID
}

// Defaults returns a copy of the merged declared defaults (non-null only).
// A fresh session seeds its variable store from this.
func (g *Graph) Defaults() domain.Vars {
	return g.defaults.Clone()
}

// ChapterIDs lists the loaded chapters in load order.
func (g *Graph) ChapterIDs() []string {
	out := make([]string, len(g.chapters))
	copy(out, g.chapters)
	return out
}

// NodeIDs returns all node ids in deterministic order, for introspection
// and validation tools.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Extend appends a chapter's nodes into the index and merges its variable
// declarations (new chapter wins on collision). It returns the new chapter's
// first node id and the newly-introduced non-null defaults; the caller is
// responsible for splicing those into the live variable store and jumping
// the current-node pointer.
func (g *Graph) Extend(ch *domain.Chapter) (startID string, newDefaults domain.Vars) {
	g.index(ch)
	return ch.EntryNodeID(), declaredDefaults(ch)
}

func (g *Graph) index(ch *domain.Chapter) {
	for _, n := range ch.Nodes {
		g.nodes[n.ID] = n
	}
	g.defaults.Merge(declaredDefaults(ch))
	g.chapters = append(g.chapters, ch.Info.ID)
}

func declaredDefaults(ch *domain.Chapter) domain.Vars {
	vars := make(domain.Vars)
	for name, def := range ch.Variables {
		if def.Default != nil {
			vars[name] = def.Default
		}
	}
	return vars
}
