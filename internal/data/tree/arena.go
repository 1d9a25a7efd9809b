package tree

import (
	"sort"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/domain"
)

// Arena is a read-only snapshot of one exam's subtree: every node per
// level plus a parent→children index, built once per read so navigation
// never fans out into per-node queries. Exams sit under uuid.Nil.
type Arena struct {
	nodes    [domain.LevelCount]map[uuid.UUID]*domain.Node
	children map[uuid.UUID][]*domain.Node
}

func NewArena() *Arena {
	a := &Arena{children: make(map[uuid.UUID][]*domain.Node)}
	for i := range a.nodes {
		a.nodes[i] = make(map[uuid.UUID]*domain.Node)
	}
	return a
}

func (a *Arena) Add(n *domain.Node) {
	a.nodes[n.Level][n.ID] = n
	a.children[n.ParentID] = append(a.children[n.ParentID], n)
}

// SortChildren fixes up sibling order after a parallel build.
func (a *Arena) SortChildren() {
	for _, siblings := range a.children {
		sort.Slice(siblings, func(i, j int) bool { return siblings[i].OrderBefore(siblings[j]) })
	}
}

func (a *Arena) Node(level domain.Level, id uuid.UUID) *domain.Node {
	return a.nodes[level][id]
}

func (a *Arena) Children(parentID uuid.UUID) []*domain.Node {
	return a.children[parentID]
}

// ActiveChildren filters to active siblings, preserving order.
func (a *Arena) ActiveChildren(parentID uuid.UUID) []*domain.Node {
	all := a.children[parentID]
	out := make([]*domain.Node, 0, len(all))
	for _, n := range all {
		if n.Active() {
			out = append(out, n)
		}
	}
	return out
}
