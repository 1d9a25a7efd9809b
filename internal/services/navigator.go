package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// NavTarget is one end of a navigation step: the canonical slug path of
// the node plus its display name.
type NavTarget struct {
	Path  []string `json:"path"`
	Label string   `json:"label"`
}

// NavigatorService answers "what comes after / before this node" in
// reading order, crossing parent boundaries when the current node is the
// last or first of its siblings. Only active branches are traversed;
// the current node itself may be inactive.
type NavigatorService interface {
	Next(ctx context.Context, tokens []string) (*NavTarget, error)
	Previous(ctx context.Context, tokens []string) (*NavTarget, error)
}

type navigatorService struct {
	log       *logger.Logger
	resolver  ResolverService
	projector ProjectorService
}

func NewNavigatorService(baseLog *logger.Logger, resolver ResolverService, projector ProjectorService) NavigatorService {
	return &navigatorService{
		log:       baseLog.With("service", "NavigatorService"),
		resolver:  resolver,
		projector: projector,
	}
}

func (ns *navigatorService) Next(ctx context.Context, tokens []string) (*NavTarget, error) {
	return ns.step(ctx, tokens, 1)
}

func (ns *navigatorService) Previous(ctx context.Context, tokens []string) (*NavTarget, error) {
	return ns.step(ctx, tokens, -1)
}

func (ns *navigatorService) step(ctx context.Context, tokens []string, dir int) (*NavTarget, error) {
	if len(tokens) < 2 || len(tokens) > int(domain.LevelCount) {
		return nil, ErrInvalidPath
	}
	arena, chain, err := ns.resolvePath(ctx, tokens)
	if err != nil {
		return nil, err
	}
	target := advance(arena, chain, dir)
	if target == nil {
		return nil, nil
	}
	path := make([]string, 0, len(target))
	for _, n := range target {
		path = append(path, n.Slug())
	}
	return &NavTarget{Path: path, Label: target[len(target)-1].Name}, nil
}

// resolvePath turns a token path into the chain of nodes it names. The
// exam token goes through the resolver; the rest is matched inside the
// exam's arena by id, slug or name.
func (ns *navigatorService) resolvePath(ctx context.Context, tokens []string) (*tree.Arena, []*domain.Node, error) {
	exam, err := ns.resolver.Resolve(ctx, domain.LevelExam, tokens[0])
	if err != nil {
		return nil, nil, err
	}
	arena, err := ns.projector.ProjectArena(ctx, exam.ID)
	if err != nil {
		return nil, nil, err
	}

	chain := make([]*domain.Node, 0, len(tokens))
	chain = append(chain, arena.Node(domain.LevelExam, exam.ID))
	for i := 1; i < len(tokens); i++ {
		parent := chain[i-1]
		match := matchChild(arena.Children(parent.ID), tokens[i])
		if match == nil {
			return nil, nil, ErrNotFound
		}
		chain = append(chain, match)
	}
	return arena, chain, nil
}

func matchChild(siblings []*domain.Node, token string) *domain.Node {
	token = strings.TrimSpace(token)
	if id, err := uuid.Parse(token); err == nil {
		for _, n := range siblings {
			if n.ID == id {
				return n
			}
		}
	}
	for _, n := range siblings {
		if n.Slug() == token || strings.EqualFold(n.Name, token) {
			return n
		}
	}
	return nil
}

// advance finds the node adjacent to the end of chain at the same depth,
// in direction dir (+1 next, -1 previous). It walks up the chain one
// level at a time: at each level it tries the siblings past the current
// ancestor, descending each candidate's active branch back down to the
// target depth. Empty or fully pruned branches are skipped. Returns the
// full chain of the target, or nil when the tree ends.
func advance(arena *tree.Arena, chain []*domain.Node, dir int) []*domain.Node {
	targetLevel := chain[len(chain)-1].Level
	for li := len(chain) - 1; li >= 1; li-- {
		parent := chain[li-1]
		sibs := arena.ActiveChildren(parent.ID)
		start := adjacentIndex(sibs, chain[li], dir)
		for i := start; i >= 0 && i < len(sibs); i += dir {
			tail := descend(arena, sibs[i], targetLevel, dir)
			if tail == nil {
				continue
			}
			out := make([]*domain.Node, 0, li+len(tail))
			out = append(out, chain[:li]...)
			out = append(out, tail...)
			return out
		}
	}
	return nil
}

// adjacentIndex returns the index of the first sibling strictly after
// (dir>0) or last strictly before (dir<0) cur. cur may be inactive and
// absent from sibs; ordering still places it.
func adjacentIndex(sibs []*domain.Node, cur *domain.Node, dir int) int {
	if dir > 0 {
		for i, n := range sibs {
			if cur.OrderBefore(n) {
				return i
			}
		}
		return len(sibs)
	}
	for i := len(sibs) - 1; i >= 0; i-- {
		if sibs[i].OrderBefore(cur) {
			return i
		}
	}
	return -1
}

// descend walks from n down to targetLevel, taking the first active
// child per level for dir>0 and the last for dir<0. Returns the chain
// from n to the reached node, or nil when some level has no active
// children.
func descend(arena *tree.Arena, n *domain.Node, targetLevel domain.Level, dir int) []*domain.Node {
	out := []*domain.Node{n}
	cur := n
	for cur.Level < targetLevel {
		kids := arena.ActiveChildren(cur.ID)
		if len(kids) == 0 {
			return nil
		}
		if dir > 0 {
			cur = kids[0]
		} else {
			cur = kids[len(kids)-1]
		}
		out = append(out, cur)
	}
	return out
}
