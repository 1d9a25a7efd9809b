package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// fetchLimit bounds the per-level fan-out when loading children for many
// parents at once.
const fetchLimit = 8

// TreeNode is the compact projection of a record: identity, name, slug,
// position and status. No content or SEO payload.
type TreeNode struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	OrderNumber int       `json:"order_number"`
	Status      string    `json:"status"`
}

type ChapterNode struct {
	TreeNode
	Topics []TreeNode `json:"topics"`
}

type UnitNode struct {
	TreeNode
	Chapters []ChapterNode `json:"chapters"`
}

type SubjectTree struct {
	TreeNode
	Units []UnitNode `json:"units"`
}

// ProjectorService builds compact in-memory views of a subtree. Fetches
// are parallelized within a level but levels proceed sequentially, so
// round-trips stay proportional to depth, not node count. Results are
// cached under the owning exam's key prefix.
type ProjectorService interface {
	ProjectSubject(ctx context.Context, subjectID uuid.UUID) (*SubjectTree, error)
	ProjectArena(ctx context.Context, examID uuid.UUID) (*tree.Arena, error)
}

type projectorService struct {
	log   *logger.Logger
	store tree.Store
	cache *cache.Cache
}

func NewProjectorService(baseLog *logger.Logger, store tree.Store, c *cache.Cache) ProjectorService {
	return &projectorService{log: baseLog.With("service", "ProjectorService"), store: store, cache: c}
}

func (ps *projectorService) ProjectSubject(ctx context.Context, subjectID uuid.UUID) (*SubjectTree, error) {
	subject, err := ps.store.GetNode(ctx, nil, domain.LevelSubject, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load subject %s: %w", subjectID, err)
	}
	if subject == nil {
		return nil, ErrNotFound
	}
	key := subjectTreeKey(subject.ParentID, subjectID)
	if v, ok := ps.cache.Get(key); ok {
		return v.(*SubjectTree), nil
	}

	units, err := ps.store.ListChildren(ctx, nil, domain.LevelUnit, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list units of subject %s: %w", subjectID, err)
	}
	chaptersByUnit, err := ps.childrenFor(ctx, domain.LevelChapter, units)
	if err != nil {
		return nil, err
	}
	var allChapters []*domain.Node
	for _, chapters := range chaptersByUnit {
		allChapters = append(allChapters, chapters...)
	}
	topicsByChapter, err := ps.childrenFor(ctx, domain.LevelTopic, allChapters)
	if err != nil {
		return nil, err
	}

	out := &SubjectTree{TreeNode: toTreeNode(subject), Units: make([]UnitNode, 0, len(units))}
	for _, u := range units {
		un := UnitNode{TreeNode: toTreeNode(u), Chapters: make([]ChapterNode, 0, len(chaptersByUnit[u.ID]))}
		for _, c := range chaptersByUnit[u.ID] {
			cn := ChapterNode{TreeNode: toTreeNode(c), Topics: make([]TreeNode, 0, len(topicsByChapter[c.ID]))}
			for _, t := range topicsByChapter[c.ID] {
				cn.Topics = append(cn.Topics, toTreeNode(t))
			}
			un.Chapters = append(un.Chapters, cn)
		}
		out.Units = append(out.Units, un)
	}

	ps.cache.Set(key, out)
	return out, nil
}

func (ps *projectorService) ProjectArena(ctx context.Context, examID uuid.UUID) (*tree.Arena, error) {
	key := arenaKey(examID)
	if v, ok := ps.cache.Get(key); ok {
		return v.(*tree.Arena), nil
	}

	exam, err := ps.store.GetNode(ctx, nil, domain.LevelExam, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam %s: %w", examID, err)
	}
	if exam == nil {
		return nil, ErrNotFound
	}

	arena := tree.NewArena()
	arena.Add(exam)
	parents := []*domain.Node{exam}
	for level := domain.LevelSubject; level <= domain.LevelSubTopic; level++ {
		byParent, err := ps.childrenFor(ctx, level, parents)
		if err != nil {
			return nil, err
		}
		var next []*domain.Node
		for _, p := range parents {
			for _, child := range byParent[p.ID] {
				arena.Add(child)
				next = append(next, child)
			}
		}
		parents = next
		if len(parents) == 0 {
			break
		}
	}
	arena.SortChildren()

	ps.cache.Set(key, arena)
	return arena, nil
}

// childrenFor loads the children of every parent concurrently. A parent
// with no children simply has no entry in the result.
func (ps *projectorService) childrenFor(ctx context.Context, level domain.Level, parents []*domain.Node) (map[uuid.UUID][]*domain.Node, error) {
	out := make(map[uuid.UUID][]*domain.Node, len(parents))
	if len(parents) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for _, p := range parents {
		p := p
		g.Go(func() error {
			children, err := ps.store.ListChildren(gctx, nil, level, p.ID)
			if err != nil {
				return fmt.Errorf("list %s children of %s: %w", level, p.ID, err)
			}
			if len(children) == 0 {
				return nil
			}
			mu.Lock()
			out[p.ID] = children
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func toTreeNode(n *domain.Node) TreeNode {
	return TreeNode{
		ID:          n.ID,
		Name:        n.Name,
		Slug:        n.Slug(),
		OrderNumber: n.OrderNumber,
		Status:      n.Status,
	}
}
