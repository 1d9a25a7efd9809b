package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type CreateNodeInput struct {
	ParentToken string          `json:"parent"`
	Name        string          `json:"name"`
	OrderNumber *int            `json:"order_number"`
	Status      string          `json:"status"`
	Content     json.RawMessage `json:"content"`
	SEO         json.RawMessage `json:"seo"`

	// Chapter metrics.
	Weightage        *float64 `json:"weightage"`
	EstimatedMinutes *int     `json:"estimated_minutes"`
	QuestionCount    *int     `json:"question_count"`

	// SubTopic body, stored in the detail table.
	Detail json.RawMessage `json:"detail"`
}

type UpdateNodeInput struct {
	ParentToken *string         `json:"parent"`
	Name        *string         `json:"name"`
	Content     json.RawMessage `json:"content"`
	SEO         json.RawMessage `json:"seo"`

	Weightage        *float64 `json:"weightage"`
	EstimatedMinutes *int     `json:"estimated_minutes"`
	QuestionCount    *int     `json:"question_count"`

	Detail json.RawMessage `json:"detail"`
}

// NodeService is the write surface for a single level: create, update,
// list and fetch plus the order mutation. Status and delete go through
// the cascade.
type NodeService interface {
	Create(ctx context.Context, level domain.Level, in CreateNodeInput) (*domain.Node, error)
	Update(ctx context.Context, level domain.Level, id uuid.UUID, in UpdateNodeInput) (*domain.Node, error)
	Get(ctx context.Context, level domain.Level, token string) (*domain.Node, error)
	List(ctx context.Context, level domain.Level, parentToken string) ([]*domain.Node, error)
	SetOrder(ctx context.Context, level domain.Level, id uuid.UUID, order int) (*domain.Node, error)
}

type nodeService struct {
	log         *logger.Logger
	store       tree.Store
	details     tree.DetailStore
	resolver    ResolverService
	sequencer   SequenceService
	invalidator *Invalidator
}

func NewNodeService(baseLog *logger.Logger, store tree.Store, details tree.DetailStore, resolver ResolverService, sequencer SequenceService, invalidator *Invalidator) NodeService {
	return &nodeService{
		log:         baseLog.With("service", "NodeService"),
		store:       store,
		details:     details,
		resolver:    resolver,
		sequencer:   sequencer,
		invalidator: invalidator,
	}
}

func (ns *nodeService) Create(ctx context.Context, level domain.Level, in CreateNodeInput) (*domain.Node, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	status := in.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	ancestors := map[domain.Level]uuid.UUID{}
	var parentID uuid.UUID
	if parentLevel, hasParent := level.Parent(); hasParent {
		if strings.TrimSpace(in.ParentToken) == "" {
			return nil, ErrParentRequired
		}
		parent, err := ns.resolver.Resolve(ctx, parentLevel, in.ParentToken)
		if err != nil {
			return nil, err
		}
		chain, err := ancestorChainOf(ctx, ns.store, parent)
		if err != nil {
			return nil, err
		}
		for l, id := range chain {
			ancestors[l] = id
		}
		ancestors[parentLevel] = parent.ID
		parentID = parent.ID
	}

	// Chapter names are allowed to repeat under one unit.
	if level != domain.LevelChapter {
		taken, err := ns.store.NameTaken(ctx, nil, level, parentID, name, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("check name %q: %w", name, err)
		}
		if taken {
			return nil, ErrDuplicateName
		}
	}

	var order int
	if in.OrderNumber != nil {
		if err := ns.sequencer.ValidateReorder(ctx, level, parentID, *in.OrderNumber, uuid.Nil); err != nil {
			return nil, err
		}
		order = *in.OrderNumber
	} else {
		next, err := ns.sequencer.NextOrder(ctx, level, parentID)
		if err != nil {
			return nil, err
		}
		order = next
	}

	node := &domain.Node{
		ParentID:    parentID,
		Name:        name,
		OrderNumber: order,
		Status:      status,
	}
	extra := map[string]interface{}{}
	// Subtopics keep their freeform body in the detail table, not in a
	// content column.
	if level != domain.LevelSubTopic {
		if len(in.Content) > 0 {
			extra["content"] = datatypes.JSON(in.Content)
		}
		if len(in.SEO) > 0 {
			extra["seo"] = datatypes.JSON(in.SEO)
		}
	}
	if level == domain.LevelChapter {
		if in.Weightage != nil {
			extra["weightage"] = *in.Weightage
		}
		if in.EstimatedMinutes != nil {
			extra["estimated_minutes"] = *in.EstimatedMinutes
		}
		if in.QuestionCount != nil {
			extra["question_count"] = *in.QuestionCount
		}
	}
	if err := ns.store.Create(ctx, nil, level, node, ancestors, extra); err != nil {
		return nil, fmt.Errorf("create %s %q: %w", level, name, err)
	}

	if level == domain.LevelSubTopic && len(in.Detail) > 0 {
		detail := &domain.SubTopicDetail{SubTopicID: node.ID, Body: datatypes.JSON(in.Detail)}
		if err := ns.details.UpsertDetail(ctx, nil, detail); err != nil {
			return nil, fmt.Errorf("store detail for subtopic %s: %w", node.ID, err)
		}
	}

	ns.invalidator.InvalidateExam(ctx, examIDOf(node, ancestors))
	ns.log.Info("Record created", "level", level.String(), "id", node.ID, "name", name, "order", order)
	return node, nil
}

func (ns *nodeService) Update(ctx context.Context, level domain.Level, id uuid.UUID, in UpdateNodeInput) (*domain.Node, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	node, err := ns.store.GetNode(ctx, nil, level, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", level, id, err)
	}
	if node == nil {
		return nil, ErrNotFound
	}

	// A record never moves between parents; its denormalized ancestry
	// and sibling ordinal both assume a fixed scope.
	if in.ParentToken != nil {
		parentLevel, hasParent := level.Parent()
		if !hasParent {
			return nil, ErrCrossScope
		}
		parent, err := ns.resolver.Resolve(ctx, parentLevel, *in.ParentToken)
		if err != nil {
			return nil, err
		}
		if parent.ID != node.ParentID {
			return nil, ErrCrossScope
		}
	}

	fields := map[string]interface{}{"updated_at": time.Now()}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if level != domain.LevelChapter && !strings.EqualFold(name, node.Name) {
			taken, err := ns.store.NameTaken(ctx, nil, level, node.ParentID, name, id)
			if err != nil {
				return nil, fmt.Errorf("check name %q: %w", name, err)
			}
			if taken {
				return nil, ErrDuplicateName
			}
		}
		fields["name"] = name
		node.Name = name
	}
	if level != domain.LevelSubTopic {
		if len(in.Content) > 0 {
			fields["content"] = datatypes.JSON(in.Content)
		}
		if len(in.SEO) > 0 {
			fields["seo"] = datatypes.JSON(in.SEO)
		}
	}
	if level == domain.LevelChapter {
		if in.Weightage != nil {
			fields["weightage"] = *in.Weightage
		}
		if in.EstimatedMinutes != nil {
			fields["estimated_minutes"] = *in.EstimatedMinutes
		}
		if in.QuestionCount != nil {
			fields["question_count"] = *in.QuestionCount
		}
	}
	if _, err := ns.store.UpdateFields(ctx, nil, level, id, fields); err != nil {
		return nil, fmt.Errorf("update %s %s: %w", level, id, err)
	}

	if level == domain.LevelSubTopic && len(in.Detail) > 0 {
		detail := &domain.SubTopicDetail{SubTopicID: id, Body: datatypes.JSON(in.Detail)}
		if err := ns.details.UpsertDetail(ctx, nil, detail); err != nil {
			return nil, fmt.Errorf("store detail for subtopic %s: %w", id, err)
		}
	}

	ns.invalidateFor(ctx, node)
	ns.log.Info("Record updated", "level", level.String(), "id", id)
	return node, nil
}

func (ns *nodeService) Get(ctx context.Context, level domain.Level, token string) (*domain.Node, error) {
	return ns.resolver.Resolve(ctx, level, token)
}

func (ns *nodeService) List(ctx context.Context, level domain.Level, parentToken string) ([]*domain.Node, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	parentLevel, hasParent := level.Parent()
	if !hasParent || strings.TrimSpace(parentToken) == "" {
		if hasParent {
			return nil, ErrParentRequired
		}
		return ns.store.ListLevel(ctx, nil, level)
	}
	parent, err := ns.resolver.Resolve(ctx, parentLevel, parentToken)
	if err != nil {
		return nil, err
	}
	return ns.store.ListChildren(ctx, nil, level, parent.ID)
}

func (ns *nodeService) SetOrder(ctx context.Context, level domain.Level, id uuid.UUID, order int) (*domain.Node, error) {
	node, err := ns.sequencer.Reorder(ctx, level, id, order)
	if err != nil {
		return nil, err
	}
	ns.invalidateFor(ctx, node)
	return node, nil
}

// invalidateFor drops the cached reads a write to node made stale. When
// the ancestor chain cannot be derived the scope is unknown, so every
// cached projection goes rather than risk serving a stale one.
func (ns *nodeService) invalidateFor(ctx context.Context, node *domain.Node) {
	chain, err := ancestorChainOf(ctx, ns.store, node)
	if err != nil {
		ns.log.Warn("Ancestor chain lookup failed, dropping all cached reads",
			"level", node.Level.String(), "id", node.ID, "error", err)
		ns.invalidator.InvalidateAll(ctx)
		return
	}
	ns.invalidator.InvalidateExam(ctx, examIDOf(node, chain))
}
