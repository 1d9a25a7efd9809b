package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// ResolverService turns an opaque token (canonical id or name-derived
// slug) into a record at one level. An id-shaped token that misses falls
// through to the slug scan instead of surfacing the lookup failure;
// slugs only come into play as the fallback.
type ResolverService interface {
	Resolve(ctx context.Context, level domain.Level, token string) (*domain.Node, error)
}

type resolverService struct {
	log   *logger.Logger
	store tree.Store
}

func NewResolverService(baseLog *logger.Logger, store tree.Store) ResolverService {
	return &resolverService{log: baseLog.With("service", "ResolverService"), store: store}
}

func (rs *resolverService) Resolve(ctx context.Context, level domain.Level, token string) (*domain.Node, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}

	if id, err := uuid.Parse(token); err == nil {
		node, lookupErr := rs.store.GetNode(ctx, nil, level, id)
		if lookupErr != nil {
			rs.log.Warn("Id lookup failed, falling back to slug scan",
				"level", level.String(), "token", token, "error", lookupErr)
		}
		if node != nil {
			return node, nil
		}
	}

	// The scan is sibling-agnostic; names are only unique per parent, so
	// the first match in canonical sibling order wins.
	nodes, err := rs.store.ListLevel(ctx, nil, level)
	if err != nil {
		return nil, fmt.Errorf("scan %s collection: %w", level, err)
	}
	for _, n := range nodes {
		if n.Slug() == token || strings.EqualFold(n.Name, token) {
			return n, nil
		}
	}
	return nil, ErrNotFound
}
