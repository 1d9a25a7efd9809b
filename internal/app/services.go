package app

import (
	"github.com/examtree/examtree-backend/internal/clients/redis"
	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

type Services struct {
	Invalidator *services.Invalidator
	Resolver    services.ResolverService
	Sequencer   services.SequenceService
	Cascade     services.CascadeService
	Projector   services.ProjectorService
	Navigator   services.NavigatorService
	Node        services.NodeService
}

func wireServices(log *logger.Logger, store tree.Store, details tree.DetailStore, c *cache.Cache, bus redis.InvalidationBus) Services {
	log.Info("Wiring services...")

	invalidator := services.NewInvalidator(c, bus, log)
	resolver := services.NewResolverService(log, store)
	sequencer := services.NewSequenceService(log, store)
	cascade := services.NewCascadeService(log, store, details, invalidator)
	projector := services.NewProjectorService(log, store, c)
	navigator := services.NewNavigatorService(log, resolver, projector)
	node := services.NewNodeService(log, store, details, resolver, sequencer, invalidator)

	return Services{
		Invalidator: invalidator,
		Resolver:    resolver,
		Sequencer:   sequencer,
		Cascade:     cascade,
		Projector:   projector,
		Navigator:   navigator,
		Node:        node,
	}
}
