package app

import (
	httpH "github.com/examtree/examtree-backend/internal/http/handlers"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type Handlers struct {
	Node       *httpH.NodeHandler
	Navigation *httpH.NavigationHandler
	Tree       *httpH.TreeHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Node:       httpH.NewNodeHandler(log, services.Node, services.Cascade),
		Navigation: httpH.NewNavigationHandler(log, services.Navigator),
		Tree:       httpH.NewTreeHandler(log, services.Resolver, services.Projector),
		Health:     httpH.NewHealthHandler(),
	}
}
