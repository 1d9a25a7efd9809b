package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/examtree/examtree-backend/internal/http/handlers"
	httpMW "github.com/examtree/examtree-backend/internal/http/middleware"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	NodeHandler       *httpH.NodeHandler
	NavigationHandler *httpH.NavigationHandler
	TreeHandler       *httpH.TreeHandler
	HealthHandler     *httpH.HealthHandler

	RoleGate       *httpMW.RoleGate
	AllowedOrigins []string
}

// Editor roles allowed on the write surface.
var writeRoles = []string{"admin", "editor"}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLog(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.NavigationHandler != nil {
			api.GET("/navigation", cfg.NavigationHandler.Navigate)
		}

		content := api.Group("/content/:level")
		{
			if cfg.NodeHandler != nil {
				content.GET("", cfg.NodeHandler.List)
				content.GET("/:token", cfg.NodeHandler.Get)
			}
			if cfg.TreeHandler != nil {
				content.GET("/:token/tree", cfg.TreeHandler.Tree)
			}

			if cfg.NodeHandler != nil {
				write := content.Group("")
				if cfg.RoleGate != nil {
					write.Use(cfg.RoleGate.Require(writeRoles...))
				}
				write.POST("", cfg.NodeHandler.Create)
				write.PATCH("/:token", cfg.NodeHandler.Update)
				write.PUT("/:token/status", cfg.NodeHandler.SetStatus)
				write.PUT("/:token/order", cfg.NodeHandler.SetOrder)
				write.DELETE("/:token", cfg.NodeHandler.Delete)
			}
		}
	}

	return r
}
