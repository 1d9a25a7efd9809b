package http

import (
	"github.com/gin-gonic/gin"

	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// Server owns the configured engine and the listen loop.
type Server struct {
	Engine *gin.Engine

	log *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{
		Engine: NewRouter(cfg),
		log:    cfg.Log,
	}
}

// Run blocks serving HTTP on the given address.
func (s *Server) Run(address string) error {
	if s.log != nil {
		s.log.Info("HTTP server listening", "address", address)
	}
	return s.Engine.Run(address)
}
