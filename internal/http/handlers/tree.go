package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/http/response"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

type TreeHandler struct {
	log       *logger.Logger
	resolver  services.ResolverService
	projector services.ProjectorService
}

func NewTreeHandler(log *logger.Logger, resolver services.ResolverService, projector services.ProjectorService) *TreeHandler {
	return &TreeHandler{
		log:       log.With("handler", "TreeHandler"),
		resolver:  resolver,
		projector: projector,
	}
}

// Tree answers GET /api/content/:level/:token/tree. Only subjects have a
// tree projection; other levels get a 404 for the route.
func (h *TreeHandler) Tree(c *gin.Context) {
	level, ok := domain.ParseLevel(c.Param("level"))
	if !ok || level != domain.LevelSubject {
		response.RespondError(c, http.StatusNotFound, "no_tree_for_level", services.ErrInvalidLevel)
		return
	}
	subject, err := h.resolver.Resolve(c.Request.Context(), level, c.Param("token"))
	if err != nil {
		h.respondTreeError(c, err)
		return
	}
	tree, err := h.projector.ProjectSubject(c.Request.Context(), subject.ID)
	if err != nil {
		h.respondTreeError(c, err)
		return
	}
	response.RespondOK(c, tree)
}

func (h *TreeHandler) respondTreeError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotFound) {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	h.log.Error("Tree projection failed", "error", err)
	response.RespondError(c, http.StatusInternalServerError, "internal", err)
}
