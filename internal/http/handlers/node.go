package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/http/response"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

type NodeHandler struct {
	log            *logger.Logger
	nodeService    services.NodeService
	cascadeService services.CascadeService
}

func NewNodeHandler(log *logger.Logger, nodeService services.NodeService, cascadeService services.CascadeService) *NodeHandler {
	return &NodeHandler{
		log:            log.With("handler", "NodeHandler"),
		nodeService:    nodeService,
		cascadeService: cascadeService,
	}
}

func levelParam(c *gin.Context) (domain.Level, bool) {
	level, ok := domain.ParseLevel(c.Param("level"))
	if !ok {
		response.RespondError(c, http.StatusNotFound, "unknown_level", services.ErrInvalidLevel)
		return 0, false
	}
	return level, true
}

func (h *NodeHandler) Create(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var in services.CreateNodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	node, err := h.nodeService.Create(c.Request.Context(), level, in)
	if err != nil {
		h.respondServiceError(c, "Create", err)
		return
	}
	response.RespondCreated(c, node)
}

func (h *NodeHandler) Get(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	node, err := h.nodeService.Get(c.Request.Context(), level, c.Param("token"))
	if err != nil {
		h.respondServiceError(c, "Get", err)
		return
	}
	response.RespondOK(c, node)
}

func (h *NodeHandler) List(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	nodes, err := h.nodeService.List(c.Request.Context(), level, c.Query("parent"))
	if err != nil {
		h.respondServiceError(c, "List", err)
		return
	}
	response.RespondOK(c, gin.H{"items": nodes})
}

func (h *NodeHandler) Update(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("token"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in services.UpdateNodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	node, err := h.nodeService.Update(c.Request.Context(), level, id, in)
	if err != nil {
		h.respondServiceError(c, "Update", err)
		return
	}
	response.RespondOK(c, node)
}

func (h *NodeHandler) SetStatus(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("token"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.cascadeService.ApplyStatus(c.Request.Context(), level, id, in.Status)
	if err != nil {
		h.respondServiceError(c, "SetStatus", err)
		return
	}
	response.RespondOK(c, gin.H{
		"level":    result.Level.String(),
		"id":       result.ID,
		"affected": result.CountsByName(),
	})
}

func (h *NodeHandler) SetOrder(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("token"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var in struct {
		OrderNumber int `json:"order_number"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	node, err := h.nodeService.SetOrder(c.Request.Context(), level, id, in.OrderNumber)
	if err != nil {
		h.respondServiceError(c, "SetOrder", err)
		return
	}
	response.RespondOK(c, node)
}

func (h *NodeHandler) Delete(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("token"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	result, err := h.cascadeService.Delete(c.Request.Context(), level, id)
	if err != nil {
		h.respondServiceError(c, "Delete", err)
		return
	}
	response.RespondOK(c, gin.H{
		"level":   result.Level.String(),
		"id":      result.ID,
		"deleted": result.CountsByName(),
		"details": result.DetailCount,
	})
}

func (h *NodeHandler) respondServiceError(c *gin.Context, op string, err error) {
	var partial *services.PartialCascadeError
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidLevel):
		response.RespondError(c, http.StatusNotFound, "unknown_level", err)
	case errors.Is(err, services.ErrOrderConflict),
		errors.Is(err, services.ErrDuplicateName):
		response.RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrNameRequired),
		errors.Is(err, services.ErrParentRequired):
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_failed", err)
	case errors.Is(err, services.ErrCrossScope):
		response.RespondError(c, http.StatusUnprocessableEntity, "cross_scope", err)
	case errors.As(err, &partial):
		completed := make(map[string]int64, len(partial.Completed))
		for lvl, n := range partial.Completed {
			completed[lvl.String()] = n
		}
		response.RespondErrorDetails(c, http.StatusBadGateway, "partial_cascade", err, gin.H{
			"failed_level": partial.Failed.String(),
			"completed":    completed,
			"retryable":    true,
		})
	default:
		h.log.Error(op+" failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
