package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/examtree/examtree-backend/internal/http/response"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

type NavigationHandler struct {
	log       *logger.Logger
	navigator services.NavigatorService
}

func NewNavigationHandler(log *logger.Logger, navigator services.NavigatorService) *NavigationHandler {
	return &NavigationHandler{
		log:       log.With("handler", "NavigationHandler"),
		navigator: navigator,
	}
}

// Navigate answers GET /api/navigation?path=exam/subject/.../node with
// the adjacent nodes in both directions. A nil side means the tree ends
// there.
func (h *NavigationHandler) Navigate(c *gin.Context) {
	raw := strings.Trim(c.Query("path"), "/")
	if raw == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_path", services.ErrInvalidPath)
		return
	}
	tokens := strings.Split(raw, "/")

	next, err := h.navigator.Next(c.Request.Context(), tokens)
	if err != nil {
		h.respondNavError(c, err)
		return
	}
	previous, err := h.navigator.Previous(c.Request.Context(), tokens)
	if err != nil {
		h.respondNavError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"next": next, "previous": previous})
}

func (h *NavigationHandler) respondNavError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrInvalidPath), errors.Is(err, services.ErrInvalidLevel):
		response.RespondError(c, http.StatusBadRequest, "invalid_path", err)
	default:
		h.log.Error("Navigation failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
