package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpserver "github.com/examtree/examtree-backend/internal/http"
	httpH "github.com/examtree/examtree-backend/internal/http/handlers"
)

func TestServerServesConfiguredRoutes(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	s := httpserver.NewServer(httpserver.RouterConfig{
		HealthHandler: httpH.NewHealthHandler(),
	})
	if s.Engine == nil {
		t.Fatalf("server engine not built")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthcheck", nil)
	s.Engine.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("healthcheck status: got=%d want=%d", rec.Code, 200)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/navigation", nil)
	s.Engine.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Fatalf("unwired route status: got=%d want=%d", rec.Code, 404)
	}
}
