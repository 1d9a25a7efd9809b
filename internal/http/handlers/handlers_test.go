package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/examtree/examtree-backend/internal/data/tree"
	httpserver "github.com/examtree/examtree-backend/internal/http"
	httpH "github.com/examtree/examtree-backend/internal/http/handlers"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
	store := tree.NewMemoryStore()
	readCache := cache.New(64, time.Minute)

	invalidator := services.NewInvalidator(readCache, nil, log)
	resolver := services.NewResolverService(log, store)
	sequencer := services.NewSequenceService(log, store)
	cascade := services.NewCascadeService(log, store, store, invalidator)
	projector := services.NewProjectorService(log, store, readCache)
	navigator := services.NewNavigatorService(log, resolver, projector)
	nodes := services.NewNodeService(log, store, store, resolver, sequencer, invalidator)

	return httpserver.NewRouter(httpserver.RouterConfig{
		NodeHandler:       httpH.NewNodeHandler(log, nodes, cascade),
		NavigationHandler: httpH.NewNavigationHandler(log, navigator),
		TreeHandler:       httpH.NewTreeHandler(log, resolver, projector),
		HealthHandler:     httpH.NewHealthHandler(),
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func createNode(t *testing.T, r *gin.Engine, level, parent, name string) map[string]any {
	t.Helper()
	body := map[string]any{"name": name}
	if parent != "" {
		body["parent"] = parent
	}
	w := doJSON(t, r, http.MethodPost, "/api/content/"+level, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s %q: status=%d body=%s", level, name, w.Code, w.Body.String())
	}
	var node map[string]any
	decode(t, w, &node)
	return node
}

func seedCurriculum(t *testing.T, r *gin.Engine) {
	t.Helper()
	createNode(t, r, "exams", "", "JEE Main")
	createNode(t, r, "subjects", "jee-main", "Physics")
	createNode(t, r, "subjects", "jee-main", "Chemistry")
	createNode(t, r, "units", "physics", "Mechanics")
	createNode(t, r, "chapters", "mechanics", "Kinematics")
	createNode(t, r, "topics", "kinematics", "Motion in a Straight Line")
	createNode(t, r, "subtopics", "motion-in-a-straight-line", "Displacement")
	createNode(t, r, "subtopics", "motion-in-a-straight-line", "Velocity")
}

func TestHealthcheck(t *testing.T) {
	r := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/healthcheck", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestCreateAndGetByToken(t *testing.T) {
	r := newTestServer(t)
	created := createNode(t, r, "exams", "", "JEE Main")
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("created exam has no id: %v", created)
	}

	for _, token := range []string{id, "jee-main", "JEE Main"} {
		w := doJSON(t, r, http.MethodGet, "/api/content/exams/"+url.PathEscape(token), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("get by %q: status=%d body=%s", token, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/content/exams/upsc", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown token: status=%d want=404", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, "/api/content/courses/jee-main", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown level: status=%d want=404", w.Code)
	}
}

func TestCreateValidationStatuses(t *testing.T) {
	r := newTestServer(t)
	createNode(t, r, "exams", "", "JEE Main")
	createNode(t, r, "subjects", "jee-main", "Physics")

	// Duplicate sibling name.
	w := doJSON(t, r, http.MethodPost, "/api/content/subjects", map[string]any{"parent": "jee-main", "name": "Physics"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate name: status=%d want=409", w.Code)
	}
	// Missing parent.
	w = doJSON(t, r, http.MethodPost, "/api/content/subjects", map[string]any{"name": "Maths"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing parent: status=%d want=422", w.Code)
	}
	// Taken ordinal.
	w = doJSON(t, r, http.MethodPost, "/api/content/subjects", map[string]any{"parent": "jee-main", "name": "Maths", "order_number": 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("order conflict: status=%d want=409", w.Code)
	}
	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/api/content/subjects", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad body: status=%d want=400", rec.Code)
	}
}

func TestStatusCascadeEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	var physics map[string]any
	w := doJSON(t, r, http.MethodGet, "/api/content/subjects/physics", nil)
	decode(t, w, &physics)
	id := physics["id"].(string)

	w = doJSON(t, r, http.MethodPut, "/api/content/subjects/"+id+"/status", map[string]any{"status": "inactive"})
	if w.Code != http.StatusOK {
		t.Fatalf("status cascade: status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Affected map[string]int64 `json:"affected"`
	}
	decode(t, w, &out)
	if out.Affected["unit"] != 1 || out.Affected["subtopic"] != 2 {
		t.Fatalf("affected counts: %v", out.Affected)
	}

	w = doJSON(t, r, http.MethodGet, "/api/content/subjects/"+id, nil)
	decode(t, w, &physics)
	if physics["status"] != "inactive" {
		t.Fatalf("target status: got=%v", physics["status"])
	}

	// Invalid status value.
	w = doJSON(t, r, http.MethodPut, "/api/content/subjects/"+id+"/status", map[string]any{"status": "archived"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status: status=%d want=422", w.Code)
	}
}

func TestDeleteCascadeEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	var chapter map[string]any
	w := doJSON(t, r, http.MethodGet, "/api/content/chapters/kinematics", nil)
	decode(t, w, &chapter)
	id := chapter["id"].(string)

	w = doJSON(t, r, http.MethodDelete, "/api/content/chapters/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Deleted map[string]int64 `json:"deleted"`
	}
	decode(t, w, &out)
	if out.Deleted["topic"] != 1 || out.Deleted["subtopic"] != 2 {
		t.Fatalf("deleted counts: %v", out.Deleted)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/content/chapters/"+id, nil); w.Code != http.StatusNotFound {
		t.Fatalf("deleted chapter still resolves: status=%d", w.Code)
	}
}

func TestOrderEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	var physics map[string]any
	w := doJSON(t, r, http.MethodGet, "/api/content/subjects/physics", nil)
	decode(t, w, &physics)
	id := physics["id"].(string)

	w = doJSON(t, r, http.MethodPut, "/api/content/subjects/"+id+"/order", map[string]any{"order_number": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("set order: status=%d body=%s", w.Code, w.Body.String())
	}
	decode(t, w, &physics)
	if physics["order_number"].(float64) != 2 {
		t.Fatalf("order: got=%v want=2", physics["order_number"])
	}

	w = doJSON(t, r, http.MethodPut, "/api/content/subjects/"+id+"/order", map[string]any{"order_number": 0})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid order: status=%d want=422", w.Code)
	}
}

func TestNavigationEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	path := "jee-main/physics/mechanics/kinematics/motion-in-a-straight-line/displacement"
	w := doJSON(t, r, http.MethodGet, "/api/navigation?path="+url.QueryEscape(path), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("navigation: status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Next     *struct{ Label string } `json:"next"`
		Previous *struct{ Label string } `json:"previous"`
	}
	decode(t, w, &out)
	if out.Next == nil || out.Next.Label != "Velocity" {
		t.Fatalf("next: got=%+v", out.Next)
	}
	if out.Previous != nil {
		t.Fatalf("previous at start should be null, got=%+v", out.Previous)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/navigation", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing path: status=%d want=400", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/api/navigation?path="+url.QueryEscape("jee-main/biology"), nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown segment: status=%d want=404", w.Code)
	}
}

func TestTreeEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/content/subjects/physics/tree", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("tree: status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Slug  string `json:"slug"`
		Units []struct {
			Slug     string `json:"slug"`
			Chapters []struct {
				Slug   string `json:"slug"`
				Topics []struct {
					Slug string `json:"slug"`
				} `json:"topics"`
			} `json:"chapters"`
		} `json:"units"`
	}
	decode(t, w, &out)
	if out.Slug != "physics" || len(out.Units) != 1 {
		t.Fatalf("tree shape: %s", w.Body.String())
	}
	if len(out.Units[0].Chapters) != 1 || len(out.Units[0].Chapters[0].Topics) != 1 {
		t.Fatalf("tree depth: %s", w.Body.String())
	}

	// Trees exist for subjects only.
	if w := doJSON(t, r, http.MethodGet, "/api/content/units/mechanics/tree", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unit tree: status=%d want=404", w.Code)
	}

	// Empty subject projects empty units, not null.
	w = doJSON(t, r, http.MethodGet, "/api/content/subjects/chemistry/tree", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty tree: status=%d", w.Code)
	}
	var raw map[string]json.RawMessage
	decode(t, w, &raw)
	if string(raw["units"]) != "[]" {
		t.Fatalf("empty units: got=%s", raw["units"])
	}
}

func TestUpdateEndpoint(t *testing.T) {
	r := newTestServer(t)
	seedCurriculum(t, r)

	var unit map[string]any
	w := doJSON(t, r, http.MethodGet, "/api/content/units/mechanics", nil)
	decode(t, w, &unit)
	id := unit["id"].(string)

	w = doJSON(t, r, http.MethodPatch, "/api/content/units/"+id, map[string]any{"name": "Classical Mechanics"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", w.Code, w.Body.String())
	}
	decode(t, w, &unit)
	if unit["name"] != "Classical Mechanics" {
		t.Fatalf("rename: got=%v", unit["name"])
	}

	// Reparenting is rejected.
	w = doJSON(t, r, http.MethodPatch, "/api/content/units/"+id, map[string]any{"parent": "chemistry"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cross scope: status=%d want=422", w.Code)
	}
}
