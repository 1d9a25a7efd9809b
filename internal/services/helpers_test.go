package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func testCache() *cache.Cache {
	return cache.New(64, time.Minute)
}

// treeBuilder seeds an in-memory tree for service tests, tracking each
// node's ancestor chain so denormalized references line up.
type treeBuilder struct {
	t         *testing.T
	store     *tree.MemoryStore
	ancestors map[uuid.UUID]map[domain.Level]uuid.UUID
}

func newTreeBuilder(t *testing.T) *treeBuilder {
	t.Helper()
	return &treeBuilder{
		t:         t,
		store:     tree.NewMemoryStore(),
		ancestors: make(map[uuid.UUID]map[domain.Level]uuid.UUID),
	}
}

func (b *treeBuilder) add(level domain.Level, parent *domain.Node, name string, order int, status string) *domain.Node {
	b.t.Helper()

	ancestors := map[domain.Level]uuid.UUID{}
	if parent != nil {
		for l, id := range b.ancestors[parent.ID] {
			ancestors[l] = id
		}
		ancestors[parent.Level] = parent.ID
	}
	n := &domain.Node{Name: name, OrderNumber: order, Status: status}
	if err := b.store.Create(context.Background(), nil, level, n, ancestors, nil); err != nil {
		b.t.Fatalf("seed %s %q: %v", level, name, err)
	}
	b.ancestors[n.ID] = ancestors
	return n
}

type fixture struct {
	store *tree.MemoryStore

	exam      *domain.Node
	physics   *domain.Node
	chemistry *domain.Node

	mechanics *domain.Node
	optics    *domain.Node

	kinematics *domain.Node
	laws       *domain.Node
	rayOptics  *domain.Node

	motionLine *domain.Node
	projectile *domain.Node
	newton     *domain.Node
	reflection *domain.Node

	displacement *domain.Node
	velocity     *domain.Node
	rangeSub     *domain.Node
	firstLaw     *domain.Node
	mirrors      *domain.Node
}

// seedExamTree builds one exam with two subjects and a full physics
// branch. Orders follow declaration; everything starts active.
func seedExamTree(t *testing.T) *fixture {
	t.Helper()
	b := newTreeBuilder(t)
	f := &fixture{store: b.store}

	f.exam = b.add(domain.LevelExam, nil, "JEE Main", 1, domain.StatusActive)
	f.physics = b.add(domain.LevelSubject, f.exam, "Physics", 1, domain.StatusActive)
	f.chemistry = b.add(domain.LevelSubject, f.exam, "Chemistry", 2, domain.StatusActive)

	f.mechanics = b.add(domain.LevelUnit, f.physics, "Mechanics", 1, domain.StatusActive)
	f.optics = b.add(domain.LevelUnit, f.physics, "Optics", 2, domain.StatusActive)

	f.kinematics = b.add(domain.LevelChapter, f.mechanics, "Kinematics", 1, domain.StatusActive)
	f.laws = b.add(domain.LevelChapter, f.mechanics, "Laws of Motion", 2, domain.StatusActive)
	f.rayOptics = b.add(domain.LevelChapter, f.optics, "Ray Optics", 1, domain.StatusActive)

	f.motionLine = b.add(domain.LevelTopic, f.kinematics, "Motion in a Straight Line", 1, domain.StatusActive)
	f.projectile = b.add(domain.LevelTopic, f.kinematics, "Projectile Motion", 2, domain.StatusActive)
	f.newton = b.add(domain.LevelTopic, f.laws, "Newton's Laws", 1, domain.StatusActive)
	f.reflection = b.add(domain.LevelTopic, f.rayOptics, "Reflection", 1, domain.StatusActive)

	f.displacement = b.add(domain.LevelSubTopic, f.motionLine, "Displacement", 1, domain.StatusActive)
	f.velocity = b.add(domain.LevelSubTopic, f.motionLine, "Velocity", 2, domain.StatusActive)
	f.rangeSub = b.add(domain.LevelSubTopic, f.projectile, "Range", 1, domain.StatusActive)
	f.firstLaw = b.add(domain.LevelSubTopic, f.newton, "First Law", 1, domain.StatusActive)
	f.mirrors = b.add(domain.LevelSubTopic, f.reflection, "Mirrors", 1, domain.StatusActive)

	return f
}

func countAt(t *testing.T, store tree.Store, level domain.Level) int {
	t.Helper()
	nodes, err := store.ListLevel(context.Background(), nil, level)
	if err != nil {
		t.Fatalf("list %s: %v", level, err)
	}
	return len(nodes)
}
