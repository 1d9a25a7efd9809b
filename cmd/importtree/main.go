package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/db"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/cache"
	"github.com/examtree/examtree-backend/internal/platform/logger"
	"github.com/examtree/examtree-backend/internal/services"
)

// importtree loads a YAML curriculum file into the database, creating
// the whole hierarchy top-down. Order numbers follow file order unless
// given explicitly.

type yamlNode struct {
	Name             string                 `yaml:"name"`
	Status           string                 `yaml:"status"`
	OrderNumber      *int                   `yaml:"order_number"`
	Content          map[string]interface{} `yaml:"content"`
	SEO              map[string]interface{} `yaml:"seo"`
	Weightage        *float64               `yaml:"weightage"`
	EstimatedMinutes *int                   `yaml:"estimated_minutes"`
	QuestionCount    *int                   `yaml:"question_count"`
	Detail           map[string]interface{} `yaml:"detail"`

	Subjects  []yamlNode `yaml:"subjects"`
	Units     []yamlNode `yaml:"units"`
	Chapters  []yamlNode `yaml:"chapters"`
	Topics    []yamlNode `yaml:"topics"`
	SubTopics []yamlNode `yaml:"subtopics"`
}

type curriculum struct {
	Exams []yamlNode `yaml:"exams"`
}

func main() {
	file := flag.String("file", "", "path to the curriculum YAML file")
	dryRun := flag.Bool("dry-run", false, "parse and validate without writing")
	flag.Parse()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *file == "" {
		log.Fatal("Missing -file argument")
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal("Cannot read curriculum file", "file", *file, "error", err)
	}
	var cur curriculum
	if err := yaml.Unmarshal(raw, &cur); err != nil {
		log.Fatal("Cannot parse curriculum file", "file", *file, "error", err)
	}
	if len(cur.Exams) == 0 {
		log.Fatal("Curriculum file has no exams", "file", *file)
	}

	var store tree.Store
	var details tree.DetailStore
	if *dryRun {
		mem := tree.NewMemoryStore()
		store, details = mem, mem
	} else {
		pg, err := db.NewPostgresService(log)
		if err != nil {
			log.Fatal("Postgres init failed", "error", err)
		}
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			log.Fatal("Postgres automigrate failed", "error", err)
		}
		gs := tree.NewGormStore(pg.DB(), log)
		store, details = gs, gs
	}

	invalidator := services.NewInvalidator(cache.New(16, time.Minute), nil, log)
	resolver := services.NewResolverService(log, store)
	sequencer := services.NewSequenceService(log, store)
	nodes := services.NewNodeService(log, store, details, resolver, sequencer, invalidator)

	ctx := context.Background()
	imp := importer{log: log, nodes: nodes}
	for _, exam := range cur.Exams {
		if err := imp.importNode(ctx, domain.LevelExam, "", exam); err != nil {
			log.Fatal("Import failed", "exam", exam.Name, "error", err)
		}
	}
	log.Info("Import finished", "exams", len(cur.Exams), "created", imp.created, "dry_run", *dryRun)
}

type importer struct {
	log     *logger.Logger
	nodes   services.NodeService
	created int
}

func (im *importer) importNode(ctx context.Context, level domain.Level, parentToken string, yn yamlNode) error {
	in := services.CreateNodeInput{
		ParentToken:      parentToken,
		Name:             yn.Name,
		OrderNumber:      yn.OrderNumber,
		Status:           yn.Status,
		Weightage:        yn.Weightage,
		EstimatedMinutes: yn.EstimatedMinutes,
		QuestionCount:    yn.QuestionCount,
	}
	var err error
	if in.Content, err = asJSON(yn.Content); err != nil {
		return fmt.Errorf("content of %q: %w", yn.Name, err)
	}
	if in.SEO, err = asJSON(yn.SEO); err != nil {
		return fmt.Errorf("seo of %q: %w", yn.Name, err)
	}
	if in.Detail, err = asJSON(yn.Detail); err != nil {
		return fmt.Errorf("detail of %q: %w", yn.Name, err)
	}

	node, err := im.nodes.Create(ctx, level, in)
	if err != nil {
		return fmt.Errorf("create %s %q: %w", level, yn.Name, err)
	}
	im.created++
	im.log.Debug("Imported", "level", level.String(), "name", yn.Name, "id", node.ID)

	childLevel, ok := level.Child()
	if !ok {
		return nil
	}
	for _, child := range childrenOf(yn) {
		if err := im.importNode(ctx, childLevel, node.ID.String(), child); err != nil {
			return err
		}
	}
	return nil
}

func childrenOf(yn yamlNode) []yamlNode {
	for _, group := range [][]yamlNode{yn.Subjects, yn.Units, yn.Chapters, yn.Topics, yn.SubTopics} {
		if len(group) > 0 {
			return group
		}
	}
	return nil
}

func asJSON(m map[string]interface{}) (json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}
