package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/envutil"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(logg *logger.Logger) (*PostgresService, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := envutil.Str("POSTGRES_HOST", "localhost")
	postgresPort := envutil.Str("POSTGRES_PORT", "5432")
	postgresUser := envutil.Str("POSTGRES_USER", "postgres")
	postgresPassword := envutil.Str("POSTGRES_PASSWORD", "")
	postgresName := envutil.Str("POSTGRES_NAME", "examtree")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates or updates every table of the content tree,
// root-most first so the denormalized ancestor columns always land on
// existing tables.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Exam{},
		&domain.Subject{},
		&domain.Unit{},
		&domain.Chapter{},
		&domain.Topic{},
		&domain.SubTopic{},
		&domain.SubTopicDetail{},
	)
}
