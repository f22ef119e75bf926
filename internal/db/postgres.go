package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "bank_reviews", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := Migrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []string{
		`ALTER TABLE "review_products"
		 ADD CONSTRAINT "fk_review_products_review_id"
		 FOREIGN KEY ("review_id") REFERENCES "reviews"("id") ON DELETE CASCADE`,
		`ALTER TABLE "review_products"
		 ADD CONSTRAINT "fk_review_products_product_id"
		 FOREIGN KEY ("product_id") REFERENCES "products"("id") ON DELETE CASCADE`,
		`ALTER TABLE "review_clusters"
		 ADD CONSTRAINT "fk_review_clusters_review_id"
		 FOREIGN KEY ("review_id") REFERENCES "reviews"("id") ON DELETE CASCADE`,
		`ALTER TABLE "review_clusters"
		 ADD CONSTRAINT "fk_review_clusters_cluster_id"
		 FOREIGN KEY ("cluster_id") REFERENCES "clusters"("id") ON DELETE CASCADE`,
		`ALTER TABLE "notification_configs"
		 ADD CONSTRAINT "fk_notification_configs_product_id"
		 FOREIGN KEY ("product_id") REFERENCES "products"("id") ON DELETE CASCADE`,
	}
	for _, stmt := range constraints {
		if err := s.db.Exec(stmt).Error; err != nil {
			// Re-running migrations against an existing schema hits duplicate
			// constraint errors; those are fine.
			s.log.Debug("Constraint statement skipped", "error", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// Migrate creates the full schema on any gorm dialect. The sqlite-backed
// tests reuse it.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Product{},
		&types.Review{},
		&types.ReviewProduct{},
		&types.Cluster{},
		&types.ReviewCluster{},
		&types.RawReview{},
		&types.Notification{},
		&types.NotificationConfig{},
		&types.AuditLog{},
	)
}
