package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/prodmanhq/prodman-backend/internal/logger"
	"github.com/prodmanhq/prodman-backend/internal/types"
	"github.com/prodmanhq/prodman-backend/internal/utils"
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
	postgresName := utils.GetEnv("POSTGRES_NAME", "prodman", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Category{},
		&types.Product{},
		&types.ProductCategory{},
		&types.ProductComponent{},
		&types.Task{},
		&types.Subtask{},
		&types.SubtaskEvent{},
		&types.StockMovement{},
		&types.AppConfig{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table      string
		constraint string
		ddl        string
	}{
		{"task", "fk_task_user_id", `FOREIGN KEY ("user_id") REFERENCES "user"("id")`},
		{"subtask", "fk_subtask_task_id", `FOREIGN KEY ("task_id") REFERENCES "task"("id") ON DELETE CASCADE`},
		{"subtask", "fk_subtask_product_id", `FOREIGN KEY ("product_id") REFERENCES "product"("id")`},
		{"subtask_event", "fk_subtask_event_subtask_id", `FOREIGN KEY ("subtask_id") REFERENCES "subtask"("id") ON DELETE CASCADE`},
		{"product_category", "fk_product_category_product_id", `FOREIGN KEY ("product_id") REFERENCES "product"("id") ON DELETE CASCADE`},
		{"product_category", "fk_product_category_category_id", `FOREIGN KEY ("category_id") REFERENCES "category"("id") ON DELETE CASCADE`},
		{"product_component", "fk_product_component_parent_id", `FOREIGN KEY ("parent_id") REFERENCES "product"("id") ON DELETE CASCADE`},
		{"product_component", "fk_product_component_child_id", `FOREIGN KEY ("child_id") REFERENCES "product"("id") ON DELETE CASCADE`},
		{"stock_movement", "fk_stock_movement_product_id", `FOREIGN KEY ("product_id") REFERENCES "product"("id")`},
	}
	for _, c := range constraints {
		drop := fmt.Sprintf(`ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q`, c.table, c.constraint)
		if err := s.db.Exec(drop).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", c.constraint, err)
		}
		add := fmt.Sprintf(`ALTER TABLE %q ADD CONSTRAINT %q %s`, c.table, c.constraint, c.ddl)
		if err := s.db.Exec(add).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.constraint, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
