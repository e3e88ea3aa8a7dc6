package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"live-quiz-service/internal/catalog"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/postgres/migrations"
)

// OpenBun opens a bun handle on dsn. The caller closes it.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies pending catalog migrations and returns the group applied,
// empty when the schema was already current.
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return group, nil
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID       string `bun:"id,pk"`
	Position int    `bun:"position"`
	Data     string `bun:"data,type:jsonb"`
}

// SeedCatalog upserts quizzes, keeping their order in the position column.
func SeedCatalog(ctx context.Context, db *bun.DB, quizzes []domain.Quiz) error {
	if len(quizzes) == 0 {
		return nil
	}
	rows := make([]quizRow, 0, len(quizzes))
	for i, quiz := range quizzes {
		data, err := json.Marshal(catalog.FromDomain(quiz))
		if err != nil {
			return fmt.Errorf("marshal quiz %q: %w", quiz.ID, err)
		}
		rows = append(rows, quizRow{ID: quiz.ID, Position: i, Data: string(data)})
	}

	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("position = EXCLUDED.position").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}
