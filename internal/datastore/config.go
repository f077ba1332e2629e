package datastore

import (
	"context"

	"questserver/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableConfig(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Config)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table config
			add if not exists updated_at timestamptz not null default current_timestamp;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertConfig keeps an existing value, so re-running the seed never overrides an operator change.
func InsertConfig(ctx context.Context, db bun.IDB, config *models.Config) error {
	_, err := db.NewInsert().Model(config).On("CONFLICT (key) DO NOTHING").Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func GetConfigByKey(ctx context.Context, db bun.IDB, key string) (*models.Config, error) {
	var config models.Config
	err := db.NewSelect().Model(&config).Where("key = ?", key).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func SetConfig(ctx context.Context, db bun.IDB, config *models.Config) error {
	_, err := db.NewInsert().Model(config).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	return err
}
