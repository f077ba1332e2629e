package datastore

import (
	"context"

	"github.com/uptrace/bun"
)

// Migrate creates every table and index. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *bun.DB) error {
	for _, create := range []func(context.Context, *bun.DB) error{
		CreateTableQuest,
		CreateTableTask,
		CreateTableCompletedTask,
		CreateTableConfig,
	} {
		err := create(ctx, db)
		if err != nil {
			return err
		}
	}
	return nil
}
