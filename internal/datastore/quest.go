package datastore

import (
	"context"
	"time"

	"questserver/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableQuest(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Quest)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table quests
			add if not exists category varchar;

		alter table quests
			add if not exists expiry timestamptz;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func GetQuest(ctx context.Context, db bun.IDB, id int64) (*models.Quest, error) {
	var quest models.Quest
	err := db.NewSelect().Model(&quest).Where("q.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &quest, nil
}

func GetVisibleQuests(ctx context.Context, db bun.IDB, now time.Time) ([]models.Quest, error) {
	quests := make([]models.Quest, 0)
	err := db.NewSelect().Model(&quests).
		Where("q.hidden = false AND q.disabled = false").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("q.expiry IS NULL").WhereOr("q.expiry > ?", now)
		}).
		OrderExpr("q.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return quests, nil
}

func CreateQuest(ctx context.Context, db bun.IDB, quest *models.Quest) error {
	_, err := db.NewInsert().Model(quest).Exec(ctx)
	return err
}
