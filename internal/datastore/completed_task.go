package datastore

import (
	"context"

	"questserver/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableCompletedTask(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.CompletedTask)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.CompletedTask)(nil)).Index("index_completed_tasks_task_id_address").Unique().IfNotExists().Column("task_id", "address").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.CompletedTask)(nil)).Index("index_completed_tasks_address").IfNotExists().Column("address").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// InsertCompletedTask reports whether a new row was written. The unique index turns a concurrent
// duplicate into a no-op instead of an error.
func InsertCompletedTask(ctx context.Context, db bun.IDB, completed *models.CompletedTask) (bool, error) {
	res, err := db.NewInsert().Model(completed).On("CONFLICT (task_id, address) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return inserted > 0, nil
}

func ExistsCompletedTask(ctx context.Context, db bun.IDB, taskID int64, address string) (bool, error) {
	return db.NewSelect().Model((*models.CompletedTask)(nil)).Where("task_id = ? AND address = ?", taskID, address).Exists(ctx)
}

// GetQuestParticipants counts, per quest, the addresses holding a record for every task of it.
func GetQuestParticipants(ctx context.Context, db bun.IDB) ([]models.QuestParticipants, error) {
	participants := make([]models.QuestParticipants, 0)
	err := db.NewRaw(`
		SELECT done.quest_id, COUNT(*) AS count
		FROM (
			SELECT t.quest_id, ct.address
			FROM tasks AS t
			JOIN completed_tasks AS ct ON ct.task_id = t.id
			GROUP BY t.quest_id, ct.address
			HAVING COUNT(*) = (SELECT COUNT(*) FROM tasks AS t2 WHERE t2.quest_id = t.quest_id)
		) AS done
		GROUP BY done.quest_id
		ORDER BY done.quest_id ASC`).Scan(ctx, &participants)
	if err != nil {
		return nil, err
	}

	return participants, nil
}

func CountQuestParticipants(ctx context.Context, db bun.IDB, questID int64) (int64, error) {
	var count int64
	err := db.NewRaw(`
		SELECT COUNT(*) FROM (
			SELECT ct.address
			FROM tasks AS t
			JOIN completed_tasks AS ct ON ct.task_id = t.id
			WHERE t.quest_id = ?
			GROUP BY ct.address
			HAVING COUNT(*) = (SELECT COUNT(*) FROM tasks AS t2 WHERE t2.quest_id = ?)
		) AS done`, questID, questID).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
