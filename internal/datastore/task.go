package datastore

import (
	"context"

	"questserver/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTask(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Task)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Task)(nil)).Index("index_tasks_quest_id").IfNotExists().Column("quest_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewRaw(`
		alter table tasks
			add if not exists discord_guild_id varchar;

		alter table tasks
			add if not exists quiz_name varchar;`).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func FindTaskByID(ctx context.Context, db bun.IDB, id int64) (*models.Task, error) {
	var task models.Task
	err := db.NewSelect().Model(&task).Where("t.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

func FindTasksByQuest(ctx context.Context, db bun.IDB, questID int64) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := db.NewSelect().Model(&tasks).Where("t.quest_id = ?", questID).OrderExpr("t.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetLastTaskID returns 0 when the table is empty.
func GetLastTaskID(ctx context.Context, db bun.IDB) (int64, error) {
	var lastID int64
	err := db.NewSelect().Model((*models.Task)(nil)).ColumnExpr("COALESCE(MAX(t.id), 0)").Scan(ctx, &lastID)
	if err != nil {
		return 0, err
	}

	return lastID, nil
}

func CreateTask(ctx context.Context, db bun.IDB, task *models.Task) error {
	_, err := db.NewInsert().Model(task).Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

// UpdateTaskFields writes only the present fields of patch and returns the number of matched rows.
func UpdateTaskFields(ctx context.Context, db bun.IDB, id int64, patch *models.TaskPatch) (int64, error) {
	query := db.NewUpdate().Model((*models.Task)(nil)).Where("id = ?", id)
	setValue(query, "quest_id", patch.QuestID)
	setValue(query, "name", patch.Name)
	setValue(query, "desc", patch.Desc)
	setValue(query, "cta", patch.Cta)
	setValue(query, "href", patch.Href)
	setValue(query, "verify_endpoint", patch.VerifyEndpoint)
	setValue(query, "verify_endpoint_type", patch.VerifyEndpointType)
	setNullable(query, "verify_redirect", patch.VerifyRedirect)
	setNullable(query, "task_type", patch.TaskType)
	setNullable(query, "discord_guild_id", patch.DiscordGuildID)
	setNullable(query, "quiz_name", patch.QuizName)

	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func setValue[T any](query *bun.UpdateQuery, column string, field models.Optional[T]) {
	if field.Set {
		query.Set("? = ?", bun.Ident(column), field.Value)
	}
}

func setNullable[T any](query *bun.UpdateQuery, column string, field models.Optional[T]) {
	if !field.Set {
		return
	}
	if field.Null {
		query.Set("? = NULL", bun.Ident(column))
		return
	}
	query.Set("? = ?", bun.Ident(column), field.Value)
}

func GetUserTasks(ctx context.Context, db bun.IDB, questID int64, address string) ([]models.UserTask, error) {
	tasks := make([]models.UserTask, 0)
	err := db.NewSelect().
		TableExpr("tasks AS t").
		ColumnExpr("t.id, t.quest_id, t.name, t.href, t.cta, t.verify_endpoint, t.verify_endpoint_type, t.verify_redirect, t.task_type").
		ColumnExpr(`t."desc"`).
		ColumnExpr("ct.task_id IS NOT NULL AS completed").
		Join("LEFT JOIN completed_tasks AS ct ON ct.task_id = t.id AND ct.address = ?", address).
		Where("t.quest_id = ?", questID).
		OrderExpr("t.id ASC").
		Scan(ctx, &tasks)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetCompletedQuestIDs returns the quests in which address completed every task.
func GetCompletedQuestIDs(ctx context.Context, db bun.IDB, address string) ([]int64, error) {
	questIDs := make([]int64, 0)
	err := db.NewSelect().
		TableExpr("tasks AS t").
		ColumnExpr("t.quest_id").
		Join("LEFT JOIN completed_tasks AS ct ON ct.task_id = t.id AND ct.address = ?", address).
		GroupExpr("t.quest_id").
		Having("COUNT(t.id) = COUNT(ct.task_id)").
		OrderExpr("t.quest_id ASC").
		Scan(ctx, &questIDs)
	if err != nil {
		return nil, err
	}

	return questIDs, nil
}
