package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"questserver/internal/interfaces"
	"questserver/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgUniqueViolation = "23505"

// TaskRepository implements interfaces.TaskRepository on postgres. Reads that feed the
// aggregator go to the primary so a fresh completion is visible right after verification.
type TaskRepository struct {
	db *bun.DB
}

var _ interfaces.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *bun.DB) *TaskRepository {
	return &TaskRepository{db}
}

func (repo *TaskRepository) FindTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := FindTaskByID(ctx, repo.db, id)
	if err != nil {
		return nil, classify(err)
	}
	return task, nil
}

func (repo *TaskRepository) FindTasksByQuest(ctx context.Context, questID int64) ([]models.Task, error) {
	tasks, err := FindTasksByQuest(ctx, repo.db, questID)
	if err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

func (repo *TaskRepository) NextTaskID(ctx context.Context) (int64, error) {
	lastID, err := GetLastTaskID(ctx, repo.db)
	if err != nil {
		return 0, classify(err)
	}
	return lastID + 1, nil
}

func (repo *TaskRepository) InsertTask(ctx context.Context, task *models.Task) error {
	err := CreateTask(ctx, repo.db, task)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %d", interfaces.ErrTaskExists, task.ID)
	}
	return classify(err)
}

func (repo *TaskRepository) UpdateTaskFields(ctx context.Context, id int64, patch *models.TaskPatch) error {
	if patch == nil || patch.IsEmpty() {
		_, err := repo.FindTask(ctx, id)
		return err
	}

	matched, err := UpdateTaskFields(ctx, repo.db, id, patch)
	if err != nil {
		return classify(err)
	}
	if matched == 0 {
		return interfaces.ErrTaskNotFound
	}
	return nil
}

func (repo *TaskRepository) HasCompletion(ctx context.Context, taskID int64, address string) (bool, error) {
	exists, err := ExistsCompletedTask(ctx, repo.db, taskID, address)
	if err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (repo *TaskRepository) RecordCompletion(ctx context.Context, taskID int64, address string) error {
	inserted, err := InsertCompletedTask(ctx, repo.db, &models.CompletedTask{
		TaskID:  taskID,
		Address: address,
	})
	if err != nil {
		return classify(err)
	}
	if !inserted {
		return interfaces.ErrAlreadyRecorded
	}
	return nil
}

func (repo *TaskRepository) GetUserTasks(ctx context.Context, questID int64, address string) ([]models.UserTask, error) {
	tasks, err := GetUserTasks(ctx, repo.db, questID, address)
	if err != nil {
		return nil, classify(err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (repo *TaskRepository) GetCompletedQuests(ctx context.Context, address string) ([]int64, error) {
	questIDs, err := GetCompletedQuestIDs(ctx, repo.db, address)
	if err != nil {
		return nil, classify(err)
	}
	return questIDs, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.ErrTaskNotFound
	}
	return fmt.Errorf("%w: %w", interfaces.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}
	return false
}
