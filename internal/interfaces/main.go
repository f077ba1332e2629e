package interfaces

import (
	"context"
	"errors"

	"questserver/internal/models"

	"github.com/go-redis/redis_rate/v10"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskExists       = errors.New("task id already taken")
	ErrAlreadyRecorded  = errors.New("completion already recorded")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// TaskRepository owns tasks and completion records.
//
// FindTask and UpdateTaskFields return ErrTaskNotFound for unknown ids, InsertTask returns
// ErrTaskExists when the id is taken. RecordCompletion is an
// atomic insert-if-absent and returns ErrAlreadyRecorded when the pair exists. Any other failure
// wraps ErrStoreUnavailable.
type TaskRepository interface {
	FindTask(ctx context.Context, id int64) (*models.Task, error)
	FindTasksByQuest(ctx context.Context, questID int64) ([]models.Task, error)
	NextTaskID(ctx context.Context) (int64, error)
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTaskFields(ctx context.Context, id int64, patch *models.TaskPatch) error

	HasCompletion(ctx context.Context, taskID int64, address string) (bool, error)
	RecordCompletion(ctx context.Context, taskID int64, address string) error

	// GetUserTasks joins the quest's tasks with the address's completion records in one pass,
	// ordered by task id.
	GetUserTasks(ctx context.Context, questID int64, address string) ([]models.UserTask, error)
	GetCompletedQuests(ctx context.Context, address string) ([]int64, error)
}
