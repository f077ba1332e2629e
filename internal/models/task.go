package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TaskTypeTwitterRw = "twitter_rw"

	VerifyEndpointTypeDefault = "default"
)

type Task struct {
	bun.BaseModel      `bun:"table:tasks,alias:t"`
	ID                 int64   `bun:"id,pk" json:"id"`
	QuestID            int64   `bun:"quest_id,notnull" json:"quest_id"`
	Name               string  `bun:"name" json:"name"`
	Desc               string  `bun:"desc" json:"desc"`
	Cta                string  `bun:"cta" json:"cta"`
	Href               string  `bun:"href" json:"href"`
	VerifyEndpoint     string  `bun:"verify_endpoint" json:"verify_endpoint"`
	VerifyEndpointType string  `bun:"verify_endpoint_type" json:"verify_endpoint_type"`
	VerifyRedirect     *string `bun:"verify_redirect" json:"verify_redirect"`
	TaskType           *string `bun:"task_type" json:"task_type"`
	DiscordGuildID     *string `bun:"discord_guild_id" json:"discord_guild_id,omitempty"`
	QuizName           *string `bun:"quiz_name" json:"quiz_name,omitempty"`
}

// CompletedTask is the durable proof that an address satisfied a task.
// (task_id, address) is unique.
type CompletedTask struct {
	bun.BaseModel `bun:"table:completed_tasks,alias:ct"`
	ID            int64     `bun:"id,pk,autoincrement" json:"-"`
	TaskID        int64     `bun:"task_id,notnull" json:"task_id"`
	Address       string    `bun:"address,notnull" json:"address"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// UserTask is a task annotated with the completion state of one address.
type UserTask struct {
	ID                 int64   `bun:"id" json:"id"`
	QuestID            int64   `bun:"quest_id" json:"quest_id"`
	Name               string  `bun:"name" json:"name"`
	Href               string  `bun:"href" json:"href"`
	Cta                string  `bun:"cta" json:"cta"`
	VerifyEndpoint     string  `bun:"verify_endpoint" json:"verify_endpoint"`
	VerifyEndpointType string  `bun:"verify_endpoint_type" json:"verify_endpoint_type"`
	VerifyRedirect     *string `bun:"verify_redirect" json:"verify_redirect,omitempty"`
	TaskType           *string `bun:"task_type" json:"task_type,omitempty"`
	Desc               string  `bun:"desc" json:"desc"`
	Completed          bool    `bun:"completed" json:"completed"`
}

func NewUserTask(task *Task, completed bool) UserTask {
	return UserTask{
		ID:                 task.ID,
		QuestID:            task.QuestID,
		Name:               task.Name,
		Href:               task.Href,
		Cta:                task.Cta,
		VerifyEndpoint:     task.VerifyEndpoint,
		VerifyEndpointType: task.VerifyEndpointType,
		VerifyRedirect:     task.VerifyRedirect,
		TaskType:           task.TaskType,
		Desc:               task.Desc,
		Completed:          completed,
	}
}

// TaskPatch carries the fields of a partial task update. Only present fields are written.
type TaskPatch struct {
	QuestID            Optional[int64]  `json:"quest_id"`
	Name               Optional[string] `json:"name"`
	Desc               Optional[string] `json:"desc"`
	Cta                Optional[string] `json:"cta"`
	Href               Optional[string] `json:"href"`
	VerifyEndpoint     Optional[string] `json:"verify_endpoint"`
	VerifyEndpointType Optional[string] `json:"verify_endpoint_type"`
	VerifyRedirect     Optional[string] `json:"verify_redirect"`
	TaskType           Optional[string] `json:"task_type"`
	DiscordGuildID     Optional[string] `json:"discord_guild_id"`
	QuizName           Optional[string] `json:"quiz_name"`
}

func (patch *TaskPatch) IsEmpty() bool {
	return !patch.QuestID.Set && !patch.Name.Set && !patch.Desc.Set && !patch.Cta.Set &&
		!patch.Href.Set && !patch.VerifyEndpoint.Set && !patch.VerifyEndpointType.Set &&
		!patch.VerifyRedirect.Set && !patch.TaskType.Set && !patch.DiscordGuildID.Set &&
		!patch.QuizName.Set
}

// Apply merges the present fields into task. A null on a nullable field clears it.
func (patch *TaskPatch) Apply(task *Task) {
	applyValue(&task.QuestID, patch.QuestID)
	applyValue(&task.Name, patch.Name)
	applyValue(&task.Desc, patch.Desc)
	applyValue(&task.Cta, patch.Cta)
	applyValue(&task.Href, patch.Href)
	applyValue(&task.VerifyEndpoint, patch.VerifyEndpoint)
	applyValue(&task.VerifyEndpointType, patch.VerifyEndpointType)
	applyNullable(&task.VerifyRedirect, patch.VerifyRedirect)
	applyNullable(&task.TaskType, patch.TaskType)
	applyNullable(&task.DiscordGuildID, patch.DiscordGuildID)
	applyNullable(&task.QuizName, patch.QuizName)
}

func applyValue[T any](dst *T, field Optional[T]) {
	if field.Set {
		*dst = field.Value
	}
}

func applyNullable[T any](dst **T, field Optional[T]) {
	if !field.Set {
		return
	}
	if field.Null {
		*dst = nil
		return
	}
	v := field.Value
	*dst = &v
}

type CreateTaskRequest struct {
	QuestID            int64   `json:"quest_id"`
	Name               string  `json:"name"`
	Desc               string  `json:"desc"`
	Cta                string  `json:"cta"`
	Href               string  `json:"href"`
	VerifyEndpoint     string  `json:"verify_endpoint"`
	VerifyEndpointType string  `json:"verify_endpoint_type"`
	VerifyRedirect     *string `json:"verify_redirect"`
	TaskType           *string `json:"task_type"`
	DiscordGuildID     *string `json:"discord_guild_id"`
	QuizName           *string `json:"quiz_name"`
}

type CreateTwitterRwRequest struct {
	QuestID  int64  `json:"quest_id"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	PostLink string `json:"post_link"`
}

type UpdateTaskRequest struct {
	ID int64 `json:"id"`
	TaskPatch
}

type VerifyTaskRequest struct {
	TaskID  int64  `json:"task_id" query:"task_id"`
	Address string `json:"addr" query:"addr"`
}

type VerifyResult struct {
	Verified bool   `json:"verified"`
	Code     string `json:"code,omitempty"`
}

type CreatedTask struct {
	ID int64 `json:"id"`
}

type QueryError struct {
	Error string `json:"error"`
}
