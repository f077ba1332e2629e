package datastore

import (
	"context"
	"testing"

	"questserver/internal/interfaces"
	"questserver/internal/models"
	"questserver/internal/pkg/pgtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestRepository(t *testing.T) (*TaskRepository, *bun.DB) {
	t.Helper()

	db := pgtest.New(t)
	require.NoError(t, Migrate(context.Background(), db))
	// a second run must be a no-op
	require.NoError(t, Migrate(context.Background(), db))
	return NewTaskRepository(db), db
}

func insertTasks(t *testing.T, repo *TaskRepository, tasks ...models.Task) {
	t.Helper()
	for _, task := range tasks {
		task := task
		require.NoError(t, repo.InsertTask(context.Background(), &task))
	}
}

func strPtr(s string) *string {
	return &s
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepository(t)

	t.Run("next id on an empty table", func(t *testing.T) {
		id, err := repo.NextTaskID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	// inserted out of id order on purpose
	insertTasks(t, repo,
		models.Task{ID: 3, QuestID: 7, Name: "third", VerifyEndpointType: "default"},
		models.Task{ID: 1, QuestID: 7, Name: "first", Desc: "visit", VerifyEndpointType: "default", VerifyRedirect: strPtr("https://x.com"), TaskType: strPtr("twitter_fw")},
		models.Task{ID: 2, QuestID: 7, Name: "second", VerifyEndpointType: "score_gt_50"},
		models.Task{ID: 4, QuestID: 8, Name: "solo", VerifyEndpointType: "default"},
	)

	t.Run("next id follows the maximum", func(t *testing.T) {
		id, err := repo.NextTaskID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
	})

	t.Run("find task", func(t *testing.T) {
		task, err := repo.FindTask(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "first", task.Name)
		assert.Equal(t, "visit", task.Desc)
		require.NotNil(t, task.VerifyRedirect)
		assert.Equal(t, "https://x.com", *task.VerifyRedirect)

		_, err = repo.FindTask(ctx, 404)
		assert.ErrorIs(t, err, interfaces.ErrTaskNotFound)
	})

	t.Run("find tasks by quest", func(t *testing.T) {
		tasks, err := repo.FindTasksByQuest(ctx, 7)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []int64{1, 2, 3}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})

		tasks, err = repo.FindTasksByQuest(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("insert with a taken id", func(t *testing.T) {
		err := repo.InsertTask(ctx, &models.Task{ID: 2, QuestID: 9, Name: "clash"})
		assert.ErrorIs(t, err, interfaces.ErrTaskExists)

		task, err := repo.FindTask(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "second", task.Name)
	})

	t.Run("record completion once", func(t *testing.T) {
		require.NoError(t, repo.RecordCompletion(ctx, 1, "0xabc"))
		assert.ErrorIs(t, repo.RecordCompletion(ctx, 1, "0xabc"), interfaces.ErrAlreadyRecorded)

		count, err := db.NewSelect().Model((*models.CompletedTask)(nil)).Where("task_id = 1").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		done, err := repo.HasCompletion(ctx, 1, "0xabc")
		require.NoError(t, err)
		assert.True(t, done)

		done, err = repo.HasCompletion(ctx, 1, "0xdef")
		require.NoError(t, err)
		assert.False(t, done)
	})

	t.Run("user tasks", func(t *testing.T) {
		require.NoError(t, repo.RecordCompletion(ctx, 3, "0xdef"))

		tasks, err := repo.GetUserTasks(ctx, 7, "0xabc")
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, []int64{1, 2, 3}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
		assert.Equal(t, []bool{true, false, false}, []bool{tasks[0].Completed, tasks[1].Completed, tasks[2].Completed})
		assert.Equal(t, "visit", tasks[0].Desc)
		require.NotNil(t, tasks[0].TaskType)
		assert.Equal(t, "twitter_fw", *tasks[0].TaskType)
		assert.Nil(t, tasks[1].VerifyRedirect)

		tasks, err = repo.GetUserTasks(ctx, 99, "0xabc")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("completed quests", func(t *testing.T) {
		require.NoError(t, repo.RecordCompletion(ctx, 4, "0xabc"))

		questIDs, err := repo.GetCompletedQuests(ctx, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, []int64{8}, questIDs)

		require.NoError(t, repo.RecordCompletion(ctx, 2, "0xabc"))
		require.NoError(t, repo.RecordCompletion(ctx, 3, "0xabc"))

		questIDs, err = repo.GetCompletedQuests(ctx, "0xabc")
		require.NoError(t, err)
		assert.Equal(t, []int64{7, 8}, questIDs)
	})

	t.Run("quest participants", func(t *testing.T) {
		// 0xabc finished quests 7 and 8, 0xdef only one task of 7
		require.NoError(t, repo.RecordCompletion(ctx, 4, "0xdef"))

		participants, err := GetQuestParticipants(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, []models.QuestParticipants{
			{QuestID: 7, Count: 1},
			{QuestID: 8, Count: 2},
		}, participants)

		count, err := CountQuestParticipants(ctx, db, 8)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = CountQuestParticipants(ctx, db, 99)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestTaskRepositoryUpdateTaskFields(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	insertTasks(t, repo, models.Task{
		ID:                 1,
		QuestID:            7,
		Name:               "follow",
		Desc:               "follow us",
		VerifyEndpointType: "default",
		VerifyRedirect:     strPtr("https://x.com/a"),
		TaskType:           strPtr("twitter_fw"),
	})

	err := repo.UpdateTaskFields(ctx, 1, &models.TaskPatch{
		Name:           models.Some("follow the team"),
		Desc:           models.Null[string](),
		VerifyRedirect: models.Null[string](),
		QuizName:       models.Some("intro"),
	})
	require.NoError(t, err)

	task, err := repo.FindTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "follow the team", task.Name)
	assert.Equal(t, "", task.Desc)
	assert.Nil(t, task.VerifyRedirect)
	require.NotNil(t, task.QuizName)
	assert.Equal(t, "intro", *task.QuizName)
	// untouched
	assert.Equal(t, int64(7), task.QuestID)
	assert.Equal(t, "default", task.VerifyEndpointType)
	require.NotNil(t, task.TaskType)
	assert.Equal(t, "twitter_fw", *task.TaskType)

	require.NoError(t, repo.UpdateTaskFields(ctx, 1, &models.TaskPatch{}))
	assert.ErrorIs(t, repo.UpdateTaskFields(ctx, 404, &models.TaskPatch{}), interfaces.ErrTaskNotFound)
	assert.ErrorIs(t, repo.UpdateTaskFields(ctx, 404, &models.TaskPatch{Name: models.Some("x")}), interfaces.ErrTaskNotFound)
}

func TestTaskRepositoryStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepository(t)
	require.NoError(t, db.Close())

	_, err := repo.FindTask(ctx, 1)
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, interfaces.ErrTaskNotFound)

	err = repo.RecordCompletion(ctx, 1, "0xabc")
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)

	_, err = repo.GetUserTasks(ctx, 7, "0xabc")
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)
}
