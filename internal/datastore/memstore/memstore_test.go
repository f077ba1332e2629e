package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"questserver/internal/interfaces"
	"questserver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, tasks ...models.Task) {
	t.Helper()
	for i := range tasks {
		require.NoError(t, s.InsertTask(context.Background(), &tasks[i]))
	}
}

func TestRecordCompletionIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, models.Task{ID: 1, QuestID: 7})

	require.NoError(t, s.RecordCompletion(ctx, 1, "abc"))
	err := s.RecordCompletion(ctx, 1, "abc")
	assert.ErrorIs(t, err, interfaces.ErrAlreadyRecorded)
	assert.Equal(t, 1, s.CompletionCount())

	done, err := s.HasCompletion(ctx, 1, "abc")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRecordCompletionConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s, models.Task{ID: 1, QuestID: 7})

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RecordCompletion(ctx, 1, "abc"); err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, s.CompletionCount())
}

func TestGetUserTasksOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s,
		models.Task{ID: 3, QuestID: 7, Name: "third"},
		models.Task{ID: 1, QuestID: 7, Name: "first"},
		models.Task{ID: 2, QuestID: 8, Name: "other quest"},
		models.Task{ID: 5, QuestID: 7, Name: "fifth"},
	)
	require.NoError(t, s.RecordCompletion(ctx, 3, "abc"))
	require.NoError(t, s.RecordCompletion(ctx, 1, "someone-else"))

	tasks, err := s.GetUserTasks(ctx, 7, "abc")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []int64{1, 3, 5}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	assert.Equal(t, []bool{false, true, false}, []bool{tasks[0].Completed, tasks[1].Completed, tasks[2].Completed})

	empty, err := s.GetUserTasks(ctx, 99, "abc")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNextTaskID(t *testing.T) {
	ctx := context.Background()
	s := New()

	next, err := s.NextTaskID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	seed(t, s, models.Task{ID: 4}, models.Task{ID: 2})
	next, err = s.NextTaskID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), next)

	err = s.InsertTask(ctx, &models.Task{ID: 4})
	assert.ErrorIs(t, err, interfaces.ErrTaskExists)
}

func TestUpdateTaskFieldsPartial(t *testing.T) {
	ctx := context.Background()
	s := New()
	redirect := "https://example.com/post"
	seed(t, s, models.Task{ID: 1, QuestID: 7, Name: "old", Desc: "desc", Cta: "Go", VerifyRedirect: &redirect})

	err := s.UpdateTaskFields(ctx, 1, &models.TaskPatch{Name: models.Some("X"), VerifyRedirect: models.Null[string]()})
	require.NoError(t, err)

	task, err := s.FindTask(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "X", task.Name)
	assert.Equal(t, "desc", task.Desc)
	assert.Equal(t, "Go", task.Cta)
	assert.Equal(t, int64(7), task.QuestID)
	assert.Nil(t, task.VerifyRedirect)

	err = s.UpdateTaskFields(ctx, 42, &models.TaskPatch{Name: models.Some("X")})
	assert.ErrorIs(t, err, interfaces.ErrTaskNotFound)
}

func TestGetCompletedQuests(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s,
		models.Task{ID: 1, QuestID: 7},
		models.Task{ID: 2, QuestID: 7},
		models.Task{ID: 3, QuestID: 8},
		models.Task{ID: 4, QuestID: 9},
	)
	for _, id := range []int64{1, 2, 4} {
		require.NoError(t, s.RecordCompletion(ctx, id, "abc"))
	}

	questIDs, err := s.GetCompletedQuests(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, questIDs)
}

func TestFailingStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Fail(errors.New("connection reset"))

	_, err := s.GetUserTasks(ctx, 7, "abc")
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)

	err = s.RecordCompletion(ctx, 1, "abc")
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)

	s.Fail(nil)
	_, err = s.GetUserTasks(ctx, 7, "abc")
	assert.NoError(t, err)
}
