// Package memstore keeps tasks and completion records in process memory. It honours the same
// contract as the postgres repository and backs the service, handler and verification tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"questserver/internal/interfaces"
	"questserver/internal/models"
)

type completionKey struct {
	taskID  int64
	address string
}

type Store struct {
	mu          sync.RWMutex
	tasks       map[int64]models.Task
	completions map[completionKey]struct{}

	// failWith, when set, is returned by every operation.
	failWith error
}

var _ interfaces.TaskRepository = (*Store)(nil)

func New() *Store {
	return &Store{
		tasks:       make(map[int64]models.Task),
		completions: make(map[completionKey]struct{}),
	}
}

// Fail makes every following call return err wrapped as a store failure. Passing nil heals the store.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.failWith = nil
		return
	}
	s.failWith = fmt.Errorf("%w: %w", interfaces.ErrStoreUnavailable, err)
}

// CompletionCount returns the number of stored completion records.
func (s *Store) CompletionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.completions)
}

func (s *Store) FindTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	task, ok := s.tasks[id]
	if !ok {
		return nil, interfaces.ErrTaskNotFound
	}
	return &task, nil
}

func (s *Store) FindTasksByQuest(ctx context.Context, questID int64) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	tasks := make([]models.Task, 0)
	for _, task := range s.tasks {
		if task.QuestID == questID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

func (s *Store) NextTaskID(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return 0, s.failWith
	}

	var lastID int64
	for id := range s.tasks {
		if id > lastID {
			lastID = id
		}
	}
	return lastID + 1, nil
}

func (s *Store) InsertTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("%w: %d", interfaces.ErrTaskExists, task.ID)
	}
	s.tasks[task.ID] = *task
	return nil
}

func (s *Store) UpdateTaskFields(ctx context.Context, id int64, patch *models.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	task, ok := s.tasks[id]
	if !ok {
		return interfaces.ErrTaskNotFound
	}
	if patch != nil {
		patch.Apply(&task)
	}
	s.tasks[id] = task
	return nil
}

func (s *Store) HasCompletion(ctx context.Context, taskID int64, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return false, s.failWith
	}

	_, ok := s.completions[completionKey{taskID, address}]
	return ok, nil
}

func (s *Store) RecordCompletion(ctx context.Context, taskID int64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	key := completionKey{taskID, address}
	if _, ok := s.completions[key]; ok {
		return interfaces.ErrAlreadyRecorded
	}
	s.completions[key] = struct{}{}
	return nil
}

func (s *Store) GetUserTasks(ctx context.Context, questID int64, address string) ([]models.UserTask, error) {
	tasks, err := s.FindTasksByQuest(ctx, questID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	userTasks := make([]models.UserTask, 0, len(tasks))
	for i := range tasks {
		_, completed := s.completions[completionKey{tasks[i].ID, address}]
		userTasks = append(userTasks, models.NewUserTask(&tasks[i], completed))
	}
	return userTasks, nil
}

func (s *Store) GetCompletedQuests(ctx context.Context, address string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	remaining := make(map[int64]int)
	for _, task := range s.tasks {
		if _, seen := remaining[task.QuestID]; !seen {
			remaining[task.QuestID] = 0
		}
		if _, done := s.completions[completionKey{task.ID, address}]; !done {
			remaining[task.QuestID]++
		}
	}

	questIDs := make([]int64, 0)
	for questID, missing := range remaining {
		if missing == 0 {
			questIDs = append(questIDs, questID)
		}
	}
	sort.Slice(questIDs, func(i, j int) bool { return questIDs[i] < questIDs[j] })
	return questIDs, nil
}
