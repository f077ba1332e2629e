package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"questserver/internal/interfaces"
	"questserver/internal/models"
	"questserver/internal/pkg/address"
	"questserver/internal/pkg/caching"
	"questserver/internal/pkg/limiter"
	"questserver/internal/verification"

	"github.com/go-redis/redis_rate/v10"
	"github.com/go-redsync/redsync/v4"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
)

type ServiceTask struct {
	container     *do.Injector
	repo          interfaces.TaskRepository
	cache         caching.Cache
	readonlyCache caching.ReadOnlyCache
	limiter       interfaces.Limiter
	rs            *redsync.Redsync
	registry      *verification.Registry
	config        *ServiceConfig

	verifyRateLimit int
}

func NewServiceTask(container *do.Injector) (*ServiceTask, error) {
	repo, err := do.Invoke[interfaces.TaskRepository](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	readOnlyCache, err := do.Invoke[caching.ReadOnlyCache](container)
	if err != nil {
		return nil, err
	}

	rateLimiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	rs, err := do.Invoke[*redsync.Redsync](container)
	if err != nil {
		return nil, err
	}

	registry, err := do.Invoke[*verification.Registry](container)
	if err != nil {
		return nil, err
	}

	vs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	rateLimit := DEFAULT_VERIFY_RATE_LIMIT_PER_MINUTE
	if v, err := strconv.Atoi(vs[CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE]); err == nil && v > 0 {
		rateLimit = v
	}

	// optional, the config table only overrides the env default
	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		config = nil
	}

	return &ServiceTask{container, repo, cache, readOnlyCache, rateLimiter, rs, registry, config, rateLimit}, nil
}

func (service *ServiceTask) verifyLimit(ctx context.Context) redis_rate.Limit {
	limit := service.verifyRateLimit
	if service.config != nil {
		v, err := service.config.GetIntConfig(ctx, CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE, limit)
		if err == nil && v > 0 {
			limit = v
		}
	}
	return redis_rate.PerMinute(limit)
}

// GetUserTasks lists the quest's tasks ordered by id, each flagged with whether addr completed it.
// A quest without tasks yields an empty, non-nil slice.
func (service *ServiceTask) GetUserTasks(ctx context.Context, questID int64, addr string) ([]models.UserTask, error) {
	if questID <= 0 {
		return nil, errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid)
	}

	addr, err := address.Normalize(addr)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Validation)
	}

	tasks, err := service.repo.GetUserTasks(ctx, questID, addr)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if tasks == nil {
		tasks = []models.UserTask{}
	}

	return tasks, nil
}

// GetCompletedQuests lists the quests for which addr holds a completion record on every task.
func (service *ServiceTask) GetCompletedQuests(ctx context.Context, addr string) ([]int64, error) {
	addr, err := address.Normalize(addr)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Validation)
	}

	questIDs, err := service.repo.GetCompletedQuests(ctx, addr)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if questIDs == nil {
		questIDs = []int64{}
	}

	return questIDs, nil
}

func (service *ServiceTask) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	callback := func() (*models.Task, error) {
		return service.repo.FindTask(ctx, taskID)
	}

	task, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyTask(taskID), CACHE_TTL_5_MINS, callback)
	if err != nil {
		if errors.Is(err, interfaces.ErrTaskNotFound) {
			return nil, errorx.Wrap(err, errorx.NotExist)
		}
		return nil, err
	}

	return task, nil
}

// VerifyTask runs the task's verification strategy for addr and records the completion on success.
//
// ExternalCheckError and ErrStoreUnavailable are returned unwrapped so callers can answer with a
// neutral result and an error code. Every other failure carries an errorx kind.
func (service *ServiceTask) VerifyTask(ctx context.Context, taskID int64, addr string) (*models.VerifyResult, error) {
	task, addr, err := service.loadVerification(ctx, taskID, addr)
	if err != nil {
		return nil, err
	}

	return service.verify(ctx, task, addr)
}

// VerifyTaskAt is VerifyTask for the per-task route: the task must declare endpoint as its
// verify_endpoint.
func (service *ServiceTask) VerifyTaskAt(ctx context.Context, endpoint string, taskID int64, addr string) (*models.VerifyResult, error) {
	task, addr, err := service.loadVerification(ctx, taskID, addr)
	if err != nil {
		return nil, err
	}
	if strings.Trim(task.VerifyEndpoint, "/") != strings.Trim(endpoint, "/") {
		return nil, errorx.Wrap(errors.New("task does not use this endpoint"), errorx.Invalid)
	}

	return service.verify(ctx, task, addr)
}

func (service *ServiceTask) loadVerification(ctx context.Context, taskID int64, addr string) (*models.Task, string, error) {
	if taskID <= 0 {
		return nil, "", errorx.Wrap(errors.New("invalid task_id"), errorx.Invalid)
	}

	addr, err := address.Normalize(addr)
	if err != nil {
		return nil, "", errorx.Wrap(err, errorx.Validation)
	}

	task, err := service.GetTask(ctx, taskID)
	if err != nil {
		return nil, "", err
	}

	return task, addr, nil
}

func (service *ServiceTask) verify(ctx context.Context, task *models.Task, addr string) (*models.VerifyResult, error) {
	err := service.limiter.Allow(ctx, LimitKeyVerify(addr), service.verifyLimit(ctx))
	if err != nil {
		if errors.Is(err, limiter.ErrRateLimited) {
			return nil, errorx.Wrap(err, errorx.RateLimiting)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	decision, err := service.registry.Verify(ctx, task, addr)
	switch {
	case err == nil:
	case verification.IsExternalCheckFailed(err), errors.Is(err, interfaces.ErrStoreUnavailable):
		log.Println("verify task", task.ID, addr, err)
		return nil, err
	case errors.Is(err, verification.ErrMissingVerificationType), errors.Is(err, verification.ErrUnsupportedVerificationType):
		return nil, errorx.Wrap(err, errorx.Invalid)
	case errors.Is(err, verification.ErrInvalidAddress):
		return nil, errorx.Wrap(err, errorx.Validation)
	default:
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return &models.VerifyResult{Verified: decision == verification.Verified}, nil
}

// CreateTask assigns the next free id under a distributed lock. Unset optional fields stay empty.
func (service *ServiceTask) CreateTask(ctx context.Context, req *models.CreateTaskRequest) (*models.Task, error) {
	if req.QuestID <= 0 {
		return nil, errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid)
	}
	if req.Name == "" {
		return nil, errorx.Wrap(errors.New("name is required"), errorx.Validation)
	}

	task := &models.Task{
		QuestID:            req.QuestID,
		Name:               req.Name,
		Desc:               req.Desc,
		Cta:                req.Cta,
		Href:               req.Href,
		VerifyEndpoint:     req.VerifyEndpoint,
		VerifyEndpointType: req.VerifyEndpointType,
		VerifyRedirect:     req.VerifyRedirect,
		TaskType:           req.TaskType,
		DiscordGuildID:     req.DiscordGuildID,
		QuizName:           req.QuizName,
	}

	err := service.insertTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// CreateTwitterRwTask creates a retweet task whose verification is the redirect back from the post.
func (service *ServiceTask) CreateTwitterRwTask(ctx context.Context, req *models.CreateTwitterRwRequest) (*models.Task, error) {
	if req.PostLink == "" {
		return nil, errorx.Wrap(errors.New("post_link is required"), errorx.Validation)
	}

	postLink := req.PostLink
	taskType := models.TaskTypeTwitterRw
	return service.CreateTask(ctx, &models.CreateTaskRequest{
		QuestID:            req.QuestID,
		Name:               req.Name,
		Desc:               req.Desc,
		Cta:                TWITTER_RW_CTA,
		Href:               postLink,
		VerifyEndpoint:     TWITTER_RW_VERIFY_ENDPOINT,
		VerifyEndpointType: models.VerifyEndpointTypeDefault,
		VerifyRedirect:     &postLink,
		TaskType:           &taskType,
	})
}

func (service *ServiceTask) insertTask(ctx context.Context, task *models.Task) error {
	mutex := service.rs.NewMutex(LockKeyTaskCreate())
	err := mutex.LockContext(ctx)
	if err != nil {
		return errorx.Wrap(fmt.Errorf("%w: %w", ErrTaskCreateLock, err), errorx.Service)
	}
	defer func() {
		//nolint:errcheck
		mutex.UnlockContext(context.Background())
	}()

	id, err := service.repo.NextTaskID(ctx)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	task.ID = id

	err = service.repo.InsertTask(ctx, task)
	if err != nil {
		// another writer took the id, the caller may retry
		if errors.Is(err, interfaces.ErrTaskExists) {
			return errorx.Wrap(err, errorx.Exist)
		}
		return errorx.Wrap(err, errorx.Service)
	}

	return nil
}

// UpdateTask writes the fields present in patch. An empty patch only checks that the task exists.
func (service *ServiceTask) UpdateTask(ctx context.Context, taskID int64, patch *models.TaskPatch) error {
	if taskID <= 0 {
		return errorx.Wrap(errors.New("invalid id"), errorx.Invalid)
	}
	if questID, ok := patch.QuestID.Get(); patch.QuestID.Set && (!ok || questID <= 0) {
		return errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid)
	}

	err := service.repo.UpdateTaskFields(ctx, taskID, patch)
	if err != nil {
		if errors.Is(err, interfaces.ErrTaskNotFound) {
			return errorx.Wrap(err, errorx.NotExist)
		}
		return errorx.Wrap(err, errorx.Service)
	}

	caching.Invalidate(ctx, service.cache, DBKeyTask(taskID))
	return nil
}
