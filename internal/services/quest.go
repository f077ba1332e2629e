package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"questserver/internal/datastore"
	"questserver/internal/datastore/redis_store"
	"questserver/internal/models"
	"questserver/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceQuest struct {
	container          *do.Injector
	redisDB            redis.UniversalClient
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceQuest(container *do.Injector) (*ServiceQuest, error) {
	db, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	readonlyPostgresDB, err := do.InvokeNamed[*bun.DB](container, "db-readonly")
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

	return &ServiceQuest{container, db, readonlyPostgresDB, cache, readOnlyCache}, nil
}

func (service *ServiceQuest) GetQuest(ctx context.Context, questID int64) (*models.Quest, error) {
	if questID <= 0 {
		return nil, errorx.Wrap(errors.New("invalid id"), errorx.Invalid)
	}

	callback := func() (*models.Quest, error) {
		return datastore.GetQuest(ctx, service.readonlyPostgresDB, questID)
	}

	quest, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyQuest(questID), CACHE_TTL_5_MINS, callback)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errorx.Wrap(errors.New("quest not found"), errorx.NotExist)
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return quest, nil
}

// GetQuests lists the quests that are neither hidden, disabled nor expired.
func (service *ServiceQuest) GetQuests(ctx context.Context) ([]models.Quest, error) {
	callback := func() ([]models.Quest, error) {
		return datastore.GetVisibleQuests(ctx, service.readonlyPostgresDB, time.Now())
	}

	quests, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyQuests(), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	// the cached list may outlive an expiry
	now := time.Now()
	visible := make([]models.Quest, 0, len(quests))
	for i := range quests {
		if quests[i].Visible(now) {
			visible = append(visible, quests[i])
		}
	}

	return visible, nil
}

// GetQuestParticipants reads the count from the last stats snapshot and counts live when the quest
// is not part of it.
func (service *ServiceQuest) GetQuestParticipants(ctx context.Context, questID int64) (*models.QuestParticipants, error) {
	if questID <= 0 {
		return nil, errorx.Wrap(errors.New("invalid quest_id"), errorx.Invalid)
	}

	count, err := redis_store.GetQuestParticipantCount(ctx, service.redisDB, questID)
	if err == nil {
		return &models.QuestParticipants{QuestID: questID, Count: count}, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	callback := func() (int64, error) {
		return datastore.CountQuestParticipants(ctx, service.readonlyPostgresDB, questID)
	}

	count, err = caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyQuestParticipants(questID), CACHE_TTL_1_MIN, callback)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return &models.QuestParticipants{QuestID: questID, Count: count}, nil
}

func (service *ServiceQuest) GetTopQuests(ctx context.Context, limit int) ([]models.QuestParticipants, error) {
	if limit <= 0 {
		limit = DEFAULT_TOP_QUESTS_LIMIT
	}
	if limit > MAX_TOP_QUESTS_LIMIT {
		limit = MAX_TOP_QUESTS_LIMIT
	}

	top, err := redis_store.GetTopQuests(ctx, service.redisDB, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return top, nil
}
