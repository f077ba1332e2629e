package services

import (
	"context"
	"fmt"
	"strconv"

	"questserver/internal/datastore"
	"questserver/internal/models"
	"questserver/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceConfig struct {
	container          *do.Injector
	postgresDB         *bun.DB
	readonlyPostgresDB *bun.DB
	cache              caching.Cache
	readonlyCache      caching.ReadOnlyCache
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
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

	return &ServiceConfig{container, postgresDB, readonlyPostgresDB, cache, readOnlyCache}, nil
}

func (service *ServiceConfig) GetStringConfig(ctx context.Context, key string, defaultValue string) (string, error) {
	callback := func() (string, error) {
		config, err := datastore.GetConfigByKey(ctx, service.readonlyPostgresDB, key)
		if err != nil {
			return defaultValue, err
		}
		return config.Value, nil
	}

	value, err := caching.UseCacheWithRO(ctx, service.readonlyCache, service.cache, DBKeyConfig(key), CACHE_TTL_5_MINS, callback)
	if err != nil {
		return defaultValue, err
	}

	return value, nil
}

func (service *ServiceConfig) GetIntConfig(ctx context.Context, key string, defaultValue int) (int, error) {
	value, err := service.GetStringConfig(ctx, key, strconv.Itoa(defaultValue))
	if err != nil {
		return defaultValue, err
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, err
	}

	return intValue, nil
}

// SetConfig upserts a runtime setting. Only known keys with a well-formed value are accepted.
func (service *ServiceConfig) SetConfig(ctx context.Context, key string, value string) error {
	err := validateConfig(key, value)
	if err != nil {
		return err
	}

	err = datastore.SetConfig(ctx, service.postgresDB, &models.Config{Key: key, Value: value})
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	caching.Invalidate(ctx, service.cache, DBKeyConfig(key))
	return nil
}

func validateConfig(key string, value string) error {
	switch key {
	case CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE:
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			return errorx.Wrap(fmt.Errorf("invalid %s %q", key, value), errorx.Validation)
		}
	case CONFIG_CRONJOB_TIME_QUEST_STATS:
		_, err := cron.ParseStandard(value)
		if err != nil {
			return errorx.Wrap(fmt.Errorf("invalid %s %q: %w", key, value, err), errorx.Validation)
		}
	default:
		return errorx.Wrap(fmt.Errorf("unknown config %q", key), errorx.Invalid)
	}
	return nil
}
