package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"questserver/internal/api/handler"
	"questserver/internal/datastore"
	"questserver/internal/interfaces"
	"questserver/internal/pkg/caching"
	"questserver/internal/pkg/limiter"
	"questserver/internal/services"
	"questserver/internal/verification"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	vs, err := env.EnvsRequired(
		"DB_DSN",
	)
	if err != nil {
		log.Fatal(err)
	}

	container := NewContainer(vs)

	app := &cli.App{
		Name: "api",
		Commands: []*cli.Command{
			commandServer(container),
			commandVerifiers(container),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandServer(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "start the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: "0.0.0.0:8080",
				Usage: "serve address",
			},
		},
		Action: func(c *cli.Context) error {
			vs := do.MustInvokeNamed[map[string]string](container, "envs")
			router, err := handler.New(&handler.Config{
				Container: container,
				Mode:      vs["API_MODE"],
				Origins:   strings.Split(vs["API_ORIGINS"], ","),
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:    c.String("addr"),
				Handler: router,
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errWg, errCtx := errgroup.WithContext(ctx)

			errWg.Go(func() error {
				log.Printf("ListenAndServe: %s (%s)\n", c.String("addr"), vs["API_MODE"])
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})

			errWg.Go(func() error {
				<-errCtx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return errWg.Wait()
		},
	}
}

func commandVerifiers(container *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "verifiers",
		Usage: "list the registered verification types",
		Action: func(c *cli.Context) error {
			registry, err := do.Invoke[*verification.Registry](container)
			if err != nil {
				return err
			}

			for _, verifyType := range registry.Types() {
				fmt.Println(verifyType)
			}
			return nil
		},
	}
}

func NewContainer(vs map[string]string) *do.Injector {
	injector := do.New()
	for _, key := range []string{
		"API_MODE",
		"API_ORIGINS",
		"SCORE_API_URL",
		"NAMING_API_URL",
		"TON_LITESERVER",
		"VERIFY_TIMEOUT",
		services.CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE,
	} {
		vs[key] = os.Getenv(key)
	}

	if vs["API_MODE"] == "" {
		vs["API_MODE"] = services.SERVER_MODE_PRODUCTION
	}
	if vs["API_ORIGINS"] == "" {
		vs["API_ORIGINS"] = "*"
	}

	do.ProvideNamedValue(injector, "envs", vs)

	do.Provide(injector, func(i *do.Injector) (*bun.DB, error) {
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "db-readonly", func(i *do.Injector) (*bun.DB, error) {
		if os.Getenv("DB_DSN_READONLY") == "" {
			return do.Invoke[*bun.DB](i)
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithDSN(os.Getenv("DB_DSN_READONLY")),
			pgdriver.WithPassword(os.Getenv("DB_PASSWORD_READONLY")),
		))

		db := bun.NewDB(sqldb, pgdialect.New())
		return db, nil
	})

	do.ProvideNamed(injector, "redis-db", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_DB", "REDIS_DB")
	})

	do.ProvideNamed(injector, "redis-cache", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_CACHE", "REDIS_CACHE")
	})

	do.ProvideNamed(injector, "redis-cache-readonly", func(i *do.Injector) (redis.UniversalClient, error) {
		var clusterOpts *redis.ClusterOptions
		var err error
		clusterCacheRedisReadOnlyURL := os.Getenv("CLUSTER_REDIS_CACHE_READONLY")
		if clusterCacheRedisReadOnlyURL != "" {
			clusterOpts, err = redis.ParseClusterURL(clusterCacheRedisReadOnlyURL)
		} else if clusterCacheRedisURL := os.Getenv("CLUSTER_REDIS_CACHE"); clusterCacheRedisURL != "" {
			clusterOpts, err = redis.ParseClusterURL(clusterCacheRedisURL)
		}

		if err != nil {
			return nil, err
		}
		if clusterOpts != nil {
			clusterOpts.ReadOnly = true
			return redis.NewClusterClient(clusterOpts), nil
		}

		if os.Getenv("REDIS_CACHE_READONLY") == "" {
			return do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		}
		return db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_CACHE_READONLY"),
		})
	})

	do.ProvideNamed(injector, "redis-limiter", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_LIMITER", "REDIS_LIMITER")
	})

	do.ProvideNamed(injector, "redis-mutex", func(i *do.Injector) (redis.UniversalClient, error) {
		return newRedis("CLUSTER_REDIS_MUTEX", "REDIS_MUTEX")
	})

	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (caching.ReadOnlyCache, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-cache-readonly")
		if err != nil {
			return nil, err
		}

		return caching.NewCacheRedis(dbRedis, false)
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.Limiter, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-limiter")
		if err != nil {
			return nil, err
		}

		return limiter.NewLimiter(dbRedis)
	})

	do.Provide(injector, func(i *do.Injector) (*redsync.Redsync, error) {
		dbRedis, err := do.InvokeNamed[redis.UniversalClient](i, "redis-mutex")
		if err != nil {
			return nil, err
		}

		pool := goredis.NewPool(dbRedis)
		rs := redsync.New(pool)
		return rs, nil
	})

	do.Provide(injector, func(i *do.Injector) (interfaces.TaskRepository, error) {
		postgresDB, err := do.Invoke[*bun.DB](i)
		if err != nil {
			return nil, err
		}

		return datastore.NewTaskRepository(postgresDB), nil
	})

	do.Provide(injector, func(i *do.Injector) (*verification.Registry, error) {
		repo, err := do.Invoke[interfaces.TaskRepository](i)
		if err != nil {
			return nil, err
		}

		timeout, err := time.ParseDuration(vs["VERIFY_TIMEOUT"])
		if err != nil {
			timeout = verification.DefaultCheckTimeout
		}

		opts := verification.Options{
			HTTPClient:    verification.NewHTTPClient(timeout/2, 1),
			ScoreBaseURL:  vs["SCORE_API_URL"],
			NamingBaseURL: vs["NAMING_API_URL"],
		}

		switch vs["TON_LITESERVER"] {
		case "mainnet":
			client, err := liteapi.NewClientWithDefaultMainnet()
			if err != nil {
				return nil, err
			}
			opts.TonSource = &verification.LiteapiBalanceSource{Client: client}
		case "testnet":
			client, err := liteapi.NewClientWithDefaultTestnet()
			if err != nil {
				return nil, err
			}
			opts.TonSource = &verification.LiteapiBalanceSource{Client: client}
		}

		registry := verification.NewRegistry(repo, timeout)
		err = verification.RegisterDefaults(registry, opts)
		if err != nil {
			return nil, err
		}

		log.Println("verification types:", strings.Join(registry.Types(), ","))
		return registry, nil
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceConfig, error) {
		return services.NewServiceConfig(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceTask, error) {
		return services.NewServiceTask(injector)
	})

	do.Provide(injector, func(i *do.Injector) (*services.ServiceQuest, error) {
		return services.NewServiceQuest(injector)
	})

	return injector
}

func newRedis(clusterKey string, key string) (redis.UniversalClient, error) {
	clusterRedisURL := os.Getenv(clusterKey)
	if clusterRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv(key),
	})
}
