package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
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
	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}
			redis, err := getRedis()
			if err != nil {
				return err
			}

			cronRunner := cron.New()

			questStatsJob := NewQuestStatsJob(redis, db)
			err = questStatsJob.Start(cronRunner)
			if err != nil {
				return err
			}
			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	dsn := os.Getenv("DB_DSN_READONLY")
	password := os.Getenv("DB_PASSWORD_READONLY")
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
		password = os.Getenv("DB_PASSWORD")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithPassword(password),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}

func getRedis() (redis.UniversalClient, error) {
	clusterRedisURL := os.Getenv("CLUSTER_REDIS_DB")
	if clusterRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisURL)
		if err != nil {
			return nil, err
		}
		return redis.NewClusterClient(clusterOpts), nil
	}

	return db.InitRedis(&db.RedisConfig{
		URL: os.Getenv("REDIS_DB"),
	})
}
