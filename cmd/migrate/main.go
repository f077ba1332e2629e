package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/hiendaovinh/toolkit/pkg/db"
	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"questserver/internal/datastore"
	"questserver/internal/models"
	"questserver/internal/services"
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
	_, err := env.EnvsRequired("DB_DSN")
	if err != nil {
		log.Fatal(err)
	}

	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandImportTasks(),
			commandCreateQuest(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.Migrate(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name:        "migrate-config",
		Description: "Insert default configs to db",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			configs := []models.Config{
				{Key: services.CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE, Value: strconv.Itoa(services.DEFAULT_VERIFY_RATE_LIMIT_PER_MINUTE)},
				{Key: services.CONFIG_CRONJOB_TIME_QUEST_STATS, Value: services.DEFAULT_CRONJOB_TIME_QUEST_STATS},
			}

			for _, config := range configs {
				config := config
				err = datastore.InsertConfig(ctx, db, &config)
				if err != nil {
					log.Println(config.Key, err)
				}
			}

			fmt.Println("Migration success")
			return nil
		},
	}
}

// csv columns: quest_id, name, desc, cta, href, verify_endpoint, verify_endpoint_type, verify_redirect
func commandImportTasks() *cli.Command {
	return &cli.Command{
		Name: "import-tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "input",
				Value: "./tasks.csv",
			},
			&cli.BoolFlag{
				Name:  "header",
				Value: true,
				Usage: "skip the first row",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			file, err := os.Open(c.String("input"))
			if err != nil {
				return err
			}
			defer file.Close()

			r := csv.NewReader(file)
			r.FieldsPerRecord = 8

			var tasks []*models.Task
			for line := 1; ; line++ {
				row, err := r.Read()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				if line == 1 && c.Bool("header") {
					continue
				}

				task, err := taskFromRow(row)
				if err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				tasks = append(tasks, task)
			}

			// same lock as the api's task creation, so ids never race
			rs, err := getRedsync()
			if err != nil {
				return err
			}
			mutex := rs.NewMutex(services.LockKeyTaskCreate(), redsync.WithExpiry(time.Minute))
			err = mutex.LockContext(ctx)
			if err != nil {
				return fmt.Errorf("%w: %w", services.ErrTaskCreateLock, err)
			}
			defer func() {
				//nolint:errcheck
				mutex.UnlockContext(context.Background())
			}()

			// one transaction, so a bad row leaves no partial import behind
			err = db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
				lastID, err := datastore.GetLastTaskID(ctx, tx)
				if err != nil {
					return err
				}

				for _, task := range tasks {
					lastID++
					task.ID = lastID
					err = datastore.CreateTask(ctx, tx, task)
					if err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			log.Println("imported", len(tasks), "tasks")
			return nil
		},
	}
}

func commandCreateQuest() *cli.Command {
	return &cli.Command{
		Name: "create-quest",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Required: true},
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "desc"},
			&cli.StringFlag{Name: "issuer"},
			&cli.StringFlag{Name: "category"},
			&cli.StringFlag{Name: "logo"},
			&cli.BoolFlag{Name: "hidden"},
			&cli.TimestampFlag{Name: "expiry", Layout: time.RFC3339},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			quest := &models.Quest{
				ID:       c.Int64("id"),
				Name:     c.String("name"),
				Desc:     c.String("desc"),
				Issuer:   c.String("issuer"),
				Category: c.String("category"),
				Logo:     c.String("logo"),
				Hidden:   c.Bool("hidden"),
				Expiry:   c.Timestamp("expiry"),
			}

			err = datastore.CreateQuest(ctx, db, quest)
			if err != nil {
				return err
			}

			log.Println("created quest", quest.ID)
			return nil
		},
	}
}

func taskFromRow(row []string) (*models.Task, error) {
	questID, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil || questID <= 0 {
		return nil, fmt.Errorf("invalid quest_id %q", row[0])
	}
	if row[1] == "" {
		return nil, errors.New("name is required")
	}

	task := &models.Task{
		QuestID:            questID,
		Name:               row[1],
		Desc:               row[2],
		Cta:                row[3],
		Href:               row[4],
		VerifyEndpoint:     row[5],
		VerifyEndpointType: row[6],
	}
	if row[7] != "" {
		redirect := row[7]
		task.VerifyRedirect = &redirect
	}
	return task, nil
}

func getRedsync() (*redsync.Redsync, error) {
	var client redis.UniversalClient
	if clusterRedisURL := os.Getenv("CLUSTER_REDIS_MUTEX"); clusterRedisURL != "" {
		clusterOpts, err := redis.ParseClusterURL(clusterRedisURL)
		if err != nil {
			return nil, err
		}
		client = redis.NewClusterClient(clusterOpts)
	} else {
		redisClient, err := db.InitRedis(&db.RedisConfig{
			URL: os.Getenv("REDIS_MUTEX"),
		})
		if err != nil {
			return nil, err
		}
		client = redisClient
	}

	return redsync.New(goredis.NewPool(client)), nil
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	db := bun.NewDB(sqldb, pgdialect.New())
	return db, nil
}
