package main

import (
	"context"
	"log"
	"time"

	"questserver/internal/datastore"
	"questserver/internal/datastore/redis_store"
	"questserver/internal/models"
	"questserver/internal/services"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
)

type QuestStatsJob struct {
	Redis redis.UniversalClient
	Db    *bun.DB
}

func NewQuestStatsJob(redis redis.UniversalClient, db *bun.DB) *QuestStatsJob {
	return &QuestStatsJob{
		Redis: redis,
		Db:    db,
	}
}

func (j *QuestStatsJob) Start(cronRunner *cron.Cron) error {
	timeline := services.DEFAULT_CRONJOB_TIME_QUEST_STATS
	config, err := datastore.GetConfigByKey(context.Background(), j.Db, services.CONFIG_CRONJOB_TIME_QUEST_STATS)
	if err != nil {
		log.Println("quest stats: no schedule configured, using", timeline, err)
	} else if config.Value != "" {
		timeline = config.Value
	}

	_, err = cronRunner.AddFunc(timeline, j.runScheduledTask)
	if err != nil {
		return err
	}
	log.Println("Quest stats cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", timeline)

	previous, err := redis_store.GetQuestStats(context.Background(), j.Redis)
	if err == nil {
		log.Println("quest stats: previous snapshot computed at", previous.ComputedAt.Format(time.RFC3339))
	}

	// serve a fresh snapshot right away instead of waiting for the first tick
	j.runScheduledTask()
	return nil
}

func (j *QuestStatsJob) runScheduledTask() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	participants, err := datastore.GetQuestParticipants(ctx, j.Db)
	if err != nil {
		log.Println("quest stats:", err)
		return
	}

	err = redis_store.SetQuestStats(ctx, j.Redis, &models.QuestStats{
		Participants: participants,
		ComputedAt:   time.Now(),
	})
	if err != nil {
		log.Println("quest stats:", err)
		return
	}
	log.Println("quest stats updated for", len(participants), "quests")
}
