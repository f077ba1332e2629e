package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrTaskCreateLock = errors.New("task create locked")

const (
	CONFIG_VERIFY_RATE_LIMIT_PER_MINUTE = "VERIFY_RATE_LIMIT_PER_MINUTE"
	CONFIG_CRONJOB_TIME_QUEST_STATS     = "CRONJOB_TIME_QUEST_STATS"

	SERVER_MODE_DEBUG      = "debug"
	SERVER_MODE_PRODUCTION = "production"

	DEFAULT_VERIFY_RATE_LIMIT_PER_MINUTE = 20
	DEFAULT_CRONJOB_TIME_QUEST_STATS     = "*/5 * * * *"
	DEFAULT_TOP_QUESTS_LIMIT             = 10
	MAX_TOP_QUESTS_LIMIT                 = 100

	CACHE_TTL_1_MIN  = 1 * time.Minute
	CACHE_TTL_5_MINS = 5 * time.Minute

	TWITTER_RW_VERIFY_ENDPOINT = "quests/verify_twitter_rw"
	TWITTER_RW_CTA             = "Retweet"

	CODE_EXTERNAL_CHECK_FAILED = "external_check_failed"
	CODE_STORE_UNAVAILABLE     = "store_unavailable"
)

func LockKeyTaskCreate() string {
	return "lock:task-create"
}

// db
func DBKeyTask(taskID int64) string {
	return fmt.Sprintf("task:%d", taskID)
}

func DBKeyQuest(questID int64) string {
	return fmt.Sprintf("quest:%d", questID)
}

func DBKeyQuests() string {
	return "quests:visible"
}

func DBKeyQuestParticipants(questID int64) string {
	return fmt.Sprintf("quest:%d:participants", questID)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func LimitKeyVerify(address string) string {
	return fmt.Sprintf("limit:verify:%s", address)
}
