package redis_store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"questserver/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyQuestStats() string {
	return "quest:stats"
}

func dbKeyQuestParticipants() string {
	return "quest:participants"
}

// SetQuestStats replaces the participant snapshot. The blob keeps the computation time, the sorted
// set answers single-quest lookups.
func SetQuestStats(ctx context.Context, cmd redis.Cmdable, v *models.QuestStats) error {
	if v == nil {
		return errors.New("invalid quest stats")
	}

	b, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}

	_, err = cmd.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, dbKeyQuestStats(), b, 0)
		pipe.Del(ctx, dbKeyQuestParticipants())
		for _, item := range v.Participants {
			pipe.ZAdd(ctx, dbKeyQuestParticipants(), redis.Z{
				Score:  float64(item.Count),
				Member: item.QuestID,
			})
		}
		return nil
	})
	return err
}

// GetQuestStats returns redis.Nil when no snapshot was written yet.
func GetQuestStats(ctx context.Context, cmd redis.Cmdable) (*models.QuestStats, error) {
	b, err := cmd.Get(ctx, dbKeyQuestStats()).Bytes()
	if err != nil {
		return nil, err
	}

	var v models.QuestStats
	err = msgpack.Unmarshal(b, &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetQuestParticipantCount returns redis.Nil when the quest is not part of the snapshot.
func GetQuestParticipantCount(ctx context.Context, cmd redis.Cmdable, questID int64) (int64, error) {
	score, err := cmd.ZScore(ctx, dbKeyQuestParticipants(), strconv.FormatInt(questID, 10)).Result()
	if err != nil {
		return 0, err
	}
	return int64(score), nil
}

// GetTopQuests lists the num quests with the most participants, highest first.
func GetTopQuests(ctx context.Context, cmd redis.Cmdable, num int) ([]models.QuestParticipants, error) {
	if num <= 0 {
		return nil, fmt.Errorf("invalid limit %d", num)
	}

	items, err := cmd.ZRevRangeWithScores(ctx, dbKeyQuestParticipants(), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]models.QuestParticipants, 0, len(items))
	for _, item := range items {
		id, err := strconv.ParseInt(item.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		results = append(results, models.QuestParticipants{
			QuestID: id,
			Count:   int64(item.Score),
		})
	}
	return results, nil
}
