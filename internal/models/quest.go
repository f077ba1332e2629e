package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Quest struct {
	bun.BaseModel `bun:"table:quests,alias:q"`
	ID            int64      `bun:"id,pk" json:"id"`
	Name          string     `bun:"name" json:"name"`
	Desc          string     `bun:"desc" json:"desc"`
	Issuer        string     `bun:"issuer" json:"issuer"`
	Category      string     `bun:"category" json:"category"`
	Logo          string     `bun:"logo" json:"logo"`
	RewardsTitle  string     `bun:"rewards_title" json:"rewards_title"`
	RewardsImg    string     `bun:"rewards_img" json:"rewards_img"`
	ImgCard       string     `bun:"img_card" json:"img_card"`
	TitleCard     string     `bun:"title_card" json:"title_card"`
	Hidden        bool       `bun:"hidden,notnull,default:false" json:"hidden"`
	Disabled      bool       `bun:"disabled,notnull,default:false" json:"disabled"`
	Expiry        *time.Time `bun:"expiry" json:"expiry"`
}

func (quest *Quest) Expired(now time.Time) bool {
	return quest.Expiry != nil && now.After(*quest.Expiry)
}

// Visible reports whether the quest is listed publicly.
func (quest *Quest) Visible(now time.Time) bool {
	return !quest.Hidden && !quest.Disabled && !quest.Expired(now)
}

// QuestParticipants counts the addresses that completed every task of a quest.
type QuestParticipants struct {
	QuestID int64 `bun:"quest_id" json:"quest_id" msgpack:"quest_id"`
	Count   int64 `bun:"count" json:"count" msgpack:"count"`
}

type QuestStats struct {
	Participants []QuestParticipants `msgpack:"participants"`
	ComputedAt   time.Time           `msgpack:"computed_at"`
}
