package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Config struct {
	bun.BaseModel `bun:"table:config"`
	Key           string    `bun:"key,pk" json:"key"`
	Value         string    `bun:"value" json:"value"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

type UpdateConfigRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
