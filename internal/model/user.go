package model

import "time"

const (
	TierFree = "free"
	TierPro  = "pro"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}
