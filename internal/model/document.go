package model

import "time"

type Document struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	UploadDate time.Time `json:"upload_date"`
}
