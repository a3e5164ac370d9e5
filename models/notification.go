package models

import "time"

const (
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// Notification tells a post author that someone else interacted with a post.
type Notification struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	TargetUser string    `json:"target_user"`
	Actor      string    `json:"actor"`
	PostID     string    `json:"post_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
}
