package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      time.Time `json:"created_at"`
}
