package models

import "time"

// Post represents a blog post. It is owned by the post snapshot and only
// changed through the mutation handlers.
type Post struct {
	ID             string     `json:"id"`
	AuthorUsername string     `json:"author_username"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Image          string     `json:"image,omitempty"` // data URI or server-hosted path
	Video          string     `json:"video,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	Likes          int        `json:"likes"`
	Comments       []Comment  `json:"comments"`
}

// FindComment returns the index of the comment with the given id, or -1.
func (p *Post) FindComment(id string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return i
		}
	}
	return -1
}

// FindPost returns the index of the post with the given id, or -1.
func FindPost(posts []Post, id string) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

// OwnedBy reports whether username wrote the post. The empty username owns nothing.
func (p *Post) OwnedBy(username string) bool {
	return username != "" && p.AuthorUsername == username
}

// CanDeleteComment reports whether username may remove c: its author or the post's author.
func (p *Post) CanDeleteComment(username string, c Comment) bool {
	return username != "" && (username == c.AuthorUsername || username == p.AuthorUsername)
}
