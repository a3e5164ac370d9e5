package blog

import (
	"context"
	"time"

	"github.com/cppla/miniblog/models"
)

// Media is the encoded attachment set of a post.
type Media struct {
	Image *Attachment
	Video *Attachment
}

// PostEdit describes an in-place edit. Media fields are kept unless a
// replacement is given or the matching Remove flag is set.
type PostEdit struct {
	Title       string
	Content     string
	Media       Media
	RemoveImage bool
	RemoveVideo bool
	At          time.Time
}

// PostBackend persists posts. Authorization and validation happen in App
// before a backend is called; backends only store.
type PostBackend interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post models.Post, media Media) (models.Post, error)
	Like(ctx context.Context, id string) (int, error)
	AddComment(ctx context.Context, postID string, c models.Comment) (models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
	Delete(ctx context.Context, id string) error
	Edit(ctx context.Context, id string, edit PostEdit) (models.Post, error)
	Clear(ctx context.Context) error
	DeleteByAuthor(ctx context.Context, username string) error
}
