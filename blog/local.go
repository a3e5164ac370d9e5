package blog

import (
	"context"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/store"
)

// LocalBackend keeps posts in the store's posts snapshot, newest first.
// Attachments are stored inline as data URIs.
type LocalBackend struct {
	store *store.Store
}

func NewLocalBackend(st *store.Store) *LocalBackend {
	return &LocalBackend{store: st}
}

func (b *LocalBackend) List(ctx context.Context) ([]models.Post, error) {
	return b.store.LoadPosts(ctx), nil
}

func (b *LocalBackend) Get(ctx context.Context, id string) (*models.Post, error) {
	posts := b.store.LoadPosts(ctx)
	i := models.FindPost(posts, id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	return &posts[i], nil
}

func (b *LocalBackend) Create(ctx context.Context, post models.Post, media Media) (models.Post, error) {
	if media.Image != nil {
		post.Image = media.Image.DataURI()
	}
	if media.Video != nil {
		post.Video = media.Video.DataURI()
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		return append([]models.Post{post}, posts...), nil
	})
	if err != nil {
		return models.Post{}, StorageError(err)
	}
	return post, nil
}

func (b *LocalBackend) Like(ctx context.Context, id string) (int, error) {
	likes := 0
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := models.FindPost(posts, id)
		if i < 0 {
			return nil, ErrPostNotFound
		}
		posts[i].Likes++
		likes = posts[i].Likes
		return posts, nil
	})
	if err != nil {
		return 0, StorageError(err)
	}
	return likes, nil
}

func (b *LocalBackend) AddComment(ctx context.Context, postID string, c models.Comment) (models.Comment, error) {
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := models.FindPost(posts, postID)
		if i < 0 {
			return nil, ErrPostNotFound
		}
		posts[i].Comments = append(posts[i].Comments, c)
		return posts, nil
	})
	if err != nil {
		return models.Comment{}, StorageError(err)
	}
	return c, nil
}

func (b *LocalBackend) DeleteComment(ctx context.Context, postID, commentID string) error {
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := models.FindPost(posts, postID)
		if i < 0 {
			return nil, store.ErrNoChange
		}
		j := posts[i].FindComment(commentID)
		if j < 0 {
			return nil, store.ErrNoChange
		}
		comments := posts[i].Comments
		posts[i].Comments = append(comments[:j:j], comments[j+1:]...)
		return posts, nil
	})
	return StorageError(err)
}

func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := models.FindPost(posts, id)
		if i < 0 {
			return nil, store.ErrNoChange
		}
		return append(posts[:i:i], posts[i+1:]...), nil
	})
	return StorageError(err)
}

func (b *LocalBackend) Edit(ctx context.Context, id string, edit PostEdit) (models.Post, error) {
	var out models.Post
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		i := models.FindPost(posts, id)
		if i < 0 {
			return nil, ErrPostNotFound
		}
		p := &posts[i]
		p.Title = edit.Title
		p.Content = edit.Content
		switch {
		case edit.Media.Image != nil:
			p.Image = edit.Media.Image.DataURI()
		case edit.RemoveImage:
			p.Image = ""
		}
		switch {
		case edit.Media.Video != nil:
			p.Video = edit.Media.Video.DataURI()
		case edit.RemoveVideo:
			p.Video = ""
		}
		at := edit.At
		p.UpdatedAt = &at
		out = *p
		return posts, nil
	})
	if err != nil {
		return models.Post{}, StorageError(err)
	}
	return out, nil
}

func (b *LocalBackend) Clear(ctx context.Context) error {
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		if len(posts) == 0 {
			return nil, store.ErrNoChange
		}
		return []models.Post{}, nil
	})
	return StorageError(err)
}

func (b *LocalBackend) DeleteByAuthor(ctx context.Context, username string) error {
	_, err := b.store.UpdatePosts(ctx, func(posts []models.Post) ([]models.Post, error) {
		kept := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if p.AuthorUsername != username {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(posts) {
			return nil, store.ErrNoChange
		}
		return kept, nil
	})
	return StorageError(err)
}
