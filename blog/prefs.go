package blog

import (
	"context"
	"strings"

	"github.com/cppla/miniblog/models"
)

// Theme returns the theme of context sid, light by default.
func (a *App) Theme(ctx context.Context, sid string) string {
	return a.store.LoadTheme(ctx, sid)
}

func (a *App) SetTheme(ctx context.Context, sid, theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if !models.ValidTheme(theme) {
		return ErrInvalidTheme
	}
	return StorageError(a.store.SaveTheme(ctx, sid, theme))
}

// ToggleTheme flips between light and dark and returns the new theme.
func (a *App) ToggleTheme(ctx context.Context, sid string) (string, error) {
	next := models.ThemeDark
	if a.Theme(ctx, sid) == models.ThemeDark {
		next = models.ThemeLight
	}
	return next, a.SetTheme(ctx, sid, next)
}

func (a *App) Draft(ctx context.Context, sid string) *models.Draft {
	return a.store.LoadDraft(ctx, sid)
}

// SaveDraft keeps the unsent post form. An empty form clears the draft.
func (a *App) SaveDraft(ctx context.Context, sid, title, content string) error {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return a.ClearDraft(ctx, sid)
	}
	return StorageError(a.store.SaveDraft(ctx, sid, models.Draft{
		Title:     title,
		Content:   content,
		UpdatedAt: a.now(),
	}))
}

func (a *App) ClearDraft(ctx context.Context, sid string) error {
	return StorageError(a.store.ClearDraft(ctx, sid))
}

// MarkForEdit remembers which post the edit view should open.
func (a *App) MarkForEdit(ctx context.Context, sid, postID string) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	post, err := a.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if !post.OwnedBy(sess.Username) {
		return ErrForbidden
	}
	return StorageError(a.store.SaveEditTarget(ctx, sid, postID))
}

// EditTarget returns the post marked for editing, or nil. A marker that
// points at a deleted post is dropped.
func (a *App) EditTarget(ctx context.Context, sid string) (*models.Post, error) {
	id := a.store.LoadEditTarget(ctx, sid)
	if id == "" {
		return nil, nil
	}
	post, err := a.posts.Get(ctx, id)
	if KindOf(err) == KindNotFound {
		return nil, StorageError(a.store.ClearEditTarget(ctx, sid))
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// TakeEditTarget returns the marked post and clears the marker.
func (a *App) TakeEditTarget(ctx context.Context, sid string) (*models.Post, error) {
	post, err := a.EditTarget(ctx, sid)
	if err != nil || post == nil {
		return post, err
	}
	return post, StorageError(a.store.ClearEditTarget(ctx, sid))
}
