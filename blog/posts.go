package blog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/views"
)

// PostInput carries the new-post form after media has been encoded.
type PostInput struct {
	Title   string
	Content string
	Media   Media
}

// Posts returns the whole collection, newest first.
func (a *App) Posts(ctx context.Context) ([]models.Post, error) {
	return a.posts.List(ctx)
}

// Post returns one post by id, or ErrPostNotFound.
func (a *App) Post(ctx context.Context, id string) (*models.Post, error) {
	return a.posts.Get(ctx, id)
}

// Search returns the posts matching term, see views.Filter.
func (a *App) Search(ctx context.Context, term string) ([]models.Post, error) {
	posts, err := a.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	return views.Filter(posts, term), nil
}

// MyPosts returns the posts written by the logged-in user.
func (a *App) MyPosts(ctx context.Context, sid string) ([]models.Post, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	posts, err := a.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.AuthorUsername == sess.Username {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// CreatePost adds a post at the front of the collection and clears the
// author's draft.
func (a *App) CreatePost(ctx context.Context, sid string, in PostInput) (*models.Post, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, ErrTitleContentRequired
	}
	post, err := a.posts.Create(ctx, models.Post{
		ID:             a.newID(),
		AuthorUsername: sess.Username,
		Title:          title,
		Content:        content,
		CreatedAt:      a.now(),
		Comments:       []models.Comment{},
	}, in.Media)
	if err != nil {
		return nil, err
	}
	if err := a.store.ClearDraft(ctx, sid); err != nil {
		a.logger.Warn("clear draft failed", zap.Error(err))
	}
	a.logger.Info("post created", zap.String("id", post.ID), zap.String("author", sess.Username))
	return &post, nil
}

// LikePost adds one like. Logged-out visitors may like; only a logged-in
// actor other than the author triggers a notification.
func (a *App) LikePost(ctx context.Context, sid, id string) (int, error) {
	post, err := a.posts.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	likes, err := a.posts.Like(ctx, id)
	if err != nil {
		return 0, err
	}
	if sess := a.Current(ctx, sid); sess != nil && sess.Username != post.AuthorUsername {
		a.notify(ctx, models.Notification{
			Type:       models.NotificationLike,
			TargetUser: post.AuthorUsername,
			Actor:      sess.Username,
			PostID:     post.ID,
			Message:    fmt.Sprintf("%s liked your post %q", sess.Username, post.Title),
		})
	}
	return likes, nil
}

// DeletePost removes a post written by the logged-in user after confirmation.
// Deleting an unknown id is a no-op.
func (a *App) DeletePost(ctx context.Context, sid, id string, confirm ConfirmFunc) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	post, err := a.posts.Get(ctx, id)
	if KindOf(err) == KindNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if !post.OwnedBy(sess.Username) {
		return ErrForbidden
	}
	if confirm == nil || !confirm("Delete this post?") {
		return ErrCancelled
	}
	if err := a.posts.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.Info("post deleted", zap.String("id", id), zap.String("author", sess.Username))
	return nil
}

// AddComment appends a comment and notifies the post author.
func (a *App) AddComment(ctx context.Context, sid, postID, text string) (*models.Comment, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCommentRequired
	}
	post, err := a.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	c, err := a.posts.AddComment(ctx, postID, models.Comment{
		ID:             a.newID(),
		Text:           text,
		AuthorUsername: sess.Username,
		CreatedAt:      a.now(),
	})
	if err != nil {
		return nil, err
	}
	if sess.Username != post.AuthorUsername {
		a.notify(ctx, models.Notification{
			Type:       models.NotificationComment,
			TargetUser: post.AuthorUsername,
			Actor:      sess.Username,
			PostID:     post.ID,
			Message:    fmt.Sprintf("%s commented on your post %q", sess.Username, post.Title),
		})
	}
	return &c, nil
}

// DeleteComment removes a comment by id. The comment's author and the post's
// author may delete it; an unknown comment is a no-op.
func (a *App) DeleteComment(ctx context.Context, sid, postID, commentID string) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	post, err := a.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	i := post.FindComment(commentID)
	if i < 0 {
		return nil
	}
	if !post.CanDeleteComment(sess.Username, post.Comments[i]) {
		return ErrForbidden
	}
	return a.posts.DeleteComment(ctx, postID, commentID)
}

// EditPost overwrites title and content in place. Media is only replaced
// when a new attachment is supplied or removal is requested.
func (a *App) EditPost(ctx context.Context, sid, id string, edit PostEdit) (*models.Post, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	edit.Title = strings.TrimSpace(edit.Title)
	edit.Content = strings.TrimSpace(edit.Content)
	if edit.Title == "" || edit.Content == "" {
		return nil, ErrTitleContentRequired
	}
	post, err := a.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(sess.Username) {
		return nil, ErrForbidden
	}
	edit.At = a.now()
	updated, err := a.posts.Edit(ctx, id, edit)
	if err != nil {
		return nil, err
	}
	if err := a.store.ClearEditTarget(ctx, sid); err != nil {
		a.logger.Warn("clear edit target failed", zap.Error(err))
	}
	return &updated, nil
}

// ClearAllPosts empties the collection after confirmation. When admins are
// configured only they may clear.
func (a *App) ClearAllPosts(ctx context.Context, sid string, confirm ConfirmFunc) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	if len(a.admins) > 0 && !a.isAdmin(sess.Username) {
		return ErrForbidden
	}
	if confirm == nil || !confirm("Are you sure you want to delete all posts?") {
		return ErrCancelled
	}
	if err := a.posts.Clear(ctx); err != nil {
		return err
	}
	a.logger.Warn("all posts cleared", zap.String("by", sess.Username))
	return nil
}

// CanClear reports whether the clear-all control should be offered to username.
func (a *App) CanClear(username string) bool {
	if username == "" || a.Remote() {
		return false
	}
	return len(a.admins) == 0 || a.isAdmin(username)
}
