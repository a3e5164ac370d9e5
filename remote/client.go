// Package remote talks to the posts HTTP API that can replace the local
// snapshot. The API stores posts oldest first and hosts media under its own
// base URL.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

// TimestampLayout is the wire format of post and comment timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

type remoteComment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

type remotePost struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp"`
	Image     *string         `json:"image"`
	Video     *string         `json:"video"`
	Comments  []remoteComment `json:"comments"`
	Likes     int             `json:"likes"`
}

type apiError struct {
	Error string `json:"error"`
}

// Client implements blog.PostBackend over the remote API.
type Client struct {
	http   *resty.Client
	base   *url.URL
	logger *zap.Logger
}

var _ blog.PostBackend = (*Client)(nil)

func New(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid remote base url %q", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{base: base, logger: logger}

	c.http = resty.New().
		SetBaseURL(base.String()).
		SetTimeout(timeout).
		SetHeader("User-Agent", "miniblog/1.0").
		SetHeader("Accept", "application/json")

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("remote request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("remote response", zap.Int("status", resp.StatusCode()), zap.Duration("latency", resp.Time()))
		return nil
	})
	return c, nil
}

// check maps transport failures and error statuses onto blog errors.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Warn("remote call failed", zap.String("op", op), zap.Error(err))
		return blog.RemoteError(op, err)
	}
	if !resp.IsError() {
		return nil
	}
	if resp.StatusCode() == http.StatusNotFound {
		return blog.ErrPostNotFound
	}
	msg := resp.Status()
	if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
		msg = e.Error
	}
	c.logger.Warn("remote call rejected", zap.String("op", op), zap.Int("status", resp.StatusCode()), zap.String("error", msg))
	return blog.RemoteError(op, fmt.Errorf("status %d: %s", resp.StatusCode(), msg))
}

func (c *Client) List(ctx context.Context) ([]models.Post, error) {
	var out []remotePost
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&apiError{}).Get("/posts")
	if err := c.check("list posts", resp, err); err != nil {
		return nil, err
	}
	// the API appends new posts; the blog shows newest first
	posts := make([]models.Post, 0, len(out))
	for i := len(out) - 1; i >= 0; i-- {
		posts = append(posts, c.toPost(out[i]))
	}
	return posts, nil
}

// Get has no dedicated endpoint and scans the list.
func (c *Client) Get(ctx context.Context, id string) (*models.Post, error) {
	posts, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	i := models.FindPost(posts, id)
	if i < 0 {
		return nil, blog.ErrPostNotFound
	}
	return &posts[i], nil
}

func (c *Client) Create(ctx context.Context, post models.Post, media blog.Media) (models.Post, error) {
	req := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"name":    post.AuthorUsername,
			"title":   post.Title,
			"content": post.Content,
		}).
		SetResult(&remotePost{}).
		SetError(&apiError{})
	if a := media.Image; a != nil {
		req.SetMultipartField("image", utils.SafeFilename(a.Name), a.ContentType, bytes.NewReader(a.Data))
	}
	if a := media.Video; a != nil {
		req.SetMultipartField("video", utils.SafeFilename(a.Name), a.ContentType, bytes.NewReader(a.Data))
	}
	resp, err := req.Post("/posts")
	if err := c.check("create post", resp, err); err != nil {
		return models.Post{}, err
	}
	return c.toPost(*resp.Result().(*remotePost)), nil
}

func (c *Client) Like(ctx context.Context, id string) (int, error) {
	var out struct {
		Likes int `json:"likes"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/posts/{id}/like")
	if err := c.check("like post", resp, err); err != nil {
		return 0, err
	}
	return out.Likes, nil
}

// AddComment returns the comment the API stored. The API keeps no comment
// author, so the author is taken from c.
func (c *Client) AddComment(ctx context.Context, postID string, cm models.Comment) (models.Comment, error) {
	var out remotePost
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", postID).
		SetBody(map[string]string{"text": cm.Text}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/posts/{id}/comments")
	if err := c.check("add comment", resp, err); err != nil {
		return models.Comment{}, err
	}
	if n := len(out.Comments); n > 0 {
		stored := c.toComment(out.Comments[n-1])
		stored.AuthorUsername = cm.AuthorUsername
		return stored, nil
	}
	return cm, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": postID, "commentId": commentID}).
		SetError(&apiError{}).
		Delete("/posts/{id}/comments/{commentId}")
	return c.check("delete comment", resp, err)
}

// Delete treats an already-missing post as deleted.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetError(&apiError{}).
		Delete("/posts/{id}")
	if err := c.check("delete post", resp, err); err != nil && blog.KindOf(err) != blog.KindNotFound {
		return err
	}
	return nil
}

func (c *Client) Edit(context.Context, string, blog.PostEdit) (models.Post, error) {
	return models.Post{}, blog.ErrUnsupported
}

func (c *Client) Clear(context.Context) error {
	return blog.ErrUnsupported
}

func (c *Client) DeleteByAuthor(ctx context.Context, username string) error {
	posts, err := c.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if p.AuthorUsername != username {
			continue
		}
		if err := c.Delete(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) toPost(rp remotePost) models.Post {
	p := models.Post{
		ID:             rp.ID,
		AuthorUsername: rp.Name,
		Title:          rp.Title,
		Content:        rp.Content,
		CreatedAt:      parseTimestamp(rp.Timestamp),
		Likes:          rp.Likes,
		Comments:       make([]models.Comment, 0, len(rp.Comments)),
	}
	if rp.Image != nil {
		p.Image = c.mediaURL(*rp.Image)
	}
	if rp.Video != nil {
		p.Video = c.mediaURL(*rp.Video)
	}
	for _, rc := range rp.Comments {
		p.Comments = append(p.Comments, c.toComment(rc))
	}
	return p
}

func (c *Client) toComment(rc remoteComment) models.Comment {
	return models.Comment{ID: rc.ID, Text: rc.Text, CreatedAt: parseTimestamp(rc.Timestamp)}
}

// mediaURL resolves server-hosted paths like /uploads/a.png against the base URL.
func (c *Client) mediaURL(path string) string {
	if path == "" {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return c.base.ResolveReference(ref).String()
}

func parseTimestamp(s string) time.Time {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
