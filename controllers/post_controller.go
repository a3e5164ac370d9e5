package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/utils"
	"github.com/cppla/miniblog/views"
)

// PostController serves the post list and the post mutation handlers.
type PostController struct {
	app *blog.App
}

func NewPostController(app *blog.App) *PostController {
	return &PostController{app: app}
}

type postRequest struct {
	Title       string `json:"title" form:"title"`
	Content     string `json:"content" form:"content"`
	RemoveImage bool   `json:"remove_image" form:"remove_image"`
	RemoveVideo bool   `json:"remove_video" form:"remove_video"`
}

// bindPost reads a JSON or multipart post body and encodes any attachments.
func (p *PostController) bindPost(ctx *gin.Context) (postRequest, blog.Media, error) {
	var req postRequest
	if strings.HasPrefix(ctx.ContentType(), "application/json") {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return req, blog.Media{}, blog.ErrTitleContentRequired
		}
		return req, blog.Media{}, nil
	}
	req.Title = ctx.PostForm("title")
	req.Content = ctx.PostForm("content")
	req.RemoveImage = formBool(ctx, "remove_image")
	req.RemoveVideo = formBool(ctx, "remove_video")
	media, err := blog.EncodeMedia(ctx.Request.Context(),
		uploadFrom(ctx, "image"), uploadFrom(ctx, "video"), p.app.MaxMediaBytes())
	return req, media, err
}

// ListPosts returns posts newest first, filtered by the q query parameter.
func (p *PostController) ListPosts(ctx *gin.Context) {
	posts, err := p.app.Search(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"posts": posts, "total": len(posts)})
}

func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.app.Post(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

func (p *PostController) ListMyPosts(ctx *gin.Context) {
	posts, err := p.app.MyPosts(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"posts": posts, "total": len(posts)})
}

func (p *PostController) CreatePost(ctx *gin.Context) {
	req, media, err := p.bindPost(ctx)
	if err != nil {
		record("create_post", err)
		respondError(ctx, err)
		return
	}
	post, err := p.app.CreatePost(ctx.Request.Context(), middleware.SessionID(ctx), blog.PostInput{
		Title: req.Title, Content: req.Content, Media: media,
	})
	record("create_post", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"post": post})
}

func (p *PostController) UpdatePost(ctx *gin.Context) {
	req, media, err := p.bindPost(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}
	post, err := p.app.EditPost(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), blog.PostEdit{
		Title:       req.Title,
		Content:     req.Content,
		Media:       media,
		RemoveImage: req.RemoveImage,
		RemoveVideo: req.RemoveVideo,
	})
	record("edit_post", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

func (p *PostController) LikePost(ctx *gin.Context) {
	likes, err := p.app.LikePost(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"))
	record("like_post", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"likes": likes})
}

// DeletePost treats the DELETE request itself as the confirmation.
func (p *PostController) DeletePost(ctx *gin.Context) {
	err := p.app.DeletePost(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), blog.AlwaysConfirm)
	record("delete_post", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ClearPosts needs ?confirm=true on top of the DELETE.
func (p *PostController) ClearPosts(ctx *gin.Context) {
	confirmed := ctx.Query("confirm") == "true"
	err := p.app.ClearAllPosts(ctx.Request.Context(), middleware.SessionID(ctx), func(string) bool { return confirmed })
	record("clear_posts", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "all posts deleted"})
}

func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" form:"text"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		respondError(ctx, blog.ErrCommentRequired)
		return
	}
	comment, err := p.app.AddComment(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), req.Text)
	record("add_comment", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"comment": comment})
}

func (p *PostController) DeleteComment(ctx *gin.Context) {
	err := p.app.DeleteComment(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), ctx.Param("commentId"))
	record("delete_comment", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// Index renders the full post list. Every mutation redirects back here, so
// each change is followed by a complete re-render from the saved snapshot.
func (p *PostController) Index(ctx *gin.Context) {
	c := ctx.Request.Context()
	page := basePage(ctx, p.app, "")
	page.Search = ctx.Query("q")
	posts, err := p.app.Posts(c)
	if err != nil {
		page.Alert = userMessage(err)
	}
	page.SetPosts(posts)
	if page.Viewer != nil {
		page.Draft = p.app.Draft(c, middleware.SessionID(ctx))
		page.CanClear = p.app.CanClear(page.Viewer.Username)
	}
	ctx.HTML(http.StatusOK, "index.html", page)
}

func (p *PostController) SubmitPost(ctx *gin.Context) {
	req, media, err := p.bindPost(ctx)
	if err == nil {
		_, err = p.app.CreatePost(ctx.Request.Context(), middleware.SessionID(ctx), blog.PostInput{
			Title: req.Title, Content: req.Content, Media: media,
		})
	}
	record("create_post", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

func (p *PostController) SubmitLike(ctx *gin.Context) {
	id := ctx.Param("id")
	_, err := p.app.LikePost(ctx.Request.Context(), middleware.SessionID(ctx), id)
	record("like_post", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/#post-"+id)
}

func (p *PostController) SubmitDelete(ctx *gin.Context) {
	err := p.app.DeletePost(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), formConfirm(ctx))
	record("delete_post", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	redirectNotice(ctx, "/", "Post deleted")
}

func (p *PostController) SubmitComment(ctx *gin.Context) {
	id := ctx.Param("id")
	_, err := p.app.AddComment(ctx.Request.Context(), middleware.SessionID(ctx), id, ctx.PostForm("text"))
	record("add_comment", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/#post-"+id)
}

func (p *PostController) SubmitDeleteComment(ctx *gin.Context) {
	id := ctx.Param("id")
	err := p.app.DeleteComment(ctx.Request.Context(), middleware.SessionID(ctx), id, ctx.Param("commentId"))
	record("delete_comment", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/#post-"+id)
}

// ShowEdit marks the post for editing and renders the edit form.
func (p *PostController) ShowEdit(ctx *gin.Context) {
	c := ctx.Request.Context()
	sid := middleware.SessionID(ctx)
	if err := p.app.MarkForEdit(c, sid, ctx.Param("id")); err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	post, err := p.app.EditTarget(c, sid)
	if err != nil || post == nil {
		redirectAlert(ctx, "/", blog.ErrPostNotFound)
		return
	}
	page := basePage(ctx, p.app, "Edit post")
	v := views.BuildPost(post, page.ViewerName())
	page.Edit = &v
	ctx.HTML(http.StatusOK, "edit.html", page)
}

func (p *PostController) SubmitEdit(ctx *gin.Context) {
	id := ctx.Param("id")
	req, media, err := p.bindPost(ctx)
	if err == nil {
		_, err = p.app.EditPost(ctx.Request.Context(), middleware.SessionID(ctx), id, blog.PostEdit{
			Title:       req.Title,
			Content:     req.Content,
			Media:       media,
			RemoveImage: req.RemoveImage,
			RemoveVideo: req.RemoveVideo,
		})
	}
	record("edit_post", err)
	if err != nil {
		redirectAlert(ctx, "/posts/"+id+"/edit", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/#post-"+id)
}

func (p *PostController) SubmitClear(ctx *gin.Context) {
	err := p.app.ClearAllPosts(ctx.Request.Context(), middleware.SessionID(ctx), formConfirm(ctx))
	record("clear_posts", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	redirectNotice(ctx, "/", "All posts deleted")
}
