package controllers

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/views"
)

// basePage fills the fields every page shares: theme, viewer, alerts and the
// unread notification badge.
func basePage(ctx *gin.Context, app *blog.App, title string) views.Page {
	sid := middleware.SessionID(ctx)
	sess := middleware.CurrentSession(ctx)
	page := views.Page{
		Title:  title,
		Theme:  app.Theme(ctx.Request.Context(), sid),
		Viewer: sess,
		Alert:  ctx.Query("alert"),
		Notice: ctx.Query("notice"),
		Remote: app.Remote(),
	}
	if sess != nil {
		page.Unread = app.UnreadCount(ctx.Request.Context(), sid)
	}
	return page
}

// uploadFrom returns the file of a multipart field, or nil when none was chosen.
func uploadFrom(ctx *gin.Context, field string) *blog.Upload {
	fh, err := ctx.FormFile(field)
	if err != nil || fh.Size == 0 {
		return nil
	}
	return &blog.Upload{Name: fh.Filename, Open: func() (io.ReadCloser, error) {
		return fh.Open()
	}}
}

func formBool(ctx *gin.Context, field string) bool {
	switch strings.ToLower(ctx.PostForm(field)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// formConfirm is the server side of the browser confirm dialog: the form
// only carries confirm=yes when the user agreed.
func formConfirm(ctx *gin.Context) blog.ConfirmFunc {
	ok := formBool(ctx, "confirm")
	return func(string) bool { return ok }
}
