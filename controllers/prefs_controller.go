package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/utils"
)

// PrefsController serves the per-context theme and post draft.
type PrefsController struct {
	app *blog.App
}

func NewPrefsController(app *blog.App) *PrefsController {
	return &PrefsController{app: app}
}

func (p *PrefsController) GetPrefs(ctx *gin.Context) {
	sid := middleware.SessionID(ctx)
	c := ctx.Request.Context()
	utils.Success(ctx, gin.H{
		"theme": p.app.Theme(c, sid),
		"draft": p.app.Draft(c, sid),
	})
}

// SetTheme sets the theme from the body, or toggles it when none is given.
func (p *PrefsController) SetTheme(ctx *gin.Context) {
	var req struct {
		Theme string `json:"theme"`
	}
	_ = ctx.ShouldBindJSON(&req)
	sid := middleware.SessionID(ctx)
	theme := strings.TrimSpace(req.Theme)
	var err error
	if theme == "" {
		theme, err = p.app.ToggleTheme(ctx.Request.Context(), sid)
	} else {
		err = p.app.SetTheme(ctx.Request.Context(), sid, theme)
	}
	record("set_theme", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"theme": p.app.Theme(ctx.Request.Context(), sid)})
}

func (p *PrefsController) SaveDraft(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}
	sid := middleware.SessionID(ctx)
	err := p.app.SaveDraft(ctx.Request.Context(), sid, req.Title, req.Content)
	record("save_draft", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"draft": p.app.Draft(ctx.Request.Context(), sid)})
}

func (p *PrefsController) ClearDraft(ctx *gin.Context) {
	err := p.app.ClearDraft(ctx.Request.Context(), middleware.SessionID(ctx))
	record("clear_draft", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "draft cleared"})
}

func (p *PrefsController) SubmitTheme(ctx *gin.Context) {
	_, err := p.app.ToggleTheme(ctx.Request.Context(), middleware.SessionID(ctx))
	record("set_theme", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/")
}

func (p *PrefsController) SubmitDraft(ctx *gin.Context) {
	err := p.app.SaveDraft(ctx.Request.Context(), middleware.SessionID(ctx),
		ctx.PostForm("title"), ctx.PostForm("content"))
	record("save_draft", err)
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	redirectNotice(ctx, "/", "Draft saved")
}
