package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/utils"
)

// NotificationController lists and manages the current user's notifications.
type NotificationController struct {
	app *blog.App
}

func NewNotificationController(app *blog.App) *NotificationController {
	return &NotificationController{app: app}
}

func (n *NotificationController) List(ctx *gin.Context) {
	sid := middleware.SessionID(ctx)
	items, err := n.app.Notifications(ctx.Request.Context(), sid)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":  items,
		"unread": n.app.UnreadCount(ctx.Request.Context(), sid),
	})
}

func (n *NotificationController) MarkRead(ctx *gin.Context) {
	err := n.app.MarkNotificationsRead(ctx.Request.Context(), middleware.SessionID(ctx))
	record("read_notifications", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"unread": 0})
}

func (n *NotificationController) Clear(ctx *gin.Context) {
	err := n.app.ClearNotifications(ctx.Request.Context(), middleware.SessionID(ctx))
	record("clear_notifications", err)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "notifications cleared"})
}

func (n *NotificationController) Show(ctx *gin.Context) {
	items, err := n.app.Notifications(ctx.Request.Context(), middleware.SessionID(ctx))
	if err != nil {
		redirectAlert(ctx, "/", err)
		return
	}
	page := basePage(ctx, n.app, "Notifications")
	page.Notifications = items
	ctx.HTML(http.StatusOK, "notifications.html", page)
}

func (n *NotificationController) SubmitRead(ctx *gin.Context) {
	err := n.app.MarkNotificationsRead(ctx.Request.Context(), middleware.SessionID(ctx))
	record("read_notifications", err)
	if err != nil {
		redirectAlert(ctx, "/notifications", err)
		return
	}
	ctx.Redirect(http.StatusSeeOther, "/notifications")
}

func (n *NotificationController) SubmitClear(ctx *gin.Context) {
	err := n.app.ClearNotifications(ctx.Request.Context(), middleware.SessionID(ctx))
	record("clear_notifications", err)
	if err != nil {
		redirectAlert(ctx, "/notifications", err)
		return
	}
	redirectNotice(ctx, "/notifications", "Notifications cleared")
}
