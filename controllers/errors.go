package controllers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/metrics"
	"github.com/cppla/miniblog/utils"
)

// statusFor maps a blog error kind onto an HTTP status and a numeric code.
func statusFor(kind blog.Kind) (int, int) {
	switch kind {
	case blog.KindValidation:
		return http.StatusBadRequest, 40001
	case blog.KindAuth:
		return http.StatusUnauthorized, 40101
	case blog.KindForbidden:
		return http.StatusForbidden, 40301
	case blog.KindNotFound:
		return http.StatusNotFound, 40401
	case blog.KindCancelled:
		return http.StatusConflict, 40901
	case blog.KindUnsupported:
		return http.StatusNotImplemented, 50101
	case blog.KindRemote:
		return http.StatusBadGateway, 50201
	default:
		return http.StatusInternalServerError, 50001
	}
}

// userMessage hides internal causes behind a generic message.
func userMessage(err error) string {
	switch blog.KindOf(err) {
	case blog.KindUnknown:
		return "something went wrong, please try again"
	case blog.KindStorage:
		return "failed to save changes"
	case blog.KindRemote:
		return "the post server could not be reached"
	}
	var e *blog.Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// record counts the mutation and logs unexpected failures.
func record(op string, err error) {
	if err == nil {
		metrics.RecordMutation(op, "ok")
		return
	}
	kind := blog.KindOf(err)
	metrics.RecordMutation(op, kind.String())
	if kind == blog.KindUnknown || kind == blog.KindStorage || kind == blog.KindRemote {
		utils.Logger.Error("mutation failed", zap.String("op", op), zap.Error(err))
	}
}

// respondError writes the JSON envelope for err.
func respondError(ctx *gin.Context, err error) {
	status, code := statusFor(blog.KindOf(err))
	utils.Error(ctx, status, code, userMessage(err))
}

// redirectAlert sends an HTML form back to path with the error as an alert.
// A missing session goes to the login page instead.
func redirectAlert(ctx *gin.Context, path string, err error) {
	if errors.Is(err, blog.ErrLoginRequired) {
		path = "/login"
	}
	redirectWith(ctx, path, "alert", userMessage(err))
}

func redirectNotice(ctx *gin.Context, path, msg string) {
	redirectWith(ctx, path, "notice", msg)
}

func redirectWith(ctx *gin.Context, path, key, msg string) {
	u := &url.URL{Path: path}
	q := url.Values{}
	q.Set(key, msg)
	u.RawQuery = q.Encode()
	ctx.Redirect(http.StatusSeeOther, u.String())
}
