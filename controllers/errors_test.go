package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/miniblog/blog"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{blog.ErrTitleContentRequired, http.StatusBadRequest, 40001},
		{blog.ErrPasswordTooLong, http.StatusBadRequest, 40001},
		{blog.ErrLoginRequired, http.StatusUnauthorized, 40101},
		{blog.ErrForbidden, http.StatusForbidden, 40301},
		{blog.ErrPostNotFound, http.StatusNotFound, 40401},
		{blog.ErrCancelled, http.StatusConflict, 40901},
		{blog.ErrUnsupported, http.StatusNotImplemented, 50101},
		{blog.RemoteError("like", errors.New("dial tcp")), http.StatusBadGateway, 50201},
		{blog.StorageError(errors.New("disk full")), http.StatusInternalServerError, 50001},
		{errors.New("boom"), http.StatusInternalServerError, 50001},
	}
	for _, tc := range cases {
		status, code := statusFor(blog.KindOf(tc.err))
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestUserMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "failed to save changes", userMessage(blog.StorageError(errors.New("disk /var/x full"))))
	assert.NotContains(t, userMessage(blog.RemoteError("list", errors.New("10.0.0.3 refused"))), "10.0.0.3")
	assert.NotContains(t, userMessage(errors.New("secret detail")), "secret")
	assert.Equal(t, blog.ErrForbidden.Msg, userMessage(fmt.Errorf("delete: %w", blog.ErrForbidden)))
}

func TestRedirectAlert(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/posts", nil)
	redirectAlert(ctx, "/", blog.ErrLoginRequired)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, blog.ErrLoginRequired.Msg, loc.Query().Get("alert"))

	w = httptest.NewRecorder()
	ctx, _ = gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/profile", nil)
	redirectAlert(ctx, "/profile", blog.ErrProfileRequired)
	loc, err = url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/profile", loc.Path)
	assert.Equal(t, blog.ErrProfileRequired.Msg, loc.Query().Get("alert"))
}
