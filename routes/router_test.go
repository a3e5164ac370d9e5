package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/store"
	"github.com/cppla/miniblog/utils"
	"github.com/cppla/miniblog/views"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	h       http.Handler
	token   string
	cookies map[string]*http.Cookie
}

func newServer(t *testing.T) (http.Handler, *blog.App) {
	t.Helper()
	config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		GinPath:            "-",
		RateLimitPerMinute: 1000,
	})
	seq := 0
	app := blog.New(store.New(store.NewMemoryKV()), blog.WithClock(nil, func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}))
	return SetupRouter(app, views.MustRenderer()), app
}

func newClient(t *testing.T, h http.Handler) *client {
	return &client{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return w
}

func (c *client) json(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := c.do(req)
	var env envelope
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (c *client) form(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func apiLogin(t *testing.T, h http.Handler, username string) *client {
	t.Helper()
	c := newClient(t, h)
	w, _ := c.json(http.MethodPost, "/api/v1/auth/register", obj{"username": username, "password": "pw", "confirm_password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, env := c.json(http.MethodPost, "/api/v1/auth/login", obj{"username": username, "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	c.token = data.Token
	c.cookies = map[string]*http.Cookie{}
	return c
}

type obj = map[string]any

func TestHealthMetricsAndNoRoute(t *testing.T) {
	h, _ := newServer(t)
	c := newClient(t, h)

	w, env := c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	w, env = c.json(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)

	w = c.get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "miniblog_http_requests_total")
}

func TestAPIAuthFlow(t *testing.T) {
	h, _ := newServer(t)
	c := apiLogin(t, h, "alice")

	w, env := c.json(http.MethodGet, "/api/v1/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"alice"`)
	assert.NotContains(t, string(env.Data), "password")

	w, _ = c.json(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = c.json(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, env.Code)
}

func TestAPIRegisterValidation(t *testing.T) {
	h, _ := newServer(t)
	c := newClient(t, h)

	w, env := c.json(http.MethodPost, "/api/v1/auth/register", obj{"username": "bob", "password": "a", "confirm_password": "b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, blog.ErrPasswordMismatch.Msg, env.Message)

	w, _ = c.json(http.MethodPost, "/api/v1/auth/register", obj{"username": "bob", "password": "a", "confirm_password": "a"})
	require.Equal(t, http.StatusCreated, w.Code)
	w, env = c.json(http.MethodPost, "/api/v1/auth/register", obj{"username": "bob", "password": "a", "confirm_password": "a"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, blog.ErrUsernameTaken.Msg, env.Message)

	w, env = c.json(http.MethodPost, "/api/v1/auth/login", obj{"username": "bob", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, blog.ErrInvalidCredentials.Msg, env.Message)
}

func TestAPIPostLifecycle(t *testing.T) {
	h, app := newServer(t)
	alice := apiLogin(t, h, "alice")
	bob := apiLogin(t, h, "bob")

	w, env := alice.json(http.MethodPost, "/api/v1/posts", obj{"title": "Hello", "content": "World"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Post struct {
			ID string `json:"id"`
		} `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	id := created.Post.ID
	require.NotEmpty(t, id)

	w, env = bob.json(http.MethodPost, "/api/v1/posts/"+id+"/like", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"likes":1}`, string(env.Data))

	w, _ = bob.json(http.MethodPost, "/api/v1/posts/"+id+"/comments", obj{"text": "nice"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, env = alice.json(http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notes struct {
		Items  []map[string]any `json:"items"`
		Unread int              `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &notes))
	assert.Len(t, notes.Items, 2)
	assert.Equal(t, 2, notes.Unread)

	w, env = bob.json(http.MethodPut, "/api/v1/posts/"+id, obj{"title": "Mine", "content": "now"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, env.Code)

	w, _ = alice.json(http.MethodPut, "/api/v1/posts/"+id, obj{"title": "Hello again", "content": "World"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = bob.json(http.MethodDelete, "/api/v1/posts/"+id, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = alice.json(http.MethodDelete, "/api/v1/posts/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = alice.json(http.MethodGet, "/api/v1/posts/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40401, env.Code)

	posts, err := app.Posts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAPIMutationsRequireLogin(t *testing.T) {
	h, _ := newServer(t)
	c := newClient(t, h)

	w, env := c.json(http.MethodPost, "/api/v1/posts", obj{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, env.Code)

	w, _ = c.json(http.MethodGet, "/api/v1/posts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIClearNeedsConfirmation(t *testing.T) {
	h, app := newServer(t)
	alice := apiLogin(t, h, "alice")
	alice.json(http.MethodPost, "/api/v1/posts", obj{"title": "a", "content": "b"})

	w, env := alice.json(http.MethodDelete, "/api/v1/posts", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)

	w, _ = alice.json(http.MethodDelete, "/api/v1/posts?confirm=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts, err := app.Posts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAPIMultipartCreateWithImage(t *testing.T) {
	h, _ := newServer(t)
	alice := apiLogin(t, h, "alice")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Pic"))
	require.NoError(t, mw.WriteField("content", "look"))
	fw, err := mw.CreateFormFile("image", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := alice.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "data:image/png;base64,")
}

func TestAPIPrefs(t *testing.T) {
	h, _ := newServer(t)
	c := newClient(t, h)

	w, env := c.json(http.MethodPut, "/api/v1/prefs/theme", obj{"theme": "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"theme":"dark"}`, string(env.Data))

	w, _ = c.json(http.MethodPut, "/api/v1/prefs/theme", obj{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = c.json(http.MethodPut, "/api/v1/prefs/draft", obj{"title": "t", "content": "c"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = c.json(http.MethodGet, "/api/v1/prefs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"theme":"dark"`)
	assert.Contains(t, string(env.Data), `"title":"t"`)
}

func TestHTMLLoginPostAndRender(t *testing.T) {
	h, app := newServer(t)
	require.NoError(t, app.Signup(context.Background(), blog.SignupInput{Username: "alice", Password: "pw", ConfirmPassword: "pw"}))
	browser := newClient(t, h)

	w := browser.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html")
	assert.NotEmpty(t, browser.cookies)

	w = browser.form("/posts", url.Values{"title": {"x"}, "content": {"y"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?alert="))

	w = browser.form("/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = browser.form("/posts", url.Values{"title": {"<b>Bold</b>"}, "content": {"Body text"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = browser.get("/")
	body := w.Body.String()
	assert.Contains(t, body, "&lt;b&gt;Bold&lt;/b&gt;")
	assert.Contains(t, body, "Body text")

	w = browser.form("/posts/id-1/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "alert=")

	w = browser.form("/posts/id-1/delete", url.Values{"confirm": {"yes"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "notice=")
	posts, err := app.Posts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestHTMLThemeToggleKeepsAnonymousContext(t *testing.T) {
	h, _ := newServer(t)
	browser := newClient(t, h)

	browser.get("/")
	w := browser.form("/prefs/theme", url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, browser.get("/").Body.String(), `class="dark-theme"`)

	other := newClient(t, h)
	assert.NotContains(t, other.get("/").Body.String(), `class="dark-theme"`)
}

func TestHTMLAccountPagesRedirectWhenLoggedOut(t *testing.T) {
	h, _ := newServer(t)
	browser := newClient(t, h)
	for _, path := range []string{"/profile", "/notifications"} {
		w := browser.get(path)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login"), path)
	}
}

func TestHTMLSignupAndProfilePages(t *testing.T) {
	h, app := newServer(t)
	browser := newClient(t, h)

	w := browser.get("/signup")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="confirm_password"`)

	w = browser.form("/signup", url.Values{
		"username": {"bob"}, "password": {"pw"}, "confirm_password": {"pw"}, "display_name": {"Bob <3"}, "email": {"bob@example.com"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/login?notice="))

	w = browser.form("/login", url.Values{"username": {"bob"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = browser.get("/profile")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bob &lt;3")
	assert.Contains(t, w.Body.String(), "You have not posted yet.")

	w = browser.form("/posts", url.Values{"title": {"Bob's first"}, "content": {"hello"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = browser.get("/profile")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="post-id-1"`)
	assert.Contains(t, body, "/posts/id-1/edit")

	w = browser.form("/profile", url.Values{"display_name": {"Bobby"}, "email": {"bob@example.com"}, "bio": {"hi"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	user := app.Store().LoadUsers(context.Background())["bob"]
	assert.Equal(t, "Bobby", user.DisplayName)
	assert.Equal(t, "hi", user.Bio)
}

func TestLoginAgainDropsPreviousSession(t *testing.T) {
	h, app := newServer(t)
	c := apiLogin(t, h, "alice")
	first, err := utils.ParseToken(c.token)
	require.NoError(t, err)
	require.NotNil(t, app.Current(context.Background(), first.SessionID))

	w, env := c.json(http.MethodPost, "/api/v1/auth/login", obj{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	second, err := utils.ParseToken(data.Token)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Nil(t, app.Current(context.Background(), first.SessionID))
	assert.NotNil(t, app.Current(context.Background(), second.SessionID))
}
