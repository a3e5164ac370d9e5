package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/store"
)

type recordingPublisher struct {
	got  []models.Notification
	fail bool
}

func (r *recordingPublisher) Publish(_ context.Context, n models.Notification) error {
	if r.fail {
		return errors.New("broker down")
	}
	r.got = append(r.got, n)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func newTestApp(t *testing.T, opts ...Option) (*App, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryKV())
	seq := 0
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	base := []Option{WithClock(
		func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	)}
	return New(st, append(base, opts...)...), st
}

func signupAndLogin(t *testing.T, app *App, sid, username string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, app.Signup(ctx, SignupInput{Username: username, Password: "pw", ConfirmPassword: "pw"}))
	_, err := app.Login(ctx, sid, username, "pw")
	require.NoError(t, err)
}

func TestSignupLoginScenario(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)

	require.NoError(t, app.Signup(ctx, SignupInput{Username: "alice", Password: "pw1", ConfirmPassword: "pw1"}))

	sess, err := app.Login(ctx, "", "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "alice", sess.DisplayName)
	require.NoError(t, app.Logout(ctx, ""))

	_, err = app.Login(ctx, "", "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Nil(t, app.Current(ctx, ""))

	user := st.LoadUsers(ctx)["alice"]
	assert.NotEqual(t, "pw1", user.PasswordHash, "passwords are hashed")
	assert.Empty(t, user.Bio)
	assert.Empty(t, user.ProfilePicture)
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "", "alice")

	_, err := app.Login(ctx, "", "alice", "nope")
	require.Error(t, err)
	require.NotNil(t, app.Current(ctx, ""))
	assert.Equal(t, "alice", app.Current(ctx, "").Username)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	assert.ErrorIs(t, app.Signup(ctx, SignupInput{Password: "a", ConfirmPassword: "a"}), ErrUsernameRequired)
	assert.ErrorIs(t, app.Signup(ctx, SignupInput{Username: "bob"}), ErrPasswordRequired)
	assert.ErrorIs(t, app.Signup(ctx, SignupInput{Username: "bob", Password: "a", ConfirmPassword: "b"}), ErrPasswordMismatch)

	require.NoError(t, app.Signup(ctx, SignupInput{Username: "bob", Password: "a", ConfirmPassword: "a"}))
	err := app.Signup(ctx, SignupInput{Username: "bob", Password: "a", ConfirmPassword: "a"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCreatePostRequiresLogin(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)

	_, err := app.CreatePost(ctx, "", PostInput{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Empty(t, st.LoadPosts(ctx))
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "", "alice")
	require.NoError(t, app.SaveDraft(ctx, "", "draft", "body"))

	first, err := app.CreatePost(ctx, "", PostInput{Title: " T ", Content: "C"})
	require.NoError(t, err)
	second, err := app.CreatePost(ctx, "", PostInput{Title: "T2", Content: "C2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	posts := st.LoadPosts(ctx)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID, "newest first")
	assert.Equal(t, "T", posts[1].Title)
	assert.Equal(t, "C", posts[1].Content)
	assert.Equal(t, 0, posts[1].Likes)
	assert.Empty(t, posts[1].Comments)
	assert.Equal(t, "alice", posts[1].AuthorUsername)
	assert.Nil(t, app.Draft(ctx, ""), "draft cleared after posting")

	_, err = app.CreatePost(ctx, "", PostInput{Title: "  ", Content: "x"})
	assert.ErrorIs(t, err, ErrTitleContentRequired)
	assert.Len(t, st.LoadPosts(ctx), 2)
}

func TestCreatePostStoresMediaAsDataURI(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "", "alice")

	post, err := app.CreatePost(ctx, "", PostInput{Title: "t", Content: "c", Media: Media{
		Image: &Attachment{ContentType: "image/png", Data: []byte{1, 2, 3}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AQID", post.Image)
	assert.Empty(t, post.Video)
}

func TestLikePost(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	app, st := newTestApp(t, WithPublisher(pub))
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		likes, err := app.LikePost(ctx, "", post.ID)
		require.NoError(t, err)
		assert.Equal(t, i, likes)
	}
	assert.Equal(t, 5, st.LoadPosts(ctx)[0].Likes)
	assert.Empty(t, pub.got, "anonymous likes do not notify")

	_, err = app.LikePost(ctx, "a", post.ID)
	require.NoError(t, err)
	assert.Empty(t, pub.got, "self likes do not notify")

	_, err = app.LikePost(ctx, "b", post.ID)
	require.NoError(t, err)
	require.Len(t, pub.got, 1)
	assert.Equal(t, models.NotificationLike, pub.got[0].Type)
	assert.Equal(t, "alice", pub.got[0].TargetUser)
	assert.Equal(t, "bob", pub.got[0].Actor)

	_, err = app.LikePost(ctx, "", "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	assert.ErrorIs(t, app.DeletePost(ctx, "", post.ID, AlwaysConfirm), ErrLoginRequired)
	assert.ErrorIs(t, app.DeletePost(ctx, "b", post.ID, AlwaysConfirm), ErrForbidden)
	assert.ErrorIs(t, app.DeletePost(ctx, "a", post.ID, func(string) bool { return false }), ErrCancelled)
	assert.ErrorIs(t, app.DeletePost(ctx, "a", post.ID, nil), ErrCancelled)
	require.Len(t, st.LoadPosts(ctx), 1)

	require.NoError(t, app.DeletePost(ctx, "a", post.ID, AlwaysConfirm))
	assert.Empty(t, st.LoadPosts(ctx))

	assert.NoError(t, app.DeletePost(ctx, "a", "missing", AlwaysConfirm), "unknown id is a no-op")
}

func TestCommentRoundTrip(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	app, st := newTestApp(t, WithPublisher(pub))
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = app.AddComment(ctx, "a", post.ID, "first")
	require.NoError(t, err)
	before := st.LoadPosts(ctx)[0].Comments

	_, err = app.AddComment(ctx, "", post.ID, "x")
	assert.ErrorIs(t, err, ErrLoginRequired)
	_, err = app.AddComment(ctx, "b", post.ID, "   ")
	assert.ErrorIs(t, err, ErrCommentRequired)
	_, err = app.AddComment(ctx, "b", "missing", "x")
	assert.ErrorIs(t, err, ErrPostNotFound)

	c, err := app.AddComment(ctx, "b", post.ID, "nice")
	require.NoError(t, err)
	comments := st.LoadPosts(ctx)[0].Comments
	require.Len(t, comments, 2)
	assert.Equal(t, "nice", comments[1].Text)
	assert.Equal(t, "bob", comments[1].AuthorUsername)
	require.Len(t, pub.got, 1)
	assert.Equal(t, models.NotificationComment, pub.got[0].Type)

	require.NoError(t, app.DeleteComment(ctx, "b", post.ID, c.ID))
	assert.Equal(t, before, st.LoadPosts(ctx)[0].Comments)
}

func TestDeleteCommentAuthorization(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	signupAndLogin(t, app, "c", "carol")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	c1, err := app.AddComment(ctx, "b", post.ID, "one")
	require.NoError(t, err)
	c2, err := app.AddComment(ctx, "b", post.ID, "two")
	require.NoError(t, err)

	assert.ErrorIs(t, app.DeleteComment(ctx, "c", post.ID, c1.ID), ErrForbidden)
	require.NoError(t, app.DeleteComment(ctx, "a", post.ID, c1.ID), "post author may moderate")
	assert.NoError(t, app.DeleteComment(ctx, "a", post.ID, "gone"))

	comments := st.LoadPosts(ctx)[0].Comments
	require.Len(t, comments, 1)
	assert.Equal(t, c2.ID, comments[0].ID)
}

func TestEditPost(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c", Media: Media{
		Image: &Attachment{ContentType: "image/png", Data: []byte{1}},
		Video: &Attachment{ContentType: "video/mp4", Data: []byte{2}},
	}})
	require.NoError(t, err)

	_, err = app.EditPost(ctx, "b", post.ID, PostEdit{Title: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = app.EditPost(ctx, "a", post.ID, PostEdit{Title: "", Content: "y"})
	assert.ErrorIs(t, err, ErrTitleContentRequired)

	updated, err := app.EditPost(ctx, "a", post.ID, PostEdit{Title: "new", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, post.Image, updated.Image, "media kept without replacement")
	assert.Equal(t, post.Video, updated.Video)
	assert.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, "alice", updated.AuthorUsername)

	updated, err = app.EditPost(ctx, "a", post.ID, PostEdit{Title: "new", Content: "body", RemoveVideo: true,
		Media: Media{Image: &Attachment{ContentType: "image/gif", Data: []byte{3}}}})
	require.NoError(t, err)
	assert.Equal(t, "data:image/gif;base64,Aw==", updated.Image)
	assert.Empty(t, updated.Video)
	assert.Equal(t, post.ID, st.LoadPosts(ctx)[0].ID)
}

func TestClearAllPosts(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	_, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	assert.ErrorIs(t, app.ClearAllPosts(ctx, "", AlwaysConfirm), ErrLoginRequired)
	assert.ErrorIs(t, app.ClearAllPosts(ctx, "a", func(string) bool { return false }), ErrCancelled)
	require.Len(t, st.LoadPosts(ctx), 1)

	require.NoError(t, app.ClearAllPosts(ctx, "a", AlwaysConfirm))
	assert.Empty(t, st.LoadPosts(ctx))
}

func TestClearAllPostsAdminsOnly(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t, WithAdmins("root"))
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "r", "root")

	assert.ErrorIs(t, app.ClearAllPosts(ctx, "a", AlwaysConfirm), ErrForbidden)
	assert.NoError(t, app.ClearAllPosts(ctx, "r", AlwaysConfirm))
}

func TestSearchAndMyPosts(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	_, err := app.CreatePost(ctx, "a", PostInput{Title: "Gophers", Content: "c"})
	require.NoError(t, err)
	_, err = app.CreatePost(ctx, "b", PostInput{Title: "Cats", Content: "c"})
	require.NoError(t, err)

	found, err := app.Search(ctx, "gopher")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Gophers", found[0].Title)

	mine, err := app.MyPosts(ctx, "b")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Cats", mine[0].Title)
}

func TestProfileAndDeleteAccount(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	_, err := app.CreatePost(ctx, "a", PostInput{Title: "mine", Content: "c"})
	require.NoError(t, err)
	_, err = app.CreatePost(ctx, "b", PostInput{Title: "theirs", Content: "c"})
	require.NoError(t, err)

	_, err = app.UpdateProfile(ctx, "a", ProfileInput{DisplayName: "", Email: "a@x"})
	assert.ErrorIs(t, err, ErrProfileRequired)

	sess, err := app.UpdateProfile(ctx, "a", ProfileInput{DisplayName: "Alice", Email: "a@x", Bio: "hi", NewPassword: "pw2"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", sess.DisplayName)
	assert.Equal(t, "Alice", app.Current(ctx, "a").DisplayName)
	_, err = app.Login(ctx, "z", "alice", "pw2")
	require.NoError(t, err)

	assert.ErrorIs(t, app.DeleteAccount(ctx, "a", func(string) bool { return false }), ErrCancelled)
	require.NoError(t, app.DeleteAccount(ctx, "a", AlwaysConfirm))
	assert.Nil(t, app.Current(ctx, "a"))
	assert.NotContains(t, st.LoadUsers(ctx), "alice")
	posts := st.LoadPosts(ctx)
	require.Len(t, posts, 1)
	assert.Equal(t, "theirs", posts[0].Title)
}

func TestDeletedAccountEndsOtherSessions(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "laptop", "alice")
	_, err := app.Login(ctx, "phone", "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, app.DeleteAccount(ctx, "laptop", AlwaysConfirm))

	_, err = app.CreatePost(ctx, "phone", PostInput{Title: "ghost", Content: "c"})
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Empty(t, st.LoadPosts(ctx))
	assert.Nil(t, st.LoadSession(ctx, "phone"), "orphaned session is cleared")

	// a new account with the freed name does not inherit the old session
	require.NoError(t, app.Signup(ctx, SignupInput{Username: "alice", Password: "new", ConfirmPassword: "new"}))
	assert.Nil(t, app.Current(ctx, "phone"))
}

func TestPasswordTooLongIsValidation(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	long := strings.Repeat("x", 73)

	err := app.Signup(ctx, SignupInput{Username: "alice", Password: long, ConfirmPassword: long})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.Equal(t, KindValidation, KindOf(err))

	signupAndLogin(t, app, "a", "bob")
	_, err = app.UpdateProfile(ctx, "a", ProfileInput{DisplayName: "Bob", Email: "b@x", NewPassword: long})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestPrefs(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")

	assert.Equal(t, models.ThemeLight, app.Theme(ctx, "a"))
	theme, err := app.ToggleTheme(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)
	assert.Equal(t, models.ThemeLight, app.Theme(ctx, "b"), "themes are per context")
	assert.ErrorIs(t, app.SetTheme(ctx, "a", "purple"), ErrInvalidTheme)

	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.ErrorIs(t, app.MarkForEdit(ctx, "b", post.ID), ErrForbidden)
	require.NoError(t, app.MarkForEdit(ctx, "a", post.ID))

	target, err := app.TakeEditTarget(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, post.ID, target.ID)
	target, err = app.TakeEditTarget(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, target)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t, WithPublisher(&recordingPublisher{fail: true}))
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = app.LikePost(ctx, "b", post.ID)
	require.NoError(t, err, "publish failures are not surfaced")
	_, err = app.AddComment(ctx, "b", post.ID, "hey")
	require.NoError(t, err)

	list, err := app.Notifications(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationComment, list[0].Type, "newest first")
	assert.Equal(t, 2, app.UnreadCount(ctx, "a"))
	assert.Equal(t, 0, app.UnreadCount(ctx, "b"))

	require.NoError(t, app.MarkNotificationsRead(ctx, "a"))
	assert.Equal(t, 0, app.UnreadCount(ctx, "a"))

	require.NoError(t, app.ClearNotifications(ctx, "a"))
	list, err = app.Notifications(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = app.Notifications(ctx, "")
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestStorageFailureIsReported(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")

	app.posts = &LocalBackend{store: store.New(brokenKV{})}
	_, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	assert.Equal(t, KindStorage, KindOf(err))
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, error) { return nil, store.ErrNotFound }
func (brokenKV) Set(context.Context, string, []byte) error   { return errors.New("disk full") }
func (brokenKV) Delete(context.Context, string) error        { return nil }
func (brokenKV) Close() error                                { return nil }

func TestPruneNotificationsKeepsUnread(t *testing.T) {
	ctx := context.Background()
	app, st := newTestApp(t)
	signupAndLogin(t, app, "a", "alice")
	signupAndLogin(t, app, "b", "bob")
	post, err := app.CreatePost(ctx, "a", PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = app.LikePost(ctx, "b", post.ID)
	require.NoError(t, err)
	require.NoError(t, app.MarkNotificationsRead(ctx, "a"))
	_, err = app.AddComment(ctx, "b", post.ID, "later")
	require.NoError(t, err)

	cutoff := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	removed, err := app.PruneNotifications(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	left := st.LoadNotifications(ctx)
	require.Len(t, left, 1)
	assert.Equal(t, models.NotificationComment, left[0].Type)

	removed, err = app.PruneNotifications(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
