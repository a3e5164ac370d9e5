package blog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

// SignupInput carries the signup form.
type SignupInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	DisplayName     string
	Email           string
}

// ProfileInput carries the profile form. Picture replaces the stored picture
// when set; RemovePicture clears it. An empty NewPassword keeps the old one.
type ProfileInput struct {
	DisplayName   string
	Email         string
	Bio           string
	Picture       *Attachment
	RemovePicture bool
	NewPassword   string
}

// Signup creates a user with an empty bio and picture. It does not log in.
func (a *App) Signup(ctx context.Context, in SignupInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return ErrUsernameRequired
	}
	if in.Password == "" {
		return ErrPasswordRequired
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}
	_, err = a.store.UpdateUsers(ctx, func(users map[string]models.User) error {
		if _, exists := users[username]; exists {
			return ErrUsernameTaken
		}
		users[username] = models.User{
			Username:     username,
			DisplayName:  displayName,
			Email:        strings.TrimSpace(in.Email),
			PasswordHash: hash,
			CreatedAt:    a.now(),
		}
		return nil
	})
	if err != nil {
		return StorageError(err)
	}
	a.logger.Info("user signed up", zap.String("username", username))
	return nil
}

// Login checks the credentials and stores the session for sid. On failure the
// existing session is left untouched.
func (a *App) Login(ctx context.Context, sid, username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	user, ok := a.store.LoadUsers(ctx)[username]
	if !ok || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	sess := models.NewSession(user, a.now())
	if err := a.store.SaveSession(ctx, sid, sess); err != nil {
		return nil, StorageError(err)
	}
	a.logger.Info("user logged in", zap.String("username", username))
	return &sess, nil
}

func (a *App) Logout(ctx context.Context, sid string) error {
	return StorageError(a.store.ClearSession(ctx, sid))
}

// Current returns the session of sid, or nil when logged out. A session whose
// account no longer exists is cleared and counts as logged out.
func (a *App) Current(ctx context.Context, sid string) *models.Session {
	sess := a.store.LoadSession(ctx, sid)
	if sess == nil {
		return nil
	}
	if _, ok := a.store.LoadUsers(ctx)[sess.Username]; !ok {
		if err := a.store.ClearSession(ctx, sid); err != nil {
			a.logger.Warn("clear orphaned session failed", zap.String("username", sess.Username), zap.Error(err))
		}
		return nil
	}
	return sess
}

// RequireLogin guards every handler that changes shared state.
func (a *App) RequireLogin(ctx context.Context, sid string) (*models.Session, error) {
	sess := a.Current(ctx, sid)
	if sess == nil {
		return nil, ErrLoginRequired
	}
	return sess, nil
}

// User returns the stored account of the logged-in user.
func (a *App) User(ctx context.Context, sid string) (*models.User, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	user, ok := a.store.LoadUsers(ctx)[sess.Username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// UpdateProfile saves the profile form and refreshes the cached session.
func (a *App) UpdateProfile(ctx context.Context, sid string, in ProfileInput) (*models.Session, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	email := strings.TrimSpace(in.Email)
	if displayName == "" || email == "" {
		return nil, ErrProfileRequired
	}
	var hash string
	if in.NewPassword != "" {
		if hash, err = hashPassword(in.NewPassword); err != nil {
			return nil, err
		}
	}

	var updated models.User
	_, err = a.store.UpdateUsers(ctx, func(users map[string]models.User) error {
		u, ok := users[sess.Username]
		if !ok {
			return ErrUserNotFound
		}
		u.DisplayName = displayName
		u.Email = email
		u.Bio = strings.TrimSpace(in.Bio)
		switch {
		case in.Picture != nil:
			u.ProfilePicture = in.Picture.DataURI()
		case in.RemovePicture:
			u.ProfilePicture = ""
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		users[u.Username] = u
		updated = u
		return nil
	})
	if err != nil {
		return nil, StorageError(err)
	}

	next := models.NewSession(updated, sess.LoggedInAt)
	if err := a.store.SaveSession(ctx, sid, next); err != nil {
		return nil, StorageError(err)
	}
	return &next, nil
}

// DeleteAccount removes the user, every post they wrote and the session.
func (a *App) DeleteAccount(ctx context.Context, sid string, confirm ConfirmFunc) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	if confirm == nil || !confirm("Delete your account? This will remove your user and your posts.") {
		return ErrCancelled
	}
	if err := a.posts.DeleteByAuthor(ctx, sess.Username); err != nil {
		return err
	}
	_, err = a.store.UpdateUsers(ctx, func(users map[string]models.User) error {
		delete(users, sess.Username)
		return nil
	})
	if err != nil {
		return StorageError(err)
	}
	a.logger.Info("account deleted", zap.String("username", sess.Username))
	return a.Logout(ctx, sid)
}

func hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return hash, err
}
