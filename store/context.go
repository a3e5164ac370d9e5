package store

import (
	"context"

	"github.com/cppla/miniblog/models"
)

// LoadSession returns the session of context sid, or nil when logged out.
func (s *Store) LoadSession(ctx context.Context, sid string) *models.Session {
	var sess models.Session
	if !s.load(ctx, contextKey(KeySession, sid), &sess) || sess.Username == "" {
		return nil
	}
	return &sess
}

func (s *Store) SaveSession(ctx context.Context, sid string, sess models.Session) error {
	return s.save(ctx, contextKey(KeySession, sid), sess)
}

func (s *Store) ClearSession(ctx context.Context, sid string) error {
	return s.remove(ctx, contextKey(KeySession, sid))
}

// LoadTheme returns the stored theme, falling back to light.
func (s *Store) LoadTheme(ctx context.Context, sid string) string {
	var theme string
	if !s.load(ctx, contextKey(KeyTheme, sid), &theme) || !models.ValidTheme(theme) {
		return models.ThemeLight
	}
	return theme
}

func (s *Store) SaveTheme(ctx context.Context, sid, theme string) error {
	return s.save(ctx, contextKey(KeyTheme, sid), theme)
}

// LoadDraft returns the saved draft, or nil.
func (s *Store) LoadDraft(ctx context.Context, sid string) *models.Draft {
	var d models.Draft
	if !s.load(ctx, contextKey(KeyDraft, sid), &d) {
		return nil
	}
	return &d
}

func (s *Store) SaveDraft(ctx context.Context, sid string, d models.Draft) error {
	return s.save(ctx, contextKey(KeyDraft, sid), d)
}

func (s *Store) ClearDraft(ctx context.Context, sid string) error {
	return s.remove(ctx, contextKey(KeyDraft, sid))
}

// LoadEditTarget returns the post id marked for editing, or "".
func (s *Store) LoadEditTarget(ctx context.Context, sid string) string {
	var id string
	s.load(ctx, contextKey(KeyEditTarget, sid), &id)
	return id
}

func (s *Store) SaveEditTarget(ctx context.Context, sid, postID string) error {
	return s.save(ctx, contextKey(KeyEditTarget, sid), postID)
}

func (s *Store) ClearEditTarget(ctx context.Context, sid string) error {
	return s.remove(ctx, contextKey(KeyEditTarget, sid))
}
