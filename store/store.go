package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cppla/miniblog/models"
)

// Snapshot key names.
const (
	KeyPosts         = "posts"
	KeyUsers         = "users"
	KeyNotifications = "notifications"
	KeySession       = "user"
	KeyTheme         = "theme"
	KeyDraft         = "draft"
	KeyEditTarget    = "edit_post_id"
)

// ErrNoChange may be returned from an update callback to skip the write.
var ErrNoChange = errors.New("store: no change")

// Store reads and writes whole-collection JSON snapshots through a KV backend.
// Loads fail soft: an absent or unreadable snapshot is treated as empty.
type Store struct {
	kv     KV
	ns     string
	mu     sync.Mutex
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace prefixes every key with ns and a colon.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.ns = ns }
}

// WithLogger sets the logger used for fail-soft warnings.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) key(name string) string {
	if s.ns == "" {
		return name
	}
	return s.ns + ":" + name
}

// contextKey scopes a per-context snapshot. The empty context id is the
// default context and uses the bare name.
func contextKey(name, sid string) string {
	if sid == "" {
		return name
	}
	return name + ":" + sid
}

// load decodes the snapshot into out. It reports whether a usable value was found.
func (s *Store) load(ctx context.Context, name string, out any) bool {
	raw, err := s.kv.Get(ctx, s.key(name))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("snapshot read failed", zap.String("key", name), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("snapshot malformed, treating as empty", zap.String("key", name), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.kv.Set(ctx, s.key(name), raw); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, name string) error {
	if err := s.kv.Delete(ctx, s.key(name)); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// LoadPosts returns the post snapshot in stored order.
func (s *Store) LoadPosts(ctx context.Context) []models.Post {
	var posts []models.Post
	if !s.load(ctx, KeyPosts, &posts) || posts == nil {
		return []models.Post{}
	}
	for i := range posts {
		if posts[i].Comments == nil {
			posts[i].Comments = []models.Comment{}
		}
	}
	return posts
}

// SavePosts writes the whole post snapshot in one call.
func (s *Store) SavePosts(ctx context.Context, posts []models.Post) error {
	if posts == nil {
		posts = []models.Post{}
	}
	return s.save(ctx, KeyPosts, posts)
}

// LoadUsers returns the user mapping keyed by username.
func (s *Store) LoadUsers(ctx context.Context) map[string]models.User {
	var users map[string]models.User
	if !s.load(ctx, KeyUsers, &users) || users == nil {
		return map[string]models.User{}
	}
	return users
}

func (s *Store) SaveUsers(ctx context.Context, users map[string]models.User) error {
	if users == nil {
		users = map[string]models.User{}
	}
	return s.save(ctx, KeyUsers, users)
}

// LoadNotifications returns all notifications, oldest first.
func (s *Store) LoadNotifications(ctx context.Context) []models.Notification {
	var list []models.Notification
	if !s.load(ctx, KeyNotifications, &list) || list == nil {
		return []models.Notification{}
	}
	return list
}

func (s *Store) SaveNotifications(ctx context.Context, list []models.Notification) error {
	if list == nil {
		list = []models.Notification{}
	}
	return s.save(ctx, KeyNotifications, list)
}

// UpdatePosts runs fn against the current snapshot and saves the result once.
// Concurrent updates in this process are serialized.
func (s *Store) UpdatePosts(ctx context.Context, fn func([]models.Post) ([]models.Post, error)) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := s.LoadPosts(ctx)
	next, err := fn(posts)
	if errors.Is(err, ErrNoChange) {
		return posts, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.SavePosts(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *Store) UpdateUsers(ctx context.Context, fn func(map[string]models.User) error) (map[string]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.LoadUsers(ctx)
	err := fn(users)
	if errors.Is(err, ErrNoChange) {
		return users, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.SaveUsers(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateNotifications(ctx context.Context, fn func([]models.Notification) ([]models.Notification, error)) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.LoadNotifications(ctx)
	next, err := fn(list)
	if errors.Is(err, ErrNoChange) {
		return list, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.SaveNotifications(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
