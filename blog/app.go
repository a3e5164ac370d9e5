package blog

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/events"
	"github.com/cppla/miniblog/store"
)

// DefaultMaxMediaBytes caps a single attachment when no limit is configured.
const DefaultMaxMediaBytes int64 = 25 << 20

// ConfirmFunc asks the user a yes/no question and reports the answer.
type ConfirmFunc func(prompt string) bool

// AlwaysConfirm answers yes. Front ends use it once the user already confirmed.
func AlwaysConfirm(string) bool { return true }

// App owns the blog state for one process: the snapshot store, the post
// backend and the notification publisher. Build one with New and release it
// with Close.
type App struct {
	store     *store.Store
	posts     PostBackend
	publisher events.Publisher
	logger    *zap.Logger
	admins    []string
	maxMedia  int64
	now       func() time.Time
	newID     func() string
}

// Option configures an App.
type Option func(*App)

// WithBackend replaces the local snapshot backend for posts.
func WithBackend(b PostBackend) Option {
	return func(a *App) { a.posts = b }
}

func WithPublisher(p events.Publisher) Option {
	return func(a *App) {
		if p != nil {
			a.publisher = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAdmins restricts ClearAllPosts to the given usernames.
func WithAdmins(usernames ...string) Option {
	return func(a *App) {
		for _, u := range usernames {
			if u = strings.TrimSpace(u); u != "" {
				a.admins = append(a.admins, u)
			}
		}
	}
}

func WithMaxMediaBytes(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxMedia = n
		}
	}
}

// WithClock overrides time and id generation. Used by tests.
func WithClock(now func() time.Time, newID func() string) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
		if newID != nil {
			a.newID = newID
		}
	}
}

func New(st *store.Store, opts ...Option) *App {
	a := &App{
		store:     st,
		publisher: events.NopPublisher{},
		logger:    zap.NewNop(),
		maxMedia:  DefaultMaxMediaBytes,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.posts == nil {
		a.posts = NewLocalBackend(st)
	}
	return a
}

// Store exposes the snapshot store for per-context preferences.
func (a *App) Store() *store.Store { return a.store }

// MaxMediaBytes is the per-attachment limit enforced by EncodeMedia callers.
func (a *App) MaxMediaBytes() int64 { return a.maxMedia }

// Remote reports whether posts live behind the remote API.
func (a *App) Remote() bool {
	_, local := a.posts.(*LocalBackend)
	return !local
}

// Close flushes the publisher and closes the store backend.
func (a *App) Close() error {
	return errors.Join(a.publisher.Close(), a.store.Close())
}

func (a *App) isAdmin(username string) bool {
	for _, u := range a.admins {
		if strings.EqualFold(u, username) {
			return true
		}
	}
	return false
}
