package blog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/store"
)

// notify persists n and then publishes it. Failures are logged only.
func (a *App) notify(ctx context.Context, n models.Notification) {
	n.ID = a.newID()
	n.CreatedAt = a.now()
	_, err := a.store.UpdateNotifications(ctx, func(list []models.Notification) ([]models.Notification, error) {
		return append(list, n), nil
	})
	if err != nil {
		a.logger.Warn("save notification failed", zap.String("target", n.TargetUser), zap.Error(err))
		return
	}
	if err := a.publisher.Publish(ctx, n); err != nil {
		a.logger.Warn("publish notification failed", zap.String("id", n.ID), zap.Error(err))
	}
}

// Notifications lists the logged-in user's notifications, newest first.
func (a *App) Notifications(ctx context.Context, sid string) ([]models.Notification, error) {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return nil, err
	}
	all := a.store.LoadNotifications(ctx)
	out := make([]models.Notification, 0)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].TargetUser == sess.Username {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// UnreadCount is zero for logged-out contexts.
func (a *App) UnreadCount(ctx context.Context, sid string) int {
	sess := a.Current(ctx, sid)
	if sess == nil {
		return 0
	}
	n := 0
	for _, item := range a.store.LoadNotifications(ctx) {
		if item.TargetUser == sess.Username && !item.Read {
			n++
		}
	}
	return n
}

func (a *App) MarkNotificationsRead(ctx context.Context, sid string) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	_, err = a.store.UpdateNotifications(ctx, func(list []models.Notification) ([]models.Notification, error) {
		changed := false
		for i := range list {
			if list[i].TargetUser == sess.Username && !list[i].Read {
				list[i].Read = true
				changed = true
			}
		}
		if !changed {
			return nil, store.ErrNoChange
		}
		return list, nil
	})
	return StorageError(err)
}

// ClearNotifications removes the logged-in user's notifications only.
func (a *App) ClearNotifications(ctx context.Context, sid string) error {
	sess, err := a.RequireLogin(ctx, sid)
	if err != nil {
		return err
	}
	_, err = a.store.UpdateNotifications(ctx, func(list []models.Notification) ([]models.Notification, error) {
		kept := make([]models.Notification, 0, len(list))
		for _, n := range list {
			if n.TargetUser != sess.Username {
				kept = append(kept, n)
			}
		}
		if len(kept) == len(list) {
			return nil, store.ErrNoChange
		}
		return kept, nil
	})
	return StorageError(err)
}

// PruneNotifications drops read notifications created before cutoff and
// returns how many were removed. Unread ones are kept however old.
func (a *App) PruneNotifications(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	_, err := a.store.UpdateNotifications(ctx, func(list []models.Notification) ([]models.Notification, error) {
		kept := make([]models.Notification, 0, len(list))
		for _, n := range list {
			if n.Read && n.CreatedAt.Before(cutoff) {
				continue
			}
			kept = append(kept, n)
		}
		removed = len(list) - len(kept)
		if removed == 0 {
			return nil, store.ErrNoChange
		}
		return kept, nil
	})
	if err != nil {
		return 0, StorageError(err)
	}
	if removed > 0 {
		a.logger.Info("pruned notifications", zap.Int("removed", removed))
	}
	return removed, nil
}
