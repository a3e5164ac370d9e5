// Package bootstrap assembles a blog.App from configuration. The HTTP server
// and the command line client share it.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cppla/miniblog/blog"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/events"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/remote"
	"github.com/cppla/miniblog/store"
	"github.com/cppla/miniblog/utils"
)

// OpenKV connects the snapshot backend named by cfg.StoreDriver.
func OpenKV(ctx context.Context, cfg config.AppConfig) (store.KV, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "memory":
		return store.NewMemoryKV(), nil
	case "redis":
		rdb, err := utils.NewRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewRedisKV(rdb), nil
	case "sqlite", "mysql":
		db, err := config.OpenDatabase(cfg, &models.KVEntry{})
		if err != nil {
			return nil, err
		}
		return store.NewGormKV(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// Build opens the store and, when configured, the remote post API and the
// notification topic.
func Build(ctx context.Context, cfg config.AppConfig) (*blog.App, error) {
	kv, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	st := store.New(kv, store.WithNamespace(cfg.StoreNamespace), store.WithLogger(utils.Logger))

	opts := []blog.Option{
		blog.WithLogger(utils.Logger),
		blog.WithAdmins(cfg.AdminUsernames...),
		blog.WithMaxMediaBytes(int64(cfg.MaxMediaMB) << 20),
	}

	if cfg.RemoteBaseURL != "" {
		client, err := remote.New(cfg.RemoteBaseURL, time.Duration(cfg.RemoteTimeoutSec)*time.Second, utils.Logger)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		opts = append(opts, blog.WithBackend(client))
		utils.Sugar.Infof("posts served by remote API %s", cfg.RemoteBaseURL)
	}

	if len(cfg.KafkaBrokers) > 0 {
		w, err := events.NewKafkaWriter(events.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			WriteTimeout: 5 * time.Second,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		opts = append(opts, blog.WithPublisher(events.NewKafkaPublisher(w, 5*time.Second)))
		utils.Sugar.Infof("publishing notifications to kafka topic %s", cfg.KafkaTopic)
	}

	return blog.New(st, opts...), nil
}
