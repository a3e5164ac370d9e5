package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/cppla/miniblog/bootstrap"
	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/routes"
	"github.com/cppla/miniblog/utils"
	"github.com/cppla/miniblog/views"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync()

	if err := cfg.ValidateServer(); err != nil {
		utils.Sugar.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		utils.Sugar.Fatalf("startup failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			utils.Sugar.Warnf("shutdown: %v", err)
		}
	}()

	if days := cfg.NotificationRetentionDays; days > 0 {
		retention := time.Duration(days) * 24 * time.Hour
		utils.StartJanitor(ctx, "prune-notifications", time.Hour, func(ctx context.Context) error {
			_, err := app.PruneNotifications(ctx, time.Now().Add(-retention))
			return err
		})
	}

	r := routes.SetupRouter(app, views.MustRenderer())

	utils.Sugar.Infof("Starting server on port %s (graceful, store=%s)", cfg.AppPort, cfg.StoreDriver)
	if err := utils.GraceServer(ctx, ":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}
