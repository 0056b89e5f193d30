package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"recipe-manager/internal/api"
	recipeService "recipe-manager/internal/core/recipe"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/infrastructure/metrics"
	"recipe-manager/internal/infrastructure/storage"
	"recipe-manager/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		common.LogError("Server exited with error", zap.Error(err))
		common.Sync()
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("driver", cfg.Storage.Driver),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("s3_secret", common.MaskSecret(cfg.Storage.S3.SecretAccessKey)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化儲存後端
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			common.LogWarn("Failed to close storage", zap.Error(err))
		}
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// 初始化食譜服務
	svc, err := recipeService.NewService(ctx, store,
		recipeService.WithSearchCache(recipeService.NewSearchCache(cfg.Cache)),
		recipeService.WithMetrics(m),
		recipeService.WithStorageTimeout(cfg.Storage.Timeout),
		recipeService.WithSeedSamples(cfg.Storage.SeedSamples),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize recipe service: %w", err)
	}
	defer svc.Close()

	// 設置路由
	router, err := api.SetupRouter(ctx, cfg, svc, m)
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	serveErr := make(chan error, 1)
	go func() {
		common.LogInfo(common.MsgAppStarting,
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.String("addr", srv.Addr),
			zap.String("driver", svc.Driver()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中斷信號
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	common.LogInfo(common.MsgShuttingDown)

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	common.LogInfo(common.MsgServerExited)
	return nil
}
