// Package main 是期货与股票行情网关的入口点。
// 网关从新浪、各期货交易所及第三方站点抓取数据，统一为 JSON 接口对外提供。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"market-data-gateway/internal/api"
	"market-data-gateway/internal/config"
	"market-data-gateway/internal/service"
	"market-data-gateway/internal/transport"
)

// shutdownTimeout 优雅关闭等待在途请求的时间
const shutdownTimeout = 15 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "配置文件路径，为空时依次查找 config.json、config/config.json")
	flag.Parse()

	cfg, used, err := config.Resolve(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	defer logger.Sync()

	if used == "" {
		logger.Info("未找到配置文件，使用默认配置")
	} else {
		logger.Info("已加载配置", zap.String("path", used))
	}

	if cfg.Server.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Server.Workers)
	}

	httpClient := transport.New(transport.Options{
		Timeout:            time.Duration(cfg.API.TimeoutSecs) * time.Second,
		ConnectTimeout:     time.Duration(cfg.API.ConnectTimeoutSecs) * time.Second,
		PerHostConcurrency: cfg.Upstream.PerHostConcurrency,
		MinGap:             time.Duration(cfg.Upstream.MinGapMs) * time.Millisecond,
		MaxRetries:         cfg.Upstream.MaxRetries,
	}, logger)

	src := service.NewSources(httpClient, cfg.Upstream, logger)
	futures := service.NewFutures(src, logger)
	stocks := service.NewStocks(src.Sina, logger)

	opts := api.Options{APIKey: cfg.API.APIKey}
	if cfg.MetricsEnabled() {
		opts.MetricsPath = cfg.Metrics.Path
	}
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(futures, stocks, opts, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 捕获 SIGINT/SIGTERM，触发优雅退出
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("网关启动",
			zap.String("addr", srv.Addr),
			zap.Bool("auth", cfg.API.APIKey != ""),
			zap.String("metrics", opts.MetricsPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP 服务启动失败", zap.String("addr", srv.Addr), zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("收到退出信号，开始优雅关闭")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("优雅关闭超时", zap.Error(err))
		}
	}
	logger.Info("网关已退出")
}

// newLogger 创建 JSON 日志，配置了日志文件时同时写入按大小轮转的文件
func newLogger(lc config.LogConfig) *zap.Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(lc.Level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	if lc.File == "" {
		return logger
	}

	rotator := &lumberjack.Logger{
		Filename:   lc.File,
		MaxSize:    lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		MaxAge:     lc.MaxAgeDays,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(rotator),
		cfg.Level,
	)
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	}))
}
