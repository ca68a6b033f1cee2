// Package server 提供示例 HTTP 服务。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lwmacct/261015-go-pkg-svcboot/internal/config"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/clicfg"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/svcinfo"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/telemetry"
)

// ShutdownTimeout 优雅关闭的最长等待时间。
const ShutdownTimeout = 10 * time.Second

// Main 协商命令行与配置，初始化遥测后运行服务直到收到 SIGINT/SIGTERM。
func Main() int {
	info := svcinfo.FromBuildInfo("", "")
	session := clicfg.New[config.Settings, config.Arguments](info, config.EnvPrefix,
		clicfg.WithDefaults(config.DefaultSettings()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, info, session.Config.Telemetry)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	if session.Args.EnableWorldPeace {
		slog.Warn("World peace enabled, expect consequences")
	}
	slog.Debug("Arguments", "override_me", session.Args.OverrideMe, "config_override_me", session.Config.OverrideMe)

	ln, err := net.Listen("tcp", session.Config.Application.Addr())
	if err != nil {
		slog.Error("Listen failed", "addr", session.Config.Application.Addr(), "error", err)
		return 1
	}

	if err := Serve(ctx, ln, info, session.Config); err != nil {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

// NewRouter 构造服务路由。
func NewRouter(info svcinfo.Info, cfg config.Settings) http.Handler {
	r := chi.NewRouter()
	r.Use(telemetry.Middleware(info.MetricsName))

	// 健康检查端点
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, `{"status":"ok"}`)
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":%q,"version":%q,"db_dir":%q}`,
			info.Name, info.Version, cfg.Application.ApplicationDBDir)
	})

	return r
}

// Serve 在 ln 上提供服务，ctx 取消后优雅关闭。
func Serve(ctx context.Context, ln net.Listener, info svcinfo.Info, cfg config.Settings) error {
	srv := &http.Server{
		Handler:           NewRouter(info, cfg),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")

	// 使用 WithoutCancel 保持 context 链，同时防止父 context 取消影响 shutdown
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("Server stopped gracefully")

	return nil
}
