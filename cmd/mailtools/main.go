package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coldicp/mailtools/internal/api"
	"github.com/coldicp/mailtools/internal/calc"
	"github.com/coldicp/mailtools/internal/checker"
	"github.com/coldicp/mailtools/internal/config"
	"github.com/coldicp/mailtools/internal/logger"
	"github.com/coldicp/mailtools/internal/lookup"
	"github.com/coldicp/mailtools/internal/metrics"
	"github.com/coldicp/mailtools/internal/ratelimit"
	tlsconfig "github.com/coldicp/mailtools/internal/tls"
	"github.com/rs/zerolog/log"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath = flag.String("c", "mailtools.yml", "配置文件路径")
		version    = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *version {
		fmt.Printf("mailtools version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("lookup_backend", cfg.Lookup.Backend).
		Msg("mailtools 启动")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exporter := metrics.NewExporter()

	resolver, err := lookup.New(cfg.Lookup)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化查询器失败")
	}

	// 加载 TLS 配置
	var (
		tlsConfig *tls.Config
		reloader  *tlsconfig.CertReloader
	)
	if cfg.TLS.Enabled {
		tlsConfig, reloader, err = tlsconfig.LoadTLSConfig(&cfg.TLS)
		if err != nil {
			log.Fatal().Err(err).Msg("加载 TLS 配置失败")
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
		go limiter.Cleanup(ctx)
	}

	apiServer := api.NewServer(&api.Config{
		Port:      cfg.Server.Port,
		TLS:       tlsConfig,
		Checker:   checker.New(resolver, exporter),
		Suggester: calc.NewSuggester(nil),
		Metrics:   exporter,
		Limiter:   limiter,
	})

	go func() {
		if err := apiServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("API 服务器启动失败")
			cancel()
		}
	}()

	// 启动指标服务器
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, exporter.Handler())

		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Info().Int("port", cfg.Metrics.Port).Str("path", cfg.Metrics.Path).Msg("指标服务器启动")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("指标服务器错误")
			}
		}()
	}

	// 配置热更新：日志级别、证书路径和内容，开关 TLS 等其余配置需要重启
	if err := config.Watch(*configPath, func(newCfg *config.Config) error {
		logger.SetLevel(newCfg.Log.Level)
		if reloader != nil && newCfg.TLS.Enabled {
			return reloader.ReloadFrom(newCfg.TLS.CertFile, newCfg.TLS.KeyFile)
		}
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("配置热更新未启用")
	}

	log.Info().Msg("所有服务已启动")

	// 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("收到退出信号")
	case <-ctx.Done():
		log.Info().Msg("上下文取消")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("停止 API 服务器失败")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("停止指标服务器失败")
		}
	}

	log.Info().Msg("mailtools 关闭")
}
