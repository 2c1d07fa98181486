package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/coldicp/mailtools/internal/calc"
	"github.com/coldicp/mailtools/internal/checker"
	"github.com/coldicp/mailtools/internal/logger"
	"github.com/coldicp/mailtools/internal/metrics"
	"github.com/coldicp/mailtools/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RequestIDHeader 请求 ID 头，响应中原样返回
const RequestIDHeader = "X-Request-ID"

// Server API 服务器
type Server struct {
	config *Config
	router *gin.Engine
	server *http.Server
}

// Config API 配置
type Config struct {
	Port      int
	TLS       *tls.Config // 为 nil 时使用明文 HTTP
	Checker   *checker.Checker
	Suggester *calc.Suggester
	Metrics   *metrics.Exporter
	Limiter   *ratelimit.Limiter // 为 nil 时不限流
}

// NewServer 创建 API 服务器
func NewServer(cfg *Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewExporter()
	}
	if cfg.Suggester == nil {
		cfg.Suggester = calc.NewSuggester(nil)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(traceMiddleware())
	router.Use(loggerMiddleware())
	router.Use(metricsMiddleware(cfg.Metrics))

	// 健康检查
	router.GET("/health", healthHandler)

	api := router.Group("/api/v1")

	// 记录生成
	api.POST("/dmarc/generate", generateDMARCHandler(cfg.Metrics))
	api.POST("/spf/generate", generateSPFHandler(cfg.Metrics))
	api.GET("/spf/providers", listProvidersHandler)

	// SPF 检查会调用外部 API，按客户端限流
	api.GET("/spf/check/:domain", rateLimitMiddleware(cfg.Limiter, cfg.Metrics), checkSPFHandler(cfg.Checker))

	// 计算工具
	api.GET("/calc/catalog", catalogHandler)
	api.POST("/calc/cost", costHandler)
	api.POST("/calc/roi", roiHandler)
	api.POST("/domains/suggest", suggestHandler(cfg.Suggester))

	return &Server{
		config: cfg,
		router: router,
	}
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动服务器
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		TLSConfig:         s.config.TLS,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info().
		Int("port", s.config.Port).
		Bool("tls", s.config.TLS != nil).
		Msg("API 服务器启动")

	var err error
	if s.config.TLS != nil {
		err = s.server.ListenAndServeTLS("", "")
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("API 服务器错误: %w", err)
	}

	return nil
}

// Stop 停止服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭 API 服务器失败: %w", err)
	}

	logger.Info().Msg("API 服务器已停止")
	return nil
}

// traceMiddleware 为每个请求分配 trace id，客户端传了 X-Request-ID 则沿用
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" {
			traceID = logger.NewTraceID()
		}
		c.Header(RequestIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceIDContext(c.Request.Context(), traceID))
		c.Next()
	}
}

// loggerMiddleware 日志中间件
func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger.InfoCtx(c.Request.Context()).
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("API 请求")
	}
}

// metricsMiddleware 按路由模板统计请求
func metricsMiddleware(m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// rateLimitMiddleware 按客户端 IP 限流
func rateLimitMiddleware(l *ratelimit.Limiter, m *metrics.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		if !l.Allow(c.ClientIP()) {
			m.IncRateLimited()
			logger.WarnCtx(c.Request.Context()).
				Str("ip", c.ClientIP()).
				Msg("SPF 检查请求被限流")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
			})
			return
		}

		c.Next()
	}
}

// healthHandler 健康检查处理器
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
