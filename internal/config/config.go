package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 MAILTOOLS_LOOKUP_API_KEY
const EnvPrefix = "MAILTOOLS"

// Config 应用配置
type Config struct {
	WorkDir   string          `yaml:"workdir" mapstructure:"workdir"` // 工作目录，所有相对路径基于此目录
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	TLS       TLSConfig       `yaml:"tls" mapstructure:"tls"`
	Lookup    LookupConfig    `yaml:"lookup" mapstructure:"lookup"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
}

// ServerConfig HTTP API 配置
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// TLSConfig TLS 配置
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// LookupConfig 外部 DNS 查询配置
type LookupConfig struct {
	Backend     string        `yaml:"backend" mapstructure:"backend"`         // api, dns
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`       // 查询 API 地址
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`         // 为空时请求不带凭据
	Nameservers []string      `yaml:"nameservers" mapstructure:"nameservers"` // 仅 dns 后端使用
	Breaker     BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig 熔断配置
type BreakerConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxRequests  uint32        `yaml:"max_requests" mapstructure:"max_requests"`   // 半开状态允许的请求数
	Interval     time.Duration `yaml:"interval" mapstructure:"interval"`           // 关闭状态下计数清零周期
	OpenTimeout  time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`   // 打开到半开的等待时间
	FailureRatio float64       `yaml:"failure_ratio" mapstructure:"failure_ratio"` // 触发熔断的失败率
	MinRequests  uint32        `yaml:"min_requests" mapstructure:"min_requests"`
}

// RateLimitConfig 检查接口的速率限制
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Limit   int           `yaml:"limit" mapstructure:"limit"`
	Window  time.Duration `yaml:"window" mapstructure:"window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // trace, debug, info, warn, error, fatal
	Format string `yaml:"format" mapstructure:"format"` // json, text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, file path
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	Port    int    `yaml:"port" mapstructure:"port"`
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// lookup.api_key 对应 MAILTOOLS_LOOKUP_API_KEY
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load 加载配置，配置文件不存在时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := resolvePaths(&cfg); err != nil {
		return nil, fmt.Errorf("解析路径失败: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	return &cfg, nil
}

// resolvePaths 解析工作目录和相对路径
func resolvePaths(cfg *Config) error {
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("获取当前工作目录失败: %w", err)
		}
		cfg.WorkDir = wd
	}

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("解析工作目录失败: %w", err)
	}
	cfg.WorkDir = workDir

	resolvePath := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(workDir, path)
	}

	cfg.TLS.CertFile = resolvePath(cfg.TLS.CertFile)
	cfg.TLS.KeyFile = resolvePath(cfg.TLS.KeyFile)

	if cfg.Log.Output != "" && cfg.Log.Output != "stdout" && cfg.Log.Output != "stderr" {
		cfg.Log.Output = resolvePath(cfg.Log.Output)
	}

	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("workdir", "")

	v.SetDefault("server.port", 8080)

	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.min_version", "1.2")

	// 查询配置
	v.SetDefault("lookup.backend", "api")
	v.SetDefault("lookup.base_url", "https://api.mxtoolbox.com")
	v.SetDefault("lookup.api_key", "")
	v.SetDefault("lookup.nameservers", []string{})
	v.SetDefault("lookup.breaker.enabled", false)
	v.SetDefault("lookup.breaker.max_requests", 1)
	v.SetDefault("lookup.breaker.interval", time.Minute)
	v.SetDefault("lookup.breaker.open_timeout", 30*time.Second)
	v.SetDefault("lookup.breaker.failure_ratio", 0.6)
	v.SetDefault("lookup.breaker.min_requests", 3)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.limit", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	// 日志配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	// 指标配置
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9090)
}

// validate 验证配置
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("无效的端口: %d", cfg.Server.Port)
	}

	switch cfg.Lookup.Backend {
	case "api":
		if cfg.Lookup.BaseURL == "" {
			return fmt.Errorf("lookup.base_url 不能为空")
		}
		u, err := url.Parse(cfg.Lookup.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("无效的 lookup.base_url: %s", cfg.Lookup.BaseURL)
		}
	case "dns":
	default:
		return fmt.Errorf("不支持的查询后端: %s", cfg.Lookup.Backend)
	}

	if cfg.Lookup.Breaker.Enabled {
		if cfg.Lookup.Breaker.FailureRatio <= 0 || cfg.Lookup.Breaker.FailureRatio > 1 {
			return fmt.Errorf("lookup.breaker.failure_ratio 必须在 (0, 1] 之间")
		}
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("rate_limit.limit 和 rate_limit.window 必须大于 0")
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS 已启用但未配置证书文件")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("证书文件不存在: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("密钥文件不存在: %w", err)
		}
	}

	return nil
}

// Watch 监听配置文件变化，校验通过后回调
func Watch(path string, callback func(*Config) error) error {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			// 使用标准输出记录错误（避免循环依赖）
			fmt.Fprintf(os.Stderr, "配置热更新失败: %v\n", err)
			return
		}

		if err := callback(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "配置热更新失败: 回调错误: %v\n", err)
			return
		}

		fmt.Fprintf(os.Stdout, "配置热更新成功: %s\n", e.Name)
	})
	v.WatchConfig()

	return nil
}
