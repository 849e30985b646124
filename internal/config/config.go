// Package config 负责加载和验证网关配置。
// 配置文件为 JSON（YAML 的子集），同样接受 .yaml/.yml。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPaths 未显式指定时依次查找的配置文件
var DefaultPaths = []string{"config.json", "config/config.json"}

// Config 应用配置根结构
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" json:"server"`
	// API 鉴权与上游超时配置
	API APIConfig `yaml:"api" json:"api"`
	// Log 日志配置
	Log LogConfig `yaml:"log" json:"log"`
	// Upstream 上游访问策略
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`
	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	// Host 监听地址
	Host string `yaml:"host" json:"host"`
	// Port 监听端口
	Port int `yaml:"port" json:"port"`
	// Workers 工作线程数，0 表示 CPU 核数（作用于 GOMAXPROCS）
	Workers int `yaml:"workers" json:"workers"`
}

// APIConfig 鉴权与超时
type APIConfig struct {
	// APIKey Bearer Token，为空时关闭鉴权
	APIKey string `yaml:"api_key" json:"api_key"`
	// TimeoutSecs 上游请求总超时（秒）
	TimeoutSecs int `yaml:"timeout_secs" json:"timeout_secs"`
	// ConnectTimeoutSecs 上游连接超时（秒）
	ConnectTimeoutSecs int `yaml:"connect_timeout_secs" json:"connect_timeout_secs"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别: debug, info, warn, error
	Level string `yaml:"level" json:"level"`
	// File 日志文件路径，为空时只输出到标准输出
	File string `yaml:"file" json:"file"`
	// MaxSizeMB 单个日志文件大小上限
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`
	// MaxBackups 保留的历史文件数
	MaxBackups int `yaml:"max_backups" json:"max_backups"`
	// MaxAgeDays 历史文件保留天数
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`
}

// UpstreamConfig 上游访问策略
type UpstreamConfig struct {
	// PerHostConcurrency 同一上游主机的最大并发请求数（1-3）
	PerHostConcurrency int `yaml:"per_host_concurrency" json:"per_host_concurrency"`
	// MinGapMs 同一主机两次请求之间的最小间隔（毫秒）
	MinGapMs int `yaml:"min_gap_ms" json:"min_gap_ms"`
	// MaxRetries 超时或 5xx 时的最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// CZCEXLSXCutover 郑商所文件由 .xls 切换为 .xlsx 的首个交易日 YYYYMMDD
	CZCEXLSXCutover string `yaml:"czce_xlsx_cutover" json:"czce_xlsx_cutover"`
	// DCEReferenceContract 大商所批量下载接口使用的参考合约
	DCEReferenceContract string `yaml:"dce_reference_contract" json:"dce_reference_contract"`
	// GFEXFallbackVarieties 广期所品种列表不可用时的兜底品种
	GFEXFallbackVarieties []string `yaml:"gfex_fallback_varieties" json:"gfex_fallback_varieties"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enabled 是否暴露 Prometheus 指标
	Enabled *bool `yaml:"enabled" json:"enabled"`
	// Path 指标路由
	Path string `yaml:"path" json:"path"`
}

// Default 返回全部取默认值的配置
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// Load 从文件加载配置并验证
// 参数 path: 配置文件路径
// 返回: 解析后的配置对象，若失败则返回错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析配置内容并验证
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}
	return &cfg, nil
}

// Resolve 按查找顺序加载配置
// 参数 explicit: 命令行指定的路径，非空时必须存在
// 返回: 配置、实际使用的文件（使用默认值时为空）与错误
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, p, fmt.Errorf("读取配置文件失败: %w", err)
		}
		cfg, err := Load(p)
		return cfg, p, err
	}
	return Default(), "", nil
}

// setDefaults 设置配置默认值
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = 30
	}
	if c.API.ConnectTimeoutSecs == 0 {
		c.API.ConnectTimeoutSecs = 10
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 30
	}

	if c.Upstream.PerHostConcurrency == 0 {
		c.Upstream.PerHostConcurrency = 2
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = 2
	}
	if c.Upstream.CZCEXLSXCutover == "" {
		c.Upstream.CZCEXLSXCutover = "20251102"
	}
	if c.Upstream.DCEReferenceContract == "" {
		c.Upstream.DCEReferenceContract = "a2601"
	}
	if len(c.Upstream.GFEXFallbackVarieties) == 0 {
		c.Upstream.GFEXFallbackVarieties = []string{"si", "lc", "ps"}
	}

	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate 验证配置合法性
// 返回: 若配置无效则返回汇总全部问题的错误
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: 端口必须在 1-65535 之间，当前值: %d", c.Server.Port))
	}
	if c.Server.Workers < 0 {
		errs = append(errs, "server.workers: 工作线程数不能为负数")
	}

	if c.API.TimeoutSecs <= 0 {
		errs = append(errs, "api.timeout_secs: 超时时间必须为正数")
	}
	if c.API.ConnectTimeoutSecs <= 0 {
		errs = append(errs, "api.connect_timeout_secs: 连接超时必须为正数")
	}
	if c.API.ConnectTimeoutSecs > c.API.TimeoutSecs {
		errs = append(errs, "api.connect_timeout_secs: 连接超时不能大于总超时")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level: 无效的日志级别 '%s'，有效值: debug, info, warn, error", c.Log.Level))
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		errs = append(errs, "log: 日志轮转参数不能为负数")
	}

	if c.Upstream.PerHostConcurrency < 1 || c.Upstream.PerHostConcurrency > 3 {
		errs = append(errs, fmt.Sprintf("upstream.per_host_concurrency: 必须在 1-3 之间，当前值: %d", c.Upstream.PerHostConcurrency))
	}
	if c.Upstream.MinGapMs < 0 {
		errs = append(errs, "upstream.min_gap_ms: 请求间隔不能为负数")
	}
	if c.Upstream.MaxRetries < 0 {
		errs = append(errs, "upstream.max_retries: 重试次数不能为负数")
	}
	if !isYYYYMMDD(c.Upstream.CZCEXLSXCutover) {
		errs = append(errs, fmt.Sprintf("upstream.czce_xlsx_cutover: 日期格式应为 YYYYMMDD，当前值: '%s'", c.Upstream.CZCEXLSXCutover))
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path: 路由必须以 / 开头")
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置验证错误:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isYYYYMMDD(s string) bool {
	if len(s) != 8 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Addr 监听地址 host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MetricsEnabled 是否暴露指标
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}
