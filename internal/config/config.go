package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"footfall-data/internal/analytics"
)

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN 拼接 lib/pq 连接串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 客流仪表盘服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	HTTP struct {
		Addr string
	}

	Session struct {
		TTLMinutes int // 会话有效期（分钟）
	}

	// 区域拓扑，AREAS_FILE 指向 YAML 文件时从文件加载，否则用内置默认布局
	Areas []analytics.AreaSpec

	Report struct {
		OutputDir  string
		WebhookURL string // 为空则不通知
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "footfall")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":5050")
	cfg.Session.TTLMinutes = getEnvInt("SESSION_TTL_MINUTES", 120)

	cfg.Report.OutputDir = getEnv("REPORT_OUTPUT_DIR", "reports")
	cfg.Report.WebhookURL = getEnv("REPORT_WEBHOOK_URL", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	areas, err := loadAreas(getEnv("AREAS_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Areas = areas

	return cfg, nil
}

// AreaByName 按名称查找区域定义
func (c *Config) AreaByName(name string) (analytics.AreaSpec, bool) {
	for _, a := range c.Areas {
		if a.Name == name {
			return a, true
		}
	}
	return analytics.AreaSpec{}, false
}

// DefaultAreas 内置的站点布局（与历史部署一致）
func DefaultAreas() []analytics.AreaSpec {
	return []analytics.AreaSpec{
		{Name: "Cold Storage", Topology: analytics.TopologyCrossBoundary, Inward: "A7", Outward: "A6"},
		{Name: "A8", Topology: analytics.TopologySingle, Cameras: []string{"A8"}},
		{Name: "Canteen", Topology: analytics.TopologySum, Cameras: []string{"A4", "A5"}, Within: "2nd Floor"},
		{Name: "2nd Floor", Topology: analytics.TopologySum, Cameras: []string{"A1", "A2", "A3", "A6"}},
	}
}

type areasFile struct {
	Areas []analytics.AreaSpec `yaml:"areas"`
}

func loadAreas(path string) ([]analytics.AreaSpec, error) {
	if path == "" {
		return DefaultAreas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read areas file: %w", err)
	}
	var parsed areasFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse areas file: %w", err)
	}
	if len(parsed.Areas) == 0 {
		return nil, fmt.Errorf("areas file %s defines no areas", path)
	}
	for _, a := range parsed.Areas {
		if err := validateArea(a); err != nil {
			return nil, err
		}
	}
	return parsed.Areas, nil
}

func validateArea(a analytics.AreaSpec) error {
	switch a.Topology {
	case analytics.TopologyCrossBoundary:
		if a.Inward == "" || a.Outward == "" {
			return fmt.Errorf("area %q: cross_boundary requires inward and outward cameras", a.Name)
		}
	case analytics.TopologySum, analytics.TopologySingle:
		if len(a.Cameras) == 0 {
			return fmt.Errorf("area %q: no cameras defined", a.Name)
		}
	default:
		return fmt.Errorf("area %q: unknown topology %q", a.Name, a.Topology)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
