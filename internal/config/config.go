package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config cxr-learning 服务配置
type Config struct {
	HTTP struct {
		Addr           string `yaml:"addr"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
		MaxImagePixels int    `yaml:"max_image_pixels"` // 解码前按宽 x 高检查
	} `yaml:"http"`
	Session struct {
		Backend   string        `yaml:"backend"` // memory | redis | postgres
		TTL       time.Duration `yaml:"ttl"`
		KeyPrefix string        `yaml:"key_prefix"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		MaxConns int    `yaml:"max_conns"`
		MaxIdle  int    `yaml:"max_idle"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	KnowledgeFile string `yaml:"knowledge_file"` // 为空时使用嵌入的知识库
}

// Default 默认配置（本地开发直接可用，无需 Redis 或 PostgreSQL）
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.HTTP.MaxUploadBytes = 20 << 20
	cfg.HTTP.MaxImagePixels = 40_000_000
	cfg.Session.Backend = BackendMemory
	cfg.Session.TTL = 24 * time.Hour
	cfg.Session.KeyPrefix = "cxr:session:"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Name = "cxr_learning"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 10
	cfg.Database.MaxIdle = 2
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load 默认值 -> CXR_CONFIG 指向的 YAML -> 环境变量
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("CXR_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.MaxUploadBytes = int64(parseInt(getEnv("MAX_UPLOAD_BYTES", ""), int(c.HTTP.MaxUploadBytes)))
	c.HTTP.MaxImagePixels = parseInt(getEnv("MAX_IMAGE_PIXELS", ""), c.HTTP.MaxImagePixels)

	c.Session.Backend = strings.ToLower(getEnv("SESSION_BACKEND", c.Session.Backend))
	c.Session.TTL = parseDuration(getEnv("SESSION_TTL", ""), c.Session.TTL)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = parseInt(getEnv("REDIS_DB", ""), c.Redis.DB)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = parseInt(getEnv("DB_PORT", ""), c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.KnowledgeFile = getEnv("KNOWLEDGE_FILE", c.KnowledgeFile)
}

// Validate 校验后端与数值范围
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendMemory, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.HTTP.MaxUploadBytes)
	}
	if c.HTTP.MaxImagePixels <= 0 {
		return fmt.Errorf("max image pixels must be positive, got %d", c.HTTP.MaxImagePixels)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
