// Package config loads the engine configuration from a YAML file with
// defaults, letting DATABASE_URL and REDIS_URL override the file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Minio    MinioConfig    `yaml:"minio"`
	AI       AIConfig       `yaml:"ai"`
	Matching MatchingConfig `yaml:"matching"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL             string `yaml:"url"`
	EmbedCacheHours int    `yaml:"embed_cache_hours"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type AIConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MatchingConfig struct {
	GreenThreshold  float64 `yaml:"green_threshold"`
	AmberThreshold  float64 `yaml:"amber_threshold"`
	ReviewThreshold float64 `yaml:"review_threshold"`
	MaxResults      int     `yaml:"max_results"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path when it exists; a missing file yields
// defaults so local tooling can run from env alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8084
	}
	if c.Matching.GreenThreshold == 0 {
		c.Matching.GreenThreshold = 0.75
	}
	if c.Matching.AmberThreshold == 0 {
		c.Matching.AmberThreshold = 0.60
	}
	if c.Matching.ReviewThreshold == 0 {
		c.Matching.ReviewThreshold = 0.85
	}
	if c.Matching.MaxResults == 0 {
		c.Matching.MaxResults = 10
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 30
	}
	if c.Redis.EmbedCacheHours == 0 {
		c.Redis.EmbedCacheHours = 24
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
}
