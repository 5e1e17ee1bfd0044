package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	VLM      VLMConfig
	S3       S3Config
}

// DatabaseConfig holds result/catalog storage configuration.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PipelineConfig holds orchestration thresholds and limits.
type PipelineConfig struct {
	MaxFileSizeMB              int
	MaxPagesPerFile            int
	SupportedMIMETypes         []string
	QualityThreshold           float64
	DefaultSplittingStrategy   string
	DefaultConfidenceThreshold float64
	DefaultDPI                 int
	TempDir                    string
}

// VLMConfig holds the vision-language model client configuration.
type VLMConfig struct {
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerSecond float64
}

// S3Config holds object storage ingestion configuration.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxFileSizeMB:              getEnvAsInt("MAX_FILE_SIZE_MB", 100),
			MaxPagesPerFile:            getEnvAsInt("MAX_PAGES_PER_FILE", 500),
			SupportedMIMETypes:         getEnvAsList("SUPPORTED_MIME_TYPES", nil),
			QualityThreshold:           getEnvAsFloat64("QUALITY_THRESHOLD", 0.3),
			DefaultSplittingStrategy:   getEnv("SPLITTING_STRATEGY", "whole_document"),
			DefaultConfidenceThreshold: getEnvAsFloat64("CONFIDENCE_THRESHOLD", 0.7),
			DefaultDPI:                 getEnvAsInt("PAGE_DPI", 300),
			TempDir:                    getEnv("TEMP_DIR", os.TempDir()),
		},
		VLM: VLMConfig{
			BaseURL:           getEnv("VLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:            getEnv("VLM_API_KEY", ""),
			Model:             getEnv("VLM_MODEL", "gpt-4o"),
			Temperature:       getEnvAsFloat64("VLM_TEMPERATURE", 0.1),
			Timeout:           getEnvAsDuration("VLM_TIMEOUT", 60*time.Second),
			RequestsPerSecond: getEnvAsFloat64("VLM_REQUESTS_PER_SECOND", 2),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			UseSSL:    getEnvAsBool("S3_USE_SSL", true),
			Bucket:    getEnv("S3_BUCKET", ""),
		},
	}
}

// Validate checks invariants of the loaded configuration.
func (c *Config) Validate() error {
	if c.Pipeline.MaxFileSizeMB <= 0 {
		return NewAppError(CodeConfig, "MAX_FILE_SIZE_MB must be positive", nil)
	}
	if c.Pipeline.QualityThreshold < 0 || c.Pipeline.QualityThreshold > 1 {
		return NewAppError(CodeConfig, "QUALITY_THRESHOLD must be within [0,1]", nil)
	}
	if c.Pipeline.DefaultConfidenceThreshold < 0 || c.Pipeline.DefaultConfidenceThreshold > 1 {
		return NewAppError(CodeConfig, "CONFIDENCE_THRESHOLD must be within [0,1]", nil)
	}
	return nil
}

// Helper functions for environment variable parsing.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
