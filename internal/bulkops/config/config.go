package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Audit write modes
const (
	AuditModeBestEffort    = "best_effort"
	AuditModeTransactional = "transactional"
)

// Store drivers
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	MongoURI             string
	Port                 string
	DBName               string
	RecordsCollection    string
	OperationsCollection string
	AuditCollection      string
	StoreDriver          string
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration
	LogLevel             string

	RedisAddr    string
	RedisChannel string

	Engine EngineConfig
}

// EngineConfig carries the bulk engine's tunables. The estimates are linear
// heuristics, kept configurable so thresholds can be exercised.
type EngineConfig struct {
	HighVolumeThreshold   int
	UndoWindow            time.Duration
	ThroughputPerSecond   int
	PerTargetCost         float64
	PrivilegedRoles       []string
	PrivilegedPermissions []string
	AuditMode             string
	NotifyConcurrency     int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HighVolumeThreshold:   50,
		UndoWindow:            24 * time.Hour,
		ThroughputPerSecond:   20,
		PerTargetCost:         0.05,
		PrivilegedRoles:       []string{"SUPER_ADMIN", "ADMIN"},
		PrivilegedPermissions: []string{"DELETE_ALL_DATA", "MODIFY_SECURITY_SETTINGS"},
		AuditMode:             AuditModeBestEffort,
		NotifyConcurrency:     8,
	}
}

func LoadConfig() (*Config, error) {
	defaults := DefaultEngineConfig()

	cfg := &Config{
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Port:                 getEnv("PORT", "8080"),
		DBName:               getEnv("DB_NAME", "bulkops_db"),
		RecordsCollection:    getEnv("COLLECTION_USERS", "users"),
		OperationsCollection: getEnv("COLLECTION_BULK_OPERATIONS", "bulk_operations"),
		AuditCollection:      getEnv("COLLECTION_AUDIT", "bulk_operation_audit"),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		ReadTimeout:          getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisChannel:         getEnv("REDIS_CHANNEL", "bulk_operations"),
		Engine: EngineConfig{
			HighVolumeThreshold:   getEnvInt("HIGH_VOLUME_THRESHOLD", defaults.HighVolumeThreshold),
			UndoWindow:            time.Duration(getEnvInt("UNDO_WINDOW_HOURS", 24)) * time.Hour,
			ThroughputPerSecond:   getEnvInt("THROUGHPUT_PER_SECOND", defaults.ThroughputPerSecond),
			PerTargetCost:         getEnvFloat("PER_TARGET_COST", defaults.PerTargetCost),
			PrivilegedRoles:       getEnvList("PRIVILEGED_ROLES", defaults.PrivilegedRoles),
			PrivilegedPermissions: getEnvList("PRIVILEGED_PERMISSIONS", defaults.PrivilegedPermissions),
			AuditMode:             strings.ToLower(getEnv("AUDIT_MODE", defaults.AuditMode)),
			NotifyConcurrency:     getEnvInt("NOTIFY_CONCURRENCY", defaults.NotifyConcurrency),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StoreDriver != StoreMongo && c.StoreDriver != StoreMemory {
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreMongo, StoreMemory)
	}
	if c.StoreDriver == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	return c.Engine.Validate()
}

func (e EngineConfig) Validate() error {
	if e.HighVolumeThreshold < 1 {
		return fmt.Errorf("HIGH_VOLUME_THRESHOLD must be positive")
	}
	if e.UndoWindow <= 0 {
		return fmt.Errorf("UNDO_WINDOW_HOURS must be positive")
	}
	if e.ThroughputPerSecond < 1 {
		return fmt.Errorf("THROUGHPUT_PER_SECOND must be positive")
	}
	if e.PerTargetCost < 0 {
		return fmt.Errorf("PER_TARGET_COST cannot be negative")
	}
	if e.AuditMode != AuditModeBestEffort && e.AuditMode != AuditModeTransactional {
		return fmt.Errorf("AUDIT_MODE must be %q or %q", AuditModeBestEffort, AuditModeTransactional)
	}
	if e.NotifyConcurrency < 1 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns fallback when the variable is unset. A malformed value is
// kept as -1 so Validate rejects it instead of silently using the default.
func getEnvInt(key string, fallback int) int {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return -1
	}
	return val
}

func getEnvFloat(key string, fallback float64) float64 {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return fallback
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return -1
	}
	return val
}

func getEnvList(key string, fallback []string) []string {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valStr, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		// Try parsing as duration string, e.g. "10s"
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}
