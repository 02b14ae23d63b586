package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultGatewayPort      = 8081
	DefaultReadTimeoutSec   = 15
	DefaultWriteTimeoutSec  = 30
	DefaultMaxUploadMB      = 20
	DefaultRateLimitEveryMs = 100
	DefaultRateLimitBurst   = 30

	DefaultWorkspaceTTL     = 2 * time.Hour
	DefaultWorkspaceCleanup = 10 * time.Minute
	DefaultSnapshotDir      = "./data/workspaces"
	DefaultSnapshotSchedule = "@every 1m"
	DefaultTimeZone         = "Africa/Harare"

	DefaultLogFolder        = "./logs"
	DefaultLogMaxMB         = 5
	DefaultLogRetentionDays = 7

	DefaultServicesFile = "services.yaml"
	DefaultEnvFile      = ".env"
	DefaultStoreKind    = "pgx"
)

// Banks offered when a cashbook or payments file is uploaded.
var Banks = []string{
	"Ecocash",
	"CBZ Bank Limited",
	"Standard Chartered Bank Zimbabwe",
	"FBC Bank Limited",
	"Stanbic Bank Zimbabwe",
	"Ecobank Zimbabwe",
	"ZB Bank Limited",
	"BancABC Zimbabwe",
	"NMB Bank Limited",
	"Agribank (Agricultural Bank of Zimbabwe)",
	"Steward Bank",
	"POSB (People's Own Savings Bank)",
	"Metbank Limited",
	"First Capital Bank",
}

// Int reads key from a services.yaml config block. YAML and JSON decoders
// produce int, int64 or float64; strings are parsed.
func Int(cfg map[string]interface{}, key string, def int) int {
	if cfg == nil {
		return def
	}
	v, ok := cfg[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(t, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}

func String(cfg map[string]interface{}, key, def string) string {
	if cfg == nil {
		return def
	}
	if v, ok := cfg[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func Bool(cfg map[string]interface{}, key string, def bool) bool {
	if cfg == nil {
		return def
	}
	switch t := cfg[key].(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1", "on":
			return true
		case "false", "no", "0", "off":
			return false
		}
	}
	return def
}

// Duration accepts Go duration strings ("90s", "2h") or a bare number of
// seconds.
func Duration(cfg map[string]interface{}, key string, def time.Duration) time.Duration {
	if cfg == nil {
		return def
	}
	switch t := cfg[key].(type) {
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(t)); err == nil {
			return d
		}
	case int, int64, float64:
		return time.Duration(Int(cfg, key, 0)) * time.Second
	}
	return def
}
