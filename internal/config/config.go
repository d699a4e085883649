package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Nodename      string
	EnableProbes  []string
	HipObjectPath string
	HipLibPath    string

	RequiredCallbackAPIEvents bool
	EnableActivityAPI         bool
	MaxAnnotationStrings      int

	FlushInterval time.Duration
}

func LoadConfig() *AppConfig {
	// Optional .env for local runs; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	return &AppConfig{
		Nodename:      getEnvOrDefault("NODE_NAME", "localhost"),
		EnableProbes:  splitList(getEnvOrDefault("ENABLE_PROBES", "")),
		HipObjectPath: getEnvOrDefault("HIP_BPF_OBJECT", "bpf/hiptrace/hiptrace.bpf.o"),
		HipLibPath:    getEnvOrDefault("HIP_LIBRARY_PATH", "/opt/rocm/lib/libamdhip64.so"),

		RequiredCallbackAPIEvents: getEnvBool("REQUIRED_CALLBACK_API_EVENTS", false),
		EnableActivityAPI:         getEnvBool("ENABLE_ACTIVITY_API", true),
		MaxAnnotationStrings:      getEnvInt("MAX_ANNOTATION_STRINGS", 1024),

		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 5*time.Second),
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
