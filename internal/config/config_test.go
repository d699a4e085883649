package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "localhost", cfg.Nodename)
	assert.Empty(t, cfg.EnableProbes)
	assert.True(t, cfg.EnableActivityAPI)
	assert.False(t, cfg.RequiredCallbackAPIEvents)
	assert.Equal(t, 1024, cfg.MaxAnnotationStrings)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("NODE_NAME", "gpu-node-3")
	t.Setenv("ENABLE_PROBES", "hiptrace, other ,")
	t.Setenv("MAX_ANNOTATION_STRINGS", "64")
	t.Setenv("ENABLE_ACTIVITY_API", "false")
	t.Setenv("REQUIRED_CALLBACK_API_EVENTS", "true")
	t.Setenv("FLUSH_INTERVAL", "250ms")

	cfg := LoadConfig()

	assert.Equal(t, "gpu-node-3", cfg.Nodename)
	assert.Equal(t, []string{"hiptrace", "other"}, cfg.EnableProbes)
	assert.Equal(t, 64, cfg.MaxAnnotationStrings)
	assert.False(t, cfg.EnableActivityAPI)
	assert.True(t, cfg.RequiredCallbackAPIEvents)
	assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval)
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("MAX_ANNOTATION_STRINGS", "lots")
	t.Setenv("ENABLE_ACTIVITY_API", "maybe")
	t.Setenv("FLUSH_INTERVAL", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 1024, cfg.MaxAnnotationStrings)
	assert.True(t, cfg.EnableActivityAPI)
	assert.Equal(t, 5*time.Second, cfg.FlushInterval)
}
