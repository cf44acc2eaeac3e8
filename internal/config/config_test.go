package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Minute, cfg.Window)
	assert.Equal(t, []string{"namespace", "pod", "node"}, cfg.KeyColumns)
}

func TestValidate_RejectsNonPositiveWindow(t *testing.T) {
	cfg := Default()
	cfg.Window = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsEmptyOutputDir(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsTracingEnabledWithoutEndpoint(t *testing.T) {
	cfg := Default()
	cfg.TracingEnabled = true
	assert.Error(t, cfg.Validate())

	cfg.TracingEndpoint = "collector:4317"
	assert.NoError(t, cfg.Validate())
}
