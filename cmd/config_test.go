package cmd

import (
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"  info  ", slog.LevelInfo},
		{"-4", slog.LevelDebug},
		{"8", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultOutput, viper.GetString(outputConfigKey))
	assert.Equal(t, defaultBudget, viper.GetInt(budgetConfigKey))
	assert.Equal(t, defaultVerifyFirst, viper.GetBool(verifyFirstConfigKey))
	assert.Equal(t, defaultToolchain, viper.GetString(toolchainConfigKey))
	assert.Equal(t, defaultRunParallel, viper.GetInt(parallelConfigKey))
}
