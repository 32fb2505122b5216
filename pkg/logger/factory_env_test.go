package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/logger"
)

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	t.Run("development is text at debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger.New(logger.WithEnvironment(logger.EnvDevelopment, "svc"), logger.WithOutput(&buf)).Debug("msg")
		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "service=svc")
		assert.Contains(t, out, "env=development")
	})

	t.Run("aliases resolve to presets", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithEnvironment("PROD", "svc"), logger.WithOutput(&buf))
		log.Debug("hidden")
		assert.Empty(t, buf.String())

		log.Info("msg")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, logger.EnvProduction, entry["env"])
		assert.Equal(t, "svc", entry["service"])
	})

	t.Run("unknown environment falls back to development", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger.New(logger.WithEnvironment("qa", ""), logger.WithOutput(&buf)).Debug("msg")
		assert.Contains(t, buf.String(), "env=development")
		assert.NotContains(t, buf.String(), "service=")
	})
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("production with level override", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log, err := logger.FromConfig(logger.Config{
			Env:     logger.EnvProduction,
			Service: "mailqueue",
			Level:   "warn",
		}, logger.WithOutput(buf))
		require.NoError(t, err)

		log.Info("hidden")
		assert.Empty(t, buf.String())

		log.Warn("shown")
		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "mailqueue", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})

	t.Run("format override", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log, err := logger.FromConfig(logger.Config{
			Env:     logger.EnvStaging,
			Service: "mailqueue",
			Format:  logger.FormatText,
		}, logger.WithOutput(buf))
		require.NoError(t, err)

		log.Info("hello")
		assert.Contains(t, buf.String(), "service=mailqueue")
		assert.Contains(t, buf.String(), "env=staging")
	})

	t.Run("invalid level", func(t *testing.T) {
		t.Parallel()

		_, err := logger.FromConfig(logger.Config{Env: logger.EnvDevelopment, Service: "svc", Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		t.Parallel()

		_, err := logger.FromConfig(logger.Config{Env: logger.EnvDevelopment, Service: "svc", Format: "xml"})
		assert.Error(t, err)
	})
}
