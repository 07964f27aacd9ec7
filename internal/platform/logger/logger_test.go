package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"idvmgt/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.Log{Level: "info", Format: "json"})

	log.Debug("hidden")
	log.Info("provider added", "idvp_id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "provider added", line["msg"])
	assert.Equal(t, "abc", line["idvp_id"])
	assert.Equal(t, "idvmgt", line["service"])
}

func TestNewWithWriter_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.Log{Level: "debug", Format: "text"})

	log.Debug("cache miss")
	assert.Contains(t, buf.String(), "msg=\"cache miss\"")
}
