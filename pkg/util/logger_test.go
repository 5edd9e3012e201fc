package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	logger.Info("scanning search path directory", "path", "/a")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "/a", record["path"])
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelInfo, Format: FormatText, Output: &buf})
	logger.Info("scanning search path directory")

	assert.Contains(t, buf.String(), "scanning search path directory")
}

func TestNewLoggerInfoFilteredAtWarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelWarn, Format: FormatJSON, Output: &buf})
	logger.Info("should not appear")
	assert.Empty(t, buf.String())
}

func TestComponentTagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(LoggerConfig{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	builder := Component(root, "builder")
	builder.Info("built node", "path", "/a/helper.m")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "builder", record["component"])
}

func TestComponentNilRootFallsBackToDefault(t *testing.T) {
	logger := Component(nil, "watch")
	require.NotNil(t, logger)
}
