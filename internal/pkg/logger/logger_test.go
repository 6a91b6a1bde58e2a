package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedCore161/DeviceStreamController/internal/config"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	lm, err := InitLogger(&config.LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	lm.GetLogger().SetOutput(buf)
	t.Cleanup(func() { LoggerInstance = nil })
	return buf
}

func TestInitLogger_Validation(t *testing.T) {
	_, err := InitLogger(nil)
	assert.Error(t, err)

	_, err = InitLogger(&config.LogConfig{Level: "info", Format: "xml", Output: "stdout"})
	assert.Error(t, err)

	_, err = InitLogger(&config.LogConfig{Level: "info", Format: "text", Output: "file"})
	assert.Error(t, err)
	LoggerInstance = nil
}

func TestInitLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agent.log")
	lm, err := InitLogger(&config.LogConfig{Level: "info", Format: "text", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { LoggerInstance = nil })

	Info("hello file")
	_ = lm

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestLogCommandEvent_Fields(t *testing.T) {
	buf := captureJSON(t)

	LogCommandEvent(CommandEvent{
		CommandID: 7,
		Code:      200,
		RunID:     "run-1",
		Stage:     "uploaded",
		Status:    "success",
	}, map[string]interface{}{"path": "still.jpg"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "command", entry["type"])
	assert.Equal(t, float64(7), entry["command_id"])
	assert.Equal(t, "uploaded", entry["stage"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "still.jpg", entry["path"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogCommandEvent_FailedIsError(t *testing.T) {
	buf := captureJSON(t)

	LogCommandEvent(CommandEvent{CommandID: 9, Stage: "finished", Status: "failed"}, nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
}

func TestUpdateConfig_Level(t *testing.T) {
	lm, err := InitLogger(&config.LogConfig{Level: "info", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	t.Cleanup(func() { LoggerInstance = nil })

	require.NoError(t, lm.UpdateConfig(&config.LogConfig{Level: "warn", Format: "text", Output: "stdout"}))
	assert.Equal(t, logrus.WarnLevel, lm.GetLogger().GetLevel())
	assert.Equal(t, "warn", lm.GetConfig().Level)

	assert.Error(t, lm.UpdateConfig(&config.LogConfig{Level: "loud", Format: "text", Output: "stdout"}))
}

func TestHelpers_NoInstance(t *testing.T) {
	LoggerInstance = nil
	assert.NotPanics(t, func() {
		Info("x")
		Errorf("y %d", 1)
		LogSystemEvent("c", "e", "m", InfoLevel, nil)
		LogCommandEvent(CommandEvent{}, nil)
	})
}
