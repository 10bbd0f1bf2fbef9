package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSONOutputWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithMissionID("m1").Info().Msg("mission assigned")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "m1", entry["mission_id"])
	assert.Equal(t, "mission assigned", entry["message"])
}

func TestInitConsoleOutputIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: false, Output: &buf})

	Logger.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestInitDefaultsUnknownLevelToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: Level("bogus"), JSONOutput: true, Output: &buf})

	Logger.Debug().Msg("should be suppressed")
	assert.Empty(t, buf.String())

	Logger.Info().Msg("should appear")
	assert.NotEmpty(t, buf.String())
}

func TestWithComponentAttachesField(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithComponent("mission").Info().Msg("hi")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "mission", entry["component"])
}

func TestWithWorkerIDAndScenarioIDAttachFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: InfoLevel, JSONOutput: true, Output: &buf})

	WithWorkerID("w1").Info().Msg("a")
	var entryA map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entryA))
	assert.Equal(t, "w1", entryA["worker_id"])

	buf.Reset()
	WithScenarioID("s1").Info().Msg("b")
	var entryB map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entryB))
	assert.Equal(t, "s1", entryB["scenario_id"])
}

func TestPackageLevelHelpersWriteToGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	Info("info line")
	assert.Contains(t, buf.String(), "info line")

	buf.Reset()
	Warn("warn line")
	assert.Contains(t, buf.String(), "warn line")

	buf.Reset()
	Error("error line")
	assert.Contains(t, buf.String(), "error line")
}
