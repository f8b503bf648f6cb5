package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsNilOutput(t *testing.T) {
	log := New(Config{Level: "error"})
	require.NotNil(t, log)

	// Must not panic even though the config carried no writer.
	assert.NotPanics(t, func() {
		log.Error("write with defaulted output")
	})
}

func TestNewWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", JSON: true, Output: &buf})

	log.Info("hello", "store_id", "store-1")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"store_id":"store-1"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", JSON: true, Output: &buf})

	log.Info("suppressed")
	assert.Empty(t, buf.String())

	log.Error("emitted")
	assert.Contains(t, buf.String(), `"msg":"emitted"`)
}

func TestLogErrorIncludesError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", JSON: true, Output: &buf})

	log.LogError(assert.AnError, "operation failed", "conversation_id", "c-1")

	assert.Contains(t, buf.String(), assert.AnError.Error())
	assert.Contains(t, buf.String(), `"conversation_id":"c-1"`)
}
