package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "koyote.log")
	require.NoError(t, Init("debug", path, false))
	t.Cleanup(func() { log = nil })

	Get().Debug("device selected")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "device selected")
	assert.Equal(t, logrus.DebugLevel, Get().GetLevel())
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("chatty", "", false))
	t.Cleanup(func() { log = nil })

	assert.Equal(t, logrus.InfoLevel, Get().GetLevel())
}

func TestOrAddsComponentField(t *testing.T) {
	logger, hook := test.NewNullLogger()

	Or(logger, "shader").Info("compiled")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "shader", hook.LastEntry().Data["component"])
}

func TestOrDefaultsToProcessLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	log = logger
	t.Cleanup(func() { log = nil })

	Or(nil, "gfx").Warn("no validation")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "gfx", hook.LastEntry().Data["component"])
}
