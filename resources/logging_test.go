package resources

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/activecm/rita-flow/config"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, log.ErrorLevel, logLevel(0))
	assert.Equal(t, log.WarnLevel, logLevel(1))
	assert.Equal(t, log.InfoLevel, logLevel(2))
	assert.Equal(t, log.DebugLevel, logLevel(3))
	assert.Equal(t, log.ErrorLevel, logLevel(-4))
}

func TestFileLogger(t *testing.T) {
	dir, err := ioutil.TempDir("", "rita-flow-logs")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	logger, err := initLogger(&config.LogStaticCfg{LogLevel: 2, LogPath: dir, LogToFile: true})
	require.NoError(t, err)
	logger.Out = ioutil.Discard
	logger.Info("analysis started")

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	contents, err := ioutil.ReadFile(path.Join(dir, entries[0].Name(), "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(contents), "analysis started")
}

func TestInitTestResources(t *testing.T) {
	res := InitTestResources(t)
	assert.NotNil(t, res.Config)
	assert.Equal(t, log.DebugLevel, res.Log.Level)
}
