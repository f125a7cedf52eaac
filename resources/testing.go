package resources

import (
	"io/ioutil"
	"testing"

	"github.com/activecm/rita-flow/config"
	log "github.com/sirupsen/logrus"
)

// InitTestResources creates a resource bundle from the testing config
// with a logger that discards its output
func InitTestResources(t *testing.T) *Resources {
	conf, err := config.LoadTestingConfig()
	if err != nil {
		t.Fatal(err)
	}

	logger := log.New()
	logger.Out = ioutil.Discard
	logger.Level = logLevel(conf.S.Log.LogLevel)

	return &Resources{
		Config: conf,
		Log:    logger,
	}
}
