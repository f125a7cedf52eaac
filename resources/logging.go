package resources

import (
	"os"
	"path"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/activecm/rita-flow/config"
	"github.com/activecm/rita-flow/util"
	"github.com/rifflock/lfshook"
)

// initLogger creates the logger for logging to stderr and, optionally,
// to per level files under the configured log path
func initLogger(logConfig *config.LogStaticCfg) (*log.Logger, error) {
	var logs = &log.Logger{}

	logs.Formatter = new(log.TextFormatter)

	logs.Out = os.Stderr
	logs.Hooks = make(log.LevelHooks)
	logs.Level = logLevel(logConfig.LogLevel)

	if logConfig.LogToFile {
		if err := addFileLogger(logs, logConfig.LogPath); err != nil {
			return nil, err
		}
	}
	return logs, nil
}

// logLevel maps the config's 0-3 scale onto logrus levels
func logLevel(level int) log.Level {
	switch {
	case level >= 3:
		return log.DebugLevel
	case level == 2:
		return log.InfoLevel
	case level == 1:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

func addFileLogger(logger *log.Logger, logPath string) error {
	time := time.Now().Format(util.TimeFormat)
	logPath = path.Join(logPath, time)
	_, err := os.Stat(logPath)
	if err != nil && os.IsNotExist(err) {
		err = os.MkdirAll(logPath, 0755)
		if err != nil {
			return err
		}
	}

	logger.Hooks.Add(lfshook.NewHook(lfshook.PathMap{
		log.DebugLevel: path.Join(logPath, "debug.log"),
		log.InfoLevel:  path.Join(logPath, "info.log"),
		log.WarnLevel:  path.Join(logPath, "warn.log"),
		log.ErrorLevel: path.Join(logPath, "error.log"),
		log.FatalLevel: path.Join(logPath, "fatal.log"),
		log.PanicLevel: path.Join(logPath, "panic.log"),
	}, nil))
	return nil
}
