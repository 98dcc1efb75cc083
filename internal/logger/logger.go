package logger

import (
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      IsTerminal(os.Stdout),
		DisableTimestamp: true,
	})

	// level is set from config by SetDebug
	log.SetLevel(logrus.InfoLevel)

	return log
}

func SetDebug(debug bool) {
	if debug {
		Log.SetLevel(logrus.DebugLevel)
		return
	}
	Log.SetLevel(logrus.InfoLevel)
}

// ForRun returns an entry tagged with a short random id, one per conversion.
func ForRun() *logrus.Entry {
	return Log.WithField("run", uuid.NewString()[:8])
}

func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
