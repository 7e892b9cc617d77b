package logger

import (
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер.
// В development логи текстовые, в остальных окружениях JSON.
func Init(level, env string) *logrus.Logger {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if env == "development" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
	return Log
}

// Component возвращает логгер с полем component; до Init используется стандартный логгер.
func Component(name string) logrus.FieldLogger {
	if Log == nil {
		return logrus.StandardLogger().WithField("component", name)
	}
	return Log.WithField("component", name)
}
