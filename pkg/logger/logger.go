package logger

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// New builds the service logger. Components derive their own entry with Component.
func New(env, level string) *log.Logger {
	l := log.New()
	l.SetOutput(os.Stdout)

	if env == "production" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Component returns an entry tagged with the component name.
func Component(l *log.Logger, name string) *log.Entry {
	return l.WithField("component", name)
}

// Discard returns an entry that drops everything. Used by tests.
func Discard() *log.Entry {
	l := log.New()
	l.SetOutput(io.Discard)
	return log.NewEntry(l)
}
