package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const timeFormat = "2006-01-02 15:04:05"

// levelSplitter writes errors and worse to one writer and everything else to another.
type levelSplitter struct {
	out io.Writer
	err io.Writer
}

func newConsoleSplitter() levelSplitter {
	return levelSplitter{
		out: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat},
		err: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: timeFormat},
	}
}

func (s levelSplitter) Write(p []byte) (n int, err error) {
	return s.out.Write(p)
}

func (s levelSplitter) WriteLevel(level zerolog.Level, p []byte) (n int, err error) {
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

func setupLogging(level zerolog.Level) {
	log.Logger = zerolog.New(newConsoleSplitter()).Level(level).With().Timestamp().Logger()
}

// badgerLogger routes the session cache's internal logs through zerolog.
// Badger's info output is startup chatter, so it is demoted to debug.
type badgerLogger struct {
	level zerolog.Level
}

func (l badgerLogger) emit(level zerolog.Level, format string, args []interface{}) {
	if level < l.level {
		return
	}
	log.WithLevel(level).Str("component", "cache").Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.emit(zerolog.ErrorLevel, format, args)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.emit(zerolog.WarnLevel, format, args)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.emit(zerolog.DebugLevel, format, args)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.emit(zerolog.TraceLevel, format, args)
}
