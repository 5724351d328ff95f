// Copyright 2024 The mlops-zoomcamp-2024 Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logx routes the Beam log package to zerolog.
package logx

import (
	"context"
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/rs/zerolog"
)

// Logger is a log.Logger writing structured zerolog events.
type Logger struct {
	zl zerolog.Logger
}

// New returns a Logger writing JSON events at or above level to w.
func New(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewConsole returns a Logger writing human-readable lines to w.
func NewConsole(w io.Writer, level zerolog.Level) *Logger {
	return New(zerolog.ConsoleWriter{Out: w, NoColor: true}, level)
}

// With returns a Logger that adds the given string field to every event.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Install makes l the global Beam logger.
func (l *Logger) Install() {
	log.SetLogger(l)
}

// Log implements log.Logger.
func (l *Logger) Log(ctx context.Context, sev log.Severity, calldepth int, msg string) {
	ev := l.zl.WithLevel(Level(sev))
	if _, file, line, ok := runtime.Caller(calldepth); ok {
		ev = ev.Str("caller", filepath.Base(file)+":"+strconv.Itoa(line))
	}
	ev.Msg(strings.TrimSuffix(msg, "\n"))
}

// Level maps a Beam severity to a zerolog level. Fatal maps to error since
// the Beam log package exits or panics itself after logging.
func Level(sev log.Severity) zerolog.Level {
	switch sev {
	case log.SevDebug:
		return zerolog.DebugLevel
	case log.SevWarn:
		return zerolog.WarnLevel
	case log.SevError, log.SevFatal:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a level name such as "debug" or "warn". The empty string
// is info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(s))
}
