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

// Package errors wraps errors with annotations that read top-down when
// printed. Wrapped errors still satisfy errors.Is and errors.As against
// their causes.
package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// New returns an error with the given message.
func New(message string) error {
	return stderrors.New(message)
}

// Errorf returns an error formatted according to the format specifier. The
// %w verb is honored.
func Errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Wrap annotates err with a message. It returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: message, top: topOf(err)}
}

// Wrapf annotates err with a formatted message. It returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, msg: fmt.Sprintf(format, args...), top: topOf(err)}
}

// WithContext records where err happened, e.g. the file or column being
// processed. It returns nil if err is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, context: context, top: topOf(err)}
}

// WithContextf is WithContext with a format specifier.
func WithContextf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, context: fmt.Sprintf(format, args...), top: topOf(err)}
}

// SetTopLevelMsg sets the message printed first for err and for any error
// later wrapping it.
func SetTopLevelMsg(err error, top string) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, top: top}
}

// SetTopLevelMsgf is SetTopLevelMsg with a format specifier.
func SetTopLevelMsgf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &annotated{cause: err, top: fmt.Sprintf(format, args...)}
}

// topOf returns the top-level message of err only if err is itself an
// annotated error. A top-level message below a foreign wrapper is printed by
// that wrapper's Error.
func topOf(err error) string {
	if a, ok := err.(*annotated); ok {
		return a.top
	}
	return ""
}

// annotated is one link in an error chain. A link carries either a message
// describing a failure or a context line describing where it happened. top
// is propagated from the cause so the outermost link can print it first.
type annotated struct {
	cause   error
	context string
	msg     string
	top     string
}

func (e *annotated) Error() string {
	var b strings.Builder
	if e.top != "" {
		b.WriteString(e.top)
		b.WriteString("\nFull error:\n")
	}
	e.write(&b)
	return b.String()
}

func (e *annotated) write(b *strings.Builder) {
	if e.context != "" {
		fmt.Fprintf(b, "\t%s\n", strings.ReplaceAll(e.context, "\n", "\n\t"))
	}
	if e.msg != "" {
		b.WriteString(e.msg)
		b.WriteString("\n\tcaused by:\n")
	}
	if next, ok := e.cause.(*annotated); ok {
		next.write(b)
		return
	}
	b.WriteString(e.cause.Error())
}

// Format implements fmt.Formatter so %v and %s print the whole chain.
func (e *annotated) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the wrapped cause.
func (e *annotated) Unwrap() error {
	return e.cause
}
