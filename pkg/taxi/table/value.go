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

package table

import (
	"fmt"
	"strconv"
	"time"
)

// Kind is the type of a column and of the cells stored in it.
type Kind int

const (
	Invalid Kind = iota
	Int64
	Float64
	String
	Timestamp
)

func (k Kind) String() string {
	switch k {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single nullable cell. The zero Value is an invalid-kind null.
type Value struct {
	kind  Kind
	valid bool

	i int64
	f float64
	s string
	t time.Time
}

// Null returns the missing-value marker for a cell of the given kind.
func Null(k Kind) Value {
	return Value{kind: k}
}

// Int64Value returns a non-null int64 cell.
func Int64Value(v int64) Value {
	return Value{kind: Int64, valid: true, i: v}
}

// Float64Value returns a non-null float64 cell. NaN is stored as is; callers
// that treat NaN as missing must check for it.
func Float64Value(v float64) Value {
	return Value{kind: Float64, valid: true, f: v}
}

// StringValue returns a non-null string cell.
func StringValue(v string) Value {
	return Value{kind: String, valid: true, s: v}
}

// TimestampValue returns a non-null timestamp cell.
func TimestampValue(v time.Time) Value {
	return Value{kind: Timestamp, valid: true, t: v}
}

// Kind returns the kind of the cell.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool {
	return !v.valid
}

// AsInt64 returns the int64 payload. ok is false for nulls and other kinds.
func (v Value) AsInt64() (int64, bool) {
	return v.i, v.valid && v.kind == Int64
}

// AsFloat64 returns the float64 payload. ok is false for nulls and other kinds.
func (v Value) AsFloat64() (float64, bool) {
	return v.f, v.valid && v.kind == Float64
}

// AsString returns the string payload. ok is false for nulls and other kinds.
func (v Value) AsString() (string, bool) {
	return v.s, v.valid && v.kind == String
}

// AsTimestamp returns the timestamp payload. ok is false for nulls and other
// kinds.
func (v Value) AsTimestamp() (time.Time, bool) {
	return v.t, v.valid && v.kind == Timestamp
}

// Interface returns the payload as a Go value: int64, float64, string or
// time.Time, and nil for nulls.
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case Int64:
		return v.i
	case Float64:
		return v.f
	case String:
		return v.s
	case Timestamp:
		return v.t
	}
	return nil
}

func (v Value) String() string {
	if !v.valid {
		return "<null>"
	}
	switch v.kind {
	case Int64:
		return strconv.FormatInt(v.i, 10)
	case Float64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return strconv.Quote(v.s)
	case Timestamp:
		return v.t.Format(time.RFC3339Nano)
	}
	return "<invalid>"
}
