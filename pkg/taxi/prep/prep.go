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

// Package prep prepares taxi trips for training: it derives the trip
// duration, drops trips outside the duration bounds and turns categorical
// identifier columns into strings.
package prep

import (
	"math"
	"strconv"
	"time"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

// MissingCategory is the text a missing categorical value is replaced with.
const MissingCategory = "-1"

// Bounds is an inclusive range of trip durations, in minutes.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DefaultBounds keeps trips from 1 to 60 minutes long.
var DefaultBounds = Bounds{Min: 1, Max: 60}

// Contains reports whether min <= d <= max. NaN is never contained.
func (b Bounds) Contains(d float64) bool {
	return b.Min <= d && d <= b.Max
}

// Preparer holds the parameters of a preparation run.
type Preparer struct {
	// Categorical names the columns to stringify, in order.
	Categorical []string
	// Bounds is the duration range of kept trips.
	Bounds Bounds
}

// PrepareData prepares t with the default duration bounds. See
// Preparer.Prepare.
func PrepareData(t *table.Table, categorical []string) (*table.Table, error) {
	return Preparer{Categorical: categorical, Bounds: DefaultBounds}.Prepare(t)
}

// Prepare returns a new table with a float64 "duration" column holding
// dropoff minus pickup in minutes, restricted to the rows whose duration is
// within p.Bounds and with every column in p.Categorical converted to
// strings, missing values becoming MissingCategory. Kept rows retain their
// input order. Rows with a missing timestamp have no duration and are
// dropped. t is not modified.
//
// The pickup and dropoff columns must exist and hold timestamps, and every
// categorical column must exist; otherwise Prepare fails with an error
// matching table.ErrMissingColumn or table.ErrTypeMismatch before doing any
// work.
func (p Preparer) Prepare(t *table.Table) (*table.Table, error) {
	pickup, err := timestampColumn(t, trip.PickupColumn)
	if err != nil {
		return nil, err
	}
	dropoff, err := timestampColumn(t, trip.DropoffColumn)
	if err != nil {
		return nil, err
	}
	for _, name := range p.Categorical {
		if !t.Has(name) {
			return nil, errors.Errorf("categorical column: %w: %q", table.ErrMissingColumn, name)
		}
	}

	durations := make([]table.Value, t.NumRows())
	for i := range durations {
		durations[i] = durationOf(pickup.Values[i], dropoff.Values[i])
	}
	withDuration, err := t.WithColumn(table.Field{Name: trip.DurationColumn, Kind: table.Float64}, durations)
	if err != nil {
		return nil, err
	}
	ret := withDuration.Filter(func(i int) bool {
		d, ok := durations[i].AsFloat64()
		return ok && p.Bounds.Contains(d)
	})

	for _, name := range p.Categorical {
		col, err := ret.Column(name)
		if err != nil {
			return nil, err
		}
		values := make([]table.Value, len(col.Values))
		for i, v := range col.Values {
			values[i] = table.StringValue(Categorize(v))
		}
		if ret, err = ret.WithColumn(table.Field{Name: name, Kind: table.String}, values); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// Duration returns dropoff - pickup in fractional minutes.
func Duration(pickup, dropoff time.Time) float64 {
	return dropoff.Sub(pickup).Minutes()
}

// Categorize returns the text form of a categorical cell. Missing values and
// NaN map to MissingCategory, whole floats print without a fraction and
// timestamps print as RFC 3339.
func Categorize(v table.Value) string {
	if v.IsNull() {
		return MissingCategory
	}
	switch v.Kind() {
	case table.Int64:
		i, _ := v.AsInt64()
		return strconv.FormatInt(i, 10)
	case table.Float64:
		f, _ := v.AsFloat64()
		switch {
		case math.IsNaN(f):
			return MissingCategory
		case f == math.Trunc(f) && math.Abs(f) < 1<<53:
			return strconv.FormatInt(int64(f), 10)
		default:
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case table.String:
		s, _ := v.AsString()
		return s
	case table.Timestamp:
		ts, _ := v.AsTimestamp()
		return ts.Format(time.RFC3339Nano)
	}
	return MissingCategory
}

func durationOf(pickup, dropoff table.Value) table.Value {
	start, ok := pickup.AsTimestamp()
	if !ok {
		return table.Null(table.Float64)
	}
	end, ok := dropoff.AsTimestamp()
	if !ok {
		return table.Null(table.Float64)
	}
	return table.Float64Value(Duration(start, end))
}

func timestampColumn(t *table.Table, name string) (*table.Column, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.Kind != table.Timestamp {
		return nil, errors.Errorf("%w: column %q is %v, want %v", table.ErrTypeMismatch, name, col.Kind, table.Timestamp)
	}
	return col, nil
}
