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

// Package taxibeam contains Beam transforms for reading and preparing taxi
// trips at scale. Each trip is prepared with the same rules as
// prep.PrepareData applies to a whole table.
package taxibeam

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/apache/beam/sdks/v2/go/pkg/beam"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/io/parquetio"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/register"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/transforms/stats"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/prep"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

func init() {
	register.DoFn3x1[context.Context, trip.Record, func(string), error](&prepareFn{})
	register.Emitter1[string]()
	register.DoFn2x0[trip.Record, func(float64)](&durationFn{})
	register.Emitter1[float64]()

	register.DoFn4x1[int, func(*float64) bool, func(*float64) bool, func(*float64) bool, Summary](&summaryFn{})
	register.Iter1[float64]()
	register.DoFn2x0[context.Context, Summary](&logSummaryFn{})
}

var (
	keptTrips    = beam.NewCounter("taxiprep", "kept")
	droppedTrips = beam.NewCounter("taxiprep", "dropped")
)

// Read reads parquet trip files matching glob as a PCollection<trip.Record>.
func Read(s beam.Scope, glob string) beam.PCollection {
	s = s.Scope("taxibeam.Read")
	return parquetio.Read(s, glob, reflect.TypeOf(trip.Record{}))
}

// Options configure Prepare.
type Options struct {
	// Categorical names the columns to stringify.
	Categorical []string
	// Bounds is the duration range of kept trips.
	Bounds prep.Bounds
	// Columns names the columns written to each output line. Empty means all
	// trip columns plus the duration.
	Columns []string
}

// ValidateColumns checks that every name is a trip column or the duration.
func ValidateColumns(names ...string) error {
	known := map[string]bool{trip.DurationColumn: true}
	for _, f := range trip.Fields() {
		known[f.Name] = true
	}
	for _, name := range names {
		if !known[name] {
			return errors.Errorf("%w: %q is not a trip column", table.ErrMissingColumn, name)
		}
	}
	return nil
}

// Prepare prepares a PCollection<trip.Record> and returns the kept trips as
// JSON object lines, a PCollection<string>. Unknown column names in opts
// panic at construction time.
func Prepare(s beam.Scope, trips beam.PCollection, opts Options) beam.PCollection {
	s = s.Scope("taxibeam.Prepare")
	names := append(append([]string(nil), opts.Categorical...), opts.Columns...)
	if err := ValidateColumns(names...); err != nil {
		panic(err)
	}
	fn := &prepareFn{Categorical: opts.Categorical, Bounds: opts.Bounds, Columns: opts.Columns}
	return beam.ParDo(s, fn, trips)
}

type prepareFn struct {
	Categorical []string    `json:"categorical"`
	Bounds      prep.Bounds `json:"bounds"`
	Columns     []string    `json:"columns"`

	p prep.Preparer
}

func (f *prepareFn) Setup() {
	f.p = prep.Preparer{Categorical: f.Categorical, Bounds: f.Bounds}
}

func (f *prepareFn) ProcessElement(ctx context.Context, r trip.Record, emit func(string)) error {
	t, err := trip.ToTable([]trip.Record{r})
	if err != nil {
		return err
	}
	out, err := f.p.Prepare(t)
	if err != nil {
		return err
	}
	if out.NumRows() == 0 {
		droppedTrips.Inc(ctx, 1)
		return nil
	}
	keptTrips.Inc(ctx, 1)

	records, err := out.Records(f.Columns...)
	if err != nil {
		return err
	}
	line, err := json.Marshal(records[0])
	if err != nil {
		return errors.Wrap(err, "encoding prepared trip")
	}
	emit(string(line))
	return nil
}

// Durations returns the durations in minutes, a PCollection<float64>, of the
// trips in a PCollection<trip.Record> that fall within bounds. Trips missing
// a timestamp are skipped.
func Durations(s beam.Scope, trips beam.PCollection, bounds prep.Bounds) beam.PCollection {
	s = s.Scope("taxibeam.Durations")
	return beam.ParDo(s, &durationFn{Bounds: bounds}, trips)
}

type durationFn struct {
	Bounds prep.Bounds `json:"bounds"`
}

func (f *durationFn) ProcessElement(r trip.Record, emit func(float64)) {
	if r.Pickup == nil || r.Dropoff == nil {
		return
	}
	d := prep.Duration(trip.FromMicros(*r.Pickup), trip.FromMicros(*r.Dropoff))
	if f.Bounds.Contains(d) {
		emit(d)
	}
}

// Summary describes the durations of the kept trips.
type Summary struct {
	Count int64
	Mean  float64
	Min   float64
	Max   float64
}

// Summarize reduces a PCollection<float64> of durations to a singleton
// PCollection<Summary> and logs it. An empty input summarizes to the zero
// Summary.
func Summarize(s beam.Scope, durations beam.PCollection) beam.PCollection {
	s = s.Scope("taxibeam.Summarize")
	count := stats.CountElms(s, durations)
	mean := stats.Mean(s, durations)
	lo := stats.Min(s, durations)
	hi := stats.Max(s, durations)

	summary := beam.ParDo(s, &summaryFn{}, count,
		beam.SideInput{Input: mean},
		beam.SideInput{Input: lo},
		beam.SideInput{Input: hi},
	)
	beam.ParDo0(s, &logSummaryFn{}, summary)
	return summary
}

// summaryFn joins the singleton statistics into a Summary. The statistics
// are read as iterables since they are empty when there are no durations.
type summaryFn struct{}

func (f *summaryFn) ProcessElement(count int, mean, lo, hi func(*float64) bool) Summary {
	ret := Summary{Count: int64(count)}
	if count == 0 {
		return ret
	}
	mean(&ret.Mean)
	lo(&ret.Min)
	hi(&ret.Max)
	return ret
}

type logSummaryFn struct{}

func (f *logSummaryFn) ProcessElement(ctx context.Context, s Summary) {
	log.Infof(ctx, "Kept %v trips, duration mean %.2f min, range [%.2f, %.2f]", s.Count, s.Mean, s.Min, s.Max)
}
