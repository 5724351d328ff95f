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

package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
	"github.com/xorcare/pointer"

	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

var start = time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)

func record(pu, do *int64, minutes int) trip.Record {
	return trip.Record{
		VendorID:     pointer.Int64(2),
		Pickup:       trip.Micros(start),
		Dropoff:      trip.Micros(start.Add(time.Duration(minutes) * time.Minute)),
		PULocationID: pu,
		DOLocationID: do,
		FareAmount:   pointer.Float64(float64(minutes) * 1.5),
	}
}

func writeFixture(t *testing.T, name string, records ...trip.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := WriteParquet(context.Background(), path, records); err != nil {
		t.Fatalf("WriteParquet(%v) failed: %v", path, err)
	}
	return path
}

func projection(t *testing.T, tbl *table.Table) []table.Record {
	t.Helper()
	got, err := tbl.Records(trip.PULocationID, trip.DOLocationID, "fare_amount")
	if err != nil {
		t.Fatalf("Records() failed: %v", err)
	}
	return got
}

func TestIngestFiles(t *testing.T) {
	path := writeFixture(t, "trips.parquet",
		record(pointer.Int64(161), pointer.Int64(237), 10),
		record(nil, pointer.Int64(1), 90),
	)

	tbl, err := Run(context.Background(), "ingest_files", Config{"path": path, "execution_date": "2024-06-01"})
	if err != nil {
		t.Fatalf("Run(ingest_files) failed: %v", err)
	}
	want := []table.Record{
		{trip.PULocationID: int64(161), trip.DOLocationID: int64(237), "fare_amount": 15.0},
		{trip.PULocationID: nil, trip.DOLocationID: int64(1), "fare_amount": 135.0},
	}
	if d := cmp.Diff(want, projection(t, tbl)); d != "" {
		t.Errorf("IngestFiles() mismatch (-want +got):\n%s", d)
	}

	pickups, err := tbl.Column(trip.PickupColumn)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := pickups.Values[0].AsTimestamp(); !got.Equal(start) {
		t.Errorf("pickup = %v, want %v", got, start)
	}
}

func TestReadParquet_KeepsPathOrder(t *testing.T) {
	first := writeFixture(t, "a.parquet", record(pointer.Int64(1), nil, 5))
	second := writeFixture(t, "b.parquet", record(pointer.Int64(2), nil, 6), record(pointer.Int64(3), nil, 7))

	tbl, err := IngestFiles(context.Background(), Config{"paths": []string{second, first}})
	if err != nil {
		t.Fatalf("IngestFiles() failed: %v", err)
	}
	want := []table.Record{
		{trip.PULocationID: int64(2), trip.DOLocationID: nil, "fare_amount": 9.0},
		{trip.PULocationID: int64(3), trip.DOLocationID: nil, "fare_amount": 10.5},
		{trip.PULocationID: int64(1), trip.DOLocationID: nil, "fare_amount": 7.5},
	}
	if d := cmp.Diff(want, projection(t, tbl)); d != "" {
		t.Errorf("IngestFiles() mismatch (-want +got):\n%s", d)
	}
}

func TestReadParquet_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.parquet")
	if _, err := ReadParquet(context.Background(), path); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadParquet(%v) = %v, want fs.ErrNotExist", path, err)
	}
}

// pandasTrip has the column layout pandas and pyarrow produce for the TLC
// files: every column is OPTIONAL, timestamps included.
type pandasTrip struct {
	VendorID             *int64   `parquet:"name=VendorID, type=INT64, repetitiontype=OPTIONAL"`
	Pickup               *int64   `parquet:"name=tpep_pickup_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
	Dropoff              *int64   `parquet:"name=tpep_dropoff_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
	PassengerCount       *float64 `parquet:"name=passenger_count, type=DOUBLE, repetitiontype=OPTIONAL"`
	TripDistance         *float64 `parquet:"name=trip_distance, type=DOUBLE, repetitiontype=OPTIONAL"`
	RatecodeID           *float64 `parquet:"name=RatecodeID, type=DOUBLE, repetitiontype=OPTIONAL"`
	StoreAndFwdFlag      *string  `parquet:"name=store_and_fwd_flag, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	PULocationID         *int64   `parquet:"name=PULocationID, type=INT64, repetitiontype=OPTIONAL"`
	DOLocationID         *int64   `parquet:"name=DOLocationID, type=INT64, repetitiontype=OPTIONAL"`
	PaymentType          *int64   `parquet:"name=payment_type, type=INT64, repetitiontype=OPTIONAL"`
	FareAmount           *float64 `parquet:"name=fare_amount, type=DOUBLE, repetitiontype=OPTIONAL"`
	Extra                *float64 `parquet:"name=extra, type=DOUBLE, repetitiontype=OPTIONAL"`
	MTATax               *float64 `parquet:"name=mta_tax, type=DOUBLE, repetitiontype=OPTIONAL"`
	TipAmount            *float64 `parquet:"name=tip_amount, type=DOUBLE, repetitiontype=OPTIONAL"`
	TollsAmount          *float64 `parquet:"name=tolls_amount, type=DOUBLE, repetitiontype=OPTIONAL"`
	ImprovementSurcharge *float64 `parquet:"name=improvement_surcharge, type=DOUBLE, repetitiontype=OPTIONAL"`
	TotalAmount          *float64 `parquet:"name=total_amount, type=DOUBLE, repetitiontype=OPTIONAL"`
	CongestionSurcharge  *float64 `parquet:"name=congestion_surcharge, type=DOUBLE, repetitiontype=OPTIONAL"`
	AirportFee           *float64 `parquet:"name=airport_fee, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// locationsOnly lacks most trip columns.
type locationsOnly struct {
	PULocationID *int64 `parquet:"name=PULocationID, type=INT64, repetitiontype=OPTIONAL"`
	DOLocationID *int64 `parquet:"name=DOLocationID, type=INT64, repetitiontype=OPTIONAL"`
	Pickup       *int64 `parquet:"name=tpep_pickup_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
	Dropoff      *int64 `parquet:"name=tpep_dropoff_datetime, type=INT64, convertedtype=TIMESTAMP_MICROS, repetitiontype=OPTIONAL"`
}

// writeRows writes rows with a schema other than trip.Record.
func writeRows[T any](t *testing.T, name string, rows ...T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		t.Fatalf("NewLocalFileWriter(%v) failed: %v", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(T), 1)
	if err != nil {
		t.Fatalf("NewParquetWriter() failed: %v", err)
	}
	for _, r := range rows {
		if err := pw.Write(r); err != nil {
			t.Fatalf("Write(%+v) failed: %v", r, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		t.Fatalf("WriteStop() failed: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func at(hour, minute int) time.Time {
	return time.Date(2023, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestReadParquet_OptionalTimestamps(t *testing.T) {
	path := writeRows(t, "pandas.parquet",
		pandasTrip{PULocationID: pointer.Int64(161), Pickup: trip.Micros(at(8, 0)), Dropoff: trip.Micros(at(8, 10))},
		pandasTrip{PULocationID: pointer.Int64(43), Pickup: trip.Micros(at(9, 15)), Dropoff: trip.Micros(at(9, 42))},
		pandasTrip{PULocationID: pointer.Int64(7), Pickup: trip.Micros(at(10, 0))},
	)

	tbl, err := ReadParquet(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadParquet(%v) failed: %v", path, err)
	}
	got, err := tbl.Records(trip.PULocationID, trip.PickupColumn, trip.DropoffColumn)
	if err != nil {
		t.Fatalf("Records() failed: %v", err)
	}
	want := []table.Record{
		{trip.PULocationID: int64(161), trip.PickupColumn: at(8, 0), trip.DropoffColumn: at(8, 10)},
		{trip.PULocationID: int64(43), trip.PickupColumn: at(9, 15), trip.DropoffColumn: at(9, 42)},
		{trip.PULocationID: int64(7), trip.PickupColumn: at(10, 0), trip.DropoffColumn: nil},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("ReadParquet() mismatch (-want +got):\n%s", d)
	}
}

func TestReadParquet_MissingColumns(t *testing.T) {
	path := writeRows(t, "short.parquet",
		locationsOnly{PULocationID: pointer.Int64(1), Pickup: trip.Micros(at(8, 0)), Dropoff: trip.Micros(at(8, 10))},
	)

	_, err := ReadParquet(context.Background(), path)
	if !errors.Is(err, table.ErrMissingColumn) {
		t.Errorf("ReadParquet(%v) = %v, want table.ErrMissingColumn", path, err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte("not a parquet file")); err == nil {
		t.Error("Decode(garbage) succeeded, want error")
	}
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		cfg  Config
		want Options
	}{
		{Config{}, Options{}},
		{Config{"path": "a.parquet", "unused": 1}, Options{Path: "a.parquet"}},
		{Config{"paths": []any{"a", "b"}}, Options{Paths: []string{"a", "b"}}},
	}
	for _, test := range tests {
		got, err := DecodeOptions(test.cfg)
		if err != nil {
			t.Errorf("DecodeOptions(%v) failed: %v", test.cfg, err)
			continue
		}
		if d := cmp.Diff(test.want, got); d != "" {
			t.Errorf("DecodeOptions(%v) mismatch (-want +got):\n%s", test.cfg, d)
		}
	}
	if _, err := DecodeOptions(Config{"path": struct{}{}}); err == nil {
		t.Error("DecodeOptions(struct path) succeeded, want error")
	}
}

func TestRegistry(t *testing.T) {
	empty := func(context.Context, Config) (*table.Table, error) {
		return table.New(trip.Fields()...)
	}
	Register("test_empty", empty)

	found := false
	for _, name := range Names() {
		if name == "test_empty" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, missing test_empty", Names())
	}

	tbl, err := Run(context.Background(), "test_empty", nil)
	if err != nil {
		t.Fatalf("Run(test_empty) failed: %v", err)
	}
	if tbl.NumRows() != 0 {
		t.Errorf("NumRows() = %v, want 0", tbl.NumRows())
	}

	if _, err := Lookup("no_such_loader"); err == nil {
		t.Error("Lookup(no_such_loader) succeeded, want error")
	}

	defer func() {
		if recover() == nil {
			t.Error("Register(duplicate) did not panic")
		}
	}()
	Register("test_empty", empty)
}
