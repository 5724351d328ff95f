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

// Package trip defines the yellow taxi trip record as stored in the TLC
// parquet files, and its mapping onto a table.
package trip

import (
	"time"

	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
)

// Column names used by the preparation step.
const (
	PickupColumn   = "tpep_pickup_datetime"
	DropoffColumn  = "tpep_dropoff_datetime"
	PULocationID   = "PULocationID"
	DOLocationID   = "DOLocationID"
	DurationColumn = "duration"
)

// Record is one yellow taxi trip. Every column is OPTIONAL, as pandas and
// pyarrow write them, so every field is a pointer; a nil pointer is a
// missing value. Timestamps are microseconds since the Unix epoch, UTC.
type Record struct {
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

var fields = []table.Field{
	{Name: "VendorID", Kind: table.Int64},
	{Name: PickupColumn, Kind: table.Timestamp},
	{Name: DropoffColumn, Kind: table.Timestamp},
	{Name: "passenger_count", Kind: table.Float64},
	{Name: "trip_distance", Kind: table.Float64},
	{Name: "RatecodeID", Kind: table.Float64},
	{Name: "store_and_fwd_flag", Kind: table.String},
	{Name: PULocationID, Kind: table.Int64},
	{Name: DOLocationID, Kind: table.Int64},
	{Name: "payment_type", Kind: table.Int64},
	{Name: "fare_amount", Kind: table.Float64},
	{Name: "extra", Kind: table.Float64},
	{Name: "mta_tax", Kind: table.Float64},
	{Name: "tip_amount", Kind: table.Float64},
	{Name: "tolls_amount", Kind: table.Float64},
	{Name: "improvement_surcharge", Kind: table.Float64},
	{Name: "total_amount", Kind: table.Float64},
	{Name: "congestion_surcharge", Kind: table.Float64},
	{Name: "airport_fee", Kind: table.Float64},
}

// Fields returns the table schema of a Record, in parquet column order.
func Fields() []table.Field {
	return append([]table.Field(nil), fields...)
}

// Values returns the cells of r in the order of Fields.
func (r Record) Values() []table.Value {
	return []table.Value{
		optInt64(r.VendorID),
		optTimestamp(r.Pickup),
		optTimestamp(r.Dropoff),
		optFloat64(r.PassengerCount),
		optFloat64(r.TripDistance),
		optFloat64(r.RatecodeID),
		optString(r.StoreAndFwdFlag),
		optInt64(r.PULocationID),
		optInt64(r.DOLocationID),
		optInt64(r.PaymentType),
		optFloat64(r.FareAmount),
		optFloat64(r.Extra),
		optFloat64(r.MTATax),
		optFloat64(r.TipAmount),
		optFloat64(r.TollsAmount),
		optFloat64(r.ImprovementSurcharge),
		optFloat64(r.TotalAmount),
		optFloat64(r.CongestionSurcharge),
		optFloat64(r.AirportFee),
	}
}

// ToTable builds a table from records, preserving their order.
func ToTable(records []Record) (*table.Table, error) {
	t, err := table.New(fields...)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if err := t.AppendRow(r.Values()...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromMicros converts a parquet TIMESTAMP_MICROS value to a UTC time.
func FromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

// ToMicros converts t to a parquet TIMESTAMP_MICROS value.
func ToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

// Micros is ToMicros for the optional timestamp fields of Record.
func Micros(t time.Time) *int64 {
	us := ToMicros(t)
	return &us
}

func optInt64(p *int64) table.Value {
	if p == nil {
		return table.Null(table.Int64)
	}
	return table.Int64Value(*p)
}

func optTimestamp(p *int64) table.Value {
	if p == nil {
		return table.Null(table.Timestamp)
	}
	return table.TimestampValue(FromMicros(*p))
}

func optFloat64(p *float64) table.Value {
	if p == nil {
		return table.Null(table.Float64)
	}
	return table.Float64Value(*p)
}

func optString(p *string) table.Value {
	if p == nil {
		return table.Null(table.String)
	}
	return table.StringValue(*p)
}
