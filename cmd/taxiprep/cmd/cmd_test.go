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

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xorcare/pointer"

	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/ingest"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

func dt(hour, minute, second int) *int64 {
	return trip.Micros(time.Date(2023, 3, 1, hour, minute, second, 0, time.UTC))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTrips(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trips.parquet")
	records := []trip.Record{
		{PULocationID: pointer.Int64(43), DOLocationID: pointer.Int64(151), Pickup: dt(8, 0, 0), Dropoff: dt(8, 12, 30)},
		{PULocationID: pointer.Int64(43), Pickup: dt(8, 0, 0), Dropoff: dt(8, 0, 10)},
		{DOLocationID: pointer.Int64(7), Pickup: dt(9, 0, 0), Dropoff: dt(9, 45, 0)},
	}
	if err := ingest.WriteParquet(context.Background(), path, records); err != nil {
		t.Fatalf("WriteParquet() failed: %v", err)
	}
	return path
}

func TestIngest(t *testing.T) {
	path := writeTrips(t)

	out, err := execute(t, "ingest", "--input", path, "--head", "10", "--log_level", "error")
	if err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}

	var got []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var r map[string]any
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("invalid output line %q: %v", line, err)
		}
		got = append(got, map[string]any{
			trip.PULocationID:   r[trip.PULocationID],
			trip.DOLocationID:   r[trip.DOLocationID],
			trip.DurationColumn: r[trip.DurationColumn],
		})
	}
	want := []map[string]any{
		{trip.PULocationID: "43", trip.DOLocationID: "151", trip.DurationColumn: 12.5},
		{trip.PULocationID: "-1", trip.DOLocationID: "7", trip.DurationColumn: 45.0},
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("ingest output mismatch (-want +got):\n%s", d)
	}
}

func TestLoaders(t *testing.T) {
	out, err := execute(t, "loaders", "--log_level", "error")
	if err != nil {
		t.Fatalf("loaders failed: %v", err)
	}
	if !strings.Contains(out, "ingest_files") {
		t.Errorf("loaders output %q does not list ingest_files", out)
	}
}

func TestRun_RequiresOutput(t *testing.T) {
	if _, err := execute(t, "run", "--log_level", "error", "--output", ""); err == nil {
		t.Error("run without output succeeded, want error")
	}
}

func TestSetup_InvalidBounds(t *testing.T) {
	_, err := execute(t, "loaders", "--log_level", "error", "--min_duration", "30", "--max_duration", "10")
	if err == nil {
		t.Error("inverted duration bounds accepted, want error")
	}
}

func TestExecute_FlagsDoNotCarryOver(t *testing.T) {
	path := writeTrips(t)

	out, err := execute(t, "ingest", "--input", path, "--head", "1", "--log_level", "error")
	if err != nil {
		t.Fatalf("ingest --head=1 failed: %v\n%s", err, out)
	}
	if n := strings.Count(out, "\n"); n != 1 {
		t.Errorf("ingest --head=1 printed %d lines, want 1:\n%s", n, out)
	}

	out, err = execute(t, "ingest", "--input", path, "--log_level", "error")
	if err != nil {
		t.Fatalf("ingest failed: %v\n%s", err, out)
	}
	if out != "" {
		t.Errorf("ingest without --head printed %q, want nothing", out)
	}

	if _, err := execute(t, "loaders", "--log_level", "error", "--min_duration", "30", "--max_duration", "10"); err == nil {
		t.Fatal("inverted duration bounds accepted, want error")
	}
	if out, err := execute(t, "loaders", "--log_level", "error"); err != nil {
		t.Errorf("loaders after a rejected run failed: %v\n%s", err, out)
	}
}
