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

// Package config reads the YAML job description shared by the taxiprep
// commands.
package config

import (
	"context"

	"github.com/apache/beam/sdks/v2/go/pkg/beam/io/filesystem"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v2"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/ingest"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/prep"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

// Job describes one preparation run. For example:
//
//	input: gs://my-bucket/yellow_tripdata_2023-03.parquet
//	output: gs://my-bucket/prepared/trips
//	categorical: [PULocationID, DOLocationID]
//	bounds: {min: 1, max: 60}
type Job struct {
	// Loader is the registered ingest loader used by the ingest command.
	Loader string `yaml:"loader"`
	// Input is a parquet file or glob.
	Input string `yaml:"input"`
	// Output is the prefix of the prepared JSON line files.
	Output string `yaml:"output"`
	// Categorical names the columns to stringify.
	Categorical []string `yaml:"categorical"`
	// Columns names the output columns; empty means all.
	Columns []string `yaml:"columns"`
	// Bounds is the duration range of kept trips, in minutes.
	Bounds prep.Bounds `yaml:"bounds"`
}

// Default returns the job used when no config file is given.
func Default() Job {
	return Job{
		Loader:      "ingest_files",
		Input:       ingest.DefaultPath,
		Categorical: []string{trip.PULocationID, trip.DOLocationID},
		Bounds:      prep.DefaultBounds,
	}
}

// Parse decodes a YAML job over Default. Unknown keys are an error.
func Parse(data []byte) (Job, error) {
	job := Default()
	if err := yaml.UnmarshalStrict(data, &job); err != nil {
		return Job{}, errors.Wrap(err, "invalid job config")
	}
	return job, nil
}

// Load reads and parses a job file from any registered Beam file system.
func Load(ctx context.Context, path string) (Job, error) {
	fsys, err := filesystem.New(ctx, path)
	if err != nil {
		return Job{}, err
	}
	defer fsys.Close()

	data, err := filesystem.Read(ctx, fsys, path)
	if err != nil {
		return Job{}, errors.WithContextf(err, "reading config %v", path)
	}
	job, err := Parse(data)
	if err != nil {
		return Job{}, errors.WithContextf(err, "reading config %v", path)
	}
	return job, nil
}

// Validate checks the fields common to all commands.
func (j Job) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Loader, validation.Required),
		validation.Field(&j.Input, validation.Required),
		validation.Field(&j.Categorical, validation.Each(validation.Required)),
		validation.Field(&j.Columns, validation.Each(validation.Required)),
		validation.Field(&j.Bounds, validation.By(validateBounds)),
	)
}

func validateBounds(value any) error {
	b, _ := value.(prep.Bounds)
	if b.Min < 0 {
		return errors.New("min must not be negative")
	}
	if b.Max < b.Min {
		return errors.New("max must not be less than min")
	}
	return nil
}
