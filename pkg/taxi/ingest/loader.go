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

	"github.com/mitchellh/mapstructure"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
)

// DefaultPath is the trip file read when no path is configured.
const DefaultPath = "./mlops/homework_03/utils/yellow_tripdata_2023-03.parquet"

func init() {
	Register("ingest_files", IngestFiles)
}

// Options are the keys of Config understood by IngestFiles.
type Options struct {
	// Path is a single file or glob.
	Path string `mapstructure:"path"`
	// Paths lists several files or globs, read after Path.
	Paths []string `mapstructure:"paths"`
}

// DecodeOptions extracts Options from cfg. Unknown keys are ignored.
func DecodeOptions(cfg Config) (Options, error) {
	var opts Options
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(map[string]any(cfg)); err != nil {
		return opts, errors.Wrap(err, "invalid ingest options")
	}
	return opts, nil
}

// IngestFiles reads the configured parquet trip files and returns their rows
// unmodified. With no path configured it reads DefaultPath.
func IngestFiles(ctx context.Context, cfg Config) (*table.Table, error) {
	opts, err := DecodeOptions(cfg)
	if err != nil {
		return nil, err
	}
	var paths []string
	if opts.Path != "" {
		paths = append(paths, opts.Path)
	}
	paths = append(paths, opts.Paths...)
	if len(paths) == 0 {
		paths = []string{DefaultPath}
	}
	return ReadParquet(ctx, paths...)
}
