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
	"github.com/apache/beam/sdks/v2/go/pkg/beam"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/io/filesystem/s3"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/io/textio"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/x/beamx"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/taxibeam"
)

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Prepare trips with a Beam pipeline",
		Args:  cobra.NoArgs,
		RunE:  o.runFn,
	}
}

func (o *options) runFn(cmd *cobra.Command, args []string) error {
	job := o.job
	if job.Output == "" {
		return errors.New("no output specified, use --output or the config file")
	}
	if err := taxibeam.ValidateColumns(append(append([]string(nil), job.Categorical...), job.Columns...)...); err != nil {
		return err
	}
	beam.Init()

	ctx := cmd.Context()
	id := uuid.NewString()
	o.logger.With("run", id).Install()
	filename := job.Output + "-" + id + ".jsonl"

	p, s := beam.NewPipelineWithRoot()
	trips := taxibeam.Read(s, job.Input)
	lines := taxibeam.Prepare(s, trips, taxibeam.Options{
		Categorical: job.Categorical,
		Bounds:      job.Bounds,
		Columns:     job.Columns,
	})
	textio.Write(s, filename, lines)
	taxibeam.Summarize(s, taxibeam.Durations(s, trips, job.Bounds))

	log.Infof(ctx, "Running taxiprep %v: %v -> %v", id, job.Input, filename)
	if err := beamx.Run(ctx, p); err != nil {
		return errors.Wrapf(err, "pipeline %v failed", id)
	}
	return nil
}
