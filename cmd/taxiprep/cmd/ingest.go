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
	"encoding/json"

	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/ingest"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/prep"
)

func newIngestCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load trips with a registered loader and prepare them in memory",
		Args:  cobra.NoArgs,
		RunE:  o.ingestFn,
	}
	cmd.Flags().StringVar(&o.loaderName, "loader", "", "Registered loader to call")
	cmd.Flags().IntVar(&o.head, "head", 0, "Print the first N prepared trips as JSON lines")
	return cmd
}

func newLoadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loaders",
		Short: "List registered loaders",
		Args:  cobra.NoArgs,
		RunE:  loadersFn,
	}
}

func (o *options) ingestFn(cmd *cobra.Command, args []string) error {
	ctx, job := cmd.Context(), o.job

	trips, err := ingest.Run(ctx, job.Loader, ingest.Config{"path": job.Input})
	if err != nil {
		return err
	}
	prepared, err := prep.Preparer{Categorical: job.Categorical, Bounds: job.Bounds}.Prepare(trips)
	if err != nil {
		return errors.WithContextf(err, "preparing %v", job.Input)
	}
	log.Infof(ctx, "Kept %v of %v trips", humanize.Comma(int64(prepared.NumRows())), humanize.Comma(int64(trips.NumRows())))

	if o.head <= 0 {
		return nil
	}
	records, err := prepared.Records(job.Columns...)
	if err != nil {
		return err
	}
	if len(records) > o.head {
		records = records[:o.head]
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func loadersFn(cmd *cobra.Command, args []string) error {
	for _, name := range ingest.Names() {
		cmd.Println(name)
	}
	return nil
}
