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

// taxiprep loads NYC yellow taxi trips and prepares them for training: it
// derives trip durations, drops trips outside the duration bounds and turns
// location ids into categorical strings.
//
// Prepare a file in memory and print the first trips:
//
//	taxiprep ingest --input=yellow_tripdata_2023-03.parquet --head=5
//
// Run the same preparation as a Beam pipeline:
//
//	taxiprep run --config=job.yaml --runner=direct
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"

	"github.com/artemji/mlops-zoomcamp-2024/cmd/taxiprep/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.NewRoot().ExecuteContext(ctx); err != nil {
		log.Exitf(ctx, "taxiprep failed: %v", err)
	}
}
