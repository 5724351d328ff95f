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

// Package cmd contains the taxiprep commands.
package cmd

import (
	"flag"
	"os"

	"github.com/spf13/cobra"

	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/config"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/logx"
)

// options holds the flag values of one command tree and the job they
// resolve to.
type options struct {
	configPath  string
	logLevel    string
	input       string
	output      string
	categorical []string
	minDuration float64
	maxDuration float64
	loaderName  string
	head        int

	job    config.Job
	logger *logx.Logger
}

// NewRoot returns the taxiprep command with its subcommands. Every call
// returns an independent tree with fresh flag values.
func NewRoot() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:               "taxiprep",
		Short:             "Prepare NYC taxi trips for training",
		PersistentPreRunE: o.setup,
		SilenceUsage:      true,
	}

	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML job file; flags override its values")
	f.StringVar(&o.logLevel, "log_level", "info", "Minimum log level: debug, info, warn or error")
	f.StringVar(&o.input, "input", "", "Parquet trip file or glob")
	f.StringVar(&o.output, "output", "", "Prefix of the prepared output files")
	f.StringSliceVar(&o.categorical, "categorical", nil, "Columns to treat as categorical")
	f.Float64Var(&o.minDuration, "min_duration", 0, "Shortest kept trip, in minutes")
	f.Float64Var(&o.maxDuration, "max_duration", 0, "Longest kept trip, in minutes")
	// Beam registers its pipeline options, such as --runner, on the
	// standard flag set.
	f.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(newIngestCmd(o), newRunCmd(o), newLoadersCmd())
	return root
}

func (o *options) setup(cmd *cobra.Command, args []string) error {
	level, err := logx.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	o.logger = logx.NewConsole(os.Stderr, level)
	o.logger.Install()

	o.job = config.Default()
	if o.configPath != "" {
		if o.job, err = config.Load(cmd.Context(), o.configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		o.job.Input = o.input
	}
	if flags.Changed("output") {
		o.job.Output = o.output
	}
	if flags.Changed("categorical") {
		o.job.Categorical = o.categorical
	}
	if flags.Changed("min_duration") {
		o.job.Bounds.Min = o.minDuration
	}
	if flags.Changed("max_duration") {
		o.job.Bounds.Max = o.maxDuration
	}
	if flags.Changed("loader") {
		o.job.Loader = o.loaderName
	}
	return o.job.Validate()
}
