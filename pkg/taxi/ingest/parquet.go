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
	"io/fs"

	"github.com/apache/beam/sdks/v2/go/pkg/beam/io/filesystem"
	_ "github.com/apache/beam/sdks/v2/go/pkg/beam/io/filesystem/local"
	"github.com/apache/beam/sdks/v2/go/pkg/beam/log"
	"github.com/dustin/go-humanize"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
	"golang.org/x/sync/errgroup"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/trip"
)

// parallelism is the number of goroutines parquet-go uses per file.
const parallelism = 4

// ReadParquet reads trip records from the given files or globs into one
// table. Paths may use any registered Beam file system scheme. Files are read
// concurrently; rows keep the order of the paths, and within a glob the
// order of the file system listing.
func ReadParquet(ctx context.Context, globs ...string) (*table.Table, error) {
	files, err := expand(ctx, globs)
	if err != nil {
		return nil, err
	}

	parts := make([][]trip.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range files {
		i, name := i, name
		g.Go(func() error {
			records, err := readFile(gctx, name)
			if err != nil {
				return errors.WithContextf(err, "reading %v", name)
			}
			parts[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []trip.Record
	for _, p := range parts {
		all = append(all, p...)
	}
	return trip.ToTable(all)
}

func expand(ctx context.Context, globs []string) ([]string, error) {
	var ret []string
	for _, glob := range globs {
		fsys, err := filesystem.New(ctx, glob)
		if err != nil {
			return nil, err
		}
		names, err := fsys.List(ctx, glob)
		fsys.Close()
		if err != nil {
			return nil, errors.WithContextf(err, "listing %v", glob)
		}
		if len(names) == 0 {
			return nil, errors.Errorf("no files match %v: %w", glob, fs.ErrNotExist)
		}
		ret = append(ret, names...)
	}
	return ret, nil
}

func readFile(ctx context.Context, name string) ([]trip.Record, error) {
	fsys, err := filesystem.New(ctx, name)
	if err != nil {
		return nil, err
	}
	defer fsys.Close()

	data, err := filesystem.Read(ctx, fsys, name)
	if err != nil {
		return nil, err
	}
	records, err := Decode(data)
	if err != nil {
		return nil, err
	}
	log.Infof(ctx, "Read %v: %v, %v trips", name, humanize.Bytes(uint64(len(data))), humanize.Comma(int64(len(records))))
	return records, nil
}

// Decode decodes a whole parquet file of trip records. Every column of
// trip.Record must be present in the file; missing ones fail with
// table.ErrMissingColumn.
func Decode(data []byte) (records []trip.Record, err error) {
	// parquet-go panics on files it cannot map onto the record schema.
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, errors.Wrap(errors.Errorf("%v", r), "invalid parquet file")
		}
	}()

	if err := checkColumns(data); err != nil {
		return nil, err
	}
	pr, err := reader.NewParquetReader(buffer.NewBufferFileFromBytes(data), new(trip.Record), parallelism)
	if err != nil {
		return nil, errors.Wrap(err, "invalid parquet file")
	}
	defer pr.ReadStop()

	records = make([]trip.Record, int(pr.GetNumRows()))
	if err := pr.Read(&records); err != nil {
		return nil, errors.Wrap(err, "decoding trip records")
	}
	return records, nil
}

// checkColumns reads the footer schema of a parquet file and verifies that
// it has every trip column.
func checkColumns(data []byte) error {
	pr := &reader.ParquetReader{PFile: buffer.NewBufferFileFromBytes(data)}
	if err := pr.ReadFooter(); err != nil {
		return errors.Wrap(err, "invalid parquet file")
	}

	schema := pr.Footer.GetSchema()
	if len(schema) == 0 {
		return errors.New("invalid parquet file: empty schema")
	}
	present := make(map[string]bool)
	for _, el := range schema[1:] {
		present[el.GetName()] = true
	}
	var missing []string
	for _, f := range trip.Fields() {
		if !present[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return errors.Errorf("%w: %q", table.ErrMissingColumn, missing)
	}
	return nil
}

// WriteParquet writes records to a parquet file, overwriting it. The path
// may use any registered Beam file system scheme.
func WriteParquet(ctx context.Context, name string, records []trip.Record) error {
	fsys, err := filesystem.New(ctx, name)
	if err != nil {
		return err
	}
	defer fsys.Close()

	fd, err := fsys.OpenWrite(ctx, name)
	if err != nil {
		return errors.WithContextf(err, "opening %v", name)
	}
	pw, err := writer.NewParquetWriterFromWriter(fd, new(trip.Record), parallelism)
	if err != nil {
		fd.Close()
		return err
	}
	for _, r := range records {
		if err := pw.Write(r); err != nil {
			fd.Close()
			return errors.WithContextf(err, "writing %v", name)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fd.Close()
		return errors.WithContextf(err, "writing %v", name)
	}
	return fd.Close()
}
