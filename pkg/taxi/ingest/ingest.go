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

// Package ingest materializes taxi trip tables for a pipeline stage.
//
// An orchestrator calls a Loader by name with free-form keyword
// configuration and receives a table. Loaders register themselves at init
// time:
//
//	func init() {
//		ingest.Register("my_loader", myLoader)
//	}
package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/artemji/mlops-zoomcamp-2024/internal/errors"
	"github.com/artemji/mlops-zoomcamp-2024/pkg/taxi/table"
)

// Config is the keyword configuration passed to a Loader. Loaders ignore
// keys they do not know.
type Config map[string]any

// Loader is an ingestion entry point.
type Loader func(ctx context.Context, cfg Config) (*table.Table, error)

var (
	mu      sync.RWMutex
	loaders = make(map[string]Loader)
)

// Register makes a Loader available under the given name. It panics if the
// name is already taken or the loader is nil.
func Register(name string, l Loader) {
	if l == nil {
		panic(fmt.Sprintf("nil loader registered for %v", name))
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := loaders[name]; ok {
		panic(fmt.Sprintf("loader %v already registered", name))
	}
	loaders[name] = l
}

// Lookup returns the Loader registered under name.
func Lookup(name string) (Loader, error) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := loaders[name]
	if !ok {
		return nil, errors.Errorf("loader %v not registered", name)
	}
	return l, nil
}

// Names returns the registered loader names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	ret := make([]string, 0, len(loaders))
	for name := range loaders {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Run looks up the named Loader and calls it.
func Run(ctx context.Context, name string, cfg Config) (*table.Table, error) {
	l, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	t, err := l(ctx, cfg)
	if err != nil {
		return nil, errors.WithContextf(err, "running loader %v", name)
	}
	return t, nil
}
