package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"
)

// Loader reads asset descriptors from disk into a Library, optionally
// validating each one against a JSON Schema first.
type Loader struct {
	schema  *jsonschema.Schema
	workers int
}

// NewLoader builds a loader. schemaPath may be empty to skip validation;
// workers caps parallel file parsing and defaults to 4 when non-positive.
func NewLoader(schemaPath string, workers int) (*Loader, error) {
	if workers <= 0 {
		workers = 4
	}
	l := &Loader{workers: workers}
	if schemaPath != "" {
		schema, err := jsonschema.Compile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("compiling asset schema %s: %w", schemaPath, err)
		}
		l.schema = schema
	}
	return l, nil
}

// LoadDir parses every .json descriptor under dir into lib. Files are
// parsed concurrently; the library is filled under a lock once parsing
// succeeds. The asset name is the file name without extension.
func (l *Loader) LoadDir(ctx context.Context, dir string, lib *Library) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading asset dir %s: %w", dir, err)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), ".json")

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			info, err := l.loadFile(path, name)
			if err != nil {
				return err
			}
			mu.Lock()
			lib.Add(info)
			loaded++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("asset library loaded", "dir", dir, "assets", loaded)
	return nil
}

func (l *Loader) loadFile(path, name string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", path, err)
	}
	if l.schema != nil {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing asset %s: %w", path, err)
		}
		if err := l.schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("validating asset %s: %w", path, err)
		}
	}
	info, err := ParseInfo(name, data)
	if err != nil {
		return nil, fmt.Errorf("parsing asset %s: %w", path, err)
	}
	return info, nil
}
