// Package source loads ADF ARM-template exports from local directories or
// Azure Blob containers.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"fabric-bridge/internal/adf"
)

// Loader loads a merged factory export from some backing location.
type Loader interface {
	Load(ctx context.Context) (*adf.FactoryExport, error)
}

// DirLoader reads every *.json file in a local export directory.
type DirLoader struct {
	dir    string
	logger *slog.Logger
}

// NewDirLoader creates a loader over dir.
func NewDirLoader(dir string, logger *slog.Logger) *DirLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirLoader{dir: dir, logger: logger}
}

// Load parses all JSON files in the directory concurrently and merges them
// into one FactoryExport. A file that is not an ARM template is an error:
// partial exports silently missing resources are worse than a loud failure.
func (l *DirLoader) Load(ctx context.Context) (*adf.FactoryExport, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read export dir %s: %w", l.dir, err)
	}

	var mu sync.Mutex
	merged := &adf.FactoryExport{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			export, err := adf.ParseARMTemplate(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			mergeExport(merged, export)
			mu.Unlock()

			l.logger.Debug("loaded export file", "file", path,
				"pipelines", len(export.Pipelines), "datasets", len(export.Datasets))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merged, nil
}

func mergeExport(dst, src *adf.FactoryExport) {
	if dst.FactoryName == "" {
		dst.FactoryName = src.FactoryName
	}
	dst.Pipelines = append(dst.Pipelines, src.Pipelines...)
	dst.Datasets = append(dst.Datasets, src.Datasets...)
	dst.LinkedServices = append(dst.LinkedServices, src.LinkedServices...)
}
