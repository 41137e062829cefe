package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/diegovelasquezweb/a11y-skill-sub002/internal/models"
)

// Config holds configuration for the collector
type Config struct {
	MaxConcurrency int
	Timeout        time.Duration
	Logger         *zap.SugaredLogger
}

// Collector reads scan result files and merges them into one batch
type Collector struct {
	config Config
}

// New creates a new collector with the given configuration
func New(config Config) *Collector {
	// Set defaults
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop().Sugar()
	}

	return &Collector{
		config: config,
	}
}

// CollectFromPaths expands files, directories, and ** globs, then parses
// every JSON file found. Any fatal file error aborts the whole collection.
func (c *Collector) CollectFromPaths(paths []string) (*models.ScanBatch, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JSON files found in: %s", strings.Join(paths, ", "))
	}

	c.config.Logger.Infof("found %d scan file(s) to process", len(files))

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	return c.collectFiles(ctx, files)
}

// ExpandPaths resolves plain files, directories (recursive *.json), and
// doublestar patterns into a sorted, deduplicated file list
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, p := range paths {
		if strings.ContainsAny(p, "*?[{") {
			matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("glob error: %w", err)
			}
			for _, m := range matches {
				if filepath.Ext(m) == ".json" {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}

		found, err := findJSONFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to find JSON files: %w", err)
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// findJSONFiles recursively finds all JSON files in a directory
func findJSONFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-JSON files
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// collectResult holds the result of processing a single file
type collectResult struct {
	file  string
	batch *models.ScanBatch
	err   error
}

// collectFiles processes files concurrently using a worker pool
func (c *Collector) collectFiles(ctx context.Context, files []string) (*models.ScanBatch, error) {
	fileCh := make(chan string, len(files))
	resultCh := make(chan *collectResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < c.config.MaxConcurrency; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, fileCh, resultCh)
	}

	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var results []*collectResult
	for result := range resultCh {
		results = append(results, result)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}
	if len(results) != len(files) {
		return nil, fmt.Errorf("collected %d of %d files", len(results), len(files))
	}

	// Workers finish in any order; sort so the batch is deterministic
	sort.Slice(results, func(i, j int) bool {
		return results[i].file < results[j].file
	})

	merged := &models.ScanBatch{Routes: []models.RouteScanResult{}}
	for _, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("%s: %w", result.file, result.err)
		}
		c.config.Logger.Debugf("collected %d route(s) from %s", len(result.batch.Routes), filepath.Base(result.file))
		merged.Routes = append(merged.Routes, result.batch.Routes...)
		merged.Diagnostics = append(merged.Diagnostics, result.batch.Diagnostics...)
	}

	SortRoutes(merged.Routes)
	return merged, nil
}

// worker processes files from the work channel
func (c *Collector) worker(ctx context.Context, wg *sync.WaitGroup, fileCh <-chan string, resultCh chan<- *collectResult) {
	defer wg.Done()

	for {
		select {
		case file, ok := <-fileCh:
			if !ok {
				return
			}

			batch, err := c.processFile(file)
			resultCh <- &collectResult{
				file:  file,
				batch: batch,
				err:   err,
			}

		case <-ctx.Done():
			return
		}
	}
}

// processFile reads and parses a single JSON file
func (c *Collector) processFile(filePath string) (*models.ScanBatch, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseScanPayload(data, filePath)
}

// SortRoutes orders route results by route path, then URL, then source file
func SortRoutes(routes []models.RouteScanResult) {
	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Route != routes[j].Route {
			return routes[i].Route < routes[j].Route
		}
		if routes[i].URL != routes[j].URL {
			return routes[i].URL < routes[j].URL
		}
		return routes[i].Source < routes[j].Source
	})
}
