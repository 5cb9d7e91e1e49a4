package scanner

import (
	"context"
	"errors"
	"fmt"

	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/types"

	"golang.org/x/sync/errgroup"
)

// Fingerprinter decodes and hashes a single file.
type Fingerprinter interface {
	ProcessImage(path string) (types.Fingerprint, error)
}

// Extract fingerprints files in parallel and returns the catalog of the ones
// that decoded, in input order. Files that are not images or cannot be read
// are recorded in Catalog.Skipped and never abort the scan; only context
// cancellation does.
func Extract(ctx context.Context, fp Fingerprinter, files []types.CandidateFile, options ScanOptions) (*types.Catalog, FileStats, error) {
	workers := options.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	results := make([]ProcessImageResult, len(files))
	resultsChan := make(chan ProcessImageResult, 100)
	tracker := NewProgressTracker(len(files), options.Progress, resultsChan)

	if options.DebugMode {
		logging.DebugLog("Fingerprinting %d candidates with %d workers", len(files), workers)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result := processCandidate(fp, file)
			results[i] = result
			resultsChan <- result
			return nil
		})
	}

	err := g.Wait()
	close(resultsChan)
	stats := tracker.Stop()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, stats, fmt.Errorf("scan interrupted: %w", err)
	}

	catalog := types.NewCatalog()
	for _, result := range results {
		if result.Skip != 0 {
			catalog.Skipped[result.File.Path] = result.Skip
			continue
		}
		catalog.Entries = append(catalog.Entries, types.Entry{
			File:        result.File,
			Fingerprint: result.Fingerprint,
		})
	}
	return catalog, stats, nil
}

// processCandidate fingerprints one file and classifies any failure
func processCandidate(fp Fingerprinter, file types.CandidateFile) ProcessImageResult {
	result := ProcessImageResult{
		File:  file,
		IsRaw: imageprocessor.IsRawFormat(file.Path),
	}

	fingerprint, err := fp.ProcessImage(file.Path)
	if err != nil {
		result.Skip = classify(err)
		result.Error = err
		return result
	}
	result.Fingerprint = fingerprint
	return result
}

// classify maps a processing error to the reason the file is skipped
func classify(err error) types.SkipReason {
	if errors.Is(err, imageprocessor.ErrUnsupportedFormat) || errors.Is(err, imageprocessor.ErrIsDirectory) {
		return types.SkipNonImage
	}
	return types.SkipUnreadable
}
