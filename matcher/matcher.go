// Package matcher compares every unordered pair of fingerprints in a catalog.
package matcher

import (
	"context"
	"errors"
	"fmt"

	"imagededup/logging"
	"imagededup/types"

	"golang.org/x/sync/errgroup"
)

// ErrNegativeCutoff is returned for a cutoff below zero.
var ErrNegativeCutoff = errors.New("cutoff must not be negative")

// IsSimilar reports whether a and b differ in at most cutoff bits. Distance
// is the raw count of differing bits, compared to cutoff as is.
func IsSimilar(a, b types.Fingerprint, cutoff int) (bool, int, error) {
	distance, err := a.Distance(b)
	if err != nil {
		return false, 0, err
	}
	return distance <= cutoff, distance, nil
}

// Match returns every pair (i, j), i < j, of catalog entries whose
// fingerprints are within cutoff, ordered lexicographically by (i, j).
// Rows are compared on up to workers goroutines; the result does not depend
// on scheduling. Pairs that cannot be compared are logged and skipped.
func Match(ctx context.Context, catalog *types.Catalog, cutoff int, workers int) ([]types.MatchPair, int, error) {
	if cutoff < 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrNegativeCutoff, cutoff)
	}
	if workers < 1 {
		workers = 1
	}

	entries := catalog.Entries
	n := len(entries)
	if n < 2 {
		return nil, 0, nil
	}

	rows := make([][]types.MatchPair, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n-1; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = matchRow(entries, i, cutoff)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("matching interrupted: %w", err)
	}

	var pairs []types.MatchPair
	for _, row := range rows {
		pairs = append(pairs, row...)
	}
	return pairs, n * (n - 1) / 2, nil
}

func matchRow(entries []types.Entry, i int, cutoff int) []types.MatchPair {
	var row []types.MatchPair
	a := entries[i]
	for j := i + 1; j < len(entries); j++ {
		b := entries[j]
		similar, distance, err := IsSimilar(a.Fingerprint, b.Fingerprint, cutoff)
		if err != nil {
			logging.LogWarning("Cannot compare %s and %s: %v", a.File.Path, b.File.Path, err)
			continue
		}
		if similar {
			row = append(row, types.MatchPair{A: a.File, B: b.File, Distance: distance})
		}
	}
	return row
}
