// Package dedup runs a duplicate scan end to end: list the folder,
// fingerprint every file, match all pairs and optionally delete the smaller
// file of each pair.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/matcher"
	"imagededup/scanner"
	"imagededup/survivor"
	"imagededup/types"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

var (
	// ErrLocationNotFound means the folder to scan does not exist or is not a directory.
	ErrLocationNotFound = errors.New("location not found")
	// ErrFolderLocked means another deleting run holds the folder.
	ErrFolderLocked = errors.New("folder is locked by another run")
)

// Options configures one run.
type Options struct {
	// Folder is scanned non-recursively unless Files is set. It also names
	// the folder in the report.
	Folder string
	// Files, when non-empty, replaces the folder listing.
	Files []string

	Cutoff      int
	DeleteFiles bool
	HashSize    int
	Workers     int
	Decode      imageprocessor.DecodeOptions

	// Registry and Hasher default to the native loader and goimagehash.
	Registry *imageprocessor.ImageLoaderRegistry
	Hasher   imageprocessor.Hasher

	// Output receives the step narration; Progress receives the progress bar.
	Output   io.Writer
	Progress io.Writer

	DebugMode bool
	RunID     string
	// LockDir holds the folder lock files; defaults to os.TempDir().
	LockDir string
}

// Run executes one scan. Only a missing folder, a held folder lock, invalid
// options and cancellation are returned as errors; unreadable files, files
// vanishing mid-run and failed deletions are absorbed into the result.
func Run(ctx context.Context, opts Options) (*types.RunResult, error) {
	opts, err := withDefaults(opts)
	if err != nil {
		return nil, err
	}

	files, err := candidates(opts)
	if err != nil {
		return nil, err
	}

	if opts.DeleteFiles && opts.Folder != "" {
		unlock, err := lockFolder(opts.LockDir, opts.Folder)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	result := &types.RunResult{
		RunID:  opts.RunID,
		Folder: opts.Folder,
	}

	processor := imageprocessor.NewImageProcessor(opts.Registry, opts.Hasher, opts.HashSize, opts.Decode)
	processor.DebugMode = opts.DebugMode

	say(opts.Output, "Step 1 of 2:")
	say(opts.Output, "Generating hashes.")
	catalog, stats, err := scanner.Extract(ctx, processor, files, scanner.ScanOptions{
		DebugMode:  opts.DebugMode,
		MaxWorkers: opts.Workers,
		Progress:   opts.Progress,
	})
	if err != nil {
		return nil, err
	}
	result.Skipped = catalog.Skipped
	result.Stats = types.RunStats{
		Candidates:    stats.Total,
		Fingerprinted: stats.Fingerprinted,
		NonImages:     stats.NonImages,
		Unreadable:    stats.Unreadable,
		RawFiles:      stats.RawFiles,
	}

	say(opts.Output, "\nStep 2 of 2:")
	if catalog.Len() == 0 {
		say(opts.Output, "No images were found in the given folder.")
		result.Outcome = types.OutcomeNoImages
		return result, nil
	}

	if opts.DeleteFiles {
		say(opts.Output, "Analyzing hashes and DELETING similar images.")
	} else {
		say(opts.Output, "Analyzing hashes.")
	}

	pairs, comparisons, err := matcher.Match(ctx, catalog, opts.Cutoff, opts.Workers)
	if err != nil {
		return nil, err
	}
	result.Matches = pairs
	result.Stats.Comparisons = comparisons

	if len(pairs) == 0 {
		result.Outcome = types.OutcomeNoDuplicates
		return result, nil
	}
	result.Outcome = types.OutcomeDuplicates

	if !opts.DeleteFiles {
		return result, nil
	}

	selector := survivor.NewSelector(processor, true)
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("run interrupted: %w", err)
		}
		removal := selector.Resolve(pair)
		result.Removals = append(result.Removals, removal)
		if removal.Action == types.ActionRemoved {
			result.Stats.Removed++
			result.Stats.BytesFreed += removal.Bytes
		}
	}
	return result, nil
}

func withDefaults(opts Options) (Options, error) {
	if opts.HashSize == 0 {
		opts.HashSize = imageprocessor.DefaultHashSize
	}
	if err := imageprocessor.ValidateHashSize(opts.HashSize); err != nil {
		return opts, err
	}
	if opts.Cutoff < 0 {
		return opts, fmt.Errorf("%w: %d", matcher.ErrNegativeCutoff, opts.Cutoff)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.LockDir == "" {
		opts.LockDir = os.TempDir()
	}
	return opts, nil
}

// candidates resolves the file list, failing fast on a missing folder.
func candidates(opts Options) ([]types.CandidateFile, error) {
	if opts.Folder != "" {
		info, err := os.Stat(opts.Folder)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: the folder %s doesn't exist", ErrLocationNotFound, opts.Folder)
		}
	}
	if len(opts.Files) > 0 {
		return scanner.CandidatesFromPaths(opts.Files), nil
	}
	if opts.Folder == "" {
		return nil, fmt.Errorf("%w: no folder given", ErrLocationNotFound)
	}

	files, err := scanner.ListFolder(opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationNotFound, err)
	}
	return files, nil
}

// lockFolder takes an advisory lock named after the folder's absolute path.
func lockFolder(lockDir, folder string) (func(), error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", folder, err)
	}
	name := "imagededup-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(abs)).String() + ".lock"
	lock := flock.New(filepath.Join(lockDir, name))

	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire folder lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFolderLocked, abs)
	}
	logging.DebugLog("Locked %s via %s", abs, lock.Path())

	return func() {
		if err := lock.Unlock(); err != nil {
			logging.LogWarning("failed to release folder lock: %v", err)
			return
		}
		if err := os.Remove(lock.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.LogWarning("failed to remove lock file %s: %v", lock.Path(), err)
		}
	}, nil
}

func say(w io.Writer, line string) {
	if w != nil {
		fmt.Fprintln(w, line)
	}
}
