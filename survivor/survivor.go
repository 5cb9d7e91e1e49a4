// Package survivor decides which file of a matched pair is deleted and
// deletes it.
package survivor

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"imagededup/logging"
	"imagededup/types"
)

// Measurer reports the pixel count (width × height) of an image file.
type Measurer interface {
	PixelCount(path string) (int64, error)
}

// Selector resolves matched pairs. Deletions are serialised and each path is
// removed at most once: the first pair to claim a path removes it, later
// pairs see it as gone.
type Selector struct {
	measurer Measurer
	enabled  bool
	remove   func(string) error

	mu      sync.Mutex
	removed map[string]struct{}
}

// NewSelector returns a selector. With deleteEnabled false, Resolve never
// touches the filesystem.
func NewSelector(measurer Measurer, deleteEnabled bool) *Selector {
	return &Selector{
		measurer: measurer,
		enabled:  deleteEnabled,
		remove:   os.Remove,
		removed:  make(map[string]struct{}),
	}
}

// Pick returns the file to delete and the file to keep. The file with fewer
// pixels is deleted; on a tie the lexicographically greater path is deleted.
func Pick(a types.CandidateFile, aPixels int64, b types.CandidateFile, bPixels int64) (victim, survivor types.CandidateFile) {
	switch {
	case aPixels < bPixels:
		return a, b
	case bPixels < aPixels:
		return b, a
	case a.Path > b.Path:
		return a, b
	default:
		return b, a
	}
}

// Resolve applies the survivor policy to one pair. It never returns an
// error: every failure is reported through the Removal's Action and Err.
func (s *Selector) Resolve(pair types.MatchPair) types.Removal {
	removal := types.Removal{Pair: pair, Action: types.ActionKept}
	if !s.enabled {
		return removal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRemoved(pair.A.Path) || s.isRemoved(pair.B.Path) {
		removal.Action = types.ActionSkippedGone
		return removal
	}

	aPixels, err := s.measurer.PixelCount(pair.A.Path)
	if err != nil {
		return skipped(removal, err)
	}
	bPixels, err := s.measurer.PixelCount(pair.B.Path)
	if err != nil {
		return skipped(removal, err)
	}

	victim, survivor := Pick(pair.A, aPixels, pair.B, bPixels)
	removal.Victim = victim
	removal.Survivor = survivor

	if info, err := os.Stat(victim.Path); err == nil {
		removal.Bytes = info.Size()
	}

	if err := s.remove(victim.Path); err != nil {
		removal.Bytes = 0
		removal.Err = err
		if errors.Is(err, fs.ErrNotExist) {
			// Someone else got there first; nothing to do and nothing freed.
			removal.Action = types.ActionSkippedGone
			logging.LogWarning("%s vanished before removal", victim.Path)
			return removal
		}
		logging.LogError("Cannot remove %s: %v", victim.Path, err)
		removal.Action = types.ActionFailed
		return removal
	}

	s.removed[victim.Path] = struct{}{}
	removal.Action = types.ActionRemoved

	victimPixels, survivorPixels := aPixels, bPixels
	if victim.Path == pair.B.Path {
		victimPixels, survivorPixels = bPixels, aPixels
	}
	logging.LogRemoval(victim.Path, survivor.Path, victimPixels, survivorPixels)
	return removal
}

// Removed reports whether path was deleted by this selector.
func (s *Selector) Removed(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRemoved(path)
}

func (s *Selector) isRemoved(path string) bool {
	_, ok := s.removed[path]
	return ok
}

func skipped(removal types.Removal, err error) types.Removal {
	removal.Err = err
	if errors.Is(err, fs.ErrNotExist) {
		removal.Action = types.ActionSkippedGone
	} else {
		removal.Action = types.ActionSkippedUnreadable
	}
	logging.LogWarning("Skipping %s: %v", removal.Pair, err)
	return removal
}
