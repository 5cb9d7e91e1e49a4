package scanner

import (
	"io"
	"sync"
	"time"

	"imagededup/logging"
	"imagededup/types"

	"github.com/schollz/progressbar/v3"
)

// ProgressTracker tallies scan results and drives the progress bar.
type ProgressTracker struct {
	mu    sync.Mutex
	stats FileStats
	bar   *progressbar.ProgressBar
	done  chan struct{}
}

// NewProgressTracker starts consuming resultsChan. Stop must be called after
// resultsChan is closed.
func NewProgressTracker(total int, w io.Writer, resultsChan <-chan ProcessImageResult) *ProgressTracker {
	tracker := &ProgressTracker{
		stats: FileStats{Total: total},
		done:  make(chan struct{}),
	}
	if w != nil && total > 0 {
		tracker.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Generating hashes"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionShowIts(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	go tracker.processResults(resultsChan)
	return tracker
}

// processResults updates the tracker state based on processing results
func (p *ProgressTracker) processResults(resultsChan <-chan ProcessImageResult) {
	defer close(p.done)

	for result := range resultsChan {
		p.mu.Lock()
		if result.IsRaw {
			p.stats.RawFiles++
		}
		switch result.Skip {
		case 0:
			p.stats.Fingerprinted++
			logging.LogImageProcessed(result.File.Path, "fingerprinted", nil)
		case types.SkipNonImage:
			p.stats.NonImages++
			logging.LogImageProcessed(result.File.Path, result.Skip.String(), result.Error)
		default:
			p.stats.Unreadable++
			logging.LogImageProcessed(result.File.Path, result.Skip.String(), result.Error)
		}
		p.mu.Unlock()

		if p.bar != nil {
			_ = p.bar.Add(1)
		}
	}
}

// Stop waits for the result stream to drain and finishes the bar.
func (p *ProgressTracker) Stop() FileStats {
	<-p.done
	if p.bar != nil {
		_ = p.bar.Finish()
	}
	return p.Stats()
}

// Stats returns a snapshot of the counters.
func (p *ProgressTracker) Stats() FileStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
