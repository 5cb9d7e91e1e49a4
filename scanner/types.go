package scanner

import (
	"io"

	"imagededup/types"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	DebugMode  bool
	MaxWorkers int       // Worker limit; values below 1 mean one worker
	Progress   io.Writer // Progress bar destination; nil disables the bar
}

// ProcessImageResult holds the result of processing one candidate
type ProcessImageResult struct {
	File        types.CandidateFile
	Fingerprint types.Fingerprint
	Skip        types.SkipReason // zero when fingerprinted
	Error       error
	IsRaw       bool
}

// FileStats tracks how the candidates of a scan were classified
type FileStats struct {
	Total         int
	Fingerprinted int
	NonImages     int
	Unreadable    int
	RawFiles      int
}
