package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corona10/goimagehash"
)

// ErrFingerprintLength is returned when two fingerprints of different bit
// length are compared.
var ErrFingerprintLength = errors.New("fingerprints differ in bit length")

// CandidateFile is one directory entry considered by a scan. Path is its identity.
type CandidateFile struct {
	Name string
	Path string
}

// Fingerprint is the perceptual hash of one decoded image.
type Fingerprint struct {
	hash *goimagehash.ExtImageHash
}

// NewFingerprint wraps a hash produced by goimagehash.
func NewFingerprint(hash *goimagehash.ExtImageHash) Fingerprint {
	return Fingerprint{hash: hash}
}

// FingerprintFromWords builds a fingerprint from raw 64-bit words.
func FingerprintFromWords(words []uint64, bits int) Fingerprint {
	hash := make([]uint64, len(words))
	copy(hash, words)
	return Fingerprint{hash: goimagehash.NewExtImageHash(hash, goimagehash.PHash, bits)}
}

// Bits returns the fingerprint length in bits, 0 for the zero value.
func (f Fingerprint) Bits() int {
	if f.hash == nil {
		return 0
	}
	return f.hash.Bits()
}

// Distance returns the number of bit positions at which f and other differ.
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.hash == nil || other.hash == nil {
		return 0, errors.New("fingerprint not computed")
	}
	if f.Bits() != other.Bits() {
		return 0, fmt.Errorf("%w: %d vs %d", ErrFingerprintLength, f.Bits(), other.Bits())
	}
	return f.hash.Distance(other.hash)
}

func (f Fingerprint) String() string {
	if f.hash == nil {
		return ""
	}
	var sb strings.Builder
	for _, word := range f.hash.GetHash() {
		fmt.Fprintf(&sb, "%016x", word)
	}
	return sb.String()
}

// SkipReason says why a candidate never reached the catalog.
type SkipReason int

const (
	// SkipNonImage covers unrecognised formats and directories.
	SkipNonImage SkipReason = iota + 1
	// SkipUnreadable covers every other failure: permissions, vanished
	// files, corrupt data, hashing errors, decode timeouts.
	SkipUnreadable
)

func (r SkipReason) String() string {
	switch r {
	case SkipNonImage:
		return "non-image"
	case SkipUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// Entry pairs a candidate with its fingerprint.
type Entry struct {
	File        CandidateFile
	Fingerprint Fingerprint
}

// Catalog holds the fingerprinted files of a scan in enumeration order.
// Files and fingerprints are kept together in Entries so the two can never
// drift apart; Skipped is keyed by path.
type Catalog struct {
	Entries []Entry
	Skipped map[string]SkipReason
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Skipped: make(map[string]SkipReason)}
}

// Len returns the number of fingerprinted files.
func (c *Catalog) Len() int {
	return len(c.Entries)
}

// MatchPair is an unordered pair of matching files. A precedes B in catalog order.
type MatchPair struct {
	A        CandidateFile
	B        CandidateFile
	Distance int
}

func (m MatchPair) String() string {
	return fmt.Sprintf("%s and %s", m.A.Name, m.B.Name)
}

// Action is what the survivor step did with a pair.
type Action int

const (
	// ActionKept means deletion was disabled.
	ActionKept Action = iota
	// ActionRemoved means the smaller file was deleted.
	ActionRemoved
	// ActionSkippedGone means one of the files was already gone.
	ActionSkippedGone
	// ActionSkippedUnreadable means a file could not be measured.
	ActionSkippedUnreadable
	// ActionFailed means the removal itself failed.
	ActionFailed
)

func (a Action) String() string {
	switch a {
	case ActionKept:
		return "kept"
	case ActionRemoved:
		return "removed"
	case ActionSkippedGone:
		return "skipped (file gone)"
	case ActionSkippedUnreadable:
		return "skipped (unreadable)"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Removal records the outcome of the survivor step for one pair.
type Removal struct {
	Pair     MatchPair
	Action   Action
	Victim   CandidateFile
	Survivor CandidateFile
	Bytes    int64
	Err      error
}

// Outcome classifies a finished run.
type Outcome int

const (
	// OutcomeNoImages means nothing in the folder decoded as an image.
	OutcomeNoImages Outcome = iota
	// OutcomeNoDuplicates means images were found but no pair matched.
	OutcomeNoDuplicates
	// OutcomeDuplicates means at least one pair matched.
	OutcomeDuplicates
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoImages:
		return "no images"
	case OutcomeNoDuplicates:
		return "no duplicates"
	case OutcomeDuplicates:
		return "duplicates"
	default:
		return "unknown"
	}
}

// RunStats counts what a run looked at.
type RunStats struct {
	Candidates    int
	Fingerprinted int
	NonImages     int
	Unreadable    int
	RawFiles      int
	Comparisons   int
	Removed       int
	BytesFreed    int64
}

// RunResult is the outcome of one scan. It is never persisted.
type RunResult struct {
	RunID    string
	Folder   string
	Outcome  Outcome
	Matches  []MatchPair
	Removals []Removal
	Skipped  map[string]SkipReason
	Stats    RunStats
}

// NoDuplicatesLine is the sentinel report line for a scan without matches.
func NoDuplicatesLine(folder string) string {
	return fmt.Sprintf("No similar images in folder %s.", folder)
}

// Report returns the human-readable report lines: one per match in order,
// the no-duplicates sentinel, or nothing when no images were found.
func (r *RunResult) Report() []string {
	switch r.Outcome {
	case OutcomeNoImages:
		return nil
	case OutcomeNoDuplicates:
		return []string{NoDuplicatesLine(r.Folder)}
	}
	lines := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		lines = append(lines, m.String())
	}
	if len(lines) == 0 {
		return []string{NoDuplicatesLine(r.Folder)}
	}
	return lines
}
