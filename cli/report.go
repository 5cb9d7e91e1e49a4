package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"

	"imagededup/types"
)

type reportOptions struct {
	table bool
	quiet bool
}

// printReport writes the match report followed by a short summary.
func printReport(w io.Writer, result *types.RunResult, opts reportOptions) {
	if result.Outcome == types.OutcomeNoImages {
		if opts.quiet {
			fmt.Fprintln(w, "No images were found in the given folder.")
		}
		return
	}

	if !opts.quiet {
		fmt.Fprintln(w, "\n\nSimilar images:")
	}
	if result.Outcome == types.OutcomeNoDuplicates {
		fmt.Fprintln(w, types.NoDuplicatesLine(result.Folder))
		return
	}

	if opts.table {
		fmt.Fprintln(w, matchTable(result))
	} else {
		for _, line := range result.Report() {
			fmt.Fprintln(w, line)
		}
	}

	if opts.quiet {
		return
	}
	fmt.Fprintln(w, summaryLine(result))
}

func matchTable(result *types.RunResult) string {
	actions := make(map[types.MatchPair]types.Removal, len(result.Removals))
	for _, r := range result.Removals {
		actions[r.Pair] = r
	}

	headers := []string{"#", "File A", "File B", "Distance"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight}
	if len(result.Removals) > 0 {
		headers = append(headers, "Action", "Deleted")
		aligns = append(aligns, alignLeft, alignLeft)
	}

	rows := make([][]string, 0, len(result.Matches))
	for i, m := range result.Matches {
		row := []string{strconv.Itoa(i + 1), m.A.Name, m.B.Name, strconv.Itoa(m.Distance)}
		if len(result.Removals) > 0 {
			removal, ok := actions[m]
			switch {
			case !ok:
				row = append(row, "", "")
			case removal.Action == types.ActionRemoved:
				row = append(row, removal.Action.String(), removal.Victim.Name)
			default:
				row = append(row, removal.Action.String(), "")
			}
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func summaryLine(result *types.RunResult) string {
	s := result.Stats
	line := fmt.Sprintf("\n%d similar pairs among %d images (%d comparisons).", len(result.Matches), s.Fingerprinted, s.Comparisons)
	if s.RawFiles > 0 {
		line += fmt.Sprintf(" %d RAW files scanned.", s.RawFiles)
	}
	if len(result.Removals) > 0 {
		line += fmt.Sprintf(" Deleted %d files, freed %s.", s.Removed, humanize.Bytes(uint64(s.BytesFreed)))
	}
	return line
}
