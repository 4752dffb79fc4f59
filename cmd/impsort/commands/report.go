package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/impsort/internal/observability"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

const (
	statusSorted    = "sorted"
	statusRewritten = "rewritten"
	statusUnsorted  = "unsorted"
	statusFailed    = "failed"
)

// fileReport is the per-file outcome of a run. Exported fields appear in
// the json and yaml reports; the rest only feed text output and metrics.
type fileReport struct {
	Path    string `json:"path"              yaml:"path"`
	Status  string `json:"status"            yaml:"status"`
	Imports int    `json:"imports"           yaml:"imports"`
	Removed int    `json:"removed,omitempty" yaml:"removed,omitempty"`
	Reason  string `json:"reason,omitempty"  yaml:"reason,omitempty"`

	diff       string
	duration   time.Duration
	classified bool
}

// runReport aggregates one run over all discovered files.
type runReport struct {
	Files     []fileReport `json:"files"     yaml:"files"`
	Total     int          `json:"total"     yaml:"total"`
	Rewritten int          `json:"rewritten" yaml:"rewritten"`
	Unsorted  int          `json:"unsorted"  yaml:"unsorted"`
	Failed    int          `json:"failed"    yaml:"failed"`
}

func summarize(files []fileReport) *runReport {
	report := &runReport{Files: files, Total: len(files)}

	for i := range files {
		switch files[i].Status {
		case statusRewritten:
			report.Rewritten++
		case statusUnsorted:
			report.Unsorted++
		case statusFailed:
			report.Failed++
		}
	}

	return report
}

// exitError maps the aggregate outcome onto the command's exit condition.
// Failures always fail the run; unsorted files only fail it in check mode.
func (r *runReport) exitError(mode runMode) error {
	if r.Failed > 0 {
		return ErrFilesFailed
	}

	if mode == modeCheck && r.Unsorted > 0 {
		return ErrCheckFailed
	}

	return nil
}

func (r *runReport) stats() observability.RunStats {
	stats := observability.RunStats{
		Files:     int64(r.Total),
		Rewritten: int64(r.Rewritten),
	}

	for i := range r.Files {
		file := &r.Files[i]
		stats.Imports += int64(file.Imports)
		stats.Removed += int64(file.Removed)
		stats.FileDurations = append(stats.FileDurations, file.duration)

		if file.Status != statusFailed {
			continue
		}

		if file.classified {
			stats.ParseFailures++
		} else {
			stats.IOFailures++
		}
	}

	return stats
}

func (rc *RunCommand) writeOutput(report *runReport, w io.Writer) error {
	switch rc.format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		encodeErr := enc.Encode(report)
		if encodeErr != nil {
			return fmt.Errorf("encode report: %w", encodeErr)
		}

		return nil
	case formatYAML:
		data, marshalErr := yaml.Marshal(report)
		if marshalErr != nil {
			return fmt.Errorf("encode report: %w", marshalErr)
		}

		_, writeErr := w.Write(data)

		return writeErr
	default:
		if rc.summary {
			renderSummary(report, w)

			return nil
		}

		renderText(report, w)

		return nil
	}
}

func renderText(report *runReport, w io.Writer) {
	for i := range report.Files {
		file := &report.Files[i]

		switch file.Status {
		case statusFailed:
			color.New(color.FgRed).Fprintf(w, "%s: failed: %s\n", file.Path, file.Reason)
		case statusRewritten:
			color.New(color.FgYellow).Fprintf(w, "%s: rewritten (%d imports)\n", file.Path, file.Imports)
		case statusUnsorted:
			color.New(color.FgYellow).Fprintf(w, "%s: unsorted (%d imports)\n", file.Path, file.Imports)
		default:
			color.New(color.FgGreen).Fprintf(w, "%s: sorted (%d imports)\n", file.Path, file.Imports)
		}

		if file.diff != "" {
			_, _ = fmt.Fprint(w, file.diff)
		}
	}

	_, _ = fmt.Fprintf(w, "%d files: %d rewritten, %d unsorted, %d failed\n",
		report.Total, report.Rewritten, report.Unsorted, report.Failed)
}

func renderSummary(report *runReport, w io.Writer) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"File", "Status", "Imports", "Reason"})

	for i := range report.Files {
		file := &report.Files[i]
		tbl.AppendRow(table.Row{file.Path, file.Status, file.Imports, file.Reason})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %d files", report.Total),
		fmt.Sprintf("%d rewritten, %d unsorted, %d failed", report.Rewritten, report.Unsorted, report.Failed),
		"",
		"",
	})

	_, _ = fmt.Fprintln(w, tbl.Render())
}

// renderDiff produces a minimal line diff of the rewrite: removed and
// added lines only, no context.
func renderDiff(path, before, after string) string {
	dmp := diffmatchpatch.New()
	src, dst, lineIndex := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(diffs, lineIndex)

	var sb strings.Builder

	_, _ = fmt.Fprintf(&sb, "--- %s\n+++ %s (sorted)\n", path, path)

	for _, diff := range diffs {
		var prefix string

		switch diff.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}

		for _, line := range strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}
