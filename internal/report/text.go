package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"protoscan/internal/analyzer"
	"protoscan/internal/classify"
	"protoscan/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	duplicateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	conflictStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

// Writer renders the human-facing analysis report.
type Writer struct {
	out     io.Writer
	verbose bool
}

func NewWriter(out io.Writer, verbose bool) *Writer {
	return &Writer{out: out, verbose: verbose}
}

func (w *Writer) Render(analysis *analyzer.Analysis) {
	fmt.Fprintf(w.out, "%s\n", titleStyle("Protocol Signature Analysis"))
	fmt.Fprintf(w.out, "%s\n\n", dimStyle.Render(fmt.Sprintf(
		"root=%s files=%d skipped=%d protocols=%d duration=%s",
		analysis.Root, analysis.FilesScanned, analysis.FilesSkipped,
		len(analysis.Records), analysis.Duration.Round(time.Millisecond))))

	w.renderDuplicates(analysis)
	w.renderConflicts(analysis)
	w.renderDomains(analysis)
	w.renderQuality(analysis)
	w.renderWarnings(analysis)
	w.renderErrors(analysis)

	if analysis.Clean() {
		fmt.Fprintf(w.out, "%s\n", successStyle.Render("No duplicate signatures or name conflicts found."))
	} else {
		fmt.Fprintf(w.out, "%s\n", duplicateStyle.Render(fmt.Sprintf(
			"%d duplicate group(s), %d name conflict(s).",
			len(analysis.Duplicates), len(analysis.Conflicts))))
	}
}

func (w *Writer) renderDuplicates(analysis *analyzer.Analysis) {
	if len(analysis.Duplicates) == 0 {
		return
	}
	fmt.Fprintf(w.out, "%s\n", duplicateStyle.Render(fmt.Sprintf("Duplicate signatures (%d groups)", len(analysis.Duplicates))))
	for _, group := range analysis.Duplicates {
		fmt.Fprintf(w.out, "  [%s] domain=%s shape=%s\n", group.Hash, group.Domain, group.Shape)
		for _, rec := range group.Records {
			fmt.Fprintf(w.out, "    %s  %s\n", rec.Name, location(rec))
		}
		fmt.Fprintf(w.out, "    %s\n", dimStyle.Render(
			"suggestion: keep "+canonicalName(group)+" and re-export the rest from its module"))
	}
	fmt.Fprintln(w.out)
}

func (w *Writer) renderConflicts(analysis *analyzer.Analysis) {
	if len(analysis.Conflicts) == 0 {
		return
	}
	fmt.Fprintf(w.out, "%s\n", conflictStyle.Render(fmt.Sprintf("Name conflicts (%d)", len(analysis.Conflicts))))
	for _, conflict := range analysis.Conflicts {
		fmt.Fprintf(w.out, "  %s (%d signatures)\n", conflict.Name, len(conflict.Hashes))
		for _, rec := range conflict.Records {
			fmt.Fprintf(w.out, "    [%s] %s\n", rec.SignatureHash, location(rec))
		}
		fmt.Fprintf(w.out, "    %s\n", dimStyle.Render(
			"suggestion: rename with a domain qualifier (e.g. "+conflict.Name+" -> "+qualifiedExample(conflict)+")"))
	}
	fmt.Fprintln(w.out)
}

func (w *Writer) renderDomains(analysis *analyzer.Analysis) {
	if len(analysis.Domains) == 0 {
		return
	}
	fmt.Fprintf(w.out, "%s\n", titleStyle("Domain distribution"))
	for _, domain := range util.SortedStringKeys(analysis.Domains) {
		stats := analysis.Domains[domain]
		fmt.Fprintf(w.out, "  %-24s %3d protocols  %d runtime-checkable  %s\n",
			domain, stats.Count, stats.RuntimeCheckable, shapeSummary(stats.Shapes))
	}
	fmt.Fprintln(w.out)
}

func (w *Writer) renderQuality(analysis *analyzer.Analysis) {
	q := analysis.Quality
	fmt.Fprintf(w.out, "%s\n", titleStyle("Quality"))
	fmt.Fprintf(w.out, "  total=%d empty=%d data_only=%d functional=%d\n",
		q.TotalProtocols, q.EmptyProtocols, q.DataOnlyProtocols, q.FunctionalCount)
	fmt.Fprintf(w.out, "  docstring coverage %.1f%% (%d missing)  avg methods %.1f  avg properties %.1f\n\n",
		q.DocstringCoverage*100, q.MissingDocstrings, q.AvgMethods, q.AvgProperties)
}

func (w *Writer) renderWarnings(analysis *analyzer.Analysis) {
	if len(analysis.Warnings) == 0 || !w.verbose {
		if len(analysis.Warnings) > 0 {
			fmt.Fprintf(w.out, "%s\n\n", dimStyle.Render(fmt.Sprintf(
				"%d warning(s); run with --verbose to list them", len(analysis.Warnings))))
		}
		return
	}
	fmt.Fprintf(w.out, "%s\n", conflictStyle.Render(fmt.Sprintf("Warnings (%d)", len(analysis.Warnings))))
	for _, warning := range analysis.Warnings {
		loc := warning.File
		if warning.Line > 0 {
			loc = fmt.Sprintf("%s:%d", warning.File, warning.Line)
		}
		fmt.Fprintf(w.out, "  %s  %s (%s)\n", warning.Protocol, warning.Message, loc)
	}
	fmt.Fprintln(w.out)
}

func (w *Writer) renderErrors(analysis *analyzer.Analysis) {
	if len(analysis.Errors) == 0 {
		return
	}
	fmt.Fprintf(w.out, "%s\n", duplicateStyle.Render(fmt.Sprintf("Parse errors (%d files)", len(analysis.Errors))))
	for _, issue := range analysis.Errors {
		fmt.Fprintf(w.out, "  %s: %s\n", issue.Path, issue.Message)
	}
	fmt.Fprintln(w.out)
}

func location(rec classify.Record) string {
	if rec.Location.Line > 0 {
		return fmt.Sprintf("%s:%d", rec.FilePath, rec.Location.Line)
	}
	return rec.FilePath
}

func canonicalName(group analyzer.DuplicateGroup) string {
	if len(group.Records) == 0 {
		return ""
	}
	best := group.Records[0]
	for _, rec := range group.Records[1:] {
		if len(rec.ModulePath) < len(best.ModulePath) ||
			(len(rec.ModulePath) == len(best.ModulePath) && rec.FilePath < best.FilePath) {
			best = rec
		}
	}
	return best.Name
}

func qualifiedExample(conflict analyzer.NameConflict) string {
	for _, rec := range conflict.Records {
		if rec.Domain != classify.DomainUnknown {
			suffix := strings.ToUpper(rec.Domain[:1]) + rec.Domain[1:]
			return rec.Name + suffix
		}
	}
	return conflict.Name + "V2"
}

func shapeSummary(shapes map[classify.Shape]int) string {
	keys := make([]string, 0, len(shapes))
	for shape := range shapes {
		keys = append(keys, string(shape))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, shapes[classify.Shape(key)]))
	}
	return strings.Join(parts, " ")
}
