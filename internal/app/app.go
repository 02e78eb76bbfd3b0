package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"protoscan/internal/analyzer"
	"protoscan/internal/classify"
	"protoscan/internal/config"
	scanerrors "protoscan/internal/errors"
	"protoscan/internal/history"
	"protoscan/internal/parser"
	"protoscan/internal/report"
	"protoscan/internal/shared/observability"
	"protoscan/internal/walker"
)

// Options selects the output surfaces for a run. Flags map onto this 1:1.
type Options struct {
	GenerateReport bool
	GeneratePlan   bool
	SARIFPath      string
	FailOnWarnings bool
	Verbose        bool
}

type App struct {
	Config *config.Config

	walker     *walker.Walker
	parser     *parser.Parser
	classifier *classify.Classifier
	analyzer   *analyzer.Analyzer
	store      *history.Store
	out        io.Writer
}

func New(cfg *config.Config) (*App, error) {
	w, err := walker.New(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	p := parser.NewParser(parser.NewGrammarLoader(), cfg.Extract, cfg.ScanPath)
	p.RegisterExtractor("python", parser.NewPythonExtractor(cfg.Extract))
	p.RegisterFallback("python", parser.NewPythonFallback(cfg.Extract))
	p.RegisterExtractor("go", &parser.GoExtractor{})

	a := &App{
		Config:     cfg,
		walker:     w,
		parser:     p,
		classifier: classify.NewClassifier(cfg.Classify, cfg.Extract),
		analyzer:   analyzer.New(cfg.Detect),
		out:        os.Stdout,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	return a, nil
}

func (a *App) SetOutput(out io.Writer) {
	a.out = out
}

func (a *App) Close() error {
	return a.store.Close()
}

// Run executes one full analysis pass over the configured scan path. The
// context carries the global time budget; exceeding it aborts with a
// TIMEOUT-coded error rather than a partial result.
func (a *App) Run(ctx context.Context) (*analyzer.Analysis, error) {
	started := time.Now()

	files, err := a.walker.Scan(a.Config.ScanPath)
	if err != nil {
		return nil, err
	}

	var (
		records []classify.Record
		issues  []analyzer.FileIssue
		skipped int
	)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, scanerrors.Wrap(err, scanerrors.CodeTimeout, "analysis budget exhausted")
		}

		observability.FilesWalkedTotal.Inc()

		content, err := os.ReadFile(path)
		if err != nil {
			issues = append(issues, analyzer.FileIssue{Path: path, Message: err.Error()})
			continue
		}

		if a.parser.QuickSkip(path, content) {
			observability.FilesSkippedTotal.Inc()
			skipped++
			continue
		}

		parseStart := time.Now()
		result, err := a.parser.ParseFile(path, content)
		if err != nil {
			perr := scanerrors.Wrap(err, scanerrors.CodeParse, "parse failed")
			issues = append(issues, analyzer.FileIssue{Path: path, Message: perr.Error()})
			continue
		}
		observability.ParsingDuration.WithLabelValues(result.Language).Observe(time.Since(parseStart).Seconds())

		for _, msg := range result.Errors {
			observability.ParseErrorsTotal.WithLabelValues(result.Language).Inc()
			perr := scanerrors.New(scanerrors.CodeParse, msg)
			issues = append(issues, analyzer.FileIssue{Path: path, Message: perr.Error()})
		}
		if result.Degraded {
			slog.Warn("degraded extraction", "path", path)
		}

		records = append(records, a.classifier.ClassifyAll(result.Interfaces)...)
	}

	analysisStart := time.Now()
	analysis := a.analyzer.Analyze(a.Config.ScanPath, records, issues)
	observability.AnalysisDuration.WithLabelValues("detect").Observe(time.Since(analysisStart).Seconds())

	analysis.Duration = time.Since(started)
	analysis.FilesScanned = len(files)
	analysis.FilesSkipped = skipped

	observability.ProtocolsExtracted.Set(float64(len(records)))
	observability.DuplicateGroups.Set(float64(len(analysis.Duplicates)))
	observability.NameConflicts.Set(float64(len(analysis.Conflicts)))

	if a.store != nil {
		snapshot := history.Snapshot{
			RunID:             analysis.RunID,
			Timestamp:         analysis.GeneratedAt,
			FileCount:         analysis.FilesScanned,
			ProtocolCount:     len(analysis.Records),
			DuplicateCount:    len(analysis.Duplicates),
			ConflictCount:     len(analysis.Conflicts),
			WarningCount:      len(analysis.Warnings),
			ErrorCount:        len(analysis.Errors),
			DocstringCoverage: analysis.Quality.DocstringCoverage,
			AvgMethods:        analysis.Quality.AvgMethods,
		}
		if err := a.store.SaveSnapshot(a.Config.ScanPath, snapshot); err != nil {
			slog.Warn("failed to save history snapshot", "error", err)
		}
	}

	return analysis, nil
}

// Report renders the terminal output and writes the artifacts selected in
// opts.
func (a *App) Report(analysis *analyzer.Analysis, opts Options) error {
	report.NewWriter(a.out, opts.Verbose).Render(analysis)

	if opts.GenerateReport {
		if err := report.WriteArtifact(a.Config.Output.ReportPath, analysis); err != nil {
			return err
		}
		slog.Info("analysis report written", "path", a.Config.Output.ReportPath)
	}

	if opts.GeneratePlan {
		plan := analyzer.BuildPlan(analysis)
		if err := report.WritePlan(a.Config.Output.PlanPath, plan); err != nil {
			return err
		}
		slog.Info("migration plan written", "path", a.Config.Output.PlanPath)
	}

	sarifPath := opts.SARIFPath
	if sarifPath == "" {
		sarifPath = a.Config.Output.SARIFPath
	}
	if sarifPath != "" {
		data, err := report.GenerateSARIF(a.Config.ScanPath, analysis)
		if err != nil {
			return err
		}
		if err := os.WriteFile(sarifPath, data, 0o644); err != nil {
			return err
		}
		slog.Info("sarif report written", "path", sarifPath)
	}

	return nil
}

// ExitCode maps an analysis onto the process exit status. Zero requires an
// empty duplicate set and an empty conflict set; with FailOnWarnings it also
// requires zero warnings.
func ExitCode(analysis *analyzer.Analysis, failOnWarnings bool) int {
	if !analysis.Clean() {
		return 1
	}
	if failOnWarnings && len(analysis.Warnings) > 0 {
		return 1
	}
	return 0
}

// Trend loads persisted run summaries and builds a trend report. Requires
// history to be enabled.
func (a *App) Trend(since time.Time) (history.TrendReport, error) {
	if a.store == nil {
		return history.TrendReport{}, scanerrors.New(scanerrors.CodeValidation, "history is not enabled")
	}
	snapshots, err := a.store.LoadSnapshots(a.Config.ScanPath, since)
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(snapshots)
}
