package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"protoscan/internal/app"
	"protoscan/internal/config"
	"protoscan/internal/shared/version"
)

var (
	configPath     = flag.String("config", "./protoscan.toml", "Path to config file")
	generateReport = flag.Bool("generate-report", false, "Write the JSON analysis report")
	generatePlan   = flag.Bool("generate-plan", false, "Write the JSON migration plan")
	sarifPath      = flag.String("sarif", "", "Write a SARIF 2.1.0 report to the given path")
	failOnWarnings = flag.Bool("fail-on-warnings", false, "Exit non-zero when quality warnings are present")
	timeout        = flag.Duration("timeout", 0, "Analysis time budget, overrides the config value when set")
	trendWindow    = flag.Duration("trend", 0, "Print a trend report over the given window (e.g. 168h) and exit; requires history")
	verbose        = flag.Bool("verbose", false, "Enable verbose logging and warning listings")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

// main delegates to run so the deferred history-store close executes before
// the process exits.
func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("spicheck v%s\n", version.Version)
		return 0
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		if os.IsNotExist(err) && *configPath == "./protoscan.toml" {
			cfg = config.Default()
		} else {
			slog.Error("failed to load config", "error", err)
			return 1
		}
	}

	if flag.NArg() > 0 {
		cfg.ScanPath = flag.Arg(0)
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}

	instance, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer instance.Close()

	if *trendWindow > 0 {
		trend, err := instance.Trend(time.Now().Add(-*trendWindow))
		if err != nil {
			slog.Error("failed to build trend report", "error", err)
			return 1
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(trend); err != nil {
			slog.Error("failed to encode trend report", "error", err)
			return 1
		}
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	analysis, err := instance.Run(ctx)
	cancel()
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}

	if err := instance.Report(analysis, app.Options{
		GenerateReport: *generateReport,
		GeneratePlan:   *generatePlan,
		SARIFPath:      *sarifPath,
		Verbose:        *verbose,
	}); err != nil {
		slog.Error("failed to write outputs", "error", err)
		return 1
	}

	return app.ExitCode(analysis, *failOnWarnings)
}
