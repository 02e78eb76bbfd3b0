package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"protoscan/internal/app"
	"protoscan/internal/config"
	"protoscan/internal/shared/observability"
	"protoscan/internal/shared/version"
)

var (
	configPath     = flag.String("config", "./protoscan.toml", "Path to config file")
	generateReport = flag.Bool("generate-report", false, "Write the JSON analysis report")
	generatePlan   = flag.Bool("generate-plan", false, "Write the JSON migration plan")
	sarifPath      = flag.String("sarif", "", "Write a SARIF 2.1.0 report to the given path")
	watch          = flag.Bool("watch", false, "Rescan on file changes instead of exiting")
	timeout        = flag.Duration("timeout", 0, "Analysis time budget, overrides the config value when set")
	metricsListen  = flag.String("metrics-listen", "", "Expose /metrics and /health on this address")
	verbose        = flag.Bool("verbose", false, "Enable verbose logging and warning listings")
	showVersion    = flag.Bool("version", false, "Print version and exit")
)

// main delegates to run so deferred cleanup (history store, metrics
// listener) executes before the process exits.
func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("protodup v%s\n", version.Version)
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
	if *metricsListen != "" {
		cfg.Metrics.Listen = *metricsListen
	}

	instance, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer instance.Close()

	if cfg.Metrics.Listen != "" {
		server := observability.NewServer(cfg.Metrics.Listen, nil)
		if err := server.Start(context.Background()); err != nil {
			slog.Error("failed to start metrics listener", "error", err)
			return 1
		}
		defer server.Stop(context.Background())
	}

	opts := app.Options{
		GenerateReport: *generateReport,
		GeneratePlan:   *generatePlan,
		SARIFPath:      *sarifPath,
		Verbose:        *verbose,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	analysis, err := instance.Run(ctx)
	cancel()
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}

	if err := instance.Report(analysis, opts); err != nil {
		slog.Error("failed to write outputs", "error", err)
		return 1
	}

	if *watch {
		if err := instance.Watch(context.Background(), opts, nil); err != nil {
			slog.Error("watch mode stopped", "error", err)
			return 1
		}
		return 0
	}

	return app.ExitCode(analysis, false)
}
