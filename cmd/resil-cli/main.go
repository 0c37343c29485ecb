package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfalzone/resil/internal/config"
	"github.com/mfalzone/resil/internal/eval"
	"github.com/mfalzone/resil/internal/prom"
	"github.com/mfalzone/resil/internal/resiliency"
	"github.com/mfalzone/resil/internal/score"
	"github.com/mfalzone/resil/internal/slo"
	"github.com/mfalzone/resil/internal/storage/sqlite"
	"github.com/mfalzone/resil/internal/telemetry"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "score":
		os.Exit(runScore(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: resil <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  score    --manifest <path> [options]   Score a chaos run described by a manifest")
	fmt.Println("  validate --definitions <path>          Validate an SLO definitions file")
	fmt.Println()
}

// manifest describes one chaos run to score.
type manifest struct {
	RunID     string             `yaml:"run_id"`
	Scenarios []manifestScenario `yaml:"scenarios"`
}

type manifestScenario struct {
	Name         string                `yaml:"name"`
	Start        time.Time             `yaml:"start"`
	End          time.Time             `yaml:"end"`
	Weight       float64               `yaml:"weight"`
	HealthChecks []manifestHealthCheck `yaml:"health_checks,omitempty"`
}

type manifestHealthCheck struct {
	Name    string `yaml:"name"`
	Healthy bool   `yaml:"healthy"`
}

func runScore(args []string) int {
	cfg := config.DefaultConfig()
	if err := cfg.FromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid environment: %v\n", err)
		return 1
	}

	scoreCmd := flag.NewFlagSet("score", flag.ExitOnError)
	manifestPath := scoreCmd.String("manifest", "", "YAML manifest describing the run's scenarios")
	detailed := scoreCmd.Bool("detailed", false, "print the detailed report instead of the summary")
	weightSpec := scoreCmd.String("weights", "", "per-severity weight overrides, e.g. critical=3,warning=1")
	scoreCmd.StringVar(&cfg.PrometheusURL, "prometheus-url", cfg.PrometheusURL, "Prometheus server URL")
	scoreCmd.StringVar(&cfg.DefinitionsPath, "definitions", cfg.DefinitionsPath, "path to the SLO definitions file")
	scoreCmd.StringVar(&cfg.SchemaPath, "schema", cfg.SchemaPath, "optional JSON schema for definitions validation")
	scoreCmd.StringVar(&cfg.ArchivePath, "archive", cfg.ArchivePath, "optional SQLite database to archive the report into")
	scoreCmd.IntVar(&cfg.StepSeconds, "step", cfg.StepSeconds, "range query granularity in seconds")
	scoreCmd.Parse(args)

	if *weightSpec != "" {
		weights, err := config.ParseWeights(*weightSpec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --weights: %v\n", err)
			return 1
		}
		cfg.WeightOverrides = weights
	}

	if *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --manifest flag is required")
		scoreCmd.Usage()
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return 1
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	backend := prom.NewHTTPClient(prom.Config{
		URL:            cfg.PrometheusURL,
		Timeout:        cfg.QueryTimeout,
		MaxConcurrency: cfg.MaxConcurrency,
		RetryCount:     1,
		RetryDelay:     100 * time.Millisecond,
	})

	opts := []resiliency.Option{resiliency.WithStep(cfg.Step())}
	if cfg.WeightOverrides != nil {
		opts = append(opts, resiliency.WithWeights(score.Weights(cfg.WeightOverrides)))
	}
	if cfg.SchemaPath != "" {
		validator, err := slo.NewValidator(cfg.SchemaPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to initialize validator: %v\n", err)
			return 1
		}
		opts = append(opts, resiliency.WithValidator(validator))
	}

	source := slo.Source{Content: cfg.DefinitionsContent, Path: cfg.DefinitionsPath}
	report := resiliency.ScoreRun(context.Background(), source, backend, manifestScenarios(m), opts...)
	if report == nil {
		fmt.Fprintln(os.Stderr, "Error: run could not be scored (see log output)")
		return 1
	}

	rt := buildTelemetry(m, report)

	if cfg.ArchivePath != "" {
		if err := archiveRun(cfg.ArchivePath, rt.RunID, report); err != nil {
			log.Printf("warning: failed to archive run: %v", err)
		}
	}

	var out interface{} = report.Summary
	if *detailed {
		out = rt
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to encode report: %v\n", err)
		return 1
	}
	fmt.Println(string(encoded))
	return 0
}

// manifestScenarios converts manifest entries into scenario specs.
func manifestScenarios(m *manifest) []resiliency.ScenarioSpec {
	specs := make([]resiliency.ScenarioSpec, 0, len(m.Scenarios))
	for _, sc := range m.Scenarios {
		var checks []resiliency.HealthCheck
		for _, hc := range sc.HealthChecks {
			checks = append(checks, resiliency.StaticHealthCheck{CheckName: hc.Name, Passed: hc.Healthy})
		}
		specs = append(specs, resiliency.ScenarioSpec{
			Name:   sc.Name,
			Window: eval.Window{Start: sc.Start, End: sc.End},
			Weight: sc.Weight,
			Checks: checks,
		})
	}
	return specs
}

// buildTelemetry assembles the run telemetry with the report attached.
func buildTelemetry(m *manifest, report *resiliency.DetailedReport) *telemetry.RunTelemetry {
	rt := &telemetry.RunTelemetry{RunID: m.RunID}
	for _, sc := range m.Scenarios {
		rt.Scenarios = append(rt.Scenarios, telemetry.ScenarioRecord{
			Scenario:       sc.Name,
			StartTimestamp: float64(sc.Start.Unix()),
			EndTimestamp:   float64(sc.End.Unix()),
		})
	}
	rt.AttachReport(report)
	telemetry.AttachScenarioScores(rt, report.Summary)
	return rt
}

func archiveRun(path, runID string, report *resiliency.DetailedReport) error {
	store, err := sqlite.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.StoreRun(runID, report)
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Scenarios) == 0 {
		return nil, fmt.Errorf("manifest has no scenarios")
	}
	if m.RunID == "" {
		m.RunID = fmt.Sprintf("run-%d", time.Now().Unix())
	}
	return &m, nil
}

func runValidate(args []string) int {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	defsPath := validateCmd.String("definitions", "", "path to the SLO definitions file")
	schemaPath := validateCmd.String("schema", "schemas/signals_v1.json", "path to the definitions JSON schema")
	validateCmd.Parse(args)

	if *defsPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --definitions flag is required")
		validateCmd.Usage()
		return 1
	}

	validator, err := slo.NewValidator(*schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize validator: %v\n", err)
		return 1
	}

	errors := validator.ValidateSource(slo.Source{Path: *defsPath})
	if len(errors) == 0 {
		fmt.Println("✓ definitions file is valid")
		return 0
	}

	fmt.Fprintf(os.Stderr, "✗ validation failed with %d error(s):\n\n", len(errors))
	for _, verr := range errors {
		fmt.Fprintf(os.Stderr, "%v\n", verr)
	}
	return 1
}
