package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/evacflow/internal/engine"
	"github.com/gyaneshwarpardhi/evacflow/internal/report"
)

func runCmd() *cobra.Command {
	var (
		densities []float64
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Simulate every building of a scenario and print the summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), args[0], densities, asJSON)
		},
	}
	cmd.Flags().Float64SliceVar(&densities, "density", nil, "uniform densities to sweep (people/m²)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func runScenario(ctx context.Context, path string, densities []float64, asJSON bool) error {
	cfg, closer, err := loadScenario(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, err := report.FromConfig(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	eng := engine.New(ctx, cfg, sinks)
	defer eng.Shutdown()

	jobs := engine.Jobs(cfg)
	if len(densities) > 0 {
		jobs = engine.Sweep(cfg, densities)
	}
	results := eng.RunBatch(ctx, jobs)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		printResults(jobs, results)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}
	return nil
}

func printResults(jobs []engine.Job, results []*engine.RunResult) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tDENSITY\tBUILDING\tTIME (s)\tTIME (min)\tINSIDE\tEVACUATED\tSTEPS\tERROR")
	for i, r := range results {
		density := "-"
		if sc := jobs[i].Scenario; sc != nil {
			density = fmt.Sprintf("%g", sc.Distribution.Density)
		}
		if r.Summary == nil {
			fmt.Fprintf(tw, "%s\t%s\t%s\t-\t-\t-\t-\t-\t%s\n", r.Source, density, r.Building, r.Error)
			continue
		}
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%s\n", r.Source, density, r.Building,
			s.EvacuationTimeSeconds, s.EvacuationTimeMinutes, s.PeopleInside, s.Evacuated, s.Steps, r.Error)
	}
	_ = tw.Flush()
}
