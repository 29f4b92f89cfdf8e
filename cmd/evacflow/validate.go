package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/evacflow/internal/bim"
	"github.com/gyaneshwarpardhi/evacflow/internal/graph"
	"github.com/gyaneshwarpardhi/evacflow/internal/model"
	"github.com/gyaneshwarpardhi/evacflow/internal/scenario"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario]",
		Short: "Check a scenario and build every building model without simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func runValidate(path string) error {
	cfg, closer, err := loadScenario(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tBUILDING\tFORMAT\tZONES\tTRANSITS\tEDGES\tAREA (m²)\tPEOPLE\tWARNINGS")
	var errs []error
	for _, src := range cfg.BimPaths() {
		b, err := bim.DecodeFile(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := model.Build(b)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src, err))
			continue
		}
		scenario.Apply(m, cfg)
		g, err := graph.Build(m)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src, err))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\t%d\n", src, m.Name, b.Format,
			len(m.Zones)-1, len(m.Transits), g.EdgeCount(), m.Area(), m.PeopleInside(), len(m.Warnings))
		for _, w := range m.Warnings {
			fmt.Fprintf(tw, "\t  warning: %s\n", w)
		}
	}
	_ = tw.Flush()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	fmt.Println("OK")
	return nil
}
