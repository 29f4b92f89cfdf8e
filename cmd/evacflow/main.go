package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/evacflow/internal/config"
	"github.com/gyaneshwarpardhi/evacflow/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "evacflow",
		Short:         "Evacuation flow simulator for building models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadScenario reads and validates the scenario, then installs the logger
// it names. The returned closer releases the log file.
func loadScenario(path string) (*config.ScenarioConfig, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	closer, err := logging.Setup(cfg.Resolve(cfg.LoggerCfg))
	if err != nil {
		return nil, nil, err
	}
	slog.Debug("scenario loaded", "path", path, "version", cfg.Version, "bim_files", len(cfg.BimFiles))
	return cfg, closer, nil
}
