package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceCAN/internal/config"
	"github.com/OpenTraceLab/OpenTraceCAN/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logFormat  string

	// Active configuration, loaded before any command runs.
	cfg = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "cansig",
	Short: "CAN Bus Signal Discovery Tool",
	Long: `A tool for locating candidate signal bits in unlabeled CAN bus logs
by correlating payload bit changes against a reference message.

Pick a message you can trigger on demand (a steering wheel button, a door
switch) as the reference. Every sighting of it closes a group; message ids
whose payload bits toggle in every group are reported as candidates.

Examples:
  cansig info drive.csv                              # Summarize a Cabana log
  cansig track drive.csv 2d1 0 120-300               # Find candidate signals
  cansig track drive.csv 2d1 0 120-300 -o cand.json  # Save a JSON report
  cansig groups drive.csv 2d1 0 120-300 --id 111     # Inspect one id per group
  cansig runs                                        # List saved runs`,
	Version:           "0.9.0",
	PersistentPreRunE: setupEnv,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupEnv loads the configuration file and installs the default logger
// before any subcommand runs.
func setupEnv(cmd *cobra.Command, args []string) error {
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	format := cfg.LogFormat
	if logFormat != "" {
		format = logFormat
	}
	if _, err := logging.Setup(level, format); err != nil {
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cansig/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
}
