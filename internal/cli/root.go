// Package cli implements the twinview command line: generating tree-diagram
// pages and flow-model documents from DTDL models, and exporting built
// forests to Neo4j.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-digitaltwin/twinview/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "twinview",
	Short: "twinview renders digital-twin flow diagrams from DTDL models",
	Long: `twinview builds a mock digital-twin population from DTDL interface
documents, derives a rooted forest from its flow connections, and renders
the forest as a CSS tree-diagram page. The built forest can also be
exported to a Neo4j database for ad-hoc Cypher queries.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("initialise logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits the process on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./twinview.yaml)")
}
