package cli

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/flowmodel"
	"github.com/go-digitaltwin/twinview/neo4jexport"
)

var exportConnectionsPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the flow forest to a Neo4j database",
	Long: `Export builds the same flow forest the generate command renders and
mirrors it into the configured Neo4j database: one Twin node per twin and
one FEEDS relationship per flow edge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportConnectionsPath, "connections", "", "JSON file of flow edges (default is a generated demo population)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	store := flowmodel.NewStore(registry)

	var edges []twinview.Edge
	if exportConnectionsPath != "" {
		edges, err = loadConnections(exportConnectionsPath)
		if err != nil {
			return err
		}
		if err := populateFromEdges(store, edges); err != nil {
			return err
		}
	} else {
		edges, err = populateDemo(store)
		if err != nil {
			return err
		}
	}

	forest, err := twinview.BuildForest(edges, store)
	if err != nil {
		return fmt.Errorf("build forest: %w", err)
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URI, neo4jAuth())
	if err != nil {
		return fmt.Errorf("open neo4j driver: %w", err)
	}
	defer func() {
		if err := driver.Close(ctx); err != nil {
			logger.Error("Failed to close the neo4j driver", zap.Error(err))
		}
	}()

	exporter := &neo4jexport.Exporter{Driver: driver, Database: cfg.Neo4j.Database}
	if err := exporter.EnsureConstraints(ctx); err != nil {
		return err
	}
	if err := exporter.Export(ctx, forest); err != nil {
		return err
	}

	logger.Info("Exported the flow forest to neo4j",
		zap.String("uri", cfg.Neo4j.URI),
		zap.String("database", cfg.Neo4j.Database),
		zap.Int("nodes", forest.Len()),
	)
	return nil
}

func neo4jAuth() neo4j.AuthToken {
	if cfg.Neo4j.Username == "" {
		return neo4j.NoAuth()
	}
	return neo4j.BasicAuth(cfg.Neo4j.Username, cfg.Neo4j.Password, "")
}
