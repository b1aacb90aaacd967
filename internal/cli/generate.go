package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/mempubsub"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/dtdl"
	"github.com/go-digitaltwin/twinview/flowmodel"
	"github.com/go-digitaltwin/twinview/htmldoc"
)

var connectionsPath string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the tree-diagram page and the flow-model document",
	Long: `Generate builds a mock twin population, streams one telemetry snapshot
per twin through the configured broker, derives the flow forest, and writes
the tree-diagram page and the flow-model JSON document.

Without --connections, a demo population of four pumps feeding eight tanks
is generated and its edges are written to connections.json for editing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func init() {
	generateCmd.Flags().StringVar(&connectionsPath, "connections", "", "JSON file of flow edges (default is a generated demo population)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(ctx context.Context) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	store := flowmodel.NewStore(registry)

	var edges []twinview.Edge
	if connectionsPath != "" {
		edges, err = loadConnections(connectionsPath)
		if err != nil {
			return err
		}
		if err := populateFromEdges(store, edges); err != nil {
			return err
		}
		logger.Info("Loaded flow connections", zap.String("file", connectionsPath), zap.Int("edges", len(edges)))
	} else {
		edges, err = populateDemo(store)
		if err != nil {
			return err
		}
		if err := writeConnections("connections.json", edges); err != nil {
			return err
		}
		logger.Info("Generated the demo population", zap.Int("twins", len(store.TwinIDs())), zap.Int("edges", len(edges)))
	}

	if err := streamTelemetry(ctx, store); err != nil {
		return err
	}

	forest, err := twinview.BuildForest(edges, store)
	if err != nil {
		return fmt.Errorf("build forest: %w", err)
	}
	logger.Info("Built the flow forest", zap.Int("nodes", forest.Len()), zap.Int("roots", len(forest.Roots())))

	renderer := twinview.Renderer{Models: registry, Name: "twinview"}
	roots, err := renderer.Render(ctx, forest)
	if err != nil {
		return fmt.Errorf("render forest: %w", err)
	}

	if err := writeDiagram(registry, store, roots); err != nil {
		return err
	}
	if err := writeFlowModel(store); err != nil {
		return err
	}
	return nil
}

// streamTelemetry generates one snapshot per twin, publishes the snapshots
// to the configured broker, and ingests them back into a consumer-side
// store. With the default in-memory broker this exercises the same path a
// deployment with a real broker uses.
func streamTelemetry(ctx context.Context, store *flowmodel.Store) error {
	ids := store.TwinIDs()
	snapshots := make([]flowmodel.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := store.GenerateTelemetry(id)
		if err != nil {
			return fmt.Errorf("generate telemetry: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	// The in-memory broker requires its topic to exist before a
	// subscription can refer to it, and only delivers messages to
	// subscriptions that exist at publish time. Hence the order: topic,
	// subscription, publish.
	topic, err := pubsub.OpenTopic(ctx, cfg.Broker.URL)
	if err != nil {
		return fmt.Errorf("open topic %q: %w", cfg.Broker.URL, err)
	}
	defer func() { _ = topic.Shutdown(ctx) }()
	sub, err := pubsub.OpenSubscription(ctx, cfg.Broker.URL)
	if err != nil {
		return fmt.Errorf("open subscription %q: %w", cfg.Broker.URL, err)
	}
	defer func() { _ = sub.Shutdown(ctx) }()

	if err := flowmodel.PublishSnapshots(ctx, topic, snapshots); err != nil {
		return err
	}

	var tracked flowmodel.TelemetryStore
	if err := tracked.Ingest(ctx, sub, len(snapshots)); err != nil {
		return fmt.Errorf("ingest snapshots: %w", err)
	}
	logger.Info("Streamed telemetry snapshots",
		zap.String("broker", cfg.Broker.URL),
		zap.Int("published", len(snapshots)),
		zap.Int("tracked", tracked.Len()),
	)
	return nil
}

func writeDiagram(registry *dtdl.Registry, store *flowmodel.Store, roots []*twinview.RenderedNode) error {
	doc := htmldoc.Document{
		Roots:      roots,
		ModelNames: make(map[string]string),
	}
	for _, m := range registry.Models() {
		doc.ModelNames[m.ID] = m.DisplayName
	}
	for _, id := range store.TwinIDs() {
		if twin, ok := store.Twin(id); ok {
			doc.Twins = append(doc.Twins, twin)
		}
	}
	if cfg.Output.Template != "" {
		tmpl, err := os.ReadFile(cfg.Output.Template)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		doc.Template = string(tmpl)
	}

	f, err := os.Create(cfg.Output.Diagram)
	if err != nil {
		return fmt.Errorf("create diagram file: %w", err)
	}
	defer f.Close()
	if err := doc.Render(f); err != nil {
		return fmt.Errorf("write diagram: %w", err)
	}
	logger.Info("Generated the tree diagram", zap.String("file", cfg.Output.Diagram))
	return nil
}

func writeFlowModel(store *flowmodel.Store) error {
	f, err := os.Create(cfg.Output.FlowModel)
	if err != nil {
		return fmt.Errorf("create flow-model file: %w", err)
	}
	defer f.Close()
	if err := store.Export(f); err != nil {
		return fmt.Errorf("write flow model: %w", err)
	}
	logger.Info("Exported the flow model", zap.String("file", cfg.Output.FlowModel))
	return nil
}
