package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/riyasyash/schemaorder/internal/analyzer"
	"github.com/riyasyash/schemaorder/internal/output"
)

var (
	inspectSource    string
	inspectDriver    string
	inspectSchema    string
	inspectNoImplied bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Display the foreign key graph of the database",
	Long: `Inspect shows the foreign key relationships of one schema, including
implied relationships, before any cycle is broken.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSource, "source", "", "Source database DSN (default: SCHEMAORDER_SOURCE env var)")
	inspectCmd.Flags().StringVar(&inspectDriver, "driver", "", "Database driver: postgres, mysql or sqlite (default: postgres)")
	inspectCmd.Flags().StringVar(&inspectSchema, "schema", "", "Schema to inspect (default: the driver's default schema)")
	inspectCmd.Flags().BoolVar(&inspectNoImplied, "no-implied", false, "Do not infer implied foreign keys")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts, err := analyzerOptions(inspectNoImplied)
	if err != nil {
		return err
	}

	conn, err := connect(ctx, inspectDriver, inspectSource)
	if err != nil {
		return err
	}
	defer conn.Close()

	schema := inspectSchema
	if schema == "" && len(cfg.Database.Schemas) > 0 {
		schema = cfg.Database.Schemas[0]
	}

	analysis, err := analyzer.NewEngine(conn, opts).Analyze(ctx, schema)
	if err != nil {
		return err
	}

	return output.NewGraphWriter(cmd.OutOrStdout()).Write(analysis.Graph)
}
