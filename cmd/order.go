package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/riyasyash/schemaorder/internal/analyzer"
	"github.com/riyasyash/schemaorder/internal/logger"
	"github.com/riyasyash/schemaorder/internal/output"
)

var (
	orderSource    string
	orderDriver    string
	orderSchemas   []string
	orderFormat    string
	orderOutFile   string
	orderNoImplied bool
	orderStrict    bool
)

// ErrConstraintsRemoved is returned in strict mode when cycles had to be broken.
var ErrConstraintsRemoved = errors.New("foreign key cycles were broken")

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print load and deletion orders for every table",
	Long: `Order scans one or more schemas and prints the tables in an order in which
parents precede children. Constraints removed to break cycles, implied
constraints and unresolved references are reported alongside.`,
	RunE: runOrder,
}

func init() {
	orderCmd.Flags().StringVar(&orderSource, "source", "", "Source database DSN (default: SCHEMAORDER_SOURCE env var)")
	orderCmd.Flags().StringVar(&orderDriver, "driver", "", "Database driver: postgres, mysql or sqlite (default: postgres)")
	orderCmd.Flags().StringSliceVar(&orderSchemas, "schema", nil, "Comma-separated schemas to order (default: the driver's default schema)")
	orderCmd.Flags().StringVar(&orderFormat, "format", "", "Output format: text, json or yaml (default: text)")
	orderCmd.Flags().StringVar(&orderOutFile, "out", "", "Output file (default: stdout)")
	orderCmd.Flags().BoolVar(&orderNoImplied, "no-implied", false, "Do not infer implied foreign keys")
	orderCmd.Flags().BoolVar(&orderStrict, "strict", false, "Fail when any constraint had to be removed to break a cycle")
}

func runOrder(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	opts, err := analyzerOptions(orderNoImplied)
	if err != nil {
		return err
	}

	conn, err := connect(ctx, orderDriver, orderSource)
	if err != nil {
		return err
	}
	defer conn.Close()

	schemas := orderSchemas
	if len(schemas) == 0 {
		schemas = cfg.Database.Schemas
	}

	logger.CLI().Debug("ordering schemas", "driver", conn.Driver, "schemas", schemas)

	engine := analyzer.NewEngine(conn, opts)
	analyses, err := engine.AnalyzeSchemas(ctx, schemas)
	if err != nil {
		return err
	}
	engine.Progress().Complete(analyses)

	if err := writeReports(cmd.OutOrStdout(), analyses); err != nil {
		return err
	}

	if orderStrict {
		removed := 0
		for _, a := range analyses {
			removed += len(a.Ordering.Removed)
		}
		if removed > 0 {
			return fmt.Errorf("%w: %d constraints removed", ErrConstraintsRemoved, removed)
		}
	}

	return nil
}

func writeReports(stdout io.Writer, analyses []*analyzer.Analysis) error {
	format := orderFormat
	if format == "" {
		format = cfg.Output.Format
	}
	outFile := orderOutFile
	if outFile == "" {
		outFile = cfg.Output.File
	}

	writer := stdout
	if outFile != "" {
		file, err := os.Create(outFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	w, err := output.NewWriter(format, writer)
	if err != nil {
		return err
	}
	return w.Write(output.NewReports(analyses))
}
