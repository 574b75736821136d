package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riyasyash/schemaorder/internal/config"
	"github.com/riyasyash/schemaorder/internal/db"
	"github.com/riyasyash/schemaorder/internal/logger"
)

var (
	initPath      string
	initDriver    string
	initSource    string
	initSchemas   []string
	initNoImplied bool
	initForce     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a schemaorder.yaml configuration file",
	Long: `Init writes a configuration file with default settings that order and
inspect pick up on later runs. Connection details given as flags are stored
in the file.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", "schemaorder.yaml", "Where to write the configuration file")
	initCmd.Flags().StringVar(&initDriver, "driver", db.DriverPostgres, "Database driver: postgres, mysql or sqlite")
	initCmd.Flags().StringVar(&initSource, "source", "", "Database DSN to store in the file")
	initCmd.Flags().StringSliceVar(&initSchemas, "schema", nil, "Comma-separated schemas to order by default")
	initCmd.Flags().BoolVar(&initNoImplied, "no-implied", false, "Disable implied foreign key inference in the file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists, use --force to overwrite", initPath)
	}

	driver, err := db.NormalizeDriver(initDriver)
	if err != nil {
		return err
	}

	generated := config.Default()
	generated.Database.Driver = driver
	generated.Database.DSN = initSource
	generated.Database.Schemas = initSchemas
	generated.SetInferenceEnabled(!initNoImplied)

	if err := generated.Validate(); err != nil {
		return err
	}
	if err := config.Save(generated, initPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.CLI().Debug("configuration written", "path", initPath, "driver", driver)
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", initPath)
	return nil
}
