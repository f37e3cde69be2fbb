package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"migrator/internal/config"
	"migrator/internal/dbclient"
	"migrator/internal/domain"
	"migrator/internal/etl"
	"migrator/internal/logging"
	"migrator/internal/service"
)

// confirmLiteral is the only third argument that enables live writes.
const confirmLiteral = "true"

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(context.Background())
}

// NewRootCommand builds the command tree. Progress goes to out, logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "migrator",
		Short:         "Copy every record of one collection into another",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.AddCommand(newRunCommand(out, errOut), newSchemaCommand(out, errOut))
	return root
}

func newRunCommand(out, errOut io.Writer) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run <sourceCollectionId> <targetCollectionId> [true|false]",
		Short: "Migrate records from the source collection into the target collection",
		Long: `Reads every record of the source collection, maps its properties onto the
target collection's schema and creates the records in the target.

The third argument "true" confirms the run and performs the writes; any other
value, or none, only simulates the migration (dry run).

On the mongodb and sqlite backends the target schema must be stored first
with "migrator schema".`,
		Args: argsWithUsage(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			confirm := len(args) == 3 && args[2] == confirmLiteral
			return runMigration(cmd.Context(), cfg, out, errOut, args[0], args[1], confirm)
		},
	}

	cmd.Flags().Int("batch-size", etl.DefaultBatchSize, "records per batch")
	_ = v.BindPFlag("MIGRATOR_BATCH_SIZE", cmd.Flags().Lookup("batch-size"))
	backendFlag(cmd, v)

	return cmd
}

func newSchemaCommand(out, errOut io.Writer) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "schema <collectionId> <schema.json>",
		Short: "Store the schema of a collection on the mongodb or sqlite backend",
		Long: `Reads a properties object in the shape of a Notion database, e.g.

  {"Name": {"type": "title", "title": {}}, "Done": {"type": "checkbox", "checkbox": {}}}

and stores it as the schema of the collection, replacing any previous one.
Notion databases carry their own schema and cannot be written this way.`,
		Args: argsWithUsage(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read schema file: %w", err)
			}
			schema, err := domain.DecodeSchema(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			return withConnector(cfg, errOut, func(conn dbclient.Connector, _ logrus.FieldLogger) error {
				if err := dbclient.PutSchema(cmd.Context(), conn, args[0], schema); err != nil {
					return err
				}
				fmt.Fprintf(out, "Stored schema of %s: %s\n", args[0], strings.Join(schema.Names(), ", "))
				return nil
			})
		},
	}

	backendFlag(cmd, v)
	return cmd
}

func argsWithUsage(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			_ = cmd.Usage()
			return err
		}
		return nil
	}
}

func backendFlag(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().String("backend", config.BackendNotion, "collection backend: notion, mongodb or sqlite")
	_ = v.BindPFlag("MIGRATOR_BACKEND", cmd.Flags().Lookup("backend"))
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	v.AutomaticEnv()
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("configuration loading error: %w", err)
	}
	return cfg, nil
}

// withConnector opens the configured backend, runs fn and closes it again.
func withConnector(cfg *config.Config, errOut io.Writer, fn func(dbclient.Connector, logrus.FieldLogger) error) error {
	logger, err := logging.New(errOut, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	conn, err := dbclient.NewConnector(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Backend, err)
	}
	logging.LogInfo(logger.WithField("backend", cfg.Backend), "connected")
	defer func() {
		if err := conn.Close(); err != nil {
			logging.LogError(logger, "Error closing connection", err)
		}
	}()

	return fn(conn, logger)
}

func runMigration(ctx context.Context, cfg *config.Config, out, errOut io.Writer, sourceID, targetID string, confirm bool) error {
	return withConnector(cfg, errOut, func(conn dbclient.Connector, logger logrus.FieldLogger) error {
		return migrate(ctx, conn, logger, cfg, out, sourceID, targetID, confirm)
	})
}

func migrate(ctx context.Context, conn dbclient.Connector, logger logrus.FieldLogger, cfg *config.Config, out io.Writer, sourceID, targetID string, confirm bool) error {
	svc := service.NewMigrationService(conn, logger, &service.ConsoleEmitter{Out: out},
		service.WithPace(cfg.Pace),
		service.WithBatchSize(cfg.BatchSize),
	)

	printBanner(out, sourceID, targetID, !confirm)
	result, err := svc.Run(ctx, service.RunInput{
		SourceID: sourceID,
		TargetID: targetID,
		Confirm:  confirm,
	})
	if err != nil {
		logger.WithError(err).Error("migration failed")
		return err
	}
	if result.Failed > 0 {
		logging.LogWarn(logger, fmt.Sprintf("%d of %d records failed to migrate", result.Failed, result.Attempted))
	}
	printSummary(out, result)
	return nil
}

func printBanner(out io.Writer, sourceID, targetID string, dryRun bool) {
	mode := "no"
	if dryRun {
		mode = "yes"
	}
	fmt.Fprintln(out, "Starting migration...")
	fmt.Fprintf(out, "   Source collection: %s\n", sourceID)
	fmt.Fprintf(out, "   Target collection: %s\n", targetID)
	fmt.Fprintf(out, "   Dry run: %s\n", mode)
	fmt.Fprintln(out, strings.Repeat("─", 50))
}

func printSummary(out io.Writer, r *etl.Result) {
	fmt.Fprintln(out, strings.Repeat("─", 50))
	fmt.Fprintln(out, "Migration finished!")
	if r.DryRun {
		fmt.Fprintf(out, "   Records simulated: %d\n", r.Simulated)
		return
	}
	fmt.Fprintf(out, "   Records migrated: %d\n", r.Succeeded)
	if r.Failed > 0 {
		fmt.Fprintf(out, "   Records failed: %d\n", r.Failed)
		for _, f := range r.Failures {
			fmt.Fprintf(out, "     - %s: %s\n", f.RecordID, f.Error)
		}
	}
}
