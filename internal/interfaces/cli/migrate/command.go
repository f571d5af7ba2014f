package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrshiti/inplay-sub000/internal/infrastructure/migration"
	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/common"
)

var (
	env   string
	steps int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply, roll back and inspect the embedded goose migrations.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	rt, err := common.Bootstrap(common.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Log.Infow("running up migrations", "environment", rt.Env)

	if err := migration.NewManager(rt.Cfg.Database, rt.Log).Migrate(rt.DB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	rt.Log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	if steps < 1 {
		return fmt.Errorf("steps must be at least 1")
	}

	rt, err := common.Bootstrap(common.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.Log.Infow("rolling back migrations", "environment", rt.Env, "steps", steps)

	if err := migration.NewGooseStrategy(rt.Log).MigrateDown(rt.DB, steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	rt.Log.Infow("rollback completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := common.Bootstrap(common.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	return migration.NewGooseStrategy(rt.Log).Status(rt.DB)
}
