// Package sweep runs a single license expiry sweep from the command line.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrshiti/inplay-sub000/internal/interfaces/cli/common"
	httpRouter "github.com/hrshiti/inplay-sub000/internal/interfaces/http"
)

var (
	env     string
	timeout time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue download licenses once",
		Long:  `Run one expiry sweep over active licenses past their expiry and exit.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Maximum duration of the sweep")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	rt, err := common.Bootstrap(common.ResolveEnv(env))
	if err != nil {
		return err
	}
	defer rt.Close()

	container, err := httpRouter.NewContainer(rt.Cfg, rt.DB, rt.Redis, rt.Log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	expired := container.SweepOnce(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "expired %d licenses\n", expired)
	return nil
}
