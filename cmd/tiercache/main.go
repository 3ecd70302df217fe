// Command tiercache runs the tiered cache service and offers jump hash
// routing tools.
//
//	tiercache serve --config tiercache.yaml
//	tiercache route user:42 --buckets 10
//	tiercache distribution --keys 1000 --buckets 10
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tiercache",
		Short:         "Tiered cache service with jump consistent hash routing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newRouteCmd(),
		newDistributionCmd(),
	)
	return root
}
