package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tiercache/route"
)

func newRouteCmd() *cobra.Command {
	var (
		buckets int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "route KEY",
		Short: "Print the bucket a key routes to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := route.NewRouter(buckets, route.WithSeed(seed))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Bucket(args[0]))
			return err
		},
	}
	cmd.Flags().IntVar(&buckets, "buckets", 1, "number of buckets")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "hash seed shared by every instance")
	return cmd
}

func newDistributionCmd() *cobra.Command {
	var (
		keys    int
		buckets int
		prefix  string
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "distribution",
		Short: "Route sequential keys and print how many land in each bucket",
		Long: `Route the keys PREFIX-0001 .. PREFIX-N and print one line per bucket:

  Bucket distribution:
  Bucket 0: 98 keys
  Bucket 1: 104 keys
  ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keys < 0 {
				return fmt.Errorf("--keys must not be negative, got %d", keys)
			}
			r, err := route.NewRouter(buckets, route.WithSeed(seed))
			if err != nil {
				return err
			}
			_, err = r.Distribute(route.SequentialKeys(prefix, keys, 4)).WriteTo(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().IntVar(&keys, "keys", 1000, "number of keys to route")
	cmd.Flags().IntVar(&buckets, "buckets", 10, "number of buckets")
	cmd.Flags().StringVar(&prefix, "prefix", "Key", "key prefix")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "hash seed")
	return cmd
}
